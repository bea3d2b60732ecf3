package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"

	"github.com/docopt/docopt-go"

	"github.com/bernicerice/MealMission/internal/client"
	"github.com/bernicerice/MealMission/internal/config"
	"github.com/bernicerice/MealMission/internal/domain"
	"github.com/bernicerice/MealMission/internal/logging"
	"github.com/bernicerice/MealMission/internal/media"
	"github.com/bernicerice/MealMission/internal/repository/rtdb"
)

const version = "0.1.0"

const usage = `MealMission terminal client.

The server url is read from MEALMISSION_API_URL (default http://localhost:8080).
Passwords may also be given in MEALMISSION_PASSWORD.

Usage:
    mealmission restaurants [--search=<query>]
    mealmission liked [--search=<query>]
    mealmission like <restaurant_id>
    mealmission unlike <restaurant_id>
    mealmission book <restaurant_id> [--date=<date>] [--time=<time>] [--people=<n>] [--cant-afford]
    mealmission bookings
    mealmission signin <email> [--password=<password>]
    mealmission signup <email> [--password=<password>] [--confirm=<password>]
    mealmission google <id_token>
    mealmission signout
    mealmission delete-account
    mealmission profile
    mealmission avatar <image_file>
    mealmission -h | --help
    mealmission --version

Options:
    -h --help               Show this screen.
    --version               Show version.
    --search=<query>        Only show restaurants whose name contains query.
    --date=<date>           Booking date as MM/DD/YY [default: today].
    --time=<time>           Booking time as HH:MM, 24h clock [default: now].
    --people=<n>            Party size [default: 1].
    --cant-afford           Visit for free instead of booking.
    --password=<password>   Account password.
    --confirm=<password>    Password confirmation for signup.`

var (
	Out = log.New(os.Stdout, "", 0)
	Err = log.New(os.Stderr, "", 0)
)

type app struct {
	identity    *rtdb.Identity
	coordinator *client.Coordinator
	nav         client.Navigator
	catalog     *client.CatalogService
	likes       *client.LikeService
	bookings    *client.BookingService
	profile     *client.ProfileService
}

func main() {
	opts, err := docopt.ParseArgs(usage, os.Args[1:], version)
	if err != nil {
		Err.Fatalf("parse args: %v", err)
	}

	cfg := config.LoadClient()
	closer := logging.Setup("[mealmission]", cfg.LogstashTCPAddr)
	defer closer.Close()
	if cfg.LogstashTCPAddr == "" {
		// Service logs stay out of the way of command output.
		log.SetOutput(discardUnlessDebug())
	}

	a, err := newApp(cfg)
	if err != nil {
		Err.Fatalf("%v", err)
	}
	defer a.coordinator.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := a.run(ctx, opts); err != nil {
		Err.Printf("error: %v", err)
		closer.Close()
		os.Exit(1)
	}
}

func newApp(cfg config.ClientConfig) (*app, error) {
	httpClient := &http.Client{}
	identity, err := rtdb.NewIdentity(cfg.APIURL, httpClient, cfg.SessionFile)
	if err != nil {
		return nil, err
	}
	store, err := rtdb.NewStore(cfg.APIURL, httpClient, identity)
	if err != nil {
		return nil, err
	}

	coordinator := client.NewCoordinator(identity, func(s domain.Screen) {
		log.Printf("screen: %s", s)
	})
	coordinator.HandleLaunch()
	coordinator.Start()

	return &app{
		identity:    identity,
		coordinator: coordinator,
		nav:         promptNavigator{coordinator},
		catalog:     client.NewCatalogService(store),
		likes:       client.NewLikeService(store, identity),
		bookings:    client.NewBookingService(store, identity),
		profile:     client.NewProfileService(identity, identity, media.NewJPEGProcessor(0), cfg.DataDir, coordinator),
	}, nil
}

func (a *app) run(ctx context.Context, opts docopt.Opts) error {
	commands := []struct {
		name string
		run  func(context.Context, docopt.Opts) error
	}{
		{"restaurants", a.restaurants},
		{"liked", a.liked},
		{"like", a.like},
		{"unlike", a.unlike},
		{"book", a.book},
		{"bookings", a.listBookings},
		{"signin", a.signIn},
		{"signup", a.signUp},
		{"google", a.google},
		{"signout", a.signOut},
		{"delete-account", a.deleteAccount},
		{"profile", a.showProfile},
		{"avatar", a.avatar},
	}
	for _, cmd := range commands {
		if on, _ := opts.Bool(cmd.name); on {
			return cmd.run(ctx, opts)
		}
	}
	return nil
}

// promptNavigator tells the user how to sign in whenever a command needs an
// account.
type promptNavigator struct {
	*client.Coordinator
}

func (n promptNavigator) GoToAuth() {
	Err.Printf("You are not signed in. Run: mealmission signin <email>")
	n.Coordinator.GoToAuth()
}

func discardUnlessDebug() *os.File {
	if os.Getenv("MEALMISSION_DEBUG") != "" {
		return os.Stderr
	}
	devNull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		return os.Stderr
	}
	return devNull
}
