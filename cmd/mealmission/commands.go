package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/docopt/docopt-go"

	"github.com/bernicerice/MealMission/internal/client"
	"github.com/bernicerice/MealMission/internal/domain"
)

func (a *app) listing(variant domain.ListingVariant) *client.Listing {
	return client.NewListing(variant, a.catalog, a.likes, a.bookings, a.nav)
}

func (a *app) restaurants(ctx context.Context, opts docopt.Opts) error {
	return a.showListing(ctx, domain.ListingTarget, opts)
}

func (a *app) liked(ctx context.Context, opts docopt.Opts) error {
	return a.showListing(ctx, domain.ListingLiked, opts)
}

func (a *app) showListing(ctx context.Context, variant domain.ListingVariant, opts docopt.Opts) error {
	l := a.listing(variant)
	if err := l.Load(ctx); err != nil {
		return displayErr(err)
	}
	if query, _ := opts.String("--search"); query != "" {
		l.SetSearchQuery(query)
	}
	items := l.Items()
	if len(items) == 0 {
		if variant == domain.ListingLiked {
			Out.Printf("You have not liked any restaurant yet.")
		} else {
			Out.Printf("No restaurants found.")
		}
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tHOURS\tLIKES\t")
	for _, it := range items {
		flags := ""
		if it.Liked {
			flags += "♥"
		}
		if it.Booked {
			flags += " booked"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", it.ID, it.Name, it.TimeRange, it.LikesCount, strings.TrimSpace(flags))
	}
	return w.Flush()
}

func (a *app) like(ctx context.Context, opts docopt.Opts) error {
	return a.setLiked(ctx, opts, true)
}

func (a *app) unlike(ctx context.Context, opts docopt.Opts) error {
	return a.setLiked(ctx, opts, false)
}

// setLiked drives the listing toggle so the command goes through the same
// single-flight path as the screens do. It is a no-op when the restaurant is
// already in the requested state.
func (a *app) setLiked(ctx context.Context, opts docopt.Opts, want bool) error {
	id, _ := opts.String("<restaurant_id>")
	l := a.listing(domain.ListingTarget)
	if err := l.Load(ctx); err != nil {
		return displayErr(err)
	}
	if l.Snapshot().LikedIDs.Has(id) == want {
		Out.Printf("Nothing to do.")
		return nil
	}
	if err := l.ToggleLike(ctx, id); err != nil {
		if errors.Is(err, client.ErrNotAuthenticated) {
			return nil
		}
		return displayErr(err)
	}
	if want {
		Out.Printf("Liked %s.", id)
	} else {
		Out.Printf("Removed %s from liked.", id)
	}
	return nil
}

func (a *app) book(ctx context.Context, opts docopt.Opts) error {
	id, _ := opts.String("<restaurant_id>")
	cantAfford, _ := opts.Bool("--cant-afford")
	mode := domain.MeansCanAfford
	if cantAfford {
		mode = domain.MeansCannotAfford
	}

	l := a.listing(domain.ListingTarget)
	if err := l.Load(ctx); err != nil {
		return displayErr(err)
	}
	restaurant, ok := l.Select(id)
	if !ok {
		return fmt.Errorf("unknown restaurant %q", id)
	}

	flow := client.NewBookingFlow(restaurant, mode, a.bookings, l, a.nav, l.ClearSelection)
	Out.Printf("%s: %s", restaurant.Name, flow.Title())
	if flow.ShowsBookingControls() {
		if err := applyBookingOptions(flow, opts); err != nil {
			return err
		}
		Out.Printf("%s at %s for %d", flow.DateString(), flow.TimeString(), flow.PartyCount())
	}

	recordID, err := flow.Submit(ctx)
	if errors.Is(err, client.ErrNotAuthenticated) {
		return nil
	}
	if err != nil {
		return displayErr(err)
	}
	if recordID != "" {
		Out.Printf("%s Booking %s confirmed.", flow.ActionTitle(), recordID)
	} else {
		Out.Printf("%s", flow.ActionTitle())
	}
	return nil
}

func applyBookingOptions(flow *client.BookingFlow, opts docopt.Opts) error {
	if raw, _ := opts.String("--date"); raw != "" && raw != "today" {
		d, err := time.ParseInLocation(client.BookingDateLayout, raw, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --date %q, want MM/DD/YY", raw)
		}
		flow.SetDate(d)
	}
	if raw, _ := opts.String("--time"); raw != "" && raw != "now" {
		t, err := time.ParseInLocation("15:04", raw, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --time %q, want HH:MM", raw)
		}
		flow.SetTime(t)
	}
	if raw, _ := opts.String("--people"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid --people %q", raw)
		}
		flow.SetPartyCount(n)
	}
	return nil
}

func (a *app) listBookings(ctx context.Context, opts docopt.Opts) error {
	if _, ok := a.identity.CurrentUserID(); !ok {
		a.nav.GoToAuth()
		return nil
	}
	records, err := a.bookings.ListBookings(ctx)
	if err != nil {
		return displayErr(err)
	}
	if len(records) == 0 {
		Out.Printf("No bookings yet.")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "BOOKING\tRESTAURANT\tDATE\tTIME\tPEOPLE\tCREATED")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n", r.ID, r.RestaurantID, r.Date, r.Time, r.PartyCount, r.CreatedAt.Local().Format(time.RFC822))
	}
	return w.Flush()
}

func (a *app) signIn(ctx context.Context, opts docopt.Opts) error {
	form := client.NewAuthorizationForm(a.identity, a.coordinator)
	form.Email, _ = opts.String("<email>")
	form.Password = password(opts, "--password")
	return a.submitForm(ctx, form)
}

func (a *app) signUp(ctx context.Context, opts docopt.Opts) error {
	form := client.NewAuthorizationForm(a.identity, a.coordinator)
	form.ToggleMode()
	form.Email, _ = opts.String("<email>")
	form.Password = password(opts, "--password")
	form.ConfirmPassword = form.Password
	if confirm, _ := opts.String("--confirm"); confirm != "" {
		form.ConfirmPassword = confirm
	}
	return a.submitForm(ctx, form)
}

func (a *app) submitForm(ctx context.Context, form *client.AuthorizationForm) error {
	id, err := form.Submit(ctx)
	if err != nil {
		return errors.New(form.ErrorMessage)
	}
	Out.Printf("Signed in as %s.", id.Email)
	return nil
}

func (a *app) google(ctx context.Context, opts docopt.Opts) error {
	token, _ := opts.String("<id_token>")
	form := client.NewAuthorizationForm(a.identity, a.coordinator)
	id, err := form.SubmitGoogle(ctx, token)
	if err != nil {
		return errors.New(form.ErrorMessage)
	}
	Out.Printf("Signed in as %s.", id.Email)
	return nil
}

func (a *app) signOut(ctx context.Context, opts docopt.Opts) error {
	if err := a.profile.SignOut(ctx); err != nil {
		return err
	}
	Out.Printf("Signed out.")
	return nil
}

func (a *app) deleteAccount(ctx context.Context, opts docopt.Opts) error {
	if msg, err := a.profile.DeleteAccount(ctx); err != nil {
		return errors.New(msg)
	}
	Out.Printf("Account deleted.")
	return nil
}

func (a *app) showProfile(ctx context.Context, opts docopt.Opts) error {
	if _, ok := a.identity.CurrentUserID(); ok {
		if _, err := a.identity.Refresh(ctx); err != nil {
			Err.Printf("could not refresh profile: %v", err)
		}
	}
	p := a.profile.Profile()
	Out.Printf("Name:   %s", p.DisplayName)
	Out.Printf("Email:  %s", p.Email)
	if p.AvatarURL != "" {
		Out.Printf("Avatar: %s", p.AvatarURL)
	}
	if p.ImagePath != "" {
		Out.Printf("Image:  %s", p.ImagePath)
	}
	return nil
}

func (a *app) avatar(ctx context.Context, opts docopt.Opts) error {
	path, _ := opts.String("<image_file>")
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	saved, err := a.profile.UpdateImage(ctx, filepath.Base(path), data)
	if err != nil {
		return err
	}
	Out.Printf("Profile image saved to %s.", saved)
	if p := a.profile.Profile(); p.AvatarURL != "" {
		Out.Printf("Avatar: %s", p.AvatarURL)
	}
	return nil
}

func password(opts docopt.Opts, flag string) string {
	if pw, _ := opts.String(flag); pw != "" {
		return pw
	}
	return os.Getenv("MEALMISSION_PASSWORD")
}

// displayErr turns a client error into the text the screens would show.
func displayErr(err error) error {
	if msg := client.Message(err); msg != "" {
		return errors.New(msg)
	}
	return err
}
