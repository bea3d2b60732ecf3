package client

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/bernicerice/MealMission/internal/domain"
)

const (
	BookingDateLayout = "01/02/06"
	BookingTimeLayout = "3:04 PM"
)

// BookedMarker is told about bookings created by a flow. Listing implements it.
type BookedMarker interface {
	MarkBooked(restaurantID string)
}

// BookingFlow is the booking sheet opened for one restaurant. In the
// eligible mode it collects date, time and party size and creates a booking
// record; otherwise it only acknowledges the visit.
type BookingFlow struct {
	restaurant domain.Restaurant
	mode       domain.MeansMode
	bookings   BookingRegistry
	marker     BookedMarker
	nav        Navigator
	onDismiss  func()

	mu    sync.Mutex
	date  time.Time
	clock time.Time
	party int
}

func NewBookingFlow(restaurant domain.Restaurant, mode domain.MeansMode, bookings BookingRegistry, marker BookedMarker, nav Navigator, onDismiss func()) *BookingFlow {
	now := time.Now()
	return &BookingFlow{
		restaurant: restaurant,
		mode:       mode,
		bookings:   bookings,
		marker:     marker,
		nav:        nav,
		onDismiss:  onDismiss,
		date:       now,
		clock:      now,
		party:      1,
	}
}

func (f *BookingFlow) Restaurant() domain.Restaurant { return f.restaurant }

func (f *BookingFlow) Mode() domain.MeansMode { return f.mode }

func (f *BookingFlow) SetDate(t time.Time) {
	f.mu.Lock()
	f.date = t
	f.mu.Unlock()
}

func (f *BookingFlow) SetTime(t time.Time) {
	f.mu.Lock()
	f.clock = t
	f.mu.Unlock()
}

func (f *BookingFlow) PartyCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.party
}

func (f *BookingFlow) Increment() {
	f.mu.Lock()
	f.party++
	f.mu.Unlock()
}

// SetPartyCount sets the party size directly, floored at one.
func (f *BookingFlow) SetPartyCount(n int) {
	if n < 1 {
		n = 1
	}
	f.mu.Lock()
	f.party = n
	f.mu.Unlock()
}

// Decrement never takes the party size below one.
func (f *BookingFlow) Decrement() {
	f.mu.Lock()
	if f.party > 1 {
		f.party--
	}
	f.mu.Unlock()
}

func (f *BookingFlow) DateString() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.date.Format(BookingDateLayout)
}

func (f *BookingFlow) TimeString() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clock.Format(BookingTimeLayout)
}

func (f *BookingFlow) Title() string {
	if f.mode.Eligible() {
		return "Booking"
	}
	return "You can come in a restaurant's working time and get food for free"
}

func (f *BookingFlow) ActionTitle() string {
	if f.mode.Eligible() {
		return "BOOK NOW"
	}
	return "THANK YOU!"
}

func (f *BookingFlow) ShowsBookingControls() bool {
	return f.mode.Eligible()
}

// Submit creates the booking and returns its record ID. In the ineligible
// mode it only dismisses the sheet. Without a signed-in user it routes to
// the authorization screen and returns ErrNotAuthenticated. On any other
// failure the sheet stays open.
func (f *BookingFlow) Submit(ctx context.Context) (string, error) {
	if !f.mode.Eligible() {
		f.dismiss()
		return "", nil
	}

	f.mu.Lock()
	req := domain.BookingRequest{
		RestaurantID: f.restaurant.ID,
		Date:         f.date.Format(BookingDateLayout),
		Time:         f.clock.Format(BookingTimeLayout),
		PartyCount:   f.party,
	}
	f.mu.Unlock()

	id, err := f.bookings.CreateBooking(ctx, req)
	if errors.Is(err, ErrNotAuthenticated) {
		if f.nav != nil {
			f.nav.GoToAuth()
		}
		return "", err
	}
	if err != nil {
		log.Printf("booking %s: %v", f.restaurant.ID, err)
		return "", err
	}

	if f.marker != nil {
		f.marker.MarkBooked(f.restaurant.ID)
	}
	f.dismiss()
	return id, nil
}

func (f *BookingFlow) dismiss() {
	if f.onDismiss != nil {
		f.onDismiss()
	}
}
