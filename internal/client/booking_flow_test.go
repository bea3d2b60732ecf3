package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bernicerice/MealMission/internal/domain"
)

type recordingBookings struct {
	stubBookings
	requests []domain.BookingRequest
	err      error
}

func (b *recordingBookings) CreateBooking(ctx context.Context, req domain.BookingRequest) (string, error) {
	b.requests = append(b.requests, req)
	if b.err != nil {
		return "", b.err
	}
	return "rec-1", nil
}

type recordingMarker struct{ ids []string }

func (m *recordingMarker) MarkBooked(id string) { m.ids = append(m.ids, id) }

var sushi = domain.Restaurant{ID: "r9", Name: "Sushi", TimeRange: "11-23", LikesCount: 4}

func TestBookingFlowPartyCountFloor(t *testing.T) {
	f := NewBookingFlow(sushi, domain.MeansCanAfford, &recordingBookings{}, nil, nil, nil)
	if f.PartyCount() != 1 {
		t.Fatalf("expected initial party of 1, got %d", f.PartyCount())
	}
	f.Decrement()
	f.Decrement()
	if f.PartyCount() != 1 {
		t.Fatalf("expected floor at 1, got %d", f.PartyCount())
	}
	for i := 0; i < 12; i++ {
		f.Increment()
	}
	f.Decrement()
	if f.PartyCount() != 12 {
		t.Fatalf("expected 12, got %d", f.PartyCount())
	}
}

func TestBookingFlowSetPartyCount(t *testing.T) {
	f := NewBookingFlow(sushi, domain.MeansCanAfford, &recordingBookings{}, nil, nil, nil)
	f.SetPartyCount(1_000_000)
	if f.PartyCount() != 1_000_000 {
		t.Fatalf("expected 1000000, got %d", f.PartyCount())
	}
	f.Decrement()
	if f.PartyCount() != 999_999 {
		t.Fatalf("expected 999999, got %d", f.PartyCount())
	}
	for _, n := range []int{0, -3} {
		f.SetPartyCount(n)
		if f.PartyCount() != 1 {
			t.Fatalf("SetPartyCount(%d): expected floor at 1, got %d", n, f.PartyCount())
		}
	}
}

func TestBookingFlowSubmitCreatesRecordAndMarksBooked(t *testing.T) {
	bookings := &recordingBookings{}
	marker := &recordingMarker{}
	dismissed := 0
	f := NewBookingFlow(sushi, domain.MeansCanAfford, bookings, marker, &fakeNavigator{}, func() { dismissed++ })
	f.SetDate(time.Date(2025, time.March, 7, 0, 0, 0, 0, time.UTC))
	f.SetTime(time.Date(2025, time.March, 7, 18, 5, 0, 0, time.UTC))
	f.Increment()

	id, err := f.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if id != "rec-1" {
		t.Fatalf("unexpected id %q", id)
	}
	want := domain.BookingRequest{RestaurantID: "r9", Date: "03/07/25", Time: "6:05 PM", PartyCount: 2}
	if len(bookings.requests) != 1 || bookings.requests[0] != want {
		t.Fatalf("unexpected requests %+v", bookings.requests)
	}
	if len(marker.ids) != 1 || marker.ids[0] != "r9" {
		t.Fatalf("expected r9 marked booked, got %v", marker.ids)
	}
	if dismissed != 1 {
		t.Fatalf("expected sheet dismissed once, got %d", dismissed)
	}
}

func TestBookingFlowIneligibleOnlyDismisses(t *testing.T) {
	bookings := &recordingBookings{}
	marker := &recordingMarker{}
	dismissed := 0
	f := NewBookingFlow(sushi, domain.MeansCannotAfford, bookings, marker, nil, func() { dismissed++ })

	if f.ShowsBookingControls() {
		t.Fatalf("ineligible mode must hide booking controls")
	}
	if f.ActionTitle() != "THANK YOU!" || f.Title() != "You can come in a restaurant's working time and get food for free" {
		t.Fatalf("unexpected titles %q / %q", f.Title(), f.ActionTitle())
	}
	id, err := f.Submit(context.Background())
	if err != nil || id != "" {
		t.Fatalf("expected no record, got %q %v", id, err)
	}
	if len(bookings.requests) != 0 || len(marker.ids) != 0 {
		t.Fatalf("ineligible submit must not book")
	}
	if dismissed != 1 {
		t.Fatalf("expected dismiss")
	}
}

func TestBookingFlowUnauthenticatedRoutesToAuth(t *testing.T) {
	nav := &fakeNavigator{}
	marker := &recordingMarker{}
	dismissed := 0
	f := NewBookingFlow(sushi, domain.MeansCanAfford, &recordingBookings{err: ErrNotAuthenticated}, marker, nav, func() { dismissed++ })

	if _, err := f.Submit(context.Background()); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if auth, _ := nav.counts(); auth != 1 {
		t.Fatalf("expected auth routing, got %d", auth)
	}
	if len(marker.ids) != 0 || dismissed != 0 {
		t.Fatalf("failed booking must not mark or dismiss")
	}
}

func TestBookingFlowFailureKeepsSheetOpen(t *testing.T) {
	dismissed := 0
	f := NewBookingFlow(sushi, domain.MeansCanAfford, &recordingBookings{err: storeErr("create booking", errors.New("down"))}, &recordingMarker{}, nil, func() { dismissed++ })
	if _, err := f.Submit(context.Background()); !errors.Is(err, ErrStore) {
		t.Fatalf("expected ErrStore, got %v", err)
	}
	if dismissed != 0 {
		t.Fatalf("sheet should stay open")
	}
	if f.Title() != "Booking" || f.ActionTitle() != "BOOK NOW" {
		t.Fatalf("unexpected titles")
	}
}

func TestBookingFlowMarksListing(t *testing.T) {
	l := NewListing(domain.ListingTarget, &stubCatalog{rows: []domain.Restaurant{sushi}}, &stubLikes{}, &stubBookings{}, nil)
	if err := l.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	f := NewBookingFlow(sushi, domain.MeansCanAfford, &recordingBookings{}, l, nil, l.ClearSelection)
	if _, ok := l.Select("r9"); !ok {
		t.Fatalf("select failed")
	}
	if _, err := f.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	st := l.Snapshot()
	if !st.BookedIDs.Has("r9") || st.SelectedForBooking != nil {
		t.Fatalf("expected r9 booked and selection cleared, got %+v", st)
	}
}
