package client

import (
	"context"
	"encoding/json"
	"log"
	"sort"
	"time"

	"github.com/bernicerice/MealMission/internal/doctree"
	"github.com/bernicerice/MealMission/internal/domain"
	"github.com/bernicerice/MealMission/internal/repository/ports"
)

// BookingService appends booking records under bookings/{uid} and reads
// them back.
type BookingService struct {
	store    ports.RemoteStore
	identity IdentitySource
}

func NewBookingService(store ports.RemoteStore, identity IdentitySource) *BookingService {
	return &BookingService{store: store, identity: identity}
}

type bookingRecord struct {
	RestaurantID   *string `json:"restaurantId"`
	Date           string  `json:"date"`
	Time           string  `json:"time"`
	NumberOfPeople int     `json:"numberOfPeople"`
	CreatedAt      int64   `json:"createdAt"`
}

// FetchBookedRestaurantIDs returns the distinct restaurants the user holds a
// booking for. Records without a restaurantId are skipped.
func (s *BookingService) FetchBookedRestaurantIDs(ctx context.Context) (domain.IDSet, error) {
	records, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	out := make(domain.IDSet, len(records))
	for _, r := range records {
		out.Add(r.RestaurantID)
	}
	return out, nil
}

// ListBookings returns the user's records oldest first.
func (s *BookingService) ListBookings(ctx context.Context) ([]domain.BookingRecord, error) {
	records, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.Before(records[j].CreatedAt)
		}
		return records[i].ID < records[j].ID
	})
	return records, nil
}

// CreateBooking pushes a new record stamped with the store's clock and
// returns its generated ID. Party size is stored as given.
func (s *BookingService) CreateBooking(ctx context.Context, req domain.BookingRequest) (string, error) {
	uid, ok := s.identity.CurrentUserID()
	if !ok {
		return "", ErrNotAuthenticated
	}
	if !doctree.ValidKey(req.RestaurantID) {
		return "", ErrInvalidID
	}
	doc := domain.BookingDocument{
		RestaurantID:   req.RestaurantID,
		Date:           req.Date,
		Time:           req.Time,
		NumberOfPeople: req.PartyCount,
		CreatedAt:      domain.ServerTimestamp,
	}
	id, err := s.store.Push(ctx, doctree.Join(bookingsRoot, uid), doc)
	if err != nil {
		if sessionLost(s.identity, uid, err) {
			return "", ErrNotAuthenticated
		}
		return "", storeErr("create booking", err)
	}
	return id, nil
}

func (s *BookingService) fetch(ctx context.Context) ([]domain.BookingRecord, error) {
	uid, ok := s.identity.CurrentUserID()
	if !ok {
		return nil, nil
	}
	snap, err := s.store.Get(ctx, doctree.Join(bookingsRoot, uid))
	if err != nil {
		if sessionLost(s.identity, uid, err) {
			log.Printf("bookings: session for %s ended: %v", uid, err)
			return nil, nil
		}
		return nil, storeErr("fetch bookings", err)
	}
	if !snap.Exists() {
		return nil, nil
	}

	var entries map[string]json.RawMessage
	if err := snap.Decode(&entries); err != nil {
		log.Printf("bookings: unexpected shape for %s: %v", uid, err)
		return nil, nil
	}
	out := make([]domain.BookingRecord, 0, len(entries))
	for id, raw := range entries {
		var rec bookingRecord
		if err := json.Unmarshal(raw, &rec); err != nil || rec.RestaurantID == nil || *rec.RestaurantID == "" {
			log.Printf("bookings: skip malformed record %s", id)
			continue
		}
		out = append(out, domain.BookingRecord{
			ID:           id,
			RestaurantID: *rec.RestaurantID,
			Date:         rec.Date,
			Time:         rec.Time,
			PartyCount:   rec.NumberOfPeople,
			CreatedAt:    time.UnixMilli(rec.CreatedAt),
		})
	}
	return out, nil
}
