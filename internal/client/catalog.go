package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"

	"github.com/bernicerice/MealMission/internal/domain"
	"github.com/bernicerice/MealMission/internal/repository/ports"
)

const (
	restaurantsPath = "restaurants"
	likesRoot       = "user_likes"
	bookingsRoot    = "bookings"
)

// IdentitySource reports the signed-in user, if any.
type IdentitySource interface {
	CurrentUserID() (string, bool)
}

// CatalogService reads the restaurant catalog.
type CatalogService struct {
	store ports.RemoteStore
}

func NewCatalogService(store ports.RemoteStore) *CatalogService {
	return &CatalogService{store: store}
}

// restaurantRecord uses pointers so a missing field can be told apart from a
// zero value.
type restaurantRecord struct {
	Name       *string `json:"name"`
	TimeRange  *string `json:"timeRange"`
	LikesCount *int    `json:"likesCount"`
	ImageURL   *string `json:"imageURL"`
}

// FetchAll returns every well-formed catalog entry, ordered by key. Entries
// that fail to decode are logged and skipped.
func (s *CatalogService) FetchAll(ctx context.Context) ([]domain.Restaurant, error) {
	snap, err := s.store.Get(ctx, restaurantsPath)
	if err != nil {
		return nil, storeErr("fetch restaurants", err)
	}
	if !snap.Exists() {
		return nil, ErrNotFound
	}

	var entries map[string]json.RawMessage
	if err := snap.Decode(&entries); err != nil {
		return nil, ErrInvalidShape
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]domain.Restaurant, 0, len(keys))
	for _, id := range keys {
		r, err := decodeRestaurant(id, entries[id])
		if err != nil {
			log.Printf("catalog: skip %s: %v", id, err)
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func decodeRestaurant(id string, raw json.RawMessage) (domain.Restaurant, error) {
	var rec restaurantRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.Restaurant{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	switch {
	case rec.Name == nil:
		return domain.Restaurant{}, fmt.Errorf("%w: missing name", ErrDecode)
	case rec.TimeRange == nil:
		return domain.Restaurant{}, fmt.Errorf("%w: missing timeRange", ErrDecode)
	case rec.LikesCount == nil:
		return domain.Restaurant{}, fmt.Errorf("%w: missing likesCount", ErrDecode)
	case *rec.LikesCount < 0:
		return domain.Restaurant{}, fmt.Errorf("%w: negative likesCount", ErrDecode)
	case rec.ImageURL == nil:
		return domain.Restaurant{}, fmt.Errorf("%w: missing imageURL", ErrDecode)
	}
	return domain.Restaurant{
		ID:         id,
		Name:       *rec.Name,
		TimeRange:  *rec.TimeRange,
		LikesCount: *rec.LikesCount,
		ImageURL:   *rec.ImageURL,
	}, nil
}
