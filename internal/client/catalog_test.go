package client

import (
	"context"
	"errors"
	"testing"

	"github.com/bernicerice/MealMission/internal/domain"
)

const catalogFixture = `{
	"r1": {"name": "Borsch", "timeRange": "10:00-22:00", "likesCount": 3, "imageURL": "https://img/r1.jpg"},
	"r2": {"name": "Dumplings", "timeRange": "09:00-21:00", "likesCount": 5, "imageURL": "https://img/r2.jpg"},
	"r3": {"name": "Kebab", "timeRange": "12:00-23:00", "imageURL": "https://img/r3.jpg"},
	"r4": {"name": "Pasta", "timeRange": "11:00-20:00", "likesCount": 5, "imageURL": "https://img/r4.jpg"},
	"r5": {"name": "Ramen", "timeRange": "13:00-01:00", "likesCount": 1, "imageURL": "https://img/r5.jpg"}
}`

func TestCatalogFetchAllSkipsMalformedEntries(t *testing.T) {
	store := newFakeStore()
	store.seed(t, "restaurants", catalogFixture)

	got, err := NewCatalogService(store).FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 restaurants, got %d: %+v", len(got), got)
	}
	wantIDs := []string{"r1", "r2", "r4", "r5"}
	for i, id := range wantIDs {
		if got[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, got[i].ID)
		}
	}
	want := domain.Restaurant{ID: "r2", Name: "Dumplings", TimeRange: "09:00-21:00", LikesCount: 5, ImageURL: "https://img/r2.jpg"}
	if got[1] != want {
		t.Fatalf("unexpected decode: %+v", got[1])
	}
}

func TestCatalogFetchAllRejectsWrongTypesAndNegativeCounts(t *testing.T) {
	store := newFakeStore()
	store.seed(t, "restaurants", `{
		"a": {"name": "Ok", "timeRange": "x", "likesCount": 0, "imageURL": ""},
		"b": {"name": 7, "timeRange": "x", "likesCount": 1, "imageURL": ""},
		"c": {"name": "Neg", "timeRange": "x", "likesCount": -2, "imageURL": ""},
		"d": {"name": "Frac", "timeRange": "x", "likesCount": 1.5, "imageURL": ""},
		"e": "not an object"
	}`)

	got, err := NewCatalogService(store).FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("expected only a, got %+v", got)
	}
}

func TestCatalogFetchAllNotFound(t *testing.T) {
	_, err := NewCatalogService(newFakeStore()).FetchAll(context.Background())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if Kind(err) != domain.ErrorKindNotFound {
		t.Fatalf("unexpected kind %q", Kind(err))
	}
}

func TestCatalogFetchAllInvalidShape(t *testing.T) {
	store := newFakeStore()
	store.seed(t, "", `{"restaurants": "closed"}`)

	_, err := NewCatalogService(store).FetchAll(context.Background())
	if !errors.Is(err, ErrInvalidShape) {
		t.Fatalf("expected ErrInvalidShape, got %v", err)
	}
}

func TestCatalogFetchAllWrapsTransportError(t *testing.T) {
	boom := errors.New("connection reset")
	store := newFakeStore()
	store.failOn("restaurants", boom)

	_, err := NewCatalogService(store).FetchAll(context.Background())
	if !errors.Is(err, ErrStore) || !errors.Is(err, boom) {
		t.Fatalf("expected store error wrapping transport error, got %v", err)
	}
	if msg := Message(err); msg != "An error occurred while fetching data: connection reset" {
		t.Fatalf("unexpected message %q", msg)
	}
}
