package client

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/bernicerice/MealMission/internal/repository/ports"
)

func TestFetchLikedIDsWithoutIdentityIsEmpty(t *testing.T) {
	store := newFakeStore()
	svc := NewLikeService(store, &fakeIdentity{})

	ids, err := svc.FetchLikedIDs(context.Background())
	if err != nil {
		t.Fatalf("FetchLikedIDs: %v", err)
	}
	if ids.Len() != 0 {
		t.Fatalf("expected empty set, got %v", ids.Sorted())
	}
	if store.callCount() != 0 {
		t.Fatalf("expected no store call, got %d", store.callCount())
	}
}

func TestFetchLikedIDsCountsOnlyTrue(t *testing.T) {
	store := newFakeStore()
	store.seed(t, "user_likes/u1", `{"r1": true, "r2": false, "r3": true}`)

	ids, err := NewLikeService(store, &fakeIdentity{uid: "u1"}).FetchLikedIDs(context.Background())
	if err != nil {
		t.Fatalf("FetchLikedIDs: %v", err)
	}
	got := ids.Sorted()
	if len(got) != 2 || got[0] != "r1" || got[1] != "r3" {
		t.Fatalf("unexpected liked ids %v", got)
	}
}

func TestFetchLikedIDsBadShapeDegrades(t *testing.T) {
	store := newFakeStore()
	store.seed(t, "user_likes/u1", `{"r1": "yes"}`)

	ids, err := NewLikeService(store, &fakeIdentity{uid: "u1"}).FetchLikedIDs(context.Background())
	if err != nil {
		t.Fatalf("FetchLikedIDs: %v", err)
	}
	if ids.Len() != 0 {
		t.Fatalf("expected empty set, got %v", ids.Sorted())
	}
}

func TestAddAndRemoveLikeAreIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	svc := NewLikeService(store, &fakeIdentity{uid: "u1"})

	for i := 0; i < 2; i++ {
		if err := svc.AddLike(ctx, "r1"); err != nil {
			t.Fatalf("AddLike #%d: %v", i+1, err)
		}
	}
	ids, _ := svc.FetchLikedIDs(ctx)
	if !ids.Has("r1") || ids.Len() != 1 {
		t.Fatalf("expected {r1}, got %v", ids.Sorted())
	}

	for i := 0; i < 2; i++ {
		if err := svc.RemoveLike(ctx, "r1"); err != nil {
			t.Fatalf("RemoveLike #%d: %v", i+1, err)
		}
	}
	ids, _ = svc.FetchLikedIDs(ctx)
	if ids.Len() != 0 {
		t.Fatalf("expected empty set, got %v", ids.Sorted())
	}
}

func TestLikeWritesRequireIdentityAndValidID(t *testing.T) {
	ctx := context.Background()
	anon := NewLikeService(newFakeStore(), &fakeIdentity{})
	if err := anon.AddLike(ctx, "r1"); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if err := anon.RemoveLike(ctx, "r1"); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}

	svc := NewLikeService(newFakeStore(), &fakeIdentity{uid: "u1"})
	for _, id := range []string{"", "a/b", "x.y"} {
		if err := svc.AddLike(ctx, id); !errors.Is(err, ErrInvalidID) {
			t.Fatalf("AddLike(%q): expected ErrInvalidID, got %v", id, err)
		}
	}
}

func TestAddLikeWrapsTransportError(t *testing.T) {
	boom := errors.New("timeout")
	store := newFakeStore()
	store.failOn("user_likes/u1/r1", boom)

	err := NewLikeService(store, &fakeIdentity{uid: "u1"}).AddLike(context.Background(), "r1")
	if !errors.Is(err, ErrStore) || !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestRejectedSessionRoutesLikesToAuth(t *testing.T) {
	ctx := context.Background()
	rejected := fmt.Errorf("GET: 401 (UNAUTHORIZED): %w", ports.ErrUnauthorized)
	store := newFakeStore()
	store.failOn("user_likes/u1", rejected)
	store.failOn("user_likes/u1/r1", rejected)
	svc := NewLikeService(store, &fakeIdentity{uid: "u1"})

	ids, err := svc.FetchLikedIDs(ctx)
	if err != nil || ids.Len() != 0 {
		t.Fatalf("expected empty set, got %v (%v)", ids.Sorted(), err)
	}
	if err := svc.AddLike(ctx, "r1"); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("AddLike: expected ErrNotAuthenticated, got %v", err)
	}
	if err := svc.RemoveLike(ctx, "r1"); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("RemoveLike: expected ErrNotAuthenticated, got %v", err)
	}
}

func TestSessionLostWhenIdentityChanged(t *testing.T) {
	identity := &fakeIdentity{uid: "u1"}
	denied := errors.New("401 permission denied")

	if sessionLost(identity, "u1", denied) {
		t.Fatalf("plain failure for the current user is a store error")
	}
	identity.mu.Lock()
	identity.uid = ""
	identity.mu.Unlock()
	if !sessionLost(identity, "u1", denied) {
		t.Fatalf("failure after sign-out should count as a lost session")
	}
	if !sessionLost(&fakeIdentity{uid: "u2"}, "u1", denied) {
		t.Fatalf("failure after a user switch should count as a lost session")
	}
}
