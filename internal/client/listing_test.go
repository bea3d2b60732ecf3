package client

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bernicerice/MealMission/internal/domain"
)

type stubCatalog struct {
	rows  []domain.Restaurant
	err   error
	calls atomic.Int32
	gate  chan struct{}
}

func (c *stubCatalog) FetchAll(ctx context.Context) ([]domain.Restaurant, error) {
	c.calls.Add(1)
	if c.gate != nil {
		<-c.gate
	}
	return c.rows, c.err
}

// stubLikes records writes; when gate is set AddLike and RemoveLike block
// until it is closed.
type stubLikes struct {
	liked   domain.IDSet
	err     error
	addErr  error
	gate    chan struct{}
	entered chan struct{}
	writes  atomic.Int32
}

func (l *stubLikes) FetchLikedIDs(ctx context.Context) (domain.IDSet, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.liked.Clone(), nil
}

func (l *stubLikes) AddLike(ctx context.Context, id string) error { return l.write() }

func (l *stubLikes) RemoveLike(ctx context.Context, id string) error { return l.write() }

func (l *stubLikes) write() error {
	l.writes.Add(1)
	if l.entered != nil {
		l.entered <- struct{}{}
	}
	if l.gate != nil {
		<-l.gate
	}
	return l.addErr
}

type stubBookings struct {
	booked domain.IDSet
	err    error
}

func (b *stubBookings) FetchBookedRestaurantIDs(ctx context.Context) (domain.IDSet, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.booked.Clone(), nil
}

func (b *stubBookings) CreateBooking(ctx context.Context, req domain.BookingRequest) (string, error) {
	return "", errors.New("not used")
}

func restaurants(pairs ...any) []domain.Restaurant {
	var out []domain.Restaurant
	for i := 0; i < len(pairs); i += 2 {
		id := pairs[i].(string)
		out = append(out, domain.Restaurant{ID: id, Name: "Place " + strings.ToUpper(id), LikesCount: pairs[i+1].(int)})
	}
	return out
}

func ids(rows []domain.Restaurant) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestTargetListingSortsByLikesDescendingStable(t *testing.T) {
	catalog := &stubCatalog{rows: restaurants("a", 3, "b", 5, "c", 5, "d", 1)}
	l := NewListing(domain.ListingTarget, catalog, &stubLikes{}, &stubBookings{}, nil)

	if err := l.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := ids(l.Restaurants())
	if want := []string{"b", "c", "a", "d"}; !equalIDs(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if st := l.Snapshot(); st.Status != domain.ListingReady {
		t.Fatalf("expected ready, got %s", st.Status)
	}
}

func TestLikedListingKeepsCatalogOrder(t *testing.T) {
	catalog := &stubCatalog{rows: restaurants("a", 1, "b", 9, "c", 4, "d", 7)}
	likes := &stubLikes{liked: domain.NewIDSet("d", "a", "zz")}
	l := NewListing(domain.ListingLiked, catalog, likes, &stubBookings{}, nil)

	if err := l.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := ids(l.Restaurants()); !equalIDs(got, []string{"a", "d"}) {
		t.Fatalf("expected [a d], got %v", got)
	}
}

func TestSearchFiltersByFoldedName(t *testing.T) {
	catalog := &stubCatalog{rows: []domain.Restaurant{
		{ID: "1", Name: "Straße Café", LikesCount: 3},
		{ID: "2", Name: "Noodle Bar", LikesCount: 2},
		{ID: "3", Name: "BAR & Grill", LikesCount: 1},
	}}
	l := NewListing(domain.ListingTarget, catalog, &stubLikes{}, &stubBookings{}, nil)
	if err := l.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	all := l.Restaurants()

	l.SetSearchQuery("bar")
	if got := ids(l.Restaurants()); !equalIDs(got, []string{"2", "3"}) {
		t.Fatalf("expected [2 3], got %v", got)
	}
	l.SetSearchQuery("STRASSE")
	if got := ids(l.Restaurants()); !equalIDs(got, []string{"1"}) {
		t.Fatalf("expected [1], got %v", got)
	}

	for _, q := range []string{"a", "é", "zzz", "Grill"} {
		l.SetSearchQuery(q)
		for _, r := range l.Restaurants() {
			found := false
			for _, c := range all {
				if c.ID == r.ID {
					found = true
				}
			}
			if !found {
				t.Fatalf("query %q returned %s outside the catalog", q, r.ID)
			}
		}
	}

	l.SetSearchQuery("")
	if got := ids(l.Restaurants()); !equalIDs(got, ids(all)) {
		t.Fatalf("empty query should return everything, got %v", got)
	}
}

func TestLoadFailureKeepsPreviousRows(t *testing.T) {
	catalog := &stubCatalog{rows: restaurants("a", 1)}
	l := NewListing(domain.ListingTarget, catalog, &stubLikes{}, &stubBookings{}, nil)
	if err := l.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	catalog.err = ErrNotFound
	err := l.Load(context.Background())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	st := l.Snapshot()
	if st.Status != domain.ListingFailed || st.ErrKind != domain.ErrorKindNotFound {
		t.Fatalf("unexpected state %s/%s", st.Status, st.ErrKind)
	}
	if st.ErrMessage != "Could not find restaurant data in the database." {
		t.Fatalf("unexpected message %q", st.ErrMessage)
	}
	if len(st.Catalog) != 1 {
		t.Fatalf("expected previous rows kept, got %v", st.Catalog)
	}
}

func TestLoadPrefersCatalogErrorAndFailsOnSideErrors(t *testing.T) {
	boom := storeErr("fetch bookings", errors.New("down"))
	l := NewListing(domain.ListingTarget,
		&stubCatalog{err: ErrInvalidShape},
		&stubLikes{err: storeErr("fetch likes", errors.New("down"))},
		&stubBookings{err: boom}, nil)
	if err := l.Load(context.Background()); !errors.Is(err, ErrInvalidShape) {
		t.Fatalf("expected catalog error to win, got %v", err)
	}

	l = NewListing(domain.ListingTarget, &stubCatalog{rows: restaurants("a", 1)}, &stubLikes{}, &stubBookings{err: boom}, nil)
	if err := l.Load(context.Background()); !errors.Is(err, ErrStore) {
		t.Fatalf("expected store error, got %v", err)
	}
	if st := l.Snapshot(); st.Status != domain.ListingFailed {
		t.Fatalf("expected failed, got %s", st.Status)
	}
}

func TestConcurrentLoadsAreCoalesced(t *testing.T) {
	catalog := &stubCatalog{rows: restaurants("a", 1), gate: make(chan struct{})}
	l := NewListing(domain.ListingTarget, catalog, &stubLikes{}, &stubBookings{}, nil)

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = l.Load(context.Background())
		}(i)
	}
	// Let the callers reach the in-flight load before releasing it.
	deadline := time.Now().Add(time.Second)
	for catalog.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	close(catalog.gate)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("load %d: %v", i, err)
		}
	}
	if n := catalog.calls.Load(); n != 1 {
		t.Fatalf("expected one catalog fetch, got %d", n)
	}
}

func TestToggleLikeUpdatesLikedSet(t *testing.T) {
	ctx := context.Background()
	likes := &stubLikes{liked: domain.NewIDSet()}
	l := NewListing(domain.ListingTarget, &stubCatalog{rows: restaurants("a", 1)}, likes, &stubBookings{}, nil)
	if err := l.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := l.ToggleLike(ctx, "a"); err != nil {
		t.Fatalf("ToggleLike: %v", err)
	}
	if items := l.Items(); !items[0].Liked {
		t.Fatalf("expected a liked")
	}
	if err := l.ToggleLike(ctx, "a"); err != nil {
		t.Fatalf("ToggleLike: %v", err)
	}
	st := l.Snapshot()
	if st.LikedIDs.Has("a") || st.LikeInFlight {
		t.Fatalf("expected a unliked and flag cleared, got %+v", st)
	}
	if st.Catalog[0].LikesCount != 1 {
		t.Fatalf("likesCount must not change on toggle")
	}
}

func TestToggleLikeDropsConcurrentToggle(t *testing.T) {
	ctx := context.Background()
	likes := &stubLikes{liked: domain.NewIDSet(), gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	l := NewListing(domain.ListingTarget, &stubCatalog{rows: restaurants("a", 1, "b", 2)}, likes, &stubBookings{}, nil)
	if err := l.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	first := make(chan error, 1)
	go func() { first <- l.ToggleLike(ctx, "a") }()
	<-likes.entered

	if err := l.ToggleLike(ctx, "b"); !errors.Is(err, ErrToggleInFlight) {
		t.Fatalf("expected ErrToggleInFlight, got %v", err)
	}
	if !l.Snapshot().LikeInFlight {
		t.Fatalf("expected flag set while first toggle pending")
	}

	close(likes.gate)
	if err := <-first; err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	st := l.Snapshot()
	if !st.LikedIDs.Has("a") || st.LikedIDs.Has("b") {
		t.Fatalf("unexpected liked set %v", st.LikedIDs.Sorted())
	}
	if n := likes.writes.Load(); n != 1 {
		t.Fatalf("expected one write, got %d", n)
	}
}

func TestToggleLikeUnauthenticatedRoutesToAuth(t *testing.T) {
	ctx := context.Background()
	nav := &fakeNavigator{}
	likes := &stubLikes{liked: domain.NewIDSet(), addErr: ErrNotAuthenticated}
	l := NewListing(domain.ListingTarget, &stubCatalog{rows: restaurants("a", 1)}, likes, &stubBookings{}, nav)
	if err := l.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := l.ToggleLike(ctx, "a"); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if auth, _ := nav.counts(); auth != 1 {
		t.Fatalf("expected one auth request, got %d", auth)
	}
	st := l.Snapshot()
	if st.LikedIDs.Has("a") || st.LikeInFlight || st.Err != nil {
		t.Fatalf("state should be unchanged, got %+v", st)
	}
}

func TestToggleLikeFailureLeavesState(t *testing.T) {
	ctx := context.Background()
	likes := &stubLikes{liked: domain.NewIDSet("a"), addErr: storeErr("remove like", errors.New("down"))}
	l := NewListing(domain.ListingTarget, &stubCatalog{rows: restaurants("a", 1)}, likes, &stubBookings{}, nil)
	if err := l.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := l.ToggleLike(ctx, "a"); !errors.Is(err, ErrStore) {
		t.Fatalf("expected ErrStore, got %v", err)
	}
	if st := l.Snapshot(); !st.LikedIDs.Has("a") || st.LikeInFlight {
		t.Fatalf("expected like kept and flag cleared")
	}
}

func TestLoadAndMarkBookedEndToEnd(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.seed(t, "restaurants", `{
		"R1": {"name": "First", "timeRange": "9-5", "likesCount": 10, "imageURL": "u1"},
		"R2": {"name": "Second", "timeRange": "9-5", "likesCount": 2, "imageURL": "u2"}
	}`)
	store.seed(t, "user_likes/u1", `{"R2": true}`)
	identity := &fakeIdentity{uid: "u1"}

	l := NewListing(domain.ListingTarget,
		NewCatalogService(store),
		NewLikeService(store, identity),
		NewBookingService(store, identity), nil)
	if err := l.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	items := l.Items()
	if len(items) != 2 || items[0].ID != "R1" || items[1].ID != "R2" {
		t.Fatalf("unexpected items %+v", items)
	}
	if items[0].Liked || !items[1].Liked || items[0].Booked || items[1].Booked {
		t.Fatalf("unexpected flags %+v", items)
	}

	calls := store.callCount()
	l.MarkBooked("R2")
	l.MarkBooked("R2")
	l.MarkBooked("gone")
	if store.callCount() != calls {
		t.Fatalf("MarkBooked must not touch the store")
	}
	items = l.Items()
	if !items[1].Booked || items[0].Booked {
		t.Fatalf("expected only R2 booked, got %+v", items)
	}
	if st := l.Snapshot(); st.BookedIDs.Len() != 2 {
		t.Fatalf("expected booked ids {R2, gone}, got %v", st.BookedIDs.Sorted())
	}
}

func TestSubscribeDeliversLatestState(t *testing.T) {
	l := NewListing(domain.ListingTarget, &stubCatalog{rows: restaurants("a", 1)}, &stubLikes{}, &stubBookings{}, nil)
	ch, cancel := l.Subscribe()

	if st := <-ch; st.Status != domain.ListingIdle {
		t.Fatalf("expected initial idle state, got %s", st.Status)
	}
	if err := l.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	l.MarkBooked("a")

	st := <-ch
	if st.Status != domain.ListingReady || !st.BookedIDs.Has("a") {
		t.Fatalf("expected latest state, got %s booked=%v", st.Status, st.BookedIDs.Sorted())
	}

	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel after cancel")
	}
}

func TestSelectAndClearSelection(t *testing.T) {
	l := NewListing(domain.ListingTarget, &stubCatalog{rows: restaurants("a", 1)}, &stubLikes{}, &stubBookings{}, nil)
	if err := l.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := l.Select("missing"); ok {
		t.Fatalf("expected unknown id to be rejected")
	}
	r, ok := l.Select("a")
	if !ok || r.ID != "a" {
		t.Fatalf("Select: %v %v", r, ok)
	}
	if st := l.Snapshot(); st.SelectedForBooking == nil || st.SelectedForBooking.ID != "a" {
		t.Fatalf("expected a selected")
	}
	l.ClearSelection()
	if l.Snapshot().SelectedForBooking != nil {
		t.Fatalf("expected selection cleared")
	}
}

func TestLocalChangesDuringLoadSurvive(t *testing.T) {
	ctx := context.Background()
	catalog := &stubCatalog{rows: restaurants("a", 1, "b", 2), gate: make(chan struct{})}
	l := NewListing(domain.ListingTarget, catalog, &stubLikes{}, &stubBookings{}, nil)

	done := make(chan error, 1)
	go func() { done <- l.Load(ctx) }()
	deadline := time.Now().Add(2 * time.Second)
	for catalog.calls.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("load never started")
		}
		time.Sleep(time.Millisecond)
	}

	if err := l.ToggleLike(ctx, "a"); err != nil {
		t.Fatalf("ToggleLike: %v", err)
	}
	l.MarkBooked("b")
	close(catalog.gate)
	if err := <-done; err != nil {
		t.Fatalf("Load: %v", err)
	}

	st := l.Snapshot()
	if !st.LikedIDs.Has("a") || !st.BookedIDs.Has("b") {
		t.Fatalf("local changes lost: liked=%v booked=%v", st.LikedIDs.Sorted(), st.BookedIDs.Sorted())
	}

	// The stubs do not persist writes, so a fresh load shows server state only.
	if err := l.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if st := l.Snapshot(); st.LikedIDs.Has("a") || st.BookedIDs.Has("b") {
		t.Fatalf("changes should not be replayed twice: liked=%v booked=%v", st.LikedIDs.Sorted(), st.BookedIDs.Sorted())
	}
}
