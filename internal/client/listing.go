package client

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
	"golang.org/x/text/cases"

	"github.com/bernicerice/MealMission/internal/domain"
)

// CatalogFetcher, LikeRegistry and BookingRegistry are the listing's data
// sources. CatalogService, LikeService and BookingService implement them.
type CatalogFetcher interface {
	FetchAll(ctx context.Context) ([]domain.Restaurant, error)
}

type LikeRegistry interface {
	FetchLikedIDs(ctx context.Context) (domain.IDSet, error)
	AddLike(ctx context.Context, restaurantID string) error
	RemoveLike(ctx context.Context, restaurantID string) error
}

type BookingRegistry interface {
	FetchBookedRestaurantIDs(ctx context.Context) (domain.IDSet, error)
	CreateBooking(ctx context.Context, req domain.BookingRequest) (string, error)
}

// Navigator switches between the top-level screens.
type Navigator interface {
	GoToAuth()
	GoToMain()
}

// Listing is the state behind one restaurant list screen. It joins the
// catalog with the user's likes and bookings and keeps the result in sync
// with local like toggles and bookings.
//
// A Listing is safe for concurrent use. Every state change is published to
// subscribers; a slow subscriber only sees the latest state.
type Listing struct {
	variant  domain.ListingVariant
	catalog  CatalogFetcher
	likes    LikeRegistry
	bookings BookingRegistry
	nav      Navigator

	loads singleflight.Group

	mu      sync.Mutex
	state   domain.ListingState
	subs    map[int]chan domain.ListingState
	nextSub int

	// Local changes made while a load is running, replayed onto its result.
	loading bool
	pending []func(liked, booked domain.IDSet)
}

func NewListing(variant domain.ListingVariant, catalog CatalogFetcher, likes LikeRegistry, bookings BookingRegistry, nav Navigator) *Listing {
	return &Listing{
		variant:  variant,
		catalog:  catalog,
		likes:    likes,
		bookings: bookings,
		nav:      nav,
		state: domain.ListingState{
			Variant:   variant,
			Status:    domain.ListingIdle,
			LikedIDs:  domain.NewIDSet(),
			BookedIDs: domain.NewIDSet(),
		},
		subs: make(map[int]chan domain.ListingState),
	}
}

// Load fetches the catalog, liked IDs and booked IDs concurrently and waits
// for all three. Concurrent calls share one load; the context of the call
// that started it governs the requests.
func (l *Listing) Load(ctx context.Context) error {
	_, err, _ := l.loads.Do("load", func() (any, error) {
		return nil, l.load(ctx)
	})
	return err
}

func (l *Listing) load(ctx context.Context) error {
	l.mu.Lock()
	l.state.Status = domain.ListingLoading
	l.loading = true
	l.pending = nil
	l.publishLocked()
	l.mu.Unlock()

	var (
		wg                            sync.WaitGroup
		restaurants                   []domain.Restaurant
		liked, booked                 domain.IDSet
		catalogErr, likedErr, bookErr error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		restaurants, catalogErr = l.catalog.FetchAll(ctx)
	}()
	go func() {
		defer wg.Done()
		liked, likedErr = l.likes.FetchLikedIDs(ctx)
	}()
	go func() {
		defer wg.Done()
		booked, bookErr = l.bookings.FetchBookedRestaurantIDs(ctx)
	}()
	wg.Wait()

	err := catalogErr
	if err == nil {
		err = likedErr
	}
	if err == nil {
		err = bookErr
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	pending := l.pending
	l.loading, l.pending = false, nil
	if err != nil {
		log.Printf("listing %s: load failed: %v", l.variant, err)
		l.state.Status = domain.ListingFailed
		l.setErrLocked(err)
		l.publishLocked()
		return err
	}

	liked, booked = liked.Clone(), booked.Clone()
	for _, apply := range pending {
		apply(liked, booked)
	}
	l.state.Catalog = arrange(l.variant, restaurants, liked)
	l.state.LikedIDs = liked
	l.state.BookedIDs = booked
	l.state.Status = domain.ListingReady
	l.setErrLocked(nil)
	l.publishLocked()
	return nil
}

// arrange orders rows for the variant. The liked filter is applied once per
// load, so an unliked row stays visible until the next load.
func arrange(variant domain.ListingVariant, restaurants []domain.Restaurant, liked domain.IDSet) []domain.Restaurant {
	rows := make([]domain.Restaurant, 0, len(restaurants))
	switch variant {
	case domain.ListingLiked:
		for _, r := range restaurants {
			if liked.Has(r.ID) {
				rows = append(rows, r)
			}
		}
	default:
		rows = append(rows, restaurants...)
		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].LikesCount > rows[j].LikesCount
		})
	}
	return rows
}

// Restaurants returns the rows matching the current search query.
func (l *Listing) Restaurants() []domain.Restaurant {
	l.mu.Lock()
	defer l.mu.Unlock()
	return filterByName(l.state.Catalog, l.state.SearchQuery)
}

// Items is Restaurants with the liked and booked flags resolved.
func (l *Listing) Items() []domain.ListingItem {
	l.mu.Lock()
	defer l.mu.Unlock()
	rows := filterByName(l.state.Catalog, l.state.SearchQuery)
	items := make([]domain.ListingItem, len(rows))
	for i, r := range rows {
		items[i] = domain.ListingItem{
			Restaurant: r,
			Liked:      l.state.LikedIDs.Has(r.ID),
			Booked:     l.state.BookedIDs.Has(r.ID),
		}
	}
	return items
}

func filterByName(rows []domain.Restaurant, query string) []domain.Restaurant {
	out := make([]domain.Restaurant, 0, len(rows))
	if query == "" {
		return append(out, rows...)
	}
	fold := cases.Fold()
	needle := fold.String(query)
	for _, r := range rows {
		if strings.Contains(fold.String(r.Name), needle) {
			out = append(out, r)
		}
	}
	return out
}

func (l *Listing) SetSearchQuery(query string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state.SearchQuery == query {
		return
	}
	l.state.SearchQuery = query
	l.publishLocked()
}

// ToggleLike flips the like state of one restaurant. While a toggle is
// pending any other toggle on this listing is dropped with ErrToggleInFlight.
func (l *Listing) ToggleLike(ctx context.Context, restaurantID string) error {
	l.mu.Lock()
	if l.state.LikeInFlight {
		l.mu.Unlock()
		return ErrToggleInFlight
	}
	l.state.LikeInFlight = true
	like := !l.state.LikedIDs.Has(restaurantID)
	l.publishLocked()
	l.mu.Unlock()

	var err error
	if like {
		err = l.likes.AddLike(ctx, restaurantID)
	} else {
		err = l.likes.RemoveLike(ctx, restaurantID)
	}

	l.mu.Lock()
	switch {
	case err == nil:
		apply := func(liked, _ domain.IDSet) { liked.Remove(restaurantID) }
		if like {
			apply = func(liked, _ domain.IDSet) { liked.Add(restaurantID) }
		}
		apply(l.state.LikedIDs, l.state.BookedIDs)
		l.rememberLocked(apply)
	case errors.Is(err, ErrNotAuthenticated):
	default:
		log.Printf("listing %s: toggle like %s: %v", l.variant, restaurantID, err)
	}
	l.state.LikeInFlight = false
	l.publishLocked()
	l.mu.Unlock()

	if errors.Is(err, ErrNotAuthenticated) {
		l.RequestAuthentication()
	}
	return err
}

// MarkBooked records a booking made from this screen without refetching.
func (l *Listing) MarkBooked(restaurantID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rememberLocked(func(_, booked domain.IDSet) { booked.Add(restaurantID) })
	if l.state.BookedIDs.Add(restaurantID) {
		l.publishLocked()
	}
}

// rememberLocked keeps a local change so a load that is already running does
// not overwrite it with data fetched before the change.
func (l *Listing) rememberLocked(apply func(liked, booked domain.IDSet)) {
	if l.loading {
		l.pending = append(l.pending, apply)
	}
}

func (l *Listing) RequestAuthentication() {
	if l.nav != nil {
		l.nav.GoToAuth()
	}
}

// Select marks a catalog row as the target of the booking sheet. It reports
// false when the row is not part of this listing.
func (l *Listing) Select(restaurantID string) (domain.Restaurant, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, r := range l.state.Catalog {
		if r.ID == restaurantID {
			selected := r
			l.state.SelectedForBooking = &selected
			l.publishLocked()
			return r, true
		}
	}
	return domain.Restaurant{}, false
}

func (l *Listing) ClearSelection() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state.SelectedForBooking == nil {
		return
	}
	l.state.SelectedForBooking = nil
	l.publishLocked()
}

func (l *Listing) Snapshot() domain.ListingState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

// Subscribe returns a channel carrying the current state followed by every
// later change. The channel holds at most one pending state. cancel closes it.
func (l *Listing) Subscribe() (<-chan domain.ListingState, func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextSub
	l.nextSub++
	ch := make(chan domain.ListingState, 1)
	ch <- l.snapshotLocked()
	l.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			delete(l.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

func (l *Listing) setErrLocked(err error) {
	l.state.Err = err
	l.state.ErrKind = Kind(err)
	l.state.ErrMessage = Message(err)
}

func (l *Listing) snapshotLocked() domain.ListingState {
	s := l.state
	s.Catalog = append([]domain.Restaurant(nil), l.state.Catalog...)
	s.LikedIDs = l.state.LikedIDs.Clone()
	s.BookedIDs = l.state.BookedIDs.Clone()
	if l.state.SelectedForBooking != nil {
		selected := *l.state.SelectedForBooking
		s.SelectedForBooking = &selected
	}
	return s
}

func (l *Listing) publishLocked() {
	if len(l.subs) == 0 {
		return
	}
	snap := l.snapshotLocked()
	for _, ch := range l.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}
