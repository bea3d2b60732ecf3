package domain

// ListingVariant selects how a listing screen derives its rows from the catalog.
type ListingVariant string

const (
	// ListingTarget shows the whole catalog ordered by popularity.
	ListingTarget ListingVariant = "target"
	// ListingLiked shows only restaurants the user liked, in catalog order.
	ListingLiked ListingVariant = "liked"
)

type ListingStatus int

const (
	ListingIdle ListingStatus = iota
	ListingLoading
	ListingReady
	ListingFailed
)

func (s ListingStatus) String() string {
	switch s {
	case ListingIdle:
		return "idle"
	case ListingLoading:
		return "loading"
	case ListingReady:
		return "ready"
	case ListingFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrorKind classifies failures for display.
type ErrorKind string

const (
	ErrorKindNone             ErrorKind = ""
	ErrorKindNotFound         ErrorKind = "not_found"
	ErrorKindInvalidShape     ErrorKind = "invalid_shape"
	ErrorKindDecode           ErrorKind = "decode"
	ErrorKindNotAuthenticated ErrorKind = "not_authenticated"
	ErrorKindStore            ErrorKind = "store"
	ErrorKindUnknown          ErrorKind = "unknown"
)

// ListingState is owned by one listing screen instance. Sets and slices in a
// snapshot are copies and safe to keep.
type ListingState struct {
	Variant            ListingVariant
	Status             ListingStatus
	Catalog            []Restaurant
	LikedIDs           IDSet
	BookedIDs          IDSet
	SearchQuery        string
	SelectedForBooking *Restaurant
	LikeInFlight       bool
	Err                error
	ErrKind            ErrorKind
	ErrMessage         string
}

// ListingItem is one rendered row.
type ListingItem struct {
	Restaurant
	Liked  bool
	Booked bool
}
