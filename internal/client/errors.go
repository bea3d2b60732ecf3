package client

import (
	"errors"
	"fmt"

	"github.com/bernicerice/MealMission/internal/domain"
	"github.com/bernicerice/MealMission/internal/repository/ports"
)

var (
	ErrNotFound         = errors.New("could not find restaurant data")
	ErrInvalidShape     = errors.New("data is not in the expected structure")
	ErrDecode           = errors.New("failed to decode record")
	ErrNotAuthenticated = errors.New("user is not authenticated")
	ErrStore            = errors.New("store request failed")
	ErrUnknown          = errors.New("unknown error")
	ErrInvalidID        = errors.New("invalid id")
	ErrToggleInFlight   = errors.New("like update already in progress")
)

// StoreError wraps a transport failure. errors.Is matches both ErrStore and
// the wrapped error.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrStore, e.Op, e.Err)
}

func (e *StoreError) Is(target error) bool { return target == ErrStore }

func (e *StoreError) Unwrap() error { return e.Err }

func storeErr(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

// Kind classifies err for display.
func Kind(err error) domain.ErrorKind {
	switch {
	case err == nil:
		return domain.ErrorKindNone
	case errors.Is(err, ErrNotFound):
		return domain.ErrorKindNotFound
	case errors.Is(err, ErrInvalidShape):
		return domain.ErrorKindInvalidShape
	case errors.Is(err, ErrDecode):
		return domain.ErrorKindDecode
	case errors.Is(err, ErrNotAuthenticated):
		return domain.ErrorKindNotAuthenticated
	case errors.Is(err, ErrStore):
		return domain.ErrorKindStore
	default:
		return domain.ErrorKindUnknown
	}
}

// Message returns the text shown to the user for err. An authentication
// failure yields no message: it is handled by routing to sign-in.
func Message(err error) string {
	switch Kind(err) {
	case domain.ErrorKindNone, domain.ErrorKindNotAuthenticated:
		return ""
	case domain.ErrorKindNotFound:
		return "Could not find restaurant data in the database."
	case domain.ErrorKindInvalidShape:
		return "Data at the specified path is not in the expected structure."
	case domain.ErrorKindDecode:
		return "Failed to decode restaurant data."
	case domain.ErrorKindStore:
		var se *StoreError
		if errors.As(err, &se) {
			return "An error occurred while fetching data: " + se.Err.Error()
		}
		return "An error occurred while fetching data: " + err.Error()
	default:
		return "An unknown error occurred."
	}
}

// sessionLost reports whether a failed request for uid's data failed because
// the user is no longer signed in: the server rejected the session, or the
// identity changed while the request was in flight.
func sessionLost(identity IdentitySource, uid string, err error) bool {
	if errors.Is(err, ports.ErrUnauthorized) {
		return true
	}
	current, ok := identity.CurrentUserID()
	return !ok || current != uid
}
