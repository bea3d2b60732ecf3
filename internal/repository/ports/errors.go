package ports

import "errors"

// ErrDuplicate is returned by in-process repositories on a uniqueness
// conflict. SQL repositories surface the driver error instead.
var ErrDuplicate = errors.New("duplicate record")

// Identity provider failures. Implementations of AuthProvider map their
// transport-level codes onto these so callers can branch with errors.Is.
var (
	ErrInvalidEmail        = errors.New("invalid email")
	ErrEmailExists         = errors.New("email already registered")
	ErrWeakPassword        = errors.New("password too weak")
	ErrWrongPassword       = errors.New("incorrect password")
	ErrEmailNotFound       = errors.New("no account for email")
	ErrRequiresRecentLogin = errors.New("requires recent login")
	ErrUnauthorized        = errors.New("unauthorized")
)
