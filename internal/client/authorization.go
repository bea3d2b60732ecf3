package client

import (
	"context"
	"errors"
	"strings"

	"github.com/bernicerice/MealMission/internal/domain"
	"github.com/bernicerice/MealMission/internal/repository/ports"
)

var (
	ErrEmptyCredentials = errors.New("email and password cannot be empty")
	ErrPasswordMismatch = errors.New("passwords do not match")
)

type AuthMode int

const (
	AuthLogin AuthMode = iota
	AuthRegister
)

// AuthorizationForm backs the sign-in / sign-up screen. It is not safe for
// concurrent use.
type AuthorizationForm struct {
	Mode            AuthMode
	Email           string
	Password        string
	ConfirmPassword string

	// ErrorMessage holds the text of the last failed submit.
	ErrorMessage string

	auth ports.AuthProvider
	nav  Navigator
}

func NewAuthorizationForm(auth ports.AuthProvider, nav Navigator) *AuthorizationForm {
	return &AuthorizationForm{auth: auth, nav: nav}
}

// ToggleMode switches between login and register and clears the last error.
func (f *AuthorizationForm) ToggleMode() {
	if f.Mode == AuthLogin {
		f.Mode = AuthRegister
	} else {
		f.Mode = AuthLogin
	}
	f.ErrorMessage = ""
	f.ConfirmPassword = ""
}

// Submit signs in or registers with the form fields and navigates to the
// main screen on success.
func (f *AuthorizationForm) Submit(ctx context.Context) (domain.Identity, error) {
	id, err := f.submit(ctx)
	if err != nil {
		f.ErrorMessage = AuthErrorMessage(err)
		return domain.Identity{}, err
	}
	f.ErrorMessage = ""
	if f.nav != nil {
		f.nav.GoToMain()
	}
	return id, nil
}

// SubmitGoogle signs in with a Google ID token obtained out of band.
func (f *AuthorizationForm) SubmitGoogle(ctx context.Context, idToken string) (domain.Identity, error) {
	id, err := f.auth.SignInWithGoogle(ctx, strings.TrimSpace(idToken))
	if err != nil {
		f.ErrorMessage = AuthErrorMessage(err)
		return domain.Identity{}, err
	}
	f.ErrorMessage = ""
	if f.nav != nil {
		f.nav.GoToMain()
	}
	return id, nil
}

func (f *AuthorizationForm) submit(ctx context.Context) (domain.Identity, error) {
	email := strings.TrimSpace(f.Email)
	if f.Mode == AuthRegister && f.Password != f.ConfirmPassword {
		return domain.Identity{}, ErrPasswordMismatch
	}
	if email == "" || f.Password == "" {
		return domain.Identity{}, ErrEmptyCredentials
	}
	if f.Mode == AuthRegister {
		return f.auth.SignUp(ctx, email, f.Password)
	}
	return f.auth.SignIn(ctx, email, f.Password)
}

// AuthErrorMessage returns the text shown for a failed sign-in or sign-up.
func AuthErrorMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyCredentials):
		return "Email and password cannot be empty."
	case errors.Is(err, ErrPasswordMismatch):
		return "Passwords do not match."
	case errors.Is(err, ports.ErrInvalidEmail):
		return "Invalid email format."
	case errors.Is(err, ports.ErrEmailExists):
		return "This email is already registered."
	case errors.Is(err, ports.ErrWeakPassword):
		return "Password is too weak. It should be at least 6 characters."
	case errors.Is(err, ports.ErrWrongPassword):
		return "Incorrect password."
	case errors.Is(err, ports.ErrEmailNotFound):
		return "No account found with this email."
	default:
		return err.Error()
	}
}
