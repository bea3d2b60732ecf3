package ports

import (
	"context"

	"github.com/bernicerice/MealMission/internal/domain"
)

// AuthProvider is the client's identity collaborator.
type AuthProvider interface {
	CurrentUser() (domain.Identity, bool)
	CurrentUserID() (string, bool)
	SignIn(ctx context.Context, email, password string) (domain.Identity, error)
	SignUp(ctx context.Context, email, password string) (domain.Identity, error)
	SignInWithGoogle(ctx context.Context, idToken string) (domain.Identity, error)
	SignOut(ctx context.Context) error
	DeleteCurrentAccount(ctx context.Context) error
	// Subscribe delivers identity changes until the returned cancel func runs.
	Subscribe() (<-chan domain.AuthEvent, func())
}
