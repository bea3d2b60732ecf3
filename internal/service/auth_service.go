package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/api/idtoken"

	"github.com/bernicerice/MealMission/internal/domain"
	"github.com/bernicerice/MealMission/internal/repository/ports"
	"github.com/bernicerice/MealMission/internal/util"
)

var (
	ErrInvalidEmail        = errors.New("invalid email")
	ErrEmailAlreadyUsed    = errors.New("email already registered")
	ErrPasswordTooWeak     = errors.New("password too weak")
	ErrInvalidPassword     = errors.New("invalid password")
	ErrEmailNotFound       = errors.New("email not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrRequiresRecentLogin = errors.New("requires recent login")
	ErrInvalidGoogleToken  = errors.New("invalid google token")
)

// UserDataRemover deletes the documents owned by an account.
type UserDataRemover interface {
	RemoveUserData(ctx context.Context, uid string) error
}

type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

type googleValidator func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)

type AuthService struct {
	users          ports.UserRepository
	sessions       ports.SessionRepository
	userData       UserDataRemover
	jwt            *util.JWTManager
	googleAudience string
	recentLogin    time.Duration

	validateGoogle googleValidator
	now            func() time.Time
}

func NewAuthService(users ports.UserRepository, sessions ports.SessionRepository, userData UserDataRemover, jwt *util.JWTManager, googleAudience string, recentLogin time.Duration) *AuthService {
	if recentLogin <= 0 {
		recentLogin = 5 * time.Minute
	}
	return &AuthService{
		users:          users,
		sessions:       sessions,
		userData:       userData,
		jwt:            jwt,
		googleAudience: googleAudience,
		recentLogin:    recentLogin,
		validateGoogle: idtoken.Validate,
		now:            time.Now,
	}
}

func (s *AuthService) RegisterWithEmail(ctx context.Context, email, password string) (*AuthResult, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if err := util.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPasswordTooWeak, err)
	}
	hash, salt, err := util.DerivePassword(password)
	if err != nil {
		return nil, err
	}
	user, err := s.users.CreateEmailUser(ctx, normalized, hash, salt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailAlreadyUsed
		}
		return nil, err
	}
	return s.issueSession(ctx, user)
}

func (s *AuthService) LoginWithEmail(ctx context.Context, email, password string) (*AuthResult, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByEmail(ctx, normalized)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrEmailNotFound
		}
		return nil, err
	}
	if !user.HasPassword() || !util.VerifyPassword(password, user.PasswordSalt, user.PasswordHash) {
		return nil, ErrInvalidPassword
	}
	return s.issueSession(ctx, user)
}

func (s *AuthService) LoginWithGoogle(ctx context.Context, idToken string) (*AuthResult, error) {
	if strings.TrimSpace(idToken) == "" {
		return nil, ErrInvalidGoogleToken
	}
	payload, err := s.validateGoogle(ctx, idToken, s.googleAudience)
	if err != nil {
		log.Printf("google token rejected: %v", err)
		return nil, ErrInvalidGoogleToken
	}
	email, _ := payload.Claims["email"].(string)
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidGoogleToken
	}
	var displayName *string
	if name, _ := payload.Claims["name"].(string); strings.TrimSpace(name) != "" {
		trimmed := strings.TrimSpace(name)
		displayName = &trimmed
	}
	user, err := s.users.UpsertGoogleUser(ctx, normalized, displayName)
	if err != nil {
		return nil, err
	}
	return s.issueSession(ctx, user)
}

// Authenticate resolves a bearer token to its user and live session.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, *domain.Session, error) {
	claims, err := s.jwt.Parse(token)
	if err != nil {
		return nil, nil, ErrUnauthorized
	}
	session, err := s.sessions.FindActiveSession(ctx, token)
	if err != nil {
		if isNotFound(err) {
			return nil, nil, ErrUnauthorized
		}
		return nil, nil, err
	}
	if session.UserID != claims.UserID {
		return nil, nil, ErrUnauthorized
	}
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil, ErrUnauthorized
		}
		return nil, nil, err
	}
	return user, session, nil
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.DeactivateSession(ctx, token)
}

// DeleteAccount removes the caller's account together with their likes and
// bookings. The session must have been opened within the recent-login window.
func (s *AuthService) DeleteAccount(ctx context.Context, user *domain.User, session *domain.Session) error {
	if user == nil || session == nil {
		return ErrUnauthorized
	}
	if !session.Fresh(s.now(), s.recentLogin) {
		return ErrRequiresRecentLogin
	}
	if s.userData != nil {
		if err := s.userData.RemoveUserData(ctx, user.ID.String()); err != nil {
			return err
		}
	}
	if err := s.sessions.DeactivateUserSessions(ctx, user.ID); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, user.ID); err != nil {
		if isNotFound(err) {
			return ErrUserNotFound
		}
		return err
	}
	log.Printf("account %s deleted", user.ID)
	return nil
}

func (s *AuthService) FindUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) issueSession(ctx context.Context, user *domain.User) (*AuthResult, error) {
	token, expiresAt, err := s.jwt.Generate(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	if _, err := s.sessions.CreateSession(ctx, user.ID, token, expiresAt); err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func normalizeEmail(email string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(email))
	if trimmed == "" {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed || !strings.Contains(trimmed[strings.LastIndex(trimmed, "@"):], ".") {
		return "", ErrInvalidEmail
	}
	return trimmed, nil
}
