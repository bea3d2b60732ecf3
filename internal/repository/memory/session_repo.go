package memory

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bernicerice/MealMission/internal/domain"
	"github.com/bernicerice/MealMission/internal/repository/ports"
)

type SessionRepository struct {
	mu       sync.Mutex
	nextID   int64
	sessions map[string]*domain.Session
	now      func() time.Time
}

func NewSessionRepo() *SessionRepository {
	return &SessionRepository{sessions: make(map[string]*domain.Session), now: time.Now}
}

func (r *SessionRepository) CreateSession(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[token]; exists {
		return nil, ports.ErrDuplicate
	}
	r.nextID++
	session := &domain.Session{
		ID:        r.nextID,
		UserID:    userID,
		Token:     token,
		CreatedAt: r.now().UTC(),
		ExpiresAt: expiresAt,
		IsActive:  true,
	}
	r.sessions[token] = session
	out := *session
	return &out, nil
}

func (r *SessionRepository) DeactivateSession(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.sessions[token]; ok && session.IsActive {
		session.IsActive = false
		session.ExpiresAt = r.now().UTC()
	}
	return nil
}

func (r *SessionRepository) DeactivateUserSessions(ctx context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now().UTC()
	for _, session := range r.sessions {
		if session.UserID == userID && session.IsActive {
			session.IsActive = false
			session.ExpiresAt = now
		}
	}
	return nil
}

func (r *SessionRepository) FindActiveSession(ctx context.Context, token string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[token]
	if !ok || !session.IsActive || !session.ExpiresAt.After(r.now()) {
		return nil, sql.ErrNoRows
	}
	out := *session
	return &out, nil
}

var _ ports.SessionRepository = (*SessionRepository)(nil)
