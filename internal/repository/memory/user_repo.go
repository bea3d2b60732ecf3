package memory

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bernicerice/MealMission/internal/domain"
	"github.com/bernicerice/MealMission/internal/repository/ports"
)

type UserRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*domain.User
}

func NewUserRepo() *UserRepository {
	return &UserRepository{users: make(map[uuid.UUID]*domain.User)}
}

func (r *UserRepository) CreateEmailUser(ctx context.Context, email string, passwordHash, passwordSalt []byte) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findByEmailLocked(email) != nil {
		return nil, ports.ErrDuplicate
	}
	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: append([]byte(nil), passwordHash...),
		PasswordSalt: append([]byte(nil), passwordSalt...),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.users[user.ID] = user
	return cloneUser(user), nil
}

func (r *UserRepository) UpsertGoogleUser(ctx context.Context, email string, displayName *string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	if existing := r.findByEmailLocked(email); existing != nil {
		if displayName != nil && existing.DisplayName == nil {
			name := *displayName
			existing.DisplayName = &name
		}
		existing.UpdatedAt = now
		return cloneUser(existing), nil
	}
	user := &domain.User{ID: uuid.New(), Email: email, CreatedAt: now, UpdatedAt: now}
	if displayName != nil {
		name := *displayName
		user.DisplayName = &name
	}
	r.users[user.ID] = user
	return cloneUser(user), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if user := r.findByEmailLocked(email); user != nil {
		return cloneUser(user), nil
	}
	return nil, sql.ErrNoRows
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if user, ok := r.users[id]; ok {
		return cloneUser(user), nil
	}
	return nil, sql.ErrNoRows
}

func (r *UserRepository) UpdateAvatar(ctx context.Context, id uuid.UUID, avatarURL string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	url := avatarURL
	user.AvatarURL = &url
	user.UpdatedAt = time.Now().UTC()
	return cloneUser(user), nil
}

func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.users, id)
	return nil
}

func (r *UserRepository) findByEmailLocked(email string) *domain.User {
	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			return user
		}
	}
	return nil
}

func cloneUser(u *domain.User) *domain.User {
	out := *u
	out.PasswordHash = append([]byte(nil), u.PasswordHash...)
	out.PasswordSalt = append([]byte(nil), u.PasswordSalt...)
	return &out
}

var _ ports.UserRepository = (*UserRepository)(nil)
