package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/bernicerice/MealMission/internal/domain"
	"github.com/bernicerice/MealMission/internal/media"
	"github.com/bernicerice/MealMission/internal/repository/ports"
)

var ErrInvalidImage = errors.New("invalid image")

// AvatarService stores normalized profile pictures and records their URL on
// the account.
type AvatarService struct {
	users        ports.UserRepository
	storage      ports.ObjectStorage
	processor    media.Processor
	bucket       string
	maxDimension int
}

func NewAvatarService(users ports.UserRepository, storage ports.ObjectStorage, processor media.Processor, bucket string, maxDimension int) *AvatarService {
	return &AvatarService{
		users:        users,
		storage:      storage,
		processor:    processor,
		bucket:       bucket,
		maxDimension: maxDimension,
	}
}

func (s *AvatarService) Upload(ctx context.Context, userID uuid.UUID, upload media.Upload) (*domain.User, error) {
	if s.storage == nil {
		return nil, errors.New("avatar storage not configured")
	}
	reader, size, contentType, err := prepareImageForUpload(ctx, s.processor, upload, s.maxDimension)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	objectName := fmt.Sprintf("avatars/%s/%s.jpg", userID, ulid.Make())
	url, err := s.storage.Upload(ctx, s.bucket, objectName, contentType, reader, size)
	if err != nil {
		return nil, err
	}
	user, err := s.users.UpdateAvatar(ctx, userID, url)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
