package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/bernicerice/MealMission/internal/media"
	"github.com/bernicerice/MealMission/internal/repository/ports"
)

const ProfileImageFile = "profileImage.jpg"

// AvatarUploader publishes a processed profile image and returns its URL.
type AvatarUploader interface {
	UploadAvatar(ctx context.Context, fileName string, data []byte) (string, error)
}

// Profile is what the profile screen renders.
type Profile struct {
	SignedIn    bool
	UserID      string
	DisplayName string
	Email       string
	AvatarURL   string
	ImagePath   string
}

// ProfileService backs the profile screen: identity display, sign-out,
// account deletion and the profile picture.
type ProfileService struct {
	auth      ports.AuthProvider
	uploader  AvatarUploader
	processor media.Processor
	dataDir   string
	nav       Navigator
}

// NewProfileService keeps the profile picture under dataDir. uploader may be
// nil, in which case the picture is only cached locally.
func NewProfileService(auth ports.AuthProvider, uploader AvatarUploader, processor media.Processor, dataDir string, nav Navigator) *ProfileService {
	return &ProfileService{
		auth:      auth,
		uploader:  uploader,
		processor: processor,
		dataDir:   dataDir,
		nav:       nav,
	}
}

func (s *ProfileService) Profile() Profile {
	p := Profile{DisplayName: "Anonymous", Email: "-"}
	if path := s.ImagePath(); fileExists(path) {
		p.ImagePath = path
	}
	id, ok := s.auth.CurrentUser()
	if !ok {
		return p
	}
	p.SignedIn = true
	p.UserID = id.UserID
	p.AvatarURL = id.AvatarURL
	p.Email = id.Email
	if p.Email == "" {
		p.Email = "No Email Provided"
	}
	switch {
	case strings.TrimSpace(id.DisplayName) != "":
		p.DisplayName = strings.TrimSpace(id.DisplayName)
	default:
		p.DisplayName = "User"
		if local, _, found := strings.Cut(id.Email, "@"); found && local != "" {
			p.DisplayName = local
		}
	}
	return p
}

func (s *ProfileService) SignOut(ctx context.Context) error {
	if err := s.auth.SignOut(ctx); err != nil {
		return err
	}
	if s.nav != nil {
		s.nav.GoToAuth()
	}
	return nil
}

// DeleteAccount removes the signed-in account. The returned message is the
// text to show when it fails.
func (s *ProfileService) DeleteAccount(ctx context.Context) (string, error) {
	if _, ok := s.auth.CurrentUserID(); !ok {
		return "No user logged in to delete.", ErrNotAuthenticated
	}
	err := s.auth.DeleteCurrentAccount(ctx)
	switch {
	case err == nil:
		if rmErr := os.Remove(s.ImagePath()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			log.Printf("profile: remove cached image: %v", rmErr)
		}
		if s.nav != nil {
			s.nav.GoToAuth()
		}
		return "", nil
	case errors.Is(err, ports.ErrRequiresRecentLogin):
		return "Please log out and log back in to delete your account.", err
	default:
		return "Failed to delete account: " + err.Error(), err
	}
}

func (s *ProfileService) ImagePath() string {
	return filepath.Join(s.dataDir, ProfileImageFile)
}

// UpdateImage normalizes data to JPEG, caches it locally and then uploads it.
// An upload failure is logged; the local copy is kept either way.
func (s *ProfileService) UpdateImage(ctx context.Context, fileName string, data []byte) (string, error) {
	res, err := s.processor.Process(ctx, media.Upload{
		Reader:   bytes.NewReader(data),
		Size:     int64(len(data)),
		FileName: fileName,
	}, 0)
	if err != nil {
		return "", fmt.Errorf("process profile image: %w", err)
	}
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	path := s.ImagePath()
	if err := os.WriteFile(path, res.Bytes, 0o644); err != nil {
		return "", fmt.Errorf("save profile image: %w", err)
	}

	if s.uploader == nil {
		return path, nil
	}
	if _, ok := s.auth.CurrentUserID(); !ok {
		return path, nil
	}
	if _, err := s.uploader.UploadAvatar(ctx, ProfileImageFile, res.Bytes); err != nil {
		log.Printf("profile: avatar upload failed: %v", err)
	}
	return path, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
