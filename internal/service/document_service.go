package service

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/bernicerice/MealMission/internal/doctree"
	"github.com/bernicerice/MealMission/internal/repository/ports"
)

const (
	RestaurantsRoot = "restaurants"
	LikesRoot       = "user_likes"
	BookingsRoot    = "bookings"
)

var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidPath      = errors.New("invalid path")
	ErrInvalidData      = errors.New("invalid data")
)

// DocumentService applies access rules and write validation on top of the
// document repository. An empty uid means an anonymous caller.
type DocumentService struct {
	docs ports.DocumentRepository
	now  func() time.Time

	idMu    sync.Mutex
	entropy io.Reader
}

func NewDocumentService(docs ports.DocumentRepository) *DocumentService {
	return &DocumentService{
		docs:    docs,
		now:     time.Now,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

func (s *DocumentService) Get(ctx context.Context, uid, path string) (json.RawMessage, error) {
	clean, err := cleanPath(path)
	if err != nil {
		return nil, err
	}
	if !canRead(uid, clean) {
		return nil, ErrPermissionDenied
	}
	return s.docs.Get(ctx, clean)
}

// Set replaces the value at path. A null value deletes it.
func (s *DocumentService) Set(ctx context.Context, uid, path string, value json.RawMessage) error {
	clean, err := cleanPath(path)
	if err != nil {
		return err
	}
	if !canSet(uid, clean) {
		return ErrPermissionDenied
	}
	resolved, err := s.resolve(value)
	if err != nil {
		return err
	}
	if err := validateLikes(clean, resolved); err != nil {
		return err
	}
	return s.store(ctx, clean, resolved)
}

// Push stores value under a new time-ordered child key and returns the key.
func (s *DocumentService) Push(ctx context.Context, uid, path string, value json.RawMessage) (string, error) {
	clean, err := cleanPath(path)
	if err != nil {
		return "", err
	}
	if !canPush(uid, clean) {
		return "", ErrPermissionDenied
	}
	resolved, err := s.resolve(value)
	if err != nil {
		return "", err
	}
	if err := validateBooking(resolved); err != nil {
		return "", err
	}
	id := s.newID()
	if err := s.store(ctx, doctree.Join(clean, id), resolved); err != nil {
		return "", err
	}
	return id, nil
}

func (s *DocumentService) Delete(ctx context.Context, uid, path string) error {
	clean, err := cleanPath(path)
	if err != nil {
		return err
	}
	if !canSet(uid, clean) {
		return ErrPermissionDenied
	}
	return s.docs.Delete(ctx, clean)
}

// Seed writes without access rules. It backs the catalog loader.
func (s *DocumentService) Seed(ctx context.Context, path string, value json.RawMessage) error {
	clean, err := cleanPath(path)
	if err != nil {
		return err
	}
	resolved, err := s.resolve(value)
	if err != nil {
		return err
	}
	return s.store(ctx, clean, resolved)
}

// RemoveUserData drops everything a user owns in the tree.
func (s *DocumentService) RemoveUserData(ctx context.Context, uid string) error {
	if !doctree.ValidKey(uid) {
		return ErrInvalidPath
	}
	if err := s.docs.Delete(ctx, doctree.Join(LikesRoot, uid)); err != nil {
		return fmt.Errorf("remove likes: %w", err)
	}
	if err := s.docs.Delete(ctx, doctree.Join(BookingsRoot, uid)); err != nil {
		return fmt.Errorf("remove bookings: %w", err)
	}
	return nil
}

func (s *DocumentService) store(ctx context.Context, path string, value json.RawMessage) error {
	if err := s.docs.Set(ctx, path, value); err != nil {
		if errors.Is(err, doctree.ErrInvalidValue) {
			return fmt.Errorf("%w: %v", ErrInvalidData, err)
		}
		return err
	}
	return nil
}

func (s *DocumentService) newID() string {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(s.now()), s.entropy).String()
}

// resolve replaces every {".sv":"timestamp"} placeholder with the server
// clock in unix milliseconds.
func (s *DocumentService) resolve(value json.RawMessage) (json.RawMessage, error) {
	if doctree.IsNull(value) {
		return doctree.Null, nil
	}
	if !bytes.Contains(value, []byte(`".sv"`)) {
		return value, nil
	}
	dec := json.NewDecoder(bytes.NewReader(value))
	dec.UseNumber()
	var decoded any
	if err := dec.Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	stamp := s.now().UnixMilli()
	out, err := json.Marshal(replaceServerValues(decoded, stamp))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	return out, nil
}

func replaceServerValues(value any, stamp int64) any {
	switch v := value.(type) {
	case map[string]any:
		if len(v) == 1 {
			if sv, ok := v[".sv"].(string); ok && sv == "timestamp" {
				return stamp
			}
		}
		for key, child := range v {
			v[key] = replaceServerValues(child, stamp)
		}
		return v
	case []any:
		for i, child := range v {
			v[i] = replaceServerValues(child, stamp)
		}
		return v
	default:
		return v
	}
}

func cleanPath(path string) (string, error) {
	clean, err := doctree.Clean(path)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	return clean, nil
}

func owner(path, root string) (string, int, bool) {
	segments := strings.Split(path, "/")
	if len(segments) < 2 || segments[0] != root {
		return "", 0, false
	}
	return segments[1], len(segments), true
}

func canRead(uid, path string) bool {
	if path == RestaurantsRoot || strings.HasPrefix(path, RestaurantsRoot+"/") {
		return true
	}
	if uid == "" {
		return false
	}
	for _, root := range []string{LikesRoot, BookingsRoot} {
		if who, _, ok := owner(path, root); ok {
			return who == uid
		}
	}
	return false
}

// Only like records are writable in place; bookings are append-only and the
// catalog is seeded out of band.
func canSet(uid, path string) bool {
	if uid == "" {
		return false
	}
	who, depth, ok := owner(path, LikesRoot)
	return ok && who == uid && depth <= 3
}

func canPush(uid, path string) bool {
	if uid == "" {
		return false
	}
	who, depth, ok := owner(path, BookingsRoot)
	return ok && who == uid && depth == 2
}

// validateLikes enforces that like records are {restaurantID: true}.
func validateLikes(path string, value json.RawMessage) error {
	if doctree.IsNull(value) {
		return nil
	}
	_, depth, _ := owner(path, LikesRoot)
	switch depth {
	case 3:
		var flag bool
		if err := json.Unmarshal(value, &flag); err != nil || !flag {
			return fmt.Errorf("%w: like must be true", ErrInvalidData)
		}
	case 2:
		var likes map[string]bool
		if err := json.Unmarshal(value, &likes); err != nil {
			return fmt.Errorf("%w: likes must map restaurant ids to true", ErrInvalidData)
		}
		for id, flag := range likes {
			if !flag || !doctree.ValidKey(id) {
				return fmt.Errorf("%w: like %q must be true", ErrInvalidData, id)
			}
		}
	}
	return nil
}

// validateBooking requires an object with a non-empty restaurantId. Party
// size and the date strings are accepted as sent.
func validateBooking(value json.RawMessage) error {
	var record map[string]json.RawMessage
	if err := json.Unmarshal(value, &record); err != nil || record == nil {
		return fmt.Errorf("%w: booking must be an object", ErrInvalidData)
	}
	var restaurantID string
	if err := json.Unmarshal(record["restaurantId"], &restaurantID); err != nil || strings.TrimSpace(restaurantID) == "" {
		return fmt.Errorf("%w: booking requires restaurantId", ErrInvalidData)
	}
	return nil
}
