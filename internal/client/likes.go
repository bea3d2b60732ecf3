package client

import (
	"context"
	"log"

	"github.com/bernicerice/MealMission/internal/doctree"
	"github.com/bernicerice/MealMission/internal/domain"
	"github.com/bernicerice/MealMission/internal/repository/ports"
)

// LikeService reads and writes the signed-in user's like set stored under
// user_likes/{uid}.
type LikeService struct {
	store    ports.RemoteStore
	identity IdentitySource
}

func NewLikeService(store ports.RemoteStore, identity IdentitySource) *LikeService {
	return &LikeService{store: store, identity: identity}
}

// FetchLikedIDs never reports missing identity or malformed data as an error;
// both yield an empty set.
func (s *LikeService) FetchLikedIDs(ctx context.Context) (domain.IDSet, error) {
	uid, ok := s.identity.CurrentUserID()
	if !ok {
		return domain.NewIDSet(), nil
	}
	snap, err := s.store.Get(ctx, doctree.Join(likesRoot, uid))
	if err != nil {
		if sessionLost(s.identity, uid, err) {
			log.Printf("likes: session for %s ended: %v", uid, err)
			return domain.NewIDSet(), nil
		}
		return nil, storeErr("fetch likes", err)
	}
	if !snap.Exists() {
		return domain.NewIDSet(), nil
	}

	var flags map[string]bool
	if err := snap.Decode(&flags); err != nil {
		log.Printf("likes: unexpected shape for %s: %v", uid, err)
		return domain.NewIDSet(), nil
	}
	out := make(domain.IDSet, len(flags))
	for id, liked := range flags {
		if liked {
			out.Add(id)
		}
	}
	return out, nil
}

func (s *LikeService) AddLike(ctx context.Context, restaurantID string) error {
	uid, path, err := s.likePath(restaurantID)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, path, true); err != nil {
		return s.writeErr("add like", uid, err)
	}
	return nil
}

// RemoveLike succeeds when the like is already absent.
func (s *LikeService) RemoveLike(ctx context.Context, restaurantID string) error {
	uid, path, err := s.likePath(restaurantID)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, path); err != nil {
		return s.writeErr("remove like", uid, err)
	}
	return nil
}

// writeErr turns a rejected session into ErrNotAuthenticated so callers route
// to sign-in instead of reporting a store failure.
func (s *LikeService) writeErr(op, uid string, err error) error {
	if sessionLost(s.identity, uid, err) {
		return ErrNotAuthenticated
	}
	return storeErr(op, err)
}

func (s *LikeService) likePath(restaurantID string) (uid, path string, err error) {
	uid, ok := s.identity.CurrentUserID()
	if !ok {
		return "", "", ErrNotAuthenticated
	}
	if !doctree.ValidKey(restaurantID) {
		return "", "", ErrInvalidID
	}
	return uid, doctree.Join(likesRoot, uid, restaurantID), nil
}
