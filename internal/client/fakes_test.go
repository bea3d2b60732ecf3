package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/bernicerice/MealMission/internal/domain"
	"github.com/bernicerice/MealMission/internal/repository/memory"
	"github.com/bernicerice/MealMission/internal/repository/ports"
)

// fakeStore is a RemoteStore over the in-memory document tree with failure
// injection per path and a call counter.
type fakeStore struct {
	docs *memory.DocumentRepository

	mu     sync.Mutex
	errs   map[string]error
	calls  int
	nextID int
	pushed map[string]json.RawMessage
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		docs:   memory.NewDocumentRepo(),
		errs:   make(map[string]error),
		pushed: make(map[string]json.RawMessage),
	}
}

func (s *fakeStore) seed(t *testing.T, path, raw string) {
	t.Helper()
	if err := s.docs.Set(context.Background(), path, json.RawMessage(raw)); err != nil {
		t.Fatalf("seed %s: %v", path, err)
	}
}

func (s *fakeStore) failOn(path string, err error) {
	s.mu.Lock()
	s.errs[path] = err
	s.mu.Unlock()
}

func (s *fakeStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *fakeStore) begin(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.errs[path]
}

func (s *fakeStore) Get(ctx context.Context, path string) (ports.Snapshot, error) {
	if err := s.begin(path); err != nil {
		return ports.Snapshot{}, err
	}
	raw, err := s.docs.Get(ctx, path)
	if err != nil {
		return ports.Snapshot{}, err
	}
	return ports.Snapshot{Path: path, Value: raw}, nil
}

func (s *fakeStore) Set(ctx context.Context, path string, value any) error {
	if err := s.begin(path); err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.docs.Set(ctx, path, raw)
}

func (s *fakeStore) Push(ctx context.Context, path string, value any) (string, error) {
	if err := s.begin(path); err != nil {
		return "", err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.nextID++
	id := fmt.Sprintf("rec%03d", s.nextID)
	s.pushed[path+"/"+id] = raw
	s.mu.Unlock()
	return id, s.docs.Set(ctx, path+"/"+id, raw)
}

func (s *fakeStore) Delete(ctx context.Context, path string) error {
	if err := s.begin(path); err != nil {
		return err
	}
	return s.docs.Delete(ctx, path)
}

type fakeIdentity struct {
	mu  sync.Mutex
	uid string
}

func (f *fakeIdentity) CurrentUserID() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uid, f.uid != ""
}

type fakeNavigator struct {
	mu     sync.Mutex
	toAuth int
	toMain int
}

func (n *fakeNavigator) GoToAuth() {
	n.mu.Lock()
	n.toAuth++
	n.mu.Unlock()
}

func (n *fakeNavigator) GoToMain() {
	n.mu.Lock()
	n.toMain++
	n.mu.Unlock()
}

func (n *fakeNavigator) counts() (auth, main int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.toAuth, n.toMain
}

// fakeAuth is an AuthProvider with scripted results.
type fakeAuth struct {
	mu        sync.Mutex
	current   *domain.Identity
	signInErr error
	signUpErr error
	deleteErr error
	signedOut bool
	deleted   bool
	lastEmail string
	subs      []chan domain.AuthEvent
}

func (f *fakeAuth) CurrentUser() (domain.Identity, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return domain.Identity{}, false
	}
	return *f.current, true
}

func (f *fakeAuth) CurrentUserID() (string, bool) {
	id, ok := f.CurrentUser()
	return id.UserID, ok
}

func (f *fakeAuth) SignIn(ctx context.Context, email, password string) (domain.Identity, error) {
	return f.signIn(email, f.signInErr)
}

func (f *fakeAuth) SignUp(ctx context.Context, email, password string) (domain.Identity, error) {
	return f.signIn(email, f.signUpErr)
}

func (f *fakeAuth) SignInWithGoogle(ctx context.Context, idToken string) (domain.Identity, error) {
	return f.signIn("google@example.com", f.signInErr)
}

func (f *fakeAuth) signIn(email string, err error) (domain.Identity, error) {
	f.mu.Lock()
	f.lastEmail = email
	if err != nil {
		f.mu.Unlock()
		return domain.Identity{}, err
	}
	id := domain.Identity{UserID: "u-1", Email: email, Token: "tok"}
	f.current = &id
	f.mu.Unlock()
	f.emit(domain.AuthEvent{SignedIn: true, UserID: id.UserID})
	return id, nil
}

func (f *fakeAuth) SignOut(ctx context.Context) error {
	f.mu.Lock()
	f.current = nil
	f.signedOut = true
	f.mu.Unlock()
	f.emit(domain.AuthEvent{})
	return nil
}

func (f *fakeAuth) DeleteCurrentAccount(ctx context.Context) error {
	f.mu.Lock()
	if f.deleteErr != nil {
		defer f.mu.Unlock()
		return f.deleteErr
	}
	f.current = nil
	f.deleted = true
	f.mu.Unlock()
	f.emit(domain.AuthEvent{})
	return nil
}

func (f *fakeAuth) Subscribe() (<-chan domain.AuthEvent, func()) {
	ch := make(chan domain.AuthEvent, 4)
	f.mu.Lock()
	f.subs = append(f.subs, ch)
	f.mu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			for i, c := range f.subs {
				if c == ch {
					f.subs = append(f.subs[:i], f.subs[i+1:]...)
					break
				}
			}
			close(ch)
		})
	}
}

func (f *fakeAuth) emit(ev domain.AuthEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.subs {
		ch <- ev
	}
}
