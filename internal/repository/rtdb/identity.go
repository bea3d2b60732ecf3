package rtdb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bernicerice/MealMission/internal/domain"
	"github.com/bernicerice/MealMission/internal/repository/ports"
)

type authUser struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	DisplayName *string `json:"display_name"`
	AvatarURL   *string `json:"avatar_url"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      authUser  `json:"user"`
}

type userResponse struct {
	User authUser `json:"user"`
}

// Identity is the client's AuthProvider. The signed-in session is kept in a
// JSON file so it survives restarts of the CLI.
type Identity struct {
	req         requester
	sessionFile string
	now         func() time.Time

	mu      sync.RWMutex
	current *domain.Identity

	subMu   sync.Mutex
	subs    map[int]chan domain.AuthEvent
	nextSub int
}

// NewIdentity restores a persisted session from sessionFile if one exists and
// has not expired. An empty sessionFile disables persistence.
func NewIdentity(baseURL string, client *http.Client, sessionFile string) (*Identity, error) {
	req, err := newRequester(baseURL, client)
	if err != nil {
		return nil, err
	}
	id := &Identity{
		req:         req,
		sessionFile: sessionFile,
		now:         time.Now,
		subs:        make(map[int]chan domain.AuthEvent),
	}
	if err := id.restore(); err != nil {
		return nil, err
	}
	return id, nil
}

func (i *Identity) CurrentUser() (domain.Identity, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.current == nil {
		return domain.Identity{}, false
	}
	return *i.current, true
}

func (i *Identity) CurrentUserID() (string, bool) {
	id, ok := i.CurrentUser()
	return id.UserID, ok
}

// Token implements TokenSource.
func (i *Identity) Token() (string, bool) {
	id, ok := i.CurrentUser()
	return id.Token, ok
}

func (i *Identity) SignIn(ctx context.Context, email, password string) (domain.Identity, error) {
	return i.authenticate(ctx, "/v1/auth/signin", map[string]string{"email": email, "password": password})
}

func (i *Identity) SignUp(ctx context.Context, email, password string) (domain.Identity, error) {
	return i.authenticate(ctx, "/v1/auth/signup", map[string]string{"email": email, "password": password})
}

func (i *Identity) SignInWithGoogle(ctx context.Context, idToken string) (domain.Identity, error) {
	return i.authenticate(ctx, "/v1/auth/google", map[string]string{"id_token": idToken})
}

func (i *Identity) authenticate(ctx context.Context, path string, body any) (domain.Identity, error) {
	var resp tokenResponse
	if err := i.req.doJSON(ctx, http.MethodPost, path, "", body, &resp); err != nil {
		return domain.Identity{}, err
	}
	id := domain.Identity{
		UserID:    resp.User.ID,
		Email:     resp.User.Email,
		Token:     resp.Token,
		ExpiresAt: resp.ExpiresAt,
	}
	applyUser(&id, resp.User)
	if err := i.setCurrent(&id); err != nil {
		return domain.Identity{}, err
	}
	return id, nil
}

// SignOut ends the server session and forgets the local one. The local
// session is dropped even when the server call fails.
func (i *Identity) SignOut(ctx context.Context) error {
	tok, ok := i.Token()
	if !ok {
		return nil
	}
	err := i.req.doJSON(ctx, http.MethodPost, "/v1/auth/signout", tok, nil, nil)
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusUnauthorized {
		err = nil
	}
	if err != nil {
		log.Printf("identity: server sign-out failed: %v", err)
	}
	if clearErr := i.setCurrent(nil); clearErr != nil {
		return clearErr
	}
	return err
}

func (i *Identity) DeleteCurrentAccount(ctx context.Context) error {
	tok, ok := i.Token()
	if !ok {
		return ports.ErrUnauthorized
	}
	if err := i.req.doJSON(ctx, http.MethodDelete, "/v1/auth/account", tok, nil, nil); err != nil {
		return err
	}
	return i.setCurrent(nil)
}

// Invalidate signs out locally when token is still the current session. The
// server has already forgotten it, so no sign-out call is made.
func (i *Identity) Invalidate(token string) {
	i.mu.Lock()
	if i.current == nil || i.current.Token != token {
		i.mu.Unlock()
		return
	}
	i.current = nil
	i.mu.Unlock()

	log.Printf("identity: session rejected by server, signing out")
	if err := i.persist(nil); err != nil {
		log.Printf("identity: %v", err)
	}
	i.emit(domain.AuthEvent{SignedIn: false})
}

// Refresh reloads the profile fields of the signed-in user. A rejected token
// signs the user out locally.
func (i *Identity) Refresh(ctx context.Context) (domain.Identity, error) {
	tok, ok := i.Token()
	if !ok {
		return domain.Identity{}, ports.ErrUnauthorized
	}
	var resp userResponse
	if err := i.req.doJSON(ctx, http.MethodGet, "/v1/auth/me", tok, nil, &resp); err != nil {
		if errors.Is(err, ports.ErrUnauthorized) {
			i.Invalidate(tok)
		}
		return domain.Identity{}, err
	}
	return i.update(resp.User)
}

// UploadAvatar sends a processed image to the avatar endpoint and returns the
// stored URL.
func (i *Identity) UploadAvatar(ctx context.Context, fileName string, data []byte) (string, error) {
	tok, ok := i.Token()
	if !ok {
		return "", ports.ErrUnauthorized
	}
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", fileName)
	if err != nil {
		return "", fmt.Errorf("rtdb: build upload: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("rtdb: build upload: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("rtdb: build upload: %w", err)
	}

	var resp userResponse
	if err := i.req.do(ctx, http.MethodPut, "/v1/users/me/avatar", tok, w.FormDataContentType(), &buf, &resp); err != nil {
		return "", err
	}
	id, err := i.update(resp.User)
	if err != nil {
		return "", err
	}
	return id.AvatarURL, nil
}

// Subscribe delivers sign-in and sign-out events. The channel is closed by
// the returned cancel func.
func (i *Identity) Subscribe() (<-chan domain.AuthEvent, func()) {
	ch := make(chan domain.AuthEvent, 8)
	i.subMu.Lock()
	key := i.nextSub
	i.nextSub++
	i.subs[key] = ch
	i.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			i.subMu.Lock()
			delete(i.subs, key)
			close(ch)
			i.subMu.Unlock()
		})
	}
}

func (i *Identity) update(u authUser) (domain.Identity, error) {
	i.mu.Lock()
	if i.current == nil {
		i.mu.Unlock()
		return domain.Identity{}, ports.ErrUnauthorized
	}
	next := *i.current
	i.mu.Unlock()

	applyUser(&next, u)
	if err := i.setCurrent(&next); err != nil {
		return domain.Identity{}, err
	}
	return next, nil
}

func applyUser(id *domain.Identity, u authUser) {
	if u.Email != "" {
		id.Email = u.Email
	}
	id.DisplayName = ""
	if u.DisplayName != nil {
		id.DisplayName = *u.DisplayName
	}
	id.AvatarURL = ""
	if u.AvatarURL != nil {
		id.AvatarURL = *u.AvatarURL
	}
}

// setCurrent replaces the session, persists it and notifies subscribers when
// the signed-in user changed.
func (i *Identity) setCurrent(id *domain.Identity) error {
	i.mu.Lock()
	prev := ""
	if i.current != nil {
		prev = i.current.UserID
	}
	i.current = id
	i.mu.Unlock()

	if err := i.persist(id); err != nil {
		return err
	}

	next := ""
	if id != nil {
		next = id.UserID
	}
	if prev != next {
		i.emit(domain.AuthEvent{SignedIn: id != nil, UserID: next})
	}
	return nil
}

func (i *Identity) emit(ev domain.AuthEvent) {
	i.subMu.Lock()
	defer i.subMu.Unlock()
	for _, ch := range i.subs {
		select {
		case ch <- ev:
		default:
			log.Printf("identity: subscriber is full, dropping auth event")
		}
	}
}

func (i *Identity) persist(id *domain.Identity) error {
	if i.sessionFile == "" {
		return nil
	}
	if id == nil {
		if err := os.Remove(i.sessionFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("rtdb: remove session: %w", err)
		}
		return nil
	}
	raw, err := json.MarshalIndent(id, "", "  ")
	if err != nil {
		return fmt.Errorf("rtdb: encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(i.sessionFile), 0o700); err != nil {
		return fmt.Errorf("rtdb: create session dir: %w", err)
	}
	if err := os.WriteFile(i.sessionFile, raw, 0o600); err != nil {
		return fmt.Errorf("rtdb: write session: %w", err)
	}
	return nil
}

func (i *Identity) restore() error {
	if i.sessionFile == "" {
		return nil
	}
	raw, err := os.ReadFile(i.sessionFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("rtdb: read session: %w", err)
	}
	var id domain.Identity
	if err := json.Unmarshal(raw, &id); err != nil {
		log.Printf("identity: ignoring unreadable session file: %v", err)
		return nil
	}
	if id.Token == "" || id.UserID == "" || (!id.ExpiresAt.IsZero() && !i.now().Before(id.ExpiresAt)) {
		return nil
	}
	i.current = &id
	return nil
}

var _ ports.AuthProvider = (*Identity)(nil)
