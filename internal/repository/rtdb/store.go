package rtdb

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/bernicerice/MealMission/internal/repository/ports"
)

// TokenSource supplies the bearer token for store requests. Requests are sent
// anonymously when it reports none. Invalidate is called with a token the
// server rejected as unknown or expired.
type TokenSource interface {
	Token() (string, bool)
	Invalidate(token string)
}

// Store is a ports.RemoteStore backed by the server's /db endpoints.
type Store struct {
	req    requester
	tokens TokenSource
}

func NewStore(baseURL string, client *http.Client, tokens TokenSource) (*Store, error) {
	req, err := newRequester(baseURL, client)
	if err != nil {
		return nil, err
	}
	return &Store{req: req, tokens: tokens}, nil
}

// Get retries anonymously when the session was rejected, so public data such
// as the catalog stays readable. If the retry fails too, the original
// rejection is returned.
func (s *Store) Get(ctx context.Context, path string) (ports.Snapshot, error) {
	var raw json.RawMessage
	rejected, err := s.send(ctx, http.MethodGet, path, nil, &raw)
	if rejected {
		var anon json.RawMessage
		if retryErr := s.req.doJSON(ctx, http.MethodGet, documentURL(path), "", nil, &anon); retryErr == nil {
			raw, err = anon, nil
		}
	}
	if err != nil {
		return ports.Snapshot{}, err
	}
	return ports.Snapshot{Path: path, Value: raw}, nil
}

func (s *Store) Set(ctx context.Context, path string, value any) error {
	_, err := s.send(ctx, http.MethodPut, path, value, nil)
	return err
}

func (s *Store) Push(ctx context.Context, path string, value any) (string, error) {
	var out struct {
		Name string `json:"name"`
	}
	if _, err := s.send(ctx, http.MethodPost, path, value, &out); err != nil {
		return "", err
	}
	return out.Name, nil
}

func (s *Store) Delete(ctx context.Context, path string) error {
	_, err := s.send(ctx, http.MethodDelete, path, nil, nil)
	return err
}

// send performs one request with the current token. rejected reports that a
// token was sent and the server refused the session, in which case the token
// source has already been told to drop it.
func (s *Store) send(ctx context.Context, method, path string, body, out any) (rejected bool, err error) {
	tok := s.token()
	err = s.req.doJSON(ctx, method, documentURL(path), tok, body, out)
	if tok != "" && errors.Is(err, ports.ErrUnauthorized) {
		s.tokens.Invalidate(tok)
		return true, err
	}
	return false, err
}

func (s *Store) token() string {
	if s.tokens == nil {
		return ""
	}
	tok, _ := s.tokens.Token()
	return tok
}

func documentURL(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return "/db/" + strings.Join(segments, "/") + ".json"
}

var _ ports.RemoteStore = (*Store)(nil)
