// Package rtdb talks to the MealMission server over its REST surface: the
// document store under /db and the identity endpoints under /v1.
package rtdb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bernicerice/MealMission/internal/repository/ports"
)

const maxErrorBody = 64 << 10

// StatusError is a non-2xx response. Code is the server's machine-readable
// error code, when it sent one.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("%s %s: %d %s (%s)", e.Method, e.URL, e.StatusCode, msg, e.Code)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.StatusCode, msg)
}

// Unwrap exposes the identity sentinel matching Code, so callers can use
// errors.Is(err, ports.ErrWrongPassword) and friends.
func (e *StatusError) Unwrap() error {
	switch e.Code {
	case "INVALID_EMAIL":
		return ports.ErrInvalidEmail
	case "EMAIL_EXISTS":
		return ports.ErrEmailExists
	case "WEAK_PASSWORD":
		return ports.ErrWeakPassword
	case "INVALID_PASSWORD":
		return ports.ErrWrongPassword
	case "EMAIL_NOT_FOUND":
		return ports.ErrEmailNotFound
	case "REQUIRES_RECENT_LOGIN":
		return ports.ErrRequiresRecentLogin
	case "UNAUTHORIZED":
		return ports.ErrUnauthorized
	}
	return nil
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type requester struct {
	baseURL string
	http    *http.Client
}

func newRequester(baseURL string, client *http.Client) (requester, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return requester{}, errors.New("rtdb: base url is required")
	}
	if client == nil {
		client = http.DefaultClient
	}
	return requester{baseURL: baseURL, http: client}, nil
}

// do sends a request and decodes a 2xx JSON body into out when out is non-nil.
func (r requester) do(ctx context.Context, method, path, token, contentType string, body io.Reader, out any) error {
	target := r.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("rtdb: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return fmt.Errorf("rtdb: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{Method: method, URL: path, StatusCode: resp.StatusCode}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var eb errorBody
		if json.Unmarshal(raw, &eb) == nil {
			statusErr.Code = eb.Code
			statusErr.Message = eb.Error
		}
		return statusErr
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("rtdb: decode %s %s: %w", method, path, err)
	}
	return nil
}

func (r requester) doJSON(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("rtdb: encode body: %w", err)
		}
		body = bytes.NewReader(raw)
		contentType = "application/json"
	}
	return r.do(ctx, method, path, token, contentType, body, out)
}
