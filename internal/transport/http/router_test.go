package http

import (
	"net/http"
	"testing"
)

func TestRouterErrorsUseEnvelope(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/nope", "", "")
	if rec.Code != http.StatusNotFound || errorCode(t, rec) != codeNotFound {
		t.Fatalf("unknown route: %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("health: %d", rec.Code)
	}
}
