package http

import (
	"strings"
	"testing"
)

func TestSanitizeBodyRedactsCredentials(t *testing.T) {
	got := sanitizeBody([]byte(`{"email":"a@b.co","password":"secret1","nested":{"id_token":"abc"}}`), "application/json")
	m, ok := got.(map[string]interface{})
	if !ok {
		t.Fatalf("expected map, got %T", got)
	}
	if m["password"] != redacted {
		t.Fatalf("password not redacted: %v", m["password"])
	}
	if nested := m["nested"].(map[string]interface{}); nested["id_token"] != redacted {
		t.Fatalf("token not redacted: %v", nested["id_token"])
	}
	if m["email"] != "a@b.co" {
		t.Fatalf("email should be kept, got %v", m["email"])
	}
}

func TestSanitizeBodyTruncatesLargeDocuments(t *testing.T) {
	body := `{"big":"` + strings.Repeat("x", maxLoggedBody*2) + `"}`
	got := sanitizeBody([]byte(body), "application/json").(map[string]interface{})
	if got["_truncated"] != true || got["_keys"] != 1 {
		t.Fatalf("expected truncated summary, got %v", got)
	}
}

func TestRedactQuery(t *testing.T) {
	got := redactQuery("/db/user_likes/u1.json?auth=secret-token&print=pretty")
	if strings.Contains(got, "secret-token") || !strings.Contains(got, "print=pretty") {
		t.Fatalf("unexpected redaction %q", got)
	}
	if redactQuery("/health") != "/health" {
		t.Fatalf("plain uri must pass through")
	}
}
