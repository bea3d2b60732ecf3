package util

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestJWTManagerGenerateAndParse(t *testing.T) {
	manager := NewJWTManager("top-secret", time.Minute)

	userID := uuid.New()
	token, expiresAt, err := manager.Generate(userID, "user@example.com")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token to be non-empty")
	}
	if expiresAt.Before(time.Now()) {
		t.Fatalf("expected expiry in the future")
	}

	claims, err := manager.Parse(token)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("expected user id %s, got %s", userID, claims.UserID)
	}
	if claims.Email != "user@example.com" {
		t.Fatalf("expected email claim, got %q", claims.Email)
	}
}

func TestJWTManagerTokensAreDistinct(t *testing.T) {
	manager := NewJWTManager("secret", time.Minute)
	userID := uuid.New()
	first, _, _ := manager.Generate(userID, "user@example.com")
	second, _, _ := manager.Generate(userID, "user@example.com")
	if first == second {
		t.Fatalf("expected distinct tokens for consecutive sign-ins")
	}
}

func TestJWTManagerParseExpiredToken(t *testing.T) {
	manager := NewJWTManager("secret", time.Minute)
	base := time.Now()
	manager.now = func() time.Time { return base }
	token, _, err := manager.Generate(uuid.New(), "user@example.com")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	manager.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, err := manager.Parse(token); err == nil {
		t.Fatalf("expected parse error for expired token")
	}
}

func TestJWTManagerRejectsForeignSecret(t *testing.T) {
	token, _, _ := NewJWTManager("one", time.Minute).Generate(uuid.New(), "a@b.c")
	if _, err := NewJWTManager("two", time.Minute).Parse(token); err == nil {
		t.Fatalf("expected signature error")
	}
}
