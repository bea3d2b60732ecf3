package domain

import "time"

// Identity is the signed-in account as seen by the client.
type Identity struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	Token       string    `json:"token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// AuthEvent is emitted whenever the signed-in identity changes.
type AuthEvent struct {
	SignedIn bool
	UserID   string
}

// Screen is a top-level navigation destination.
type Screen string

const (
	ScreenAuthorization Screen = "authorization"
	ScreenMainTabs      Screen = "main_tabs"
)
