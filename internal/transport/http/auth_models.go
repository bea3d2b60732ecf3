package http

import (
	"time"

	"github.com/bernicerice/MealMission/internal/domain"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error" example:"incorrect password"`
	Code  string `json:"code,omitempty" example:"INVALID_PASSWORD"`
}

type AuthUser struct {
	ID          string    `json:"id" example:"9fd13fd2-63c5-4f29-a210-4a1a8e285f74"`
	Email       string    `json:"email" example:"user@example.com"`
	DisplayName *string   `json:"display_name,omitempty" example:"Grace"`
	AvatarURL   *string   `json:"avatar_url,omitempty" example:"https://cdn.example.com/avatars/u.jpg"`
	CreatedAt   time.Time `json:"created_at" example:"2024-01-01T12:00:00Z"`
}

type AuthTokenResponse struct {
	Token     string   `json:"token"`
	ExpiresAt string   `json:"expires_at" example:"2024-01-02T09:30:00Z"`
	User      AuthUser `json:"user"`
}

type AuthUserResponse struct {
	User AuthUser `json:"user"`
}

type SuccessResponse struct {
	Success bool `json:"success" example:"true"`
}

// PushResponse carries the key generated for a pushed child.
type PushResponse struct {
	Name string `json:"name" example:"01HXZ3V6J0M6R1Q2P7K9D8C4B5"`
}

func toAuthUser(u *domain.User) AuthUser {
	return AuthUser{
		ID:          u.ID.String(),
		Email:       u.Email,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
		CreatedAt:   u.CreatedAt,
	}
}
