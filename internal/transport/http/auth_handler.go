package http

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bernicerice/MealMission/internal/media"
	"github.com/bernicerice/MealMission/internal/service"
	"github.com/bernicerice/MealMission/internal/util"
)

const maxAvatarBytes = 10 << 20

type AuthHandler struct {
	auth    *service.AuthService
	avatars *service.AvatarService
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func RegisterAuth(e *echo.Echo, auth *service.AuthService, avatars *service.AvatarService) {
	h := &AuthHandler{auth: auth, avatars: avatars}

	public := e.Group("/v1/auth")
	public.POST("/signup", h.signUp)
	public.POST("/signin", h.signIn)
	public.POST("/google", h.google)

	protected := e.Group("/v1", RequireAuth(auth))
	protected.POST("/auth/signout", h.signOut)
	protected.DELETE("/auth/account", h.deleteAccount)
	protected.GET("/auth/me", h.me)
	if avatars != nil {
		protected.PUT("/users/me/avatar", h.uploadAvatar)
	}
}

// signUp godoc
// @Summary Register with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Success 201 {object} AuthTokenResponse
// @Failure 400 {object} ErrorResponse
// @Router /v1/auth/signup [post]
func (h *AuthHandler) signUp(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	result, err := h.auth.RegisterWithEmail(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return writeAuthError(c, err)
	}
	return c.JSON(http.StatusCreated, tokenResponse(result))
}

// signIn godoc
// @Summary Sign in with email and password
// @Tags auth
// @Router /v1/auth/signin [post]
func (h *AuthHandler) signIn(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	result, err := h.auth.LoginWithEmail(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return writeAuthError(c, err)
	}
	return c.JSON(http.StatusOK, tokenResponse(result))
}

func (h *AuthHandler) google(c echo.Context) error {
	var req struct {
		IDToken string `json:"id_token"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("invalid request body"))
	}
	result, err := h.auth.LoginWithGoogle(c.Request().Context(), req.IDToken)
	if err != nil {
		return writeAuthError(c, err)
	}
	return c.JSON(http.StatusOK, tokenResponse(result))
}

func (h *AuthHandler) signOut(c echo.Context) error {
	if err := h.auth.Logout(c.Request().Context(), currentToken(c)); err != nil {
		return c.JSON(http.StatusInternalServerError, util.Error("could not sign out"))
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

// deleteAccount godoc
// @Summary Delete the signed-in account with its likes and bookings
// @Tags auth
// @Security BearerAuth
// @Failure 401 {object} ErrorResponse "REQUIRES_RECENT_LOGIN when the session is too old"
// @Router /v1/auth/account [delete]
func (h *AuthHandler) deleteAccount(c echo.Context) error {
	user, _ := CurrentUser(c)
	session, _ := CurrentSession(c)
	if err := h.auth.DeleteAccount(c.Request().Context(), user, session); err != nil {
		return writeAuthError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

func (h *AuthHandler) me(c echo.Context) error {
	user, _ := CurrentUser(c)
	return c.JSON(http.StatusOK, AuthUserResponse{User: toAuthUser(user)})
}

func (h *AuthHandler) uploadAvatar(c echo.Context) error {
	user, _ := CurrentUser(c)
	file, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("file is required"))
	}
	if file.Size > maxAvatarBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, util.Error("image too large"))
	}
	src, err := file.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.Error("unable to read file"))
	}
	defer src.Close()

	updated, err := h.avatars.Upload(c.Request().Context(), user.ID, media.Upload{
		Reader:      src,
		Size:        file.Size,
		FileName:    file.Filename,
		ContentType: file.Header.Get(echo.HeaderContentType),
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidImage) {
			return c.JSON(http.StatusBadRequest, util.ErrorCode("unsupported image", codeInvalidData))
		}
		return writeAuthError(c, err)
	}
	return c.JSON(http.StatusOK, AuthUserResponse{User: toAuthUser(updated)})
}

func tokenResponse(result *service.AuthResult) AuthTokenResponse {
	return AuthTokenResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt.UTC().Format(time.RFC3339),
		User:      toAuthUser(result.User),
	}
}

func writeAuthError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidEmail):
		return c.JSON(http.StatusBadRequest, util.ErrorCode("invalid email", "INVALID_EMAIL"))
	case errors.Is(err, service.ErrEmailAlreadyUsed):
		return c.JSON(http.StatusConflict, util.ErrorCode("email already registered", "EMAIL_EXISTS"))
	case errors.Is(err, service.ErrPasswordTooWeak):
		return c.JSON(http.StatusBadRequest, util.ErrorCode(util.ErrWeakPassword.Error(), "WEAK_PASSWORD"))
	case errors.Is(err, service.ErrInvalidPassword):
		return c.JSON(http.StatusUnauthorized, util.ErrorCode("incorrect password", "INVALID_PASSWORD"))
	case errors.Is(err, service.ErrEmailNotFound):
		return c.JSON(http.StatusNotFound, util.ErrorCode("no account for this email", "EMAIL_NOT_FOUND"))
	case errors.Is(err, service.ErrRequiresRecentLogin):
		return c.JSON(http.StatusUnauthorized, util.ErrorCode("sign in again to continue", "REQUIRES_RECENT_LOGIN"))
	case errors.Is(err, service.ErrInvalidGoogleToken), errors.Is(err, service.ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, util.ErrorCode("authentication failed", codeUnauthorized))
	case errors.Is(err, service.ErrUserNotFound):
		return c.JSON(http.StatusNotFound, util.Error("user not found"))
	default:
		log.Printf("auth handler: %v", err)
		return c.JSON(http.StatusInternalServerError, util.Error("internal error"))
	}
}
