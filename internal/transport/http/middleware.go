package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/bernicerice/MealMission/internal/domain"
	"github.com/bernicerice/MealMission/internal/service"
	"github.com/bernicerice/MealMission/internal/util"
)

const (
	contextUserKey    = "auth.user"
	contextSessionKey = "auth.session"
	contextTokenKey   = "auth.token"

	codeUnauthorized = "UNAUTHORIZED"
)

// RequireAuth rejects requests without a valid session token.
func RequireAuth(auth *service.AuthService) echo.MiddlewareFunc {
	return authenticate(auth, true)
}

// OptionalAuth resolves a token when one is sent and lets anonymous requests
// through. A token that is sent but invalid is still rejected.
func OptionalAuth(auth *service.AuthService) echo.MiddlewareFunc {
	return authenticate(auth, false)
}

func authenticate(auth *service.AuthService, required bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := requestToken(c)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, util.ErrorCode(err.Error(), codeUnauthorized))
			}
			if token == "" {
				if required {
					return c.JSON(http.StatusUnauthorized, util.ErrorCode("missing authorization header", codeUnauthorized))
				}
				return next(c)
			}
			user, session, err := auth.Authenticate(c.Request().Context(), token)
			if err != nil {
				if errors.Is(err, service.ErrUnauthorized) {
					return c.JSON(http.StatusUnauthorized, util.ErrorCode("invalid or expired token", codeUnauthorized))
				}
				return c.JSON(http.StatusInternalServerError, util.Error("unable to verify session"))
			}
			c.Set(contextUserKey, user)
			c.Set(contextSessionKey, session)
			c.Set(contextTokenKey, token)
			return next(c)
		}
	}
}

// requestToken reads a bearer token from the Authorization header, falling
// back to the auth query parameter used by REST store clients.
func requestToken(c echo.Context) (string, error) {
	authHeader := strings.TrimSpace(c.Request().Header.Get(echo.HeaderAuthorization))
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", errors.New("invalid authorization header")
		}
		return strings.TrimSpace(parts[1]), nil
	}
	return strings.TrimSpace(c.QueryParam("auth")), nil
}

func CurrentUser(c echo.Context) (*domain.User, bool) {
	user, ok := c.Get(contextUserKey).(*domain.User)
	return user, ok && user != nil
}

func CurrentSession(c echo.Context) (*domain.Session, bool) {
	session, ok := c.Get(contextSessionKey).(*domain.Session)
	return session, ok && session != nil
}

func currentToken(c echo.Context) string {
	token, _ := c.Get(contextTokenKey).(string)
	return token
}

// currentUID is the store principal: the account id, or "" when anonymous.
func currentUID(c echo.Context) string {
	if user, ok := CurrentUser(c); ok {
		return user.ID.String()
	}
	return ""
}
