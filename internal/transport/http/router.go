package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/bernicerice/MealMission/internal/util"
)

const (
	codeNotFound        = "NOT_FOUND"
	codeTooLarge        = "TOO_LARGE"
	codeInternal        = "INTERNAL"
	codeMethodForbidden = "METHOD_NOT_ALLOWED"
)

// NewRouter builds the echo instance shared by the auth and document
// endpoints. Framework errors use the same {"error","code"} body as handlers
// so clients can decode every failure the same way.
func NewRouter(allowOrigins []string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	allowCredentials := true
	for _, origin := range allowOrigins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}

	registerLogging(e)

	e.Use(middleware.Recover())
	e.Use(middleware.Secure())
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dB", maxAvatarBytes+1<<20)))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderAuthorization,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderOrigin,
		},
		AllowCredentials: allowCredentials,
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"ok": true})
	})
	return e
}

func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status, code, message := http.StatusInternalServerError, codeInternal, "internal error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		message = http.StatusText(status)
		switch status {
		case http.StatusNotFound:
			code = codeNotFound
		case http.StatusMethodNotAllowed:
			code = codeMethodForbidden
		case http.StatusRequestEntityTooLarge:
			code = codeTooLarge
		case http.StatusUnauthorized:
			code = codeUnauthorized
		default:
			code = ""
		}
	} else {
		c.Logger().Error(err)
	}

	body := util.Error(message)
	if code != "" {
		body = util.ErrorCode(message, code)
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, body)
}
