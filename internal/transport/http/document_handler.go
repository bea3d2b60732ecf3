package http

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/bernicerice/MealMission/internal/doctree"
	"github.com/bernicerice/MealMission/internal/service"
	"github.com/bernicerice/MealMission/internal/util"
)

const (
	maxDocumentBytes = 1 << 20

	codePermissionDenied = "PERMISSION_DENIED"
	codeInvalidPath      = "INVALID_PATH"
	codeInvalidData      = "INVALID_DATA"
)

// DocumentHandler serves the key-path store over REST: /db/{path}.json.
type DocumentHandler struct {
	docs *service.DocumentService
}

func RegisterDocuments(e *echo.Echo, auth *service.AuthService, docs *service.DocumentService) {
	h := &DocumentHandler{docs: docs}
	g := e.Group("/db", OptionalAuth(auth))
	g.GET("/*", h.get)
	g.PUT("/*", h.put)
	g.POST("/*", h.push)
	g.DELETE("/*", h.remove)
}

func (h *DocumentHandler) get(c echo.Context) error {
	path, ok := documentPath(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, util.ErrorCode("path must end in .json", codeInvalidPath))
	}
	value, err := h.docs.Get(c.Request().Context(), currentUID(c), path)
	if err != nil {
		return writeDocumentError(c, err)
	}
	return c.JSONBlob(http.StatusOK, value)
}

func (h *DocumentHandler) put(c echo.Context) error {
	path, ok := documentPath(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, util.ErrorCode("path must end in .json", codeInvalidPath))
	}
	body, err := readDocument(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.ErrorCode(err.Error(), codeInvalidData))
	}
	if err := h.docs.Set(c.Request().Context(), currentUID(c), path, body); err != nil {
		return writeDocumentError(c, err)
	}
	return c.JSONBlob(http.StatusOK, body)
}

func (h *DocumentHandler) push(c echo.Context) error {
	path, ok := documentPath(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, util.ErrorCode("path must end in .json", codeInvalidPath))
	}
	body, err := readDocument(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, util.ErrorCode(err.Error(), codeInvalidData))
	}
	id, err := h.docs.Push(c.Request().Context(), currentUID(c), path, body)
	if err != nil {
		return writeDocumentError(c, err)
	}
	return c.JSON(http.StatusOK, PushResponse{Name: id})
}

func (h *DocumentHandler) remove(c echo.Context) error {
	path, ok := documentPath(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, util.ErrorCode("path must end in .json", codeInvalidPath))
	}
	if err := h.docs.Delete(c.Request().Context(), currentUID(c), path); err != nil {
		return writeDocumentError(c, err)
	}
	return c.JSONBlob(http.StatusOK, doctree.Null)
}

// documentPath decodes the key path from the escaped request path, one
// segment at a time, so an escaped "%" in a key survives as a literal.
func documentPath(c echo.Context) (string, bool) {
	raw := strings.TrimPrefix(c.Request().URL.EscapedPath(), "/db/")
	if !strings.HasSuffix(raw, ".json") {
		return "", false
	}
	segments := strings.Split(strings.TrimSuffix(raw, ".json"), "/")
	for i, seg := range segments {
		decoded, err := url.PathUnescape(seg)
		if err != nil {
			return "", false
		}
		segments[i] = decoded
	}
	return strings.Join(segments, "/"), true
}

func readDocument(c echo.Context) (json.RawMessage, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxDocumentBytes+1))
	if err != nil {
		return nil, errors.New("unable to read body")
	}
	if len(body) > maxDocumentBytes {
		return nil, errors.New("document too large")
	}
	if !json.Valid(body) {
		return nil, errors.New("body must be valid JSON")
	}
	return json.RawMessage(body), nil
}

func writeDocumentError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		status := http.StatusForbidden
		if currentUID(c) == "" {
			status = http.StatusUnauthorized
		}
		return c.JSON(status, util.ErrorCode("permission denied", codePermissionDenied))
	case errors.Is(err, service.ErrInvalidPath):
		return c.JSON(http.StatusBadRequest, util.ErrorCode(err.Error(), codeInvalidPath))
	case errors.Is(err, service.ErrInvalidData):
		return c.JSON(http.StatusBadRequest, util.ErrorCode(err.Error(), codeInvalidData))
	default:
		log.Printf("document handler: %v", err)
		return c.JSON(http.StatusInternalServerError, util.Error("internal error"))
	}
}
