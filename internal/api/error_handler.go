package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/simnova/sharethrift/internal/api/metrics"
	"github.com/simnova/sharethrift/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that maps domain error
// kinds to HTTP status codes and renders {"error": "<message>"}. Domain
// messages are returned verbatim; unexpected errors are logged and hidden.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

// errorKinds maps domain error kinds to HTTP statuses, checked in order.
var errorKinds = []struct {
	kind error
	code int
}{
	{domain.ErrPermissionDenied, http.StatusForbidden},
	{domain.ErrInvalidTransition, http.StatusConflict},
	{domain.ErrInvariantViolation, http.StatusBadRequest},
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrConcurrentModification, http.StatusConflict},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized},
	{domain.ErrUserExists, http.StatusConflict},
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	for _, k := range errorKinds {
		if !errors.Is(err, k.kind) {
			continue
		}
		switch k.kind {
		case domain.ErrPermissionDenied:
			metrics.AuthorizationDenialsTotal.WithLabelValues(c.Path()).Inc()
		case domain.ErrInvalidTransition:
			metrics.TransitionFailuresTotal.WithLabelValues(c.Path()).Inc()
		}

		var derr *domain.Error
		if errors.As(err, &derr) {
			return k.code, derr.Message
		}
		return k.code, k.kind.Error()
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
