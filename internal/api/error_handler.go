package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/apiusers/user-service/internal/core/domain"
	"github.com/apiusers/user-service/internal/core/validation"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Message string                 `json:"message"`
	Errors  []validation.Violation `json:"errors,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps validation and domain errors to their HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"message": "..."}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		return http.StatusBadRequest, errorResponse{Message: "validation failed", Errors: verr.Violations}
	}

	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, errorResponse{Message: "user not found"}
	case errors.Is(err, domain.ErrDuplicateEmail):
		return http.StatusConflict, errorResponse{Message: domain.ErrDuplicateEmail.Error()}
	}

	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Code >= http.StatusInternalServerError {
			logUnhandled(log, err, c)
			return he.Code, errorResponse{Message: http.StatusText(he.Code)}
		}
		return he.Code, errorResponse{Message: fmt.Sprintf("%v", he.Message)}
	}

	logUnhandled(log, err, c)
	return http.StatusInternalServerError, errorResponse{Message: "internal server error"}
}

func logUnhandled(log zerolog.Logger, err error, c echo.Context) {
	log.Error().
		Err(err).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")
}
