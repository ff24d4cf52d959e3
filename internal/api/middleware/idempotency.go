package middleware

import (
	"net/http"
	"unicode"

	"github.com/labstack/echo/v4"
)

// MaxIdempotencyKeyLen bounds the Idempotency-Key header.
const MaxIdempotencyKeyLen = 255

// IdempotencyKey rejects requests whose Idempotency-Key header is too long
// or contains non-printable characters. A missing header passes through.
func IdempotencyKey(header string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.Request().Header.Get(header)
			if key != "" && !validKey(key) {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid "+header+" header")
			}
			return next(c)
		}
	}
}

func validKey(key string) bool {
	if len(key) > MaxIdempotencyKeyLen {
		return false
	}
	for _, r := range key {
		if r > unicode.MaxASCII || !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}
