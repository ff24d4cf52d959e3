package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func TestIdempotencyKey_Allows(t *testing.T) {
	for _, key := range []string{"", "abc-123", "7f9c2ba4-e88f-4c8e-9a1b-5b1e6a6f0d11", strings.Repeat("k", MaxIdempotencyKeyLen)} {
		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/users", nil)
		if key != "" {
			req.Header.Set("Idempotency-Key", key)
		}
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		called := false
		handler := IdempotencyKey("Idempotency-Key")(func(c echo.Context) error {
			called = true
			return c.NoContent(http.StatusCreated)
		})

		if err := handler(c); err != nil {
			t.Fatalf("key %q: handler error: %v", key, err)
		}
		if !called {
			t.Fatalf("key %q: next handler not called", key)
		}
	}
}

func TestIdempotencyKey_Rejects(t *testing.T) {
	for _, key := range []string{strings.Repeat("k", MaxIdempotencyKeyLen+1), "tab\there", "clé"} {
		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/users", nil)
		req.Header.Set("Idempotency-Key", key)
		c := e.NewContext(req, httptest.NewRecorder())

		handler := IdempotencyKey("Idempotency-Key")(func(c echo.Context) error {
			t.Fatalf("key %q: next handler should not be called", key)
			return nil
		})

		err := handler(c)
		var he *echo.HTTPError
		if !errors.As(err, &he) {
			t.Fatalf("key %q: expected *echo.HTTPError, got %v", key, err)
		}
		if he.Code != http.StatusBadRequest {
			t.Fatalf("key %q: expected 400, got %d", key, he.Code)
		}
	}
}

func TestRequestLogger_WritesOneLine(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	e := echo.New()
	e.Use(RequestLogger(log))
	e.GET("/users/:id", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	})

	req := httptest.NewRequest(http.MethodGet, "/users/7", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-42")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one log line, got %d: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("invalid json log line: %v", err)
	}
	if entry["level"] != "warn" {
		t.Fatalf("expected warn level, got %v", entry["level"])
	}
	if entry["status"] != float64(http.StatusNotFound) {
		t.Fatalf("expected status 404, got %v", entry["status"])
	}
	if entry["uri"] != "/users/7" || entry["method"] != http.MethodGet {
		t.Fatalf("unexpected request fields: %v", entry)
	}
	if entry["request_id"] != "req-42" {
		t.Fatalf("expected request id from header, got %v", entry["request_id"])
	}
}
