package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jakobhellermann/beancount-staging/internal/adapter/http/dto"
)

func TestHealthHandler_Liveness(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler().Liveness(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHealthHandler_Readiness(t *testing.T) {
	ok := func(context.Context) error { return nil }

	t.Run("all checks pass", func(t *testing.T) {
		h := NewHealthHandler(Check{Name: "postgres", Check: ok}, Check{Name: "redis", Check: ok})
		rec := httptest.NewRecorder()
		h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if body["status"] != "ready" || body["postgres"] != "ok" || body["redis"] != "ok" {
			t.Fatalf("unexpected body %+v", body)
		}
	})

	t.Run("no backends configured", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewHealthHandler().Readiness(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("failing check", func(t *testing.T) {
		h := NewHealthHandler(
			Check{Name: "postgres", Check: ok},
			Check{Name: "redis", Check: func(context.Context) error { return errors.New("connection refused") }},
		)
		rec := httptest.NewRecorder()
		h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
		var resp dto.ErrorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Error != "redis unhealthy" || resp.Message != "connection refused" {
			t.Fatalf("unexpected error response %+v", resp)
		}
	})
}
