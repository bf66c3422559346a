package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestHealthHandler_Liveness(t *testing.T) {
	e := echo.New()
	h := NewHealthHandler("development", nil)
	h.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	if err := h.Liveness(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	resp := decodeBody(t, rec)
	if resp["message"] != "ModernShop API is running!" || resp["environment"] != "development" || resp["status"] != "ok" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if resp["timestamp"] != "2026-01-02T03:04:05Z" {
		t.Fatalf("unexpected timestamp: %v", resp["timestamp"])
	}
}

func TestHealthHandler_Readiness(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	cases := []struct {
		name       string
		checks     map[string]DependencyCheck
		wantStatus int
		wantRedis  string
	}{
		{"all up", map[string]DependencyCheck{"mongodb": ok, "redis": ok}, http.StatusOK, "ok"},
		{"redis disabled", map[string]DependencyCheck{"mongodb": ok, "redis": nil}, http.StatusOK, "disabled"},
		{"redis down", map[string]DependencyCheck{"mongodb": ok, "redis": down}, http.StatusServiceUnavailable, "unhealthy"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/api/health/ready", nil)
			rec := httptest.NewRecorder()

			if err := NewHealthHandler("test", tc.checks).Readiness(e.NewContext(req, rec)); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, rec.Code)
			}

			deps := decodeBody(t, rec)["dependencies"].(map[string]any)
			redis := deps["redis"].(map[string]any)
			if redis["status"] != tc.wantRedis {
				t.Fatalf("expected redis %q, got %+v", tc.wantRedis, redis)
			}
		})
	}
}
