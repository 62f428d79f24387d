package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/royavalet/valet-site/internal/core/domain"
	"github.com/royavalet/valet-site/internal/core/ports"
)

type pingStorage struct {
	ports.SessionStorage
	err error
}

func (s pingStorage) Ping(context.Context) error { return s.err }

type healthBackend struct {
	resp *ports.Response
	err  error
	got  string
}

func (b *healthBackend) Request(_ context.Context, endpoint string, _ ports.RequestOptions) (*ports.Response, error) {
	b.got = endpoint
	return b.resp, b.err
}

func TestHealthHandler_Liveness(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)

	if err := NewHealthHandler().Liveness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestReadinessHandler(t *testing.T) {
	okResp := &ports.Response{Status: http.StatusOK, Envelope: ports.Envelope{Success: true}}
	cases := []struct {
		name    string
		storage error
		resp    *ports.Response
		err     error
		code    int
		failing string
	}{
		{name: "ready", resp: okResp, code: http.StatusOK},
		{name: "storage down", storage: errors.New("dial tcp: refused"), resp: okResp, code: http.StatusServiceUnavailable, failing: "redis"},
		{name: "backend unreachable", resp: &ports.Response{Failure: &ports.Failure{Kind: ports.FailureUnreachable, Message: "down"}}, code: http.StatusServiceUnavailable, failing: "backend"},
		{name: "backend 500", err: &domain.ServerError{Status: http.StatusInternalServerError}, code: http.StatusServiceUnavailable, failing: "backend"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			backend := &healthBackend{resp: tc.resp, err: tc.err}
			h := NewReadinessHandler(pingStorage{err: tc.storage}, "redis", backend)

			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health/ready", nil), rec)
			if err := h.Readiness(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}

			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
			if backend.got != ports.EndpointHealth {
				t.Fatalf("expected backend health probe, got %q", backend.got)
			}
			var resp readinessResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if tc.failing == "" {
				if resp.Status != "ok" {
					t.Fatalf("expected ok, got %+v", resp)
				}
				return
			}
			if resp.Status != "degraded" || resp.Dependencies[tc.failing].Status != "unhealthy" {
				t.Fatalf("expected %s unhealthy, got %+v", tc.failing, resp)
			}
		})
	}
}
