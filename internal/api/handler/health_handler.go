package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/royavalet/valet-site/internal/core/ports"
)

const readinessTimeout = 3 * time.Second

// HealthHandler answers GET /health. It only proves the process is serving.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type probe struct {
	name  string
	check func(context.Context) error
}

// ReadinessHandler answers GET /health/ready by probing the session store
// and the REST backend under one shared deadline.
type ReadinessHandler struct {
	probes []probe
}

func NewReadinessHandler(storage ports.SessionStorage, storageName string, backend ports.BackendClient) *ReadinessHandler {
	return &ReadinessHandler{probes: []probe{
		{name: storageName, check: storage.Ping},
		{name: "backend", check: func(ctx context.Context) error {
			resp, err := backend.Request(ctx, ports.EndpointHealth, ports.RequestOptions{})
			if err != nil {
				return err
			}
			return resp.Err()
		}},
	}}
}

type dependencyStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

func (h *ReadinessHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
	defer cancel()

	out := readinessResponse{Status: "ok", Dependencies: make(map[string]dependencyStatus, len(h.probes))}
	for _, p := range h.probes {
		if err := p.check(ctx); err != nil {
			out.Dependencies[p.name] = dependencyStatus{Status: "unhealthy", Error: err.Error()}
			out.Status = "degraded"
			continue
		}
		out.Dependencies[p.name] = dependencyStatus{Status: "ok"}
	}

	if out.Status != "ok" {
		return c.JSON(http.StatusServiceUnavailable, out)
	}
	return c.JSON(http.StatusOK, out)
}
