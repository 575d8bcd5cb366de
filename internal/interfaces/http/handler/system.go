package handler

import (
	"context"
	"maps"
	"net/http"
	"runtime"
	"slices"
	"time"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/logger"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ServiceName is the name reported by /system/info
const ServiceName = "FlowSales Co-Pilot API"

const probeTimeout = 2 * time.Second

// Probe status values
const (
	probeOK     = "ok"
	probeFailed = "error"
)

// HealthCheck probes one dependency
type HealthCheck func(ctx context.Context) error

// SystemHandler serves liveness and readiness endpoints
type SystemHandler struct {
	started time.Time
	version string
	checks  map[string]HealthCheck
	now     func() time.Time
}

func NewSystemHandler() *SystemHandler {
	return &SystemHandler{
		started: time.Now(),
		version: telemetry.Version,
		checks:  map[string]HealthCheck{},
		now:     time.Now,
	}
}

// AddCheck registers a dependency probe run by Health
func (h *SystemHandler) AddCheck(name string, check HealthCheck) *SystemHandler {
	h.checks[name] = check
	return h
}

// SystemInfoResponse describes the running process
// @name HandlerSystemInfoResponse
type SystemInfoResponse struct {
	Name      string    `json:"name" example:"FlowSales Co-Pilot API"`
	Version   string    `json:"version" example:"1.4.2"`
	GoVersion string    `json:"go_version" example:"go1.25.5"`
	StartedAt time.Time `json:"started_at" example:"2026-01-23T12:00:00Z"`
	Uptime    string    `json:"uptime" example:"1h30m45s"`
	Checks    []string  `json:"checks" example:"database,staging"`
}

// GetSystemInfo godoc
// @ID           getSystemSystemInfo
// @Summary      Get system information
// @Description  Returns the build version, uptime and the registered dependency probes
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[SystemInfoResponse]
// @Router       /system/info [get]
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	success(c, SystemInfoResponse{
		Name:      ServiceName,
		Version:   h.version,
		GoVersion: runtime.Version(),
		StartedAt: h.started.UTC(),
		Uptime:    h.now().Sub(h.started).Round(time.Second).String(),
		Checks:    slices.Sorted(maps.Keys(h.checks)),
	})
}

// PingResponse is the liveness answer
// @name HandlerPingResponse
type PingResponse struct {
	Message string    `json:"message" example:"pong"`
	Time    time.Time `json:"time" example:"2026-01-23T12:00:00Z"`
}

// Ping godoc
// @ID           pingSystem
// @Summary      Liveness probe
// @Description  Answers without touching any dependency
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[PingResponse]
// @Router       /system/ping [get]
func (h *SystemHandler) Ping(c *gin.Context) {
	success(c, PingResponse{Message: "pong", Time: h.now().UTC()})
}

// HealthResponse reports the state of each dependency
type HealthResponse struct {
	Status string            `json:"status" example:"healthy"`
	Time   time.Time         `json:"time" example:"2026-01-23T12:00:00Z"`
	Checks map[string]string `json:"checks"`
}

// Health godoc
// @ID           getHealth
// @Summary      Readiness probe
// @Description  Runs every registered dependency probe. Any failing probe answers 503.
// @Tags         system
// @Produce      json
// @Success      200 {object} HealthResponse
// @Failure      503 {object} HealthResponse
// @Router       /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status: "healthy",
		Time:   h.now().UTC(),
		Checks: make(map[string]string, len(h.checks)),
	}
	for _, name := range slices.Sorted(maps.Keys(h.checks)) {
		if err := h.probe(c.Request.Context(), name); err != nil {
			logger.RequestLogger(c, nil).Warn("Dependency probe failed",
				zap.String("check", name), zap.Error(err))
			resp.Checks[name] = probeFailed
			resp.Status = "unhealthy"
			continue
		}
		resp.Checks[name] = probeOK
	}

	status := http.StatusOK
	if resp.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}

func (h *SystemHandler) probe(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	return h.checks[name](ctx)
}
