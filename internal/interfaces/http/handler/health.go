package handler

import (
	"context"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/erp/settlement/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const defaultCheckTimeout = 3 * time.Second

// HealthCheck is one dependency checked by the readiness endpoint
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthHandler serves liveness and readiness checks
type HealthHandler struct {
	BaseHandler
	name      string
	version   string
	checks    []HealthCheck
	timeout   time.Duration
	startTime time.Time
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(name, version string, checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{
		name:      name,
		version:   version,
		checks:    checks,
		timeout:   defaultCheckTimeout,
		startTime: time.Now(),
	}
}

// LivenessResponse is returned by GET /health
type LivenessResponse struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// ReadinessResponse is returned by GET /health/ready
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Liveness godoc
// @Summary      Liveness check
// @Description  Report that the process is serving requests
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response{data=LivenessResponse}
// @Router       /health [get]
func (h *HealthHandler) Liveness(c *gin.Context) {
	h.Success(c, LivenessResponse{
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Readiness godoc
// @Summary      Readiness check
// @Description  Check every dependency concurrently; any failure yields a 503
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response{data=ReadinessResponse}
// @Failure      503 {object} dto.Response{data=ReadinessResponse,error=dto.ErrorInfo}
// @Router       /health/ready [get]
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		results = make(map[string]string, len(h.checks))
		healthy = true
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, check := range h.checks {
		g.Go(func() error {
			status := "ok"
			if err := check.Check(gctx); err != nil {
				status = err.Error()
			}
			mu.Lock()
			results[check.Name] = status
			if status != "ok" {
				healthy = false
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, dto.Response{
			Success: false,
			Data:    ReadinessResponse{Status: "unavailable", Checks: results},
			Error:   &dto.ErrorInfo{Code: dto.ErrCodeUnavailable, Message: "One or more dependencies are unavailable"},
		})
		return
	}
	h.Success(c, ReadinessResponse{Status: "ok", Checks: results})
}

// RegisterRoutes mounts the health routes on r
func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.Liveness)
	r.GET("/health/ready", h.Readiness)
}
