// Package health exposes liveness and readiness probes for the relay
// process, suitable for a Kubernetes or load-balancer health check.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger is the one thing the readiness probe depends on: a Redis
// connection check. A nil Pinger means the relay is running in
// single-instance mode with no Redis, which is itself healthy.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves the relay's health endpoints.
type Handler struct {
	redis Pinger
}

// NewHandler builds a Handler. redis may be nil in single-instance mode.
func NewHandler(redis Pinger) *Handler {
	return &Handler{redis: redis}
}

// LivenessResponse is the liveness probe body.
type LivenessResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ReadinessResponse is the readiness probe body.
type ReadinessResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp string            `json:"timestamp"`
}

// Liveness reports whether the process is alive, with no dependency
// checks. GET /health/live
func (h *Handler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, LivenessResponse{
		Status:    "alive",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Readiness reports whether the relay's dependencies are reachable.
// GET /health/ready
func (h *Handler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{"redis": h.checkRedis(ctx)}
	allHealthy := checks["redis"] == "healthy"

	status := "ready"
	statusCode := http.StatusOK
	if !allHealthy {
		status = "unavailable"
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, ReadinessResponse{
		Status:    status,
		Checks:    checks,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) checkRedis(ctx context.Context) string {
	if h.redis == nil {
		return "healthy"
	}
	if err := h.redis.Ping(ctx); err != nil {
		return "unhealthy"
	}
	return "healthy"
}
