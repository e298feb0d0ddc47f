package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"topicfind-backend/internal/services"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	healthService *services.HealthService
	logger        *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(healthService *services.HealthService, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		healthService: healthService,
		logger:        logger,
	}
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Uptime    string                 `json:"uptime"`
	Checks    map[string]CheckResult `json:"checks"`
}

// CheckResult represents the result of a health check
type CheckResult struct {
	Status   string        `json:"status"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// Liveness returns a simple liveness check
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now().UTC(),
	})
}

// Health returns comprehensive health information: database and NATS
// reachability. Unhealthy database fails the request; unhealthy
// messaging only degrades it, since discovery works without NATS.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	status := &HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Checks:    make(map[string]CheckResult),
	}

	dbStart := time.Now()
	if err := h.healthService.DatabaseHealth(ctx); err != nil {
		status.Checks["database"] = CheckResult{Status: "unhealthy", Duration: time.Since(dbStart), Error: err.Error()}
		status.Status = "unhealthy"
	} else {
		status.Checks["database"] = CheckResult{Status: "healthy", Duration: time.Since(dbStart)}
	}

	natsStart := time.Now()
	if err := h.healthService.MessagingHealth(ctx); err != nil {
		status.Checks["nats"] = CheckResult{Status: "degraded", Duration: time.Since(natsStart), Error: err.Error()}
		if status.Status == "healthy" {
			status.Status = "degraded"
		}
	} else {
		status.Checks["nats"] = CheckResult{Status: "healthy", Duration: time.Since(natsStart)}
	}

	httpStatus := http.StatusOK
	if status.Status == "unhealthy" {
		httpStatus = http.StatusServiceUnavailable
	}
	c.JSON(httpStatus, status)
}

// SystemInfo returns process memory and dependency status, an extra
// diagnostic endpoint beyond the basic health check.
func (h *HealthHandler) SystemInfo(c *gin.Context) {
	c.JSON(http.StatusOK, h.healthService.GetSystemInfo(c.Request.Context()))
}

// RegisterRoutes registers health check routes
func (h *HealthHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.Health)
	router.GET("/health/live", h.Liveness)
	router.GET("/health/info", h.SystemInfo)
}
