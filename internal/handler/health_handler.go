// internal/handler/health_handler.go
package handler

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"receipt-emulator/internal/config"
	"receipt-emulator/internal/protocol"
	"receipt-emulator/internal/utils"
)

// HealthChecker reports whether a dependency is reachable
type HealthChecker interface {
	Health(ctx context.Context) error
}

// HealthHandler handles health check requests
type HealthHandler struct {
	db        HealthChecker
	listeners []protocol.Listener
	config    *config.Config
	logger    *utils.ServiceLogger
	startTime time.Time
}

// NewHealthHandler creates a new health handler. db may be nil when the
// service runs without a database.
func NewHealthHandler(db HealthChecker, listeners []protocol.Listener, config *config.Config, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:        db,
		listeners: listeners,
		config:    config,
		logger:    utils.NewServiceLogger(logger, "health-handler"),
		startTime: time.Now(),
	}
}

// HealthCheck performs general health check
// @Summary Health check
// @Description Report database, receipt storage and printer port listener status. A stopped listener degrades the service without failing it.
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse "Service is healthy or degraded"
// @Failure 503 {object} HealthResponse "Service is unhealthy"
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	health := &HealthResponse{
		Status:    statusHealthy,
		Timestamp: time.Now(),
		Service:   h.config.App.Name,
		Version:   h.config.App.Version,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Checks:    make(map[string]CheckResult),
	}

	if h.db == nil {
		health.Checks["database"] = CheckResult{Status: "disabled"}
	} else if err := h.checkDatabase(c.Request.Context()); err != nil {
		health.Status = statusUnhealthy
		health.Checks["database"] = CheckResult{Status: statusUnhealthy, Message: err.Error()}
	} else {
		health.Checks["database"] = CheckResult{Status: statusHealthy, Message: "Database connection OK"}
	}

	if err := h.checkStorage(); err != nil {
		health.Status = statusUnhealthy
		health.Checks["storage"] = CheckResult{Status: statusUnhealthy, Message: err.Error()}
	} else {
		health.Checks["storage"] = CheckResult{Status: statusHealthy, Message: h.config.Storage.OutputDir}
	}

	for _, l := range h.listeners {
		stats := l.Stats()
		if stats.Running {
			health.Checks["listener:"+l.Name()] = CheckResult{Status: statusHealthy, Message: stats.Address}
			continue
		}
		health.Checks["listener:"+l.Name()] = CheckResult{Status: "stopped", Message: stats.LastError}
		if health.Status == statusHealthy {
			health.Status = statusDegraded
		}
	}

	statusCode := http.StatusOK
	if health.Status == statusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, health)
}

// ReadinessCheck reports whether the service can store jobs
// @Summary Readiness check
// @Tags Health
// @Produce json
// @Success 200 {object} object{status=string,timestamp=string} "Service is ready"
// @Failure 503 {object} object{status=string,reason=string} "Service is not ready"
// @Router /ready [get]
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	reason := ""
	if err := h.checkStorage(); err != nil {
		reason = "receipt storage not available"
		h.logger.Warn("Readiness check failed", zap.Error(err))
	} else if h.db != nil {
		if err := h.checkDatabase(c.Request.Context()); err != nil {
			reason = "database not available"
			h.logger.Warn("Readiness check failed", zap.Error(err))
		}
	}

	if reason != "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": reason,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now(),
	})
}

// LivenessCheck reports that the process is serving requests
// @Summary Liveness check
// @Tags Health
// @Produce json
// @Success 200 {object} object{status=string,timestamp=string} "Service is alive"
// @Router /live [get]
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "alive",
		"timestamp": time.Now(),
	})
}

// checkStorage verifies that the output directory still exists
func (h *HealthHandler) checkStorage() error {
	info, err := os.Stat(h.config.Storage.OutputDir)
	if err != nil {
		return fmt.Errorf("output directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("output path %s is not a directory", h.config.Storage.OutputDir)
	}
	return nil
}

func (h *HealthHandler) checkDatabase(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return h.db.Health(ctx)
}

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Service   string                 `json:"service"`
	Version   string                 `json:"version"`
	Uptime    string                 `json:"uptime"`
	Checks    map[string]CheckResult `json:"checks"`
}

// CheckResult represents individual check result
type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}
