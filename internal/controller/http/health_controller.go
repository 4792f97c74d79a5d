package http

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jrjohn/tandem-cloud-go/internal/dto/response"
	"github.com/jrjohn/tandem-cloud-go/internal/observability"
)

const readinessTimeout = 2 * time.Second

// Check reports whether one dependency is usable.
type Check func(ctx context.Context) error

// HealthController serves the probes and the metrics endpoint
type HealthController struct {
	checks      map[string]Check
	metrics     *observability.MetricsProvider
	metricsPath string
	logger      *zap.Logger
}

// NewHealthController creates a new HealthController. A nil metrics provider
// or empty path leaves the metrics endpoint unregistered.
func NewHealthController(checks map[string]Check, metrics *observability.MetricsProvider, metricsPath string, logger *zap.Logger) *HealthController {
	return &HealthController{checks: checks, metrics: metrics, metricsPath: metricsPath, logger: logger}
}

// RegisterRoutes registers the unauthenticated probe routes
func (c *HealthController) RegisterRoutes(router gin.IRoutes) {
	router.GET("/health", c.Health)
	router.GET("/ready", c.Ready)
	if c.metrics != nil && c.metricsPath != "" {
		router.GET(c.metricsPath, gin.WrapH(c.metrics.Handler()))
	}
}

// Health is the liveness probe
// @Summary Liveness probe
// @Tags Health
// @Produce json
// @Success 200 {object} response.HealthResponse
// @Router /health [get]
func (c *HealthController) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, response.HealthResponse{Status: "ok", Timestamp: time.Now().UTC()})
}

// Ready runs every dependency check and answers 503 if any fails
// @Summary Readiness probe
// @Tags Health
// @Produce json
// @Success 200 {object} response.ReadinessResponse
// @Failure 503 {object} response.ReadinessResponse
// @Router /ready [get]
func (c *HealthController) Ready(ctx *gin.Context) {
	checkCtx, cancel := context.WithTimeout(ctx.Request.Context(), readinessTimeout)
	defer cancel()

	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := response.ReadinessResponse{Status: "ready", Checks: make(map[string]string, len(names))}
	status := http.StatusOK
	for _, name := range names {
		if err := c.checks[name](checkCtx); err != nil {
			c.logger.Warn("Readiness check failed", zap.String("check", name), zap.Error(err))
			resp.Checks[name] = "down"
			resp.Status = "not ready"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "up"
	}
	ctx.JSON(status, resp)
}
