package di

import (
	"go.uber.org/fx"

	"github.com/jrjohn/tandem-cloud-go/internal/config"
	"github.com/jrjohn/tandem-cloud-go/internal/middleware"
	"github.com/jrjohn/tandem-cloud-go/internal/resilience"
)

// MiddlewareModule provides middleware dependencies
var MiddlewareModule = fx.Module("middleware",
	fx.Provide(
		middleware.NewAuthMiddleware,
		provideKeyedLimiter,
	),
)

// provideKeyedLimiter returns nil when rate limiting is disabled.
func provideKeyedLimiter(cfg *config.RateLimitConfig) *resilience.KeyedLimiter {
	if !cfg.Enabled {
		return nil
	}
	return resilience.NewKeyedLimiter(&resilience.RateLimiterConfig{
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
	})
}
