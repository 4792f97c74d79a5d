package di

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/jrjohn/tandem-cloud-go/internal/config"
	httpctrl "github.com/jrjohn/tandem-cloud-go/internal/controller/http"
	"github.com/jrjohn/tandem-cloud-go/internal/domain/dao"
	"github.com/jrjohn/tandem-cloud-go/internal/observability"
)

// ControllerModule provides HTTP controller dependencies
var ControllerModule = fx.Module("controller",
	fx.Provide(
		httpctrl.NewDiscoveryController,
		httpctrl.NewInvitationController,
		httpctrl.NewChatController,
		provideHealthController,
	),
)

func provideHealthController(
	store dao.DocumentStore,
	client *redis.Client,
	cfg *config.MetricsConfig,
	metrics *observability.MetricsProvider,
	logger *zap.Logger,
) *httpctrl.HealthController {
	return httpctrl.NewHealthController(readinessChecks(store, client), metrics, metricsPath(cfg), logger)
}

func readinessChecks(store dao.DocumentStore, client *redis.Client) map[string]httpctrl.Check {
	checks := map[string]httpctrl.Check{}
	if p, ok := store.(dao.Pinger); ok {
		checks["store"] = p.Ping
	}
	if client != nil {
		checks["redis"] = func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		}
	}
	return checks
}

func metricsPath(cfg *config.MetricsConfig) string {
	if !cfg.Enabled {
		return ""
	}
	return cfg.Path
}
