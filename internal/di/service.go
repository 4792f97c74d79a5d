package di

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/jrjohn/tandem-cloud-go/internal/config"
	"github.com/jrjohn/tandem-cloud-go/internal/domain/repository"
	"github.com/jrjohn/tandem-cloud-go/internal/domain/service"
	serviceimpl "github.com/jrjohn/tandem-cloud-go/internal/domain/service/impl"
	"github.com/jrjohn/tandem-cloud-go/internal/observability"
)

// ServiceModule provides service layer dependencies
var ServiceModule = fx.Module("service",
	fx.Provide(
		provideDiscoveryService,
		serviceimpl.NewConnectionService,
		serviceimpl.NewChatService,
		provideReconcileService,
	),
)

func provideDiscoveryService(
	profiles repository.ProfileRepository,
	hasShown repository.HasShownRepository,
	connections repository.ConnectionRepository,
	cfg *config.DiscoveryConfig,
	metrics *observability.MetricsProvider,
	logger *zap.Logger,
) service.DiscoveryService {
	return serviceimpl.NewDiscoveryService(profiles, hasShown, connections, *cfg, metrics, logger)
}

func provideReconcileService(
	users repository.UserRepository,
	connections repository.ConnectionRepository,
	cfg *config.ReconcileConfig,
	metrics *observability.MetricsProvider,
	logger *zap.Logger,
) service.ReconcileService {
	return serviceimpl.NewReconcileService(users, connections, cfg.BatchSize, metrics, logger)
}
