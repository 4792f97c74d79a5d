package di

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/jrjohn/tandem-cloud-go/internal/config"
	"github.com/jrjohn/tandem-cloud-go/internal/domain/dao"
	"github.com/jrjohn/tandem-cloud-go/internal/domain/dao/memory"
	mongodao "github.com/jrjohn/tandem-cloud-go/internal/domain/dao/mongo"
	"github.com/jrjohn/tandem-cloud-go/internal/observability"
)

// DAOModule provides the DocumentStore for the configured driver,
// instrumented with store metrics.
var DAOModule = fx.Module("dao",
	fx.Provide(provideDocumentStore),
)

func provideDocumentStore(
	cfg *config.DatabaseConfig,
	mongoDB *MongoDatabase,
	metrics *observability.MetricsProvider,
	logger *zap.Logger,
) dao.DocumentStore {
	var store dao.DocumentStore
	if cfg.IsMongoDB() {
		store = mongodao.NewDocumentStore(mongoDB.DB)
	} else {
		logger.Warn("Using the in-memory document store; data is lost on restart")
		store = memory.NewDocumentStore()
	}
	return observability.InstrumentStore(store, metrics)
}
