package di

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/jrjohn/tandem-cloud-go/internal/config"
	"github.com/jrjohn/tandem-cloud-go/internal/observability"
)

// ObservabilityModule provides the metrics and tracing providers
var ObservabilityModule = fx.Module("observability",
	fx.Provide(
		provideMetricsProvider,
		provideTracingProvider,
	),
	// Installs the global tracer provider even when nothing else asks for it.
	fx.Invoke(func(*observability.TracingProvider) {}),
)

func provideMetricsProvider(lc fx.Lifecycle, app *config.AppConfig, cfg *config.MetricsConfig, logger *zap.Logger) (*observability.MetricsProvider, error) {
	mp, err := observability.NewMetricsProvider(&observability.MetricsConfig{
		Enabled:        cfg.Enabled,
		ServiceName:    app.Name,
		PrometheusPath: cfg.Path,
	}, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return mp.Shutdown(ctx)
		},
	})
	return mp, nil
}

func provideTracingProvider(lc fx.Lifecycle, app *config.AppConfig, cfg *config.TracingConfig, logger *zap.Logger) (*observability.TracingProvider, error) {
	tp, err := observability.NewTracingProvider(&observability.TracingConfig{
		Enabled:        cfg.Enabled,
		ServiceName:    app.Name,
		ServiceVersion: app.Version,
		Environment:    app.Environment,
		ExporterType:   cfg.Exporter,
		OTLPEndpoint:   cfg.Endpoint,
		OTLPInsecure:   true,
		SamplingRate:   cfg.SamplingRate,
	}, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return tp.Shutdown(ctx)
		},
	})
	return tp, nil
}
