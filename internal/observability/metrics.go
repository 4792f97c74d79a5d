package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	otelprometheus "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"
)

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	PrometheusPath string `mapstructure:"prometheus_path"`
}

// DefaultMetricsConfig returns default metrics configuration
func DefaultMetricsConfig() *MetricsConfig {
	return &MetricsConfig{
		Enabled:        true,
		ServiceName:    "tandem",
		PrometheusPath: "/metrics",
	}
}

// Outcome labels for domain and notification metrics
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeRejected = "rejected"
	OutcomeDropped  = "dropped"
	OutcomeRetried  = "retried"
	OutcomeDead     = "dead"
)

// MetricsProvider manages OpenTelemetry metrics. A nil or disabled provider
// records nothing.
type MetricsProvider struct {
	config        *MetricsConfig
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	logger        *zap.Logger
	registry      *prometheus.Registry
	handler       http.Handler

	httpRequestsTotal      metric.Int64Counter
	httpRequestDuration    metric.Float64Histogram
	storeOperationsTotal   metric.Int64Counter
	storeOperationDuration metric.Float64Histogram
	domainEventsTotal      metric.Int64Counter
	discoveryBatchSize     metric.Int64Histogram
	notificationsTotal     metric.Int64Counter
	countersCorrected      metric.Int64Counter
}

// NewMetricsProvider creates a new metrics provider
func NewMetricsProvider(config *MetricsConfig, logger *zap.Logger) (*MetricsProvider, error) {
	if !config.Enabled {
		return &MetricsProvider{
			config: config,
			meter:  otel.Meter(config.ServiceName),
			logger: logger,
		}, nil
	}

	registry := prometheus.NewRegistry()

	exporter, err := otelprometheus.New(
		otelprometheus.WithRegisterer(registry),
	)
	if err != nil {
		return nil, err
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(meterProvider)

	mp := &MetricsProvider{
		config:        config,
		meterProvider: meterProvider,
		meter:         meterProvider.Meter(config.ServiceName),
		logger:        logger,
		registry:      registry,
		handler:       promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}

	if err := mp.initMetrics(); err != nil {
		return nil, err
	}

	logger.Info("OpenTelemetry metrics initialized",
		zap.String("service", config.ServiceName),
		zap.String("prometheus_path", config.PrometheusPath),
	)

	return mp, nil
}

func (mp *MetricsProvider) initMetrics() error {
	var err error

	mp.httpRequestsTotal, err = mp.meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return err
	}

	mp.httpRequestDuration, err = mp.meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	mp.storeOperationsTotal, err = mp.meter.Int64Counter(
		"store_operations_total",
		metric.WithDescription("Total number of document store operations"),
	)
	if err != nil {
		return err
	}

	mp.storeOperationDuration, err = mp.meter.Float64Histogram(
		"store_operation_duration_seconds",
		metric.WithDescription("Document store operation duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	mp.domainEventsTotal, err = mp.meter.Int64Counter(
		"domain_events_total",
		metric.WithDescription("Connection and chat lifecycle events by outcome"),
	)
	if err != nil {
		return err
	}

	mp.discoveryBatchSize, err = mp.meter.Int64Histogram(
		"discovery_batch_size",
		metric.WithDescription("Profiles returned per discovery batch"),
	)
	if err != nil {
		return err
	}

	mp.notificationsTotal, err = mp.meter.Int64Counter(
		"notifications_total",
		metric.WithDescription("Notification enqueue and delivery outcomes"),
	)
	if err != nil {
		return err
	}

	mp.countersCorrected, err = mp.meter.Int64Counter(
		"user_counters_corrected_total",
		metric.WithDescription("Users whose quota counters were rewritten by reconciliation"),
	)
	return err
}

func (mp *MetricsProvider) enabled() bool {
	return mp != nil && mp.httpRequestsTotal != nil
}

func outcome(success bool) string {
	if success {
		return OutcomeOK
	}
	return OutcomeError
}

// RecordHTTPRequest records an HTTP request metric
func (mp *MetricsProvider) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if !mp.enabled() {
		return
	}

	attrs := metric.WithAttributes(
		AttrHTTPMethod.String(method),
		AttrHTTPRoute.String(path),
		AttrHTTPStatusCode.Int(statusCode),
	)

	mp.httpRequestsTotal.Add(ctx, 1, attrs)
	mp.httpRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordStoreOperation records a document store call
func (mp *MetricsProvider) RecordStoreOperation(ctx context.Context, operation, collection string, success bool, duration time.Duration) {
	if !mp.enabled() {
		return
	}

	attrs := metric.WithAttributes(
		AttrDBOperation.String(operation),
		AttrDBCollection.String(collection),
		AttrOutcome.String(outcome(success)),
	)

	mp.storeOperationsTotal.Add(ctx, 1, attrs)
	mp.storeOperationDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordDomainEvent counts a lifecycle event such as invitation_sent.
func (mp *MetricsProvider) RecordDomainEvent(ctx context.Context, event, result string) {
	if !mp.enabled() {
		return
	}
	mp.domainEventsTotal.Add(ctx, 1, metric.WithAttributes(
		AttrEvent.String(event),
		AttrOutcome.String(result),
	))
}

// RecordDiscoveryBatch records how many profiles a batch returned.
func (mp *MetricsProvider) RecordDiscoveryBatch(ctx context.Context, variant string, size int) {
	if !mp.enabled() {
		return
	}
	mp.discoveryBatchSize.Record(ctx, int64(size), metric.WithAttributes(
		AttrVariant.String(variant),
	))
}

// RecordNotification counts a notification outcome.
func (mp *MetricsProvider) RecordNotification(ctx context.Context, stage, result string) {
	if !mp.enabled() {
		return
	}
	mp.notificationsTotal.Add(ctx, 1, metric.WithAttributes(
		AttrStage.String(stage),
		AttrOutcome.String(result),
	))
}

// RecordCountersCorrected counts users rewritten by reconciliation.
func (mp *MetricsProvider) RecordCountersCorrected(ctx context.Context, n int) {
	if !mp.enabled() || n == 0 {
		return
	}
	mp.countersCorrected.Add(ctx, int64(n))
}

// Handler returns an HTTP handler for Prometheus metrics
func (mp *MetricsProvider) Handler() http.Handler {
	if mp != nil && mp.handler != nil {
		return mp.handler
	}
	return http.NotFoundHandler()
}

// Meter returns the meter for creating custom metrics
func (mp *MetricsProvider) Meter() metric.Meter {
	return mp.meter
}

// Shutdown gracefully shuts down the metrics provider
func (mp *MetricsProvider) Shutdown(ctx context.Context) error {
	if mp != nil && mp.meterProvider != nil {
		return mp.meterProvider.Shutdown(ctx)
	}
	return nil
}
