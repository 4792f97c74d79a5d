package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// TracerName is the instrumentation scope used by the domain services.
const TracerName = "github.com/jrjohn/tandem-cloud-go"

// TracingConfig holds OpenTelemetry tracing configuration
type TracingConfig struct {
	Enabled        bool    `mapstructure:"enabled"`
	ServiceName    string  `mapstructure:"service_name"`
	ServiceVersion string  `mapstructure:"service_version"`
	Environment    string  `mapstructure:"environment"`
	ExporterType   string  `mapstructure:"exporter_type"` // stdout, otlp-http
	OTLPEndpoint   string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure   bool    `mapstructure:"otlp_insecure"`
	SamplingRate   float64 `mapstructure:"sampling_rate"`
}

// DefaultTracingConfig returns default tracing configuration
func DefaultTracingConfig() *TracingConfig {
	return &TracingConfig{
		Enabled:        false,
		ServiceName:    "tandem",
		ServiceVersion: "1.0.0",
		Environment:    "development",
		ExporterType:   "stdout",
		OTLPEndpoint:   "localhost:4318",
		OTLPInsecure:   true,
		SamplingRate:   1.0,
	}
}

// TracingProvider manages OpenTelemetry tracing
type TracingProvider struct {
	config         *TracingConfig
	tracerProvider *sdktrace.TracerProvider
	tracer         trace.Tracer
	logger         *zap.Logger
}

// NewTracingProvider creates a new tracing provider
func NewTracingProvider(config *TracingConfig, logger *zap.Logger) (*TracingProvider, error) {
	if !config.Enabled {
		return &TracingProvider{
			config: config,
			tracer: otel.Tracer(config.ServiceName),
			logger: logger,
		}, nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName(config.ServiceName),
			semconv.ServiceVersion(config.ServiceVersion),
			semconv.DeploymentEnvironment(config.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := createExporter(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(createSampler(config.SamplingRate)),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("OpenTelemetry tracing initialized",
		zap.String("service", config.ServiceName),
		zap.String("exporter", config.ExporterType),
		zap.Float64("sampling_rate", config.SamplingRate),
	)

	return &TracingProvider{
		config:         config,
		tracerProvider: tp,
		tracer:         tp.Tracer(config.ServiceName),
		logger:         logger,
	}, nil
}

func createSampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1.0:
		return sdktrace.AlwaysSample()
	case rate <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
	}
}

func createExporter(config *TracingConfig) (sdktrace.SpanExporter, error) {
	switch config.ExporterType {
	case "otlp-http":
		opts := []otlptracehttp.Option{
			otlptracehttp.WithEndpoint(config.OTLPEndpoint),
		}
		if config.OTLPInsecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptrace.New(context.Background(), otlptracehttp.NewClient(opts...))
	default:
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	}
}

// Tracer returns the tracer
func (tp *TracingProvider) Tracer() trace.Tracer {
	return tp.tracer
}

// StartSpan starts a new span
func (tp *TracingProvider) StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return tp.tracer.Start(ctx, name, opts...)
}

// Shutdown gracefully shuts down the tracer provider
func (tp *TracingProvider) Shutdown(ctx context.Context) error {
	if tp.tracerProvider != nil {
		return tp.tracerProvider.Shutdown(ctx)
	}
	return nil
}

// StartSpan starts a span on the global tracer. Services call this so they
// work whether or not a TracingProvider is installed.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// AddSpanAttributes adds attributes to the current span
func AddSpanAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).SetAttributes(attrs...)
}

// Common attribute keys
var (
	AttrHTTPMethod     = attribute.Key("http.method")
	AttrHTTPURL        = attribute.Key("http.url")
	AttrHTTPStatusCode = attribute.Key("http.status_code")
	AttrHTTPRoute      = attribute.Key("http.route")
	AttrDBSystem       = attribute.Key("db.system")
	AttrDBOperation    = attribute.Key("db.operation")
	AttrDBCollection   = attribute.Key("db.collection")
	AttrUserID         = attribute.Key("user.id")
	AttrConnectionID   = attribute.Key("tandem.connection_id")
	AttrVariant        = attribute.Key("tandem.discovery_variant")
	AttrEvent          = attribute.Key("tandem.event")
	AttrStage          = attribute.Key("tandem.stage")
	AttrOutcome        = attribute.Key("tandem.outcome")
)
