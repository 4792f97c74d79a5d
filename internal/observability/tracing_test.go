package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestDefaultTracingConfig(t *testing.T) {
	cfg := DefaultTracingConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "tandem", cfg.ServiceName)
	assert.Equal(t, "stdout", cfg.ExporterType)
	assert.Equal(t, 1.0, cfg.SamplingRate)
}

func TestNewTracingProvider_Disabled(t *testing.T) {
	tp, err := NewTracingProvider(DefaultTracingConfig(), testLogger())
	require.NoError(t, err)
	assert.NotNil(t, tp.Tracer())
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func TestNewTracingProvider_Exporters(t *testing.T) {
	tests := []struct {
		name     string
		exporter string
		rate     float64
	}{
		{"stdout always", "stdout", 1.0},
		{"stdout never", "stdout", 0},
		{"stdout ratio", "stdout", 0.5},
		{"unknown falls back to stdout", "jaeger", 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultTracingConfig()
			cfg.Enabled = true
			cfg.ExporterType = tt.exporter
			cfg.SamplingRate = tt.rate

			tp, err := NewTracingProvider(cfg, testLogger())
			require.NoError(t, err)

			ctx, span := tp.StartSpan(context.Background(), "op")
			assert.NotNil(t, ctx)
			span.End()
			_ = tp.Shutdown(context.Background())
		})
	}
}

func TestNewTracingProvider_OTLPHTTP(t *testing.T) {
	cfg := DefaultTracingConfig()
	cfg.Enabled = true
	cfg.ExporterType = "otlp-http"

	tp, err := NewTracingProvider(cfg, testLogger())
	require.NoError(t, err)
	assert.NotNil(t, tp.Tracer())
	assert.NoError(t, tp.Shutdown(context.Background()))
}

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return rec
}

func TestStartSpan_EndSpan(t *testing.T) {
	rec := withRecorder(t)

	_, span := StartSpan(context.Background(), "discovery.next_batch", AttrUserID.String("u1"))
	EndSpan(span, errors.New("store down"))

	_, ok := StartSpan(context.Background(), "chat.send_message")
	EndSpan(ok, nil)

	ended := rec.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "discovery.next_batch", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Len(t, ended[0].Events(), 1)
	assert.Equal(t, codes.Unset, ended[1].Status().Code)
}

func TestTracingMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rec := withRecorder(t)

	r := gin.New()
	r.Use(TracingMiddleware("test"))
	r.GET("/chats/:connectionId/messages", func(c *gin.Context) {
		AddSpanAttributes(c.Request.Context(), AttrConnectionID.String(c.Param("connectionId")))
		c.Status(http.StatusInternalServerError)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/chats/c1/messages", nil))

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "/chats/:connectionId/messages", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
}
