package observability

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap/zaptest"

	"github.com/Additional-Code/kusina/internal/config"
)

func TestPrometheusMetricsAreServed(t *testing.T) {
	mgr, err := NewManager(fxtest.NewLifecycle(t), config.Config{Observability: config.Observability{
		ServiceName:     "kusina",
		Environment:     "test",
		EnableMetrics:   true,
		MetricsExporter: "prometheus",
		PrometheusPath:  "/metrics",
	}}, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.True(t, mgr.MetricsEnabled())
	assert.False(t, mgr.TracingEnabled())
	assert.Equal(t, "/metrics", mgr.PrometheusPath())

	counter, err := mgr.MeterProvider().Meter("test").Int64Counter("kusina.orders.placed")
	require.NoError(t, err)
	counter.Add(context.Background(), 2)

	rec := httptest.NewRecorder()
	mgr.MetricsHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "kusina_orders_placed_total")
}

func TestDisabledManagerFallsBackToGlobalProvider(t *testing.T) {
	mgr, err := NewManager(fxtest.NewLifecycle(t), config.Config{Observability: config.Observability{ServiceName: "kusina"}}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, mgr.MetricsEnabled())
	assert.Nil(t, mgr.MetricsHandler())
	assert.NotNil(t, mgr.MeterProvider())
}

func TestTracingWithNoExporterStaysOff(t *testing.T) {
	mgr, err := NewManager(fxtest.NewLifecycle(t), config.Config{Observability: config.Observability{
		ServiceName:      "kusina",
		EnableTracing:    true,
		TraceExporter:    "none",
		TraceSampleRatio: 1,
	}}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.False(t, mgr.TracingEnabled())
	require.NoError(t, mgr.Shutdown(context.Background()))
}
