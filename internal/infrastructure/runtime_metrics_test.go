package infrastructure

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"cellviewer/internal/config"
)

func TestRuntimeMetricsCollect(t *testing.T) {
	providers, err := InitializeOTel(config.TelemetryConfig{Enabled: true, ServiceName: "cellviewer-test"}, quietLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	m, err := NewRuntimeMetrics(providers.Meter)
	require.NoError(t, err)
	snap := m.Collect(context.Background())
	assert.Positive(t, snap.Goroutines)
	assert.Positive(t, snap.SysBytes)

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "runtime_goroutines")
}

func TestRuntimeCollectorStops(t *testing.T) {
	c, err := NewRuntimeCollector(noop.NewMeterProvider().Meter("test"), 10*time.Millisecond)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		c.Start(context.Background())
		close(done)
	}()
	time.Sleep(30 * time.Millisecond)
	c.Stop()
	c.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop")
	}
}
