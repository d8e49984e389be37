package infrastructure

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cellviewer/internal/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestOTelInitialization(t *testing.T) {
	providers, err := InitializeOTel(config.TelemetryConfig{
		Enabled:        true,
		ServiceName:    "cellviewer-test",
		ServiceVersion: "test",
		Environment:    "test",
	}, quietLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	assert.NotNil(t, providers.TracerProvider)
	assert.NotNil(t, providers.MeterProvider)
	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.PrometheusHTTP)

	metrics, err := CreateAnalysisMetrics(providers.Meter)
	require.NoError(t, err)

	ctx, span := providers.Tracer.Start(context.Background(), "analysis")
	metrics.RecordAnalysis(ctx, 1200, 15*time.Millisecond, nil)
	metrics.RecordAnalysis(ctx, 0, time.Millisecond, errors.New("bad csv"))
	metrics.FilesUploaded.Add(ctx, 2)
	metrics.RecordWebSocketClients(ctx, 1)
	metrics.RecordWebSocketMessage(ctx, "in", "preview")
	RecordError(ctx, errors.New("bad csv"))
	span.End()

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "analyses_total")
	assert.Contains(t, rec.Body.String(), "cells_processed_total")
	assert.Contains(t, rec.Body.String(), "files_uploaded_total")
	assert.Contains(t, rec.Body.String(), "websocket_messages_total")
}

func TestOTelDisabled(t *testing.T) {
	providers, err := InitializeOTel(config.TelemetryConfig{Enabled: false}, quietLogger())
	require.NoError(t, err)

	assert.Nil(t, providers.TracerProvider)
	assert.Nil(t, providers.PrometheusHTTP)

	metrics, err := CreateAnalysisMetrics(providers.Meter)
	require.NoError(t, err)
	metrics.RecordAnalysis(context.Background(), 10, time.Millisecond, nil)

	assert.NoError(t, providers.Shutdown(context.Background()))
}

func TestRecordAnalysisNilMetrics(t *testing.T) {
	var m *AnalysisMetrics
	assert.NotPanics(t, func() {
		m.RecordAnalysis(context.Background(), 1, time.Second, nil)
		m.RecordWebSocketClients(context.Background(), 1)
		m.RecordWebSocketMessage(context.Background(), "out", "error")
	})
}
