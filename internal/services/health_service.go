package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"cellviewer/internal/storage"
)

// ClientCounter reports the number of connected websocket clients
type ClientCounter interface {
	ClientCount() int
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	store     storage.Store
	clients   ClientCounter
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// SystemStats represents stored data and runtime statistics
type SystemStats struct {
	UptimeSeconds    float64 `json:"uptime_seconds"`
	Files            int     `json:"files"`
	StoredBytes      int64   `json:"stored_bytes"`
	Jobs             int     `json:"jobs"`
	WebSocketClients int     `json:"websocket_clients"`
	GoVersion        string  `json:"go_version"`
	OS               string  `json:"os"`
	Arch             string  `json:"arch"`
}

// NewHealthService creates a new health service. clients may be nil.
func NewHealthService(version string, store storage.Store, clients ClientCounter, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		store:     store,
		clients:   clients,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "health check",
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck reports whether storage answers queries
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services:  map[string]ServiceHealth{"storage": hs.checkStorage(ctx)},
	}
	for _, s := range status.Services {
		if s.Status != "ready" {
			status.Status = "not_ready"
		}
	}
	return status
}

// LivenessCheck returns liveness status with runtime details
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// SystemStats returns statistics about stored data
func (hs *HealthService) SystemStats(ctx context.Context) (SystemStats, error) {
	files, err := hs.store.ListFiles(ctx)
	if err != nil {
		return SystemStats{}, fmt.Errorf("list files: %w", err)
	}
	jobs, err := hs.store.ListJobs(ctx)
	if err != nil {
		return SystemStats{}, fmt.Errorf("list jobs: %w", err)
	}

	stats := SystemStats{
		UptimeSeconds: time.Since(hs.startTime).Seconds(),
		Files:         len(files),
		Jobs:          len(jobs),
		GoVersion:     runtime.Version(),
		OS:            runtime.GOOS,
		Arch:          runtime.GOARCH,
	}
	for _, f := range files {
		stats.StoredBytes += f.Size
	}
	if hs.clients != nil {
		stats.WebSocketClients = hs.clients.ClientCount()
	}
	return stats, nil
}

func (hs *HealthService) checkStorage(ctx context.Context) ServiceHealth {
	if hs.store == nil {
		return ServiceHealth{Status: "not_ready", Message: "storage not initialized"}
	}
	if _, err := hs.store.ListJobs(ctx); err != nil {
		return ServiceHealth{Status: "not_ready", Message: fmt.Sprintf("storage error: %v", err)}
	}
	return ServiceHealth{Status: "ready", Message: "storage is healthy"}
}
