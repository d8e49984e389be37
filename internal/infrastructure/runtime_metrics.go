package infrastructure

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// RuntimeMetrics records Go runtime gauges for the process
type RuntimeMetrics struct {
	goroutines metric.Int64Gauge
	heapBytes  metric.Int64Gauge
	sysBytes   metric.Int64Gauge
	gcPause    metric.Float64Histogram
	uptime     metric.Float64Gauge

	startTime time.Time
	lastGC    uint32
}

// RuntimeSnapshot is one reading of the runtime
type RuntimeSnapshot struct {
	Goroutines  int
	HeapBytes   uint64
	SysBytes    uint64
	NumGC       uint32
	LastGCPause time.Duration
	Uptime      time.Duration
}

// NewRuntimeMetrics registers the runtime instruments on meter
func NewRuntimeMetrics(meter metric.Meter) (*RuntimeMetrics, error) {
	goroutines, err := meter.Int64Gauge("runtime_goroutines",
		metric.WithDescription("Number of live goroutines"))
	if err != nil {
		return nil, err
	}
	heapBytes, err := meter.Int64Gauge("runtime_heap_alloc_bytes",
		metric.WithDescription("Bytes of allocated heap objects"),
		metric.WithUnit("By"))
	if err != nil {
		return nil, err
	}
	sysBytes, err := meter.Int64Gauge("runtime_sys_bytes",
		metric.WithDescription("Bytes obtained from the OS"),
		metric.WithUnit("By"))
	if err != nil {
		return nil, err
	}
	gcPause, err := meter.Float64Histogram("runtime_gc_pause_seconds",
		metric.WithDescription("Garbage collection pause duration"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	uptime, err := meter.Float64Gauge("process_uptime_seconds",
		metric.WithDescription("Process uptime"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return &RuntimeMetrics{
		goroutines: goroutines,
		heapBytes:  heapBytes,
		sysBytes:   sysBytes,
		gcPause:    gcPause,
		uptime:     uptime,
		startTime:  time.Now(),
	}, nil
}

// Collect reads the runtime and records it. A GC pause is recorded only
// when a collection ran since the previous call.
func (m *RuntimeMetrics) Collect(ctx context.Context) RuntimeSnapshot {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	snap := RuntimeSnapshot{
		Goroutines:  runtime.NumGoroutine(),
		HeapBytes:   ms.HeapAlloc,
		SysBytes:    ms.Sys,
		NumGC:       ms.NumGC,
		LastGCPause: time.Duration(ms.PauseNs[(ms.NumGC+255)%256]),
		Uptime:      time.Since(m.startTime),
	}

	m.goroutines.Record(ctx, int64(snap.Goroutines))
	m.heapBytes.Record(ctx, int64(snap.HeapBytes))
	m.sysBytes.Record(ctx, int64(snap.SysBytes))
	m.uptime.Record(ctx, snap.Uptime.Seconds())
	if snap.NumGC != m.lastGC {
		m.gcPause.Record(ctx, snap.LastGCPause.Seconds())
		m.lastGC = snap.NumGC
	}
	return snap
}

// RuntimeCollector collects RuntimeMetrics on an interval
type RuntimeCollector struct {
	metrics  *RuntimeMetrics
	interval time.Duration
	stop     chan struct{}
	once     sync.Once
}

// NewRuntimeCollector creates a collector for meter
func NewRuntimeCollector(meter metric.Meter, interval time.Duration) (*RuntimeCollector, error) {
	metrics, err := NewRuntimeMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("create runtime metrics: %w", err)
	}
	return &RuntimeCollector{
		metrics:  metrics,
		interval: interval,
		stop:     make(chan struct{}),
	}, nil
}

// Start collects until Stop is called or ctx is done. It blocks.
func (c *RuntimeCollector) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.metrics.Collect(ctx)
	for {
		select {
		case <-ticker.C:
			c.metrics.Collect(ctx)
		case <-c.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop ends collection. It is safe to call more than once.
func (c *RuntimeCollector) Stop() {
	c.once.Do(func() { close(c.stop) })
}
