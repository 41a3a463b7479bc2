package infrastructure

import (
	"context"
	"runtime"

	"go.opentelemetry.io/otel/metric"
)

// RuntimeMetrics records Go runtime state at the end of a run
type RuntimeMetrics struct {
	goroutines metric.Int64Gauge
	heapAlloc  metric.Int64Gauge
	totalAlloc metric.Int64Gauge
	gcCount    metric.Int64Gauge
	gcPause    metric.Float64Gauge
}

// NewRuntimeMetrics creates the runtime gauges on meter
func NewRuntimeMetrics(meter metric.Meter) (*RuntimeMetrics, error) {
	goroutines, err := meter.Int64Gauge(
		"system_goroutines",
		metric.WithDescription("Number of live goroutines"),
	)
	if err != nil {
		return nil, err
	}

	heapAlloc, err := meter.Int64Gauge(
		"system_memory_heap_alloc_bytes",
		metric.WithDescription("Bytes of allocated heap objects"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	totalAlloc, err := meter.Int64Gauge(
		"system_memory_total_alloc_bytes",
		metric.WithDescription("Cumulative bytes allocated for heap objects"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	gcCount, err := meter.Int64Gauge(
		"system_gc_count",
		metric.WithDescription("Number of completed GC cycles"),
	)
	if err != nil {
		return nil, err
	}

	gcPause, err := meter.Float64Gauge(
		"system_gc_pause_total_seconds",
		metric.WithDescription("Cumulative GC stop-the-world pause"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &RuntimeMetrics{
		goroutines: goroutines,
		heapAlloc:  heapAlloc,
		totalAlloc: totalAlloc,
		gcCount:    gcCount,
		gcPause:    gcPause,
	}, nil
}

// Collect samples the runtime once
func (rm *RuntimeMetrics) Collect(ctx context.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	rm.goroutines.Record(ctx, int64(runtime.NumGoroutine()))
	rm.heapAlloc.Record(ctx, int64(m.HeapAlloc))
	rm.totalAlloc.Record(ctx, int64(m.TotalAlloc))
	rm.gcCount.Record(ctx, int64(m.NumGC))
	rm.gcPause.Record(ctx, float64(m.PauseTotalNs)/1e9)
}
