package sizing

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "sizingcli/internal/sizing"

// sweepMetrics are created against the global meter provider, which delegates
// to whatever provider the command installs later.
type sweepMetrics struct {
	sweeps          metric.Int64Counter
	gridPoints      metric.Int64Counter
	undefinedPoints metric.Int64Counter
	duration        metric.Float64Histogram
	optimizations   metric.Int64Counter
}

var (
	metricsOnce sync.Once
	metricsInst *sweepMetrics
)

func tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

func instruments() *sweepMetrics {
	metricsOnce.Do(func() {
		meter := otel.Meter(instrumentationName)
		m := &sweepMetrics{}
		// Creation only fails for malformed names; nil instruments are skipped below.
		m.sweeps, _ = meter.Int64Counter("sizing_sweeps_total",
			metric.WithDescription("Number of kappa grid sweeps evaluated"))
		m.gridPoints, _ = meter.Int64Counter("sizing_grid_points_total",
			metric.WithDescription("Number of expected-utility evaluations performed by sweeps"))
		m.undefinedPoints, _ = meter.Int64Counter("sizing_undefined_points_total",
			metric.WithDescription("Grid points where terminal wealth was not positive"))
		m.duration, _ = meter.Float64Histogram("sizing_sweep_duration_seconds",
			metric.WithDescription("Sweep duration in seconds"),
			metric.WithUnit("s"))
		m.optimizations, _ = meter.Int64Counter("sizing_optimizations_total",
			metric.WithDescription("Number of optimum refinements by outcome"))
		metricsInst = m
	})
	return metricsInst
}

func (m *sweepMetrics) recordSweep(ctx context.Context, model string, points, undefined int, seconds float64) {
	attrs := metric.WithAttributes(attribute.String("impact_model", model))
	if m.sweeps != nil {
		m.sweeps.Add(ctx, 1, attrs)
	}
	if m.gridPoints != nil {
		m.gridPoints.Add(ctx, int64(2*points), attrs)
	}
	if m.undefinedPoints != nil && undefined > 0 {
		m.undefinedPoints.Add(ctx, int64(undefined), attrs)
	}
	if m.duration != nil {
		m.duration.Record(ctx, seconds, attrs)
	}
}

func (m *sweepMetrics) recordOptimization(ctx context.Context, converged bool) {
	if m.optimizations != nil {
		m.optimizations.Add(ctx, 1, metric.WithAttributes(attribute.Bool("converged", converged)))
	}
}
