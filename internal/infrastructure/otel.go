package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"

	"sizingcli/internal/config"
)

const (
	ServiceVersion = "1.0.0"
	MeterName      = "sizingcli"
)

// Telemetry holds the providers installed for one command run
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	Registry       *promclient.Registry
	Runtime        *RuntimeMetrics

	metricsFile string
	traceOut    io.Closer
	runDuration promclient.Gauge
	started     time.Time
	logger      *slog.Logger
}

// InitializeTelemetry installs a tracer provider exporting to stdout or a file
// and, when a metrics file is configured, a meter provider backed by a private
// Prometheus registry that is written out on Shutdown.
// traceWriter receives spans when no trace file is configured.
func InitializeTelemetry(cfg config.TelemetryConfig, command string, traceWriter io.Writer, logger *slog.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ctx := context.Background()

	res, err := createResource(cfg.ServiceName, command)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	t := &Telemetry{
		metricsFile: cfg.MetricsFile,
		started:     time.Now(),
		logger:      logger.With(slog.String("component", "telemetry")),
	}

	if err := t.initializeTracing(cfg, traceWriter, res); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	if cfg.MetricsFile != "" {
		if err := t.initializeMetrics(command, res); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	t.logger.DebugContext(ctx, "telemetry initialized",
		slog.String("traces", cfg.Traces),
		slog.String("trace_file", cfg.TraceFile),
		slog.String("metrics_file", cfg.MetricsFile),
	)
	return t, nil
}

// createResource creates the OpenTelemetry resource
func createResource(serviceName, command string) (*resource.Resource, error) {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(ServiceVersion),
		attribute.String("sizing.command", command),
	), nil
}

// initializeTracing sets up OpenTelemetry tracing
func (t *Telemetry) initializeTracing(cfg config.TelemetryConfig, w io.Writer, res *resource.Resource) error {
	switch cfg.Traces {
	case "", "none":
		// No exporter, spans are dropped by the global no-op provider
		t.Tracer = otel.Tracer(MeterName)
		return nil
	case "stdout":
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.Traces)
	}

	if cfg.TraceFile != "" {
		file, err := openLogFile(cfg.TraceFile)
		if err != nil {
			return err
		}
		t.traceOut = file
		w = file
	}
	if w == nil {
		w = os.Stderr
	}

	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(w),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	t.TracerProvider = tp
	t.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(ServiceVersion))

	// Set global tracer provider
	otel.SetTracerProvider(tp)
	return nil
}

// initializeMetrics sets up OpenTelemetry metrics on a private registry
func (t *Telemetry) initializeMetrics(command string, res *resource.Resource) error {
	t.Registry = promclient.NewRegistry()

	exporter, err := prometheus.New(prometheus.WithRegisterer(t.Registry))
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	t.MeterProvider = mp
	t.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(ServiceVersion))
	otel.SetMeterProvider(mp)

	t.runDuration = promclient.NewGauge(promclient.GaugeOpts{
		Name:        "sizingcli_run_duration_seconds",
		Help:        "Wall time of the command run",
		ConstLabels: promclient.Labels{"command": command},
	})
	if err := t.Registry.Register(t.runDuration); err != nil {
		return fmt.Errorf("register run duration: %w", err)
	}

	t.Runtime, err = NewRuntimeMetrics(t.Meter)
	if err != nil {
		return fmt.Errorf("create runtime metrics: %w", err)
	}
	return nil
}

// Shutdown writes the metrics textfile, then flushes and stops both providers
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error

	if t.Registry != nil {
		if t.Runtime != nil {
			t.Runtime.Collect(ctx)
		}
		t.runDuration.Set(time.Since(t.started).Seconds())
		if err := promclient.WriteToTextfile(t.metricsFile, t.Registry); err != nil {
			errs = append(errs, fmt.Errorf("write metrics textfile: %w", err))
		} else {
			t.logger.DebugContext(ctx, "metrics written", slog.String("path", t.metricsFile))
		}
	}

	if t.MeterProvider != nil {
		if err := t.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}
	if t.TracerProvider != nil {
		if err := t.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}
	if t.traceOut != nil {
		if err := t.traceOut.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close trace file: %w", err))
		}
	}

	return errors.Join(errs...)
}

// TraceIDFromContext extracts the OpenTelemetry trace id of the active span
func TraceIDFromContext(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

// RecordError records err on the active span and marks it failed
func RecordError(ctx context.Context, err error, options ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() || err == nil {
		return
	}
	span.RecordError(err, options...)
	span.SetStatus(codes.Error, err.Error())
}
