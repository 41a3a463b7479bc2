package app

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"sizingcli/internal/config"
	apierrors "sizingcli/internal/errors"
	"sizingcli/internal/infrastructure"
	"sizingcli/internal/report"
)

const (
	AppName = "sizingcli"

	shutdownTimeout = 5 * time.Second
)

var (
	// Version is set at link time by build.go
	Version = "dev"
	// BuildID is a short identifier for this build
	BuildID = generateBuildID()
)

func generateBuildID() string {
	h := sha256.New()
	h.Write([]byte(Version))
	h.Write([]byte(time.Now().Format("2006-01-02")))
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}

// Application holds what one command run needs
type Application struct {
	Command     string
	Config      *config.Config
	Logger      *slog.Logger
	Telemetry   *infrastructure.Telemetry
	RunID       string
	// SpanTraceID is the OpenTelemetry trace id of the last Run, empty when
	// tracing is off
	SpanTraceID string
	Stdout      io.Writer
	Stderr      io.Writer

	logFile *os.File
}

// NewApplication builds the logger and telemetry for command from cfg.
// Results go to stdout; logs and traces go to stderr unless cfg names files.
func NewApplication(command string, cfg *config.Config, stdout, stderr io.Writer) (*Application, error) {
	logger, logFile, err := infrastructure.NewLogger(cfg.Logging, stderr)
	if err != nil {
		return nil, apierrors.Wrap(apierrors.CodeConfig, "failed to initialize logger", err)
	}
	slog.SetDefault(logger)

	tel, err := infrastructure.InitializeTelemetry(cfg.Telemetry, command, stderr, logger)
	if err != nil {
		if logFile != nil {
			logFile.Close()
		}
		return nil, apierrors.Wrap(apierrors.CodeConfig, "failed to initialize telemetry", err)
	}

	a := &Application{
		Command:   command,
		Config:    cfg,
		Logger:    infrastructure.WithComponent(logger, command),
		Telemetry: tel,
		RunID:     infrastructure.GenerateTraceID(),
		Stdout:    stdout,
		Stderr:    stderr,
		logFile:   logFile,
	}

	a.Logger.Debug("command starting",
		slog.String("name", AppName),
		slog.String("version", Version),
		slog.String("build_id", BuildID),
		slog.String("run_id", a.RunID),
	)
	return a, nil
}

// Reporter returns a reporter for the configured output directory and formats
func (a *Application) Reporter() (*report.Reporter, error) {
	formats, err := report.ParseFormats(strings.Join(a.Config.Output.Formats, ","))
	if err != nil {
		return nil, err
	}
	if len(formats) > 0 {
		if err := a.Config.EnsureDirectories(); err != nil {
			return nil, err
		}
	}
	return report.NewReporter(a.Config.Output.Dir, formats, a.RunID, a.Logger), nil
}

// Run executes fn under a root span with the run trace id attached, shuts
// telemetry down and returns the process exit code
func (a *Application) Run(fn func(ctx context.Context) error) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx = infrastructure.WithTraceID(ctx, a.RunID)
	ctx, span := a.Telemetry.Tracer.Start(ctx, a.Command)
	if a.SpanTraceID = infrastructure.TraceIDFromContext(ctx); a.SpanTraceID != "" {
		a.Logger = a.Logger.With(slog.String("otel_trace_id", a.SpanTraceID))
	}

	start := time.Now()
	err := fn(ctx)
	if err != nil {
		infrastructure.RecordError(ctx, err)
	}
	span.End()

	if closeErr := a.Close(); closeErr != nil {
		a.Logger.WarnContext(ctx, "shutdown incomplete", slog.String("error", closeErr.Error()))
	}

	if err != nil {
		return a.Fail(ctx, err)
	}
	a.Logger.InfoContext(ctx, "command completed", slog.Duration("duration", time.Since(start)))
	return 0
}

// Fail logs err, prints it to stderr and returns its exit code
func (a *Application) Fail(ctx context.Context, err error) int {
	if errors.Is(err, context.Canceled) {
		a.Logger.WarnContext(ctx, "command interrupted")
		fmt.Fprintln(a.Stderr, "interrupted")
		return 130
	}

	infrastructure.WithError(a.Logger, err).ErrorContext(ctx, "command failed",
		slog.String("code", string(apierrors.CodeOf(err))),
	)
	fmt.Fprintf(a.Stderr, "error: %v\n", err)
	for _, fe := range apierrors.Fields(err) {
		fmt.Fprintf(a.Stderr, "  %s\n", fe.Error())
	}
	return apierrors.ExitCode(err)
}

// Close flushes telemetry and closes the log file
func (a *Application) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if a.Telemetry != nil {
		if err := a.Telemetry.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
		a.Telemetry = nil
	}
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close log file: %w", err))
		}
		a.logFile = nil
	}
	return errors.Join(errs...)
}

// ExitCode maps a startup error to a process exit code
func ExitCode(err error) int {
	return apierrors.ExitCode(err)
}
