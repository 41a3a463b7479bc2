package report

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apierrors "sizingcli/internal/errors"
	"sizingcli/internal/merton"
	"sizingcli/internal/sizing"
)

// Format is an output file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// ParseFormats parses a comma separated list such as "csv,xlsx".
// Duplicates are dropped and an empty list yields nil.
func ParseFormats(list string) ([]Format, error) {
	var formats []Format
	seen := make(map[Format]bool)
	for _, part := range strings.Split(list, ",") {
		f := Format(strings.ToLower(strings.TrimSpace(part)))
		if f == "" || seen[f] {
			continue
		}
		switch f {
		case FormatCSV, FormatJSON, FormatXLSX:
		default:
			return nil, apierrors.NewWithDetails(apierrors.CodeInvalidParameter,
				fmt.Sprintf("unknown output format %q", part),
				apierrors.ValidationError{Field: "format", Message: "must be one of: csv, json, xlsx", Value: part})
		}
		seen[f] = true
		formats = append(formats, f)
	}
	return formats, nil
}

// Reporter writes results into an output directory in every configured format
type Reporter struct {
	dir     string
	formats []Format
	runID   string
	logger  *slog.Logger
}

// NewReporter creates a reporter writing to dir
func NewReporter(dir string, formats []Format, runID string, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reporter{
		dir:     dir,
		formats: formats,
		runID:   runID,
		logger:  logger.With(slog.String("component", "reporter")),
	}
}

// SaveSweep writes res (and opt when not nil) as <dir>/<name>.<format>
// and returns the written paths
func (r *Reporter) SaveSweep(ctx context.Context, name string, res *sizing.SweepResult, opt *sizing.Optimum) ([]string, error) {
	return r.save(ctx, name, func(format Format, path string) error {
		switch format {
		case FormatCSV:
			return writeFile(path, func(w io.Writer) error { return WriteSweepCSV(w, res) })
		case FormatJSON:
			return writeFile(path, func(w io.Writer) error { return EncodeSweepJSON(w, res, opt, r.runID) })
		default:
			return SaveSweepXLSX(path, res, opt)
		}
	})
}

// SaveCurve writes c as <dir>/<name>.<format> and returns the written paths
func (r *Reporter) SaveCurve(ctx context.Context, name string, c *merton.Curve) ([]string, error) {
	return r.save(ctx, name, func(format Format, path string) error {
		switch format {
		case FormatCSV:
			return writeFile(path, func(w io.Writer) error { return WriteCurveCSV(w, c) })
		case FormatJSON:
			return writeFile(path, func(w io.Writer) error { return EncodeCurveJSON(w, c, r.runID) })
		default:
			return SaveCurveXLSX(path, c)
		}
	})
}

func (r *Reporter) save(ctx context.Context, name string, write func(Format, string) error) ([]string, error) {
	if len(r.formats) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return nil, apierrors.Wrap(apierrors.CodeIO, "create output directory", err)
	}

	paths := make([]string, 0, len(r.formats))
	for _, format := range r.formats {
		path := filepath.Join(r.dir, fmt.Sprintf("%s.%s", name, format))
		if err := write(format, path); err != nil {
			return paths, apierrors.Wrap(apierrors.CodeIO, fmt.Sprintf("write %s report", format), err)
		}
		r.logger.InfoContext(ctx, "report written",
			slog.String("format", string(format)),
			slog.String("path", path),
		)
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, encode func(io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := encode(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
