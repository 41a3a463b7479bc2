package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"sizingcli/internal/app"
	"sizingcli/internal/controls"
	"sizingcli/internal/report"
	"sizingcli/internal/sizing"
)

type runOptions struct {
	Controls     controls.Set
	ImpactModel  string
	Optimize     bool
	ScenarioFile string
	Concurrency  int
}

// run sweeps either the controls or a scenario batch and prints the results
func run(ctx context.Context, a *app.Application, opts runOptions) error {
	reporter, err := a.Reporter()
	if err != nil {
		return err
	}
	sweeper := sizing.NewSweeper(a.Logger)

	if opts.ScenarioFile != "" {
		return runBatch(ctx, a, sweeper, reporter, opts)
	}

	problem := opts.Controls.Problem()
	problem.Impact, err = sizing.NewImpact(opts.ImpactModel, opts.Controls.Value("tau"))
	if err != nil {
		return err
	}
	grid := a.Config.SizingGrid()

	a.Logger.InfoContext(ctx, "sweeping sizing grid",
		slog.String("controls", opts.Controls.String()),
		slog.String("impact", opts.ImpactModel),
		slog.Int("grid_points", grid.Len()),
	)

	res, err := sweeper.Sweep(ctx, problem, grid)
	if err != nil {
		return err
	}

	var opt *sizing.Optimum
	if opts.Optimize {
		if opt, err = sweeper.Optimize(ctx, problem, grid); err != nil {
			return err
		}
	}

	if err := printSweep(a.Stdout, a, res, opt); err != nil {
		return err
	}

	paths, err := reporter.SaveSweep(ctx, reportName("sizing"), res, opt)
	if err != nil {
		return err
	}
	return printPaths(a.Stdout, paths)
}

func runBatch(ctx context.Context, a *app.Application, sweeper *sizing.Sweeper, reporter *report.Reporter, opts runOptions) error {
	scenarios, fileGrid, err := sizing.LoadScenarios(opts.ScenarioFile)
	if err != nil {
		return err
	}
	grid := a.Config.SizingGrid()
	if fileGrid != nil {
		grid = *fileGrid
	}

	results, err := sweeper.SweepBatch(ctx, scenarios, grid, sizing.BatchOptions{
		MaxConcurrency: opts.Concurrency,
		Optimize:       opts.Optimize,
	})
	if err != nil {
		return err
	}

	if a.Config.Output.Plot {
		for _, r := range results {
			if _, err := fmt.Fprintf(a.Stdout, "[%s]\n", r.Name); err != nil {
				return err
			}
			if err := report.PlotSweep(a.Stdout, r.Sweep, a.Config.Output.PlotWidth, a.Config.Output.PlotHeight); err != nil {
				return err
			}
		}
	}
	if err := report.WriteBatchSummary(a.Stdout, results); err != nil {
		return err
	}

	var paths []string
	for _, r := range results {
		written, err := reporter.SaveSweep(ctx, r.Name, r.Sweep, r.Optimum)
		if err != nil {
			return fmt.Errorf("scenario %q: %w", r.Name, err)
		}
		paths = append(paths, written...)
	}
	return printPaths(a.Stdout, paths)
}

func printSweep(w io.Writer, a *app.Application, res *sizing.SweepResult, opt *sizing.Optimum) error {
	if a.Config.Output.Plot {
		if err := report.PlotSweep(w, res, a.Config.Output.PlotWidth, a.Config.Output.PlotHeight); err != nil {
			return err
		}
	}
	if err := report.WriteSummary(w, report.SummaryOf(res)); err != nil {
		return err
	}
	if opt != nil {
		return report.WriteOptimum(w, opt)
	}
	return nil
}

func printPaths(w io.Writer, paths []string) error {
	for _, p := range paths {
		if _, err := fmt.Fprintf(w, "Report written: %s\n", p); err != nil {
			return err
		}
	}
	return nil
}

func reportName(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, time.Now().Format("20060102_150405"))
}
