package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"sizingcli/internal/app"
	"sizingcli/internal/controls"
	"sizingcli/internal/merton"
	"sizingcli/internal/report"
)

// run solves the payout curve for the controls and prints it
func run(ctx context.Context, a *app.Application, set controls.Set) error {
	reporter, err := a.Reporter()
	if err != nil {
		return err
	}

	grid := a.Config.MuGrid()
	a.Logger.InfoContext(ctx, "solving payout curve",
		slog.String("controls", set.String()),
		slog.Int("mu_points", grid.Points),
	)

	curve, err := merton.NewSolver(a.Logger).Solve(ctx, grid, set.Params())
	if err != nil {
		return err
	}

	if a.Config.Output.Plot {
		if err := report.PlotCurve(a.Stdout, curve, a.Config.Output.PlotWidth, a.Config.Output.PlotHeight); err != nil {
			return err
		}
	}
	if err := report.WriteCurveSummary(a.Stdout, curve); err != nil {
		return err
	}

	paths, err := reporter.SaveCurve(ctx, fmt.Sprintf("payout_%s", time.Now().Format("20060102_150405")), curve)
	if err != nil {
		return err
	}
	for _, p := range paths {
		if _, err := fmt.Fprintf(a.Stdout, "Report written: %s\n", p); err != nil {
			return err
		}
	}
	return nil
}
