package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"sizingcli/internal/app"
	"sizingcli/internal/controls"
	"sizingcli/internal/merton"
)

func main() {
	fs := flag.NewFlagSet("payout", flag.ExitOnError)

	var output app.OutputFlags
	output.Register(fs)
	controlFlags := app.NewControlFlags(fs, controls.PayoutControls())

	defaults := merton.DefaultMuGrid()
	muMin := fs.Float64("mu-min", defaults.Min, "lowest expected return of the sweep")
	muMax := fs.Float64("mu-max", defaults.Max, "highest expected return of the sweep")
	muPoints := fs.Int("mu-points", defaults.Points, "number of expected return points")
	fs.Parse(os.Args[1:])

	cfg, err := output.LoadConfig(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(app.ExitCode(err))
	}
	visited := app.Visited(fs)
	if visited["mu-min"] {
		cfg.Grid.MuMin = *muMin
	}
	if visited["mu-max"] {
		cfg.Grid.MuMax = *muMax
	}
	if visited["mu-points"] {
		cfg.Grid.MuPoints = *muPoints
	}

	set, err := controlFlags.Apply(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(app.ExitCode(err))
	}

	application, err := app.NewApplication("payout", cfg, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(app.ExitCode(err))
	}

	os.Exit(application.Run(func(ctx context.Context) error {
		return run(ctx, application, set)
	}))
}
