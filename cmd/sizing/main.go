package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"sizingcli/internal/app"
	"sizingcli/internal/controls"
	"sizingcli/internal/sizing"
)

func main() {
	fs := flag.NewFlagSet("sizing", flag.ExitOnError)

	var output app.OutputFlags
	output.Register(fs)
	controlFlags := app.NewControlFlags(fs, controls.SizingControls())

	impactModel := fs.String("impact", sizing.ModelLinear, "impact model: linear or sqrt")
	step := fs.Float64("step", sizing.DefaultStep, "kappa grid step")
	optimize := fs.Bool("optimize", false, "refine the optimal sizing with Nelder-Mead")
	scenarios := fs.String("scenarios", "", "YAML file of scenarios to sweep as a batch")
	concurrency := fs.Int("concurrency", 0, "scenarios evaluated at once (0 uses GOMAXPROCS)")
	fs.Parse(os.Args[1:])

	cfg, err := output.LoadConfig(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(app.ExitCode(err))
	}
	if app.Visited(fs)["step"] {
		cfg.Grid.Step = *step
	}

	set, err := controlFlags.Apply(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(app.ExitCode(err))
	}

	application, err := app.NewApplication("sizing", cfg, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(app.ExitCode(err))
	}

	opts := runOptions{
		Controls:     set,
		ImpactModel:  *impactModel,
		Optimize:     *optimize,
		ScenarioFile: *scenarios,
		Concurrency:  *concurrency,
	}
	os.Exit(application.Run(func(ctx context.Context) error {
		return run(ctx, application, opts)
	}))
}
