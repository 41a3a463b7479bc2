package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"sizingcli/internal/app"
	"sizingcli/internal/controls"
	"sizingcli/internal/session"
)

func main() {
	fs := flag.NewFlagSet("explore", flag.ExitOnError)

	var output app.OutputFlags
	output.Register(fs)
	mode := fs.String("mode", controls.ModeSizing, "starting experiment: sizing or payout")
	fs.Parse(os.Args[1:])

	cfg, err := output.LoadConfig(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(app.ExitCode(err))
	}

	application, err := app.NewApplication("explore", cfg, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(app.ExitCode(err))
	}

	os.Exit(application.Run(func(ctx context.Context) error {
		s, err := session.New(application.Stdout, session.Options{
			Mode:       *mode,
			Grid:       cfg.SizingGrid(),
			MuGrid:     cfg.MuGrid(),
			PlotWidth:  cfg.Output.PlotWidth,
			PlotHeight: cfg.Output.PlotHeight,
			Logger:     application.Logger,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(application.Stdout, "Type help for commands.")
		return s.Run(ctx, os.Stdin)
	}))
}
