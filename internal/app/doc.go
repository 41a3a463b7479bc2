// Package app provides command initialization and shutdown for the sizing CLIs.
// It wires configuration, logging and telemetry together so that every command
// gets the same run lifecycle.
//
// # Lifecycle
//
//	1. Load configuration from defaults, an optional YAML file and the environment
//	2. Build the slog logger and install telemetry providers
//	3. Attach a run trace id to the context and cancel it on SIGINT/SIGTERM
//	4. Run the command
//	5. Flush traces, write the metrics textfile and close log files
//
// # Usage
//
//	application, err := app.NewApplication("sizing", cfg, os.Stdout, os.Stderr)
//	if err != nil {
//	    os.Exit(app.ExitCode(err))
//	}
//	os.Exit(application.Run(func(ctx context.Context) error {
//	    return runSizing(ctx, application)
//	}))
package app
