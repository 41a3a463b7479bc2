// Package config loads the configuration shared by the sizing, payout and
// explore commands.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. The YAML file named by SIZING_CONFIG, else sizing.yaml or configs/sizing.yaml
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern SIZING_<SECTION>_<FIELD>:
//
//	SIZING_LOGGING_LEVEL=debug
//	SIZING_GRID_STEP=0.025
//	SIZING_OUTPUT_FORMATS=csv,xlsx
//	SIZING_TELEMETRY_TRACES=stdout
//	SIZING_TELEMETRY_METRICS_FILE=metrics.prom
//
// # File Format
//
//	logging:
//	  level: info
//	  output: both
//	  file_path: logs/sizing.log
//	grid:
//	  step: 0.02
//	  upper: 1
//	output:
//	  dir: output
//	  formats: [csv, xlsx]
//	telemetry:
//	  traces: stdout
//	  trace_file: traces.json
//
// Command line flags override all of the above.
package config
