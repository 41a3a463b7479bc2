package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apierrors "sizingcli/internal/errors"
	"sizingcli/internal/merton"
	"sizingcli/internal/sizing"
	"sizingcli/internal/validation"
)

// EnvPrefix namespaces every environment variable, e.g. SIZING_LOGGING_LEVEL
const EnvPrefix = "SIZING"

// Config represents the complete command line configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" json:"logging" envconfig:"LOGGING"`
	Grid      GridConfig      `yaml:"grid" json:"grid" envconfig:"GRID"`
	Output    OutputConfig    `yaml:"output" json:"output" envconfig:"OUTPUT"`
	Telemetry TelemetryConfig `yaml:"telemetry" json:"telemetry" envconfig:"TELEMETRY"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" json:"level" envconfig:"LEVEL" validate:"oneof=debug info warn error"`
	Format      string `yaml:"format" json:"format" envconfig:"FORMAT" validate:"oneof=json text"`
	Output      string `yaml:"output" json:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath    string `yaml:"file_path" json:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
	Development bool   `yaml:"development" json:"development" envconfig:"DEVELOPMENT"`
}

// GridConfig contains the κ grid of the sizing experiment and the μ grid of
// the payout experiment
type GridConfig struct {
	Step     float64 `yaml:"step" json:"step" envconfig:"STEP" validate:"gt=0,lte=1"`
	Upper    float64 `yaml:"upper" json:"upper" envconfig:"UPPER" validate:"gt=0,lte=1"`
	MuMin    float64 `yaml:"mu_min" json:"mu_min" envconfig:"MU_MIN" validate:"finite"`
	MuMax    float64 `yaml:"mu_max" json:"mu_max" envconfig:"MU_MAX" validate:"finite,gtfield=MuMin"`
	MuPoints int     `yaml:"mu_points" json:"mu_points" envconfig:"MU_POINTS" validate:"gte=2,lte=100000"`
}

// OutputConfig contains report output configuration
type OutputConfig struct {
	Dir        string   `yaml:"dir" json:"dir" envconfig:"DIR" validate:"required"`
	Formats    []string `yaml:"formats" json:"formats" envconfig:"FORMATS" validate:"dive,oneof=csv json xlsx"`
	Plot       bool     `yaml:"plot" json:"plot" envconfig:"PLOT"`
	PlotWidth  int      `yaml:"plot_width" json:"plot_width" envconfig:"PLOT_WIDTH" validate:"gte=8,lte=400"`
	PlotHeight int      `yaml:"plot_height" json:"plot_height" envconfig:"PLOT_HEIGHT" validate:"gte=4,lte=200"`
}

// TelemetryConfig contains tracing and metrics configuration
type TelemetryConfig struct {
	ServiceName string `yaml:"service_name" json:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	Traces      string `yaml:"traces" json:"traces" envconfig:"TRACES" validate:"oneof=stdout none"`
	TraceFile   string `yaml:"trace_file" json:"trace_file" envconfig:"TRACE_FILE"`
	MetricsFile string `yaml:"metrics_file" json:"metrics_file" envconfig:"METRICS_FILE"`
}

// Load loads configuration from defaults, the first config file found and
// environment variables, in increasing order of precedence
func Load() (*Config, error) {
	return LoadFile(getConfigFilePath())
}

// LoadFile is Load with an explicit config file; an empty path skips the file
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, apierrors.Wrap(apierrors.CodeConfig, "load config from file", err)
		}
	}

	// Fields without a matching variable keep the file or default value
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apierrors.Wrap(apierrors.CodeConfig, "load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	slog.Debug("configuration loaded",
		slog.String("file", path),
		slog.String("log_level", cfg.Logging.Level),
		slog.String("output_dir", cfg.Output.Dir),
	)
	return cfg, nil
}

// loadFromFile overlays the YAML file at filePath onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	if err := validation.NewFileValidator(nil).ValidateYAMLFile(filePath); err != nil {
		return err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return err
	}
	if err := c.SizingGrid().Validate(); err != nil {
		return err
	}
	return nil
}

// SizingGrid returns the configured κ grid
func (c *Config) SizingGrid() sizing.Grid {
	return sizing.Grid{Step: c.Grid.Step, Upper: c.Grid.Upper}
}

// MuGrid returns the configured μ grid
func (c *Config) MuGrid() merton.MuGrid {
	return merton.MuGrid{Min: c.Grid.MuMin, Max: c.Grid.MuMax, Points: c.Grid.MuPoints}
}

// EnsureDirectories creates the output directory
func (c *Config) EnsureDirectories() error {
	return validation.NewFileValidator(nil).ValidateOutputDirectory(c.Output.Dir)
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if path := os.Getenv(EnvPrefix + "_CONFIG"); path != "" {
		return path
	}

	// Check for config file in common locations
	locations := []string{
		"sizing.yaml",
		"configs/sizing.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	mu := merton.DefaultMuGrid()
	return &Config{
		Logging: LoggingConfig{
			Level:    "warn",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/sizing.log",
		},
		Grid: GridConfig{
			Step:     sizing.DefaultStep,
			Upper:    sizing.DefaultUpper,
			MuMin:    mu.Min,
			MuMax:    mu.Max,
			MuPoints: mu.Points,
		},
		Output: OutputConfig{
			Dir:        "output",
			PlotWidth:  64,
			PlotHeight: 18,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "sizingcli",
			Traces:      "none",
		},
	}
}
