package app

import (
	"flag"
	"fmt"
	"strings"

	"sizingcli/internal/config"
	"sizingcli/internal/controls"
	apierrors "sizingcli/internal/errors"
)

// OutputFlags are the flags every command shares
type OutputFlags struct {
	ConfigPath string
	Dir        string
	Formats    string
	Plot       bool
	LogLevel   string
}

// Register adds the shared flags to fs
func (o *OutputFlags) Register(fs *flag.FlagSet) {
	fs.StringVar(&o.ConfigPath, "config", "", "YAML config file (defaults to $SIZING_CONFIG, sizing.yaml or configs/sizing.yaml)")
	fs.StringVar(&o.Dir, "out", "", "output directory for reports")
	fs.StringVar(&o.Formats, "format", "", "comma separated report formats: csv, json, xlsx")
	fs.BoolVar(&o.Plot, "plot", false, "draw text plots on stdout")
	fs.StringVar(&o.LogLevel, "log-level", "", "log level: debug, info, warn, error")
}

// LoadConfig loads configuration and lets explicitly set flags override it
func (o *OutputFlags) LoadConfig(fs *flag.FlagSet) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.ConfigPath != "" {
		cfg, err = config.LoadFile(o.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	set := Visited(fs)
	if set["out"] {
		cfg.Output.Dir = o.Dir
	}
	if set["format"] {
		cfg.Output.Formats = splitList(o.Formats)
	}
	if set["plot"] {
		cfg.Output.Plot = o.Plot
	}
	if set["log-level"] {
		cfg.Logging.Level = o.LogLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Visited returns the names of flags set on the command line
func Visited(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	return set
}

func splitList(list string) []string {
	var out []string
	for _, part := range strings.Split(list, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToLower(part))
		}
	}
	return out
}

// ControlFlags binds one float flag per control of a set
type ControlFlags struct {
	set    controls.Set
	values map[string]*float64
}

// NewControlFlags registers a flag for every control in set
func NewControlFlags(fs *flag.FlagSet, set controls.Set) *ControlFlags {
	cf := &ControlFlags{set: set, values: make(map[string]*float64)}
	for _, c := range set.Controls() {
		usage := fmt.Sprintf("%s, %g to %g", c.Description, c.Min, c.Max)
		cf.values[c.Name] = fs.Float64(c.Name, c.Default, usage)
	}
	return cf
}

// Apply returns the set with every explicitly set flag applied.
// All invalid values are reported together.
func (cf *ControlFlags) Apply(fs *flag.FlagSet) (controls.Set, error) {
	set := cf.set
	visited := Visited(fs)

	var failures []apierrors.ValidationError
	for _, c := range set.Controls() {
		if !visited[c.Name] {
			continue
		}
		next, err := set.With(c.Name, *cf.values[c.Name])
		if err != nil {
			fields := apierrors.Fields(err)
			if len(fields) == 0 {
				return cf.set, err
			}
			failures = append(failures, fields...)
			continue
		}
		set = next
	}
	if len(failures) > 0 {
		return cf.set, apierrors.NewValidationErrors(failures)
	}
	return set, nil
}
