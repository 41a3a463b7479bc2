// Package controls models the bounded numeric inputs of the sizing and payout
// experiments. A Set is a value: Apply returns a modified copy.
package controls

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	apierrors "sizingcli/internal/errors"
	"sizingcli/internal/merton"
	"sizingcli/internal/sizing"
)

// snapScale removes representation error left by stepping, so 1.01 + 99·0.01 reads as 2
const snapScale = 1e9

// Control is one bounded input
type Control struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Step        float64 `json:"step"`
	Default     float64 `json:"default"`
}

// Snap clamps v to [Min, Max] and rounds it to the nearest multiple of Step from Min
func (c Control) Snap(v float64) float64 {
	if v < c.Min {
		v = c.Min
	}
	if v > c.Max {
		v = c.Max
	}
	if c.Step > 0 {
		n := math.Round((v - c.Min) / c.Step)
		v = math.Round((c.Min+n*c.Step)*snapScale) / snapScale
		if v > c.Max {
			v = c.Max
		}
	}
	return v
}

// Contains reports whether v lies inside the control's range
func (c Control) Contains(v float64) bool {
	return v >= c.Min && v <= c.Max
}

// Set is an ordered list of controls and their current values
type Set struct {
	name     string
	controls []Control
	values   map[string]float64
}

// NewSet builds a set with every control at its default
func NewSet(name string, controls ...Control) Set {
	s := Set{
		name:     name,
		controls: append([]Control(nil), controls...),
		values:   make(map[string]float64, len(controls)),
	}
	for _, c := range controls {
		s.values[c.Name] = c.Default
	}
	return s
}

// Name returns the experiment the set belongs to
func (s Set) Name() string {
	return s.name
}

// Controls returns the controls in display order
func (s Set) Controls() []Control {
	return append([]Control(nil), s.controls...)
}

// Control looks up a control by name
func (s Set) Control(name string) (Control, bool) {
	for _, c := range s.controls {
		if c.Name == name {
			return c, true
		}
	}
	return Control{}, false
}

// Value returns the current value of a control, or NaN if it does not exist
func (s Set) Value(name string) float64 {
	v, ok := s.values[name]
	if !ok {
		return math.NaN()
	}
	return v
}

// Values returns a copy of the current values
func (s Set) Values() map[string]float64 {
	out := make(map[string]float64, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// With returns a copy of s with control name set to v.
// Values outside the control's range are rejected; accepted values snap to the step.
func (s Set) With(name string, v float64) (Set, error) {
	c, ok := s.Control(name)
	if !ok {
		return s, apierrors.NewWithDetails(apierrors.CodeUnknownControl,
			fmt.Sprintf("unknown control %q", name),
			map[string]interface{}{"control": name, "available": s.names()})
	}
	if math.IsNaN(v) || !c.Contains(v) {
		return s, apierrors.NewValidationErrors([]apierrors.ValidationError{{
			Field:   name,
			Message: fmt.Sprintf("must be between %g and %g", c.Min, c.Max),
			Value:   v,
		}})
	}

	next := s.clone()
	next.values[name] = c.Snap(v)
	return next, nil
}

// Apply parses an assignment such as "gamma=3" or "tau 0.1" and applies it
func (s Set) Apply(assignment string) (Set, error) {
	name, raw, ok := strings.Cut(strings.TrimSpace(assignment), "=")
	if !ok {
		fields := strings.Fields(assignment)
		if len(fields) != 2 {
			return s, apierrors.New(apierrors.CodeInvalidParameter,
				fmt.Sprintf("expected name=value, got %q", assignment))
		}
		name, raw = fields[0], fields[1]
	}
	name = strings.ToLower(strings.TrimSpace(name))

	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return s, apierrors.Wrap(apierrors.CodeInvalidParameter,
			fmt.Sprintf("control %s: invalid number %q", name, raw), err)
	}
	return s.With(name, v)
}

// Reset returns a copy of s with every control at its default
func (s Set) Reset() Set {
	return NewSet(s.name, s.controls...)
}

// String renders the current values in control order
func (s Set) String() string {
	parts := make([]string, 0, len(s.controls))
	for _, c := range s.controls {
		parts = append(parts, fmt.Sprintf("%s=%g", c.Name, s.values[c.Name]))
	}
	return strings.Join(parts, " ")
}

func (s Set) clone() Set {
	next := Set{name: s.name, controls: s.controls, values: make(map[string]float64, len(s.values))}
	for k, v := range s.values {
		next.values[k] = v
	}
	return next
}

func (s Set) names() []string {
	names := make([]string, 0, len(s.controls))
	for _, c := range s.controls {
		names = append(names, c.Name)
	}
	sort.Strings(names)
	return names
}

// Experiment names
const (
	ModeSizing = "sizing"
	ModePayout = "payout"
)

// SizingControls returns the controls of the trade sizing experiment
func SizingControls() Set {
	return NewSet(ModeSizing,
		Control{Name: "gamma", Description: "risk aversion", Min: sizing.MinGamma, Max: sizing.MaxGamma, Step: 0.01, Default: 2},
		Control{Name: "tau", Description: "impact strength", Min: 0, Max: 1, Step: 0.01, Default: 0.05},
		Control{Name: "p1", Description: "weight of outcome 1", Min: 0, Max: 1, Step: 0.01, Default: 0.25},
		Control{Name: "p2", Description: "weight of outcome 2", Min: 0, Max: 1, Step: 0.01, Default: 0.5},
		Control{Name: "p3", Description: "weight of outcome 3", Min: 0, Max: 1, Step: 0.01, Default: 0.25},
		Control{Name: "x1", Description: "outcome 1", Min: -1, Max: 1, Step: 0.01, Default: -0.2},
		Control{Name: "x2", Description: "outcome 2", Min: -1, Max: 1, Step: 0.01, Default: 0.1},
		Control{Name: "x3", Description: "outcome 3", Min: -1, Max: 1, Step: 0.01, Default: 0.4},
	)
}

// PayoutControls returns the controls of the endowment payout experiment
func PayoutControls() Set {
	return NewSet(ModePayout,
		Control{Name: "gamma", Description: "risk aversion", Min: sizing.MinGamma, Max: sizing.MaxGamma, Step: 0.01, Default: 2},
		Control{Name: "sigma", Description: "volatility", Min: 0.01, Max: 0.5, Step: 0.01, Default: 0.16},
		Control{Name: "rho", Description: "impatience", Min: 0, Max: 0.1, Step: 0.001, Default: 0.02},
		Control{Name: "rate", Description: "risk-free rate", Min: 0, Max: 0.1, Step: 0.001, Default: 0},
	)
}

// ForMode returns the default set for an experiment name
func ForMode(mode string) (Set, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case ModeSizing:
		return SizingControls(), nil
	case ModePayout:
		return PayoutControls(), nil
	default:
		return Set{}, apierrors.NewWithDetails(apierrors.CodeInvalidParameter,
			fmt.Sprintf("unknown mode %q", mode),
			apierrors.ValidationError{Field: "mode", Message: "must be one of: sizing, payout", Value: mode})
	}
}

// Problem converts sizing controls into a sizing problem with linear impact
func (s Set) Problem() sizing.Problem {
	return sizing.Problem{
		Weights:  []float64{s.Value("p1"), s.Value("p2"), s.Value("p3")},
		Outcomes: []float64{s.Value("x1"), s.Value("x2"), s.Value("x3")},
		Gamma:    s.Value("gamma"),
		Impact:   sizing.Linear{Strength: s.Value("tau")},
	}
}

// Params converts payout controls into closed-form parameters
func (s Set) Params() merton.Params {
	return merton.Params{
		Gamma: s.Value("gamma"),
		Sigma: s.Value("sigma"),
		Rho:   s.Value("rho"),
		Rate:  s.Value("rate"),
	}
}
