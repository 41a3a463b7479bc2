package sizing

import (
	"fmt"
	"math"

	apierrors "sizingcli/internal/errors"
	"sizingcli/internal/validation"
)

const (
	// MinGamma is the smallest risk aversion a sizing problem accepts.
	// Values in (1, MinGamma) are numerically close to the γ = 1 singularity.
	MinGamma = 1.01
	// MaxGamma bounds the risk-aversion control
	MaxGamma = 10.0

	// DefaultStep is the κ spacing of the default grid
	DefaultStep = 0.02
	// DefaultUpper is the exclusive upper end of the κ grid
	DefaultUpper = 1.0

	// MaxGridPoints bounds the κ grid, matching the μ grid limit
	MaxGridPoints = 100000

	// gridEpsilon absorbs floating point error when counting grid points
	gridEpsilon = 1e-9
)

// Problem holds every input of one sizing evaluation.
// Weights are relative and are normalized before use.
type Problem struct {
	Weights  []float64 `json:"weights" validate:"required,min=1,finite,weights"`
	Outcomes []float64 `json:"outcomes" validate:"required,min=1,finite"`
	Gamma    float64   `json:"gamma" validate:"gte=1.01,lte=10"`
	Impact   Impact    `json:"-" validate:"required"`
}

// Validate checks tags, vector lengths and the impact model
func (p Problem) Validate() error {
	if err := validation.Struct(p); err != nil {
		return err
	}
	if len(p.Weights) != len(p.Outcomes) {
		return apierrors.NewWithDetails(apierrors.CodeLengthMismatch,
			fmt.Sprintf("%d weights but %d outcomes", len(p.Weights), len(p.Outcomes)),
			map[string]int{"weights": len(p.Weights), "outcomes": len(p.Outcomes)})
	}
	if v, ok := p.Impact.(interface{ Validate() error }); ok {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Grid is the κ sweep: 0, Step, 2·Step, … strictly below Upper
type Grid struct {
	Step  float64 `json:"step" yaml:"step" validate:"gt=0,lte=1"`
	Upper float64 `json:"upper" yaml:"upper" validate:"gt=0,lte=1"`
}

// DefaultGrid returns the 50-point grid on [0, 1) with step 0.02
func DefaultGrid() Grid {
	return Grid{Step: DefaultStep, Upper: DefaultUpper}
}

// Validate checks the grid has between two and MaxGridPoints points
func (g Grid) Validate() error {
	if err := validation.Struct(g); err != nil {
		return err
	}
	if n := g.Upper / g.Step; n > MaxGridPoints {
		return apierrors.NewValidationErrors([]apierrors.ValidationError{{
			Field:   "step",
			Message: fmt.Sprintf("grid must contain at most %d points", MaxGridPoints),
			Value:   g.Step,
		}})
	}
	if g.Len() < 2 {
		return apierrors.NewValidationErrors([]apierrors.ValidationError{{
			Field:   "step",
			Message: "grid must contain at least two points",
			Value:   g.Step,
		}})
	}
	return nil
}

// Len returns the number of grid points
func (g Grid) Len() int {
	if g.Step <= 0 || g.Upper <= 0 {
		return 0
	}
	return int(math.Ceil(g.Upper/g.Step - gridEpsilon))
}

// Points returns the grid as a fresh slice
func (g Grid) Points() []float64 {
	n := g.Len()
	points := make([]float64, n)
	for i := range points {
		points[i] = float64(i) * g.Step
	}
	return points
}

// SweepResult holds the curves produced by one sweep
type SweepResult struct {
	Kappa            []float64 `json:"kappa"`
	Baseline         []float64 `json:"baseline"`
	Impacted         []float64 `json:"impacted"`
	BaselineGradient []float64 `json:"baseline_gradient"`
	ImpactedGradient []float64 `json:"impacted_gradient"`

	// Indices of grid points where terminal wealth was not positive
	Undefined         []int `json:"undefined,omitempty"`
	BaselineUndefined []int `json:"baseline_undefined,omitempty"`

	Gamma           float64 `json:"gamma"`
	ImpactModel     string  `json:"impact_model"`
	ImpactStrength  float64 `json:"impact_strength"`
	ExpectedReturn  float64 `json:"expected_return"`   // Σ pᵢxᵢ before impact
	RoundTripAtFull float64 `json:"round_trip_at_full"` // 2·τ(1)
}

// Len returns the number of grid points in the result
func (r *SweepResult) Len() int {
	return len(r.Kappa)
}
