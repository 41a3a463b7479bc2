package sizing

import (
	"fmt"
	"math"
	"strings"

	apierrors "sizingcli/internal/errors"
)

// Impact model names accepted by NewImpact
const (
	ModelLinear     = "linear"
	ModelSquareRoot = "sqrt"
)

// Impact is a one-way trading cost τ(κ) as a fraction of wealth.
// Implementations satisfy τ(0) = 0 and are non-decreasing for κ ≥ 0.
type Impact interface {
	Tax(kappa float64) float64
}

// Differentiable is an Impact with a known derivative τ'(κ)
type Differentiable interface {
	Impact
	Slope(kappa float64) float64
}

// Linear is τ(κ) = a·κ, charged identically on entry and exit
type Linear struct {
	Strength float64 `json:"strength" yaml:"strength"`
}

// NoImpact is the zero-cost baseline
var NoImpact = Linear{Strength: 0}

// Tax returns a·κ
func (l Linear) Tax(kappa float64) float64 {
	return l.Strength * kappa
}

// Slope returns a
func (l Linear) Slope(float64) float64 {
	return l.Strength
}

// Validate rejects negative or non-finite strength
func (l Linear) Validate() error {
	return validateStrength(l.Strength)
}

func (l Linear) String() string {
	return fmt.Sprintf("%s(a=%g)", ModelLinear, l.Strength)
}

// SquareRoot is τ(κ) = a·√|κ|, the square-root law of market impact
type SquareRoot struct {
	Strength float64 `json:"strength" yaml:"strength"`
}

// Tax returns a·√|κ|
func (s SquareRoot) Tax(kappa float64) float64 {
	return s.Strength * math.Sqrt(math.Abs(kappa))
}

// Slope returns a/(2√κ); it is +Inf at κ = 0 when a > 0
func (s SquareRoot) Slope(kappa float64) float64 {
	if s.Strength == 0 {
		return 0
	}
	if kappa == 0 {
		return math.Inf(1)
	}
	return math.Copysign(s.Strength/(2*math.Sqrt(math.Abs(kappa))), kappa)
}

// Validate rejects negative or non-finite strength
func (s SquareRoot) Validate() error {
	return validateStrength(s.Strength)
}

func (s SquareRoot) String() string {
	return fmt.Sprintf("%s(a=%g)", ModelSquareRoot, s.Strength)
}

// NewImpact builds an impact model by name
func NewImpact(model string, strength float64) (Differentiable, error) {
	if err := validateStrength(strength); err != nil {
		return nil, err
	}

	switch strings.ToLower(strings.TrimSpace(model)) {
	case "", ModelLinear:
		return Linear{Strength: strength}, nil
	case ModelSquareRoot, "square_root", "squareroot":
		return SquareRoot{Strength: strength}, nil
	default:
		return nil, apierrors.NewWithDetails(apierrors.CodeInvalidParameter,
			fmt.Sprintf("unknown impact model %q", model),
			apierrors.ValidationError{Field: "impact", Message: "must be one of: linear, sqrt", Value: model})
	}
}

// ModelName returns the name NewImpact accepts for tau, or "custom"
func ModelName(tau Impact) string {
	switch tau.(type) {
	case Linear:
		return ModelLinear
	case SquareRoot:
		return ModelSquareRoot
	default:
		return "custom"
	}
}

// StrengthOf returns the strength parameter of the built-in models, or NaN
func StrengthOf(tau Impact) float64 {
	switch m := tau.(type) {
	case Linear:
		return m.Strength
	case SquareRoot:
		return m.Strength
	default:
		return math.NaN()
	}
}

// WithStrength returns a model of the same kind as tau with a different strength.
// Custom models cannot be rescaled and yield NoImpact when strength is zero.
func WithStrength(tau Impact, strength float64) Impact {
	switch tau.(type) {
	case SquareRoot:
		return SquareRoot{Strength: strength}
	case Linear:
		return Linear{Strength: strength}
	default:
		if strength == 0 {
			return NoImpact
		}
		return tau
	}
}

// RoundTripCost is the entry plus exit cost 2·τ(κ)
func RoundTripCost(tau Impact, kappa float64) float64 {
	return 2 * tau.Tax(kappa)
}

func validateStrength(strength float64) error {
	if math.IsNaN(strength) || math.IsInf(strength, 0) || strength < 0 {
		return apierrors.NewValidationErrors([]apierrors.ValidationError{{
			Field:   "tau",
			Message: "impact strength must be a finite non-negative number",
			Value:   strength,
		}})
	}
	return nil
}
