package merton

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gonum.org/v1/gonum/floats"

	apierrors "sizingcli/internal/errors"
	"sizingcli/internal/validation"
)

// Params are the scalar inputs of the closed-form solution
type Params struct {
	Gamma float64 `json:"gamma" yaml:"gamma" validate:"gt=0,lte=10"`
	Sigma float64 `json:"sigma" yaml:"sigma" validate:"gt=0,finite"`
	Rho   float64 `json:"rho" yaml:"rho" validate:"gte=0,finite"`
	Rate  float64 `json:"rate" yaml:"rate" validate:"finite"`
}

// DefaultParams returns the starting values of the payout experiment
func DefaultParams() Params {
	return Params{Gamma: 2, Sigma: 0.16, Rho: 0.02, Rate: 0}
}

// Validate rejects parameters that make either formula singular
func (p Params) Validate() error {
	if p.Gamma == 0 {
		return apierrors.NewWithDetails(apierrors.CodeSingularGamma, "risk aversion must not be zero",
			apierrors.ValidationError{Field: "gamma", Message: "must not be zero", Value: p.Gamma})
	}
	if p.Sigma == 0 {
		return apierrors.NewWithDetails(apierrors.CodeSingularVolatility, "volatility must not be zero",
			apierrors.ValidationError{Field: "sigma", Message: "must not be zero", Value: p.Sigma})
	}
	return validation.Struct(p)
}

// Allocation returns κ(μ) = (μ − r)/(γσ²)
func Allocation(mu float64, p Params) float64 {
	return (mu - p.Rate) / (p.Gamma * p.Sigma * p.Sigma)
}

// PayoutRatio returns π(μ) = ρ/γ − (1−γ)(κ(μ)(μ−r)/(2γ) − r/γ)
func PayoutRatio(mu float64, p Params) float64 {
	excess := mu - p.Rate
	kappa := Allocation(mu, p)
	return p.Rho/p.Gamma - (1-p.Gamma)*(kappa*excess/(2*p.Gamma)-p.Rate/p.Gamma)
}

// MuGrid is an evenly spaced range of expected returns, both ends included
type MuGrid struct {
	Min    float64 `json:"min" yaml:"min" validate:"finite"`
	Max    float64 `json:"max" yaml:"max" validate:"finite,gtfield=Min"`
	Points int     `json:"points" yaml:"points" validate:"gte=2,lte=100000"`
}

// DefaultMuGrid spans μ ∈ [0, 0.2] with 101 points
func DefaultMuGrid() MuGrid {
	return MuGrid{Min: 0, Max: 0.2, Points: 101}
}

// Validate checks bounds and the point count
func (g MuGrid) Validate() error {
	return validation.Struct(g)
}

// Values returns the grid as a fresh slice
func (g MuGrid) Values() []float64 {
	if g.Points < 2 {
		return []float64{g.Min}
	}
	return floats.Span(make([]float64, g.Points), g.Min, g.Max)
}

// Curve holds κ(μ) and π(μ) for each μ
type Curve struct {
	Mu     []float64 `json:"mu"`
	Kappa  []float64 `json:"kappa"`
	Payout []float64 `json:"payout"`
	Params Params    `json:"params"`
}

// Len returns the number of μ values in the curve
func (c *Curve) Len() int {
	return len(c.Mu)
}

// Evaluate computes the curve for the given μ values without validation
func Evaluate(mus []float64, p Params) *Curve {
	c := &Curve{
		Mu:     append([]float64(nil), mus...),
		Kappa:  make([]float64, len(mus)),
		Payout: make([]float64, len(mus)),
		Params: p,
	}
	for i, mu := range mus {
		c.Kappa[i] = Allocation(mu, p)
		c.Payout[i] = PayoutRatio(mu, p)
	}
	return c
}

// Solver evaluates payout curves
type Solver struct {
	logger *slog.Logger
}

// NewSolver creates a solver that logs through logger
func NewSolver(logger *slog.Logger) *Solver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Solver{logger: logger.With(slog.String("component", "merton_solver"))}
}

// Solve validates p and grid, then evaluates the curve over the grid
func (s *Solver) Solve(ctx context.Context, grid MuGrid, p Params) (*Curve, error) {
	_, span := tracer().Start(ctx, "merton.Solve", trace.WithAttributes(
		attribute.Float64("gamma", p.Gamma),
		attribute.Float64("sigma", p.Sigma),
		attribute.Int("points", grid.Points),
	))
	defer span.End()

	if err := p.Validate(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("validate params: %w", err)
	}
	if err := grid.Validate(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("validate mu grid: %w", err)
	}

	curve := Evaluate(grid.Values(), p)
	s.logger.DebugContext(ctx, "payout curve solved",
		"points", curve.Len(),
		"gamma", p.Gamma,
		"sigma", p.Sigma,
		"rho", p.Rho,
		"rate", p.Rate,
	)
	return curve, nil
}

func tracer() trace.Tracer {
	return otel.Tracer("sizingcli/internal/merton")
}
