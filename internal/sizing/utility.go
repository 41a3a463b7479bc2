package sizing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	apierrors "sizingcli/internal/errors"
)

// WealthDetails describes the outcome that made terminal wealth non-positive
type WealthDetails struct {
	Kappa   float64 `json:"kappa"`
	Outcome int     `json:"outcome"`
	Wealth  float64 `json:"wealth"`
}

// NormalizeWeights returns w scaled to sum to one.
// The input is not modified.
func NormalizeWeights(w []float64) ([]float64, error) {
	if len(w) == 0 {
		return nil, apierrors.ErrZeroWeights
	}
	for i, v := range w {
		if v < 0 || math.IsNaN(v) {
			return nil, apierrors.NewWithDetails(apierrors.CodeNegativeWeight,
				fmt.Sprintf("weight %d is %g", i, v),
				apierrors.ValidationError{Field: "weights", Message: "must be non-negative", Value: v})
		}
		if math.IsInf(v, 0) {
			return nil, apierrors.NewWithDetails(apierrors.CodeValidationFailed,
				fmt.Sprintf("weight %d is %g", i, v),
				apierrors.ValidationError{Field: "weights", Message: "must be finite", Value: v})
		}
	}

	sum := floats.Sum(w)
	if sum == 0 {
		return nil, apierrors.ErrZeroWeights
	}

	p := make([]float64, len(w))
	copy(p, w)
	floats.Scale(1/sum, p)
	return p, nil
}

// ExpectedReturn is the probability-weighted outcome Σ pᵢxᵢ.
// Weights need not be normalized.
func ExpectedReturn(p, x []float64) (float64, error) {
	if len(p) != len(x) {
		return 0, apierrors.ErrLengthMismatch
	}
	if floats.Sum(p) == 0 {
		return 0, apierrors.ErrZeroWeights
	}
	return stat.Mean(x, p), nil
}

// TerminalWealth returns 1 + κ·x − 2·τ(κ)
func TerminalWealth(x, kappa float64, tau Impact) float64 {
	return 1 + kappa*x - RoundTripCost(tau, kappa)
}

// ExpectedUtility evaluates
//
//	E[u] = (1/(1−γ)) · Σᵢ pᵢ · ((1 + κ·xᵢ − 2·τ(κ))^(1−γ) − 1)
//
// p must already be normalized. Outcomes with zero probability are skipped.
// If terminal wealth is not positive for a weighted outcome, it returns NaN and
// an error with CodeNonPositiveWealth.
func ExpectedUtility(p, x []float64, kappa float64, tau Impact, gamma float64) (float64, error) {
	if len(p) != len(x) {
		return math.NaN(), apierrors.ErrLengthMismatch
	}
	if gamma == 1 {
		return math.NaN(), apierrors.ErrSingularGamma
	}
	if tau == nil {
		tau = NoImpact
	}

	exponent := 1 - gamma
	terms := make([]float64, len(p))

	for i := range p {
		if p[i] == 0 {
			continue
		}
		wealth := TerminalWealth(x[i], kappa, tau)
		if wealth <= 0 {
			return math.NaN(), apierrors.NewWithDetails(apierrors.CodeNonPositiveWealth,
				fmt.Sprintf("terminal wealth %g at kappa %g for outcome %d", wealth, kappa, i),
				WealthDetails{Kappa: kappa, Outcome: i, Wealth: wealth})
		}
		terms[i] = math.Pow(wealth, exponent) - 1
	}

	sum := floats.Dot(p, terms)
	if sum == 0 {
		// 0/(1−γ) would be -0 for γ > 1
		return 0, nil
	}
	return sum / exponent, nil
}

// MarginalUtility is the analytic derivative
//
//	dE[u]/dκ = Σᵢ pᵢ · wᵢ^(−γ) · (xᵢ − 2·τ'(κ))
//
// under the same preconditions and error policy as ExpectedUtility.
func MarginalUtility(p, x []float64, kappa float64, tau Differentiable, gamma float64) (float64, error) {
	if len(p) != len(x) {
		return math.NaN(), apierrors.ErrLengthMismatch
	}
	if gamma == 1 {
		return math.NaN(), apierrors.ErrSingularGamma
	}
	if tau == nil {
		tau = NoImpact
	}

	slope := 2 * tau.Slope(kappa)
	terms := make([]float64, len(p))

	for i := range p {
		if p[i] == 0 {
			continue
		}
		wealth := TerminalWealth(x[i], kappa, tau)
		if wealth <= 0 {
			return math.NaN(), apierrors.NewWithDetails(apierrors.CodeNonPositiveWealth,
				fmt.Sprintf("terminal wealth %g at kappa %g for outcome %d", wealth, kappa, i),
				WealthDetails{Kappa: kappa, Outcome: i, Wealth: wealth})
		}
		terms[i] = math.Pow(wealth, -gamma) * (x[i] - slope)
	}

	return floats.Dot(p, terms), nil
}

// Gradient differences adjacent values: g[i] = (v[i+1] − v[i]) / step.
// The result has len(values)−1 entries; NaN inputs propagate.
func Gradient(values []float64, step float64) []float64 {
	if len(values) < 2 {
		return []float64{}
	}
	g := make([]float64, len(values)-1)
	for i := range g {
		g[i] = (values[i+1] - values[i]) / step
	}
	return g
}
