// Package sizing evaluates CRRA expected utility for impact-aware trade sizing.
//
// A trader allocates a fraction κ of wealth to a lottery paying outcome xᵢ with
// probability pᵢ. Entering and exiting the position each cost τ(κ), so terminal
// wealth per unit of initial wealth is
//
//	wᵢ(κ) = 1 + κ·xᵢ − 2·τ(κ)
//
// and expected CRRA utility with risk aversion γ is
//
//	E[u](κ) = (1/(1−γ)) · Σᵢ pᵢ · (wᵢ(κ)^(1−γ) − 1)
//
// # Components
//
//   - utility.go: ExpectedUtility, MarginalUtility, NormalizeWeights, ExpectedReturn
//   - impact.go: the Impact contract with Linear and SquareRoot models
//   - sweep.go: Sweeper evaluates the objective over a fixed κ grid with and
//     without impact and differences the curves
//   - optimize.go: grid argmax and a bounded Nelder–Mead refinement
//   - batch.go: concurrent evaluation of independent scenarios
//   - scenario.go: YAML scenario files for batch runs
//
// # Edge Cases
//
// γ = 1 is singular and rejected with ErrSingularGamma; sizing problems further
// require γ ≥ MinGamma so that the neighbourhood of the singularity is excluded.
//
// When wᵢ(κ) ≤ 0 for an outcome with positive probability the fractional power is
// undefined. ExpectedUtility returns NaN together with an error carrying
// CodeNonPositiveWealth. Sweeps keep going, store NaN at that grid point and
// record its index in SweepResult.Undefined, so NaN propagates into the gradient
// at the neighbouring differences.
//
// The finite-difference gradient uses adjacent pairs, so it has one entry fewer
// than the curve and gradient[i] approximates the slope on [κᵢ, κᵢ₊₁].
//
// # Usage Example
//
//	problem := sizing.Problem{
//	    Weights:  []float64{0.25, 0.5, 0.25},
//	    Outcomes: []float64{-0.2, 0.1, 0.4},
//	    Gamma:    2,
//	    Impact:   sizing.Linear{Strength: 0.05},
//	}
//	result, err := sizing.NewSweeper(logger).Sweep(ctx, problem, sizing.DefaultGrid())
//	if err != nil {
//	    return err
//	}
//	best := sizing.GridArgMax(result.Impacted)
//	fmt.Printf("best κ on grid: %.2f\n", result.Kappa[best])
package sizing
