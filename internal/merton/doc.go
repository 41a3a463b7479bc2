// Package merton evaluates the closed-form Merton allocation and the
// endowment payout ratio it implies, swept over the expected return μ.
//
// For risk aversion γ, volatility σ, impatience ρ and risk-free rate r:
//
//	κ(μ) = (μ − r) / (γ·σ²)
//	π(μ) = ρ/γ − (1 − γ)·(κ(μ)·(μ − r)/(2γ) − r/γ)
//
// Both are evaluated elementwise with no iteration. γ = 0 and σ = 0 make the
// formulas singular and are rejected by Params.Validate.
//
// Basic usage:
//
//	params := merton.DefaultParams()
//	curve, err := merton.NewSolver(logger).Solve(ctx, merton.DefaultMuGrid(), params)
package merton
