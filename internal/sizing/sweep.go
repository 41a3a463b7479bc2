package sizing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apierrors "sizingcli/internal/errors"
)

// Sweeper evaluates sizing problems over a κ grid
type Sweeper struct {
	logger *slog.Logger
}

// NewSweeper creates a sweeper that logs through logger
func NewSweeper(logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		logger: logger.With(slog.String("component", "sizing_sweeper")),
	}
}

// Sweep evaluates expected utility at every grid point for the zero-impact
// baseline and for problem.Impact, then differences both curves.
// Points with non-positive terminal wealth hold NaN and are listed in
// SweepResult.Undefined; they do not fail the sweep.
func (s *Sweeper) Sweep(ctx context.Context, problem Problem, grid Grid) (*SweepResult, error) {
	start := time.Now()
	model := ModelName(problem.Impact)

	ctx, span := tracer().Start(ctx, "sizing.Sweep", trace.WithAttributes(
		attribute.Float64("gamma", problem.Gamma),
		attribute.String("impact_model", model),
		attribute.Float64("grid_step", grid.Step),
	))
	defer span.End()

	if err := problem.Validate(); err != nil {
		span.SetStatus(codes.Error, "invalid problem")
		span.RecordError(err)
		return nil, fmt.Errorf("validate problem: %w", err)
	}
	if err := grid.Validate(); err != nil {
		span.SetStatus(codes.Error, "invalid grid")
		span.RecordError(err)
		return nil, fmt.Errorf("validate grid: %w", err)
	}

	p, err := NormalizeWeights(problem.Weights)
	if err != nil {
		return nil, fmt.Errorf("normalize weights: %w", err)
	}

	kappa := grid.Points()
	baselineImpact := WithStrength(problem.Impact, 0)

	s.logger.DebugContext(ctx, "starting sweep",
		"gamma", problem.Gamma,
		"impact", fmt.Sprint(problem.Impact),
		"grid_points", len(kappa),
	)

	result := &SweepResult{
		Kappa:           kappa,
		Baseline:        make([]float64, len(kappa)),
		Impacted:        make([]float64, len(kappa)),
		Gamma:           problem.Gamma,
		ImpactModel:     model,
		ImpactStrength:  StrengthOf(problem.Impact),
		RoundTripAtFull: RoundTripCost(problem.Impact, 1),
	}
	result.ExpectedReturn, err = ExpectedReturn(p, problem.Outcomes)
	if err != nil {
		return nil, fmt.Errorf("expected return: %w", err)
	}

	for i, k := range kappa {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, "cancelled")
			return nil, fmt.Errorf("sweep cancelled at grid point %d: %w", i, err)
		}

		result.Baseline[i], err = ExpectedUtility(p, problem.Outcomes, k, baselineImpact, problem.Gamma)
		if err != nil {
			if !errors.Is(err, apierrors.ErrNonPositiveWealth) {
				return nil, fmt.Errorf("baseline utility at kappa %g: %w", k, err)
			}
			result.BaselineUndefined = append(result.BaselineUndefined, i)
		}

		result.Impacted[i], err = ExpectedUtility(p, problem.Outcomes, k, problem.Impact, problem.Gamma)
		if err != nil {
			if !errors.Is(err, apierrors.ErrNonPositiveWealth) {
				return nil, fmt.Errorf("impacted utility at kappa %g: %w", k, err)
			}
			result.Undefined = append(result.Undefined, i)
		}
	}

	result.BaselineGradient = Gradient(result.Baseline, grid.Step)
	result.ImpactedGradient = Gradient(result.Impacted, grid.Step)

	undefined := len(result.Undefined) + len(result.BaselineUndefined)
	if undefined > 0 {
		s.logger.WarnContext(ctx, "terminal wealth not positive on part of the grid",
			"undefined_impacted", len(result.Undefined),
			"undefined_baseline", len(result.BaselineUndefined),
			"first_undefined_kappa", firstKappa(kappa, result.Undefined, result.BaselineUndefined),
		)
	}

	elapsed := time.Since(start)
	instruments().recordSweep(ctx, model, len(kappa), undefined, elapsed.Seconds())
	span.SetAttributes(
		attribute.Int("grid_points", len(kappa)),
		attribute.Int("undefined_points", undefined),
	)

	s.logger.DebugContext(ctx, "sweep completed",
		"duration", elapsed,
		"expected_return", result.ExpectedReturn,
		"round_trip_at_full", result.RoundTripAtFull,
	)

	return result, nil
}

// Sweep runs a sweep with a sweeper bound to the default logger
func Sweep(ctx context.Context, problem Problem, grid Grid) (*SweepResult, error) {
	return NewSweeper(nil).Sweep(ctx, problem, grid)
}

func firstKappa(kappa []float64, groups ...[]int) float64 {
	first := math.NaN()
	for _, idx := range groups {
		if len(idx) > 0 && (math.IsNaN(first) || kappa[idx[0]] < first) {
			first = kappa[idx[0]]
		}
	}
	return first
}
