package sizing

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"go.opentelemetry.io/otel/attribute"
	"gonum.org/v1/gonum/optimize"

	apierrors "sizingcli/internal/errors"
)

// outOfBoundsPenalty replaces the objective outside [0, Upper) or where it is undefined
const outOfBoundsPenalty = 1e6

var errNoDefinedPoint = apierrors.New(apierrors.CodeNonPositiveWealth,
	"terminal wealth is not positive at any grid point")

// Optimum is the best κ found on the grid and after refinement
type Optimum struct {
	GridIndex   int     `json:"grid_index"`
	GridKappa   float64 `json:"grid_kappa"`
	GridUtility float64 `json:"grid_utility"`

	Kappa     float64 `json:"kappa"`
	Utility   float64 `json:"utility"`
	Converged bool    `json:"converged"`
	Status    string  `json:"status"`
	Evals     int     `json:"evaluations"`
}

var successStatuses = map[optimize.Status]bool{
	optimize.Success:             true,
	optimize.FunctionConvergence: true,
	optimize.GradientThreshold:   true,
	optimize.MethodConverge:      true,
}

// refinementFailure returns a CodeOptimization error when the Nelder-Mead run
// failed or stopped without converging, and nil otherwise
func refinementFailure(result *optimize.Result, err error) *apierrors.Error {
	if err != nil {
		return apierrors.Wrap(apierrors.CodeOptimization, "refine optimum", err)
	}
	if result == nil || !successStatuses[result.Status] {
		status := "no result"
		if result != nil {
			status = result.Status.String()
		}
		return apierrors.New(apierrors.CodeOptimization, "refinement stopped with status "+status)
	}
	return nil
}

// GridArgMax returns the index of the largest non-NaN value, or -1 when every
// value is NaN. Ties resolve to the first index.
func GridArgMax(values []float64) int {
	best := -1
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if best < 0 || v > values[best] {
			best = i
		}
	}
	return best
}

// Optimize sweeps the impacted objective on grid, then refines the grid
// maximizer with a Nelder–Mead search restricted to [0, grid.Upper).
// If the search fails the grid optimum is returned with Converged false.
func (s *Sweeper) Optimize(ctx context.Context, problem Problem, grid Grid) (*Optimum, error) {
	ctx, span := tracer().Start(ctx, "sizing.Optimize")
	defer span.End()

	sweep, err := s.Sweep(ctx, problem, grid)
	if err != nil {
		return nil, err
	}

	idx := GridArgMax(sweep.Impacted)
	if idx < 0 {
		return nil, fmt.Errorf("no defined grid point: %w", errNoDefinedPoint)
	}

	opt := &Optimum{
		GridIndex:   idx,
		GridKappa:   sweep.Kappa[idx],
		GridUtility: sweep.Impacted[idx],
		Kappa:       sweep.Kappa[idx],
		Utility:     sweep.Impacted[idx],
	}

	p, err := NormalizeWeights(problem.Weights)
	if err != nil {
		return nil, fmt.Errorf("normalize weights: %w", err)
	}

	upper := grid.Upper
	objective := func(x []float64) float64 {
		k := x[0]
		if k < 0 || k >= upper {
			return outOfBoundsPenalty + math.Abs(k)
		}
		u, err := ExpectedUtility(p, problem.Outcomes, k, problem.Impact, problem.Gamma)
		if err != nil {
			return outOfBoundsPenalty
		}
		return -u
	}

	result, err := optimize.Minimize(
		optimize.Problem{Func: objective},
		[]float64{opt.GridKappa},
		&optimize.Settings{
			Converger: &optimize.FunctionConverge{Absolute: 1e-14, Iterations: 50},
		},
		&optimize.NelderMead{SimplexSize: grid.Step},
	)

	switch failure := refinementFailure(result, err); {
	case failure != nil:
		opt.Status = failure.Error()
		s.logger.WarnContext(ctx, "optimum refinement failed, keeping grid optimum",
			"code", failure.Code,
			"error", failure.Error(),
			"grid_kappa", opt.GridKappa,
		)
	case -result.F < opt.GridUtility:
		opt.Status = result.Status.String()
		s.logger.WarnContext(ctx, "refined optimum is worse than grid optimum, keeping grid optimum",
			"refined_kappa", result.X[0],
			"grid_kappa", opt.GridKappa,
		)
	default:
		opt.Kappa = result.X[0]
		opt.Utility = -result.F
		opt.Converged = true
		opt.Status = result.Status.String()
		opt.Evals = result.Stats.FuncEvaluations
	}

	instruments().recordOptimization(ctx, opt.Converged)
	span.SetAttributes(
		attribute.Float64("kappa", opt.Kappa),
		attribute.Bool("converged", opt.Converged),
	)

	s.logger.InfoContext(ctx, "optimum located",
		slog.Float64("grid_kappa", opt.GridKappa),
		slog.Float64("kappa", opt.Kappa),
		slog.Float64("utility", opt.Utility),
		slog.Bool("converged", opt.Converged),
	)

	return opt, nil
}
