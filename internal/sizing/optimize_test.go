package sizing

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/optimize"

	apierrors "sizingcli/internal/errors"
)

func TestGridArgMax(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name   string
		values []float64
		want   int
	}{
		{"empty", nil, -1},
		{"all_nan", []float64{nan, nan}, -1},
		{"interior", []float64{0, 0.2, 0.3, 0.1}, 2},
		{"last", []float64{0, 0.1, 0.2}, 2},
		{"first_on_tie", []float64{0.5, 0.1, 0.5}, 0},
		{"skips_nan", []float64{0, nan, 0.1, nan}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GridArgMax(tt.values))
		})
	}
}

func TestOptimizeInteriorOptimum(t *testing.T) {
	p := defaultProblem(0.01)
	p.Gamma = 4
	grid := DefaultGrid()

	opt, err := NewSweeper(testLogger()).Optimize(context.Background(), p, grid)
	require.NoError(t, err)

	assert.True(t, opt.Converged, "status %s", opt.Status)
	assert.Greater(t, opt.GridIndex, 0)
	assert.Less(t, opt.GridIndex, grid.Len()-1)
	assert.InDelta(t, opt.GridKappa, opt.Kappa, grid.Step)
	assert.GreaterOrEqual(t, opt.Utility, opt.GridUtility)
	assert.Greater(t, opt.Evals, 0)

	// first-order condition at the refined optimum
	pn, err := NormalizeWeights(p.Weights)
	require.NoError(t, err)
	slope, err := MarginalUtility(pn, p.Outcomes, opt.Kappa, Linear{Strength: 0.01}, p.Gamma)
	require.NoError(t, err)
	assert.InDelta(t, 0, slope, 1e-4)
}

func TestOptimizeStaysInsideGrid(t *testing.T) {
	// the unconstrained optimum of this problem lies beyond κ=1
	opt, err := NewSweeper(testLogger()).Optimize(context.Background(), defaultProblem(0), DefaultGrid())
	require.NoError(t, err)

	assert.Equal(t, 49, opt.GridIndex)
	assert.GreaterOrEqual(t, opt.Kappa, 0.0)
	assert.Less(t, opt.Kappa, 1.0)
	assert.InDelta(t, opt.GridKappa, opt.Kappa, 0.02)
	assert.GreaterOrEqual(t, opt.Utility, opt.GridUtility)
}

func TestOptimizeCornerAtZero(t *testing.T) {
	// a round trip of 2a exceeds the expected return, so staying out is optimal
	opt, err := NewSweeper(testLogger()).Optimize(context.Background(), defaultProblem(0.2), DefaultGrid())
	require.NoError(t, err)

	assert.Equal(t, 0, opt.GridIndex)
	assert.Equal(t, 0.0, opt.GridUtility)
	assert.InDelta(t, 0, opt.Kappa, 0.02)
	assert.GreaterOrEqual(t, opt.Utility, 0.0)
}

func TestOptimizeInvalidProblem(t *testing.T) {
	p := defaultProblem(0.05)
	p.Gamma = 1
	_, err := NewSweeper(testLogger()).Optimize(context.Background(), p, DefaultGrid())
	assert.Error(t, err)
}

func TestRefinementFailure(t *testing.T) {
	tests := []struct {
		name   string
		result *optimize.Result
		err    error
		want   string
	}{
		{"converged", &optimize.Result{Status: optimize.FunctionConvergence}, nil, ""},
		{"method_error", nil, assert.AnError, "refine optimum"},
		{"iteration_limit", &optimize.Result{Status: optimize.IterationLimit}, nil, "IterationLimit"},
		{"missing_result", nil, nil, "no result"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failure := refinementFailure(tt.result, tt.err)
			if tt.want == "" {
				assert.Nil(t, failure)
				return
			}
			require.NotNil(t, failure)
			assert.ErrorIs(t, failure, apierrors.ErrOptimization)
			assert.Equal(t, apierrors.CodeOptimization, apierrors.CodeOf(failure))
			assert.Contains(t, failure.Error(), tt.want)
			if tt.err != nil {
				assert.ErrorIs(t, failure, tt.err)
			}
			assert.Equal(t, 1, apierrors.ExitCode(failure))
		})
	}
}
