package sizing

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "sizingcli/internal/errors"
)

var (
	threeWeights  = []float64{0.25, 0.5, 0.25}
	threeOutcomes = []float64{-0.2, 0.1, 0.4}
)

func TestNormalizeWeights(t *testing.T) {
	tests := []struct {
		name    string
		weights []float64
		want    []float64
		wantErr error
	}{
		{
			name:    "already_normalized",
			weights: []float64{0.25, 0.5, 0.25},
			want:    []float64{0.25, 0.5, 0.25},
		},
		{
			name:    "relative_weights",
			weights: []float64{1, 2, 1},
			want:    []float64{0.25, 0.5, 0.25},
		},
		{
			name:    "single_positive_weight",
			weights: []float64{0, 0.3, 0},
			want:    []float64{0, 1, 0},
		},
		{
			name:    "all_zero",
			weights: []float64{0, 0, 0},
			wantErr: apierrors.ErrZeroWeights,
		},
		{
			name:    "empty",
			weights: nil,
			wantErr: apierrors.ErrZeroWeights,
		},
		{
			name:    "negative",
			weights: []float64{0.5, -0.1, 0.6},
			wantErr: apierrors.ErrNegativeWeight,
		},
		{
			name:    "nan",
			weights: []float64{0.5, math.NaN()},
			wantErr: apierrors.ErrNegativeWeight,
		},
		{
			name:    "infinite",
			weights: []float64{math.Inf(1), 1},
			wantErr: apierrors.ErrValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeWeights(tt.weights)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.InDeltaSlice(t, tt.want, got, 1e-12)
		})
	}
}

func TestNormalizeWeightsDoesNotModifyInput(t *testing.T) {
	w := []float64{1, 2, 1}
	_, err := NormalizeWeights(w)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 1}, w)
}

func TestExpectedReturn(t *testing.T) {
	got, err := ExpectedReturn(threeWeights, threeOutcomes)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, got, 1e-12)

	// relative weights give the same answer
	got, err = ExpectedReturn([]float64{2, 4, 2}, threeOutcomes)
	require.NoError(t, err)
	assert.InDelta(t, 0.1, got, 1e-12)

	_, err = ExpectedReturn([]float64{1}, threeOutcomes)
	assert.ErrorIs(t, err, apierrors.ErrLengthMismatch)

	_, err = ExpectedReturn([]float64{0, 0, 0}, threeOutcomes)
	assert.ErrorIs(t, err, apierrors.ErrZeroWeights)
}

// TestGoldenExpectedUtility checks the κ=0.5 scenario against a hand expansion
func TestGoldenExpectedUtility(t *testing.T) {
	want := (1.0 / (1 - 2)) * (0.25*(math.Pow(1-0.1, -1)-1) +
		0.5*(math.Pow(1.05, -1)-1) +
		0.25*(math.Pow(1.2, -1)-1))

	got, err := ExpectedUtility(threeWeights, threeOutcomes, 0.5, NoImpact, 2)
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-9)
	assert.InDelta(t, 0.0376984127, got, 1e-9)
}

func TestGoldenExpectedUtilityWithImpact(t *testing.T) {
	// 2·τ(0.5) = 0.05 so wealth is 0.85, 1.00, 1.15
	want := -(0.25*(1/0.85-1) + 0.5*(1/1.0-1) + 0.25*(1/1.15-1))

	got, err := ExpectedUtility(threeWeights, threeOutcomes, 0.5, Linear{Strength: 0.05}, 2)
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-12)
}

func TestExpectedUtilityZeroAtZeroKappa(t *testing.T) {
	cases := []struct {
		name  string
		gamma float64
		tau   Impact
	}{
		{"gamma_1.01_no_impact", 1.01, NoImpact},
		{"gamma_2_linear", 2, Linear{Strength: 0.3}},
		{"gamma_10_sqrt", 10, SquareRoot{Strength: 0.2}},
		{"gamma_0.5_linear", 0.5, Linear{Strength: 1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExpectedUtility(threeWeights, threeOutcomes, 0, tc.tau, tc.gamma)
			require.NoError(t, err)
			assert.Equal(t, 0.0, got)
		})
	}
}

func TestExpectedUtilityMonotoneInImpactStrength(t *testing.T) {
	strengths := []float64{0, 0.01, 0.05, 0.1, 0.2, 0.4}
	models := map[string]func(a float64) Impact{
		"linear": func(a float64) Impact { return Linear{Strength: a} },
		"sqrt":   func(a float64) Impact { return SquareRoot{Strength: a} },
	}

	for name, model := range models {
		t.Run(name, func(t *testing.T) {
			for _, kappa := range []float64{0.1, 0.3, 0.5, 0.9} {
				prev := math.Inf(1)
				for _, a := range strengths {
					u, err := ExpectedUtility(threeWeights, threeOutcomes, kappa, model(a), 3)
					if errors.Is(err, apierrors.ErrNonPositiveWealth) {
						break
					}
					require.NoError(t, err)
					assert.LessOrEqual(t, u, prev, "kappa=%g a=%g", kappa, a)
					prev = u
				}
			}
		})
	}
}

func TestExpectedUtilityNormalizationInvariance(t *testing.T) {
	p, err := NormalizeWeights(threeWeights)
	require.NoError(t, err)

	for _, scale := range []float64{0.5, 3, 1000} {
		scaled := make([]float64, len(threeWeights))
		for i, w := range threeWeights {
			scaled[i] = w * scale
		}
		q, err := NormalizeWeights(scaled)
		require.NoError(t, err)

		for _, kappa := range []float64{0.2, 0.6} {
			want, err := ExpectedUtility(p, threeOutcomes, kappa, Linear{Strength: 0.05}, 2)
			require.NoError(t, err)
			got, err := ExpectedUtility(q, threeOutcomes, kappa, Linear{Strength: 0.05}, 2)
			require.NoError(t, err)
			assert.InDelta(t, want, got, 1e-15)
		}
	}
}

func TestExpectedUtilityErrors(t *testing.T) {
	t.Run("singular_gamma", func(t *testing.T) {
		u, err := ExpectedUtility(threeWeights, threeOutcomes, 0.5, NoImpact, 1)
		assert.ErrorIs(t, err, apierrors.ErrSingularGamma)
		assert.True(t, math.IsNaN(u))
	})

	t.Run("length_mismatch", func(t *testing.T) {
		_, err := ExpectedUtility([]float64{1}, threeOutcomes, 0.5, NoImpact, 2)
		assert.ErrorIs(t, err, apierrors.ErrLengthMismatch)
	})

	t.Run("non_positive_wealth", func(t *testing.T) {
		u, err := ExpectedUtility([]float64{0.5, 0.5}, []float64{-1, 0.5}, 1, NoImpact, 2)
		require.Error(t, err)
		assert.True(t, math.IsNaN(u))
		assert.ErrorIs(t, err, apierrors.ErrNonPositiveWealth)

		var apiErr *apierrors.Error
		require.True(t, errors.As(err, &apiErr))
		details, ok := apiErr.Details.(WealthDetails)
		require.True(t, ok)
		assert.Equal(t, 0, details.Outcome)
		assert.Equal(t, 0.0, details.Wealth)
	})

	t.Run("zero_probability_outcome_is_skipped", func(t *testing.T) {
		u, err := ExpectedUtility([]float64{0, 1}, []float64{-1, 0.5}, 1, NoImpact, 2)
		require.NoError(t, err)
		assert.InDelta(t, -(1/1.5 - 1), u, 1e-12)
	})

	t.Run("nil_impact_is_baseline", func(t *testing.T) {
		want, err := ExpectedUtility(threeWeights, threeOutcomes, 0.4, NoImpact, 2)
		require.NoError(t, err)
		got, err := ExpectedUtility(threeWeights, threeOutcomes, 0.4, nil, 2)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})
}

func TestMarginalUtilityMatchesFiniteDifference(t *testing.T) {
	const h = 1e-6
	models := []Differentiable{NoImpact, Linear{Strength: 0.05}, SquareRoot{Strength: 0.02}}

	for _, tau := range models {
		for _, kappa := range []float64{0.1, 0.35, 0.7} {
			up, err := ExpectedUtility(threeWeights, threeOutcomes, kappa+h, tau, 2.5)
			require.NoError(t, err)
			down, err := ExpectedUtility(threeWeights, threeOutcomes, kappa-h, tau, 2.5)
			require.NoError(t, err)

			got, err := MarginalUtility(threeWeights, threeOutcomes, kappa, tau, 2.5)
			require.NoError(t, err)
			assert.InDelta(t, (up-down)/(2*h), got, 1e-6, "%v at kappa=%g", tau, kappa)
		}
	}
}

func TestMarginalUtilityErrors(t *testing.T) {
	_, err := MarginalUtility(threeWeights, threeOutcomes, 0.5, NoImpact, 1)
	assert.ErrorIs(t, err, apierrors.ErrSingularGamma)

	_, err = MarginalUtility([]float64{1}, []float64{-2}, 0.5, NoImpact, 2)
	assert.ErrorIs(t, err, apierrors.ErrNonPositiveWealth)
}

func TestTerminalWealth(t *testing.T) {
	assert.InDelta(t, 0.85, TerminalWealth(-0.2, 0.5, Linear{Strength: 0.05}), 1e-12)
	assert.InDelta(t, 1.0, TerminalWealth(0.3, 0, Linear{Strength: 0.5}), 1e-12)

	// the evaluator works on the same wealth
	tau := Linear{Strength: 0.05}
	u, err := ExpectedUtility([]float64{1}, []float64{-0.2}, 0.5, tau, 2)
	require.NoError(t, err)
	assert.InDelta(t, 1-1/TerminalWealth(-0.2, 0.5, tau), u, 1e-12)

	_, err = ExpectedUtility([]float64{1}, []float64{-2}, 0.75, tau, 2)
	var apiErr *apierrors.Error
	require.ErrorAs(t, err, &apiErr)
	details, ok := apiErr.Details.(WealthDetails)
	require.True(t, ok)
	assert.InDelta(t, TerminalWealth(-2, 0.75, tau), details.Wealth, 1e-12)
}

func TestGradient(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		step   float64
		want   []float64
	}{
		{"empty", nil, 0.1, []float64{}},
		{"single", []float64{1}, 0.1, []float64{}},
		{"linear", []float64{0, 1, 2, 3}, 0.5, []float64{2, 2, 2}},
		{"concave", []float64{0, 0.5, 0.75}, 1, []float64{0.5, 0.25}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDeltaSlice(t, tt.want, Gradient(tt.values, tt.step), 1e-12)
		})
	}

	g := Gradient([]float64{0, math.NaN(), 1}, 1)
	require.Len(t, g, 2)
	assert.True(t, math.IsNaN(g[0]))
	assert.True(t, math.IsNaN(g[1]))
}
