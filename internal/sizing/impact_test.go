package sizing

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "sizingcli/internal/errors"
)

type flatFee struct{ fee float64 }

func (f flatFee) Tax(kappa float64) float64 {
	if kappa == 0 {
		return 0
	}
	return f.fee
}

func TestLinearImpact(t *testing.T) {
	tau := Linear{Strength: 0.05}
	assert.Equal(t, 0.0, tau.Tax(0))
	assert.InDelta(t, 0.025, tau.Tax(0.5), 1e-15)
	assert.Equal(t, 0.05, tau.Slope(0.7))
	assert.Equal(t, "linear(a=0.05)", tau.String())
	assert.NoError(t, tau.Validate())
}

func TestSquareRootImpact(t *testing.T) {
	tau := SquareRoot{Strength: 0.1}
	assert.Equal(t, 0.0, tau.Tax(0))
	assert.InDelta(t, 0.05, tau.Tax(0.25), 1e-15)
	assert.InDelta(t, 0.1, tau.Slope(0.25), 1e-15)
	assert.True(t, math.IsInf(tau.Slope(0), 1))
	assert.Equal(t, 0.0, SquareRoot{}.Slope(0))
	assert.Equal(t, "sqrt(a=0.1)", tau.String())
}

func TestImpactMonotone(t *testing.T) {
	models := []Impact{Linear{Strength: 0.3}, SquareRoot{Strength: 0.3}}
	for _, tau := range models {
		prev := tau.Tax(0)
		assert.Equal(t, 0.0, prev)
		for k := 0.01; k < 1; k += 0.01 {
			cur := tau.Tax(k)
			assert.GreaterOrEqual(t, cur, prev, "%v at %g", tau, k)
			prev = cur
		}
	}
}

func TestNewImpact(t *testing.T) {
	tests := []struct {
		model    string
		strength float64
		want     Differentiable
		wantErr  error
	}{
		{"", 0.1, Linear{Strength: 0.1}, nil},
		{"linear", 0.2, Linear{Strength: 0.2}, nil},
		{" Linear ", 0.2, Linear{Strength: 0.2}, nil},
		{"sqrt", 0.3, SquareRoot{Strength: 0.3}, nil},
		{"square_root", 0.3, SquareRoot{Strength: 0.3}, nil},
		{"cubic", 0.1, nil, apierrors.ErrInvalidParameter},
		{"linear", -0.1, nil, apierrors.ErrValidationFailed},
		{"linear", math.NaN(), nil, apierrors.ErrValidationFailed},
		{"sqrt", math.Inf(1), nil, apierrors.ErrValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			got, err := NewImpact(tt.model, tt.strength)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestImpactHelpers(t *testing.T) {
	assert.Equal(t, ModelLinear, ModelName(Linear{}))
	assert.Equal(t, ModelSquareRoot, ModelName(SquareRoot{}))
	assert.Equal(t, "custom", ModelName(flatFee{}))

	assert.Equal(t, 0.4, StrengthOf(SquareRoot{Strength: 0.4}))
	assert.True(t, math.IsNaN(StrengthOf(flatFee{fee: 0.01})))

	assert.Equal(t, SquareRoot{}, WithStrength(SquareRoot{Strength: 0.4}, 0))
	assert.Equal(t, Linear{Strength: 0.2}, WithStrength(Linear{Strength: 0.4}, 0.2))
	assert.Equal(t, NoImpact, WithStrength(flatFee{fee: 0.01}, 0))
	assert.Equal(t, flatFee{fee: 0.01}, WithStrength(flatFee{fee: 0.01}, 0.5))

	assert.InDelta(t, 0.1, RoundTripCost(Linear{Strength: 0.05}, 1), 1e-15)
	assert.Equal(t, 0.0, RoundTripCost(NoImpact, 1))
}
