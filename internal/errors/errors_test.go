package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "message only",
			err:  New(CodeZeroWeights, "probability weights sum to zero"),
			want: "probability weights sum to zero",
		},
		{
			name: "with cause",
			err:  Wrap(CodeIO, "write report", fmt.Errorf("disk full")),
			want: "write report: disk full",
		},
		{
			name: "empty message",
			err:  New(CodeInternal, ""),
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestError_IsMatchesByCode(t *testing.T) {
	detailed := NewWithDetails(CodeSingularGamma, "gamma equals one", map[string]float64{"gamma": 1})
	wrapped := fmt.Errorf("evaluate utility: %w", detailed)

	assert.True(t, errors.Is(wrapped, ErrSingularGamma))
	assert.False(t, errors.Is(wrapped, ErrZeroWeights))
	assert.False(t, errors.Is(fmt.Errorf("plain"), ErrSingularGamma))
}

func TestError_UnwrapReachesCause(t *testing.T) {
	cause := fmt.Errorf("permission denied")
	err := Wrap(CodeIO, "open output", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestNewValidationErrors(t *testing.T) {
	err := NewValidationErrors([]ValidationError{
		{Field: "gamma", Message: "must be at least 1.01", Value: 1.0},
		{Field: "weights", Message: "at least one weight must be positive"},
	})

	require.NotNil(t, err)
	assert.Equal(t, CodeValidationFailed, err.Code)
	assert.Contains(t, err.Error(), "gamma: must be at least 1.01")
	assert.Contains(t, err.Error(), "weights: at least one weight must be positive")

	fields := Fields(fmt.Errorf("sweep: %w", err))
	require.Len(t, fields, 2)
	assert.Equal(t, "gamma", fields[0].Field)
	assert.Equal(t, 1.0, fields[0].Value)
}

func TestFields_NoDetails(t *testing.T) {
	assert.Nil(t, Fields(ErrZeroWeights))
	assert.Nil(t, Fields(fmt.Errorf("plain")))
}

func TestValidationError_Error(t *testing.T) {
	assert.Equal(t, "bad", ValidationError{Message: "bad"}.Error())
	assert.Equal(t, "tau: bad", ValidationError{Field: "tau", Message: "bad"}.Error())
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeLengthMismatch, CodeOf(fmt.Errorf("x: %w", ErrLengthMismatch)))
	assert.Equal(t, CodeInternal, CodeOf(fmt.Errorf("plain")))
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"validation", NewValidationErrors(nil), 2},
		{"singular gamma", ErrSingularGamma, 2},
		{"unknown control", fmt.Errorf("apply: %w", ErrUnknownControl), 2},
		{"non-positive wealth", fmt.Errorf("optimize: %w", New(CodeNonPositiveWealth, "no defined point")), 2},
		{"config", Wrap(CodeConfig, "load", fmt.Errorf("bad yaml")), 3},
		{"io", Wrap(CodeIO, "write", fmt.Errorf("closed")), 4},
		{"optimization", ErrOptimization, 1},
		{"plain", fmt.Errorf("boom"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}
