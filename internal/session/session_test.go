package session

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sizingcli/internal/controls"
)

func newTestSession(t *testing.T, mode string) (*Session, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	s, err := New(&out, Options{
		Mode:   mode,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	return s, &out
}

func TestRunScript(t *testing.T) {
	s, out := newTestSession(t, controls.ModeSizing)

	err := s.Run(context.Background(), strings.NewReader("set tau=0.2\nshow\nquit\nset tau=0.3\n"))
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "Expected return (pre-impact): 10.00%")
	assert.Contains(t, text, "Round-trip impact at 100% sizing: 10.00%")
	assert.Contains(t, text, "Round-trip impact at 100% sizing: 40.00%")
	assert.Contains(t, text, "tau=0.2")
	assert.Equal(t, 3, s.Renders())
	assert.Equal(t, 0.2, s.Controls().Value("tau"), "commands after quit are ignored")
}

func TestRunEndsAtEOF(t *testing.T) {
	s, _ := newTestSession(t, "")
	require.NoError(t, s.Run(context.Background(), strings.NewReader("tau=0.1")))
	assert.Equal(t, 0.1, s.Controls().Value("tau"))
	assert.Equal(t, 2, s.Renders())
}

func TestExecuteRejectsWithoutChangingState(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{"out of range", "set gamma=0.5", "must be between 1.01 and 10"},
		{"unknown control", "set delta=1", `unknown control "delta"`},
		{"not a number", "set tau=abc", "invalid number"},
		{"partial batch", "set tau=0.3 gamma=99", "gamma"},
		{"missing argument", "set", "usage: set"},
		{"dangling name", "set tau", "expected name=value"},
		{"space form out of range", "set tau 0.1 gamma 99", "gamma"},
		{"unknown command", "plot", `unknown command "plot"`},
		{"bad mode", "mode merton", `unknown mode "merton"`},
		{"mode usage", "mode", "usage: mode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, out := newTestSession(t, controls.ModeSizing)
			before := s.Controls().String()

			quit, err := s.Execute(context.Background(), tt.line)
			require.NoError(t, err)
			assert.False(t, quit)
			assert.Contains(t, out.String(), "error: ")
			assert.Contains(t, out.String(), tt.want)
			assert.Equal(t, before, s.Controls().String())
			assert.Zero(t, s.Renders())
		})
	}
}

func TestExecuteSetSpaceForm(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		tau   float64
		gamma float64
	}{
		{"single pair", "set tau 0.1", 0.1, 2},
		{"pair then assignment", "set tau 0.1 gamma=3", 0.1, 3},
		{"assignment then pair", "set gamma=3 tau 0.15", 0.15, 3},
		{"two pairs", "set gamma 4 tau 0.05", 0.05, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, out := newTestSession(t, controls.ModeSizing)

			quit, err := s.Execute(context.Background(), tt.line)
			require.NoError(t, err)
			assert.False(t, quit)
			assert.NotContains(t, out.String(), "error: ")
			assert.Equal(t, 1, s.Renders())
			assert.InDelta(t, tt.tau, s.Controls().Value("tau"), 1e-12)
			assert.InDelta(t, tt.gamma, s.Controls().Value("gamma"), 1e-12)
		})
	}
}

func TestAssignments(t *testing.T) {
	assert.Equal(t, []string{"tau 0.1"}, assignments([]string{"tau", "0.1"}))
	assert.Equal(t, []string{"tau 0.1", "gamma=3"}, assignments([]string{"tau", "0.1", "gamma=3"}))
	assert.Equal(t, []string{"gamma=3", "tau"}, assignments([]string{"gamma=3", "tau"}))
	assert.Equal(t, []string{"tau", "gamma=3"}, assignments([]string{"tau", "gamma=3"}))
}

func TestExecuteUndefinedProblemIsReported(t *testing.T) {
	s, out := newTestSession(t, controls.ModeSizing)

	quit, err := s.Execute(context.Background(), "set p1=0 p2=0 p3=0")
	require.NoError(t, err)
	assert.False(t, quit)
	assert.Contains(t, out.String(), "error: ")
	assert.Zero(t, s.Renders())

	out.Reset()
	_, err = s.Execute(context.Background(), "reset")
	require.NoError(t, err)
	assert.Equal(t, 1, s.Renders())
	assert.Equal(t, 0.25, s.Controls().Value("p1"))
	assert.Contains(t, out.String(), "Expected return (pre-impact): 10.00%")
}

func TestExecuteModeSwitch(t *testing.T) {
	s, out := newTestSession(t, controls.ModeSizing)

	_, err := s.Execute(context.Background(), "mode payout")
	require.NoError(t, err)
	assert.Equal(t, controls.ModePayout, s.Controls().Name())
	assert.Contains(t, out.String(), "Payout ratio")
	assert.Contains(t, out.String(), "Expected return range: 0.00% to 20.00%")

	out.Reset()
	_, err = s.Execute(context.Background(), "set rho=0.04")
	require.NoError(t, err)
	assert.Equal(t, 0.04, s.Controls().Value("rho"))
	// π(0) = ρ/γ + (1−γ)r/γ = 0.02
	assert.Contains(t, out.String(), "Payout ratio: 2.000%")
}

func TestExecuteHelpAndQuit(t *testing.T) {
	s, out := newTestSession(t, controls.ModeSizing)

	quit, err := s.Execute(context.Background(), "help")
	require.NoError(t, err)
	assert.False(t, quit)
	assert.Contains(t, out.String(), "mode sizing|payout")

	for _, cmd := range []string{"quit", "exit", "Q"} {
		quit, err := s.Execute(context.Background(), cmd)
		require.NoError(t, err)
		assert.True(t, quit, cmd)
	}

	quit, err = s.Execute(context.Background(), "   ")
	require.NoError(t, err)
	assert.False(t, quit)
}

func TestRunCancelled(t *testing.T) {
	s, _ := newTestSession(t, controls.ModeSizing)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Run(ctx, strings.NewReader("show\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRejectsUnknownMode(t *testing.T) {
	_, err := New(io.Discard, Options{Mode: "lottery"})
	require.Error(t, err)
}

func TestRunStopsOnCancelWhileReading(t *testing.T) {
	s, _ := newTestSession(t, controls.ModeSizing)
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Run(ctx, pr) }()
	cancel()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("session did not stop after cancellation")
	}
}
