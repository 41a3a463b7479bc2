// Package session runs the interactive explorer: a line-oriented command loop
// that keeps the current control values and recomputes the active experiment
// after every change.
package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"sizingcli/internal/controls"
	apierrors "sizingcli/internal/errors"
	"sizingcli/internal/merton"
	"sizingcli/internal/report"
	"sizingcli/internal/sizing"
)

const prompt = "> "

const helpText = `Commands:
  set name=value [name value ...]  change controls and recompute
  show                             print current controls and redraw
  reset                            restore defaults for the current mode
  mode sizing|payout               switch experiment
  help                             print this help
  quit                             leave the session`

// Options configure a session
type Options struct {
	Mode       string
	Grid       sizing.Grid
	MuGrid     merton.MuGrid
	PlotWidth  int
	PlotHeight int
	Logger     *slog.Logger
}

// Session holds the current controls of one interactive run
type Session struct {
	out     io.Writer
	set     controls.Set
	grid    sizing.Grid
	muGrid  merton.MuGrid
	width   int
	height  int
	sweeper *sizing.Sweeper
	solver  *merton.Solver
	logger  *slog.Logger
	renders int
}

// New creates a session writing to out
func New(out io.Writer, opts Options) (*Session, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Mode == "" {
		opts.Mode = controls.ModeSizing
	}
	set, err := controls.ForMode(opts.Mode)
	if err != nil {
		return nil, err
	}
	if opts.Grid == (sizing.Grid{}) {
		opts.Grid = sizing.DefaultGrid()
	}
	if opts.MuGrid == (merton.MuGrid{}) {
		opts.MuGrid = merton.DefaultMuGrid()
	}
	if opts.PlotWidth == 0 || opts.PlotHeight == 0 {
		defaults := report.DefaultPlotOptions("")
		opts.PlotWidth, opts.PlotHeight = defaults.Width, defaults.Height
	}

	return &Session{
		out:     out,
		set:     set,
		grid:    opts.Grid,
		muGrid:  opts.MuGrid,
		width:   opts.PlotWidth,
		height:  opts.PlotHeight,
		sweeper: sizing.NewSweeper(opts.Logger),
		solver:  merton.NewSolver(opts.Logger),
		logger:  opts.Logger.With(slog.String("component", "session")),
	}, nil
}

// Controls returns the current control values
func (s *Session) Controls() controls.Set {
	return s.set
}

// Renders counts completed redraws
func (s *Session) Renders() int {
	return s.renders
}

// Run draws the initial state, then executes commands read from in until
// quit, end of input or context cancellation.
// Command errors are printed and the loop continues.
func (s *Session) Run(ctx context.Context, in io.Reader) error {
	s.logger.InfoContext(ctx, "session started", slog.String("mode", s.set.Name()))
	if err := s.render(ctx); err != nil {
		return err
	}

	reader := newLineReader(in)
	defer reader.stop()

loop:
	for {
		if _, err := fmt.Fprint(s.out, prompt); err != nil {
			return fmt.Errorf("write prompt: %w", err)
		}

		var line string
		select {
		case <-ctx.Done():
			return ctx.Err()
		case l, ok := <-reader.lines:
			if !ok {
				if err := reader.Err(); err != nil {
					return apierrors.Wrap(apierrors.CodeIO, "read commands", err)
				}
				break loop
			}
			line = l
		}

		quit, err := s.Execute(ctx, line)
		if err != nil {
			return err
		}
		if quit {
			break loop
		}
	}

	s.logger.InfoContext(ctx, "session ended", slog.Int("renders", s.renders))
	return nil
}

// Execute runs one command line. It reports whether the session should end.
// The returned error is non-nil only when output cannot be written.
func (s *Session) Execute(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "quit", "exit", "q":
		return true, nil
	case "help", "?":
		return false, s.println(helpText)
	case "show":
		if err := s.println(s.set.String()); err != nil {
			return false, err
		}
		return false, s.render(ctx)
	case "reset":
		s.set = s.set.Reset()
		return false, s.render(ctx)
	case "mode":
		if len(args) != 1 {
			return false, s.reportError(ctx, apierrors.New(apierrors.CodeInvalidParameter, "usage: mode sizing|payout"))
		}
		set, err := controls.ForMode(args[0])
		if err != nil {
			return false, s.reportError(ctx, err)
		}
		s.set = set
		s.logger.DebugContext(ctx, "mode changed", slog.String("mode", set.Name()))
		return false, s.render(ctx)
	case "set":
		if len(args) == 0 {
			return false, s.reportError(ctx, apierrors.New(apierrors.CodeInvalidParameter, "usage: set name=value"))
		}
		return false, s.apply(ctx, assignments(args))
	default:
		// A bare assignment is shorthand for set
		if strings.Contains(fields[0], "=") {
			return false, s.apply(ctx, fields)
		}
		return false, s.reportError(ctx, apierrors.New(apierrors.CodeInvalidParameter,
			fmt.Sprintf("unknown command %q, type help", fields[0])))
	}
}

// apply sets every assignment or none of them
func (s *Session) apply(ctx context.Context, assignments []string) error {
	next := s.set
	for _, a := range assignments {
		var err error
		next, err = next.Apply(a)
		if err != nil {
			return s.reportError(ctx, err)
		}
	}
	s.set = next
	s.logger.DebugContext(ctx, "controls changed", slog.String("controls", next.String()))
	return s.render(ctx)
}

// assignments groups set arguments into single assignments. A token without
// "=" takes the following token as its value, so "tau 0.1 gamma=3" yields
// "tau 0.1" and "gamma=3".
func assignments(args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		if !strings.Contains(args[i], "=") && i+1 < len(args) && !strings.Contains(args[i+1], "=") {
			out = append(out, args[i]+" "+args[i+1])
			i++
			continue
		}
		out = append(out, args[i])
	}
	return out
}

// render recomputes the active experiment and redraws it
func (s *Session) render(ctx context.Context) error {
	var err error
	switch s.set.Name() {
	case controls.ModePayout:
		err = s.renderPayout(ctx)
	default:
		err = s.renderSizing(ctx)
	}
	if err != nil {
		// Domain failures such as zero weights are shown, not fatal
		var apiErr *apierrors.Error
		if errors.As(err, &apiErr) {
			return s.reportError(ctx, err)
		}
		return err
	}
	s.renders++
	return nil
}

func (s *Session) renderSizing(ctx context.Context) error {
	res, err := s.sweeper.Sweep(ctx, s.set.Problem(), s.grid)
	if err != nil {
		return err
	}
	if err := report.PlotSweep(s.out, res, s.width, s.height); err != nil {
		return fmt.Errorf("draw sweep: %w", err)
	}
	return report.WriteSummary(s.out, report.SummaryOf(res))
}

func (s *Session) renderPayout(ctx context.Context) error {
	curve, err := s.solver.Solve(ctx, s.muGrid, s.set.Params())
	if err != nil {
		return err
	}
	if err := report.PlotCurve(s.out, curve, s.width, s.height); err != nil {
		return fmt.Errorf("draw curve: %w", err)
	}
	return report.WriteCurveSummary(s.out, curve)
}

// reportError prints a command failure and keeps the session alive
func (s *Session) reportError(ctx context.Context, err error) error {
	s.logger.DebugContext(ctx, "command rejected",
		slog.String("code", string(apierrors.CodeOf(err))),
		slog.String("error", err.Error()),
	)
	return s.println("error: " + err.Error())
}

func (s *Session) println(text string) error {
	if _, err := fmt.Fprintln(s.out, text); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// lineReader scans input on its own goroutine so that a blocked read does not
// hold up cancellation
type lineReader struct {
	lines chan string
	done  chan struct{}
	err   error
}

func newLineReader(in io.Reader) *lineReader {
	r := &lineReader{lines: make(chan string), done: make(chan struct{})}
	go func() {
		defer close(r.lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case r.lines <- scanner.Text():
			case <-r.done:
				return
			}
		}
		r.err = scanner.Err()
	}()
	return r
}

// Err returns the scan error; it is valid once lines is closed
func (r *lineReader) Err() error {
	return r.err
}

func (r *lineReader) stop() {
	close(r.done)
}
