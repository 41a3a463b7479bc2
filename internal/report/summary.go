package report

import (
	"fmt"
	"io"

	"sizingcli/internal/merton"
	"sizingcli/internal/sizing"
)

// Summary holds the two scalars printed with every sizing run
type Summary struct {
	ExpectedReturn  float64 `json:"expected_return"`
	RoundTripAtFull float64 `json:"round_trip_at_full"`
}

// SummaryOf extracts the summary of a sweep
func SummaryOf(res *sizing.SweepResult) Summary {
	return Summary{
		ExpectedReturn:  res.ExpectedReturn,
		RoundTripAtFull: res.RoundTripAtFull,
	}
}

// Lines formats the summary as console lines
func (s Summary) Lines() []string {
	return []string{
		fmt.Sprintf("Expected return (pre-impact): %.2f%%", s.ExpectedReturn*100),
		fmt.Sprintf("Round-trip impact at 100%% sizing: %.2f%%", s.RoundTripAtFull*100),
	}
}

// WriteSummary prints the summary lines to w
func WriteSummary(w io.Writer, s Summary) error {
	for _, line := range s.Lines() {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}
	return nil
}

// WriteOptimum prints the grid and refined optimum
func WriteOptimum(w io.Writer, opt *sizing.Optimum) error {
	_, err := fmt.Fprintf(w, "Optimal sizing: grid %.2f%% (EU %.6f), refined %.2f%% (EU %.6f)\n",
		opt.GridKappa*100, opt.GridUtility, opt.Kappa*100, opt.Utility)
	if err != nil {
		return fmt.Errorf("write optimum: %w", err)
	}
	return nil
}

// WriteBatchSummary prints a labelled summary for every scenario
func WriteBatchSummary(w io.Writer, results []sizing.BatchResult) error {
	for _, r := range results {
		if _, err := fmt.Fprintf(w, "[%s]\n", r.Name); err != nil {
			return fmt.Errorf("write batch summary: %w", err)
		}
		if err := WriteSummary(w, SummaryOf(r.Sweep)); err != nil {
			return err
		}
		if r.Optimum != nil {
			if err := WriteOptimum(w, r.Optimum); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteCurveSummary prints the μ range and the allocation and payout at both ends
func WriteCurveSummary(w io.Writer, c *merton.Curve) error {
	if c.Len() == 0 {
		return nil
	}
	last := c.Len() - 1
	lines := []string{
		fmt.Sprintf("Expected return range: %.2f%% to %.2f%%", c.Mu[0]*100, c.Mu[last]*100),
		fmt.Sprintf("Risky allocation: %.2f%% to %.2f%%", c.Kappa[0]*100, c.Kappa[last]*100),
		fmt.Sprintf("Payout ratio: %.3f%% to %.3f%%", c.Payout[0]*100, c.Payout[last]*100),
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("write curve summary: %w", err)
		}
	}
	return nil
}
