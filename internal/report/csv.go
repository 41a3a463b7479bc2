package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"sizingcli/internal/merton"
	"sizingcli/internal/sizing"
)

// SweepHeader is the column layout of sweep CSV files
var SweepHeader = []string{"Kappa", "Baseline_EU", "Impacted_EU", "Baseline_Gradient", "Impacted_Gradient"}

// CurveHeader is the column layout of payout curve CSV files
var CurveHeader = []string{"Mu", "Kappa", "Payout_Ratio"}

// WriteSweepCSV writes one row per grid point. The gradient columns are empty
// on the last row since the gradient has one entry fewer than the grid.
func WriteSweepCSV(w io.Writer, res *sizing.SweepResult) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(SweepHeader); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	for i := range res.Kappa {
		record := []string{
			formatFloat(res.Kappa[i], 4),
			formatFloat(res.Baseline[i], 10),
			formatFloat(res.Impacted[i], 10),
			formatAt(res.BaselineGradient, i, 10),
			formatAt(res.ImpactedGradient, i, 10),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write CSV record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteCurveCSV writes one row per μ value
func WriteCurveCSV(w io.Writer, c *merton.Curve) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(CurveHeader); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	for i := range c.Mu {
		record := []string{
			formatFloat(c.Mu[i], 6),
			formatFloat(c.Kappa[i], 8),
			formatFloat(c.Payout[i], 8),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write CSV record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// formatFloat formats a value with fixed precision; NaN becomes an empty cell
func formatFloat(value float64, precision int) string {
	if math.IsNaN(value) {
		return ""
	}
	return strconv.FormatFloat(value, 'f', precision, 64)
}

func formatAt(values []float64, i, precision int) string {
	if i >= len(values) {
		return ""
	}
	return formatFloat(values[i], precision)
}
