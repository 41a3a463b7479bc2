package report

import (
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"

	"sizingcli/internal/merton"
	"sizingcli/internal/sizing"
)

const (
	sweepSheet   = "Sweep"
	curveSheet   = "Payout"
	summarySheet = "Summary"
)

// SaveSweepXLSX writes the sweep to a workbook with a utility chart and a
// gradient chart next to the data
func SaveSweepXLSX(path string, res *sizing.SweepResult, opt *sizing.Optimum) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sweepSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeHeader(f, sweepSheet, SweepHeader); err != nil {
		return err
	}

	for i := range res.Kappa {
		row := i + 2
		values := []float64{
			res.Kappa[i],
			res.Baseline[i],
			res.Impacted[i],
			valueAt(res.BaselineGradient, i),
			valueAt(res.ImpactedGradient, i),
		}
		if err := writeRow(f, sweepSheet, row, values); err != nil {
			return err
		}
	}

	last := res.Len() + 1
	utility := lineChart("Expected utility", "kappa", "E[u]",
		series(sweepSheet, 'B', last),
		series(sweepSheet, 'C', last),
	)
	if err := f.AddChart(sweepSheet, "G2", utility); err != nil {
		return fmt.Errorf("add utility chart: %w", err)
	}

	// the gradient is one point shorter than the grid
	gradient := lineChart("Marginal utility (finite difference)", "kappa", "dE[u]/dkappa",
		series(sweepSheet, 'D', last-1),
		series(sweepSheet, 'E', last-1),
	)
	if err := f.AddChart(sweepSheet, "G22", gradient); err != nil {
		return fmt.Errorf("add gradient chart: %w", err)
	}

	if err := writeSweepSummary(f, res, opt); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

// SaveCurveXLSX writes the payout curve with allocation and payout charts
func SaveCurveXLSX(path string, c *merton.Curve) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", curveSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeHeader(f, curveSheet, CurveHeader); err != nil {
		return err
	}
	for i := range c.Mu {
		if err := writeRow(f, curveSheet, i+2, []float64{c.Mu[i], c.Kappa[i], c.Payout[i]}); err != nil {
			return err
		}
	}

	last := c.Len() + 1
	allocation := lineChart("Merton allocation", "mu", "kappa", series(curveSheet, 'B', last))
	if err := f.AddChart(curveSheet, "E2", allocation); err != nil {
		return fmt.Errorf("add allocation chart: %w", err)
	}
	payout := lineChart("Payout ratio", "mu", "pi", series(curveSheet, 'C', last))
	if err := f.AddChart(curveSheet, "E22", payout); err != nil {
		return fmt.Errorf("add payout chart: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, header []string) error {
	row := make([]interface{}, len(header))
	for i, h := range header {
		row[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &row); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return f.SetColWidth(sheet, "A", columnName(len(header)), 18)
}

// writeRow writes values from column A; NaN leaves the cell blank
func writeRow(f *excelize.File, sheet string, row int, values []float64) error {
	for col, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellFloat(sheet, cell, v, -1, 64); err != nil {
			return fmt.Errorf("write %s: %w", cell, err)
		}
	}
	return nil
}

func writeSweepSummary(f *excelize.File, res *sizing.SweepResult, opt *sizing.Optimum) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("add summary sheet: %w", err)
	}

	rows := [][]interface{}{
		{"Gamma", res.Gamma},
		{"Impact model", res.ImpactModel},
		{"Impact strength", res.ImpactStrength},
		{"Expected return (pre-impact)", res.ExpectedReturn},
		{"Round-trip impact at 100% sizing", res.RoundTripAtFull},
		{"Undefined grid points", len(res.Undefined)},
	}
	if opt != nil {
		rows = append(rows,
			[]interface{}{"Grid optimum kappa", opt.GridKappa},
			[]interface{}{"Refined optimum kappa", opt.Kappa},
			[]interface{}{"Refined optimum EU", opt.Utility},
		)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if v, ok := row[1].(float64); ok && math.IsNaN(v) {
			row = row[:1]
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}
	return f.SetColWidth(summarySheet, "A", "A", 34)
}

func lineChart(title, xLabel, yLabel string, ss ...excelize.ChartSeries) *excelize.Chart {
	return &excelize.Chart{
		Type:   excelize.Line,
		Series: ss,
		Title:  []excelize.RichTextRun{{Text: title}},
		Legend: excelize.ChartLegend{Position: "bottom"},
		XAxis: excelize.ChartAxis{
			Title: []excelize.RichTextRun{{Text: xLabel}},
		},
		YAxis: excelize.ChartAxis{
			Title: []excelize.RichTextRun{{Text: yLabel}},
		},
		Dimension:    excelize.ChartDimension{Width: 640, Height: 360},
		ShowBlanksAs: "gap",
	}
}

// series plots column col against column A for rows 2..last
func series(sheet string, col rune, last int) excelize.ChartSeries {
	return excelize.ChartSeries{
		Name:       fmt.Sprintf("%s!$%c$1", sheet, col),
		Categories: fmt.Sprintf("%s!$A$2:$A$%d", sheet, last),
		Values:     fmt.Sprintf("%s!$%c$2:$%c$%d", sheet, col, col, last),
		Marker:     excelize.ChartMarker{Symbol: "none"},
	}
}

func columnName(n int) string {
	name, err := excelize.ColumnNumberToName(n)
	if err != nil {
		return "A"
	}
	return name
}

func valueAt(values []float64, i int) float64 {
	if i >= len(values) {
		return math.NaN()
	}
	return values[i]
}
