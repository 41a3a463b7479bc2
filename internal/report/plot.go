package report

import (
	"fmt"
	"io"
	"math"

	"github.com/guptarohit/asciigraph"

	"sizingcli/internal/merton"
	"sizingcli/internal/sizing"
)

// Series is one line of a text plot
type Series struct {
	Name string
	X    []float64
	Y    []float64
}

// PlotOptions control the canvas of RenderPlot
type PlotOptions struct {
	Title  string
	XLabel string
	YLabel string
	Width  int
	Height int
}

// DefaultPlotOptions returns a canvas that fits an 80 column terminal
func DefaultPlotOptions(title string) PlotOptions {
	return PlotOptions{Title: title, Width: 64, Height: 18}
}

var seriesColors = []asciigraph.AnsiColor{
	asciigraph.Default,
	asciigraph.Red,
	asciigraph.Blue,
	asciigraph.Green,
	asciigraph.Yellow,
}

// RenderPlot draws the series with asciigraph. NaN and infinite points are
// left as gaps; a series without any finite point is dropped.
func RenderPlot(w io.Writer, opts PlotOptions, series ...Series) error {
	data := make([][]float64, 0, len(series))
	legends := make([]string, 0, len(series))
	colors := make([]asciigraph.AnsiColor, 0, len(series))
	xmin, xmax := math.Inf(1), math.Inf(-1)
	for i, s := range series {
		y, ok := withGaps(s.Y)
		if !ok {
			continue
		}
		data = append(data, y)
		legends = append(legends, s.Name)
		colors = append(colors, seriesColors[i%len(seriesColors)])
		for _, x := range s.X {
			if finite(x) {
				xmin, xmax = math.Min(xmin, x), math.Max(xmax, x)
			}
		}
	}
	if len(data) == 0 {
		_, err := fmt.Fprintf(w, "%s\n(no finite points)\n", opts.Title)
		return err
	}

	caption := opts.Title
	if opts.XLabel != "" && xmin <= xmax {
		caption = fmt.Sprintf("%s, %s from %g to %g", caption, opts.XLabel, xmin, xmax)
	}
	if opts.YLabel != "" {
		caption = fmt.Sprintf("%s (%s)", caption, opts.YLabel)
	}

	graph := asciigraph.PlotMany(data,
		asciigraph.Width(opts.Width),
		asciigraph.Height(opts.Height),
		asciigraph.Precision(4),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(colors...),
		asciigraph.SeriesLegends(legends...),
	)
	_, err := fmt.Fprintf(w, "%s\n\n", graph)
	return err
}

// withGaps copies y with infinities replaced by NaN, which asciigraph leaves
// blank. ok is false when no point is finite.
func withGaps(y []float64) (out []float64, ok bool) {
	out = make([]float64, len(y))
	for i, v := range y {
		if !finite(v) {
			out[i] = math.NaN()
			continue
		}
		out[i] = v
		ok = true
	}
	return out, ok
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// PlotSweep draws the utility curves followed by their gradients
func PlotSweep(w io.Writer, res *sizing.SweepResult, width, height int) error {
	opts := PlotOptions{Title: "Expected utility", XLabel: "kappa", YLabel: "E[u]", Width: width, Height: height}
	err := RenderPlot(w, opts,
		Series{Name: "no impact", X: res.Kappa, Y: res.Baseline},
		Series{Name: fmt.Sprintf("%s impact a=%g", res.ImpactModel, res.ImpactStrength), X: res.Kappa, Y: res.Impacted},
	)
	if err != nil {
		return err
	}

	n := len(res.BaselineGradient)
	opts.Title, opts.YLabel = "Finite-difference gradient", "dE[u]/dkappa"
	return RenderPlot(w, opts,
		Series{Name: "no impact", X: res.Kappa[:n], Y: res.BaselineGradient},
		Series{Name: "with impact", X: res.Kappa[:n], Y: res.ImpactedGradient},
	)
}

// PlotCurve draws the payout ratio and the allocation against μ
func PlotCurve(w io.Writer, c *merton.Curve, width, height int) error {
	opts := PlotOptions{Title: "Payout ratio", XLabel: "mu", YLabel: "pi", Width: width, Height: height}
	if err := RenderPlot(w, opts, Series{Name: "payout", X: c.Mu, Y: c.Payout}); err != nil {
		return err
	}
	opts.Title, opts.YLabel = "Merton allocation", "kappa"
	return RenderPlot(w, opts, Series{Name: "allocation", X: c.Mu, Y: c.Kappa})
}
