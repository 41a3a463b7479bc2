package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"

	"sizingcli/internal/merton"
	"sizingcli/internal/sizing"
)

type sweepMetadata struct {
	GeneratedAt    string   `json:"generated_at"`
	RunID          string   `json:"run_id,omitempty"`
	GridPoints     int      `json:"grid_points"`
	Gamma          float64  `json:"gamma"`
	ImpactModel    string   `json:"impact_model"`
	ImpactStrength *float64 `json:"impact_strength"`
}

type sweepPoint struct {
	Kappa            float64  `json:"kappa"`
	Baseline         *float64 `json:"baseline"`
	Impacted         *float64 `json:"impacted"`
	BaselineGradient *float64 `json:"baseline_gradient,omitempty"`
	ImpactedGradient *float64 `json:"impacted_gradient,omitempty"`
}

type sweepDocument struct {
	Metadata          sweepMetadata   `json:"metadata"`
	Summary           Summary         `json:"summary"`
	Optimum           *sizing.Optimum `json:"optimum,omitempty"`
	Undefined         []int           `json:"undefined,omitempty"`
	BaselineUndefined []int           `json:"baseline_undefined,omitempty"`
	Points            []sweepPoint    `json:"points"`
}

type curveDocument struct {
	Metadata struct {
		GeneratedAt string `json:"generated_at"`
		RunID       string `json:"run_id,omitempty"`
		Points      int    `json:"points"`
	} `json:"metadata"`
	Params merton.Params `json:"params"`
	Points []curvePoint  `json:"points"`
}

type curvePoint struct {
	Mu     float64 `json:"mu"`
	Kappa  float64 `json:"kappa"`
	Payout float64 `json:"payout"`
}

// EncodeSweepJSON writes res as an indented JSON document. NaN values are null.
func EncodeSweepJSON(w io.Writer, res *sizing.SweepResult, opt *sizing.Optimum, runID string) error {
	doc := sweepDocument{
		Metadata: sweepMetadata{
			GeneratedAt:    time.Now().UTC().Format(time.RFC3339),
			RunID:          runID,
			GridPoints:     res.Len(),
			Gamma:          res.Gamma,
			ImpactModel:    res.ImpactModel,
			ImpactStrength: nullable(res.ImpactStrength),
		},
		Summary:           SummaryOf(res),
		Optimum:           opt,
		Undefined:         res.Undefined,
		BaselineUndefined: res.BaselineUndefined,
		Points:            make([]sweepPoint, res.Len()),
	}

	for i, k := range res.Kappa {
		doc.Points[i] = sweepPoint{
			Kappa:    k,
			Baseline: nullable(res.Baseline[i]),
			Impacted: nullable(res.Impacted[i]),
		}
		if i < len(res.BaselineGradient) {
			doc.Points[i].BaselineGradient = nullable(res.BaselineGradient[i])
			doc.Points[i].ImpactedGradient = nullable(res.ImpactedGradient[i])
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}

// EncodeCurveJSON writes c as an indented JSON document
func EncodeCurveJSON(w io.Writer, c *merton.Curve, runID string) error {
	var doc curveDocument
	doc.Metadata.GeneratedAt = time.Now().UTC().Format(time.RFC3339)
	doc.Metadata.RunID = runID
	doc.Metadata.Points = c.Len()
	doc.Params = c.Params
	doc.Points = make([]curvePoint, c.Len())
	for i := range c.Mu {
		doc.Points[i] = curvePoint{Mu: c.Mu[i], Kappa: c.Kappa[i], Payout: c.Payout[i]}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}

// nullable maps NaN and infinities to nil so the document stays valid JSON
func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
