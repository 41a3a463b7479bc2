package sizing

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// Example_expectedUtility evaluates one point of the three-outcome experiment
func Example_expectedUtility() {
	p, _ := NormalizeWeights([]float64{1, 2, 1})
	x := []float64{-0.2, 0.1, 0.4}

	baseline, _ := ExpectedUtility(p, x, 0.5, NoImpact, 2)
	impacted, _ := ExpectedUtility(p, x, 0.5, Linear{Strength: 0.05}, 2)

	fmt.Printf("baseline: %.6f\n", baseline)
	fmt.Printf("impacted: %.6f\n", impacted)
	// Output:
	// baseline: 0.037698
	// impacted: -0.011509
}

// Example_sweep sweeps the default grid and locates the optimum
func Example_sweep() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	sweeper := NewSweeper(logger)

	problem := Problem{
		Weights:  []float64{0.25, 0.5, 0.25},
		Outcomes: []float64{-0.2, 0.1, 0.4},
		Gamma:    4,
		Impact:   NoImpact,
	}

	result, err := sweeper.Sweep(context.Background(), problem, DefaultGrid())
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	opt, err := sweeper.Optimize(context.Background(), problem, DefaultGrid())
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}

	fmt.Printf("grid points: %d\n", result.Len())
	fmt.Printf("expected return: %.2f%%\n", result.ExpectedReturn*100)
	fmt.Printf("grid optimum: %.2f\n", opt.GridKappa)
	fmt.Printf("refined optimum: %.2f\n", opt.Kappa)
	// Output:
	// grid points: 50
	// expected return: 10.00%
	// grid optimum: 0.58
	// refined optimum: 0.59
}
