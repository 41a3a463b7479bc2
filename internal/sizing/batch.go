package sizing

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Scenario is a named sizing problem evaluated as part of a batch
type Scenario struct {
	Name    string
	Problem Problem
}

// BatchResult pairs a scenario with its sweep and, when requested, its optimum
type BatchResult struct {
	Name    string       `json:"name"`
	Sweep   *SweepResult `json:"sweep"`
	Optimum *Optimum     `json:"optimum,omitempty"`
}

// BatchOptions control SweepBatch
type BatchOptions struct {
	// MaxConcurrency bounds the number of scenarios evaluated at once; 0 uses GOMAXPROCS
	MaxConcurrency int
	// Optimize additionally refines the optimum of each scenario
	Optimize bool
}

// SweepBatch evaluates independent scenarios concurrently.
// Results keep the order of scenarios. The first failure cancels the rest.
func (s *Sweeper) SweepBatch(ctx context.Context, scenarios []Scenario, grid Grid, opts BatchOptions) ([]BatchResult, error) {
	limit := opts.MaxConcurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	s.logger.InfoContext(ctx, "starting scenario batch",
		slog.Int("scenarios", len(scenarios)),
		slog.Int("max_concurrency", limit),
		slog.Bool("optimize", opts.Optimize),
	)

	results := make([]BatchResult, len(scenarios))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, sc := range scenarios {
		g.Go(func() error {
			sweep, err := s.Sweep(gctx, sc.Problem, grid)
			if err != nil {
				return fmt.Errorf("scenario %q: %w", sc.Name, err)
			}
			results[i] = BatchResult{Name: sc.Name, Sweep: sweep}

			if opts.Optimize {
				opt, err := s.Optimize(gctx, sc.Problem, grid)
				if err != nil {
					return fmt.Errorf("scenario %q optimum: %w", sc.Name, err)
				}
				results[i].Optimum = opt
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
