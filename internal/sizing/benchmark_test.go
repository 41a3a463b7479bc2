package sizing

import (
	"context"
	"testing"
)

func BenchmarkExpectedUtility(b *testing.B) {
	p := []float64{0.25, 0.5, 0.25}
	x := []float64{-0.2, 0.1, 0.4}
	tau := Linear{Strength: 0.05}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = ExpectedUtility(p, x, 0.5, tau, 2)
	}
}

func BenchmarkSweep(b *testing.B) {
	benchmarks := []struct {
		name string
		grid Grid
	}{
		{"default_50_points", DefaultGrid()},
		{"fine_1000_points", Grid{Step: 0.001, Upper: 1}},
	}

	sweeper := NewSweeper(testLogger())
	problem := defaultProblem(0.05)

	for _, bm := range benchmarks {
		b.Run(bm.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := sweeper.Sweep(context.Background(), problem, bm.grid); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkOptimize(b *testing.B) {
	sweeper := NewSweeper(testLogger())
	problem := defaultProblem(0.01)
	problem.Gamma = 4

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := sweeper.Optimize(context.Background(), problem, DefaultGrid()); err != nil {
			b.Fatal(err)
		}
	}
}
