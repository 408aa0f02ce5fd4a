package main

import (
	"context"
	"math"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/slime/config"
	"github.com/pthm-cable/slime/game"
	"github.com/pthm-cable/slime/telemetry"
)

// Score weights. Contrast rewards filament structure; separation rewards
// species keeping to their own territory.
const (
	contrastWeight   = 1.0
	separationWeight = 2.0
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	ticks      int
	seeds      []int64
	baseConfig *config.Config

	mu   sync.Mutex
	last EvalResult
}

// EvalResult summarises one parameter vector across all seeds.
type EvalResult struct {
	Fitness    float64 // lower = better
	Score      float64 // mean per-seed score
	ScoreP10   float64
	Contrast   float64 // mean over seeds
	Separation float64 // mean normalised separation over seeds
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	score      float64
	contrast   float64
	separation float64
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, ticks int, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		ticks:      ticks,
		seeds:      seeds,
		baseConfig: baseCfg,
	}
}

// Last returns the result of the most recent Evaluate call.
func (fe *FitnessEvaluator) Last() EvalResult {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.last
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Seeds run in parallel, one single-worker simulation each. Fitness blends
// the mean score with the 10th percentile so that a vector only scores well
// when it works for most seeds.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, x)

	results := make([]seedResult, len(fe.seeds))
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, seed := range fe.seeds {
		g.Go(func() error {
			r, err := fe.runSimulation(ctx, cfg, seed)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// An unrunnable vector is as bad as it gets.
		fe.setLast(EvalResult{Fitness: math.Inf(1)})
		return math.Inf(1)
	}

	scores := make([]float64, len(results))
	var res EvalResult
	for i, r := range results {
		scores[i] = r.score
		res.Contrast += r.contrast
		res.Separation += r.separation
	}
	n := float64(len(results))
	res.Contrast /= n
	res.Separation /= n

	mean, p10, _, _ := telemetry.ComputeDistribution(scores)
	res.Score = mean
	res.ScoreP10 = p10
	res.Fitness = -(0.5*mean + 0.5*p10)

	fe.setLast(res)
	return res.Fitness
}

func (fe *FitnessEvaluator) setLast(r EvalResult) {
	fe.mu.Lock()
	fe.last = r
	fe.mu.Unlock()
}

// runSimulation executes a single headless run and scores its final state.
func (fe *FitnessEvaluator) runSimulation(ctx context.Context, cfg *config.Config, seed int64) (seedResult, error) {
	sim, err := game.NewSimulationWithOptions(cfg, seed, game.SimulationOptions{Workers: 1})
	if err != nil {
		return seedResult{}, err
	}
	defer sim.Shutdown()

	dt := cfg.Derived.DT32
	for i := 0; i < fe.ticks; i++ {
		if err := ctx.Err(); err != nil {
			return seedResult{}, err
		}
		if err := sim.Step(dt); err != nil {
			return seedResult{}, err
		}
	}

	w := float64(cfg.Derived.FieldW)
	h := float64(cfg.Derived.FieldH)
	view := sim.Field()
	contrast := telemetry.FieldContrast(view)

	// Separation relative to the largest distance the torus allows.
	centroids := telemetry.SpeciesCentroids(sim.Agents(), cfg.Derived.NumSpecies, w, h)
	separation := telemetry.CentroidSeparation(centroids, w, h) / math.Hypot(w/2, h/2)

	return seedResult{
		score:      contrastWeight*contrast + separationWeight*separation,
		contrast:   contrast,
		separation: separation,
	}, nil
}
