// Package bayesgo learns Bayesian-network structures from data by greedy
// local search.
//
// The search space is the set of directed acyclic graphs over the dataset
// variables, optionally with a factor type per node. Candidate moves (arc
// add/remove/flip, node-type change) are managed by the operators package:
// every move carries the score delta it would cause, deltas are cached up
// front and refreshed incrementally, and the best legal move is found by
// sort-and-scan. This package adds the outer drivers.
//
// # Quick Start
//
// Learn a linear Gaussian network with BIC:
//
//	ds, err := dataset.New(names, cols)
//	if err != nil {
//	    panic(err)
//	}
//	s, err := bic.New(ds)
//	if err != nil {
//	    panic(err)
//	}
//	net, err := dag.New(ds.Names())
//	if err != nil {
//	    panic(err)
//	}
//	result, err := bayesgo.HillClimb(ctx, net, s)
//
// Learn a semiparametric network with a cross-validated score and tabu
// search:
//
//	s, err := cv.New(ds, func(o *cv.Options) { o.Folds = 5 })
//	net, err := dag.NewSemiparametric(ds.Names())
//	result, err := bayesgo.TabuSearch(ctx, net, s, func(o *bayesgo.Options) {
//	    o.Patience = 10
//	    o.MaxIndegree = 4
//	})
//
// Both drivers mutate the passed network in place and leave it at the best
// structure found.
package bayesgo

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/hupe1980/bayesgo/checkpoint"
	"github.com/hupe1980/bayesgo/model"
	"github.com/hupe1980/bayesgo/operators"
	"github.com/hupe1980/bayesgo/score"
)

// Result summarises a finished search.
type Result struct {
	// Iterations is the number of applied moves.
	Iterations int

	// Score is the total score of the learned structure.
	Score float64
}

// HillClimb greedily applies the best candidate move until no move
// improves the score by more than Epsilon. The model is mutated in place.
func HillClimb(ctx context.Context, m model.Model, s score.Score, optFns ...func(o *Options)) (*Result, error) {
	opts := applyOptions(optFns)
	if err := validate(m, opts); err != nil {
		return nil, err
	}

	pool, err := buildPool(m, s, opts)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	opts.Logger.LogSearchStart(ctx, m.NumNodes(), poolSets(m, s, opts))

	cacheStart := time.Now()
	pool.CacheScores(m)
	opts.Metrics.RecordCacheScores(time.Since(cacheStart))

	progress := rate.NewLimiter(rate.Every(opts.ProgressInterval), 1)
	iterations := 0

	for {
		if err := ctx.Err(); err != nil {
			opts.Metrics.RecordSearch(iterations, time.Since(start), err)
			return &Result{Iterations: iterations, Score: pool.Score()}, err
		}
		if opts.MaxIterations > 0 && iterations >= opts.MaxIterations {
			break
		}

		op, ok := pool.FindMax(m)
		if !ok || op.Delta() <= opts.Epsilon {
			break
		}

		stepStart := time.Now()
		if err := op.Apply(m); err != nil {
			opts.Metrics.RecordSearch(iterations, time.Since(start), err)
			return nil, fmt.Errorf("bayesgo: apply %s: %w", op, err)
		}
		pool.UpdateScores(m, op)
		iterations++

		opts.Metrics.RecordStep(op.Kind(), op.Delta(), time.Since(stepStart))
		if progress.Allow() {
			opts.Logger.LogIteration(ctx, iterations, op.String(), op.Delta(), pool.Score())
		}
		maybeCheckpoint(ctx, m, pool, opts, iterations)
	}

	opts.Logger.LogConverged(ctx, iterations, pool.Score())
	opts.Metrics.RecordSearch(iterations, time.Since(start), nil)
	return &Result{Iterations: iterations, Score: pool.Score()}, nil
}

// TabuSearch runs hill climbing that escapes plateaus by applying the best
// non-tabu move even when it does not improve. A move improves when it
// raises the score above the best visited by more than Epsilon; the search
// stops once more than Patience consecutive moves have not improved.
// Opposites of non-improving moves become tabu so the search cannot
// immediately undo them. On exit the model is unwound to the best
// structure visited.
func TabuSearch(ctx context.Context, m model.Model, s score.Score, optFns ...func(o *Options)) (*Result, error) {
	opts := applyOptions(optFns)
	if err := validate(m, opts); err != nil {
		return nil, err
	}

	pool, err := buildPool(m, s, opts)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	opts.Logger.LogSearchStart(ctx, m.NumNodes(), poolSets(m, s, opts))

	cacheStart := time.Now()
	pool.CacheScores(m)
	opts.Metrics.RecordCacheScores(time.Since(cacheStart))

	progress := rate.NewLimiter(rate.Every(opts.ProgressInterval), 1)
	tabu := operators.NewTabuSet()

	var (
		iterations   int
		bestScore    = pool.Score()
		sinceBest    []operators.Operator
		nonImproving int
	)

	for {
		if err := ctx.Err(); err != nil {
			unwind(m, sinceBest)
			opts.Metrics.RecordSearch(iterations, time.Since(start), err)
			return &Result{Iterations: iterations, Score: bestScore}, err
		}
		if opts.MaxIterations > 0 && iterations >= opts.MaxIterations {
			break
		}

		op, ok := pool.FindMaxTabu(m, tabu)
		if !ok {
			break
		}

		stepStart := time.Now()
		if err := op.Apply(m); err != nil {
			opts.Metrics.RecordSearch(iterations, time.Since(start), err)
			return nil, fmt.Errorf("bayesgo: apply %s: %w", op, err)
		}
		pool.UpdateScores(m, op)
		iterations++

		if current := pool.Score(); current > bestScore+opts.Epsilon {
			bestScore = current
			sinceBest = sinceBest[:0]
			tabu.Clear()
			nonImproving = 0
		} else {
			sinceBest = append(sinceBest, op)
			tabu.Insert(op.Opposite())
			nonImproving++
		}

		opts.Metrics.RecordStep(op.Kind(), op.Delta(), time.Since(stepStart))
		if progress.Allow() {
			opts.Logger.LogIteration(ctx, iterations, op.String(), op.Delta(), pool.Score())
		}
		maybeCheckpoint(ctx, m, pool, opts, iterations)

		if nonImproving > opts.Patience {
			break
		}
	}

	unwind(m, sinceBest)
	opts.Logger.LogConverged(ctx, iterations, bestScore)
	opts.Metrics.RecordSearch(iterations, time.Since(start), nil)
	return &Result{Iterations: iterations, Score: bestScore}, nil
}

// buildPool assembles the operator pool: arc moves always, node-type moves
// when both the model and the score support factor types. Whitelisted arcs
// are inserted into the model first; the arc set never touches them again.
func buildPool(m model.Model, s score.Score, opts Options) (*operators.Pool, error) {
	if err := insertWhitelist(m, opts.ArcWhitelist); err != nil {
		return nil, err
	}
	arcs, err := operators.NewArcOperatorSet(m, s, opts.ArcWhitelist, opts.ArcBlacklist, opts.MaxIndegree)
	if err != nil {
		return nil, err
	}
	sets := []operators.Set{arcs}

	if tm, ok := m.(model.TypedModel); ok {
		if ts, ok := s.(score.TypedScore); ok {
			types, err := operators.NewChangeNodeTypeSet(tm, ts, opts.TypeWhitelist)
			if err != nil {
				return nil, err
			}
			sets = append(sets, types)
		}
	}
	return operators.NewPool(m, s, sets)
}

// poolSets reports how many operator families the pool will carry.
func poolSets(m model.Model, s score.Score, _ Options) int {
	sets := 1
	if _, ok := m.(model.TypedModel); ok {
		if _, ok := s.(score.TypedScore); ok {
			sets = 2
		}
	}
	return sets
}

// insertWhitelist adds pinned arcs missing from the starting structure.
func insertWhitelist(m model.Model, whitelist []model.Arc) error {
	for _, arc := range whitelist {
		s, ok := m.Index(arc.Source)
		if !ok {
			return fmt.Errorf("%w: unknown whitelist node %q", ErrInvalidOptions, arc.Source)
		}
		t, ok := m.Index(arc.Target)
		if !ok {
			return fmt.Errorf("%w: unknown whitelist node %q", ErrInvalidOptions, arc.Target)
		}
		if m.HasEdge(s, t) {
			continue
		}
		if err := m.AddEdge(s, t); err != nil {
			return fmt.Errorf("bayesgo: whitelist arc %s -> %s: %w", arc.Source, arc.Target, err)
		}
	}
	return nil
}

func validate(m model.Model, opts Options) error {
	if m.NumNodes() == 0 {
		return ErrEmptyModel
	}
	if opts.Epsilon < 0 {
		return fmt.Errorf("%w: negative epsilon %g", ErrInvalidOptions, opts.Epsilon)
	}
	if opts.MaxIterations < 0 {
		return fmt.Errorf("%w: negative max iterations %d", ErrInvalidOptions, opts.MaxIterations)
	}
	if opts.MaxIndegree < 0 {
		return fmt.Errorf("%w: negative max indegree %d", ErrInvalidOptions, opts.MaxIndegree)
	}
	if opts.Patience < 0 {
		return fmt.Errorf("%w: negative patience %d", ErrInvalidOptions, opts.Patience)
	}
	return nil
}

// maybeCheckpoint persists search state when a checkpoint path is
// configured and the interval elapsed.
func maybeCheckpoint(ctx context.Context, m model.Model, pool *operators.Pool, opts Options, iteration int) {
	if opts.CheckpointPath == "" || iteration%opts.CheckpointInterval != 0 {
		return
	}
	start := time.Now()
	err := checkpoint.SaveFile(opts.CheckpointPath, checkpoint.Capture(m, pool.Score(), iteration))
	opts.Metrics.RecordCheckpoint(time.Since(start), err)
	opts.Logger.LogCheckpoint(ctx, opts.CheckpointPath, err)
}

// unwind reverts moves applied after the best visited structure, most
// recent first.
func unwind(m model.Model, sinceBest []operators.Operator) {
	for i := len(sinceBest) - 1; i >= 0; i-- {
		_ = sinceBest[i].Opposite().Apply(m)
	}
}
