// Package evolution implements a bounded-time evolutionary search over
// "one choice per slot" problems: given N option lists it picks one option
// from each so that a caller supplied Scorer is maximised.
package evolution

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"
)

var (
	// ErrEmptyOptions is returned when an option list has nothing to choose from.
	ErrEmptyOptions = errors.New("evolution: option list is empty")
	// ErrScorer is returned when the scorer panics.
	ErrScorer = errors.New("evolution: scorer failed")
)

// Option customises an Engine.
type Option func(*options)

type options struct {
	rng *rand.Rand
	now func() time.Time
}

// WithSeed makes the engine deterministic for a given seed.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.rng = rand.New(rand.NewSource(seed))
	}
}

// WithRand injects the random source. The engine takes ownership of r.
func WithRand(r *rand.Rand) Option {
	return func(o *options) {
		o.rng = r
	}
}

// WithClock replaces time.Now for deadline checks.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// Engine runs searches with a fixed scorer and configuration. An Engine is
// not safe for concurrent use; run one per goroutine.
type Engine[T any] struct {
	cfg    Config
	scorer Scorer[T]
	rng    *rand.Rand
	now    func() time.Time
}

// New builds an engine. Zero Config fields take their defaults.
func New[T any](scorer Scorer[T], cfg Config, opts ...Option) *Engine[T] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine[T]{
		cfg:    cfg.WithDefaults(),
		scorer: scorer,
		rng:    o.rng,
		now:    o.now,
	}
}

// Config returns the effective configuration.
func (e *Engine[T]) Config() Config {
	return e.cfg
}

// scorerPanic carries a recovered scorer panic up to Search.
type scorerPanic struct {
	value any
}

// Search returns the best candidate found within the iteration and time
// budget. Infeasible candidates never cause an error; if every candidate is
// infeasible the least bad one is returned and the caller must check Score.
// The context is only consulted at cull points.
func (e *Engine[T]) Search(ctx context.Context, data [][]T) (best Candidate[T], err error) {
	if len(data) == 0 {
		return Candidate[T]{Indexes: []int{}, Values: []T{}, Score: math.Inf(-1)}, nil
	}
	for i, opts := range data {
		if len(opts) == 0 {
			return Candidate[T]{}, fmt.Errorf("%w: slot %d", ErrEmptyOptions, i)
		}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	defer func() {
		if r := recover(); r != nil {
			sp, ok := r.(scorerPanic)
			if !ok {
				panic(r)
			}
			best = Candidate[T]{}
			err = fmt.Errorf("%w: %v", ErrScorer, sp.value)
		}
	}()

	start := e.now()
	population := e.abiogenesis(data)

	for iter := 1; iter <= e.cfg.MaxIterations; iter++ {
		parent := population[e.pickParent(len(population))]
		mutation := e.mutate(data, parent)
		population = append(population, mutation.Candidate)

		if iter%e.cfg.CheckIters == 0 {
			population = cull(population, e.cfg.MaxParents)
			if e.now().Sub(start) > e.cfg.MaxTime || ctx.Err() != nil {
				break
			}
		}
	}

	sortDescending(population)
	return population[0], nil
}

// abiogenesis seeds the population with uniformly random candidates.
func (e *Engine[T]) abiogenesis(data [][]T) []Candidate[T] {
	population := make([]Candidate[T], 0, e.cfg.InitialParents+e.cfg.CheckIters)
	for i := 0; i < e.cfg.InitialParents; i++ {
		indexes := make([]int, len(data))
		values := make([]T, len(data))
		for slot, opts := range data {
			idx := e.rng.Intn(len(opts))
			indexes[slot] = idx
			values[slot] = opts[idx]
		}
		population = append(population, Candidate[T]{
			Indexes: indexes,
			Values:  values,
			Score:   e.score(values, indexes),
		})
	}
	sortDescending(population)
	return population
}

// pickParent draws from [0, n+BiasTop) and wraps, so the first BiasTop
// (best) ranks get two chances.
func (e *Engine[T]) pickParent(n int) int {
	return e.rng.Intn(n+e.cfg.BiasTop) % n
}

// pickSlot prefers a slot with more than one option, falling back to the
// last draw after maxAttempts.
func (e *Engine[T]) pickSlot(data [][]T) int {
	slot := 0
	for attempt := 0; attempt < maxAttempts; attempt++ {
		slot = e.rng.Intn(len(data))
		if len(data[slot]) > 1 {
			break
		}
	}
	return slot
}

func (e *Engine[T]) mutate(data [][]T, parent Candidate[T]) Mutation[T] {
	slot := e.pickSlot(data)
	opts := data[slot]
	current := parent.Indexes[slot]

	next := current
	for attempt := 0; attempt < maxAttempts; attempt++ {
		next = e.rng.Intn(len(opts))
		if next != current {
			break
		}
	}

	indexes := make([]int, len(parent.Indexes))
	copy(indexes, parent.Indexes)
	indexes[slot] = next

	values := make([]T, len(parent.Values))
	copy(values, parent.Values)
	values[slot] = opts[next]

	score := e.score(values, indexes)
	if math.IsInf(score, 0) {
		return Mutation[T]{
			Committed: false,
			Candidate: Candidate[T]{Indexes: parent.Indexes, Values: values, Score: score},
		}
	}
	return Mutation[T]{
		Committed: true,
		Candidate: Candidate[T]{Indexes: indexes, Values: values, Score: score},
	}
}

func (e *Engine[T]) score(values []T, indexes []int) (score float64) {
	defer func() {
		if r := recover(); r != nil {
			panic(scorerPanic{value: r})
		}
	}()
	score = e.scorer.Score(values, indexes)
	if math.IsNaN(score) {
		return math.Inf(-1)
	}
	return score
}
