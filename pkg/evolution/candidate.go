package evolution

import (
	"math"
	"sort"
)

// Scorer rates a full assignment. Higher is better; -Inf marks an
// infeasible combination. Implementations must be safe for concurrent use
// when shared between engines.
type Scorer[T any] interface {
	Score(values []T, indexes []int) float64
}

// ScorerFunc adapts a plain function to Scorer.
type ScorerFunc[T any] func(values []T, indexes []int) float64

// Score calls f.
func (f ScorerFunc[T]) Score(values []T, indexes []int) float64 {
	return f(values, indexes)
}

// Candidate is one tentative assignment: the chosen index per option list,
// the matching values, and the cached score. Slices are never modified once
// the candidate is created.
type Candidate[T any] struct {
	Indexes []int
	Values  []T
	Score   float64
}

// Feasible reports whether the candidate has a usable score.
func (c Candidate[T]) Feasible() bool {
	return !math.IsInf(c.Score, -1)
}

// Mutation is the outcome of changing one slot of a parent. When Committed
// is false the index vector is the parent's, while Values and Score reflect
// the attempted change.
type Mutation[T any] struct {
	Committed bool
	Candidate Candidate[T]
}

func sortDescending[T any](population []Candidate[T]) {
	sort.SliceStable(population, func(i, j int) bool {
		return population[i].Score > population[j].Score
	})
}

func cull[T any](population []Candidate[T], maxParents int) []Candidate[T] {
	sortDescending(population)
	if len(population) > maxParents {
		// zero the tail so dropped values can be collected
		for i := maxParents; i < len(population); i++ {
			population[i] = Candidate[T]{}
		}
		population = population[:maxParents]
	}
	return population
}
