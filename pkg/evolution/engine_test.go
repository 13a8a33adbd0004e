package evolution

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// constSource makes every Intn(2) draw 1 and every Intn(1) draw 0.
type constSource int64

func (s constSource) Int63() int64 { return int64(s) }
func (constSource) Seed(int64)     {}

func sumScorer() ScorerFunc[int] {
	return func(values []int, indexes []int) float64 {
		total := 0
		for _, v := range values {
			total += v
		}
		return float64(total)
	}
}

func intOptions(slots, options int) [][]int {
	data := make([][]int, slots)
	for i := range data {
		data[i] = make([]int, options)
		for j := range data[i] {
			data[i][j] = j
		}
	}
	return data
}

func TestSearchEmptyInput(t *testing.T) {
	engine := New[int](sumScorer(), Config{}, WithSeed(1))

	result, err := engine.Search(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, result.Indexes)
	assert.Empty(t, result.Indexes)
	assert.NotNil(t, result.Values)
	assert.Empty(t, result.Values)
	assert.True(t, math.IsInf(result.Score, -1))
	assert.False(t, result.Feasible())
}

func TestSearchRejectsEmptyOptionList(t *testing.T) {
	engine := New[int](sumScorer(), Config{}, WithSeed(1))

	_, err := engine.Search(context.Background(), [][]int{{1, 2}, {}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyOptions))
	assert.Contains(t, err.Error(), "slot 1")
}

func TestSearchScorerPanicSurfaces(t *testing.T) {
	scorer := ScorerFunc[int](func(values []int, indexes []int) float64 {
		panic("boom")
	})
	engine := New[int](scorer, Config{}, WithSeed(1))

	_, err := engine.Search(context.Background(), intOptions(2, 2))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrScorer))
	assert.Contains(t, err.Error(), "boom")
}

func TestSearchFindsSeparableOptimum(t *testing.T) {
	engine := New[int](sumScorer(), Config{MaxTime: time.Hour}, WithSeed(7))

	result, err := engine.Search(context.Background(), intOptions(6, 5))
	require.NoError(t, err)
	assert.Equal(t, 24.0, result.Score)
	assert.Equal(t, []int{4, 4, 4, 4, 4, 4}, result.Indexes)
}

func TestSearchDeterministicWithSeed(t *testing.T) {
	data := intOptions(8, 6)
	scorer := ScorerFunc[int](func(values []int, indexes []int) float64 {
		score := 0.0
		for i, v := range values {
			score += float64((v * (i + 3)) % 7)
		}
		return score
	})
	cfg := Config{MaxTime: time.Hour, MaxIterations: 300}

	first, err := New[int](scorer, cfg, WithSeed(42)).Search(context.Background(), data)
	require.NoError(t, err)
	second, err := New[int](scorer, cfg, WithSeed(42)).Search(context.Background(), data)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSearchNeverWorseThanSeedPopulation(t *testing.T) {
	calls := 0
	seedBest := math.Inf(-1)
	cfg := Config{MaxTime: time.Hour, InitialParents: 30, MaxIterations: 200}
	scorer := ScorerFunc[int](func(values []int, indexes []int) float64 {
		score := 0.0
		for i, v := range values {
			score -= math.Abs(float64(v - i))
		}
		calls++
		if calls <= cfg.InitialParents && score > seedBest {
			seedBest = score
		}
		return score
	})

	result, err := New[int](scorer, cfg, WithSeed(3)).Search(context.Background(), intOptions(5, 5))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.Score, seedBest)
}

func TestSearchToleratesInfeasibleCandidates(t *testing.T) {
	data := [][]string{{"mon", "tue", "wed"}, {"am", "pm"}}
	scorer := ScorerFunc[string](func(values []string, indexes []int) float64 {
		if values[0] != "mon" {
			return math.Inf(-1)
		}
		if values[1] == "pm" {
			return 2
		}
		return 1
	})

	result, err := New[string](scorer, Config{MaxTime: time.Hour}, WithSeed(11)).Search(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, []string{"mon", "pm"}, result.Values)
	assert.Equal(t, 2.0, result.Score)
}

func TestSearchAllInfeasibleReturnsLeastBad(t *testing.T) {
	scorer := ScorerFunc[int](func(values []int, indexes []int) float64 {
		return math.Inf(-1)
	})

	result, err := New[int](scorer, Config{MaxIterations: 50}, WithSeed(5)).Search(context.Background(), intOptions(3, 3))
	require.NoError(t, err)
	assert.False(t, result.Feasible())
	assert.Len(t, result.Values, 3)
}

func TestSearchNaNScoresAreInfeasible(t *testing.T) {
	scorer := ScorerFunc[int](func(values []int, indexes []int) float64 {
		return math.NaN()
	})

	result, err := New[int](scorer, Config{MaxIterations: 20}, WithSeed(5)).Search(context.Background(), intOptions(2, 2))
	require.NoError(t, err)
	assert.True(t, math.IsInf(result.Score, -1))
}

func TestSearchStopsAtSoftDeadline(t *testing.T) {
	calls := 0
	scorer := ScorerFunc[int](func(values []int, indexes []int) float64 {
		calls++
		return 0
	})
	now := time.Unix(0, 0)
	clock := func() time.Time {
		now = now.Add(time.Second)
		return now
	}

	engine := New[int](scorer, Config{MaxTime: 500 * time.Millisecond}, WithSeed(1), WithClock(clock))
	_, err := engine.Search(context.Background(), intOptions(3, 3))
	require.NoError(t, err)
	assert.Equal(t, DefaultInitialParents+DefaultCheckIters, calls)
}

func TestSearchStopsWhenContextDone(t *testing.T) {
	calls := 0
	scorer := ScorerFunc[int](func(values []int, indexes []int) float64 {
		calls++
		return 0
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New[int](scorer, Config{MaxTime: time.Hour}, WithSeed(1)).Search(ctx, intOptions(3, 3))
	require.NoError(t, err)
	assert.Equal(t, DefaultInitialParents+DefaultCheckIters, calls)
}

func TestMutateCommitsOnlyFiniteScores(t *testing.T) {
	data := [][]string{{"a", "b"}}
	parent := Candidate[string]{Indexes: []int{0}, Values: []string{"a"}, Score: 1}

	infeasible := ScorerFunc[string](func(values []string, indexes []int) float64 {
		if values[0] == "b" {
			return math.Inf(-1)
		}
		return 1
	})
	engine := New[string](infeasible, Config{}, WithRand(rand.New(constSource(1<<32))))

	mutation := engine.mutate(data, parent)
	assert.False(t, mutation.Committed)
	assert.Equal(t, []int{0}, mutation.Candidate.Indexes)
	assert.Equal(t, []string{"b"}, mutation.Candidate.Values)
	assert.True(t, math.IsInf(mutation.Candidate.Score, -1))

	feasible := ScorerFunc[string](func(values []string, indexes []int) float64 { return 3 })
	engine = New[string](feasible, Config{}, WithRand(rand.New(constSource(1<<32))))

	mutation = engine.mutate(data, parent)
	assert.True(t, mutation.Committed)
	assert.Equal(t, []int{1}, mutation.Candidate.Indexes)
	assert.Equal(t, []string{"b"}, mutation.Candidate.Values)
	assert.Equal(t, 3.0, mutation.Candidate.Score)
	assert.Equal(t, []string{"a"}, parent.Values, "parent must not be modified")
}

func TestMutatePrefersSlotsWithChoices(t *testing.T) {
	data := [][]int{{0}, {0, 1, 2}, {0}}
	parent := Candidate[int]{Indexes: []int{0, 0, 0}, Values: []int{0, 0, 0}}
	engine := New[int](sumScorer(), Config{}, WithSeed(9))

	changed := 0
	for i := 0; i < 200; i++ {
		mutation := engine.mutate(data, parent)
		if mutation.Candidate.Values[1] != 0 {
			changed++
		}
	}
	assert.Greater(t, changed, 150)
}

func TestPickParentFavoursTopRanks(t *testing.T) {
	engine := New[int](sumScorer(), Config{}, WithSeed(21))
	counts := make([]int, DefaultMaxParents)

	for i := 0; i < 100000; i++ {
		counts[engine.pickParent(DefaultMaxParents)]++
	}

	for rank := 0; rank < DefaultBiasTop; rank++ {
		assert.Greater(t, float64(counts[rank]), 1.5*float64(counts[DefaultMaxParents-1]))
	}
}

func TestConfigDefaultsAndMerge(t *testing.T) {
	cfg := Config{MaxIterations: 10}.WithDefaults()
	assert.Equal(t, 10, cfg.MaxIterations)
	assert.Equal(t, DefaultMaxTime, cfg.MaxTime)
	assert.Equal(t, DefaultBiasTop, cfg.BiasTop)

	merged := DefaultConfig().Merge(Config{MaxParents: 4, MaxTime: time.Second})
	assert.Equal(t, 4, merged.MaxParents)
	assert.Equal(t, time.Second, merged.MaxTime)
	assert.Equal(t, DefaultInitialParents, merged.InitialParents)
}
