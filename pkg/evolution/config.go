package evolution

import "time"

// Engine tunables used when a Config field is left at zero.
const (
	DefaultMaxTime        = 500 * time.Millisecond
	DefaultMaxIterations  = 5000
	DefaultCheckIters     = 10
	DefaultInitialParents = 100
	DefaultMaxParents     = 20
	DefaultBiasTop        = 5

	// maxAttempts bounds the retries spent looking for a mutable slot
	// and for a value different from the parent's.
	maxAttempts = 10
)

// Config governs a single search run. Every field is defaulted
// independently, so a partially filled Config is valid.
type Config struct {
	// MaxTime is a soft deadline checked only when the population is culled.
	MaxTime time.Duration `json:"maxTime"`
	// MaxIterations caps the number of mutations.
	MaxIterations int `json:"maxIterations"`
	// CheckIters is the cull (and deadline check) period in iterations.
	CheckIters int `json:"checkIters"`
	// InitialParents is the size of the randomly seeded population.
	InitialParents int `json:"initialParents"`
	// MaxParents is the population size kept after each cull.
	MaxParents int `json:"maxParents"`
	// BiasTop widens the parent draw so that top-ranked parents are picked more often.
	BiasTop int `json:"biasTop"`
}

// DefaultConfig returns the stock tunables.
func DefaultConfig() Config {
	return Config{
		MaxTime:        DefaultMaxTime,
		MaxIterations:  DefaultMaxIterations,
		CheckIters:     DefaultCheckIters,
		InitialParents: DefaultInitialParents,
		MaxParents:     DefaultMaxParents,
		BiasTop:        DefaultBiasTop,
	}
}

// WithDefaults fills every non-positive field with its default.
func (c Config) WithDefaults() Config {
	return DefaultConfig().Merge(c)
}

// Merge returns c with every positive field of override applied on top.
func (c Config) Merge(override Config) Config {
	if override.MaxTime > 0 {
		c.MaxTime = override.MaxTime
	}
	if override.MaxIterations > 0 {
		c.MaxIterations = override.MaxIterations
	}
	if override.CheckIters > 0 {
		c.CheckIters = override.CheckIters
	}
	if override.InitialParents > 0 {
		c.InitialParents = override.InitialParents
	}
	if override.MaxParents > 0 {
		c.MaxParents = override.MaxParents
	}
	if override.BiasTop > 0 {
		c.BiasTop = override.BiasTop
	}
	return c
}
