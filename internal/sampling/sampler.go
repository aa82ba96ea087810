// Package sampling draws uniform random samples without replacement from a
// population.
package sampling

import (
	"fmt"
	"math/rand/v2"

	"github.com/mwouters/varsim/internal/population"
)

// Config bounds the per-draw sample size. The size of each sample is chosen
// uniformly from [MinSize, min(MaxSize, populationSize)].
type Config struct {
	// MinSize is the smallest sample drawn. It must be at least 2 so the
	// n-1 estimator is always defined for a drawn sample.
	MinSize int

	// MaxSize is the largest sample drawn. Requests beyond the population
	// size are clamped, never rejected.
	MaxSize int
}

// DefaultConfig returns the sample-size bounds used by the reference
// simulation: 2 through 10.
func DefaultConfig() Config {
	return Config{MinSize: 2, MaxSize: 10}
}

// Validate checks the size bounds.
func (c Config) Validate() error {
	if c.MinSize < 2 {
		return fmt.Errorf("min sample size must be at least 2, got %d", c.MinSize)
	}
	if c.MaxSize < c.MinSize {
		return fmt.Errorf("max sample size %d below min %d", c.MaxSize, c.MinSize)
	}
	return nil
}

// Sampler draws variable-size samples without replacement. It is not safe
// for concurrent use; each simulation session owns its own Sampler.
type Sampler struct {
	cfg Config
	rng *rand.Rand
}

// New creates a sampler with a randomly seeded generator.
func New(cfg Config) *Sampler {
	return &Sampler{
		cfg: cfg,
		rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
}

// NewSeeded creates a sampler with a fixed seed, for reproducible runs and
// deterministic tests.
func NewSeeded(cfg Config, seed uint64) *Sampler {
	return &Sampler{
		cfg: cfg,
		rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Draw picks a sample size uniformly within the configured bounds and
// returns that many distinct values from the population.
func (s *Sampler) Draw(pop *population.Population) []float64 {
	lo, hi := s.cfg.MinSize, s.cfg.MaxSize
	if hi > pop.Size() {
		hi = pop.Size()
	}
	if lo > hi {
		lo = hi
	}
	k := lo + s.rng.IntN(hi-lo+1)
	return s.DrawN(pop, k)
}

// DrawN returns k distinct values drawn uniformly from the population.
// Sizes above the population size clamp to the population size.
func (s *Sampler) DrawN(pop *population.Population, k int) []float64 {
	values := pop.Values()
	if k > len(values) {
		k = len(values)
	}
	if k < 0 {
		k = 0
	}

	// Partial Fisher-Yates: after i swaps, values[:i] is a uniform
	// k-subset prefix.
	for i := 0; i < k; i++ {
		j := i + s.rng.IntN(len(values)-i)
		values[i], values[j] = values[j], values[i]
	}
	return values[:k]
}
