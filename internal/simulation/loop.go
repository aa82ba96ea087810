package simulation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mwouters/varsim/internal/estimator"
	"github.com/mwouters/varsim/internal/logging"
	"github.com/mwouters/varsim/internal/population"
	"github.com/mwouters/varsim/internal/sampling"
)

// Config holds the loop timing.
type Config struct {
	// Interval is the pause between iterations while running.
	Interval time.Duration
}

// DefaultConfig returns the reference iteration cadence of 350ms.
func DefaultConfig() Config {
	return Config{Interval: 350 * time.Millisecond}
}

// Validate checks the loop configuration.
func (c Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("iteration interval must be positive, got %v", c.Interval)
	}
	return nil
}

// Loop produces estimate pairs from repeated random samples.
// One Loop drives one State; neither is shared across sessions.
type Loop struct {
	pop      *population.Population
	sampler  *sampling.Sampler
	state    *State
	interval time.Duration
	logger   *slog.Logger
	tracer   *logging.TraceLogger
}

// NewLoop wires a loop to its population, sampler, and state.
// A nil logger discards operational output.
func NewLoop(pop *population.Population, sampler *sampling.Sampler, state *State, cfg Config, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loop{
		pop:      pop,
		sampler:  sampler,
		state:    state,
		interval: cfg.Interval,
		logger:   logger,
	}
}

// SetTracer attaches an optional iteration trace logger. A nil tracer is
// valid and disables tracing.
func (l *Loop) SetTracer(t *logging.TraceLogger) {
	l.tracer = t
}

// State returns the state this loop appends to.
func (l *Loop) State() *State {
	return l.state
}

// Tick runs at most one iteration. It reports whether an iteration was
// performed; a paused loop does nothing and returns false.
//
// The sampler's minimum size keeps every drawn sample at n >= 2, so the
// unbiased estimator cannot fail here. If that precondition is ever broken
// the loop stops itself and surfaces the error instead of recording a
// lopsided history.
func (l *Loop) Tick() (bool, error) {
	if !l.state.Running() {
		return false, nil
	}

	sample := l.sampler.Draw(l.pop)
	biased := estimator.Biased(sample)
	unbiased, err := estimator.Unbiased(sample)
	if err != nil {
		l.state.Stop()
		return false, fmt.Errorf("estimate sample of size %d: %w", len(sample), err)
	}

	l.state.Append(biased, unbiased)

	n := l.state.Iterations()
	l.logger.Log(context.Background(), logging.LevelTrace, "iteration",
		"n", n, "size", len(sample), "biased", biased, "unbiased", unbiased)
	l.tracer.Log(map[string]any{
		"iteration": n,
		"size":      len(sample),
		"biased":    biased,
		"unbiased":  unbiased,
	})

	return true, nil
}

// Run ticks at the configured interval until the context is cancelled.
// Pausing does not stop Run; it makes ticks no-ops, so the same goroutine
// serves any number of start/pause cycles.
func (l *Loop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := l.Tick(); err != nil {
				l.logger.Error("iteration failed", "error", err)
			}
		}
	}
}
