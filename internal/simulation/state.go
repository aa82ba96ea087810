package simulation

import "sync"

// State tracks one session's run flag and estimate histories.
// Safe for concurrent use; the loop goroutine appends while HTTP handlers
// toggle, reset, and snapshot.
type State struct {
	mu       sync.RWMutex
	running  bool
	biased   []float64
	unbiased []float64
}

// Snapshot is a deep copy of the observable state, handed to renderers.
// Histories are never nil so they serialize as empty JSON arrays rather
// than null.
type Snapshot struct {
	Running    bool      `json:"running"`
	Iterations int       `json:"iterations"`
	Biased     []float64 `json:"biased"`
	Unbiased   []float64 `json:"unbiased"`
}

// NewState returns an idle state with empty histories.
func NewState() *State {
	return &State{}
}

// Toggle flips the run flag and returns the new value.
func (s *State) Toggle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running = !s.running
	return s.running
}

// Running reports whether the loop should produce samples.
func (s *State) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.running
}

// Stop clears the run flag without touching the histories.
func (s *State) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running = false
}

// Reset stops the simulation and clears both histories, regardless of the
// current state.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running = false
	s.biased = nil
	s.unbiased = nil
}

// Append records one iteration's estimate pair. Both histories grow under a
// single lock acquisition, so no observer ever sees them at different
// lengths.
func (s *State) Append(biased, unbiased float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.biased = append(s.biased, biased)
	s.unbiased = append(s.unbiased, unbiased)
}

// Iterations returns how many estimate pairs have been recorded.
func (s *State) Iterations() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.biased)
}

// Snapshot returns a deep copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Running:    s.running,
		Iterations: len(s.biased),
		Biased:     make([]float64, len(s.biased)),
		Unbiased:   make([]float64, len(s.unbiased)),
	}
	copy(snap.Biased, s.biased)
	copy(snap.Unbiased, s.unbiased)
	return snap
}
