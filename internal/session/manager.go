// Package session manages independent simulator instances, one per UI
// session. Sessions never share state: each gets its own histories and its
// own random stream, so two open pages cannot mutate each other's run.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/mwouters/varsim/internal/logging"
	"github.com/mwouters/varsim/internal/population"
	"github.com/mwouters/varsim/internal/sampling"
	"github.com/mwouters/varsim/internal/simulation"
)

// Session is one isolated simulator: a state, the loop feeding it, and the
// cancel handle that stops the loop goroutine.
type Session struct {
	ID     string
	State  *simulation.State
	Loop   *simulation.Loop
	cancel context.CancelFunc
}

// Manager creates and tracks sessions against a shared immutable population.
// Safe for concurrent use by HTTP handlers.
type Manager struct {
	mu          sync.Mutex
	pop         *population.Population
	samplingCfg sampling.Config
	loopCfg     simulation.Config
	logger      *slog.Logger
	tracer      *logging.TraceLogger
	sessions    map[string]*Session
}

// NewManager creates a session manager. The population is shared read-only
// across sessions; everything mutable is per-session.
func NewManager(pop *population.Population, samplingCfg sampling.Config, loopCfg simulation.Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		pop:         pop,
		samplingCfg: samplingCfg,
		loopCfg:     loopCfg,
		logger:      logger,
		sessions:    make(map[string]*Session),
	}
}

// SetTracer attaches an iteration trace logger shared by all sessions.
// A nil tracer disables tracing.
func (m *Manager) SetTracer(t *logging.TraceLogger) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tracer = t
}

// Population returns the shared population.
func (m *Manager) Population() *population.Population {
	return m.pop
}

// Create starts a new idle session and its loop goroutine. The loop stops
// when the session is removed, the manager closes, or ctx is cancelled.
func (m *Manager) Create(ctx context.Context) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	state := simulation.NewState()
	loop := simulation.NewLoop(m.pop, sampling.New(m.samplingCfg), state, m.loopCfg, m.logger)
	loop.SetTracer(m.tracer)

	loopCtx, cancel := context.WithCancel(ctx)
	sess := &Session{
		ID:     uuid.NewString(),
		State:  state,
		Loop:   loop,
		cancel: cancel,
	}
	m.sessions[sess.ID] = sess

	go loop.Run(loopCtx)

	m.logger.Debug("session created", "session", sess.ID)
	return sess
}

// Get returns the session with the given ID.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	return sess, ok
}

// Remove stops a session's loop and forgets it. Unknown IDs are ignored.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess, ok := m.sessions[id]
	if !ok {
		return
	}
	sess.cancel()
	delete(m.sessions, id)
	m.logger.Debug("session removed", "session", id)
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.sessions)
}

// Close stops every session's loop.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, sess := range m.sessions {
		sess.cancel()
		delete(m.sessions, id)
	}
}
