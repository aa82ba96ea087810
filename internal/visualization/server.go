// Package visualization serves the interactive simulator page. It is a pure
// consumer of simulation snapshots: nothing here writes back into the core
// beyond the toggle/reset control actions the page exposes, and a rendering
// or transport failure never corrupts a session's state.
package visualization

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/mwouters/varsim/internal/session"
	"github.com/mwouters/varsim/internal/summary"
)

// Server serves the simulator HTML and the session state/control API.
type Server struct {
	sessions   *session.Manager
	interval   time.Duration
	logger     *slog.Logger
	httpServer *http.Server
	listener   net.Listener
	mu         sync.Mutex
	addr       string
}

// NewServer creates a visualization server over the given session manager.
// interval is the loop cadence, advertised to the page as its poll rate.
func NewServer(sessions *session.Manager, interval time.Duration, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Server{
		sessions: sessions,
		interval: interval,
		logger:   logger,
	}
}

// Addr returns the address the server is listening on (e.g., "localhost:PORT").
// Returns empty string if the server hasn't started yet.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// ListenAndServe starts the HTTP server on an OS-assigned port and blocks
// until the context is cancelled. Returns nil on clean shutdown.
func (s *Server) ListenAndServe(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/session", s.handleNewSession)
	mux.HandleFunc("/api/state", s.handleState)
	mux.HandleFunc("/api/toggle", s.handleToggle)
	mux.HandleFunc("/api/reset", s.handleReset)
	mux.HandleFunc("/api/close", s.handleClose)

	// Let the OS pick a free port.
	ln, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	s.mu.Lock()
	s.listener = ln
	s.addr = ln.Addr().String()
	s.httpServer = &http.Server{Handler: mux}
	s.mu.Unlock()

	// Graceful shutdown when context is cancelled.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	err = s.httpServer.Serve(ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// handleIndex serves the simulator page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	html, err := templates.ReadFile("templates/index.html")
	if err != nil {
		http.Error(w, "render error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(html)
}

// sessionInfo is the response to session creation: everything the page
// needs that never changes for the session's lifetime.
type sessionInfo struct {
	Session        string  `json:"session"`
	TrueVariance   float64 `json:"true_variance"`
	PopulationSize int     `json:"population_size"`
	IntervalMillis int64   `json:"interval_ms"`
}

// handleNewSession creates an isolated simulator for one page load.
func (s *Server) handleNewSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sess := s.sessions.Create(context.Background())
	pop := s.sessions.Population()

	writeJSON(w, sessionInfo{
		Session:        sess.ID,
		TrueVariance:   pop.TrueVariance(),
		PopulationSize: pop.Size(),
		IntervalMillis: s.interval.Milliseconds(),
	})
}

// stateResponse carries one snapshot plus the derived series the box panels
// need. Histories and summaries are always present; empty histories produce
// empty arrays and zero summaries, never errors.
type stateResponse struct {
	Running         bool            `json:"running"`
	Iterations      int             `json:"iterations"`
	TrueVariance    float64         `json:"true_variance"`
	Biased          []float64       `json:"biased"`
	Unbiased        []float64       `json:"unbiased"`
	BiasedSummary   summary.Summary `json:"biased_bias_summary"`
	UnbiasedSummary summary.Summary `json:"unbiased_bias_summary"`
}

// handleState returns the current snapshot for a session.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	snap := sess.State.Snapshot()
	trueVariance := s.sessions.Population().TrueVariance()

	writeJSON(w, stateResponse{
		Running:         snap.Running,
		Iterations:      snap.Iterations,
		TrueVariance:    trueVariance,
		Biased:          snap.Biased,
		Unbiased:        snap.Unbiased,
		BiasedSummary:   summary.Describe(summary.Bias(snap.Biased, trueVariance)),
		UnbiasedSummary: summary.Describe(summary.Bias(snap.Unbiased, trueVariance)),
	})
}

// handleToggle flips a session's run flag.
func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	running := sess.State.Toggle()
	s.logger.Debug("toggle", "session", sess.ID, "running", running)
	writeJSON(w, map[string]bool{"running": running})
}

// handleReset stops a session and clears its histories.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	sess.State.Reset()
	s.logger.Debug("reset", "session", sess.ID)
	writeJSON(w, map[string]bool{"running": false})
}

// handleClose removes a session. Pages call this on unload; a session that
// never closes just idles until shutdown.
func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := r.URL.Query().Get("session")
	if id == "" {
		http.Error(w, "missing 'session' query parameter", http.StatusBadRequest)
		return
	}

	s.sessions.Remove(id)
	w.WriteHeader(http.StatusNoContent)
}

// lookupSession resolves the session query parameter, writing the error
// response itself when the parameter is missing or unknown.
func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := r.URL.Query().Get("session")
	if id == "" {
		http.Error(w, "missing 'session' query parameter", http.StatusBadRequest)
		return nil, false
	}

	sess, ok := s.sessions.Get(id)
	if !ok {
		http.Error(w, "session not found: "+id, http.StatusNotFound)
		return nil, false
	}
	return sess, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
