package visualization

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/mwouters/varsim/internal/population"
	"github.com/mwouters/varsim/internal/sampling"
	"github.com/mwouters/varsim/internal/session"
	"github.com/mwouters/varsim/internal/simulation"
)

func startTestServer(t *testing.T) (*Server, context.CancelFunc) {
	t.Helper()

	pop, err := population.New(1, 20)
	if err != nil {
		t.Fatalf("population.New: %v", err)
	}
	mgr := session.NewManager(pop, sampling.DefaultConfig(), simulation.Config{Interval: 5 * time.Millisecond}, nil)
	t.Cleanup(mgr.Close)

	srv := NewServer(mgr, 5*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go srv.ListenAndServe(ctx)
	waitForServer(t, srv, 2*time.Second)

	return srv, cancel
}

func createSession(t *testing.T, srv *Server) sessionInfo {
	t.Helper()

	resp, err := http.Post("http://"+srv.Addr()+"/api/session", "", nil)
	if err != nil {
		t.Fatalf("POST /api/session: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /api/session status = %d, want 200", resp.StatusCode)
	}

	var info sessionInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		t.Fatalf("decode session info: %v", err)
	}
	return info
}

func getState(t *testing.T, srv *Server, sessionID string) stateResponse {
	t.Helper()

	resp, err := http.Get("http://" + srv.Addr() + "/api/state?session=" + sessionID)
	if err != nil {
		t.Fatalf("GET /api/state: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/state status = %d, want 200", resp.StatusCode)
	}

	var state stateResponse
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	return state
}

func TestServerServesHTML(t *testing.T) {
	srv, _ := startTestServer(t)

	resp, err := http.Get("http://" + srv.Addr() + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET / status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q, want text/html; charset=utf-8", ct)
	}
}

func TestSessionCreationReturnsTrueVariance(t *testing.T) {
	srv, _ := startTestServer(t)

	info := createSession(t, srv)
	if info.Session == "" {
		t.Error("session info missing ID")
	}
	if info.PopulationSize != 20 {
		t.Errorf("population_size = %d, want 20", info.PopulationSize)
	}
	if info.TrueVariance < 33.24 || info.TrueVariance > 33.26 {
		t.Errorf("true_variance = %v, want 33.25", info.TrueVariance)
	}
}

func TestStateEmptyHistories(t *testing.T) {
	srv, _ := startTestServer(t)
	info := createSession(t, srv)

	state := getState(t, srv, info.Session)
	if state.Running {
		t.Error("fresh session reports running")
	}
	if state.Biased == nil || state.Unbiased == nil {
		t.Error("empty histories decoded as null, want empty arrays")
	}
	if len(state.Biased) != 0 || len(state.Unbiased) != 0 {
		t.Errorf("fresh session has history: %d/%d", len(state.Biased), len(state.Unbiased))
	}
	if state.BiasedSummary.Count != 0 || state.UnbiasedSummary.Count != 0 {
		t.Error("fresh session has non-empty bias summaries")
	}
}

func TestToggleRunsAndPausesSimulation(t *testing.T) {
	srv, _ := startTestServer(t)
	info := createSession(t, srv)

	resp, err := http.Post("http://"+srv.Addr()+"/api/toggle?session="+info.Session, "", nil)
	if err != nil {
		t.Fatalf("POST /api/toggle: %v", err)
	}
	resp.Body.Close()

	// The loop should now append pairs.
	deadline := time.Now().Add(2 * time.Second)
	var state stateResponse
	for time.Now().Before(deadline) {
		state = getState(t, srv, info.Session)
		if state.Iterations >= 3 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if state.Iterations < 3 {
		t.Fatal("no iterations produced after toggle")
	}
	if !state.Running {
		t.Error("state not running after toggle")
	}
	if len(state.Biased) != len(state.Unbiased) {
		t.Errorf("history lengths differ: %d vs %d", len(state.Biased), len(state.Unbiased))
	}
	if state.BiasedSummary.Count != state.Iterations {
		t.Errorf("bias summary count %d != iterations %d", state.BiasedSummary.Count, state.Iterations)
	}

	// Second toggle pauses.
	resp, err = http.Post("http://"+srv.Addr()+"/api/toggle?session="+info.Session, "", nil)
	if err != nil {
		t.Fatalf("POST /api/toggle: %v", err)
	}
	resp.Body.Close()

	state = getState(t, srv, info.Session)
	if state.Running {
		t.Error("state still running after second toggle")
	}
}

func TestResetClearsHistories(t *testing.T) {
	srv, _ := startTestServer(t)
	info := createSession(t, srv)

	// Run a little, then reset.
	resp, err := http.Post("http://"+srv.Addr()+"/api/toggle?session="+info.Session, "", nil)
	if err != nil {
		t.Fatalf("POST /api/toggle: %v", err)
	}
	resp.Body.Close()
	deadline := time.Now().Add(2 * time.Second)
	for getState(t, srv, info.Session).Iterations == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	resp, err = http.Post("http://"+srv.Addr()+"/api/reset?session="+info.Session, "", nil)
	if err != nil {
		t.Fatalf("POST /api/reset: %v", err)
	}
	resp.Body.Close()

	state := getState(t, srv, info.Session)
	if state.Running {
		t.Error("state running after reset")
	}
	if state.Iterations != 0 || len(state.Biased) != 0 || len(state.Unbiased) != 0 {
		t.Errorf("reset left history: %+v", state)
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	srv, _ := startTestServer(t)

	a := createSession(t, srv)
	b := createSession(t, srv)

	resp, err := http.Post("http://"+srv.Addr()+"/api/toggle?session="+a.Session, "", nil)
	if err != nil {
		t.Fatalf("POST /api/toggle: %v", err)
	}
	resp.Body.Close()

	if getState(t, srv, b.Session).Running {
		t.Error("toggling session a started session b")
	}
}

func TestUnknownAndMissingSession(t *testing.T) {
	srv, _ := startTestServer(t)

	resp, err := http.Get("http://" + srv.Addr() + "/api/state?session=nope")
	if err != nil {
		t.Fatalf("GET /api/state: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown session status = %d, want 404", resp.StatusCode)
	}

	resp, err = http.Get("http://" + srv.Addr() + "/api/state")
	if err != nil {
		t.Fatalf("GET /api/state: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing session status = %d, want 400", resp.StatusCode)
	}
}

func TestControlEndpointsRequirePOST(t *testing.T) {
	srv, _ := startTestServer(t)
	info := createSession(t, srv)

	for _, path := range []string{"/api/toggle", "/api/reset", "/api/close", "/api/session"} {
		url := "http://" + srv.Addr() + path
		if !strings.Contains(path, "session") {
			url += "?session=" + info.Session
		}
		resp, err := http.Get(url)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("GET %s status = %d, want 405", path, resp.StatusCode)
		}
	}
}

func TestCloseRemovesSession(t *testing.T) {
	srv, _ := startTestServer(t)
	info := createSession(t, srv)

	resp, err := http.Post("http://"+srv.Addr()+"/api/close?session="+info.Session, "", nil)
	if err != nil {
		t.Fatalf("POST /api/close: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("close status = %d, want 204", resp.StatusCode)
	}

	resp, err = http.Get("http://" + srv.Addr() + "/api/state?session=" + info.Session)
	if err != nil {
		t.Fatalf("GET /api/state: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("state after close status = %d, want 404", resp.StatusCode)
	}
}

func TestCleanShutdown(t *testing.T) {
	pop, err := population.New(1, 20)
	if err != nil {
		t.Fatalf("population.New: %v", err)
	}
	mgr := session.NewManager(pop, sampling.DefaultConfig(), simulation.DefaultConfig(), nil)
	t.Cleanup(mgr.Close)

	srv := NewServer(mgr, 350*time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(ctx) }()

	waitForServer(t, srv, 2*time.Second)

	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("unexpected error on shutdown: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down within 3 seconds")
	}
}

// waitForServer polls the server until it's ready or the timeout is reached.
func waitForServer(t *testing.T, srv *Server, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		addr := srv.Addr()
		if addr == "" {
			time.Sleep(10 * time.Millisecond)
			continue
		}
		resp, err := http.Get("http://" + addr + "/")
		if err == nil {
			resp.Body.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("server did not start within timeout")
}
