package gateway

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/pai-sh/pai/internal/events"
	"github.com/pai-sh/pai/internal/registry"
	"github.com/pai-sh/pai/internal/sessions"
	"github.com/pai-sh/pai/internal/worker"
)

func newTestServer(t *testing.T) (*Server, *events.Bus) {
	t.Helper()
	dir := t.TempDir()

	bus := events.NewBus(16)
	t.Cleanup(bus.Close)

	reg, err := registry.Open(filepath.Join(dir, "registry.json"))
	if err != nil {
		t.Fatalf("registry.Open: %v", err)
	}
	if err := reg.Add("api", dir); err != nil {
		t.Fatalf("registry.Add: %v", err)
	}

	sessStore := sessions.NewFileStore(filepath.Join(dir, "sessions"))
	if _, err := sessStore.Create("api"); err != nil {
		t.Fatalf("sessions.Create: %v", err)
	}

	runStore := worker.NewRunStore(filepath.Join(dir, "runs"))
	if err := runStore.Create(&worker.Run{Command: "worker"}); err != nil {
		t.Fatalf("runs.Create: %v", err)
	}

	srv := NewServer(Options{
		Bus:      bus,
		Projects: reg,
		Sessions: sessStore,
		Runs:     runStore,
		Host:     "127.0.0.1",
		Port:     0,
	})
	return srv, bus
}

func getJSON(t *testing.T, ts *httptest.Server, path string, out any) *http.Response {
	t.Helper()
	resp, err := ts.Client().Get(ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return resp
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	var body map[string]any
	resp := getJSON(t, ts, "/api/health", &body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v", body["status"])
	}
}

func TestHandleEvents(t *testing.T) {
	srv, bus := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	bus.Publish(events.NewProjectEvent(events.EventSkillInvoked, events.SourceCLI,
		map[string]any{"skill": "content-scanner"}, "api"))

	// Dispatch is asynchronous; poll until the event lands in history.
	var body []map[string]any
	deadline := time.Now().Add(2 * time.Second)
	for {
		body = nil
		getJSON(t, ts, "/api/events?limit=10", &body)
		if len(body) > 0 || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if len(body) == 0 {
		t.Fatal("expected at least one event")
	}
	last := body[len(body)-1]
	if last["type"] != "skill.invoked" || last["project"] != "api" {
		t.Errorf("last event = %v", last)
	}
}

func TestHandleProjects(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	var body []map[string]any
	getJSON(t, ts, "/api/projects", &body)

	if len(body) != 1 {
		t.Fatalf("projects = %v", body)
	}
	if body[0]["name"] != "api" {
		t.Errorf("name = %v", body[0]["name"])
	}
}

func TestHandleSessions(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	var body []map[string]any
	getJSON(t, ts, "/api/sessions", &body)
	if len(body) != 1 {
		t.Fatalf("sessions = %v", body)
	}

	var filtered []map[string]any
	getJSON(t, ts, "/api/sessions?project=other", &filtered)
	if len(filtered) != 0 {
		t.Errorf("filtered sessions = %v", filtered)
	}
}

func TestHandleRuns(t *testing.T) {
	srv, _ := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	var body []map[string]any
	getJSON(t, ts, "/api/runs", &body)
	if len(body) != 1 {
		t.Fatalf("runs = %v", body)
	}
	if body[0]["status"] != "pending" {
		t.Errorf("status = %v", body[0]["status"])
	}
}

func TestMissingStoresReturn503(t *testing.T) {
	bus := events.NewBus(16)
	defer bus.Close()

	srv := NewServer(Options{Bus: bus, Host: "127.0.0.1", Port: 0})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	for _, path := range []string{"/api/projects", "/api/sessions", "/api/runs"} {
		resp, err := ts.Client().Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("%s status = %d, want 503", path, resp.StatusCode)
		}
	}
}
