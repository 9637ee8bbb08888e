package worker

import (
	"context"
	"testing"

	"github.com/pai-sh/pai/internal/config"
)

type scriptedRunner struct {
	results []SessionResult
	calls   int
}

func (r *scriptedRunner) RunSession(ctx context.Context, sessionID string) SessionResult {
	var res SessionResult
	if r.calls < len(r.results) {
		res = r.results[r.calls]
	} else {
		res = SessionResult{Success: true}
	}
	r.calls++
	res.SessionID = sessionID
	return res
}

func testConfig() config.OrchestrateConfig {
	return config.OrchestrateConfig{
		MaxSessions:        50,
		CheckpointInterval: 5,
		MaxRetries:         2,
	}
}

func TestRunStoreRoundTrip(t *testing.T) {
	store := NewRunStore(t.TempDir())

	run := &Run{Command: "worker --once", Project: "api"}
	if err := store.Create(run); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if run.ID == "" || run.Status != RunPending {
		t.Fatalf("run = %+v", run)
	}

	got, err := store.Get(run.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Command != "worker --once" || got.Project != "api" {
		t.Errorf("got %+v", got)
	}

	if err := store.AppendSession(run.ID, SessionResult{SessionID: "s0", Success: true}); err != nil {
		t.Fatalf("AppendSession: %v", err)
	}
	sessions, err := store.LoadSessions(run.ID)
	if err != nil {
		t.Fatalf("LoadSessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].SessionID != "s0" {
		t.Errorf("sessions = %+v", sessions)
	}
}

func TestExecuteStopsWhenAllTestsPass(t *testing.T) {
	store := NewRunStore(t.TempDir())
	runner := &scriptedRunner{results: []SessionResult{
		{Success: true},
		{Success: true},
		{Success: true, AllTestsPassed: true},
	}}

	run := &Run{Command: "worker"}
	if err := store.Create(run); err != nil {
		t.Fatalf("Create: %v", err)
	}

	w := New(testConfig(), store, runner, nil, nil)
	if err := w.Execute(context.Background(), run); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if !run.AllTestsPassed {
		t.Error("AllTestsPassed should be set")
	}
	if run.SessionCount != 3 {
		t.Errorf("SessionCount = %d, want 3", run.SessionCount)
	}
	if run.Status != RunCompleted {
		t.Errorf("Status = %q", run.Status)
	}
	if run.SuccessRate != 1.0 {
		t.Errorf("SuccessRate = %v, want 1.0", run.SuccessRate)
	}

	persisted, err := store.Get(run.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if persisted.Status != RunCompleted || !persisted.AllTestsPassed {
		t.Errorf("persisted = %+v", persisted)
	}
}

func TestExecuteRetriesFailedSessions(t *testing.T) {
	store := NewRunStore(t.TempDir())
	// Two failures then success within one session's retry budget.
	runner := &scriptedRunner{results: []SessionResult{
		{Success: false, Error: "flaky"},
		{Success: false, Error: "flaky"},
		{Success: true, AllTestsPassed: true},
	}}

	run := &Run{Command: "worker"}
	if err := store.Create(run); err != nil {
		t.Fatalf("Create: %v", err)
	}

	w := New(testConfig(), store, runner, nil, nil)
	if err := w.Execute(context.Background(), run); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if runner.calls != 3 {
		t.Errorf("runner calls = %d, want 3 (two retries)", runner.calls)
	}
	if run.SessionsFailed != 0 {
		t.Errorf("SessionsFailed = %d, want 0", run.SessionsFailed)
	}
	if run.SessionCount != 1 {
		t.Errorf("SessionCount = %d, want 1", run.SessionCount)
	}
}

func TestExecuteCountsExhaustedRetriesAsFailed(t *testing.T) {
	store := NewRunStore(t.TempDir())
	runner := &scriptedRunner{results: []SessionResult{
		{Success: false}, {Success: false}, {Success: false}, // session 0: exhausts retries
		{Success: true, AllTestsPassed: true}, // session 1
	}}

	run := &Run{Command: "worker"}
	if err := store.Create(run); err != nil {
		t.Fatalf("Create: %v", err)
	}

	w := New(testConfig(), store, runner, nil, nil)
	if err := w.Execute(context.Background(), run); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if run.SessionsFailed != 1 {
		t.Errorf("SessionsFailed = %d, want 1", run.SessionsFailed)
	}
	if run.SessionsCompleted != 1 {
		t.Errorf("SessionsCompleted = %d, want 1", run.SessionsCompleted)
	}
	if run.SuccessRate != 0.5 {
		t.Errorf("SuccessRate = %v, want 0.5", run.SuccessRate)
	}
}

func TestExecuteRespectsSessionBudget(t *testing.T) {
	store := NewRunStore(t.TempDir())
	runner := &scriptedRunner{} // always succeeds, never passes all tests

	run := &Run{Command: "worker", MaxSessions: 4, CheckpointInterval: 2}
	if err := store.Create(run); err != nil {
		t.Fatalf("Create: %v", err)
	}

	var checkpoints []int
	w := New(testConfig(), store, runner, nil, func(r *Run, n int) (bool, []string) {
		checkpoints = append(checkpoints, n)
		return true, nil
	})
	if err := w.Execute(context.Background(), run); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if run.SessionCount != 4 {
		t.Errorf("SessionCount = %d, want 4", run.SessionCount)
	}
	if run.AllTestsPassed {
		t.Error("AllTestsPassed should be false")
	}
	if len(checkpoints) != 1 || checkpoints[0] != 2 {
		t.Errorf("checkpoints = %v, want [2]", checkpoints)
	}
}

func TestSessionEnvLayersExtraEntries(t *testing.T) {
	t.Setenv("SESSION_ENV_PARENT", "inherited")

	r := &CommandRunner{Env: []string{"GITHUB_TOKEN=ghp_abc"}}
	env := r.sessionEnv()

	var sawParent, sawExtra bool
	for _, kv := range env {
		switch kv {
		case "SESSION_ENV_PARENT=inherited":
			sawParent = true
		case "GITHUB_TOKEN=ghp_abc":
			sawExtra = true
		}
	}
	if !sawParent {
		t.Error("session env lost the parent environment")
	}
	if !sawExtra {
		t.Error("session env missing the injected entry")
	}

	empty := &CommandRunner{}
	if empty.sessionEnv() != nil {
		t.Error("no extra entries should mean nil (inherit)")
	}
}

func TestParseMetrics(t *testing.T) {
	tests := []struct {
		name   string
		stdout string
		want   bool // whether metrics should be non-nil
	}{
		{"last line json", "working...\n{\"all_tests_passed\": true}\n", true},
		{"trailing blank lines", "{\"files_changed\": 3}\n\n\n", true},
		{"not json", "plain log output\n", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseMetrics(tt.stdout)
			if (got != nil) != tt.want {
				t.Errorf("ParseMetrics(%q) = %v", tt.stdout, got)
			}
		})
	}

	m := ParseMetrics("{\"all_tests_passed\": true, \"tests_run\": 12}")
	if v, ok := m["all_tests_passed"].(bool); !ok || !v {
		t.Errorf("all_tests_passed = %v", m["all_tests_passed"])
	}
}
