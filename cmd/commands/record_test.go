package commands

import (
	"errors"
	"testing"
	"time"

	"github.com/pai-sh/pai/internal/config"
	"github.com/pai-sh/pai/internal/history"
	"github.com/pai-sh/pai/internal/scheduler"
	"github.com/pai-sh/pai/internal/worker"
)

func listHistory(t *testing.T, tool string) []history.Record {
	t.Helper()
	store, err := history.Open(config.HistoryPath())
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	defer store.Close()

	records, err := store.List(tool, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	return records
}

func TestRecordOrchestrationAppendsHistory(t *testing.T) {
	t.Setenv("PAI_PATH", t.TempDir())

	run := &worker.Run{
		ID:          "run_ab12cd34",
		Project:     "api",
		WorkDir:     "/srv/api",
		Status:      worker.RunCompleted,
		SuccessRate: 0.75,
	}
	recordOrchestration(run, 90*time.Second)

	records := listHistory(t, "orchestrate")
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	r := records[0]
	if r.Outcome != history.OutcomePassed {
		t.Errorf("Outcome = %q, want passed", r.Outcome)
	}
	if r.Target != "/srv/api" || r.Project != "api" {
		t.Errorf("Target/Project = %q/%q", r.Target, r.Project)
	}
	if r.Score != 0.75 {
		t.Errorf("Score = %v, want 0.75", r.Score)
	}
}

func TestRecordOrchestrationFailedRun(t *testing.T) {
	t.Setenv("PAI_PATH", t.TempDir())

	recordOrchestration(&worker.Run{Status: worker.RunFailed, WorkDir: "/srv/api"}, time.Second)

	records := listHistory(t, "orchestrate")
	if len(records) != 1 || records[0].Outcome != history.OutcomeFailed {
		t.Errorf("records = %+v, want one failed record", records)
	}
}

func TestSecretsEnvDecryptsVault(t *testing.T) {
	t.Setenv("PAI_PATH", t.TempDir())

	if got := secretsEnv(); got != nil {
		t.Errorf("no vault should yield nil env, got %v", got)
	}

	vault, err := openVault()
	if err != nil {
		t.Fatalf("openVault: %v", err)
	}
	if err := vault.Set("GITHUB_TOKEN", "ghp_abc"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	env := secretsEnv()
	if len(env) != 1 || env[0] != "GITHUB_TOKEN=ghp_abc" {
		t.Errorf("env = %v, want the decrypted secret pair", env)
	}
}

func TestRecordScheduleTriggerAppendsHistory(t *testing.T) {
	t.Setenv("PAI_PATH", t.TempDir())

	entry := &scheduler.ScheduleEntry{
		ID:      "sched_ab12cd34",
		Project: "api",
		Target:  scheduler.Target{Kind: scheduler.TargetValidate, Name: "gaming", Path: "/srv/api"},
	}
	recordScheduleTrigger(entry, nil, 2*time.Second)
	recordScheduleTrigger(entry, errors.New("scan failed"), time.Second)

	records := listHistory(t, "schedule.validate")
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	// Newest first.
	if records[0].Outcome != history.OutcomeError {
		t.Errorf("newest Outcome = %q, want error", records[0].Outcome)
	}
	if records[1].Outcome != history.OutcomePassed {
		t.Errorf("oldest Outcome = %q, want passed", records[1].Outcome)
	}
	if records[0].Target != "/srv/api" {
		t.Errorf("Target = %q, want the scan path", records[0].Target)
	}
}
