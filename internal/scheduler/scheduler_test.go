package scheduler

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pai-sh/pai/internal/events"
)

func TestParseCronAndMatches(t *testing.T) {
	expr, err := ParseCron("*/5 * * * *")
	if err != nil {
		t.Fatalf("ParseCron: %v", err)
	}

	at := time.Date(2026, 8, 28, 10, 5, 30, 0, time.UTC)
	if !expr.Matches(at) {
		t.Error("10:05 should match */5")
	}
	if expr.Matches(at.Add(time.Minute)) {
		t.Error("10:06 should not match */5")
	}

	next := expr.Next(at)
	if next.Minute() != 10 {
		t.Errorf("Next minute = %d, want 10", next.Minute())
	}
}

func TestParseCronInvalid(t *testing.T) {
	if _, err := ParseCron("not a cron"); err == nil {
		t.Error("expected error for invalid cron")
	}
	// 6-field (with seconds) specs are rejected.
	if _, err := ParseCron("0 0 * * * *"); err == nil {
		t.Error("expected error for 6-field cron")
	}
}

func TestTargetValidate(t *testing.T) {
	if err := (Target{Kind: TargetSkill, Name: "content-scanner"}).Validate(); err != nil {
		t.Errorf("skill target: %v", err)
	}
	if err := (Target{Kind: TargetValidate, Name: "gaming"}).Validate(); err != nil {
		t.Errorf("validate target: %v", err)
	}
	if err := (Target{Kind: TargetValidate, Name: "other"}).Validate(); err == nil {
		t.Error("expected error for unknown validator")
	}
	if err := (Target{Kind: "weird"}).Validate(); err == nil {
		t.Error("expected error for unknown kind")
	}
	if err := (Target{Kind: TargetSkill}).Validate(); err == nil {
		t.Error("expected error for skill target without name")
	}
}

func TestStoreRoundTrip(t *testing.T) {
	store := NewScheduleStore(t.TempDir())

	entry := &ScheduleEntry{
		Title:    "nightly gaming scan",
		Target:   Target{Kind: TargetValidate, Name: "gaming", Path: "/srv/api"},
		CronSpec: "0 2 * * *",
		Enabled:  true,
	}
	if err := store.Create(entry); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if !strings.HasPrefix(entry.ID, "sched_") {
		t.Errorf("ID = %q", entry.ID)
	}

	got, err := store.Get(entry.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Target.Name != "gaming" || got.CronSpec != "0 2 * * *" {
		t.Errorf("got %+v", got)
	}

	got.RunCount = 3
	if err := store.Update(got); err != nil {
		t.Fatalf("Update: %v", err)
	}
	again, err := store.Get(entry.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if again.RunCount != 3 {
		t.Errorf("RunCount = %d, want 3", again.RunCount)
	}

	if err := store.Delete(entry.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(entry.ID); err == nil {
		t.Error("expected error after delete")
	}
}

func TestAddEntryValidation(t *testing.T) {
	s := New(Config{})

	err := s.AddEntry(&ScheduleEntry{Title: "no trigger", Target: Target{Kind: TargetSkill, Name: "x"}, Enabled: true})
	if err == nil {
		t.Error("expected error for entry without any trigger")
	}

	err = s.AddEntry(&ScheduleEntry{Title: "fast", Target: Target{Kind: TargetSkill, Name: "x"}, IntervalSec: 2, Enabled: true})
	if err == nil {
		t.Error("expected error for sub-5s interval")
	}

	err = s.AddEntry(&ScheduleEntry{Title: "bad cron", Target: Target{Kind: TargetSkill, Name: "x"}, CronSpec: "nope", Enabled: true})
	if err == nil {
		t.Error("expected error for invalid cron")
	}
}

func TestCheckCronFiresAndRespectsCooldown(t *testing.T) {
	var mu sync.Mutex
	var fired []string

	s := New(Config{Trigger: func(e *ScheduleEntry, trigger string) error {
		mu.Lock()
		fired = append(fired, trigger)
		mu.Unlock()
		return nil
	}})

	if err := s.AddEntry(&ScheduleEntry{
		Title:       "every minute",
		Target:      Target{Kind: TargetSkill, Name: "content-scanner"},
		CronSpec:    "* * * * *",
		CooldownSec: 60,
		Enabled:     true,
	}); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}

	now := time.Date(2026, 8, 28, 10, 0, 5, 0, time.UTC)
	s.checkCron(now)
	s.checkCron(now.Add(10 * time.Second)) // within cooldown, no second fire

	mu.Lock()
	defer mu.Unlock()
	if len(fired) != 1 {
		t.Fatalf("fired %d times, want 1", len(fired))
	}
	if fired[0] != "cron" {
		t.Errorf("trigger = %q, want cron", fired[0])
	}
}

func TestMaxRunsDisablesEntry(t *testing.T) {
	s := New(Config{Trigger: func(e *ScheduleEntry, trigger string) error { return nil }})

	if err := s.AddEntry(&ScheduleEntry{
		Title:       "limited",
		Target:      Target{Kind: TargetSkill, Name: "x"},
		IntervalSec: 5,
		MaxRuns:     1,
		Enabled:     true,
	}); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}

	s.checkIntervals(time.Now().Add(time.Hour))

	entries := s.ListEntries()
	if len(entries) != 1 {
		t.Fatalf("entries = %d", len(entries))
	}
	if entries[0].Enabled {
		t.Error("entry should be disabled after reaching max runs")
	}
	if entries[0].RunCount != 1 {
		t.Errorf("RunCount = %d, want 1", entries[0].RunCount)
	}
}

func TestPersistedEntriesReload(t *testing.T) {
	dir := t.TempDir()
	store := NewScheduleStore(dir)

	if err := store.Create(&ScheduleEntry{
		Title:    "persisted",
		Target:   Target{Kind: TargetValidate, Name: "quality", Path: "/srv/api"},
		CronSpec: "0 * * * *",
		Enabled:  true,
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Create(&ScheduleEntry{
		Title:    "disabled",
		Target:   Target{Kind: TargetSkill, Name: "y"},
		CronSpec: "0 * * * *",
		Enabled:  false,
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	s := New(Config{Store: NewScheduleStore(dir)})
	s.loadPersistedEntries()

	entries := s.ListEntries()
	if len(entries) != 1 {
		t.Fatalf("loaded %d entries, want 1 (disabled skipped)", len(entries))
	}
	if entries[0].Title != "persisted" {
		t.Errorf("Title = %q", entries[0].Title)
	}
}

func TestMatchEvent(t *testing.T) {
	trigger := &EventTrigger{Event: "session.closed", Filter: map[string]string{"project": "api"}}

	e := events.NewProjectEvent(events.EventSessionClosed, events.SourceCLI, map[string]any{"project": "api"}, "api")
	if !MatchEvent(e, trigger) {
		t.Error("expected match")
	}

	other := events.NewEvent(events.EventSessionCreated, events.SourceCLI, nil)
	if MatchEvent(other, trigger) {
		t.Error("wrong event type should not match")
	}

	wrongFilter := events.NewEvent(events.EventSessionClosed, events.SourceCLI, map[string]any{"project": "dash"})
	if MatchEvent(wrongFilter, trigger) {
		t.Error("filter mismatch should not match")
	}

	fromScheduler := events.NewEvent(events.EventSessionClosed, events.SourceScheduler, map[string]any{"project": "api"})
	if MatchEvent(fromScheduler, trigger) {
		t.Error("scheduler-originated events must not match")
	}
}

func TestEventTriggerFires(t *testing.T) {
	var mu sync.Mutex
	var count int

	s := New(Config{Trigger: func(e *ScheduleEntry, trigger string) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	}})

	if err := s.AddEntry(&ScheduleEntry{
		Title:   "on close",
		Target:  Target{Kind: TargetValidate, Name: "gaming", Path: "/srv/api"},
		OnEvent: &EventTrigger{Event: "session.closed"},
		Enabled: true,
	}); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}

	s.handleEvent(events.NewEvent(events.EventSessionClosed, events.SourceCLI, nil))

	mu.Lock()
	defer mu.Unlock()
	if count != 1 {
		t.Errorf("fired %d times, want 1", count)
	}
}
