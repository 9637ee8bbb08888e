package storage

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pai-sh/pai/internal/events"
)

func TestEventLogger_WriteAndReadBack(t *testing.T) {
	dir := t.TempDir()
	bus := events.NewBus(64)
	defer bus.Close()

	el := NewEventLogger(dir, bus)
	defer el.Close()

	bus.Publish(events.Event{
		ID:        "evt-1",
		Type:      events.EventSkillInvoked,
		Timestamp: time.Now(),
		Source:    events.SourceCLI,
		Payload:   map[string]any{"skill": "content-scanner"},
	})

	// Give the async subscriber time to process.
	time.Sleep(100 * time.Millisecond)

	data, err := os.ReadFile(filepath.Join(dir, "_global.jsonl"))
	if err != nil {
		t.Fatalf("read JSONL: %v", err)
	}

	var got events.Event
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ID != "evt-1" {
		t.Errorf("got ID %q, want %q", got.ID, "evt-1")
	}
	if got.Type != events.EventSkillInvoked {
		t.Errorf("got type %q, want %q", got.Type, events.EventSkillInvoked)
	}
}

func TestEventLogger_ProjectRouting(t *testing.T) {
	dir := t.TempDir()
	bus := events.NewBus(64)
	defer bus.Close()

	el := NewEventLogger(dir, bus)
	defer el.Close()

	bus.Publish(events.Event{
		ID:        "evt-global",
		Type:      events.EventScheduleTrigger,
		Timestamp: time.Now(),
		Source:    events.SourceScheduler,
	})
	bus.Publish(events.Event{
		ID:        "evt-proj",
		Project:   "dashboard",
		Type:      events.EventSessionResumed,
		Timestamp: time.Now(),
		Source:    events.SourceCLI,
	})

	time.Sleep(100 * time.Millisecond)

	// Global file should exist with project-less event.
	if _, err := os.Stat(filepath.Join(dir, "_global.jsonl")); err != nil {
		t.Fatalf("_global.jsonl missing: %v", err)
	}

	// Project file should exist.
	data, err := os.ReadFile(filepath.Join(dir, "dashboard.jsonl"))
	if err != nil {
		t.Fatalf("project file missing: %v", err)
	}
	var got events.Event
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ID != "evt-proj" {
		t.Errorf("got ID %q, want %q", got.ID, "evt-proj")
	}
}

func TestEventLogger_MultipleEventsPersisted(t *testing.T) {
	dir := t.TempDir()
	bus := events.NewBus(64)
	defer bus.Close()

	el := NewEventLogger(dir, bus)
	defer el.Close()

	types := []events.EventType{
		events.EventSessionCreated,
		events.EventValidateRun,
		events.EventCapturePage,
	}

	for i, et := range types {
		bus.Publish(events.Event{
			ID:        string(rune('a' + i)),
			Type:      et,
			Timestamp: time.Now(),
			Source:    events.SourceCLI,
		})
	}

	time.Sleep(100 * time.Millisecond)

	f, err := os.Open(filepath.Join(dir, "_global.jsonl"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	var count int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e events.Event
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("unmarshal line %d: %v", count, err)
		}
		count++
	}
	if count != len(types) {
		t.Errorf("got %d events, want %d", count, len(types))
	}
}

func TestEventLogger_DirectoryAutoCreation(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	bus := events.NewBus(64)
	defer bus.Close()

	el := NewEventLogger(dir, bus)
	defer el.Close()

	bus.Publish(events.Event{
		ID:        "evt-auto",
		Type:      events.EventOrchestrateSession,
		Timestamp: time.Now(),
		Source:    events.SourceWorker,
	})

	time.Sleep(100 * time.Millisecond)

	if _, err := os.Stat(filepath.Join(dir, "_global.jsonl")); err != nil {
		t.Fatalf("directory not auto-created: %v", err)
	}
}
