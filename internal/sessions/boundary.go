package sessions

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/pai-sh/pai/internal/events"
	"github.com/pai-sh/pai/internal/registry"
)

// MemoryWriter captures a session transcript into a memory file at a
// session boundary. Implemented by the memory store.
type MemoryWriter interface {
	SaveBoundary(project, sessionID string, messages []Message) (string, error)
}

// Manager ties the project registry, session store and memory store
// together. Resuming a project reuses its recorded session when it is
// still active; closing a session writes a memory file first, so context
// survives the boundary.
type Manager struct {
	registry *registry.Store
	sessions Store
	memory   MemoryWriter
	bus      *events.Bus
}

// NewManager creates a session manager. bus and memory may be nil.
func NewManager(reg *registry.Store, store Store, memory MemoryWriter, bus *events.Bus) *Manager {
	return &Manager{
		registry: reg,
		sessions: store,
		memory:   memory,
		bus:      bus,
	}
}

// Resume returns the active session for a project, creating one if the
// registry has no usable session recorded, along with the content of the
// project's memory file so prior context crosses the boundary. The
// project may be referenced by name or alias.
func (m *Manager) Resume(nameOrAlias string) (*Session, string, error) {
	name, entry, err := m.registry.Resolve(nameOrAlias)
	if err != nil {
		return nil, "", err
	}

	memoryContent := loadMemoryFile(entry.MemoryFile)

	if entry.SessionID != "" {
		s, err := m.sessions.Get(entry.SessionID)
		if err == nil && s.Status == SessionActive {
			m.publish(events.EventSessionResumed, name, s.ID)
			return s, memoryContent, nil
		}
		// Recorded session is gone or closed; fall through to create.
	}

	s, err := m.sessions.Create(name)
	if err != nil {
		return nil, "", fmt.Errorf("create session for %s: %w", name, err)
	}
	if err := m.registry.SetSession(name, s.ID); err != nil {
		return nil, "", fmt.Errorf("record session for %s: %w", name, err)
	}

	m.publish(events.EventSessionCreated, name, s.ID)
	return s, memoryContent, nil
}

// loadMemoryFile reads a project's memory file. A project without one, or
// whose file has since been removed, resumes with empty context.
func loadMemoryFile(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}

// CloseSession ends a project's active session. The transcript is
// captured into a memory file before the session is marked closed, and
// the registry's session slot is cleared so the next resume starts fresh.
func (m *Manager) CloseSession(nameOrAlias string) (string, error) {
	name, entry, err := m.registry.Resolve(nameOrAlias)
	if err != nil {
		return "", err
	}
	if entry.SessionID == "" {
		return "", fmt.Errorf("project %s: %w", name, ErrNoActiveSession)
	}

	memoryFile, err := m.Checkpoint(name)
	if err != nil && !errors.Is(err, ErrNothingToCheckpoint) {
		return "", err
	}

	if err := m.sessions.Close(entry.SessionID); err != nil {
		return "", fmt.Errorf("close session %s: %w", entry.SessionID, err)
	}
	if err := m.registry.SetSession(name, ""); err != nil {
		return "", err
	}

	m.publish(events.EventSessionClosed, name, entry.SessionID)
	return memoryFile, nil
}

// ErrNothingToCheckpoint is returned when a session has no transcript to capture.
var ErrNothingToCheckpoint = errors.New("nothing to checkpoint")

// ErrNoActiveSession is returned when a project has no session recorded.
var ErrNoActiveSession = errors.New("no active session")

// Checkpoint writes the current transcript of a project's active session
// to a memory file and records it in the registry.
func (m *Manager) Checkpoint(nameOrAlias string) (string, error) {
	name, entry, err := m.registry.Resolve(nameOrAlias)
	if err != nil {
		return "", err
	}
	if entry.SessionID == "" {
		return "", fmt.Errorf("project %s: %w", name, ErrNoActiveSession)
	}
	if m.memory == nil {
		return "", nil
	}

	messages, err := m.sessions.LoadMessages(entry.SessionID)
	if err != nil {
		return "", fmt.Errorf("load transcript: %w", err)
	}
	if len(messages) == 0 {
		return "", ErrNothingToCheckpoint
	}

	path, err := m.memory.SaveBoundary(name, entry.SessionID, messages)
	if err != nil {
		return "", fmt.Errorf("write memory file: %w", err)
	}
	if err := m.registry.SetMemoryFile(name, path); err != nil {
		return "", err
	}

	if s, err := m.sessions.Get(entry.SessionID); err == nil {
		s.MemoryFile = path
		if err := m.sessions.UpdateMeta(s); err != nil {
			slog.Warn("sessions: failed to record memory file on session meta",
				"session", s.ID, "error", err)
		}
	}

	return path, nil
}

func (m *Manager) publish(t events.EventType, project, sessionID string) {
	if m.bus == nil {
		return
	}
	m.bus.Publish(events.NewProjectEvent(t, events.SourceCLI, map[string]any{
		"session_id": sessionID,
	}, project))
}
