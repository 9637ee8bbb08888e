// Package registry maintains the project registry: a JSON file mapping
// project names to their filesystem path, active session, memory file,
// and aliases. It is the lookup table that lets a session be resumed
// for a project by name or alias.
package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
)

var (
	// ErrProjectNotFound is returned when no project matches a name or alias.
	ErrProjectNotFound = errors.New("project not found")
	// ErrProjectExists is returned when adding a project whose name is taken.
	ErrProjectExists = errors.New("project already exists")
)

var nameRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// Entry describes one registered project.
type Entry struct {
	Path       string   `json:"path"`
	SessionID  string   `json:"sessionId,omitempty"`
	MemoryFile string   `json:"memoryFile,omitempty"`
	Aliases    []string `json:"aliases,omitempty"`
}

type registryFile struct {
	Projects map[string]*Entry `json:"projects"`
}

// Store is a file-backed project registry. All mutations rewrite the
// registry file atomically.
type Store struct {
	mu       sync.RWMutex
	path     string
	projects map[string]*Entry
}

// Open loads the registry from path, creating an empty registry if the
// file does not exist. A corrupt registry file is an error, not silently
// replaced: losing the session mapping would orphan every project's state.
func Open(path string) (*Store, error) {
	s := &Store{
		path:     path,
		projects: make(map[string]*Entry),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read registry: %w", err)
	}

	var rf registryFile
	if err := json.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	if rf.Projects != nil {
		s.projects = rf.Projects
	}
	return s, nil
}

// Add registers a new project. The name must be a valid identifier and
// the path must be absolute. Aliases must not collide with existing
// project names or aliases.
func (s *Store) Add(name, path string, aliases ...string) error {
	if !nameRe.MatchString(name) {
		return fmt.Errorf("invalid project name %q", name)
	}
	if !filepath.IsAbs(path) {
		return fmt.Errorf("project path must be absolute, got %q", path)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[name]; ok {
		return fmt.Errorf("%q: %w", name, ErrProjectExists)
	}
	for _, alias := range aliases {
		if !nameRe.MatchString(alias) {
			return fmt.Errorf("invalid alias %q", alias)
		}
		if taken, by := s.aliasTakenLocked(alias); taken {
			return fmt.Errorf("alias %q already used by project %q", alias, by)
		}
	}
	if taken, by := s.aliasTakenLocked(name); taken {
		return fmt.Errorf("name %q already used as alias of project %q", name, by)
	}

	s.projects[name] = &Entry{Path: filepath.Clean(path), Aliases: aliases}
	return s.saveLocked()
}

// Remove deletes a project from the registry.
func (s *Store) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[name]; !ok {
		return fmt.Errorf("%q: %w", name, ErrProjectNotFound)
	}
	delete(s.projects, name)
	return s.saveLocked()
}

// Get returns the entry for an exact project name.
func (s *Store) Get(name string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.projects[name]
	if !ok {
		return Entry{}, fmt.Errorf("%q: %w", name, ErrProjectNotFound)
	}
	return *entry, nil
}

// Resolve looks up a project by name first, then by alias. It returns
// the canonical project name alongside the entry.
func (s *Store) Resolve(nameOrAlias string) (string, Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if entry, ok := s.projects[nameOrAlias]; ok {
		return nameOrAlias, *entry, nil
	}
	for name, entry := range s.projects {
		for _, alias := range entry.Aliases {
			if alias == nameOrAlias {
				return name, *entry, nil
			}
		}
	}
	return "", Entry{}, fmt.Errorf("%q: %w", nameOrAlias, ErrProjectNotFound)
}

// List returns all project names in sorted order.
func (s *Store) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.projects))
	for name := range s.projects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetSession records the active session ID for a project.
func (s *Store) SetSession(name, sessionID string) error {
	return s.update(name, func(e *Entry) { e.SessionID = sessionID })
}

// SetMemoryFile records the memory file captured at the last session boundary.
func (s *Store) SetMemoryFile(name, memoryFile string) error {
	return s.update(name, func(e *Entry) { e.MemoryFile = memoryFile })
}

func (s *Store) update(name string, fn func(*Entry)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.projects[name]
	if !ok {
		return fmt.Errorf("%q: %w", name, ErrProjectNotFound)
	}
	fn(entry)
	return s.saveLocked()
}

func (s *Store) aliasTakenLocked(alias string) (bool, string) {
	for name, entry := range s.projects {
		if name == alias {
			return true, name
		}
		for _, a := range entry.Aliases {
			if a == alias {
				return true, name
			}
		}
	}
	return false, ""
}

func (s *Store) saveLocked() error {
	data, err := json.MarshalIndent(registryFile{Projects: s.projects}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal registry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create registry dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write registry tmp: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename registry: %w", err)
	}
	return nil
}
