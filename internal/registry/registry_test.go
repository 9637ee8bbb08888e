package registry

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "registry.json"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func TestAddGetRoundTrip(t *testing.T) {
	s := newTestStore(t)

	if err := s.Add("dashboard", "/srv/dashboard", "dash"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	entry, err := s.Get("dashboard")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if entry.Path != "/srv/dashboard" {
		t.Errorf("Path = %q, want /srv/dashboard", entry.Path)
	}
	if len(entry.Aliases) != 1 || entry.Aliases[0] != "dash" {
		t.Errorf("Aliases = %v, want [dash]", entry.Aliases)
	}
}

func TestAddValidation(t *testing.T) {
	s := newTestStore(t)

	if err := s.Add("bad name!", "/srv/x"); err == nil {
		t.Error("expected error for invalid name")
	}
	if err := s.Add("relpath", "srv/x"); err == nil {
		t.Error("expected error for relative path")
	}
}

func TestAddDuplicate(t *testing.T) {
	s := newTestStore(t)

	if err := s.Add("api", "/srv/api"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	err := s.Add("api", "/srv/api2")
	if !errors.Is(err, ErrProjectExists) {
		t.Errorf("err = %v, want ErrProjectExists", err)
	}
}

func TestAliasCollision(t *testing.T) {
	s := newTestStore(t)

	if err := s.Add("api", "/srv/api", "backend"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add("worker", "/srv/worker", "backend"); err == nil {
		t.Error("expected error for duplicate alias")
	}
}

func TestResolveByAlias(t *testing.T) {
	s := newTestStore(t)

	if err := s.Add("dashboard", "/srv/dashboard", "dash", "ui"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	name, entry, err := s.Resolve("ui")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if name != "dashboard" {
		t.Errorf("resolved name = %q, want dashboard", name)
	}
	if entry.Path != "/srv/dashboard" {
		t.Errorf("Path = %q", entry.Path)
	}

	if _, _, err := s.Resolve("nope"); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("err = %v, want ErrProjectNotFound", err)
	}
}

func TestSessionAndMemoryPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Add("api", "/srv/api"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.SetSession("api", "sess_a1b2c3d4"); err != nil {
		t.Fatalf("SetSession: %v", err)
	}
	if err := s.SetMemoryFile("api", "/srv/pai/memories/entries/mem_1.md"); err != nil {
		t.Fatalf("SetMemoryFile: %v", err)
	}

	// Reopen from disk and verify everything survived.
	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	entry, err := s2.Get("api")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if entry.SessionID != "sess_a1b2c3d4" {
		t.Errorf("SessionID = %q, want sess_a1b2c3d4", entry.SessionID)
	}
	if entry.MemoryFile != "/srv/pai/memories/entries/mem_1.md" {
		t.Errorf("MemoryFile = %q", entry.MemoryFile)
	}
}

func TestRemove(t *testing.T) {
	s := newTestStore(t)

	if err := s.Add("api", "/srv/api"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Remove("api"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := s.Get("api"); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("err = %v, want ErrProjectNotFound", err)
	}
	if err := s.Remove("api"); !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("double remove err = %v, want ErrProjectNotFound", err)
	}
}

func TestListSorted(t *testing.T) {
	s := newTestStore(t)

	for _, name := range []string{"zeta", "alpha", "mid"} {
		if err := s.Add(name, "/srv/"+name); err != nil {
			t.Fatalf("Add %s: %v", name, err)
		}
	}

	got := s.List()
	want := []string{"alpha", "mid", "zeta"}
	if len(got) != len(want) {
		t.Fatalf("List returned %d names, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("List[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestOpenCorruptRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := Open(path); err == nil {
		t.Error("expected parse error for corrupt registry")
	}
}
