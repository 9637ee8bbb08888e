package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pai-sh/pai/internal/sessions"
)

// FileStore implements memory storage on the filesystem.
// Structure:
//
//	<dir>/
//	  index.json       []MemoryEntry metadata
//	  entries/
//	    mem_xxx.md     content markdown
type FileStore struct {
	dir string

	mu    sync.RWMutex
	index []*MemoryEntry
}

// NewFileStore creates a FileStore and loads the index from disk. A
// missing index starts empty; a corrupt one is an error so memories are
// never silently orphaned.
func NewFileStore(dir string) (*FileStore, error) {
	fs := &FileStore{dir: dir}
	if err := fs.loadIndex(); err != nil {
		return nil, fmt.Errorf("load memory index: %w", err)
	}
	return fs, nil
}

// Create adds a new memory entry with its content.
func (fs *FileStore) Create(entry *MemoryEntry, content string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if entry.ID == "" {
		entry.ID = generateMemoryID()
	}
	now := time.Now()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = now
	}

	if err := fs.writeContent(entry.ID, content); err != nil {
		return err
	}

	fs.index = append(fs.index, entry)
	return fs.saveIndex()
}

// Get retrieves a memory entry and its content by ID.
func (fs *FileStore) Get(id string) (*MemoryEntry, string, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	entry := fs.findEntry(id)
	if entry == nil {
		return nil, "", fmt.Errorf("memory %q not found", id)
	}

	content, err := fs.readContent(id)
	if err != nil {
		return nil, "", err
	}

	return entry, content, nil
}

// Delete removes a memory entry and its content.
func (fs *FileStore) Delete(id string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	idx := fs.findIndex(id)
	if idx < 0 {
		return fmt.Errorf("memory %q not found", id)
	}

	fs.index = append(fs.index[:idx], fs.index[idx+1:]...)
	_ = os.Remove(fs.contentPath(id))

	return fs.saveIndex()
}

// List returns all memory entries, newest first.
func (fs *FileStore) List() ([]*MemoryEntry, error) {
	return fs.listFiltered("")
}

// ListByProject returns a project's memory entries, newest first.
func (fs *FileStore) ListByProject(project string) ([]*MemoryEntry, error) {
	return fs.listFiltered(project)
}

func (fs *FileStore) listFiltered(project string) ([]*MemoryEntry, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	var result []*MemoryEntry
	for _, e := range fs.index {
		if project != "" && e.Project != project {
			continue
		}
		result = append(result, e)
	}
	// Index is append-ordered; reverse for newest first.
	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}
	return result, nil
}

// SaveBoundary captures a session transcript as a memory file and returns
// the absolute path of the written markdown.
func (fs *FileStore) SaveBoundary(project, sessionID string, messages []sessions.Message) (string, error) {
	entry := &MemoryEntry{
		Title:     fmt.Sprintf("%s session %s", project, sessionID),
		Project:   project,
		SessionID: sessionID,
		Tags:      []string{"session-boundary"},
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Session memory: %s\n\n", project)
	fmt.Fprintf(&b, "Session: %s\n", sessionID)
	fmt.Fprintf(&b, "Captured: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(&b, "Messages: %d\n\n", len(messages))
	b.WriteString("## Transcript\n\n")
	for _, msg := range messages {
		fmt.Fprintf(&b, "**%s** (%s):\n\n%s\n\n", msg.Role, msg.Ts.Format(time.RFC3339), msg.Content)
	}

	if err := fs.Create(entry, b.String()); err != nil {
		return "", err
	}

	return fs.contentPath(entry.ID), nil
}

func (fs *FileStore) findEntry(id string) *MemoryEntry {
	for _, e := range fs.index {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func (fs *FileStore) findIndex(id string) int {
	for i, e := range fs.index {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (fs *FileStore) indexPath() string {
	return filepath.Join(fs.dir, "index.json")
}

func (fs *FileStore) contentPath(id string) string {
	return filepath.Join(fs.dir, "entries", id+".md")
}

func (fs *FileStore) loadIndex() error {
	data, err := os.ReadFile(fs.indexPath())
	if err != nil {
		if os.IsNotExist(err) {
			fs.index = nil
			return nil
		}
		return err
	}

	var entries []*MemoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	fs.index = entries
	return nil
}

func (fs *FileStore) saveIndex() error {
	if err := os.MkdirAll(fs.dir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(fs.index, "", "  ")
	if err != nil {
		return err
	}

	tmp := fs.indexPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, fs.indexPath())
}

func (fs *FileStore) writeContent(id, content string) error {
	dir := filepath.Join(fs.dir, "entries")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(fs.contentPath(id), []byte(content), 0o644)
}

func (fs *FileStore) readContent(id string) (string, error) {
	data, err := os.ReadFile(fs.contentPath(id))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
