package sessions

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pai-sh/pai/internal/storage/dirstore"
)

const messagesFile = "messages.jsonl"

// FileStore persists sessions as directories with meta.json + messages.jsonl.
type FileStore struct {
	store *dirstore.DirStore
}

// NewFileStore creates a FileStore rooted at baseDir.
func NewFileStore(baseDir string) *FileStore {
	return &FileStore{store: dirstore.New(baseDir, "session")}
}

func generateSessionID() string {
	u := uuid.New().String()
	return "sess_" + strings.ReplaceAll(u[:8], "-", "")
}

// Create initialises a new session directory with meta.json.
func (fs *FileStore) Create(project string) (*Session, error) {
	fs.store.Lock()
	defer fs.store.Unlock()

	now := time.Now()
	s := &Session{
		ID:        generateSessionID(),
		Project:   project,
		CreatedAt: now,
		UpdatedAt: now,
		Status:    SessionActive,
	}

	if err := fs.store.EnsureDir(s.ID); err != nil {
		return nil, err
	}
	if err := fs.store.WriteMeta(s.ID, s); err != nil {
		return nil, err
	}

	return s, nil
}

// Get reads session metadata by ID.
func (fs *FileStore) Get(id string) (*Session, error) {
	fs.store.RLock()
	defer fs.store.RUnlock()

	return fs.readMeta(id)
}

// List returns all sessions sorted by UpdatedAt descending.
func (fs *FileStore) List() ([]*Session, error) {
	fs.store.RLock()
	defer fs.store.RUnlock()

	return fs.list("")
}

// ListByProject returns a project's sessions sorted by UpdatedAt descending.
func (fs *FileStore) ListByProject(project string) ([]*Session, error) {
	fs.store.RLock()
	defer fs.store.RUnlock()

	return fs.list(project)
}

func (fs *FileStore) list(project string) ([]*Session, error) {
	ids, err := fs.store.ListDirs()
	if err != nil {
		return nil, err
	}

	var sessions []*Session
	for _, id := range ids {
		s, err := fs.readMeta(id)
		if err != nil {
			continue // skip corrupted sessions
		}
		if project != "" && s.Project != project {
			continue
		}
		sessions = append(sessions, s)
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].UpdatedAt.After(sessions[j].UpdatedAt)
	})

	return sessions, nil
}

// UpdateMeta atomically rewrites a session's meta.json.
func (fs *FileStore) UpdateMeta(s *Session) error {
	fs.store.Lock()
	defer fs.store.Unlock()

	return fs.store.WriteMeta(s.ID, s)
}

// Close marks a session as closed.
func (fs *FileStore) Close(id string) error {
	fs.store.Lock()
	defer fs.store.Unlock()

	s, err := fs.readMeta(id)
	if err != nil {
		return err
	}

	s.Status = SessionClosed
	s.UpdatedAt = time.Now()
	return fs.store.WriteMeta(s.ID, s)
}

// AppendMessage appends a message to the session's JSONL file and updates meta.
func (fs *FileStore) AppendMessage(sessionID string, msg Message) error {
	fs.store.Lock()
	defer fs.store.Unlock()

	if err := fs.store.AppendJSONL(sessionID, messagesFile, msg); err != nil {
		return err
	}

	s, err := fs.readMeta(sessionID)
	if err != nil {
		return err
	}
	s.MessageCount++
	s.UpdatedAt = time.Now()
	return fs.store.WriteMeta(s.ID, s)
}

// LoadMessages reads all messages from a session's JSONL file.
func (fs *FileStore) LoadMessages(sessionID string) ([]Message, error) {
	fs.store.RLock()
	defer fs.store.RUnlock()

	return dirstore.LoadJSONL[Message](fs.store, sessionID, messagesFile)
}

func (fs *FileStore) readMeta(id string) (*Session, error) {
	var s Session
	if err := fs.store.ReadMeta(id, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
