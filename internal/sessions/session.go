// Package sessions provides per-project session persistence. Each
// registered project keeps at most one active session; session
// boundaries (resume, close) are where memory files get written.
package sessions

import "time"

// SessionStatus represents the lifecycle state of a session.
type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionClosed SessionStatus = "closed"
)

// Session holds metadata about a work session on a project.
type Session struct {
	ID           string            `json:"id"`
	Project      string            `json:"project,omitempty"`
	Title        string            `json:"title,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	Status       SessionStatus     `json:"status"`
	MessageCount int               `json:"message_count"`
	MemoryFile   string            `json:"memory_file,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Message is a single turn in a session transcript, serializable to JSONL.
type Message struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	Ts      time.Time `json:"ts"`
}

// Store defines the persistence interface for sessions.
type Store interface {
	Create(project string) (*Session, error)
	Get(id string) (*Session, error)
	List() ([]*Session, error)
	ListByProject(project string) ([]*Session, error)
	UpdateMeta(s *Session) error
	Close(id string) error
	AppendMessage(sessionID string, msg Message) error
	LoadMessages(sessionID string) ([]Message, error)
}
