// Package memory stores the memory files written at session boundaries.
// Each entry is a markdown file plus index metadata, scoped to a project.
package memory

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MemoryEntry holds metadata for a single memory file.
type MemoryEntry struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Project   string    `json:"project,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func generateMemoryID() string {
	u := uuid.New().String()
	return "mem_" + strings.ReplaceAll(u[:8], "-", "")
}
