// Package worker executes orchestration runs: repeated subprocess coding
// sessions against a project, with checkpoint validation between batches
// and early exit once the session reports all tests passing.
package worker

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pai-sh/pai/internal/storage/dirstore"
)

// RunStatus is the lifecycle state of an orchestration run.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Run is a persistent orchestration run record.
type Run struct {
	ID                 string     `json:"id"`
	Project            string     `json:"project,omitempty"`
	Command            string     `json:"command"`
	WorkDir            string     `json:"work_dir,omitempty"`
	Status             RunStatus  `json:"status"`
	MaxSessions        int        `json:"max_sessions"`
	CheckpointInterval int        `json:"checkpoint_interval"`
	SessionCount       int        `json:"session_count"`
	SessionsCompleted  int        `json:"sessions_completed"`
	SessionsFailed     int        `json:"sessions_failed"`
	SuccessRate        float64    `json:"success_rate"`
	AllTestsPassed     bool       `json:"all_tests_passed"`
	Error              string     `json:"error,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	StartedAt          *time.Time `json:"started_at,omitempty"`
	FinishedAt         *time.Time `json:"finished_at,omitempty"`
}

// GenerateRunID creates a unique run identifier with "run_" prefix.
func GenerateRunID() string {
	u := uuid.New().String()
	return "run_" + strings.ReplaceAll(u[:8], "-", "")
}

// RunStore persists runs as directories with meta.json plus a
// sessions.jsonl log of per-session outcomes.
type RunStore struct {
	ds *dirstore.DirStore
}

const sessionsFile = "sessions.jsonl"

// NewRunStore creates a RunStore rooted at baseDir.
func NewRunStore(baseDir string) *RunStore {
	return &RunStore{ds: dirstore.New(baseDir, "run")}
}

// Create persists a new run.
func (s *RunStore) Create(run *Run) error {
	s.ds.Lock()
	defer s.ds.Unlock()

	if run.ID == "" {
		run.ID = GenerateRunID()
	}
	if run.Status == "" {
		run.Status = RunPending
	}
	run.CreatedAt = time.Now()

	if err := s.ds.EnsureDir(run.ID); err != nil {
		return err
	}
	return s.ds.WriteMeta(run.ID, run)
}

// Get reads a run by ID.
func (s *RunStore) Get(id string) (*Run, error) {
	s.ds.RLock()
	defer s.ds.RUnlock()

	var run Run
	if err := s.ds.ReadMeta(id, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

// Update atomically rewrites a run's meta.json.
func (s *RunStore) Update(run *Run) error {
	s.ds.Lock()
	defer s.ds.Unlock()

	return s.ds.WriteMeta(run.ID, run)
}

// List returns all runs sorted by CreatedAt descending.
func (s *RunStore) List() ([]*Run, error) {
	s.ds.RLock()
	defer s.ds.RUnlock()

	dirs, err := s.ds.ListDirs()
	if err != nil {
		return nil, err
	}

	var runs []*Run
	for _, name := range dirs {
		var run Run
		if err := s.ds.ReadMeta(name, &run); err != nil {
			continue // skip corrupted entries
		}
		runs = append(runs, &run)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})

	return runs, nil
}

// AppendSession records one session outcome in the run's JSONL log.
func (s *RunStore) AppendSession(runID string, result SessionResult) error {
	s.ds.Lock()
	defer s.ds.Unlock()

	return s.ds.AppendJSONL(runID, sessionsFile, result)
}

// LoadSessions reads all recorded session outcomes for a run.
func (s *RunStore) LoadSessions(runID string) ([]SessionResult, error) {
	s.ds.RLock()
	defer s.ds.RUnlock()

	return dirstore.LoadJSONL[SessionResult](s.ds, runID, sessionsFile)
}
