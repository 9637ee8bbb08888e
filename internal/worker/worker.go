package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pai-sh/pai/internal/config"
	"github.com/pai-sh/pai/internal/events"
)

// CheckpointFunc validates the project between session batches. Returned
// warnings are logged, not fatal.
type CheckpointFunc func(run *Run, sessionCount int) (passed bool, warnings []string)

// Worker drives the autonomous session loop for orchestration runs.
type Worker struct {
	cfg        config.OrchestrateConfig
	store      *RunStore
	runner     SessionRunner
	bus        *events.Bus
	checkpoint CheckpointFunc
}

// New creates a Worker. bus and checkpoint may be nil.
func New(cfg config.OrchestrateConfig, store *RunStore, runner SessionRunner, bus *events.Bus, checkpoint CheckpointFunc) *Worker {
	return &Worker{
		cfg:        cfg,
		store:      store,
		runner:     runner,
		bus:        bus,
		checkpoint: checkpoint,
	}
}

// Execute runs the session loop for a run until all tests pass, the
// session budget is exhausted, or the context is canceled. The run
// record is updated in place and persisted as the loop progresses.
func (w *Worker) Execute(ctx context.Context, run *Run) error {
	if run.MaxSessions <= 0 {
		run.MaxSessions = w.cfg.MaxSessions
	}
	if run.CheckpointInterval <= 0 {
		run.CheckpointInterval = w.cfg.CheckpointInterval
	}

	now := time.Now()
	run.Status = RunRunning
	run.StartedAt = &now
	if err := w.store.Update(run); err != nil {
		return fmt.Errorf("persist run start: %w", err)
	}

	slog.Info("orchestration started", "run", run.ID, "max_sessions", run.MaxSessions)

	for run.SessionCount < run.MaxSessions {
		if err := ctx.Err(); err != nil {
			return w.finish(run, fmt.Errorf("run canceled: %w", err))
		}

		sessionID := fmt.Sprintf("%s-s%d", run.ID, run.SessionCount)
		result := w.runSessionWithRetries(ctx, sessionID)

		if err := w.store.AppendSession(run.ID, result); err != nil {
			slog.Warn("failed to record session", "run", run.ID, "error", err)
		}
		w.publishSession(run, result)

		if result.Success {
			run.SessionsCompleted++
			slog.Info("session completed", "run", run.ID, "session", sessionID)

			if result.AllTestsPassed {
				run.AllTestsPassed = true
				run.SessionCount++
				slog.Info("all tests passed, run complete", "run", run.ID)
				break
			}
		} else {
			run.SessionsFailed++
			slog.Warn("session failed", "run", run.ID, "session", sessionID, "error", result.Error)
		}

		run.SessionCount++
		if err := w.store.Update(run); err != nil {
			slog.Warn("failed to persist run progress", "run", run.ID, "error", err)
		}

		if w.checkpoint != nil && run.SessionCount%run.CheckpointInterval == 0 && run.SessionCount < run.MaxSessions {
			passed, warnings := w.checkpoint(run, run.SessionCount)
			if !passed {
				slog.Warn("checkpoint validation warnings", "run", run.ID, "warnings", warnings)
			} else {
				slog.Info("checkpoint passed", "run", run.ID, "sessions", run.SessionCount)
			}
		}
	}

	return w.finish(run, nil)
}

// runSessionWithRetries retries a failed session up to MaxRetries times
// before giving up on it.
func (w *Worker) runSessionWithRetries(ctx context.Context, sessionID string) SessionResult {
	result := w.runner.RunSession(ctx, sessionID)

	for retry := 0; !result.Success && retry < w.cfg.MaxRetries; retry++ {
		if ctx.Err() != nil {
			return result
		}
		slog.Info("retrying session", "session", sessionID, "attempt", retry+1, "max", w.cfg.MaxRetries)
		result = w.runner.RunSession(ctx, sessionID)
	}
	return result
}

func (w *Worker) finish(run *Run, cause error) error {
	now := time.Now()
	run.FinishedAt = &now
	if run.SessionCount > 0 {
		run.SuccessRate = float64(run.SessionsCompleted) / float64(run.SessionCount)
	}

	if cause != nil {
		run.Status = RunFailed
		run.Error = cause.Error()
	} else {
		run.Status = RunCompleted
	}

	if err := w.store.Update(run); err != nil {
		slog.Warn("failed to persist run result", "run", run.ID, "error", err)
	}

	slog.Info("orchestration finished",
		"run", run.ID,
		"status", run.Status,
		"sessions", run.SessionCount,
		"completed", run.SessionsCompleted,
		"failed", run.SessionsFailed,
		"success_rate", fmt.Sprintf("%.1f%%", run.SuccessRate*100),
	)

	if w.bus != nil {
		w.bus.Publish(events.NewProjectEvent(events.EventOrchestrateCompleted, events.SourceWorker, map[string]any{
			"run_id":           run.ID,
			"status":           string(run.Status),
			"session_count":    run.SessionCount,
			"success_rate":     run.SuccessRate,
			"all_tests_passed": run.AllTestsPassed,
		}, run.Project))
	}

	return cause
}

func (w *Worker) publishSession(run *Run, result SessionResult) {
	if w.bus == nil {
		return
	}
	w.bus.Publish(events.NewProjectEvent(events.EventOrchestrateSession, events.SourceWorker, map[string]any{
		"run_id":     run.ID,
		"session_id": result.SessionID,
		"success":    result.Success,
	}, run.Project))
}
