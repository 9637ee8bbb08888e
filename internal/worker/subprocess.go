package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"mvdan.cc/sh/v3/shell"
)

const stderrSnippetLen = 500

// SessionResult is the outcome of one subprocess session.
type SessionResult struct {
	SessionID      string         `json:"session_id"`
	Success        bool           `json:"success"`
	AllTestsPassed bool           `json:"all_tests_passed"`
	ExitCode       int            `json:"exit_code"`
	DurationSec    float64        `json:"duration_sec"`
	Error          string         `json:"error,omitempty"`
	Metrics        map[string]any `json:"metrics,omitempty"`
	Ts             time.Time      `json:"ts"`
}

// SessionRunner executes one coding session and reports its outcome.
type SessionRunner interface {
	RunSession(ctx context.Context, sessionID string) SessionResult
}

// CommandRunner runs sessions by spawning the configured command with a
// --session-id argument appended. The command string is split with shell
// word rules, so quoted arguments survive. Env entries (KEY=value) are
// layered on top of the parent environment, so decrypted secrets reach
// the session without touching disk.
type CommandRunner struct {
	Command string
	WorkDir string
	Timeout time.Duration
	Env     []string
}

// RunSession spawns the session subprocess and parses its final stdout
// line as JSON metrics.
func (r *CommandRunner) RunSession(ctx context.Context, sessionID string) SessionResult {
	result := SessionResult{SessionID: sessionID, Ts: time.Now()}
	start := time.Now()

	fields, err := shell.Fields(r.Command, os.Getenv)
	if err != nil || len(fields) == 0 {
		result.Error = fmt.Sprintf("parse session command %q: %v", r.Command, err)
		return result
	}
	args := append(fields[1:], "--session-id", sessionID)

	runCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, fields[0], args...)
	cmd.Dir = r.WorkDir
	cmd.Env = r.sessionEnv()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	result.DurationSec = time.Since(start).Seconds()

	if runCtx.Err() == context.DeadlineExceeded {
		result.Error = fmt.Sprintf("session timeout (%s)", r.Timeout)
		return result
	}

	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
		}
		result.Error = snippet(stderr.String())
		if result.Error == "" {
			result.Error = runErr.Error()
		}
		return result
	}

	result.Success = true
	result.Metrics = ParseMetrics(stdout.String())
	if v, ok := result.Metrics["all_tests_passed"].(bool); ok {
		result.AllTestsPassed = v
	}
	return result
}

// sessionEnv returns the parent environment with the runner's extra
// entries appended. nil means inherit, which exec treats as os.Environ.
func (r *CommandRunner) sessionEnv() []string {
	if len(r.Env) == 0 {
		return nil
	}
	return append(os.Environ(), r.Env...)
}

// ParseMetrics extracts the JSON object from the last non-empty stdout
// line. A missing or malformed line yields nil, not an error: metrics
// are advisory.
func ParseMetrics(stdout string) map[string]any {
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		var metrics map[string]any
		if err := json.Unmarshal([]byte(line), &metrics); err != nil {
			return nil
		}
		return metrics
	}
	return nil
}

func snippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > stderrSnippetLen {
		return s[:stderrSnippetLen]
	}
	return s
}
