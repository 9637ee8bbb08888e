package scheduler

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Target kinds.
const (
	TargetSkill    = "skill"
	TargetValidate = "validate"
)

// Target names what a schedule entry runs when it fires.
type Target struct {
	Kind string `json:"kind"`           // "skill" or "validate"
	Name string `json:"name"`           // skill name, or validator: "gaming"/"quality"
	Path string `json:"path,omitempty"` // scan path for validate targets
}

// Validate checks the target for consistency.
func (t Target) Validate() error {
	switch t.Kind {
	case TargetSkill:
		if t.Name == "" {
			return fmt.Errorf("skill target requires a name")
		}
	case TargetValidate:
		if t.Name != "gaming" && t.Name != "quality" {
			return fmt.Errorf("validate target must be gaming or quality, got %q", t.Name)
		}
	default:
		return fmt.Errorf("unknown target kind %q", t.Kind)
	}
	return nil
}

// EventTrigger fires a schedule entry when a matching bus event arrives.
type EventTrigger struct {
	Event  string            `json:"event"`
	Filter map[string]string `json:"filter,omitempty"`
}

// ScheduleEntry is a persistent schedule record.
type ScheduleEntry struct {
	ID          string        `json:"id"`
	Title       string        `json:"title"`
	Project     string        `json:"project,omitempty"`
	Target      Target        `json:"target"`
	CronSpec    string        `json:"cron_spec,omitempty"`
	IntervalSec int           `json:"interval_sec,omitempty"`
	OnEvent     *EventTrigger `json:"on_event,omitempty"`
	CooldownSec int           `json:"cooldown_sec"`
	MaxRuns     int           `json:"max_runs,omitempty"`
	RunCount    int           `json:"run_count"`
	Enabled     bool          `json:"enabled"`
	CreatedAt   time.Time     `json:"created_at"`
	LastRunAt   *time.Time    `json:"last_run_at,omitempty"`
}

// GenerateScheduleID creates a unique schedule identifier with "sched_" prefix.
func GenerateScheduleID() string {
	u := uuid.New().String()
	return "sched_" + strings.ReplaceAll(u[:8], "-", "")
}
