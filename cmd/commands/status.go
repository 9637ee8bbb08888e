package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/pai-sh/pai/internal/config"
	"github.com/pai-sh/pai/internal/heartbeat"
	"github.com/pai-sh/pai/internal/sessions"
)

// NewStatusCommand returns the status subcommand.
func NewStatusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show gateway and workspace status",
		Action: func(_ context.Context, _ *cli.Command) error {
			status, beat, err := heartbeat.Check(config.HeartbeatPath(), heartbeat.DefaultMaxAge)
			if err != nil {
				return fmt.Errorf("check heartbeat: %w", err)
			}

			switch status {
			case heartbeat.StatusAlive:
				fmt.Printf("Gateway: ALIVE (PID %d, uptime %s, %s)\n", beat.PID, beat.Uptime, beat.Addr)
			case heartbeat.StatusStale:
				fmt.Printf("Gateway: STALE (PID %d, last heartbeat %s ago)\n",
					beat.PID, time.Since(beat.Timestamp).Truncate(time.Second))
			case heartbeat.StatusDead:
				fmt.Println("Gateway: NOT RUNNING")
			}

			if reg, err := openRegistry(); err == nil {
				fmt.Printf("Projects: %d registered\n", len(reg.List()))
			}
			if registry, err := loadSkills(); err == nil {
				fmt.Printf("Skills: %d loaded\n", len(registry.Names()))
			}
			if list, err := newSessionStore().List(); err == nil {
				active := 0
				for _, s := range list {
					if s.Status == sessions.SessionActive {
						active++
					}
				}
				fmt.Printf("Sessions: %d total, %d active\n", len(list), active)
			}
			return nil
		},
	}
}
