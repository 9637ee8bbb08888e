package commands

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/pai-sh/pai/internal/config"
	"github.com/pai-sh/pai/internal/events"
	"github.com/pai-sh/pai/internal/gateway"
	"github.com/pai-sh/pai/internal/history"
	"github.com/pai-sh/pai/internal/scheduler"
	"github.com/pai-sh/pai/internal/skills"
	"github.com/pai-sh/pai/internal/storage"
	"github.com/pai-sh/pai/internal/validate"
)

// NewGatewayCommand returns the gateway subcommand.
func NewGatewayCommand() *cli.Command {
	return &cli.Command{
		Name:  "gateway",
		Usage: "Start the pai gateway server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to listen on",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on",
			},
		},
		Action: runGateway,
	}
}

func runGateway(_ context.Context, cmd *cli.Command) error {
	cfg := loadConfig(cmd)

	if cmd.IsSet("host") {
		cfg.Gateway.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Gateway.Port = cmd.Int("port")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	bus := events.NewBus(cfg.Events.BufferSize)
	defer bus.Close()

	logger := storage.NewEventLogger(config.EventLogDir(), bus)
	defer logger.Close()

	reg, err := openRegistry()
	if err != nil {
		return fmt.Errorf("open registry: %w", err)
	}

	skillRegistry, err := loadSkills()
	if err != nil {
		return fmt.Errorf("load skills: %w", err)
	}
	slog.Info("skills loaded", "count", len(skillRegistry.Names()))

	// Scheduler runs inside the gateway process, firing skills and
	// validators from persisted schedule entries.
	sched := scheduler.New(scheduler.Config{
		Bus:     bus,
		Store:   newScheduleStore(),
		Trigger: scheduleTrigger(cfg, skillRegistry),
	})
	sched.Start()
	defer sched.Stop()

	server := gateway.NewServer(gateway.Options{
		Bus:           bus,
		Projects:      reg,
		Sessions:      newSessionStore(),
		Runs:          newRunStore(),
		Host:          cfg.Gateway.Host,
		Port:          cfg.Gateway.Port,
		HeartbeatPath: config.HeartbeatPath(),
		SkillInvoker: func(name string, args []string) (int, string, error) {
			s := skillRegistry.Resolve(name)
			if s == nil {
				return 0, "", fmt.Errorf("skill %q not found", name)
			}
			var out bytes.Buffer
			code := skills.Invoke(s, args, &out, &out)
			return code, out.String(), nil
		},
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// scheduleTrigger executes a schedule entry's target: skills through the
// uniform command surface, validators through a scan of the target path.
// Every firing lands in the history database alongside manual runs.
func scheduleTrigger(cfg *config.Config, skillRegistry *skills.Registry) scheduler.TriggerFunc {
	return func(entry *scheduler.ScheduleEntry, trigger string) error {
		start := time.Now()
		err := fireScheduleTarget(cfg, skillRegistry, entry, trigger)
		recordScheduleTrigger(entry, err, time.Since(start))
		return err
	}
}

func fireScheduleTarget(cfg *config.Config, skillRegistry *skills.Registry, entry *scheduler.ScheduleEntry, trigger string) error {
	switch entry.Target.Kind {
	case scheduler.TargetSkill:
		s := skillRegistry.Resolve(entry.Target.Name)
		if s == nil {
			return fmt.Errorf("skill %q not found", entry.Target.Name)
		}
		var out bytes.Buffer
		code := skills.Invoke(s, nil, &out, &out)
		slog.Info("scheduled skill ran", "skill", s.Name, "exit_code", code, "trigger", trigger)
		return nil

	case scheduler.TargetValidate:
		root := entry.Target.Path
		if root == "" {
			return fmt.Errorf("schedule %s: validator target has no path", entry.ID)
		}
		scanner := validate.NewScanner(cfg.Validate.Globs, cfg.Validate.SkipDirs)
		switch entry.Target.Name {
		case "gaming":
			violations, totalFiles, err := scanner.ScanGaming(root)
			if err != nil {
				return err
			}
			result := validate.NewGamingResult(violations, totalFiles, cfg.Validate.Threshold)
			slog.Info("scheduled gaming scan", "path", root, "score", result.Score, "passed", result.Passed)
		case "quality":
			violations, err := scanner.ScanQuality(root)
			if err != nil {
				return err
			}
			result := validate.NewQualityResult(violations)
			slog.Info("scheduled quality scan", "path", root, "violations", result.TotalViolations, "passed", result.Passed)
		}
		return nil

	default:
		return fmt.Errorf("schedule %s: unknown target kind %q", entry.ID, entry.Target.Kind)
	}
}

// recordScheduleTrigger appends a fired schedule entry to the history
// database. Best effort, like the manual validate and capture commands.
func recordScheduleTrigger(entry *scheduler.ScheduleEntry, err error, elapsed time.Duration) {
	store, openErr := history.Open(config.HistoryPath())
	if openErr != nil {
		return
	}
	defer store.Close()

	outcome := history.OutcomePassed
	if err != nil {
		outcome = history.OutcomeError
	}
	target := entry.Target.Name
	if entry.Target.Path != "" {
		target = entry.Target.Path
	}
	_ = store.Record(&history.Record{
		Tool:       "schedule." + entry.Target.Kind,
		Target:     target,
		Project:    entry.Project,
		Outcome:    outcome,
		DurationMS: elapsed.Milliseconds(),
	})
}
