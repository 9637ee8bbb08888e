package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/pai-sh/pai/internal/config"
	"github.com/pai-sh/pai/internal/events"
	"github.com/pai-sh/pai/internal/scheduler"
)

// NewScheduleCommand returns the schedule subcommand.
func NewScheduleCommand() *cli.Command {
	return &cli.Command{
		Name:  "schedule",
		Usage: "Manage scheduled skills and validators",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List schedule entries",
				Action: runScheduleList,
			},
			{
				Name:      "add",
				Usage:     "Add a schedule entry",
				ArgsUsage: "<title>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "skill",
						Usage: "Skill to run",
					},
					&cli.StringFlag{
						Name:  "validate",
						Usage: "Validator to run (gaming or quality)",
					},
					&cli.StringFlag{
						Name:  "path",
						Usage: "Target path for validators",
					},
					&cli.StringFlag{
						Name:  "cron",
						Usage: "5-field cron spec",
					},
					&cli.IntFlag{
						Name:  "interval",
						Usage: "Interval in seconds (minimum 5)",
					},
					&cli.StringFlag{
						Name:  "on-event",
						Usage: "Fire when this event type occurs",
					},
					&cli.IntFlag{
						Name:  "max-runs",
						Usage: "Disable the entry after this many runs (0 = unlimited)",
					},
					&cli.StringFlag{
						Name:  "project",
						Usage: "Associate the entry with a project",
					},
				},
				Action: runScheduleAdd,
			},
			{
				Name:      "remove",
				Usage:     "Remove a schedule entry",
				ArgsUsage: "<schedule_id>",
				Action:    runScheduleRemove,
			},
			{
				Name:      "enable",
				Usage:     "Enable a schedule entry",
				ArgsUsage: "<schedule_id>",
				Action: func(_ context.Context, cmd *cli.Command) error {
					return setScheduleEnabled(cmd, true)
				},
			},
			{
				Name:      "disable",
				Usage:     "Disable a schedule entry",
				ArgsUsage: "<schedule_id>",
				Action: func(_ context.Context, cmd *cli.Command) error {
					return setScheduleEnabled(cmd, false)
				},
			},
			{
				Name:   "run",
				Usage:  "Run the scheduler tick loop in the foreground",
				Action: runScheduleRun,
			},
		},
		DefaultCommand: "list",
	}
}

func newScheduleStore() *scheduler.ScheduleStore {
	return scheduler.NewScheduleStore(config.SchedulesDir())
}

func runScheduleList(_ context.Context, _ *cli.Command) error {
	entries, err := newScheduleStore().List()
	if err != nil {
		return fmt.Errorf("list schedules: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("No schedule entries.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tTARGET\tTRIGGER\tRUNS\tENABLED")
	for _, e := range entries {
		trigger := "-"
		switch {
		case e.CronSpec != "":
			trigger = "cron " + e.CronSpec
		case e.IntervalSec > 0:
			trigger = fmt.Sprintf("every %ds", e.IntervalSec)
		case e.OnEvent != nil:
			trigger = "on " + e.OnEvent.Event
		}
		fmt.Fprintf(w, "%s\t%s\t%s:%s\t%s\t%d\t%v\n",
			e.ID, e.Title, e.Target.Kind, e.Target.Name, trigger, e.RunCount, e.Enabled)
	}
	return w.Flush()
}

func runScheduleAdd(_ context.Context, cmd *cli.Command) error {
	title := cmd.Args().First()
	if title == "" {
		return fmt.Errorf("usage: pai schedule add <title> [flags]")
	}

	entry := &scheduler.ScheduleEntry{
		Title:       title,
		Project:     cmd.String("project"),
		CronSpec:    cmd.String("cron"),
		IntervalSec: cmd.Int("interval"),
		MaxRuns:     cmd.Int("max-runs"),
		Enabled:     true,
	}

	switch {
	case cmd.String("skill") != "":
		entry.Target = scheduler.Target{Kind: scheduler.TargetSkill, Name: cmd.String("skill")}
	case cmd.String("validate") != "":
		entry.Target = scheduler.Target{
			Kind: scheduler.TargetValidate,
			Name: cmd.String("validate"),
			Path: cmd.String("path"),
		}
	default:
		return fmt.Errorf("either --skill or --validate is required")
	}

	if event := cmd.String("on-event"); event != "" {
		entry.OnEvent = &scheduler.EventTrigger{Event: event}
	}

	if err := entry.Target.Validate(); err != nil {
		return err
	}
	if entry.CronSpec == "" && entry.IntervalSec == 0 && entry.OnEvent == nil {
		return fmt.Errorf("one of --cron, --interval, or --on-event is required")
	}
	if entry.CronSpec != "" {
		if _, err := scheduler.ParseCron(entry.CronSpec); err != nil {
			return err
		}
	}

	if err := newScheduleStore().Create(entry); err != nil {
		return err
	}
	fmt.Printf("Created %s\n", entry.ID)
	return nil
}

func runScheduleRemove(_ context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return fmt.Errorf("usage: pai schedule remove <schedule_id>")
	}

	if err := newScheduleStore().Delete(id); err != nil {
		return err
	}
	fmt.Printf("Removed %s\n", id)
	return nil
}

func setScheduleEnabled(cmd *cli.Command, enabled bool) error {
	id := cmd.Args().First()
	if id == "" {
		return fmt.Errorf("usage: pai schedule %s <schedule_id>",
			map[bool]string{true: "enable", false: "disable"}[enabled])
	}

	store := newScheduleStore()
	entry, err := store.Get(id)
	if err != nil {
		return fmt.Errorf("load schedule %s: %w", id, err)
	}

	entry.Enabled = enabled
	if err := store.Update(entry); err != nil {
		return err
	}

	if enabled {
		fmt.Printf("Enabled %s\n", id)
	} else {
		fmt.Printf("Disabled %s\n", id)
	}
	return nil
}

// runScheduleRun runs the scheduler in the foreground until interrupted.
// Useful when no gateway is running; the gateway otherwise owns the loop.
func runScheduleRun(_ context.Context, cmd *cli.Command) error {
	cfg := loadConfig(cmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	bus := events.NewBus(cfg.Events.BufferSize)
	defer bus.Close()

	skillRegistry, err := loadSkills()
	if err != nil {
		return fmt.Errorf("load skills: %w", err)
	}

	sched := scheduler.New(scheduler.Config{
		Bus:     bus,
		Store:   newScheduleStore(),
		Trigger: scheduleTrigger(cfg, skillRegistry),
	})
	sched.Start()
	defer sched.Stop()

	fmt.Printf("Scheduler running with %d entries. Ctrl-C to stop.\n", len(sched.ListEntries()))
	<-ctx.Done()
	return nil
}
