package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/pai-sh/pai/internal/config"
	"github.com/pai-sh/pai/internal/events"
	"github.com/pai-sh/pai/internal/history"
	"github.com/pai-sh/pai/internal/secrets"
	"github.com/pai-sh/pai/internal/storage"
	"github.com/pai-sh/pai/internal/validate"
	"github.com/pai-sh/pai/internal/worker"
)

// NewOrchestrateCommand returns the orchestrate subcommand.
func NewOrchestrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "orchestrate",
		Usage: "Run autonomous coding sessions against a project",
		Commands: []*cli.Command{
			{
				Name:      "start",
				Usage:     "Start an orchestration run",
				ArgsUsage: "[workdir]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "command",
						Usage: "Session command (overrides config)",
					},
					&cli.IntFlag{
						Name:  "max-sessions",
						Usage: "Session budget for this run",
					},
					&cli.StringFlag{
						Name:  "project",
						Usage: "Project name recorded on the run",
					},
				},
				Action: runOrchestrateStart,
			},
			{
				Name:   "list",
				Usage:  "List orchestration runs",
				Action: runOrchestrateList,
			},
			{
				Name:      "show",
				Usage:     "Show a run and its session outcomes",
				ArgsUsage: "<run_id>",
				Action:    runOrchestrateShow,
			},
		},
		DefaultCommand: "list",
	}
}

func newRunStore() *worker.RunStore {
	return worker.NewRunStore(config.RunsDir())
}

// secretsEnv decrypts the vault into KEY=value pairs so session
// subprocesses receive stored API tokens without plaintext on disk.
// A missing vault means no extra environment.
func secretsEnv() []string {
	if _, err := os.Stat(config.SecretsPath()); err != nil {
		return nil
	}
	vault, err := secrets.OpenVault(config.SecretsPath(), config.AgeKeyPath())
	if err != nil {
		slog.Warn("orchestrate: cannot open secrets vault", "error", err)
		return nil
	}
	names, err := vault.List()
	if err != nil {
		slog.Warn("orchestrate: cannot list secrets", "error", err)
		return nil
	}

	env := make([]string, 0, len(names))
	for _, name := range names {
		value, err := vault.Get(name)
		if err != nil {
			slog.Warn("orchestrate: cannot decrypt secret", "name", name, "error", err)
			continue
		}
		env = append(env, name+"="+value)
	}
	return env
}

// recordOrchestration appends a finished run to the history database.
// Best effort: history being unavailable never fails the run.
func recordOrchestration(run *worker.Run, elapsed time.Duration) {
	store, err := history.Open(config.HistoryPath())
	if err != nil {
		return
	}
	defer store.Close()

	outcome := history.OutcomePassed
	if run.Status != worker.RunCompleted {
		outcome = history.OutcomeFailed
	}
	_ = store.Record(&history.Record{
		Tool:       "orchestrate",
		Target:     run.WorkDir,
		Project:    run.Project,
		Outcome:    outcome,
		Score:      run.SuccessRate,
		DurationMS: elapsed.Milliseconds(),
	})
}

func runOrchestrateStart(ctx context.Context, cmd *cli.Command) error {
	cfg := loadConfig(cmd)

	command := cfg.Orchestrate.SessionCommand
	if cmd.IsSet("command") {
		command = cmd.String("command")
	}
	if command == "" {
		return fmt.Errorf("no session command configured (set orchestrate.session_command or pass --command)")
	}

	workDir := cmd.Args().First()
	if workDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolve working directory: %w", err)
		}
		workDir = cwd
	}

	store := newRunStore()
	run := &worker.Run{
		Project: cmd.String("project"),
		Command: command,
		WorkDir: workDir,
	}
	if cmd.IsSet("max-sessions") {
		run.MaxSessions = cmd.Int("max-sessions")
	}
	if err := store.Create(run); err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	fmt.Printf("Run %s started\n", run.ID)

	bus := events.NewBus(64)
	defer bus.Close()
	logger := storage.NewEventLogger(config.EventLogDir(), bus)
	defer logger.Close()

	runner := &worker.CommandRunner{
		Command: command,
		WorkDir: workDir,
		Timeout: cfg.Orchestrate.SessionTimeout.Duration(),
		Env:     secretsEnv(),
	}

	// Checkpoint batches with the gaming validator; warnings only.
	checkpoint := func(r *worker.Run, n int) (bool, []string) {
		scanner := validate.NewScanner(cfg.Validate.Globs, cfg.Validate.SkipDirs)
		violations, totalFiles, err := scanner.ScanGaming(r.WorkDir)
		if err != nil {
			return false, []string{err.Error()}
		}
		result := validate.NewGamingResult(violations, totalFiles, cfg.Validate.Threshold)
		if result.Passed {
			return true, nil
		}
		warnings := make([]string, 0, len(result.Violations))
		for _, v := range result.Violations {
			warnings = append(warnings, fmt.Sprintf("%s:%d %s", v.File, v.Line, v.Message))
		}
		return false, warnings
	}

	w := worker.New(cfg.Orchestrate, store, runner, bus, checkpoint)
	startedAt := time.Now()
	execErr := w.Execute(ctx, run)
	recordOrchestration(run, time.Since(startedAt))
	if execErr != nil {
		return execErr
	}

	fmt.Printf("Run %s %s: %d/%d sessions succeeded (%.0f%%)\n",
		run.ID, run.Status, run.SessionsCompleted, run.SessionCount, run.SuccessRate*100)
	if run.AllTestsPassed {
		fmt.Println("All tests passed.")
	}
	return nil
}

func runOrchestrateList(_ context.Context, _ *cli.Command) error {
	runs, err := newRunStore().List()
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println("No orchestration runs.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tSESSIONS\tSUCCESS\tCREATED")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d/%d\t%.0f%%\t%s\n",
			r.ID, r.Status, r.SessionsCompleted, r.SessionCount,
			r.SuccessRate*100, r.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func runOrchestrateShow(_ context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return fmt.Errorf("usage: pai orchestrate show <run_id>")
	}

	store := newRunStore()
	run, err := store.Get(id)
	if err != nil {
		return err
	}

	fmt.Printf("Run:      %s\n", run.ID)
	fmt.Printf("Status:   %s\n", run.Status)
	fmt.Printf("Command:  %s\n", run.Command)
	fmt.Printf("WorkDir:  %s\n", run.WorkDir)
	fmt.Printf("Sessions: %d completed, %d failed of %d\n",
		run.SessionsCompleted, run.SessionsFailed, run.SessionCount)
	if run.Error != "" {
		fmt.Printf("Error:    %s\n", run.Error)
	}

	sessions, err := store.LoadSessions(id)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		return nil
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SESSION\tSUCCESS\tDURATION\tERROR")
	for _, s := range sessions {
		errMsg := s.Error
		if errMsg == "" {
			errMsg = "-"
		}
		fmt.Fprintf(w, "%s\t%v\t%.1fs\t%s\n", s.SessionID, s.Success, s.DurationSec, errMsg)
	}
	return w.Flush()
}
