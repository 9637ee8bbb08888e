// Package commands wires the pai CLI: project registry, sessions and
// memory, skills, validators, UI capture, scheduling, orchestration,
// and the gateway.
package commands

import (
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/pai-sh/pai/internal/config"
)

// Version is the CLI version, overridable at build time.
var Version = "0.1.0"

// NewRootCommand returns the top-level CLI command.
func NewRootCommand() *cli.Command {
	return &cli.Command{
		Name:    "pai",
		Usage:   "Personal AI infrastructure: skills, sessions, validators, and automation",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Value:   config.ConfigPath(),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
		},
		Commands: []*cli.Command{
			NewSkillsCommand(),
			NewSkillCommand(),
			NewProjectsCommand(),
			NewSessionsCommand(),
			NewMemoryCommand(),
			NewValidateCommand(),
			NewCaptureCommand(),
			NewScheduleCommand(),
			NewOrchestrateCommand(),
			NewHistoryCommand(),
			NewSecretsCommand(),
			NewGatewayCommand(),
			NewMCPServeCommand(),
			NewStatusCommand(),
		},
	}
}

// loadConfig reads the config file named by --config, falling back to
// defaults when it does not exist. --debug switches slog to debug level.
func loadConfig(cmd *cli.Command) *config.Config {
	if cmd.Bool("debug") {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	path := cmd.String("config")
	cfg, err := config.Load(path)
	if err != nil {
		slog.Debug("config not found, using defaults", "path", path, "error", err)
		return config.Default()
	}
	return cfg
}
