package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/pai-sh/pai/internal/events"
	"github.com/pai-sh/pai/internal/mcp"
)

// NewMCPServeCommand returns the mcp-serve subcommand.
func NewMCPServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp-serve",
		Usage: "Expose skills as MCP tools over stdio",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			loadConfig(cmd)

			registry, err := loadSkills()
			if err != nil {
				return fmt.Errorf("load skills: %w", err)
			}

			bus := events.NewBus(64)
			defer bus.Close()

			server := mcp.NewServer(registry, bus, Version)
			slog.Info("mcp server starting", "skills", len(registry.Names()))
			return mcp.Serve(ctx, server)
		},
	}
}
