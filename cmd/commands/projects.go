package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/pai-sh/pai/internal/config"
	"github.com/pai-sh/pai/internal/registry"
)

// NewProjectsCommand returns the projects subcommand.
func NewProjectsCommand() *cli.Command {
	return &cli.Command{
		Name:  "projects",
		Usage: "Manage the project registry",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List registered projects",
				Action: runProjectsList,
			},
			{
				Name:      "add",
				Usage:     "Register a project",
				ArgsUsage: "<name> [path]",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "alias",
						Usage: "Alias for the project (repeatable)",
					},
				},
				Action: runProjectsAdd,
			},
			{
				Name:      "remove",
				Usage:     "Remove a project from the registry",
				ArgsUsage: "<name>",
				Action:    runProjectsRemove,
			},
			{
				Name:      "show",
				Usage:     "Show a project's registry entry",
				ArgsUsage: "<name-or-alias>",
				Action:    runProjectsShow,
			},
			{
				Name:      "resolve",
				Usage:     "Resolve a name or alias to its project path",
				ArgsUsage: "<name-or-alias>",
				Action:    runProjectsResolve,
			},
		},
		DefaultCommand: "list",
	}
}

func openRegistry() (*registry.Store, error) {
	return registry.Open(config.RegistryPath())
}

func runProjectsList(_ context.Context, _ *cli.Command) error {
	reg, err := openRegistry()
	if err != nil {
		return fmt.Errorf("open registry: %w", err)
	}

	names := reg.List()
	if len(names) == 0 {
		fmt.Println("No projects registered.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPATH\tSESSION\tALIASES")
	for _, name := range names {
		entry, err := reg.Get(name)
		if err != nil {
			continue
		}
		session := entry.SessionID
		if session == "" {
			session = "-"
		}
		aliases := strings.Join(entry.Aliases, ", ")
		if aliases == "" {
			aliases = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, entry.Path, session, aliases)
	}
	return w.Flush()
}

func runProjectsAdd(_ context.Context, cmd *cli.Command) error {
	name := cmd.Args().First()
	if name == "" {
		return fmt.Errorf("usage: pai projects add <name> [path]")
	}

	path := cmd.Args().Get(1)
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolve working directory: %w", err)
		}
		path = cwd
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	reg, err := openRegistry()
	if err != nil {
		return fmt.Errorf("open registry: %w", err)
	}

	if err := reg.Add(name, abs, cmd.StringSlice("alias")...); err != nil {
		return err
	}
	fmt.Printf("Registered %s -> %s\n", name, abs)
	return nil
}

func runProjectsRemove(_ context.Context, cmd *cli.Command) error {
	name := cmd.Args().First()
	if name == "" {
		return fmt.Errorf("usage: pai projects remove <name>")
	}

	reg, err := openRegistry()
	if err != nil {
		return fmt.Errorf("open registry: %w", err)
	}

	if err := reg.Remove(name); err != nil {
		return err
	}
	fmt.Printf("Removed %s\n", name)
	return nil
}

func runProjectsShow(_ context.Context, cmd *cli.Command) error {
	nameOrAlias := cmd.Args().First()
	if nameOrAlias == "" {
		return fmt.Errorf("usage: pai projects show <name-or-alias>")
	}

	reg, err := openRegistry()
	if err != nil {
		return fmt.Errorf("open registry: %w", err)
	}

	name, entry, err := reg.Resolve(nameOrAlias)
	if err != nil {
		return err
	}

	fmt.Printf("Name:        %s\n", name)
	fmt.Printf("Path:        %s\n", entry.Path)
	if entry.SessionID != "" {
		fmt.Printf("Session:     %s\n", entry.SessionID)
	}
	if entry.MemoryFile != "" {
		fmt.Printf("Memory file: %s\n", entry.MemoryFile)
	}
	if len(entry.Aliases) > 0 {
		fmt.Printf("Aliases:     %s\n", strings.Join(entry.Aliases, ", "))
	}
	return nil
}

func runProjectsResolve(_ context.Context, cmd *cli.Command) error {
	nameOrAlias := cmd.Args().First()
	if nameOrAlias == "" {
		return fmt.Errorf("usage: pai projects resolve <name-or-alias>")
	}

	reg, err := openRegistry()
	if err != nil {
		return fmt.Errorf("open registry: %w", err)
	}

	_, entry, err := reg.Resolve(nameOrAlias)
	if err != nil {
		return err
	}
	fmt.Println(entry.Path)
	return nil
}
