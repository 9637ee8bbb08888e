package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/glamour"
	"github.com/urfave/cli/v3"

	"github.com/pai-sh/pai/internal/config"
	"github.com/pai-sh/pai/internal/memory"
)

// NewMemoryCommand returns the memory subcommand.
func NewMemoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "memory",
		Usage: "Browse and checkpoint session memories",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List memory entries",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "project",
						Usage: "Only show memories for this project",
					},
				},
				Action: runMemoryList,
			},
			{
				Name:      "show",
				Usage:     "Render a memory entry",
				ArgsUsage: "<memory_id>",
				Action:    runMemoryShow,
			},
			{
				Name:      "save",
				Usage:     "Checkpoint a project's session into a memory file now",
				ArgsUsage: "<project>",
				Action:    runMemorySave,
			},
			{
				Name:      "rm",
				Usage:     "Delete a memory entry",
				ArgsUsage: "<memory_id>",
				Action:    runMemoryDelete,
			},
		},
		DefaultCommand: "list",
	}
}

func newMemoryStore() (*memory.FileStore, error) {
	return memory.NewFileStore(config.MemoriesDir())
}

func runMemoryList(_ context.Context, cmd *cli.Command) error {
	store, err := newMemoryStore()
	if err != nil {
		return err
	}

	var entries []*memory.MemoryEntry
	if project := cmd.String("project"); project != "" {
		entries, err = store.ListByProject(project)
	} else {
		entries, err = store.List()
	}
	if err != nil {
		return fmt.Errorf("list memories: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("No memories found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPROJECT\tCREATED\tTITLE")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			e.ID,
			e.Project,
			e.CreatedAt.Format("2006-01-02 15:04"),
			e.Title,
		)
	}
	return w.Flush()
}

func runMemoryShow(_ context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return fmt.Errorf("usage: pai memory show <memory_id>")
	}

	store, err := newMemoryStore()
	if err != nil {
		return err
	}
	_, content, err := store.Get(id)
	if err != nil {
		return err
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		fmt.Println(content)
		return nil
	}

	out, err := renderer.Render(content)
	if err != nil {
		fmt.Println(content)
		return nil
	}
	fmt.Print(out)
	return nil
}

func runMemorySave(_ context.Context, cmd *cli.Command) error {
	project := cmd.Args().First()
	if project == "" {
		return fmt.Errorf("usage: pai memory save <project>")
	}

	mgr, cleanup, err := newSessionManager()
	if err != nil {
		return err
	}
	defer cleanup()

	path, err := mgr.Checkpoint(project)
	if err != nil {
		return err
	}
	fmt.Printf("Memory saved to %s\n", path)
	return nil
}

func runMemoryDelete(_ context.Context, cmd *cli.Command) error {
	id := cmd.Args().First()
	if id == "" {
		return fmt.Errorf("usage: pai memory rm <memory_id>")
	}
	if !strings.HasPrefix(id, "mem_") {
		return fmt.Errorf("invalid memory id %q", id)
	}

	store, err := newMemoryStore()
	if err != nil {
		return err
	}
	if err := store.Delete(id); err != nil {
		return err
	}
	fmt.Printf("Deleted %s\n", id)
	return nil
}
