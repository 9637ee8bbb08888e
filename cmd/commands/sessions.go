package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/pai-sh/pai/internal/config"
	"github.com/pai-sh/pai/internal/events"
	"github.com/pai-sh/pai/internal/memory"
	"github.com/pai-sh/pai/internal/sessions"
	"github.com/pai-sh/pai/internal/storage"
)

// NewSessionsCommand returns the sessions subcommand.
func NewSessionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "sessions",
		Usage: "Manage per-project sessions",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List sessions",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "project",
						Usage: "Only show sessions for this project",
					},
				},
				Action: runSessionsList,
			},
			{
				Name:      "show",
				Usage:     "Show messages in a session",
				ArgsUsage: "<session_id>",
				Action:    runSessionsShow,
			},
			{
				Name:      "resume",
				Usage:     "Resume (or start) the session for a project",
				ArgsUsage: "<project>",
				Action:    runSessionsResume,
			},
			{
				Name:      "close",
				Usage:     "Close a project's session, writing its memory file",
				ArgsUsage: "<project>",
				Action:    runSessionsClose,
			},
		},
		DefaultCommand: "list",
	}
}

func newSessionStore() *sessions.FileStore {
	return sessions.NewFileStore(config.SessionsDir())
}

// newSessionManager wires the registry, session store, memory store,
// and an event bus whose events land in the on-disk event log.
func newSessionManager() (*sessions.Manager, func(), error) {
	reg, err := openRegistry()
	if err != nil {
		return nil, nil, fmt.Errorf("open registry: %w", err)
	}

	memStore, err := memory.NewFileStore(config.MemoriesDir())
	if err != nil {
		return nil, nil, fmt.Errorf("open memory store: %w", err)
	}

	bus := events.NewBus(64)
	logger := storage.NewEventLogger(config.EventLogDir(), bus)

	mgr := sessions.NewManager(reg, newSessionStore(), memStore, bus)
	cleanup := func() {
		logger.Close()
		bus.Close()
	}
	return mgr, cleanup, nil
}

func runSessionsList(_ context.Context, cmd *cli.Command) error {
	store := newSessionStore()

	var (
		list []*sessions.Session
		err  error
	)
	if project := cmd.String("project"); project != "" {
		list, err = store.ListByProject(project)
	} else {
		list, err = store.List()
	}
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	if len(list) == 0 {
		fmt.Println("No sessions found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPROJECT\tSTATUS\tMESSAGES\tUPDATED")
	for _, s := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			s.ID,
			s.Project,
			s.Status,
			s.MessageCount,
			s.UpdatedAt.Format("2006-01-02 15:04"),
		)
	}
	return w.Flush()
}

func runSessionsShow(_ context.Context, cmd *cli.Command) error {
	sessionID := cmd.Args().First()
	if sessionID == "" {
		return fmt.Errorf("usage: pai sessions show <session_id>")
	}

	store := newSessionStore()

	msgs, err := store.LoadMessages(sessionID)
	if err != nil {
		return fmt.Errorf("load messages: %w", err)
	}

	if len(msgs) == 0 {
		fmt.Println("No messages in this session.")
		return nil
	}

	for _, m := range msgs {
		fmt.Printf("[%s] %s: %s\n", m.Ts.Format("15:04:05"), m.Role, m.Content)
	}
	return nil
}

func runSessionsResume(_ context.Context, cmd *cli.Command) error {
	project := cmd.Args().First()
	if project == "" {
		return fmt.Errorf("usage: pai sessions resume <project>")
	}

	mgr, cleanup, err := newSessionManager()
	if err != nil {
		return err
	}
	defer cleanup()

	session, memoryContent, err := mgr.Resume(project)
	if err != nil {
		return err
	}
	fmt.Printf("Session %s (%s)\n", session.ID, session.Status)
	if memoryContent != "" {
		fmt.Println()
		fmt.Println(memoryContent)
	}
	return nil
}

func runSessionsClose(_ context.Context, cmd *cli.Command) error {
	project := cmd.Args().First()
	if project == "" {
		return fmt.Errorf("usage: pai sessions close <project>")
	}

	mgr, cleanup, err := newSessionManager()
	if err != nil {
		return err
	}
	defer cleanup()

	memoryFile, err := mgr.CloseSession(project)
	if err != nil {
		if errors.Is(err, sessions.ErrNoActiveSession) {
			fmt.Printf("No active session for %s.\n", project)
			return nil
		}
		return err
	}

	if memoryFile != "" {
		fmt.Printf("Session closed, memory saved to %s\n", memoryFile)
	} else {
		fmt.Println("Session closed (nothing to checkpoint).")
	}
	return nil
}
