package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/pai-sh/pai/internal/config"
	"github.com/pai-sh/pai/internal/history"
)

// NewHistoryCommand returns the history subcommand.
func NewHistoryCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Browse recorded tool invocations",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recent invocations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "tool",
						Usage: "Only show records for this tool",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum records to show",
						Value: 50,
					},
				},
				Action: runHistoryList,
			},
			{
				Name:   "summary",
				Usage:  "Show per-tool outcome counts",
				Action: runHistorySummary,
			},
		},
		DefaultCommand: "list",
	}
}

func runHistoryList(_ context.Context, cmd *cli.Command) error {
	store, err := history.Open(config.HistoryPath())
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.List(cmd.String("tool"), cmd.Int("limit"))
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Println("No history records.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tTOOL\tOUTCOME\tSCORE\tDURATION\tTARGET")
	for _, r := range records {
		target := r.Target
		if target == "" {
			target = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%dms\t%s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Tool, r.Outcome, r.Score, r.DurationMS, target)
	}
	return w.Flush()
}

func runHistorySummary(_ context.Context, _ *cli.Command) error {
	store, err := history.Open(config.HistoryPath())
	if err != nil {
		return err
	}
	defer store.Close()

	summaries, err := store.Summarize()
	if err != nil {
		return err
	}

	if len(summaries) == 0 {
		fmt.Println("No history records.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TOOL\tTOTAL\tPASSED\tFAILED")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", s.Tool, s.Total, s.Passed, s.Failed)
	}
	return w.Flush()
}
