package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/pai-sh/pai/internal/capture"
	"github.com/pai-sh/pai/internal/config"
	"github.com/pai-sh/pai/internal/history"
)

// NewCaptureCommand returns the capture subcommand.
func NewCaptureCommand() *cli.Command {
	baseFlags := []cli.Flag{
		&cli.StringFlag{
			Name:  "base-url",
			Usage: "Base URL of the running app",
		},
		&cli.StringFlag{
			Name:    "out",
			Aliases: []string{"o"},
			Usage:   "Output directory for screenshots and reports",
		},
	}

	return &cli.Command{
		Name:  "capture",
		Usage: "Capture UI screenshots, design tokens, and component inventories",
		Commands: []*cli.Command{
			{
				Name:   "pages",
				Usage:  "Screenshot configured pages and count components",
				Flags:  baseFlags,
				Action: runCapturePages,
			},
			{
				Name:   "tokens",
				Usage:  "Extract color, typography, and spacing tokens",
				Flags:  baseFlags,
				Action: runCaptureTokens,
			},
			{
				Name:   "components",
				Usage:  "Discover card, button, and badge samples",
				Flags:  baseFlags,
				Action: runCaptureComponents,
			},
		},
	}
}

func newCaptureRunner(cmd *cli.Command) (*capture.Runner, error) {
	cfg := loadConfig(cmd)

	if cmd.IsSet("base-url") {
		cfg.Capture.BaseURL = cmd.String("base-url")
	}
	if cmd.IsSet("out") {
		cfg.Capture.OutputDir = cmd.String("out")
	}

	runner := capture.NewRunner(cfg.Capture)
	if err := runner.Start(); err != nil {
		return nil, fmt.Errorf("start browser: %w", err)
	}
	return runner, nil
}

func recordCapture(tool string, err error, elapsed time.Duration) {
	store, openErr := history.Open(config.HistoryPath())
	if openErr != nil {
		return
	}
	defer store.Close()

	outcome := history.OutcomePassed
	if err != nil {
		outcome = history.OutcomeError
	}
	_ = store.Record(&history.Record{
		Tool:       tool,
		Outcome:    outcome,
		DurationMS: elapsed.Milliseconds(),
	})
}

func runCapturePages(_ context.Context, cmd *cli.Command) error {
	runner, err := newCaptureRunner(cmd)
	if err != nil {
		return err
	}
	defer runner.Stop()

	start := time.Now()
	report, err := runner.CapturePages()
	recordCapture("capture.pages", err, time.Since(start))
	if err != nil {
		return err
	}

	captured, failed := 0, 0
	for _, p := range report.Pages {
		if p.Error != "" {
			failed++
		} else {
			captured++
		}
	}
	fmt.Printf("Captured %d pages (%d failed)\n", captured, failed)
	return nil
}

func runCaptureTokens(_ context.Context, cmd *cli.Command) error {
	runner, err := newCaptureRunner(cmd)
	if err != nil {
		return err
	}
	defer runner.Stop()

	start := time.Now()
	report, err := runner.ExtractTokens()
	recordCapture("capture.tokens", err, time.Since(start))
	if err != nil {
		return err
	}

	fmt.Printf("Extracted %d colors, %d font sizes, %d spacing values\n",
		len(report.Colors.Backgrounds)+len(report.Colors.Texts),
		len(report.Typography.FontSizes),
		len(report.Spacing.Paddings)+len(report.Spacing.Margins))
	return nil
}

func runCaptureComponents(_ context.Context, cmd *cli.Command) error {
	runner, err := newCaptureRunner(cmd)
	if err != nil {
		return err
	}
	defer runner.Stop()

	start := time.Now()
	catalog, err := runner.DiscoverComponents()
	recordCapture("capture.components", err, time.Since(start))
	if err != nil {
		return err
	}

	fmt.Printf("Discovered components on %d pages\n", len(catalog.Pages))
	return nil
}
