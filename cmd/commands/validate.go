package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/pai-sh/pai/internal/config"
	"github.com/pai-sh/pai/internal/history"
	"github.com/pai-sh/pai/internal/validate"
)

// NewValidateCommand returns the validate subcommand.
func NewValidateCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Run code validators against a directory",
		Commands: []*cli.Command{
			{
				Name:      "gaming",
				Usage:     "Scan for test-gaming and feature-faking patterns",
				ArgsUsage: "[path]",
				Flags: []cli.Flag{
					&cli.FloatFlag{
						Name:  "threshold",
						Usage: "Score above which the run is blocked",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Emit the result as JSON",
					},
					&cli.BoolFlag{
						Name:    "quiet",
						Aliases: []string{"q"},
						Usage:   "Suppress the report, only set the exit code",
					},
				},
				Action: runValidateGaming,
			},
			{
				Name:      "quality",
				Usage:     "Scan for zero-tolerance quality violations",
				ArgsUsage: "[path]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Emit the result as JSON",
					},
					&cli.BoolFlag{
						Name:    "quiet",
						Aliases: []string{"q"},
						Usage:   "Suppress the report, only set the exit code",
					},
				},
				Action: runValidateQuality,
			},
		},
	}
}

func validateRoot(cmd *cli.Command) (string, error) {
	root := cmd.Args().First()
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve working directory: %w", err)
		}
		root = cwd
	}
	return root, nil
}

func recordValidation(tool, target string, passed bool, score float64, elapsed time.Duration) {
	store, err := history.Open(config.HistoryPath())
	if err != nil {
		return
	}
	defer store.Close()

	outcome := history.OutcomePassed
	if !passed {
		outcome = history.OutcomeFailed
	}
	_ = store.Record(&history.Record{
		Tool:       tool,
		Target:     target,
		Outcome:    outcome,
		Score:      score,
		DurationMS: elapsed.Milliseconds(),
	})
}

func runValidateGaming(_ context.Context, cmd *cli.Command) error {
	root, err := validateRoot(cmd)
	if err != nil {
		return err
	}

	cfg := loadConfig(cmd)
	threshold := cfg.Validate.Threshold
	if cmd.IsSet("threshold") {
		threshold = cmd.Float("threshold")
	}

	start := time.Now()
	scanner := validate.NewScanner(cfg.Validate.Globs, cfg.Validate.SkipDirs)
	violations, totalFiles, err := scanner.ScanGaming(root)
	if err != nil {
		return fmt.Errorf("scan %s: %w", root, err)
	}

	result := validate.NewGamingResult(violations, totalFiles, threshold)
	recordValidation("validate.gaming", root, result.Passed, result.Score, time.Since(start))

	switch {
	case cmd.Bool("json"):
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	case !cmd.Bool("quiet"):
		fmt.Print(validate.RenderGamingReport(result))
	}

	if !result.Passed {
		return cli.Exit("", 1)
	}
	return nil
}

func runValidateQuality(_ context.Context, cmd *cli.Command) error {
	root, err := validateRoot(cmd)
	if err != nil {
		return err
	}

	cfg := loadConfig(cmd)

	start := time.Now()
	scanner := validate.NewScanner(cfg.Validate.Globs, cfg.Validate.SkipDirs)
	violations, err := scanner.ScanQuality(root)
	if err != nil {
		return fmt.Errorf("scan %s: %w", root, err)
	}

	result := validate.NewQualityResult(violations)
	recordValidation("validate.quality", root, result.Passed, 0, time.Since(start))

	switch {
	case cmd.Bool("json"):
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	case !cmd.Bool("quiet"):
		fmt.Print(validate.RenderQualityReport(result))
	}

	if !result.Passed {
		return cli.Exit("", 1)
	}
	return nil
}
