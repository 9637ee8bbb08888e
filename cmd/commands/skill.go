package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/pai-sh/pai/internal/skills"
)

// NewSkillCommand returns the skill invocation subcommand. Every skill
// answers help and version with exit code 0; anything else exits 1 with
// a not-implemented message on stderr.
func NewSkillCommand() *cli.Command {
	return &cli.Command{
		Name:            "skill",
		Usage:           "Invoke a skill's command surface",
		ArgsUsage:       "<name> [args...]",
		SkipFlagParsing: true,
		Action:          runSkill,
	}
}

func runSkill(_ context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) == 0 {
		return fmt.Errorf("usage: pai skill <name> [args...]")
	}

	registry, err := loadSkills()
	if err != nil {
		return fmt.Errorf("load skills: %w", err)
	}

	s := registry.Resolve(args[0])
	if s == nil {
		return fmt.Errorf("skill %q not found", args[0])
	}

	code := skills.Invoke(s, args[1:], os.Stdout, os.Stderr)
	if code != skills.ExitOK {
		return cli.Exit("", code)
	}
	return nil
}
