package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/glamour"
	"github.com/urfave/cli/v3"

	"github.com/pai-sh/pai/internal/config"
	"github.com/pai-sh/pai/internal/skills"
)

// NewSkillsCommand returns the skills subcommand.
func NewSkillsCommand() *cli.Command {
	return &cli.Command{
		Name:  "skills",
		Usage: "Manage skill definitions",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List available skills",
				Action: runSkillsList,
			},
			{
				Name:      "show",
				Usage:     "Render a skill's instructions",
				ArgsUsage: "<name>",
				Action:    runSkillsShow,
			},
			{
				Name:      "new",
				Usage:     "Scaffold a new skill file",
				ArgsUsage: "<name>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "project",
						Usage: "Create under ./.pai/skills instead of the user skills directory",
					},
				},
				Action: runSkillsNew,
			},
		},
		DefaultCommand: "list",
	}
}

func loadSkills() (*skills.Registry, error) {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = ""
	}
	return skills.LoadUserAndProject(config.SkillsDir(), cwd)
}

func runSkillsList(_ context.Context, _ *cli.Command) error {
	registry, err := loadSkills()
	if err != nil {
		return fmt.Errorf("load skills: %w", err)
	}

	all := registry.All()
	if len(all) == 0 {
		fmt.Println("No skills found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tVERSION\tSCOPE\tTRIGGER\tDESCRIPTION")
	for _, s := range all {
		scope := "user"
		if s.Project {
			scope = "project"
		}
		trigger := s.Trigger
		if trigger == "" {
			trigger = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.Name, s.Version, scope, trigger, s.Description)
	}
	return w.Flush()
}

func runSkillsShow(_ context.Context, cmd *cli.Command) error {
	name := cmd.Args().First()
	if name == "" {
		return fmt.Errorf("usage: pai skills show <name>")
	}

	registry, err := loadSkills()
	if err != nil {
		return fmt.Errorf("load skills: %w", err)
	}

	s := registry.Resolve(name)
	if s == nil {
		return fmt.Errorf("skill %q not found", name)
	}

	var doc strings.Builder
	fmt.Fprintf(&doc, "# %s\n\n%s\n\n", s.Name, s.Description)
	doc.WriteString(s.Content)

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		fmt.Println(doc.String())
		return nil
	}

	out, err := renderer.Render(doc.String())
	if err != nil {
		fmt.Println(doc.String())
		return nil
	}
	fmt.Print(out)
	return nil
}

func runSkillsNew(_ context.Context, cmd *cli.Command) error {
	name := cmd.Args().First()
	if name == "" {
		return fmt.Errorf("usage: pai skills new <name>")
	}

	dir := config.SkillsDir()
	if cmd.Bool("project") {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolve working directory: %w", err)
		}
		dir = filepath.Join(cwd, ".pai", "skills")
	}

	path, err := skills.Scaffold(dir, name)
	if err != nil {
		return err
	}
	fmt.Printf("Created %s\n", path)
	return nil
}
