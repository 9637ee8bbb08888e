package skills

import (
	"fmt"
	"io"
)

// Exit codes for the uniform skill command surface.
const (
	ExitOK             = 0
	ExitNotImplemented = 1
)

// Invoke runs a skill's uniform command surface and returns the process
// exit code. Every skill answers help and version; anything else is
// reported as not implemented.
func Invoke(s *Skill, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printHelp(s, stdout)
		return ExitOK
	}

	switch args[0] {
	case "help", "--help", "-h":
		printHelp(s, stdout)
		return ExitOK
	case "version", "--version", "-v":
		fmt.Fprintf(stdout, "%s v%s\n", s.Name, s.Version)
		return ExitOK
	default:
		fmt.Fprintf(stderr, "%s: %q is not implemented. Run '%s help' for usage.\n", s.Name, args[0], s.Name)
		return ExitNotImplemented
	}
}

func printHelp(s *Skill, w io.Writer) {
	fmt.Fprintf(w, "%s - %s\n\n", s.Name, s.Description)
	fmt.Fprintf(w, "Usage:\n  %s <command>\n\n", s.Name)
	fmt.Fprintf(w, "Commands:\n")
	fmt.Fprintf(w, "  help       Show this help\n")
	fmt.Fprintf(w, "  version    Print the skill version\n")
	if s.Trigger != "" {
		fmt.Fprintf(w, "\nTrigger: %s\n", s.Trigger)
	}
	if s.FilePath != "" {
		fmt.Fprintf(w, "\nFull instructions: %s\n", s.FilePath)
	}
}
