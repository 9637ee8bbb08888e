package skills

import (
	"bytes"
	"strings"
	"testing"
)

func invokeSkill(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	s := &Skill{
		Name:        "content-scanner",
		Description: "Scan content for policy issues",
		Version:     "1.0.0",
		FilePath:    "/home/me/.pai/skills/content-scanner.md",
	}
	var stdout, stderr bytes.Buffer
	code := Invoke(s, args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestInvokeNoArgsShowsHelp(t *testing.T) {
	code, stdout, _ := invokeSkill(t)
	if code != ExitOK {
		t.Errorf("exit = %d, want 0", code)
	}
	if !strings.Contains(stdout, "content-scanner") {
		t.Errorf("help output missing skill name: %q", stdout)
	}
	if !strings.Contains(stdout, "/home/me/.pai/skills/content-scanner.md") {
		t.Errorf("help output missing descriptor path: %q", stdout)
	}
}

func TestInvokeHelpVariants(t *testing.T) {
	for _, arg := range []string{"help", "--help", "-h"} {
		code, stdout, _ := invokeSkill(t, arg)
		if code != ExitOK {
			t.Errorf("%s: exit = %d, want 0", arg, code)
		}
		if !strings.Contains(stdout, "content-scanner") {
			t.Errorf("%s: help output missing skill name", arg)
		}
	}
}

func TestInvokeVersionVariants(t *testing.T) {
	for _, arg := range []string{"version", "--version", "-v"} {
		code, stdout, _ := invokeSkill(t, arg)
		if code != ExitOK {
			t.Errorf("%s: exit = %d, want 0", arg, code)
		}
		if strings.TrimSpace(stdout) != "content-scanner v1.0.0" {
			t.Errorf("%s: output = %q, want content-scanner v1.0.0", arg, stdout)
		}
	}
}

func TestInvokeUnknownCommand(t *testing.T) {
	code, _, stderr := invokeSkill(t, "run")
	if code != ExitNotImplemented {
		t.Errorf("exit = %d, want 1", code)
	}
	if !strings.Contains(stderr, "not implemented") {
		t.Errorf("stderr = %q, want not implemented message", stderr)
	}
	if !strings.Contains(stderr, "help") {
		t.Errorf("stderr should reference help: %q", stderr)
	}
}
