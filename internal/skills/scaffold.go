package skills

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

var skillNameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

const scaffoldTemplate = `---
name: %[1]s
description: TODO describe what %[1]s does
version: 1.0.0
trigger: /%[1]s
tags: []
---

# %[1]s

Instructions for the %[1]s skill go here.
`

// Scaffold writes a new skill markdown file into dir and returns its path.
// Fails if the skill file already exists.
func Scaffold(dir, name string) (string, error) {
	if !skillNameRe.MatchString(name) {
		return "", fmt.Errorf("invalid skill name %q: use lowercase letters, digits and dashes", name)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create skills dir: %w", err)
	}

	path := filepath.Join(dir, name+".md")
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("skill %q already exists at %s", name, path)
	}

	content := fmt.Sprintf(scaffoldTemplate, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write skill file: %w", err)
	}
	return path, nil
}
