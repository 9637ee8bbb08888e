// Package skills implements skill discovery, parsing, and the uniform
// command surface every skill exposes.
//
// Skills are markdown files with YAML frontmatter located in:
//   - $PAI_PATH/skills/ (user-level, all projects)
//   - .pai/skills/      (project-level, takes precedence)
package skills

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultVersion is assumed when a skill's frontmatter omits a version.
const DefaultVersion = "1.0.0"

// Skill represents a loaded skill definition.
type Skill struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Version     string   `yaml:"version"`
	Trigger     string   `yaml:"trigger"`
	Command     string   `yaml:"command"`
	Tags        []string `yaml:"tags"`

	Content  string `yaml:"-"` // markdown body (instructions)
	FilePath string `yaml:"-"` // source file path
	Project  bool   `yaml:"-"` // true when loaded from a project's .pai/skills
}

// LoadSkill reads and parses a markdown skill file from disk.
func LoadSkill(path string) (*Skill, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read skill %s: %w", path, err)
	}

	s, err := ParseSkill(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse skill %s: %w", path, err)
	}
	s.FilePath = path
	return s, nil
}

// ParseSkill parses markdown content with optional YAML frontmatter
// delimited by "---" lines at the top of the file.
func ParseSkill(content string) (*Skill, error) {
	s := &Skill{Version: DefaultVersion}

	if !strings.HasPrefix(content, "---") {
		s.Content = strings.TrimSpace(content)
		return s, nil
	}

	parts := strings.SplitN(content, "---", 3)
	if len(parts) < 3 {
		s.Content = strings.TrimSpace(content)
		return s, nil
	}

	if err := yaml.Unmarshal([]byte(parts[1]), s); err != nil {
		return nil, fmt.Errorf("frontmatter: %w", err)
	}
	if s.Version == "" {
		s.Version = DefaultVersion
	}
	s.Content = strings.TrimSpace(parts[2])
	return s, nil
}

// Validate checks the skill definition for consistency.
func (s *Skill) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("skill name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("skill %q: description is required", s.Name)
	}
	return nil
}

// String returns a human-readable representation of the skill.
func (s *Skill) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s v%s", s.Name, s.Version))
	if s.Trigger != "" {
		sb.WriteString(fmt.Sprintf(" (trigger: %s)", s.Trigger))
	}
	return sb.String()
}
