package skills

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Registry manages loaded skill definitions.
type Registry struct {
	skills map[string]*Skill
}

// NewRegistry creates a new skill registry.
func NewRegistry() *Registry {
	return &Registry{
		skills: make(map[string]*Skill),
	}
}

// LoadUserAndProject loads user-level skills from userDir, then overlays
// project-level skills from <cwd>/.pai/skills. Project skills shadow
// user skills with the same name.
func LoadUserAndProject(userDir, cwd string) (*Registry, error) {
	r := NewRegistry()

	if err := r.LoadDir(userDir, false); err != nil {
		return nil, err
	}
	if cwd != "" {
		if err := r.LoadDir(filepath.Join(cwd, ".pai", "skills"), true); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// LoadDir scans a directory for *.md skill files and loads them.
// When project is true, loaded skills replace any same-named skill
// already registered.
func (r *Registry) LoadDir(dir string, project bool) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Debug("skills directory not found, skipping", "dir", dir)
			return nil
		}
		return fmt.Errorf("read skills dir %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		skill, err := LoadSkill(path)
		if err != nil {
			slog.Warn("failed to load skill", "path", path, "error", err)
			continue
		}
		if skill.Name == "" {
			skill.Name = strings.TrimSuffix(entry.Name(), ".md")
		}
		skill.Project = project

		if existing, ok := r.skills[skill.Name]; ok && !project {
			slog.Warn("skill shadowed, keeping first", "name", skill.Name, "kept", existing.FilePath)
			continue
		}
		r.skills[skill.Name] = skill
	}

	return nil
}

// Get returns the skill with the given name, or nil.
func (r *Registry) Get(name string) *Skill {
	return r.skills[name]
}

// Resolve finds a skill by name or trigger.
func (r *Registry) Resolve(nameOrTrigger string) *Skill {
	if s, ok := r.skills[nameOrTrigger]; ok {
		return s
	}
	for _, s := range r.skills {
		if s.Trigger != "" && s.Trigger == nameOrTrigger {
			return s
		}
	}
	return nil
}

// All returns all registered skills sorted by name.
func (r *Registry) All() []*Skill {
	result := make([]*Skill, 0, len(r.skills))
	for _, s := range r.skills {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// Names returns all registered skill names sorted alphabetically.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.skills))
	for name := range r.skills {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
