package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/tailscale/hujson"
)

var envTemplateRe = regexp.MustCompile(`\$\{\{\s*\.Env\.(\w+)\s*\}\}`)

// Load reads a JSONC config file, expands ${{ .Env.VAR }} templates,
// unmarshals it into Config, and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variable templates before stripping comments,
	// since templates live inside JSON strings.
	expanded := expandEnvTemplates(string(data))

	standard, err := hujson.Standardize([]byte(expanded))
	if err != nil {
		return nil, fmt.Errorf("standardize config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(standard, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)
	return &cfg, nil
}

// Default returns a Config with all defaults applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// expandEnvTemplates replaces ${{ .Env.VAR }} with the env var value.
func expandEnvTemplates(s string) string {
	return envTemplateRe.ReplaceAllStringFunc(s, func(match string) string {
		parts := envTemplateRe.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		return os.Getenv(parts[1])
	})
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Gateway.Host == "" {
		cfg.Gateway.Host = "127.0.0.1"
	}
	if cfg.Gateway.Port == 0 {
		cfg.Gateway.Port = 18770
	}
	if cfg.Events.BufferSize == 0 {
		cfg.Events.BufferSize = 1024
	}
	if len(cfg.Skills.Dirs) == 0 {
		cfg.Skills.Dirs = []string{filepath.Join(PAIPath(), "skills")}
	}
	if cfg.Validate.Threshold == 0 {
		cfg.Validate.Threshold = 0.3
	}
	if len(cfg.Validate.Globs) == 0 {
		cfg.Validate.Globs = []string{"**/*.py", "**/*.ts", "**/*.tsx", "**/*.js", "**/*.jsx", "**/*.go"}
	}
	if len(cfg.Validate.SkipDirs) == 0 {
		cfg.Validate.SkipDirs = []string{"node_modules", ".git", "__pycache__", "venv", ".venv", "dist", "build", "vendor"}
	}
	if cfg.Capture.BaseURL == "" {
		cfg.Capture.BaseURL = "http://localhost:5189"
	}
	if cfg.Capture.OutputDir == "" {
		cfg.Capture.OutputDir = "captured"
	}
	if cfg.Capture.ViewportWidth == 0 {
		cfg.Capture.ViewportWidth = 1920
	}
	if cfg.Capture.ViewportHeight == 0 {
		cfg.Capture.ViewportHeight = 1080
	}
	if cfg.Capture.NavTimeout == 0 {
		cfg.Capture.NavTimeout = Duration(30 * time.Second)
	}
	if len(cfg.Capture.Pages) == 0 {
		cfg.Capture.Pages = DefaultPages()
	}
	if cfg.Orchestrate.MaxSessions == 0 {
		cfg.Orchestrate.MaxSessions = 50
	}
	if cfg.Orchestrate.CheckpointInterval == 0 {
		cfg.Orchestrate.CheckpointInterval = 5
	}
	if cfg.Orchestrate.MaxRetries == 0 {
		cfg.Orchestrate.MaxRetries = 2
	}
	if cfg.Orchestrate.SessionTimeout == 0 {
		cfg.Orchestrate.SessionTimeout = Duration(10 * time.Minute)
	}
}

// DefaultPages returns the default dashboard page list for UI capture.
func DefaultPages() []PageConfig {
	return []PageConfig{
		{Path: "/", Name: "dashboard", Description: "Dashboard - Main overview"},
		{Path: "/email", Name: "email", Description: "Email - Inbox and message management"},
		{Path: "/approvals", Name: "approvals", Description: "Approvals - Pending approval queue"},
		{Path: "/channels", Name: "channels", Description: "Channels - Account management"},
		{Path: "/knowledge", Name: "knowledge", Description: "Knowledge - Knowledge base"},
		{Path: "/threads", Name: "threads", Description: "Threads - Conversation threads"},
		{Path: "/automation", Name: "automation", Description: "Automation - Workflow rules"},
		{Path: "/templates", Name: "templates", Description: "Templates - Message templates"},
		{Path: "/settings", Name: "settings", Description: "Settings - Application settings"},
	}
}
