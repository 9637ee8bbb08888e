// Package config holds PAI configuration: paths, the JSONC config file and
// .env loading.
package config

import "time"

// Config is the root configuration for PAI.
type Config struct {
	Gateway     GatewayConfig     `json:"gateway"`
	Skills      SkillsConfig      `json:"skills"`
	Validate    ValidateConfig    `json:"validate"`
	Capture     CaptureConfig     `json:"capture"`
	Orchestrate OrchestrateConfig `json:"orchestrate"`
	Events      EventsConfig      `json:"events"`
}

// SkillsConfig configures skill discovery.
type SkillsConfig struct {
	Dirs    []string `json:"dirs"`    // skill directories (default: [$PAI_PATH/skills])
	Enabled []string `json:"enabled"` // enabled skill names (empty = all)
}

// GatewayConfig holds the gateway server settings.
type GatewayConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// ValidateConfig configures the code validators.
type ValidateConfig struct {
	Threshold float64  `json:"threshold"` // gaming score threshold (default 0.3)
	Globs     []string `json:"globs"`     // file patterns to scan
	SkipDirs  []string `json:"skip_dirs"` // directory names to skip
}

// PageConfig describes a single page for UI capture.
type PageConfig struct {
	Path        string `json:"path"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// CaptureConfig configures the UI capture tooling.
type CaptureConfig struct {
	BaseURL        string       `json:"base_url"`
	OutputDir      string       `json:"output_dir"`
	Pages          []PageConfig `json:"pages"`
	ViewportWidth  int          `json:"viewport_width"`
	ViewportHeight int          `json:"viewport_height"`
	NavTimeout     Duration     `json:"nav_timeout,omitempty"`
}

// OrchestrateConfig configures the autonomous session worker.
type OrchestrateConfig struct {
	SessionCommand     string   `json:"session_command"` // shell command spawned per session
	MaxSessions        int      `json:"max_sessions"`
	CheckpointInterval int      `json:"checkpoint_interval"`
	MaxRetries         int      `json:"max_retries"`
	SessionTimeout     Duration `json:"session_timeout,omitempty"`
}

// EventsConfig holds event bus settings.
type EventsConfig struct {
	BufferSize int `json:"buffer_size"`
}

// Duration wraps time.Duration for JSON unmarshaling.
type Duration time.Duration

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}
