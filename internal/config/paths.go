package config

import (
	"os"
	"path/filepath"
)

// PAIPath returns the root directory for PAI data.
// It uses $PAI_PATH if set, otherwise defaults to ~/.pai.
func PAIPath() string {
	if v := os.Getenv("PAI_PATH"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".pai")
	}
	return filepath.Join(home, ".pai")
}

// ConfigPath returns the path to the PAI config file.
func ConfigPath() string {
	return filepath.Join(PAIPath(), "config.jsonc")
}

// DotenvPath returns the path to the PAI .env file.
func DotenvPath() string {
	return filepath.Join(PAIPath(), ".env")
}

// RegistryPath returns the path to the project registry file.
func RegistryPath() string {
	return filepath.Join(PAIPath(), "registry.json")
}

// SessionsDir returns the directory holding session stores.
func SessionsDir() string {
	return filepath.Join(PAIPath(), "sessions")
}

// SkillsDir returns the user-level skills directory.
func SkillsDir() string {
	return filepath.Join(PAIPath(), "skills")
}

// AgeKeyPath returns the path to the age encryption key.
func AgeKeyPath() string {
	return filepath.Join(PAIPath(), ".age-key")
}

// MemoriesDir returns the directory holding memory files.
func MemoriesDir() string {
	return filepath.Join(PAIPath(), "memories")
}

// SchedulesDir returns the directory holding schedule entries.
func SchedulesDir() string {
	return filepath.Join(PAIPath(), "schedules")
}

// RunsDir returns the directory holding orchestration runs.
func RunsDir() string {
	return filepath.Join(PAIPath(), "runs")
}

// HistoryPath returns the path to the run history database.
func HistoryPath() string {
	return filepath.Join(PAIPath(), "history.db")
}

// SecretsPath returns the path to the encrypted secrets file.
func SecretsPath() string {
	return filepath.Join(PAIPath(), "secrets.json")
}

// HeartbeatPath returns the path to the gateway heartbeat file.
func HeartbeatPath() string {
	return filepath.Join(PAIPath(), "heartbeat.json")
}

// EventLogDir returns the directory holding event logs.
func EventLogDir() string {
	return filepath.Join(PAIPath(), "events")
}
