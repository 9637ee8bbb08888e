package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDotenv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "PAI_TEST_A=hello\nPAI_TEST_B=\"quoted value\"\n# comment\nexport PAI_TEST_C='single'\nnot a pair\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	t.Setenv("PAI_TEST_A", "")
	os.Unsetenv("PAI_TEST_A")
	t.Setenv("PAI_TEST_B", "")
	os.Unsetenv("PAI_TEST_B")
	t.Setenv("PAI_TEST_C", "")
	os.Unsetenv("PAI_TEST_C")

	if err := LoadDotenv(path); err != nil {
		t.Fatalf("LoadDotenv: %v", err)
	}

	if got := os.Getenv("PAI_TEST_A"); got != "hello" {
		t.Errorf("PAI_TEST_A = %q, want hello", got)
	}
	if got := os.Getenv("PAI_TEST_B"); got != "quoted value" {
		t.Errorf("PAI_TEST_B = %q, want quoted value", got)
	}
	if got := os.Getenv("PAI_TEST_C"); got != "single" {
		t.Errorf("PAI_TEST_C = %q, want single", got)
	}
}

func TestLoadDotenvDoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("PAI_TEST_KEEP=file\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	t.Setenv("PAI_TEST_KEEP", "env")

	if err := LoadDotenv(path); err != nil {
		t.Fatalf("LoadDotenv: %v", err)
	}
	if got := os.Getenv("PAI_TEST_KEEP"); got != "env" {
		t.Errorf("PAI_TEST_KEEP = %q, want env (no override)", got)
	}
}

func TestLoadDotenvMissingFile(t *testing.T) {
	if err := LoadDotenv(filepath.Join(t.TempDir(), "nope.env")); err != nil {
		t.Fatalf("missing file should be ignored, got %v", err)
	}
}

func TestPAIPathEnvOverride(t *testing.T) {
	t.Setenv("PAI_PATH", "/tmp/custom-pai")
	if got := PAIPath(); got != "/tmp/custom-pai" {
		t.Errorf("PAIPath = %q, want /tmp/custom-pai", got)
	}
	if got := ConfigPath(); got != "/tmp/custom-pai/config.jsonc" {
		t.Errorf("ConfigPath = %q", got)
	}
	if got := RegistryPath(); got != "/tmp/custom-pai/registry.json" {
		t.Errorf("RegistryPath = %q", got)
	}
}
