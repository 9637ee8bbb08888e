package mcp

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/pai-sh/pai/internal/skills"
)

func TestToolName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"content-scanner", "skill_content-scanner"},
		{"my skill!", "skill_my_skill"},
		{"tts", "skill_tts"},
	}
	for _, tt := range tests {
		if got := ToolName(tt.in); got != tt.want {
			t.Errorf("ToolName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSkillToMCPTool(t *testing.T) {
	s := &skills.Skill{
		Name:        "content-scanner",
		Description: "Scan content for problems",
	}

	tool := skillToMCPTool(s)
	if tool.Name != "skill_content-scanner" {
		t.Errorf("Name = %q", tool.Name)
	}
	if tool.Description != "Scan content for problems" {
		t.Errorf("Description = %q", tool.Description)
	}

	schema, ok := tool.InputSchema.(map[string]any)
	if !ok {
		t.Fatalf("InputSchema type %T", tool.InputSchema)
	}
	if schema["type"] != "object" {
		t.Errorf("schema type = %v", schema["type"])
	}
	props, ok := schema["properties"].(map[string]any)
	if !ok || props["args"] == nil {
		t.Errorf("properties = %v", schema["properties"])
	}
}

func TestSkillToMCPToolFallbackDescription(t *testing.T) {
	tool := skillToMCPTool(&skills.Skill{Name: "tts"})
	if !strings.Contains(tool.Description, "tts") {
		t.Errorf("Description = %q", tool.Description)
	}
}

func TestParseArgs(t *testing.T) {
	if got := parseArgs(nil); got != nil {
		t.Errorf("nil input = %v", got)
	}
	if got := parseArgs([]byte(`{"args":["help"]}`)); len(got) != 1 || got[0] != "help" {
		t.Errorf("got %v", got)
	}
	if got := parseArgs([]byte(`not json`)); got != nil {
		t.Errorf("invalid input = %v", got)
	}
}

func TestRunSkillNoArgsReturnsInstructions(t *testing.T) {
	s := &skills.Skill{
		Name:        "content-scanner",
		Description: "Scan content for problems",
		Version:     "1.0.0",
		FilePath:    "/home/me/.pai/skills/content-scanner.md",
		Content:     "Scan every changed file and report violations by category.",
	}

	result := runSkill(s, nil, nil)
	if result.IsError {
		t.Fatal("bare call should not error")
	}
	text := textOf(t, result)
	if !strings.Contains(text, "Scan every changed file") {
		t.Errorf("output missing instruction body: %q", text)
	}
	if !strings.Contains(text, "content-scanner") {
		t.Errorf("output missing skill name: %q", text)
	}
	if !strings.Contains(text, "Version: 1.0.0") {
		t.Errorf("output missing version metadata: %q", text)
	}
	if !strings.Contains(text, s.FilePath) {
		t.Errorf("output missing descriptor path: %q", text)
	}
}

func TestRunSkill(t *testing.T) {
	s := &skills.Skill{Name: "tts", Description: "Text to speech", Version: "2.0.0"}

	result := runSkill(s, []string{"version"}, nil)
	if result.IsError {
		t.Fatal("version should not error")
	}
	text := textOf(t, result)
	if !strings.Contains(text, "tts v2.0.0") {
		t.Errorf("output = %q", text)
	}

	failed := runSkill(s, []string{"speak"}, nil)
	if !failed.IsError {
		t.Fatal("unimplemented subcommand should be an error result")
	}
	if !strings.Contains(textOf(t, failed), "not implemented") {
		t.Errorf("error output = %q", textOf(t, failed))
	}
}

func TestNewServerRegistersSkills(t *testing.T) {
	dir := t.TempDir()
	content := "---\nname: tts\ndescription: Text to speech\n---\nSpeak text aloud.\n"
	if err := os.WriteFile(filepath.Join(dir, "tts.md"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	registry := skills.NewRegistry()
	if err := registry.LoadDir(dir, false); err != nil {
		t.Fatalf("LoadDir: %v", err)
	}

	server := NewServer(registry, nil, "0.1.0")
	if server == nil {
		t.Fatal("NewServer returned nil")
	}
}

func textOf(t *testing.T, result *mcpsdk.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("result has no content")
	}
	text, ok := result.Content[0].(*mcpsdk.TextContent)
	if !ok {
		t.Fatalf("content type %T", result.Content[0])
	}
	return text.Text
}
