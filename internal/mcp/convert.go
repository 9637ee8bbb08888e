// Package mcp exposes loaded skills as MCP tools over stdio, so MCP
// clients can list and invoke them like any other tool.
package mcp

import (
	"regexp"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/pai-sh/pai/internal/skills"
)

var toolNameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// ToolName derives a valid MCP tool name from a skill name.
func ToolName(skillName string) string {
	name := toolNameSanitizer.ReplaceAllString(skillName, "_")
	return "skill_" + strings.Trim(name, "_")
}

// skillToMCPTool converts a skill to an mcp.Tool with a JSON Schema
// accepting an optional argument list.
func skillToMCPTool(s *skills.Skill) *mcpsdk.Tool {
	description := s.Description
	if description == "" {
		description = "pai skill " + s.Name
	}

	return &mcpsdk.Tool{
		Name:        ToolName(s.Name),
		Description: description,
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"args": map[string]any{
					"type":        "array",
					"description": "Arguments passed to the skill command line",
					"items":       map[string]any{"type": "string"},
				},
			},
		},
	}
}
