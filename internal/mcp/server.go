package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/pai-sh/pai/internal/events"
	"github.com/pai-sh/pai/internal/skills"
)

// NewServer creates an MCP server exposing every skill in the registry
// as a tool. A bare tool call returns the skill's instruction body with
// its descriptor metadata; calls with args run the skill's command
// surface and return its output. bus may be nil.
func NewServer(registry *skills.Registry, bus *events.Bus, version string) *mcpsdk.Server {
	server := mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    "pai",
		Version: version,
	}, nil)

	for _, name := range registry.Names() {
		skill := registry.Get(name)
		if skill == nil {
			continue
		}

		tool := skillToMCPTool(skill)
		s := skill

		server.AddTool(tool, func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
			args := parseArgs(req.Params.Arguments)
			result := runSkill(s, args, bus)
			return result, nil
		})

		slog.Debug("mcp tool registered", "tool", tool.Name, "skill", name)
	}

	return server
}

// Serve runs the server over stdio until the client disconnects or ctx
// is canceled.
func Serve(ctx context.Context, server *mcpsdk.Server) error {
	return server.Run(ctx, &mcpsdk.StdioTransport{})
}

func parseArgs(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var params struct {
		Args []string `json:"args"`
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil
	}
	return params.Args
}

func runSkill(s *skills.Skill, args []string, bus *events.Bus) *mcpsdk.CallToolResult {
	// A bare tool call hands the skill's instructions to the host
	// assistant; subcommands go through the uniform command surface.
	if len(args) == 0 {
		publishInvoked(bus, s, args, skills.ExitOK)
		return &mcpsdk.CallToolResult{
			Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: instructionDoc(s)}},
		}
	}

	var stdout, stderr bytes.Buffer
	code := skills.Invoke(s, args, &stdout, &stderr)
	publishInvoked(bus, s, args, code)

	if code != skills.ExitOK {
		return &mcpsdk.CallToolResult{
			IsError: true,
			Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: stderr.String()}},
		}
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: stdout.String()}},
	}
}

// instructionDoc renders a skill's descriptor metadata followed by its
// markdown instruction body.
func instructionDoc(s *skills.Skill) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", s.Name)
	if s.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", s.Description)
	}
	fmt.Fprintf(&b, "Version: %s\n", s.Version)
	if s.Trigger != "" {
		fmt.Fprintf(&b, "Trigger: %s\n", s.Trigger)
	}
	if s.FilePath != "" {
		fmt.Fprintf(&b, "Source: %s\n", s.FilePath)
	}
	b.WriteString("\n")
	b.WriteString(strings.TrimSpace(s.Content))
	b.WriteString("\n")
	return b.String()
}

func publishInvoked(bus *events.Bus, s *skills.Skill, args []string, code int) {
	if bus != nil {
		bus.Publish(events.NewEvent(events.EventSkillInvoked, events.SourceSkill, map[string]any{
			"skill":     s.Name,
			"args":      args,
			"exit_code": code,
		}))
	}
}
