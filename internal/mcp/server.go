// Package mcp provides an MCP server that exposes leobot's read-only tools.
package mcp

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewMCPServer creates an MCP server exposing tools. If filter is non-empty,
// only the comma-separated tool names it lists are exposed.
func NewMCPServer(version string, tools []Tool, filter string) *mcpsdk.Server {
	server := mcpsdk.NewServer(&mcpsdk.Implementation{
		Name:    "leobot",
		Version: version,
	}, nil)

	for _, t := range tools {
		if !matchesFilter(t.Spec.Name, filter) {
			continue
		}

		run := t.Run
		toolName := t.Spec.Name

		server.AddTool(toolSpecToMCPTool(t.Spec), func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
			args := req.Params.Arguments
			if len(args) == 0 {
				args = json.RawMessage(`{}`)
			}
			result, err := run(ctx, args)
			if err != nil {
				slog.Debug("mcp tool error", "tool", toolName, "error", err)
				return &mcpsdk.CallToolResult{
					IsError: true,
					Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: err.Error()}},
				}, nil
			}
			return &mcpsdk.CallToolResult{
				Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: result}},
			}, nil
		})

		slog.Debug("mcp tool registered", "tool", toolName)
	}

	return server
}

// matchesFilter checks if a tool name is selected by the filter.
func matchesFilter(toolName, filter string) bool {
	if filter == "" {
		return true
	}
	for _, f := range strings.Split(filter, ",") {
		if strings.TrimSpace(f) == toolName {
			return true
		}
	}
	return false
}
