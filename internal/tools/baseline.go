package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tomashenry/warden/internal/config"
	"github.com/tomashenry/warden/internal/snapshot"
)

// BaselineTool handles the warden_capture_baseline MCP tool. The host
// platform calls it at turn start; prompt-baseline rules then measure
// "changed" against the captured state.
type BaselineTool struct{}

// NewBaselineTool creates a BaselineTool.
func NewBaselineTool() *BaselineTool {
	return &BaselineTool{}
}

// Definition returns the MCP tool definition for registration.
func (t *BaselineTool) Definition() mcp.Tool {
	return mcp.NewTool("warden_capture_baseline",
		mcp.WithDescription(
			"Capture the current repository state as the turn-start baseline: "+
				"the HEAD commit (if any) and the full list of tracked and untracked "+
				"files. Call once at the start of each agent turn, before making changes.",
		),
	)
}

// Handle processes the warden_capture_baseline tool call.
func (t *BaselineTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectRoot, err := config.FindProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("finding project root: %w", err)
	}

	snap, err := snapshot.NewStore(projectRoot).Capture()
	if err != nil {
		return nil, fmt.Errorf("capturing baseline: %w", err)
	}

	ref := snap.Ref
	if ref == "" {
		ref = "(no commits)"
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Baseline captured.\n\nRef: %s\nFiles in manifest: %d\n", ref, len(snap.Files),
	)), nil
}
