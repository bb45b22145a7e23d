package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tomashenry/warden/internal/config"
	"github.com/tomashenry/warden/internal/review"
)

// StatusTool handles the warden_status MCP tool: an operator view of
// what is configured and what failed to load.
type StatusTool struct{}

// NewStatusTool creates a StatusTool.
func NewStatusTool() *StatusTool {
	return &StatusTool{}
}

// Definition returns the MCP tool definition for registration.
func (t *StatusTool) Definition() mcp.Tool {
	return mcp.NewTool("warden_status",
		mcp.WithDescription(
			"List the loaded rule and review definitions, their detection modes "+
				"and baselines, and any definitions that failed to load.",
		),
	)
}

// Handle processes the warden_status tool call.
func (t *StatusTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectRoot, err := config.FindProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("finding project root: %w", err)
	}

	cfg, err := config.Load(projectRoot)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Loading %s failed: %v", config.ConfigFile, err)), nil
	}

	var b strings.Builder
	b.WriteString("# Warden status\n\n")
	fmt.Fprintf(&b, "**Project root:** %s\n", projectRoot)
	platform := cfg.Platform
	if platform == "" {
		platform = "(unset)"
	}
	fmt.Fprintf(&b, "**Platform:** %s\n\n", platform)

	b.WriteString("## Detection rules\n\n")
	if len(cfg.Rules) == 0 {
		b.WriteString("None configured.\n\n")
	} else {
		b.WriteString("| Rule | Mode | Baseline | Action | Source |\n")
		b.WriteString("|------|------|----------|--------|--------|\n")
		for _, r := range cfg.Rules {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
				r.Name, r.Mode, r.BaselineOrDefault(), r.Action.Kind, r.Source())
		}
		b.WriteString("\n")
	}

	b.WriteString("## Review rules\n\n")
	if len(cfg.Reviews) == 0 {
		b.WriteString("None configured.\n\n")
	} else {
		b.WriteString("| Rule | Grouping | Source |\n")
		b.WriteString("|------|----------|--------|\n")
		for _, r := range cfg.Reviews {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", review.DisplayName(r), r.Grouping, r.Source())
		}
		b.WriteString("\n")
	}

	if len(cfg.Errors) > 0 {
		b.WriteString("## Definition errors\n\n")
		for _, e := range cfg.Errors {
			fmt.Fprintf(&b, "- %v\n", e)
		}
	}

	return mcp.NewToolResultText(b.String()), nil
}
