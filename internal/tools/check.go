package tools

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tomashenry/warden/internal/config"
	"github.com/tomashenry/warden/internal/engine"
	"github.com/tomashenry/warden/internal/promise"
)

// CheckTool handles the warden_check MCP tool: it runs one full
// evaluation cycle and reports blocking rules and the review fan-out
// directive.
type CheckTool struct{}

// NewCheckTool creates a CheckTool.
func NewCheckTool() *CheckTool {
	return &CheckTool{}
}

// Definition returns the MCP tool definition for registration.
func (t *CheckTool) Definition() mcp.Tool {
	return mcp.NewTool("warden_check",
		mcp.WithDescription(
			"Evaluate all configured rules against the files changed since the "+
				"baseline. Returns blocking rules that still require action, and a "+
				"fan-out directive of review tasks to dispatch as parallel subtasks. "+
				"Rules already acknowledged in the transcript with a "+
				"<promise rule=\"NAME\">…</promise> tag are skipped.",
		),
		mcp.WithString("transcript",
			mcp.Description("The conversation transcript so far, used to detect promise acknowledgments. May be empty."),
		),
	)
}

// Handle processes the warden_check tool call.
func (t *CheckTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	transcript := req.GetString("transcript", "")

	projectRoot, err := config.FindProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("finding project root: %w", err)
	}

	cfg, err := config.Load(projectRoot)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Loading %s failed: %v", config.ConfigFile, err)), nil
	}
	for _, e := range cfg.Errors {
		log.Printf("WARNING: %v", e)
	}

	eng := engine.New(projectRoot, cfg.Platform, cfg.Rules, cfg.Reviews)
	var blocks []promise.Block
	if transcript != "" {
		blocks = []promise.Block{{Role: "assistant", Text: transcript}}
	}
	res, err := eng.Run(ctx, blocks)
	if err != nil {
		return nil, fmt.Errorf("running evaluation: %w", err)
	}

	return mcp.NewToolResultText(formatResult(cfg, res)), nil
}

// formatResult renders one cycle's result as the agent-facing report.
func formatResult(cfg *config.Config, res *engine.Result) string {
	var b strings.Builder

	if res.Blocking() {
		b.WriteString("# Rules requiring action\n\n")
		for _, o := range res.Outcomes {
			if !o.Blocking {
				continue
			}
			fmt.Fprintf(&b, "## %s\n\n", o.Rule.Name)
			fmt.Fprintf(&b, "Matched files: %s\n\n", strings.Join(o.Files, ", "))
			if o.CommandOutput != "" {
				fmt.Fprintf(&b, "Command failed:\n\n```\n%s\n```\n\n", o.CommandOutput)
			}
			if inst := strings.TrimSpace(o.Rule.Action.Instructions); inst != "" {
				b.WriteString(inst + "\n\n")
			}
			if o.InstructionFile != "" {
				fmt.Fprintf(&b, "Details: @%s\n\n", o.InstructionFile)
			}
			fmt.Fprintf(&b, "When satisfied, acknowledge with `<promise rule=%q>done</promise>`. (%s)\n\n", o.Rule.Name, o.Rule.Source())
		}
	} else {
		b.WriteString("All rules satisfied — nothing blocking.\n\n")
	}

	if len(res.Suppressed) > 0 {
		b.WriteString("Acknowledged by promise (skipped): ")
		names := make([]string, len(res.Suppressed))
		for i, f := range res.Suppressed {
			names[i] = f.Rule.Name
		}
		b.WriteString(strings.Join(names, ", ") + "\n\n")
	}

	if res.FanOut != "" {
		b.WriteString("# Review fan-out\n\n")
		b.WriteString(res.FanOut)
		b.WriteString("\n")
	}

	if len(cfg.Errors) > 0 {
		b.WriteString("# Definition errors\n\n")
		for _, e := range cfg.Errors {
			fmt.Fprintf(&b, "- %v\n", e)
		}
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}
