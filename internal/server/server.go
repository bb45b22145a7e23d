// Package server wires the MCP components and creates the server
// instance.
//
// This is the composition root: it creates the tool handlers and
// registers them. No evaluation logic lives here, only wiring.
package server

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/tomashenry/warden/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// New creates and configures the MCP server with all warden tools
// registered.
func New() *server.MCPServer {
	s := server.NewMCPServer(
		"warden",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	baselineTool := tools.NewBaselineTool()
	s.AddTool(baselineTool.Definition(), baselineTool.Handle)

	checkTool := tools.NewCheckTool()
	s.AddTool(checkTool.Definition(), checkTool.Handle)

	statusTool := tools.NewStatusTool()
	s.AddTool(statusTool.Definition(), statusTool.Handle)

	return s
}

// serverInstructions is the guidance surfaced to the connected agent.
func serverInstructions() string {
	return `Warden watches the files you change and fires the project's rules.

Workflow:
1. Call warden_capture_baseline once at the start of each turn, before editing.
2. After making changes, call warden_check with the conversation transcript.
3. Resolve every blocking rule it reports, or acknowledge a rule you have
   already satisfied with <promise rule="Rule Name">done</promise> in your reply.
4. If warden_check returns a review fan-out, dispatch each listed task as a
   parallel subtask with the given persona and instruction file.

Rules are configured by the project in warden.yml; warden_status lists them.`
}
