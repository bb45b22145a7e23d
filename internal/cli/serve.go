package cli

import (
	"fmt"
	"log"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/tomashenry/warden/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server (stdio transport)",
	Long: `Start warden as an MCP server on stdio.

Register it with your agent platform so the agent can capture a
turn-start baseline, run rule checks, and receive review fan-out.
Diagnostics go to stderr; stdout carries the MCP transport.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	// Stdout carries the MCP transport; diagnostics go to stderr.
	log.Printf("warden %s: MCP server starting on stdio", server.Version)
	s := server.New()
	if err := mcpserver.ServeStdio(s); err != nil {
		return fmt.Errorf("serving MCP: %w", err)
	}
	return nil
}
