// Warden: change-aware rule engine for AI coding agents.
//
// Warden decides, given the files an agent changed relative to a
// baseline, which of the project's rules fire and what instructions or
// review tasks should be surfaced back to the agent. It runs either as
// an MCP server over stdio (warden serve) or as a one-shot CLI check.
package main

import (
	"os"

	"github.com/tomashenry/warden/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
