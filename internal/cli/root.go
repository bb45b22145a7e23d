// Package cli implements the warden command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "warden",
	Short: "Change-aware rule engine for AI coding agents",
	Long: `Warden evaluates a project's rules against the files changed since a
baseline and surfaces the instructions, commands, and review tasks an
AI coding agent must act on.

Run "warden serve" to expose the engine to an agent platform over MCP,
or "warden check" for a one-shot evaluation in a terminal or CI.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(versionCmd)
}
