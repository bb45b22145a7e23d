package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tomashenry/warden/internal/config"
	"github.com/tomashenry/warden/internal/engine"
	"github.com/tomashenry/warden/internal/promise"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one evaluation cycle and print the result",
	Long: `Evaluate all configured rules against the current changeset and print
blocking rules and review tasks.

Useful in CI and for debugging rule definitions without an agent attached.

Exit codes:
  0 — no rule is blocking
  1 — at least one rule requires action`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringP("transcript", "t", "", "path to a transcript file scanned for promise acknowledgments")
}

func runCheck(cmd *cobra.Command, args []string) error {
	projectRoot, err := config.FindProjectRoot()
	if err != nil {
		return err
	}
	cfg, err := config.Load(projectRoot)
	if err != nil {
		return err
	}

	var blocks []promise.Block
	if path, _ := cmd.Flags().GetString("transcript"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading transcript: %w", err)
		}
		blocks = []promise.Block{{Role: "assistant", Text: string(data)}}
	}

	eng := engine.New(projectRoot, cfg.Platform, cfg.Rules, cfg.Reviews)
	res, err := eng.Run(cmd.Context(), blocks)
	if err != nil {
		return err
	}

	for _, e := range cfg.Errors {
		fmt.Fprintf(os.Stderr, "warning: %v\n", e)
	}

	if !res.Blocking() && len(res.Tasks) == 0 {
		fmt.Println("All rules satisfied.")
		return nil
	}

	for _, o := range res.Outcomes {
		if !o.Blocking {
			continue
		}
		fmt.Printf("BLOCKED  %s (%s)\n", o.Rule.Name, o.Rule.Source())
		fmt.Printf("         files: %s\n", strings.Join(o.Files, ", "))
		if o.CommandOutput != "" {
			fmt.Printf("         command output: %s\n", o.CommandOutput)
		}
	}
	for _, f := range res.Suppressed {
		fmt.Printf("PROMISED %s\n", f.Rule.Name)
	}
	if res.FanOut != "" {
		fmt.Println()
		fmt.Print(res.FanOut)
	}

	if res.Blocking() {
		os.Exit(1)
	}
	return nil
}
