package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomashenry/warden/internal/config"
	"github.com/tomashenry/warden/internal/snapshot"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Capture the turn-start baseline",
	Long: `Record the current repository state — the HEAD commit and the full
tracked+untracked file manifest — as the baseline for prompt-mode rules.

Agent platforms normally do this through the warden_capture_baseline tool;
the command exists for hook scripts and manual testing.`,
	Args: cobra.NoArgs,
	RunE: runSnapshot,
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	projectRoot, err := config.FindProjectRoot()
	if err != nil {
		return err
	}
	snap, err := snapshot.NewStore(projectRoot).Capture()
	if err != nil {
		return err
	}
	ref := snap.Ref
	if ref == "" {
		ref = "(no commits)"
	}
	fmt.Printf("Baseline captured: ref %s, %d files\n", ref, len(snap.Files))
	return nil
}
