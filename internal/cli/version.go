package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomashenry/warden/internal/server"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the warden version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("warden v%s\n", server.Version)
	},
}
