package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version information - can be set at build time
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of lscheme",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "lscheme version %s\n", Version)
		if GitCommit != "unknown" {
			fmt.Fprintf(cmd.OutOrStdout(), "  Git commit: %s\n", GitCommit)
		}
		if BuildDate != "unknown" {
			fmt.Fprintf(cmd.OutOrStdout(), "  Build date: %s\n", BuildDate)
		}
	},
}
