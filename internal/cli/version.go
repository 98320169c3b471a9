package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/IYouKnow/zfs-stats/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "zfs-stats", version.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
