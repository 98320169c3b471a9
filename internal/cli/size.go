package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/IYouKnow/zfs-stats/internal/zfs"
)

var parseSizeCmd = &cobra.Command{
	Use:   "parse-size SIZE...",
	Short: "Convert zfs sizes like 12.3G to bytes",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, a := range args {
			n, err := zfs.ParseSize(a)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
		}
		return nil
	},
}

var formatBytesCmd = &cobra.Command{
	Use:   "format-bytes BYTES...",
	Short: "Render byte counts the way zfs-stats prints totals",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, a := range args {
			n, err := strconv.ParseUint(a, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid byte count %q", a)
			}
			fmt.Fprintln(cmd.OutOrStdout(), zfs.FormatBytes(n))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(parseSizeCmd)
	rootCmd.AddCommand(formatBytesCmd)
}
