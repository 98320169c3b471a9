package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/IYouKnow/zfs-stats/internal/zfs"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print aggregated pool stats once",
	Long: `Runs "zfs list" once and prints the aggregated result. The JSON output
is the same document served at /api/zfs.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		if err := checkOutputFormat(output); err != nil {
			return err
		}

		cfg := loadConfig()
		// keep stderr quiet unless asked otherwise
		if !cmd.Flags().Changed("log-level") && os.Getenv("ZFS_STATS_LOG_LEVEL") == "" && !viper.InConfig("log_level") {
			cfg.LogLevel = "warn"
		}
		log, _, err := cfg.newLogger()
		if err != nil {
			return err
		}

		st, err := cfg.newLister(log).Stats(cmd.Context())
		if err != nil {
			return err
		}
		return renderStats(cmd.OutOrStdout(), output, st)
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().StringP("output", "o", "json", "output format: json, yaml or table")
}

func checkOutputFormat(f string) error {
	switch f {
	case "json", "yaml", "table":
		return nil
	}
	return fmt.Errorf("unknown output format %q (want json, yaml or table)", f)
}

func renderStats(w io.Writer, format string, st *zfs.Stats) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(st); err != nil {
			return err
		}
		return enc.Close()
	case "table":
		return renderTable(w, st)
	}
	return checkOutputFormat(format)
}

func renderTable(w io.Writer, st *zfs.Stats) error {
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(w, "%s %s\n", bold("Pools:"), strings.Join(st.Pools, ", "))
	fmt.Fprintf(w, "%s %s  %s %s\n\n", bold("Used:"), st.TotalUsed, bold("Available:"), st.TotalAvailable)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTYPE\tUSED\tAVAIL\tREFER\tMOUNTPOINT")
	for _, list := range [][]zfs.Dataset{st.Filesystems, st.Snapshots, st.Bookmarks} {
		for _, ds := range list {
			p := ds.Properties
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				ds.Name, strings.ToLower(ds.Type), p.Used.Value, p.Available.Value, p.Referenced.Value, p.Mountpoint.Value)
		}
	}
	return tw.Flush()
}
