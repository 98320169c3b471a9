package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

var rootCmd = &cobra.Command{
	Use:   "zfs-stats",
	Short: "ZFS pool and dataset overview",
	Long: `zfs-stats lists ZFS pools, filesystems, snapshots and bookmarks via
"zfs list" and serves them as JSON together with a small web UI and a live log stream.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/zfs-stats.yaml, /etc/zfs-stats.yaml or ./zfs-stats.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text or json)")
	rootCmd.PersistentFlags().String("zfs-bin", "zfs", "zfs executable")
	rootCmd.PersistentFlags().Duration("zfs-timeout", 0, "timeout for a single zfs invocation (0 disables)")
	rootCmd.PersistentFlags().String("users-file", "", "basic auth users file (default is $XDG_CONFIG_HOME/zfs-stats/users.json)")

	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("zfs_bin", rootCmd.PersistentFlags().Lookup("zfs-bin"))
	viper.BindPFlag("zfs_timeout", rootCmd.PersistentFlags().Lookup("zfs-timeout"))
	viper.BindPFlag("users_file", rootCmd.PersistentFlags().Lookup("users-file"))

	// ZFS_STATS_PORT, ZFS_STATS_ZFS_BIN, ...; plain HOST and PORT are honored too.
	viper.SetEnvPrefix("ZFS_STATS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	viper.BindEnv("host", "ZFS_STATS_HOST", "HOST")
	viper.BindEnv("port", "ZFS_STATS_PORT", "PORT")

	viper.SetDefault("host", "0.0.0.0")
	viper.SetDefault("port", "8080")
	viper.SetDefault("log_backlog", 200)
	viper.SetDefault("users_file", filepath.Join(xdg.ConfigHome, "zfs-stats", "users.json"))
}

func initConfig() {
	// .env only fills variables that are not already set
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintln(os.Stderr, "Ignoring .env:", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(xdg.ConfigHome)
		viper.AddConfigPath("/etc")
		viper.AddConfigPath(".")
		viper.SetConfigName("zfs-stats")
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		fmt.Fprintln(os.Stderr, "Cannot read config file:", err)
		os.Exit(1)
	}
}
