package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/IYouKnow/zfs-stats/internal/assets"
	"github.com/IYouKnow/zfs-stats/internal/server"
	"github.com/IYouKnow/zfs-stats/internal/zfs"
	"github.com/IYouKnow/zfs-stats/pkg/user"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the stats API and web UI",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		log, logs, err := cfg.newLogger()
		if err != nil {
			return err
		}

		ui := assets.Embedded()
		if cfg.AssetsDir != "" {
			if ui, err = assets.Dir(cfg.AssetsDir); err != nil {
				return fmt.Errorf("failed to open assets dir: %w", err)
			}
			log.WithField("dir", cfg.AssetsDir).Info("serving UI from disk")
		}

		store, err := user.Open(cfg.UsersFile)
		if err != nil {
			return fmt.Errorf("failed to load user store: %w", err)
		}
		if store.Len() == 0 {
			log.Warn("no users defined, HTTP interface is unauthenticated. Use 'zfs-stats user add' to require a login.")
		}

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		if err := zfs.RegisterMetrics(reg); err != nil {
			return err
		}

		srv := server.New(cfg.Addr(), cfg.newLister(log), ui, log)
		srv.MaxConns = cfg.MaxConns
		srv.UserStore = store
		srv.Logs = logs
		srv.Metrics = reg

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		g, gctx := errgroup.WithContext(ctx)
		g.Go(srv.Start)
		g.Go(func() error {
			<-gctx.Done()
			log.Info("shutting down server...")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown error: %w", err)
			}
			return nil
		})
		if err := g.Wait(); err != nil {
			return err
		}

		log.Info("server stopped gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	// Flags
	serveCmd.Flags().String("host", "0.0.0.0", "address to bind")
	serveCmd.Flags().StringP("port", "p", "8080", "port to listen on")
	serveCmd.Flags().String("assets-dir", "", "serve the web UI from this directory instead of the embedded copy")
	serveCmd.Flags().Int("max-conns", 0, "maximum concurrent connections (0 is unlimited)")
	serveCmd.Flags().Int("log-backlog", 200, "log lines replayed to new log stream clients")

	// Bind flags to viper
	viper.BindPFlag("host", serveCmd.Flags().Lookup("host"))
	viper.BindPFlag("port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("assets_dir", serveCmd.Flags().Lookup("assets-dir"))
	viper.BindPFlag("max_conns", serveCmd.Flags().Lookup("max-conns"))
	viper.BindPFlag("log_backlog", serveCmd.Flags().Lookup("log-backlog"))
}
