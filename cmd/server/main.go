// Command server is the minimal standalone HTTP service: embedded UI, /api/zfs
// and /api/logs, configured only through HOST, PORT and LOG_LEVEL.
// Use `zfs-stats serve` for config files, auth and metrics.
package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/IYouKnow/zfs-stats/internal/assets"
	"github.com/IYouKnow/zfs-stats/internal/logging"
	"github.com/IYouKnow/zfs-stats/internal/server"
	"github.com/IYouKnow/zfs-stats/internal/zfs"
)

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	log, logs, err := logging.New(logging.Options{Level: os.Getenv("LOG_LEVEL"), Backlog: 200})
	if err != nil {
		log, logs, _ = logging.New(logging.Options{Backlog: 200})
		log.WithError(err).Warn("invalid LOG_LEVEL, using info")
	}

	host := getenv("HOST", "0.0.0.0")
	if net.ParseIP(host) == nil {
		log.WithField("host", host).Warn("HOST is not an IP address, using 0.0.0.0")
		host = "0.0.0.0"
	}
	port := getenv("PORT", "8080")
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		log.WithField("port", port).Warn("PORT is not a port number, using 8080")
		port = "8080"
	}
	addr := net.JoinHostPort(host, port)

	srv := server.New(addr, &zfs.Lister{Log: log}, assets.Embedded(), log)
	srv.Logs = logs

	go func() {
		if err := srv.Start(); err != nil {
			log.WithError(err).Fatal("server error")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("shutdown error")
	}
}
