package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/netutil"

	"github.com/IYouKnow/zfs-stats/internal/assets"
	"github.com/IYouKnow/zfs-stats/internal/logging"
	"github.com/IYouKnow/zfs-stats/internal/zfs"
	"github.com/IYouKnow/zfs-stats/pkg/user"
)

// StatsSource produces the aggregated pool view. *zfs.Lister implements it.
type StatsSource interface {
	Stats(ctx context.Context) (*zfs.Stats, error)
}

// Server serves the stats API, the log stream and the web UI.
type Server struct {
	Addr string
	// MaxConns limits concurrently accepted connections; zero means no limit.
	MaxConns int

	Stats     StatsSource
	Assets    *assets.Source
	UserStore *user.Store          // optional; basic auth is enforced once it has users
	Logs      *logging.Broadcaster // optional
	Metrics   *prometheus.Registry // optional
	Log       logrus.FieldLogger

	HTTPServer *http.Server

	closing   chan struct{} // closed by Shutdown, ends log streams
	closeOnce sync.Once
}

// New creates a new Server instance.
func New(addr string, stats StatsSource, ui *assets.Source, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Server{
		Addr:   addr,
		Stats:  stats,
		Assets: ui,
		Log:    log,

		closing: make(chan struct{}),
	}
	s.HTTPServer = &http.Server{Addr: addr}
	return s
}

// Handler returns the full handler chain: request log -> auth -> routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/zfs", s.handleZFS)
	mux.HandleFunc("GET /api/logs", s.handleLogs)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/", http.NotFound)
	if s.Metrics != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.Metrics, promhttp.HandlerOpts{}))
	}
	mux.HandleFunc("GET /", s.handleStatic)

	return s.logMiddleware(s.authMiddleware(mux))
}

// Start listens on Addr and serves until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on an existing listener.
func (s *Server) Serve(ln net.Listener) error {
	if s.MaxConns > 0 {
		ln = netutil.LimitListener(ln, s.MaxConns)
	}
	s.HTTPServer.Handler = s.Handler()

	s.Log.WithField("addr", ln.Addr().String()).Infof("starting server at http://%s", ln.Addr())
	if err := s.HTTPServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.closeOnce.Do(func() { close(s.closing) })
	return s.HTTPServer.Shutdown(ctx)
}
