package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// statusRecorder remembers the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the Flusher of the real writer.
func (w *statusRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// logMiddleware tags each request with an id and logs it once it completes.
func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)

		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		log := s.Log.WithField("request_id", id).
			WithField("method", r.Method).
			WithField("path", r.URL.Path).
			WithField("status", rec.code).
			WithField("duration_ms", time.Since(start).Milliseconds())
		if rec.code >= 500 {
			log.Warn("request failed")
		} else {
			log.Info("request")
		}
	})
}

// authMiddleware enforces Basic Auth once the user store has at least one user.
// The health endpoint stays open for probes.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.UserStore == nil || s.UserStore.Len() == 0 || r.URL.Path == "/api/health" {
			next.ServeHTTP(w, r)
			return
		}

		username, password, ok := r.BasicAuth()
		if !ok || !s.UserStore.Authenticate(username, password) {
			if ok {
				s.Log.WithField("user", username).Warn("auth failed")
			}
			w.Header().Set("WWW-Authenticate", `Basic realm="ZFS Stats"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}
