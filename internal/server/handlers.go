package server

import (
	"encoding/json"
	"fmt"
	"net/http"
)

func (s *Server) handleZFS(w http.ResponseWriter, r *http.Request) {
	st, err := s.Stats.Stats(r.Context())
	if err != nil {
		s.Log.WithError(err).Error("zfs error")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, st)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}

// logEvent is the payload of one log stream event.
type logEvent struct {
	Message string `json:"message"`
}

// handleLogs streams log lines as server-sent events, starting with the backlog.
func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	if s.Logs == nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	backlog, lines, cancel := s.Logs.Subscribe()
	defer cancel()

	rc := http.NewResponseController(w)
	send := func(line string) error {
		data, err := json.Marshal(logEvent{Message: line})
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	for _, line := range backlog {
		if err := send(line); err != nil {
			return
		}
	}
	if err := rc.Flush(); err != nil {
		return
	}

	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return
			}
			if err := send(line); err != nil {
				return
			}
		case <-r.Context().Done():
			return
		case <-s.closing:
			return
		}
	}
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	a, err := s.Assets.Resolve(r.URL.Path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", a.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(a.Body)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	if err := enc.Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
