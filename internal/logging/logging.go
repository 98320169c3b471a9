// Package logging sets up the process logger and the log stream shown in the UI.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Options configure New.
type Options struct {
	Level  string // logrus level name, "info" if empty
	Format string // "text" or "json"
	// Backlog is the number of lines replayed to new log stream subscribers.
	Backlog int
	Out     io.Writer
}

// New returns a logger writing to opts.Out (stderr by default) that also
// publishes every entry to the returned Broadcaster.
func New(opts Options) (*logrus.Logger, *Broadcaster, error) {
	log := logrus.New()
	if opts.Out != nil {
		log.SetOutput(opts.Out)
	} else {
		log.SetOutput(os.Stderr)
	}

	level := logrus.InfoLevel
	if opts.Level != "" {
		var err error
		if level, err = logrus.ParseLevel(opts.Level); err != nil {
			return nil, nil, err
		}
	}
	log.SetLevel(level)

	switch strings.ToLower(opts.Format) {
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, nil, fmt.Errorf("unknown log format %q (want text or json)", opts.Format)
	}

	b := NewBroadcaster(opts.Backlog)
	log.AddHook(b)
	return log, b, nil
}
