package zfs

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os/exec"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultListArgs lists every dataset type as JSON.
var DefaultListArgs = []string{"list", "-t", "all", "-j"}

// ListErrorKind classifies why listing failed.
type ListErrorKind int

const (
	// ExecFailed: the command could not be started.
	ExecFailed ListErrorKind = iota + 1
	// CommandFailed: the command ran and exited non-zero.
	CommandFailed
	// DecodeFailed: the command succeeded but its output is not valid list JSON.
	DecodeFailed
)

func (k ListErrorKind) String() string {
	switch k {
	case ExecFailed:
		return "exec"
	case CommandFailed:
		return "exit"
	case DecodeFailed:
		return "decode"
	}
	return "unknown"
}

// ListError is returned by Lister.List.
type ListError struct {
	Kind ListErrorKind
	// Stderr is the trimmed standard error of the command, set for CommandFailed.
	Stderr string
	Err    error
}

func (e *ListError) Error() string { return e.Err.Error() }

func (e *ListError) Unwrap() error { return e.Err }

// Runner runs a command and returns its standard output.
// A non-zero exit must be reported as *exec.ExitError with Stderr populated.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.SysProcAttr = sysProcAttr()
	return cmd.Output()
}

// Lister runs the zfs listing command and decodes its output.
// Every call spawns a new process; nothing is cached.
type Lister struct {
	// Bin is the zfs executable, "zfs" if empty.
	Bin string
	// Args default to DefaultListArgs.
	Args []string
	// Timeout bounds a single invocation. Zero means no timeout.
	Timeout time.Duration
	Runner  Runner
	Log     logrus.FieldLogger
}

func (l *Lister) bin() string {
	if l.Bin == "" {
		return "zfs"
	}
	return l.Bin
}

func (l *Lister) args() []string {
	if len(l.Args) == 0 {
		return DefaultListArgs
	}
	return l.Args
}

func (l *Lister) log() logrus.FieldLogger {
	if l.Log == nil {
		return logrus.StandardLogger()
	}
	return l.Log
}

// List runs the command once and decodes the result.
func (l *Lister) List(ctx context.Context) (*ListOutput, error) {
	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	runner := l.Runner
	if runner == nil {
		runner = ExecRunner{}
	}

	cmdline := strings.Join(append([]string{l.bin()}, l.args()...), " ")
	log := l.log().WithField("cmd", cmdline)
	log.Debug("starting command")

	start := time.Now()
	out, err := runner.Run(ctx, l.bin(), l.args()...)
	if err != nil {
		lerr := classifyRunError(l.bin(), err)
		log.WithError(lerr).Error("command exited with error")
		return nil, lerr
	}
	log.WithField("total_time_s", time.Since(start).Seconds()).
		Infof("command exited without error, read %s", humanize.IBytes(uint64(len(out))))

	res, err := decodeListOutput(out)
	if err != nil {
		lerr := &ListError{Kind: DecodeFailed, Err: errors.Wrapf(err, "failed to parse %s JSON output", l.bin())}
		log.WithError(lerr).Error("cannot decode output")
		return nil, lerr
	}
	return res, nil
}

// decodeListOutput requires a single JSON object carrying a datasets map.
func decodeListOutput(out []byte) (*ListOutput, error) {
	var res ListOutput
	dec := json.NewDecoder(bytes.NewReader(out))
	if err := dec.Decode(&res); err != nil {
		return nil, err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, errors.New("trailing data after JSON document")
	}
	if res.Datasets == nil {
		return nil, errors.New("missing field datasets")
	}
	return &res, nil
}

func classifyRunError(bin string, err error) *ListError {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		stderr := strings.TrimSpace(string(exitErr.Stderr))
		return &ListError{
			Kind:   CommandFailed,
			Stderr: stderr,
			Err:    errors.Wrapf(err, "%s command failed: %s", bin, stderr),
		}
	}
	return &ListError{Kind: ExecFailed, Err: errors.Wrapf(err, "failed to execute %s command", bin)}
}

// Stats lists datasets and aggregates them. Dropped datasets and undecodable
// sizes are logged, they never fail the call.
func (l *Lister) Stats(ctx context.Context) (*Stats, error) {
	start := time.Now()
	out, err := l.List(ctx)
	if err != nil {
		var lerr *ListError
		result := "error"
		if errors.As(err, &lerr) {
			result = lerr.Kind.String()
		}
		metrics.listDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
		return nil, err
	}
	metrics.listDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())

	log := l.log()
	st := AggregateWithHooks(*out, Hooks{
		Dropped: func(ds Dataset) {
			metrics.droppedDatasets.Inc()
			log.WithField("dataset", ds.Name).WithField("type", ds.Type).
				Warn("ignoring dataset of unknown type")
		},
		SizeError: func(ds Dataset, property string, err error) {
			log.WithField("dataset", ds.Name).WithField("property", property).WithError(err).
				Warn("size not counted in totals")
		},
	})
	log.WithField("pools", len(st.Pools)).
		WithField("filesystems", len(st.Filesystems)).
		WithField("snapshots", len(st.Snapshots)).
		WithField("bookmarks", len(st.Bookmarks)).
		Debug("aggregated datasets")
	return &st, nil
}
