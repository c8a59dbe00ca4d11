package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"
)

const (
	EnvLogFile  = "PLASTIC_GO_LOG_FILE"
	EnvLogLevel = "PLASTIC_GO_LOG_LEVEL"

	prefix = "plastic-go"
)

// Options selects where logs go and how verbose they are. Empty fields fall
// back to stderr at info level.
type Options struct {
	Level   string
	File    string
	Verbose bool
}

// WithEnv overlays the PLASTIC_GO_LOG_* environment variables on opts.
func (opts Options) WithEnv(getenv func(string) string) Options {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := strings.TrimSpace(getenv(EnvLogFile)); v != "" {
		opts.File = v
	}
	if v := strings.TrimSpace(getenv(EnvLogLevel)); v != "" {
		opts.Level = v
	}
	return opts
}

func (opts Options) level() (charmlog.Level, error) {
	if opts.Verbose {
		return charmlog.DebugLevel, nil
	}
	s := strings.ToLower(strings.TrimSpace(opts.Level))
	switch s {
	case "":
		return charmlog.InfoLevel, nil
	case "warning":
		s = "warn"
	}
	level, err := charmlog.ParseLevel(s)
	if err != nil {
		return 0, fmt.Errorf("parse log level %q: %w", opts.Level, err)
	}
	return level, nil
}

// New builds a charm logger. Terminal output uses the text formatter, files
// get logfmt so they stay greppable.
func New(w io.Writer, level charmlog.Level, toFile bool) *charmlog.Logger {
	formatter := charmlog.TextFormatter
	if toFile {
		formatter = charmlog.LogfmtFormatter
	}
	return charmlog.NewWithOptions(w, charmlog.Options{
		Level:           level,
		Prefix:          prefix,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       formatter,
	})
}

// Setup installs the default slog logger. The returned function closes the log
// file, if any.
func Setup(opts Options, stderr io.Writer) (func() error, error) {
	level, err := opts.level()
	if err != nil {
		return nil, err
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	closer := func() error { return nil }

	var logger *charmlog.Logger
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		logger = New(f, level, true)
		closer = f.Close
	} else {
		logger = New(stderr, level, false)
	}
	slog.SetDefault(slog.New(logger))
	return closer, nil
}

// Op times an operation. Call the returned function when it completes, with
// the error (if any) and extra result attributes.
//
//	done := logging.Op("update status", "files", len(files))
//	defer func() { done(err, "changed", n) }()
func Op(op string, keyvals ...any) func(err error, result ...any) {
	start := time.Now()
	return func(err error, result ...any) {
		args := make([]any, 0, len(keyvals)+len(result)+6)
		args = append(args, "op", op, "duration", time.Since(start).String())
		args = append(args, keyvals...)
		args = append(args, result...)
		if err != nil {
			args = append(args, "error", err.Error())
			slog.Error("operation failed", args...)
			return
		}
		slog.Debug("operation complete", args...)
	}
}

// Truncate shortens s for log output.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
