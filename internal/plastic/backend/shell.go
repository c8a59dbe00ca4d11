package backend

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/thiagokokada/plastic-go/internal/logging"
)

const (
	exitCommand = "exit"

	maxLoggedOutput = 2048

	DefaultActivityTimeout = 60 * time.Second
	DefaultExitWait        = time.Second

	exitPollInterval = 10 * time.Millisecond
	// exitDrainTimeout bounds how long output is drained after the process
	// exits, in case a grandchild keeps the pipe open.
	exitDrainTimeout = 500 * time.Millisecond
)

// Settings supplies the binary path and working directory used when the
// shell has to be relaunched after a crash.
type Settings interface {
	BinaryPath() string
	WorkingDirectory() string
}

// Options tunes a Shell. Zero values select the defaults.
type Options struct {
	ActivityTimeout time.Duration
	ExitWait        time.Duration
	// CheckInterval is how often a silent command is checked against
	// ActivityTimeout. Defaults to a tenth of it, capped at one second.
	CheckInterval time.Duration
}

// Shell is a long-lived "cm shell" worker. Commands are serialized: only one
// is in flight at a time.
type Shell struct {
	// mu serializes commands; the protocol is not reentrant.
	mu sync.Mutex

	settings Settings
	proc     *process

	activityTimeout time.Duration
	exitWait        time.Duration
	checkInterval   time.Duration
}

func NewShell(settings Settings, opts Options) *Shell {
	s := &Shell{
		settings:        settings,
		activityTimeout: opts.ActivityTimeout,
		exitWait:        opts.ExitWait,
		checkInterval:   opts.CheckInterval,
	}
	if s.activityTimeout <= 0 {
		s.activityTimeout = DefaultActivityTimeout
	}
	if s.exitWait <= 0 {
		s.exitWait = DefaultExitWait
	}
	if s.checkInterval <= 0 {
		s.checkInterval = min(s.activityTimeout/10, time.Second)
	}
	return s
}

// Launch starts "cm shell" unless a session is already alive, in which case
// it does nothing. A launch failure is returned wrapped in
// ErrProcessUnavailable.
func (s *Shell) Launch(binaryPath, workDir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.launchLocked(binaryPath, workDir)
}

func (s *Shell) launchLocked(binaryPath, workDir string) error {
	if s.proc != nil && s.proc.alive() {
		return nil
	}
	if s.proc != nil {
		s.proc.close()
		s.proc = nil
	}
	slog.Info("launching cm shell", slog.String("binary", binaryPath), slog.String("dir", workDir))
	proc, err := startProcess(binaryPath, workDir)
	if err != nil {
		// Not a bug: Plastic SCM may simply not be installed.
		slog.Warn("failed to launch cm shell", slog.Any("error", err))
		return fmt.Errorf("%w: %w", ErrProcessUnavailable, err)
	}
	s.proc = proc
	return nil
}

// Alive reports whether the worker process is running.
func (s *Shell) Alive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.proc != nil && s.proc.alive()
}

// Restart force-closes the current session and launches a new one.
func (s *Shell) Restart(binaryPath, workDir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restartLocked(binaryPath, workDir)
}

func (s *Shell) restartLocked(binaryPath, workDir string) error {
	if s.proc != nil {
		s.proc.close()
		s.proc = nil
	}
	return s.launchLocked(binaryPath, workDir)
}

// Terminate asks the shell to exit, waits up to the exit wait for it, then
// closes the process and pipes unconditionally.
func (s *Shell) Terminate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.proc == nil {
		return
	}
	if s.proc.alive() {
		ctx, cancel := context.WithTimeout(context.Background(), s.exitWait)
		s.executeLocked(ctx, exitCommand, nil, nil)
		cancel()
		if !s.proc.waitExit(s.exitWait, exitPollInterval) {
			slog.Warn("cm shell still running after exit", slog.Duration("waited", s.exitWait))
		}
	}
	s.proc.close()
	s.proc = nil
}

// Execute sends one command and waits for its result line. A dead session is
// restarted first, except for the exit command. Failures are reported in the
// Result, never as a panic; cancelling ctx kills the session so the next
// command starts from a fresh one.
func (s *Shell) Execute(ctx context.Context, command string, params, files []string) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.executeLocked(ctx, command, params, files)
}

// RunCommand is Execute split into non-empty output and error lines.
func (s *Shell) RunCommand(ctx context.Context, command string, params, files []string) (lines, errLines []string, ok bool) {
	res := s.Execute(ctx, command, params, files)
	return res.Lines(), res.ErrorLines(), res.Success
}

func (s *Shell) executeLocked(ctx context.Context, command string, params, files []string) Result {
	if s.proc == nil {
		slog.Error("cm shell not running", slog.String("command", command))
		return NotRunning(command)
	}
	if command != exitCommand && !s.proc.alive() {
		slog.Warn("cm shell has stopped, restarting", slog.String("command", command))
		if err := s.restartLocked(s.settings.BinaryPath(), s.settings.WorkingDirectory()); err != nil {
			return NotRunning(command)
		}
	}

	p := s.proc
	line := buildCommandLine(command, params, files)
	slog.Debug("cm shell command", slog.String("line", line))
	p.discardPending()

	start := time.Now()
	if _, err := io.WriteString(p.stdin, line+"\n"); err != nil {
		// The read loop below notices the dead process.
		slog.Debug("cm shell write", slog.String("command", command), slog.Any("error", err))
	}

	scan := newSentinelScanner(LineDelimiter)
	lastActivity := start
	loggedLen := 0
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	chunks := p.chunks
	exited := p.exited
	var drain <-chan time.Time

loop:
	for {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				// EOF: the shell is going away, let Wait catch up so the
				// liveness check below is accurate.
				select {
				case <-p.exited:
				case <-time.After(exitDrainTimeout):
				}
				break loop
			}
			lastActivity = time.Now()
			if scan.Write(chunk) {
				break loop
			}
		case <-exited:
			exited = nil
			drain = time.After(exitDrainTimeout)
		case <-drain:
			break loop
		case <-ticker.C:
			// Long operations report progress, which refreshes the activity
			// timestamp; silence is only logged, the wait goes on.
			if idle := time.Since(lastActivity); idle > s.activityTimeout {
				slog.Warn("cm shell command timeout",
					slog.String("command", command),
					slog.Duration("elapsed", time.Since(start)),
					slog.String("output", logging.Truncate(scan.Since(loggedLen), maxLoggedOutput)),
				)
				loggedLen = scan.Len()
				lastActivity = time.Now()
			}
		case <-ctx.Done():
			slog.Warn("cm shell command cancelled, killing shell",
				slog.String("command", command),
				slog.Any("error", ctx.Err()),
			)
			p.kill()
			return Result{Errors: fmt.Sprintf("%s: %v", command, ctx.Err())}
		}
	}

	elapsed := time.Since(start)
	success := scan.Done() && scan.Code() == 0
	output := scan.Output()
	if command != exitCommand && !p.alive() {
		// cm shell only stops on "exit"; the next command restarts it.
		slog.Error("cm shell stopped during command",
			slog.String("command", command),
			slog.Duration("elapsed", elapsed),
			slog.Any("exit", p.waitErr),
			slog.String("output", logging.Truncate(output, maxLoggedOutput)),
		)
	} else {
		slog.Debug("cm shell result",
			slog.String("command", command),
			slog.Bool("success", success),
			slog.Int("code", scan.Code()),
			slog.Duration("elapsed", elapsed),
		)
	}
	if !success {
		return Result{Errors: output}
	}
	return Result{Success: true, Output: output}
}
