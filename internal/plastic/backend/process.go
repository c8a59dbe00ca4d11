package backend

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"
)

const (
	readChunkSize = 4096
	// chunkBacklog bounds how far the reader runs ahead of Execute.
	chunkBacklog = 64
	killWait     = time.Second
)

// newShellCommand builds the cm shell process. Tests replace it to run a fake
// shell.
var newShellCommand = func(binaryPath, workDir string) *exec.Cmd {
	cmd := exec.Command(binaryPath, "shell")
	cmd.Dir = workDir
	return cmd
}

// process owns one running cm shell: its input pipe, the read end of its
// merged stdout/stderr pipe and the goroutines draining them.
type process struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *os.File

	chunks chan []byte
	exited chan struct{}
	done   chan struct{}

	waitErr   error
	closeOnce sync.Once
}

func startProcess(binaryPath, workDir string) (*process, error) {
	cmd := newShellCommand(binaryPath, workDir)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("cm shell stdin: %w", err)
	}
	outR, outW, err := os.Pipe()
	if err != nil {
		_ = stdin.Close()
		return nil, fmt.Errorf("cm shell stdout: %w", err)
	}
	cmd.Stdout = outW
	cmd.Stderr = outW
	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		_ = outR.Close()
		_ = outW.Close()
		return nil, fmt.Errorf("cm shell start: %w", err)
	}
	// The child holds its own copy; keeping ours would hide EOF.
	_ = outW.Close()

	p := &process{
		cmd:    cmd,
		stdin:  stdin,
		stdout: outR,
		chunks: make(chan []byte, chunkBacklog),
		exited: make(chan struct{}),
		done:   make(chan struct{}),
	}
	go p.readLoop()
	go p.waitLoop()
	return p, nil
}

func (p *process) readLoop() {
	defer close(p.chunks)
	buf := make([]byte, readChunkSize)
	for {
		n, err := p.stdout.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			select {
			case p.chunks <- chunk:
			case <-p.done:
				return
			}
		}
		if err != nil {
			if err != io.EOF {
				slog.Debug("cm shell read", slog.Any("error", err))
			}
			return
		}
	}
}

func (p *process) waitLoop() {
	p.waitErr = p.cmd.Wait()
	close(p.exited)
}

func (p *process) alive() bool {
	select {
	case <-p.exited:
		return false
	default:
		return true
	}
}

// waitExit polls for process exit up to limit, every interval.
func (p *process) waitExit(limit, interval time.Duration) bool {
	deadline := time.Now().Add(limit)
	for p.alive() {
		if !time.Now().Before(deadline) {
			return false
		}
		time.Sleep(interval)
	}
	return true
}

// discardPending drops output left over from a previous command.
func (p *process) discardPending() {
	for {
		select {
		case chunk, ok := <-p.chunks:
			if !ok {
				return
			}
			slog.Debug("cm shell discarded stale output", slog.Int("bytes", len(chunk)))
		default:
			return
		}
	}
}

// kill stops the process but leaves the handle in place, so the next command
// sees a dead session and restarts it.
func (p *process) kill() {
	if !p.alive() || p.cmd.Process == nil {
		return
	}
	if err := p.cmd.Process.Kill(); err != nil {
		slog.Debug("cm shell kill", slog.Any("error", err))
	}
	select {
	case <-p.exited:
	case <-time.After(killWait):
		slog.Warn("cm shell did not exit after kill", slog.Int("pid", p.pid()))
	}
}

// close force-closes the process and both pipes. Safe to call repeatedly.
func (p *process) close() {
	p.closeOnce.Do(func() {
		close(p.done)
		_ = p.stdin.Close()
		p.kill()
		_ = p.stdout.Close()
	})
}

func (p *process) pid() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}
