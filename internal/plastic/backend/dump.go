package backend

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// newDumpCommand builds the standalone "cm cat" process. Tests replace it.
var newDumpCommand = func(ctx context.Context, binaryPath string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, binaryPath, args...)
}

// DumpToFile writes the raw content of revSpec to destPath with a one-shot
// "cm cat". Binary content cannot go through the shell, which frames replies
// with a text marker.
func DumpToFile(ctx context.Context, binaryPath, revSpec, destPath string) error {
	args := []string{"cat", revSpec, "--raw", "--file=" + destPath}
	slog.Debug("cm dump", slog.String("binary", binaryPath), slog.String("args", strings.Join(args, " ")))

	cmd := newDumpCommand(ctx, binaryPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	errText := strings.TrimSpace(stderr.String())
	if err != nil || errText != "" {
		slog.Error("cm dump failed",
			slog.String("revspec", revSpec),
			slog.Any("error", err),
			slog.String("stderr", errText),
		)
	}
	if err != nil {
		if errText != "" {
			return fmt.Errorf("cm cat %s: %v: %s", revSpec, err, errText)
		}
		return fmt.Errorf("cm cat %s: %w", revSpec, err)
	}
	return nil
}
