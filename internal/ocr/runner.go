package ocr

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"time"
)

// Runner executes the poppler and tesseract binaries. Tests swap in a stub.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// stderrTail bounds how much tool stderr goes into a log record.
const stderrTail = 4 << 10

// CommandRunner runs tools as child processes and logs each invocation.
type CommandRunner struct {
	logger *slog.Logger
}

func NewCommandRunner(logger *slog.Logger) *CommandRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommandRunner{logger: logger}
}

func (r *CommandRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout, cmd.Stderr = &stdout, &stderr

	began := time.Now()
	err := cmd.Run()
	log := r.logger.With("tool", name, "argc", len(args), "took_ms", time.Since(began).Milliseconds())
	if err != nil {
		attrs := []any{"error", err, "stderr", tail(stderr.Bytes(), stderrTail)}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			attrs = append(attrs, "exit_code", exitErr.ExitCode())
		}
		log.Warn("ocr.command.failed", attrs...)
		return stdout.Bytes(), stderr.Bytes(), err
	}
	log.Debug("ocr.command.done", "stdout_bytes", stdout.Len())
	return stdout.Bytes(), stderr.Bytes(), nil
}

// tail keeps the last n bytes of b; tools print the useful part of a failure last.
func tail(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return "…" + string(bytes.ToValidUTF8(b[len(b)-n:], nil))
}
