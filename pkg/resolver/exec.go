package resolver

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"

	"github.com/glorpus-work/downgrade/pkg/logger"
	"go.trai.ch/zerr"
)

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// NewExecRunner returns a Runner backed by os/exec.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, c Command) error {
	stdout := &logWriter{level: "info"}
	stderr := &logWriter{level: "warn"}
	defer func() {
		_ = stdout.Close()
		_ = stderr.Close()
	}()

	cmd := exec.CommandContext(ctx, c.Name, c.Args...) //nolint:gosec // command assembled from configuration
	cmd.Dir = c.Dir
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	logger.Debug("running command", logger.Fields{"command": c.Name, "args": c.Args, "dir": c.Dir})
	if err := cmd.Run(); err != nil {
		return commandError(err)
	}
	return nil
}

// Output implements Runner.
func (r *ExecRunner) Output(ctx context.Context, c Command) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Name, c.Args...) //nolint:gosec // command assembled from configuration
	cmd.Dir = c.Dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		err = commandError(err)
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			err = zerr.With(err, "stderr", msg)
		}
		return "", err
	}
	return stdout.String(), nil
}

func commandError(err error) error {
	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	return zerr.With(zerr.Wrap(err, "command failed"), "exit_code", exitCode)
}

// logWriter forwards complete output lines to the logger.
type logWriter struct {
	level string
	buf   []byte
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.logLine(w.buf[:i])
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}

func (w *logWriter) Close() error {
	if len(w.buf) > 0 {
		w.logLine(w.buf)
		w.buf = nil
	}
	return nil
}

func (w *logWriter) logLine(line []byte) {
	msg := strings.TrimSuffix(string(line), "\r")
	if msg == "" {
		return
	}
	if w.level == "info" {
		logger.Info(msg)
	} else {
		logger.Warn(msg)
	}
}
