// Package duckdb drives the duckdb command-line client as a subprocess.
package duckdb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const DefaultTimeout = 3600 * time.Second

// waitDelay bounds how long Wait may block on the output pipes after the
// process has been killed.
const waitDelay = 5 * time.Second

var (
	ErrStart      = errors.New("duckdb could not be started")
	ErrExitStatus = errors.New("duckdb exited with non-zero status")
	ErrTimeout    = errors.New("duckdb timed out")
)

// Client runs SQL scripts through the duckdb CLI.
type Client struct {
	Binary  string
	Timeout time.Duration
	// Args are passed before the script is fed on stdin. Empty means an
	// in-memory session.
	Args []string
}

// Output is collected for every run, whatever the outcome.
type Output struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// ExitError carries the exit code and stderr of a failed run.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return fmt.Sprintf("exit status %d: %s", e.Code, msg)
}

func (e *ExitError) Unwrap() error { return ErrExitStatus }

func New(binary string, timeout time.Duration) *Client {
	if binary == "" {
		binary = "duckdb"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{Binary: binary, Timeout: timeout}
}

// Exec feeds script to the client on stdin and waits for it to exit or for
// the timeout to expire.
func (c *Client) Exec(ctx context.Context, script string) (Output, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, c.Binary, c.Args...)
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdin = strings.NewReader(script)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	started := time.Now()
	runErr := cmd.Run()

	out := Output{
		ExitCode: -1,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(started),
	}
	if cmd.ProcessState != nil {
		out.ExitCode = cmd.ProcessState.ExitCode()
	}

	if runErr == nil {
		return out, nil
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return out, fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}
	if err := ctx.Err(); err != nil {
		return out, fmt.Errorf("duckdb canceled: %w", err)
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		return out, &ExitError{Code: exitErr.ExitCode(), Stderr: out.Stderr}
	}
	if cmd.ProcessState == nil {
		return out, fmt.Errorf("%w: %w", ErrStart, runErr)
	}
	return out, fmt.Errorf("wait duckdb: %w", runErr)
}
