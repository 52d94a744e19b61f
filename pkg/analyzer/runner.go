package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout is the hard wall-clock deadline for one engine run.
const DefaultTimeout = 30 * time.Second

// TimeoutError means the engine exceeded its wall-clock deadline and was
// killed.
type TimeoutError struct {
	Limit time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("analyzer execution timeout (%s)", e.Limit)
}

// ExitError means the engine ran but exited non-zero. Detail carries
// whatever the engine wrote to stderr.
type ExitError struct {
	Detail string
}

func (e *ExitError) Error() string {
	return "analyzer execution failed: " + e.Detail
}

// SpawnError means the engine process could not be started at all.
type SpawnError struct {
	Err error
}

func (e *SpawnError) Error() string {
	return "failed to spawn analyzer process: " + e.Err.Error()
}

func (e *SpawnError) Unwrap() error { return e.Err }

// Runner invokes the external analysis engine as a subprocess. The engine
// reads a JSON array of normalized flows on stdin and writes the generated
// policy document to stdout, exiting 0 on success.
type Runner struct {
	// Command is the program and its fixed arguments.
	Command []string
	// Timeout overrides DefaultTimeout when positive.
	Timeout time.Duration
}

func NewRunner(command []string) *Runner {
	return &Runner{Command: command}
}

// Generate feeds the flow batch to the engine and returns the trimmed
// stdout as opaque policy-document text. A run ends in exactly one of
// success, TimeoutError, ExitError, SpawnError, or the caller's context
// error, and the subprocess is always reaped before returning.
func (r *Runner) Generate(ctx context.Context, flows []NormalizedFlow) (string, error) {
	if len(r.Command) == 0 {
		return "", &SpawnError{Err: errors.New("no analyzer command configured")}
	}
	if len(flows) == 0 {
		return "", errors.New("empty flow batch")
	}
	payload, err := json.Marshal(flows)
	if err != nil {
		return "", err
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.Command[0], r.Command[1:]...)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return "", &SpawnError{Err: err}
	}
	err = cmd.Wait()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return "", &TimeoutError{Limit: timeout}
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		// Caller cancellation (e.g. the client went away) is not an
		// engine failure.
		return "", ctx.Err()
	}
	if err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = "Unknown error"
		}
		return "", &ExitError{Detail: detail}
	}
	return strings.TrimSpace(stdout.String()), nil
}
