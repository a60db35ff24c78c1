// Package command runs external binaries behind an interface so callers can
// substitute a fake in tests.
package command

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// Result holds the captured output of one process.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes one command to completion.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (Result, error)
}

// Exec runs commands with os/exec.
type Exec struct{}

// Run executes name with args, capturing stdout and stderr.
func (Exec) Run(ctx context.Context, name string, args ...string) (Result, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		res.ExitCode = -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		}
		return res, err
	}
	return res, nil
}

// Func adapts a function to Runner.
type Func func(ctx context.Context, name string, args ...string) (Result, error)

// Run calls f.
func (f Func) Run(ctx context.Context, name string, args ...string) (Result, error) {
	return f(ctx, name, args...)
}
