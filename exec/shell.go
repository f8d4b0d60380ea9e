package exec

import (
	"context"
	"io"
	"strings"
	"time"
)

type ShellOptions struct {
	WorkDir string
	Env     []string
	Shell   string
	Stderr  io.Writer
	Timeout time.Duration
}

type ShellResult struct {
	Output     string
	ExitStatus int
}

// RunShell runs cmdStr through "<shell> -c" and returns its trimmed stdout.
// A nonzero exit is reported in ShellResult, not as an error. On timeout the
// whole process tree is killed and a *TimeoutError is returned.
func RunShell(ctx context.Context, cmdStr string, opts *ShellOptions) (*ShellResult, error) {
	if opts == nil {
		opts = &ShellOptions{}
	}
	shell := opts.Shell
	if shell == "" {
		shell = "/bin/sh"
	}

	outcome, err := RunProcess(ctx, shell, []string{"-c", cmdStr}, &ProcessOptions{
		Env:     opts.Env,
		WorkDir: opts.WorkDir,
		Timeout: opts.Timeout,
		Stderr:  opts.Stderr,
	})
	if err != nil {
		return nil, err
	}

	return &ShellResult{
		Output:     strings.TrimSpace(outcome.Stdout),
		ExitStatus: outcome.ExitCode,
	}, nil
}
