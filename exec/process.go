package exec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	osexec "os/exec"
	"syscall"
	"time"

	"github.com/acarl005/stripansi"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/vcnkl/rexec/models"
)

const killGracePeriod = 5 * time.Second

type ProcessOptions struct {
	Env       []string
	WorkDir   string
	Timeout   time.Duration
	StripANSI bool
	Stdout    io.Writer
	Stderr    io.Writer
}

type Outcome struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s", e.Timeout)
}

func (e *TimeoutError) ReturnCode() int {
	return models.ReturnCodeTimeout
}

type LaunchError struct {
	Binary string
	Err    error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %s: %v", e.Binary, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

func (e *LaunchError) ReturnCode() int {
	return models.ReturnCodeLaunchFailed
}

// RunProcess runs binary to completion and captures its output. A nonzero
// exit is reported through Outcome.ExitCode, not as an error. Errors are
// returned only when the process could not be started, timed out, or ctx was
// canceled; the partial Outcome is still returned in the latter two cases.
func RunProcess(ctx context.Context, binary string, args []string, opts *ProcessOptions) (*Outcome, error) {
	if opts == nil {
		opts = &ProcessOptions{}
	}

	runCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := osexec.CommandContext(runCtx, binary, args...)
	cmd.Env = opts.Env
	cmd.Dir = opts.WorkDir
	cmd.Stdout = tee(&stdout, opts.Stdout)
	cmd.Stderr = tee(&stderr, opts.Stderr)
	cmd.Cancel = func() error {
		return killTree(cmd.Process)
	}
	cmd.WaitDelay = killGracePeriod

	if err := cmd.Start(); err != nil {
		if ctxErr := contextError(ctx, runCtx, opts.Timeout); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &LaunchError{Binary: binary, Err: err}
	}

	waitErr := cmd.Wait()

	outcome := &Outcome{
		ExitCode: exitCode(cmd.ProcessState),
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}
	if opts.StripANSI {
		outcome.Stdout = stripansi.Strip(outcome.Stdout)
		outcome.Stderr = stripansi.Strip(outcome.Stderr)
	}

	if ctxErr := contextError(ctx, runCtx, opts.Timeout); ctxErr != nil {
		return outcome, ctxErr
	}

	if waitErr != nil {
		var exitErr *osexec.ExitError
		if errors.As(waitErr, &exitErr) || errors.Is(waitErr, osexec.ErrWaitDelay) {
			return outcome, nil
		}
		return outcome, waitErr
	}

	return outcome, nil
}

// contextError tells cancellation of the caller's ctx apart from expiry of
// the per-process timeout.
func contextError(ctx, runCtx context.Context, timeout time.Duration) error {
	if runCtx.Err() == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return &TimeoutError{Timeout: timeout}
}

// exitCode follows the shell convention of 128+signal for signaled processes
// so they never collide with the negative sentinels.
func exitCode(state *os.ProcessState) int {
	if state == nil {
		return models.ReturnCodeInternal
	}
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return state.ExitCode()
}

// killTree kills the process and every descendant, so no forked worker is
// left holding the output pipes.
func killTree(p *os.Process) error {
	if p == nil {
		return nil
	}
	if proc, err := process.NewProcess(int32(p.Pid)); err == nil {
		killChildren(proc)
	}
	return p.Kill()
}

func killChildren(proc *process.Process) {
	children, err := proc.Children()
	if err != nil {
		return
	}
	for _, child := range children {
		killChildren(child)
		_ = child.Kill()
	}
}

func tee(buf *bytes.Buffer, w io.Writer) io.Writer {
	if w == nil {
		return buf
	}
	return io.MultiWriter(buf, w)
}
