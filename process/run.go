package process

import (
	"bytes"
	"context"
	stderrors "errors"
	"io/fs"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/kbukum/abcompare/errors"
)

// DefaultGracePeriod is the delay between SIGTERM and SIGKILL.
const DefaultGracePeriod = 5 * time.Second

// Run executes a subprocess and waits for it to complete.
// If the context is canceled, the process group gets SIGTERM, then SIGKILL
// after GracePeriod.
func Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.Binary == "" {
		return nil, errors.InvalidInput("binary", "binary is required")
	}

	gracePeriod := cmd.GracePeriod
	if gracePeriod == 0 {
		gracePeriod = DefaultGracePeriod
	}

	c := exec.CommandContext(ctx, cmd.Binary, cmd.Args...) //nolint:gosec // running configured scripts is the purpose of this package
	c.Dir = cmd.Dir
	c.Env = mergeEnv(cmd.Env)

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	if cmd.Stdin != nil {
		c.Stdin = cmd.Stdin
	}

	// Own process group so the whole tree can be signalled.
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		if c.Process == nil {
			return nil
		}
		return syscall.Kill(-c.Process.Pid, syscall.SIGTERM)
	}
	c.WaitDelay = gracePeriod

	start := time.Now()
	if err := c.Start(); err != nil {
		return nil, classifyStart(cmd.Binary, err)
	}
	err := c.Wait()

	result := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: c.ProcessState.ExitCode(),
		Duration: time.Since(start),
	}

	var exitErr *exec.ExitError
	aborted := err != nil && !stderrors.As(err, &exitErr)

	// WaitDelay only kills the leader. Descendants that ignored SIGTERM or
	// kept the output pipes open are still in the group.
	if ctx.Err() != nil || aborted {
		_ = syscall.Kill(-c.Process.Pid, syscall.SIGKILL)
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		if stderrors.Is(ctxErr, context.DeadlineExceeded) {
			return result, errors.Timeout(cmd.Binary).WithCause(ctxErr)
		}
		return result, ctxErr
	}
	if aborted {
		return result, errors.ProcessAborted(cmd.Binary, err)
	}
	return result, nil
}

// classifyStart maps a launch failure onto an AppError code.
func classifyStart(binary string, err error) error {
	switch {
	case stderrors.Is(err, exec.ErrNotFound),
		stderrors.Is(err, fs.ErrNotExist):
		return errors.ToolUnavailable(binary).WithCause(err)
	case stderrors.Is(err, context.DeadlineExceeded):
		return errors.Timeout(binary).WithCause(err)
	case stderrors.Is(err, context.Canceled):
		return err
	default:
		return errors.ExternalServiceError(binary, err)
	}
}

// mergeEnv merges additional env vars with the current environment.
func mergeEnv(extra []string) []string {
	if len(extra) == 0 {
		return nil // inherit parent env
	}
	return append(os.Environ(), extra...)
}
