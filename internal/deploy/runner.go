package deploy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Runner issues container engine commands. Implementations must be safe
// for concurrent use.
type Runner interface {
	// Run executes the engine with args and returns its stdout.
	// A non-zero exit is reported as a *CommandError.
	Run(ctx context.Context, args ...string) (string, error)
	// Name is the engine binary, used when logging command lines.
	Name() string
}

// CommandError is a failed external command together with what it printed.
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s exited with code %d", strings.Join(e.Args, " "), e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *CommandError) Unwrap() error { return e.Err }

// ExecRunner runs a local binary (docker by default) through os/exec.
type ExecRunner struct {
	Binary string
}

// NewExecRunner returns a runner for the given binary, "docker" if empty.
func NewExecRunner(binary string) *ExecRunner {
	if binary == "" {
		binary = "docker"
	}
	return &ExecRunner{Binary: binary}
}

func (r *ExecRunner) Name() string { return r.Binary }

func (r *ExecRunner) Run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, r.Binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		ce := &CommandError{
			Args:     append([]string{r.Binary}, args...),
			ExitCode: -1,
			Stderr:   strings.TrimSpace(stderr.String()),
			Err:      err,
		}
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			ce.ExitCode = ee.ExitCode()
		}
		return stdout.String(), ce
	}
	return stdout.String(), nil
}

// stderrOf returns the captured stderr of a CommandError, or the error text.
func stderrOf(err error) string {
	var ce *CommandError
	if errors.As(err, &ce) && ce.Stderr != "" {
		return ce.Stderr
	}
	return err.Error()
}
