package deploy

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotProvisioned is returned when health-gating a session that has no
// running container.
var ErrNotProvisioned = errors.New("deployment not provisioned")

// LaunchError means the container could not be started.
type LaunchError struct {
	Container string
	Output    string
	Err       error
}

func (e *LaunchError) Error() string {
	if e.Output != "" {
		return fmt.Sprintf("launch %s: %s", e.Container, e.Output)
	}
	return fmt.Sprintf("launch %s: %v", e.Container, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// HealthTimeoutError means the health endpoint never returned 200 before
// the deadline.
type HealthTimeoutError struct {
	Container string
	URL       string
	Timeout   time.Duration
}

func (e *HealthTimeoutError) Error() string {
	return fmt.Sprintf("%s did not become healthy at %s within %s", e.Container, e.URL, e.Timeout)
}

// TeardownError is one failed stop or remove step. It is logged, never
// returned to callers of Teardown.
type TeardownError struct {
	Container string
	Step      string
	Err       error
}

func (e *TeardownError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Step, e.Container, stderrOf(e.Err))
}

func (e *TeardownError) Unwrap() error { return e.Err }
