/*
PURPOSE:
  Deployment lifecycle manager for containerized model servers.
  Provisions a container from a DeploymentSpec, gates on its /health
  endpoint and tears it down again.

REQUIREMENTS:
  User-specified:
  - Exactly one container per container name; re-provisioning restarts.
  - Health gate polls on a fixed interval until 200 or the deadline.
  - Teardown is best-effort and never raises.

  Implementation-discovered:
  - Several deployments are health-gated in parallel, so the session
    map lock is never held while talking to docker or the server.
  - Liveness is queried from the engine every time, never cached.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli (deploy, teardown, status)
  - Uses: internal/config, internal/metrics, internal/output

ERROR HANDLING:
  - LaunchError when the start command fails (stderr is surfaced).
  - HealthTimeoutError when the deadline passes; session becomes Failed.
  - TeardownError is only logged.

IMPLEMENTATION RULES:
  - All engine calls go through Runner so tests can fake docker.
  - A deadline of zero fails the health gate without polling.

USAGE:
  m := deploy.NewManager()
  s, err := m.Deploy(ctx, spec, deploy.DefaultHealthTimeout)
  defer m.Teardown(ctx, s.Name())

SELF-HEALING INSTRUCTIONS:
  - If the serving image changes its health path, update Session.HealthURL.

RELATED FILES:
  - internal/deploy/command.go
  - internal/deploy/health.go

MAINTENANCE:
  - Update when adding engines other than docker.
*/

package deploy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/daryltucker/forest-bench/internal/config"
	"github.com/daryltucker/forest-bench/internal/metrics"
	"github.com/daryltucker/forest-bench/internal/output"
)

const (
	DefaultHealthTimeout  = 300 * time.Second
	DefaultHealthInterval = 5 * time.Second
)

// Manager owns the sessions it provisioned. The zero value is not usable;
// call NewManager.
type Manager struct {
	runner   Runner
	client   *http.Client
	host     string
	interval time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

type Option func(*Manager)

// WithRunner replaces the docker runner.
func WithRunner(r Runner) Option { return func(m *Manager) { m.runner = r } }

// WithHTTPClient replaces the client used for health probes.
func WithHTTPClient(c *http.Client) Option { return func(m *Manager) { m.client = c } }

// WithHost sets the host used to reach deployed servers (default localhost).
func WithHost(host string) Option { return func(m *Manager) { m.host = host } }

// WithInterval sets the health poll interval.
func WithInterval(d time.Duration) Option { return func(m *Manager) { m.interval = d } }

func WithLogger(l *slog.Logger) Option { return func(m *Manager) { m.logger = l } }

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		host:     "localhost",
		interval: DefaultHealthInterval,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.runner == nil {
		m.runner = NewExecRunner("docker")
	}
	if m.client == nil {
		m.client = newProbeClient()
	}
	if m.logger == nil {
		m.logger = output.Logger
	}
	if m.interval <= 0 {
		m.interval = DefaultHealthInterval
	}
	return m
}

// Session returns the current session for a container name.
func (m *Manager) Session(name string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[name]
	return s, ok
}

// CommandLine renders the full launch command for logs and dry runs.
func (m *Manager) CommandLine(spec *config.DeploymentSpec) string {
	return m.runner.Name() + " " + strings.Join(LaunchArgs(spec), " ")
}

// Provision starts the container described by spec. A container already
// running under the same name is stopped and removed first.
func (m *Manager) Provision(ctx context.Context, spec *config.DeploymentSpec) (*Session, error) {
	if spec == nil {
		return nil, errors.New("provision: nil deployment spec")
	}
	name := spec.ContainerName

	if m.IsRunning(ctx, name) {
		m.logger.Info("Container already running, replacing it", "container", name)
		if err := m.stopAndRemove(ctx, name); err != nil {
			return nil, &LaunchError{Container: name, Output: stderrOf(err), Err: err}
		}
	}

	m.mu.Lock()
	if old, ok := m.sessions[name]; ok {
		old.setState(Stopped)
		delete(m.sessions, name)
	}
	m.mu.Unlock()

	args := LaunchArgs(spec)
	m.logger.Info("Starting container", "container", name, "command", m.runner.Name()+" "+strings.Join(args, " "))

	out, err := m.runner.Run(ctx, args...)
	if err != nil {
		m.logger.Error("Container failed to start", "container", name, "stderr", stderrOf(err))
		return nil, &LaunchError{Container: name, Output: stderrOf(err), Err: err}
	}

	s := newSession(spec, m.host)
	s.setRunning(strings.TrimSpace(out))

	m.mu.Lock()
	m.sessions[name] = s
	m.mu.Unlock()

	m.logger.Info("Container started", "container", name, "id", s.ContainerID())
	return s, nil
}

// WaitForHealth polls the session's health endpoint every interval until it
// answers 200 or timeout elapses. A non-positive timeout fails immediately
// without polling.
func (m *Manager) WaitForHealth(ctx context.Context, s *Session, timeout time.Duration) error {
	switch s.State() {
	case Healthy:
		return nil
	case Stopped:
		return fmt.Errorf("%s: %w", s.Name(), ErrNotProvisioned)
	}

	url := s.HealthURL()
	timeoutErr := &HealthTimeoutError{Container: s.Name(), URL: url, Timeout: timeout}
	if timeout <= 0 {
		s.setState(Failed)
		return timeoutErr
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	m.logger.Info("Waiting for server to become healthy", "container", s.Name(), "url", url, "timeout", timeout)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		healthy := m.probe(ctx, url)
		metrics.RecordHealthProbe(s.Name(), healthy)
		if healthy {
			s.setState(Healthy)
			m.logger.Info("Server is healthy", "container", s.Name(), "attempts", attempt)
			return nil
		}
		m.logger.Debug("Server not healthy yet", "container", s.Name(), "attempt", attempt)

		select {
		case <-ctx.Done():
			s.setState(Failed)
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				m.logger.Error("Server failed to become healthy", "container", s.Name(), "timeout", timeout)
				return timeoutErr
			}
			return fmt.Errorf("wait for %s: %w", s.Name(), ctx.Err())
		case <-ticker.C:
		}
	}
}

// Deploy provisions spec and waits for it to become healthy.
func (m *Manager) Deploy(ctx context.Context, spec *config.DeploymentSpec, timeout time.Duration) (*Session, error) {
	s, err := m.Provision(ctx, spec)
	if err != nil {
		return nil, err
	}
	if err := m.WaitForHealth(ctx, s, timeout); err != nil {
		return s, err
	}
	return s, nil
}

// Teardown stops and removes the named container. It reports whether both
// steps succeeded; failures are logged, not returned.
func (m *Manager) Teardown(ctx context.Context, name string) bool {
	err := m.stopAndRemove(ctx, name)

	m.mu.Lock()
	if s, ok := m.sessions[name]; ok {
		s.setState(Stopped)
		delete(m.sessions, name)
	}
	m.mu.Unlock()

	if err != nil {
		for _, e := range unjoin(err) {
			m.logger.Error("Teardown step failed", "container", name, "error", e)
		}
		return false
	}
	m.logger.Info("Stopped and removed container", "container", name)
	return true
}

// IsRunning asks the engine whether a container with exactly this name is
// running. Engine failures count as not running.
func (m *Manager) IsRunning(ctx context.Context, name string) bool {
	out, err := m.runner.Run(ctx, psArgs(name)...)
	if err != nil {
		m.logger.Debug("Liveness check failed", "container", name, "error", err)
		return false
	}
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == name {
			return true
		}
	}
	return false
}

func (m *Manager) stopAndRemove(ctx context.Context, name string) error {
	var errs []error
	if _, err := m.runner.Run(ctx, stopArgs(name)...); err != nil && !isMissing(err) {
		errs = append(errs, &TeardownError{Container: name, Step: "stop", Err: err})
	}
	if _, err := m.runner.Run(ctx, removeArgs(name)...); err != nil && !isMissing(err) {
		errs = append(errs, &TeardownError{Container: name, Step: "remove", Err: err})
	}
	return errors.Join(errs...)
}

// isMissing reports engine errors that mean there is nothing left to stop.
func isMissing(err error) bool {
	msg := strings.ToLower(stderrOf(err))
	return strings.Contains(msg, "no such container") || strings.Contains(msg, "is not running")
}

func unjoin(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}
