package deploy

import (
	"sync"

	"github.com/daryltucker/forest-bench/internal/config"
)

// State is the lifecycle state of a deployment session.
type State int

const (
	Stopped State = iota
	Running
	Healthy
	Failed
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	case Healthy:
		return "healthy"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Session tracks one provisioned container. Accessors derive URLs and the
// model id from its DeploymentSpec instead of storing them.
type Session struct {
	spec *config.DeploymentSpec
	host string

	mu          sync.RWMutex
	state       State
	containerID string
}

func newSession(spec *config.DeploymentSpec, host string) *Session {
	return &Session{spec: spec, host: host, state: Stopped}
}

func (s *Session) Spec() *config.DeploymentSpec { return s.spec }

func (s *Session) Name() string { return s.spec.ContainerName }

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// ContainerID is what the engine printed when the container started.
func (s *Session) ContainerID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.containerID
}

func (s *Session) BaseURL() string { return s.spec.BaseURL(s.host) }

func (s *Session) HealthURL() string { return s.BaseURL() + "/health" }

// APIURL is the OpenAI-compatible chat completions endpoint.
func (s *Session) APIURL() string { return s.BaseURL() + "/v1/chat/completions" }

func (s *Session) ModelID() string { return s.spec.ModelConfig.Model }

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *Session) setRunning(id string) {
	s.mu.Lock()
	s.state = Running
	s.containerID = id
	s.mu.Unlock()
}
