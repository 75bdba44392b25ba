package deploy

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daryltucker/forest-bench/internal/config"
	"github.com/daryltucker/forest-bench/internal/output"
)

// fakeDocker keeps a set of running container names and answers the
// subset of docker commands the manager issues.
type fakeDocker struct {
	mu       sync.Mutex
	running  map[string]bool
	calls    [][]string
	runErr   string
	stopErr  string
	launches int
}

func newFakeDocker() *fakeDocker {
	return &fakeDocker{running: map[string]bool{}}
}

func (f *fakeDocker) Name() string { return "docker" }

func (f *fakeDocker) Run(ctx context.Context, args ...string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, args)

	fail := func(stderr string) (string, error) {
		return "", &CommandError{Args: args, ExitCode: 1, Stderr: stderr, Err: errors.New("exit status 1")}
	}

	switch args[0] {
	case "run":
		if f.runErr != "" {
			return fail(f.runErr)
		}
		name := argAfter(args, "--name")
		if f.running[name] {
			return fail("Conflict. The container name \"/" + name + "\" is already in use")
		}
		f.running[name] = true
		f.launches++
		return "abc123" + strconv.Itoa(f.launches) + "\n", nil
	case "ps":
		filter := strings.TrimSuffix(strings.TrimPrefix(argAfter(args, "--filter"), "name=^/?"), "$")
		if f.running[filter] {
			return filter + "\n", nil
		}
		return "", nil
	case "stop":
		if f.stopErr != "" {
			return fail(f.stopErr)
		}
		if !f.running[args[1]] {
			return fail("Error response from daemon: No such container: " + args[1])
		}
		return args[1] + "\n", nil
	case "rm":
		if !f.running[args[1]] {
			return fail("Error response from daemon: No such container: " + args[1])
		}
		delete(f.running, args[1])
		return args[1] + "\n", nil
	}
	return fail("unknown command " + args[0])
}

func (f *fakeDocker) isRunning(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running[name]
}

func (f *fakeDocker) count(verb string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c[0] == verb {
			n++
		}
	}
	return n
}

func argAfter(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// healthServer answers /health with 503 until ready calls have been made.
type healthServer struct {
	*httptest.Server
	requests atomic.Int32
	readyAt  int32
}

func newHealthServer(t *testing.T, readyAt int32) *healthServer {
	t.Helper()
	hs := &healthServer{readyAt: readyAt}
	hs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		n := hs.requests.Add(1)
		if hs.readyAt >= 0 && n >= hs.readyAt {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(hs.Close)
	return hs
}

func (hs *healthServer) port(t *testing.T) int {
	t.Helper()
	u, err := url.Parse(hs.URL)
	require.NoError(t, err)
	_, p, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, err := strconv.Atoi(p)
	require.NoError(t, err)
	return port
}

func newTestManager(docker *fakeDocker) *Manager {
	return NewManager(
		WithRunner(docker),
		WithHost("127.0.0.1"),
		WithInterval(10*time.Millisecond),
		WithLogger(output.Discard()),
	)
}

func TestProvision_StartsContainer(t *testing.T) {
	docker := newFakeDocker()
	m := newTestManager(docker)

	s, err := m.Provision(context.Background(), testSpec("vllm-a", 8000))
	require.NoError(t, err)

	assert.Equal(t, Running, s.State())
	assert.Equal(t, "abc1231", s.ContainerID())
	assert.Equal(t, "http://127.0.0.1:8000/health", s.HealthURL())
	assert.Equal(t, "http://127.0.0.1:8000/v1/chat/completions", s.APIURL())
	assert.Equal(t, "Qwen/Qwen3-8B", s.ModelID())
	assert.True(t, m.IsRunning(context.Background(), "vllm-a"))

	got, ok := m.Session("vllm-a")
	require.True(t, ok)
	assert.Same(t, s, got)
}

func TestProvision_ReplacesExistingContainer(t *testing.T) {
	docker := newFakeDocker()
	m := newTestManager(docker)
	ctx := context.Background()

	first, err := m.Provision(ctx, testSpec("vllm-a", 8000))
	require.NoError(t, err)
	second, err := m.Provision(ctx, testSpec("vllm-a", 8000))
	require.NoError(t, err)

	assert.Equal(t, Stopped, first.State())
	assert.Equal(t, Running, second.State())
	assert.Equal(t, 1, docker.count("stop"))
	assert.Equal(t, 1, docker.count("rm"))
	assert.Equal(t, 2, docker.launches)

	docker.mu.Lock()
	assert.Len(t, docker.running, 1)
	docker.mu.Unlock()
}

func TestProvision_LaunchFailureSurfacesStderr(t *testing.T) {
	docker := newFakeDocker()
	docker.runErr = "Unable to find image 'vllm/vllm-openai:v0.9.2' locally"
	m := newTestManager(docker)

	s, err := m.Provision(context.Background(), testSpec("vllm-a", 8000))
	assert.Nil(t, s)

	var le *LaunchError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "vllm-a", le.Container)
	assert.Contains(t, le.Error(), "Unable to find image")

	_, ok := m.Session("vllm-a")
	assert.False(t, ok)
}

func TestProvision_NilSpec(t *testing.T) {
	m := newTestManager(newFakeDocker())
	_, err := m.Provision(context.Background(), nil)
	assert.Error(t, err)
}

func TestWaitForHealth_ImmediatelyHealthy(t *testing.T) {
	hs := newHealthServer(t, 1)
	m := newTestManager(newFakeDocker())

	s, err := m.Deploy(context.Background(), testSpec("vllm-a", hs.port(t)), time.Second)
	require.NoError(t, err)
	assert.Equal(t, Healthy, s.State())
	assert.Equal(t, int32(1), hs.requests.Load())
}

func TestWaitForHealth_HealthyAfterRetries(t *testing.T) {
	hs := newHealthServer(t, 3)
	m := newTestManager(newFakeDocker())

	s, err := m.Deploy(context.Background(), testSpec("vllm-a", hs.port(t)), 5*time.Second)
	require.NoError(t, err)
	assert.Equal(t, Healthy, s.State())
	assert.Equal(t, int32(3), hs.requests.Load())
}

func TestWaitForHealth_Timeout(t *testing.T) {
	hs := newHealthServer(t, -1)
	m := newTestManager(newFakeDocker())

	s, err := m.Deploy(context.Background(), testSpec("vllm-a", hs.port(t)), 100*time.Millisecond)
	require.NotNil(t, s)

	var hte *HealthTimeoutError
	require.ErrorAs(t, err, &hte)
	assert.Equal(t, "vllm-a", hte.Container)
	assert.Equal(t, 100*time.Millisecond, hte.Timeout)
	assert.Equal(t, Failed, s.State())
	assert.Greater(t, hs.requests.Load(), int32(1))
}

func TestWaitForHealth_ZeroTimeoutDoesNotPoll(t *testing.T) {
	hs := newHealthServer(t, 1)
	m := newTestManager(newFakeDocker())

	s, err := m.Deploy(context.Background(), testSpec("vllm-a", hs.port(t)), 0)
	var hte *HealthTimeoutError
	require.ErrorAs(t, err, &hte)
	assert.Equal(t, Failed, s.State())
	assert.Equal(t, int32(0), hs.requests.Load())
}

func TestWaitForHealth_ParentCancel(t *testing.T) {
	hs := newHealthServer(t, -1)
	m := newTestManager(newFakeDocker())
	s, err := m.Provision(context.Background(), testSpec("vllm-a", hs.port(t)))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	err = m.WaitForHealth(ctx, s, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	var hte *HealthTimeoutError
	assert.False(t, errors.As(err, &hte))
	assert.Equal(t, Failed, s.State())
}

func TestWaitForHealth_StoppedSession(t *testing.T) {
	m := newTestManager(newFakeDocker())
	s := newSession(testSpec("vllm-a", 8000), "127.0.0.1")
	assert.ErrorIs(t, m.WaitForHealth(context.Background(), s, time.Second), ErrNotProvisioned)
}

func TestWaitForHealth_ConnectionRefusedCountsAsUnhealthy(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	m := newTestManager(newFakeDocker())
	_, err = m.Deploy(context.Background(), testSpec("vllm-a", port), 50*time.Millisecond)
	var hte *HealthTimeoutError
	assert.ErrorAs(t, err, &hte)
}

func TestTeardown(t *testing.T) {
	docker := newFakeDocker()
	m := newTestManager(docker)
	ctx := context.Background()

	s, err := m.Provision(ctx, testSpec("vllm-a", 8000))
	require.NoError(t, err)

	assert.True(t, m.Teardown(ctx, "vllm-a"))
	assert.False(t, docker.isRunning("vllm-a"))
	assert.Equal(t, Stopped, s.State())
	_, ok := m.Session("vllm-a")
	assert.False(t, ok)
	assert.False(t, m.IsRunning(ctx, "vllm-a"))
}

func TestTeardown_MissingContainerIsSuccess(t *testing.T) {
	m := newTestManager(newFakeDocker())
	assert.True(t, m.Teardown(context.Background(), "never-started"))
}

func TestTeardown_EngineFailureReturnsFalse(t *testing.T) {
	docker := newFakeDocker()
	m := newTestManager(docker)
	ctx := context.Background()
	_, err := m.Provision(ctx, testSpec("vllm-a", 8000))
	require.NoError(t, err)

	docker.stopErr = "permission denied while trying to connect to the Docker daemon socket"
	assert.False(t, m.Teardown(ctx, "vllm-a"))
}

func TestIsRunning_ExactName(t *testing.T) {
	docker := newFakeDocker()
	m := newTestManager(docker)
	ctx := context.Background()
	_, err := m.Provision(ctx, testSpec("vllm-a", 8000))
	require.NoError(t, err)

	assert.True(t, m.IsRunning(ctx, "vllm-a"))
	assert.False(t, m.IsRunning(ctx, "vllm"))
	assert.Equal(t, []string{"ps", "--filter", "name=^/?vllm$", "--format", "{{.Names}}"}, psArgs("vllm"))
}

func TestCommandLine(t *testing.T) {
	m := newTestManager(newFakeDocker())
	line := m.CommandLine(testSpec("vllm-a", 8000))
	assert.True(t, strings.HasPrefix(line, "docker run --gpus all -p 8000:8000 --name vllm-a -d"), line)
}

func TestDeployAll_ParallelAndCleanup(t *testing.T) {
	good := newHealthServer(t, 1)
	bad := newHealthServer(t, -1)
	docker := newFakeDocker()
	m := newTestManager(docker)

	specs := []*config.DeploymentSpec{
		testSpec("good", good.port(t)),
		testSpec("bad", bad.port(t)),
	}
	outcomes := DeployAll(context.Background(), m, specs, BatchOptions{Timeout: 100 * time.Millisecond})
	require.Len(t, outcomes, 2)

	assert.NoError(t, outcomes[0].Err)
	assert.Equal(t, Healthy, outcomes[0].Session.State())
	var hte *HealthTimeoutError
	assert.ErrorAs(t, outcomes[1].Err, &hte)

	assert.True(t, docker.isRunning("good"))
	assert.False(t, docker.isRunning("bad"))
	assert.ErrorAs(t, Errors(outcomes), &hte)
}

func TestDeployAll_KeepFailed(t *testing.T) {
	bad := newHealthServer(t, -1)
	docker := newFakeDocker()
	m := newTestManager(docker)

	outcomes := DeployAll(context.Background(), m,
		[]*config.DeploymentSpec{testSpec("bad", bad.port(t))},
		BatchOptions{Timeout: 50 * time.Millisecond, Keep: true})

	assert.Error(t, outcomes[0].Err)
	assert.True(t, docker.isRunning("bad"))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "stopped", Stopped.String())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "healthy", Healthy.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "unknown", State(42).String())
}
