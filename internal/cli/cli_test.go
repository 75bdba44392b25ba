package cli

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cliConfig = `
deployment:
  container_name: vllm-qwen
  port: 8000
  gpu_config: {gpus: all, shm_size: 16g, gpu_memory_utilization: 0.9}
  docker_image: vllm/vllm-openai:v0.9.2
  model_config: {model: Qwen/Qwen3-8B, max_model_len: 8192}
`

// run executes the root command once. Slice flags accumulate across runs
// of the same command tree, so each test passes a given flag at most once.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append(args, "--log-level", "error"))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommand_PrintsLaunchLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cliConfig), 0o644))

	out, err := run(t, "command", "-c", path, "--docker", "podman")
	require.NoError(t, err)
	assert.Equal(t,
		"podman run --gpus all -p 8000:8000 --name vllm-qwen -d --shm-size 16g vllm/vllm-openai:v0.9.2 "+
			"--port 8000 --model Qwen/Qwen3-8B --gpu-memory-utilization 0.9 --max-model-len 8192\n",
		out)
}

func TestExport_CSVWithFilter(t *testing.T) {
	root := t.TempDir()
	body := `{"statistics": {"first_token_latency": {"mean": 1}}, "metadata": {"requests_per_second": 1}}`
	for _, dir := range []string{"vllm--g6e--qwen", "sglang--g6e--qwen"} {
		d := filepath.Join(root, dir)
		require.NoError(t, os.MkdirAll(d, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(d, "test_in:128_out:64_proc:1_rand:0.json"), []byte(body), 0o644))
	}

	out, err := run(t, "export", "--results-dir", root, "--runtime", "vllm")
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "vllm", rows[1][0])
}

func TestContainerNames_RequiresInput(t *testing.T) {
	prev := cfgFiles
	cfgFiles = nil
	t.Cleanup(func() { cfgFiles = prev })

	_, err := containerNames(nil)
	assert.Error(t, err)

	names, err := containerNames([]string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)
}
