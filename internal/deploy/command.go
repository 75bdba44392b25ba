package deploy

import (
	"strconv"

	"github.com/daryltucker/forest-bench/internal/config"
)

// LaunchArgs builds the engine arguments that start the serving container.
// The order is fixed so the command can be diffed across runs:
// container flags, one -v per volume, the image, then model flags and
// finally the optional flags that are set.
func LaunchArgs(spec *config.DeploymentSpec) []string {
	port := strconv.Itoa(spec.Port)
	gpu := spec.GPUConfig
	mc := spec.ModelConfig

	args := []string{
		"run",
		"--gpus", gpu.GPUs,
		"-p", port + ":" + port,
		"--name", spec.ContainerName,
		"-d",
		"--shm-size", gpu.ShmSize,
	}
	for _, v := range spec.Volumes {
		args = append(args, "-v", v)
	}
	args = append(args, spec.DockerImage)

	args = append(args,
		"--port", port,
		"--model", mc.Model,
		"--gpu-memory-utilization", strconv.FormatFloat(gpu.MemoryUtilization, 'f', -1, 64),
		"--max-model-len", strconv.Itoa(mc.MaxModelLen),
	)

	if isTrue(mc.TrustRemoteCode) {
		args = append(args, "--trust-remote-code")
	}
	if isTrue(mc.EnableReasoning) {
		args = append(args, "--enable-reasoning")
	}
	if v, ok := nonEmpty(mc.ToolCallParser); ok {
		args = append(args, "--tool-call-parser", v)
	}
	if v, ok := nonEmpty(mc.ReasoningParser); ok {
		args = append(args, "--reasoning-parser", v)
	}
	return args
}

func psArgs(name string) []string {
	return []string{"ps", "--filter", "name=^/?" + name + "$", "--format", "{{.Names}}"}
}

func stopArgs(name string) []string { return []string{"stop", name} }

func removeArgs(name string) []string { return []string{"rm", name} }

func isTrue(b *bool) bool { return b != nil && *b }

func nonEmpty(s *string) (string, bool) {
	if s == nil || *s == "" {
		return "", false
	}
	return *s, true
}
