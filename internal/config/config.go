/*
PURPOSE:
  Defines the deployment configuration document and its loading logic.
  Adheres to "Config IS Code" philosophy: one document describes the
  serving container, its model arguments and the benchmark matrix.

REQUIREMENTS:
  User-specified:
  - Top-level key `deployment` with container, gpu, volume, image and
    model settings.
  - Optional `test_matrix` / `test_config` sections for planning runs.

  Implementation-discovered:
  - Needs to support YAML and JSON (chosen by file extension).
  - Optional model flags must distinguish "absent" from "explicit false"
    so the latter can be reported at load time.

ARCHITECTURE INTEGRATION:
  - Used by: internal/cli, internal/deploy
  - Dependencies: gopkg.in/yaml.v3, github.com/go-playground/validator/v10

ERROR HANDLING:
  - Every problem is returned as a *ConfigError (fatal at startup).
  - Validation reports every violated field, joined with errors.Join.

IMPLEMENTATION RULES:
  - Struct tags carry yaml, json and validate rules side by side.
  - Never mutate a Document after Load returns it.

USAGE:
  doc, err := config.Load("model_configs/vllm/g6e.4xlarge/config.yaml")
  spec := doc.Deployment

SELF-HEALING INSTRUCTIONS:
  - If new fields are needed, add them to the struct with a validate tag
    and extend deploy.LaunchArgs if they affect the command line.

RELATED FILES:
  - internal/config/validate.go
  - internal/deploy/command.go

MAINTENANCE:
  - Update when the serving image grows new launch flags.
*/

package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/daryltucker/forest-bench/internal/model"
	"github.com/daryltucker/forest-bench/internal/output"
)

// Document is the full configuration file.
type Document struct {
	Deployment *DeploymentSpec `yaml:"deployment" json:"deployment" validate:"required"`
	TestMatrix *TestMatrix     `yaml:"test_matrix,omitempty" json:"test_matrix,omitempty"`
	TestConfig *TestConfig     `yaml:"test_config,omitempty" json:"test_config,omitempty"`
}

// DeploymentSpec describes one managed serving container.
type DeploymentSpec struct {
	ContainerName string      `yaml:"container_name" json:"container_name" validate:"required"`
	Port          int         `yaml:"port" json:"port" validate:"min=1,max=65535"`
	GPUConfig     GPUConfig   `yaml:"gpu_config" json:"gpu_config"`
	Volumes       []string    `yaml:"volumes" json:"volumes" validate:"dive,volume"`
	DockerImage   string      `yaml:"docker_image" json:"docker_image" validate:"required"`
	ModelConfig   ModelConfig `yaml:"model_config" json:"model_config"`
}

// GPUConfig selects devices and memory limits for the container.
type GPUConfig struct {
	GPUs              string  `yaml:"gpus" json:"gpus" validate:"required"`
	ShmSize           string  `yaml:"shm_size" json:"shm_size" validate:"required"`
	MemoryUtilization float64 `yaml:"gpu_memory_utilization" json:"gpu_memory_utilization" validate:"gt=0,lte=1"`
}

// ModelConfig holds the arguments passed to the serving process.
// Pointer fields are optional flags.
type ModelConfig struct {
	Model           string  `yaml:"model" json:"model" validate:"required"`
	MaxModelLen     int     `yaml:"max_model_len" json:"max_model_len" validate:"gt=0"`
	TrustRemoteCode *bool   `yaml:"trust_remote_code,omitempty" json:"trust_remote_code,omitempty"`
	EnableReasoning *bool   `yaml:"enable_reasoning,omitempty" json:"enable_reasoning,omitempty"`
	ToolCallParser  *string `yaml:"tool_call_parser,omitempty" json:"tool_call_parser,omitempty"`
	ReasoningParser *string `yaml:"reasoning_parser,omitempty" json:"reasoning_parser,omitempty"`
}

// TestMatrix lists the values swept by a benchmark run.
type TestMatrix struct {
	InputTokens   []int `yaml:"input_tokens" json:"input_tokens" validate:"required,dive,gt=0"`
	OutputTokens  []int `yaml:"output_tokens" json:"output_tokens" validate:"required,dive,gt=0"`
	ProcessingNum []int `yaml:"processing_num" json:"processing_num" validate:"required,dive,gt=0"`
	RandomTokens  []int `yaml:"random_tokens" json:"random_tokens" validate:"required,dive,gte=0"`
}

// TestConfig tunes each benchmark iteration.
type TestConfig struct {
	RequestsPerProcess int     `yaml:"requests_per_process" json:"requests_per_process" validate:"gte=0"`
	WarmupRequests     int     `yaml:"warmup_requests" json:"warmup_requests" validate:"gte=0"`
	CooldownSeconds    float64 `yaml:"cooldown_seconds" json:"cooldown_seconds" validate:"gte=0"`
}

// ConfigError reports a malformed or missing configuration field.
type ConfigError struct {
	Path   string
	Field  string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("config")
	if e.Path != "" {
		b.WriteString(" " + e.Path)
	}
	if e.Field != "" {
		b.WriteString(": " + e.Field)
	}
	b.WriteString(": " + e.Reason)
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Load reads and validates a configuration document.
// Files ending in .yaml or .yml are parsed as YAML, everything else as JSON.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Reason: "cannot read file", Err: err}
	}
	return Parse(path, data)
}

// Parse decodes and validates an in-memory document. The name is used to
// pick the format and to label errors.
func Parse(name string, data []byte) (*Document, error) {
	doc := &Document{}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, doc); err != nil {
			return nil, &ConfigError{Path: name, Reason: "invalid yaml", Err: err}
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(doc); err != nil {
			return nil, &ConfigError{Path: name, Reason: "invalid json", Err: err}
		}
	}

	if err := validate(name, doc); err != nil {
		return nil, err
	}

	for _, w := range doc.Deployment.Warnings() {
		output.Logger.Warn("Config flag present but disabled; it will be omitted", "config", name, "field", w)
	}

	return doc, nil
}

// LoadDeployment loads a document and returns only its deployment spec.
func LoadDeployment(path string) (*DeploymentSpec, error) {
	doc, err := Load(path)
	if err != nil {
		return nil, err
	}
	return doc.Deployment, nil
}

// Warnings lists optional model flags that are present but falsy. Such
// flags are omitted from the launch command.
func (s *DeploymentSpec) Warnings() []string {
	var out []string
	mc := s.ModelConfig
	if mc.TrustRemoteCode != nil && !*mc.TrustRemoteCode {
		out = append(out, "model_config.trust_remote_code")
	}
	if mc.EnableReasoning != nil && !*mc.EnableReasoning {
		out = append(out, "model_config.enable_reasoning")
	}
	if mc.ToolCallParser != nil && *mc.ToolCallParser == "" {
		out = append(out, "model_config.tool_call_parser")
	}
	if mc.ReasoningParser != nil && *mc.ReasoningParser == "" {
		out = append(out, "model_config.reasoning_parser")
	}
	return out
}

// BaseURL is the root URL of the server, also used for health checks.
func (s *DeploymentSpec) BaseURL(host string) string {
	if host == "" {
		host = "localhost"
	}
	return "http://" + host + ":" + strconv.Itoa(s.Port)
}

// Mounts returns the parsed volume mappings in configured order.
func (s *DeploymentSpec) Mounts() ([]Volume, error) {
	out := make([]Volume, 0, len(s.Volumes))
	for _, v := range s.Volumes {
		vol, err := ParseVolume(v)
		if err != nil {
			return nil, err
		}
		out = append(out, vol)
	}
	return out, nil
}

// Volume is a host to container path mapping.
type Volume struct {
	Host      string
	Container string
	Mode      string
}

func (v Volume) String() string {
	if v.Mode == "" {
		return v.Host + ":" + v.Container
	}
	return v.Host + ":" + v.Container + ":" + v.Mode
}

var validModes = map[string]bool{"ro": true, "rw": true, "z": true, "Z": true}

// ParseVolume parses a "host:container[:mode]" string.
func ParseVolume(s string) (Volume, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return Volume{}, fmt.Errorf("volume %q: want host:container[:mode]", s)
	}
	v := Volume{Host: parts[0], Container: parts[1]}
	if v.Host == "" || v.Container == "" {
		return Volume{}, fmt.Errorf("volume %q: empty path", s)
	}
	if len(parts) == 3 {
		for _, m := range strings.Split(parts[2], ",") {
			if !validModes[m] {
				return Volume{}, fmt.Errorf("volume %q: unknown mode %q", s, m)
			}
		}
		v.Mode = parts[2]
	}
	return v, nil
}

// Cases expands the matrix in input, output, processes, random order.
// Cases where random tokens exceed input tokens are skipped.
func (m *TestMatrix) Cases() []model.TestCase {
	if m == nil {
		return nil
	}
	var cases []model.TestCase
	for _, in := range m.InputTokens {
		for _, out := range m.OutputTokens {
			for _, proc := range m.ProcessingNum {
				for _, rnd := range m.RandomTokens {
					if rnd > in {
						continue
					}
					cases = append(cases, model.TestCase{
						InputTokens:  in,
						OutputTokens: out,
						Processes:    proc,
						RandomTokens: rnd,
					})
				}
			}
		}
	}
	return cases
}

// Env returns the value of an environment variable or the fallback.
func Env(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
