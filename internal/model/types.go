/*
PURPOSE:
  Defines the core data structures used throughout Forest Bench.
  These models represent benchmark artifacts, flattened result records
  and the test cases that produce them.

REQUIREMENTS:
  User-specified:
  - One flattened record per artifact file, identity + statistics.
  - Artifact bodies carry nested "statistics" and "metadata" objects.

  Implementation-discovered:
  - Missing nested values must read as zero, so artifact structs use
    plain value fields (encoding/json leaves absent keys untouched).
  - JSON tags on Record are the column names served to the charting UI.

ARCHITECTURE INTEGRATION:
  - Used by: internal/results, internal/output, internal/server, internal/config
  - Shared across boundaries.

ERROR HANDLING:
  - None (pure data structs).

IMPLEMENTATION RULES:
  - Keep structs simple and public.
  - Identity fields come from file locations, never from artifact bodies.

USAGE:
  rec := model.Record{Runtime: "vllm", ...}
  name := model.TestCase{InputTokens: 128, ...}.ArtifactName()

SELF-HEALING INSTRUCTIONS:
  - If new metrics are needed, add the field here, in results.flatten and
    in the CSV writer header.

RELATED FILES:
  - internal/results/load.go
  - internal/output/csv.go

MAINTENANCE:
  - Update when the benchmark driver adds new statistics.
*/

package model

import (
	"fmt"
)

// Distribution is a summary of one sampled metric.
type Distribution struct {
	Mean float64 `json:"mean"`
	P50  float64 `json:"p50"`
	P90  float64 `json:"p90"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// TokenUsage groups the token count distributions of a run.
type TokenUsage struct {
	PromptTokens     Distribution `json:"prompt_tokens"`
	CompletionTokens Distribution `json:"completion_tokens"`
	TotalTokens      Distribution `json:"total_tokens"`
}

// Statistics is the "statistics" object of an artifact.
type Statistics struct {
	FirstTokenLatency     Distribution `json:"first_token_latency"`
	EndToEndLatency       Distribution `json:"end_to_end_latency"`
	OutputTokensPerSecond Distribution `json:"output_tokens_per_second"`
	SuccessRate           float64      `json:"success_rate"`
	SuccessfulRequests    float64      `json:"successful_requests"`
	FailedRequests        float64      `json:"failed_requests"`
	TokenUsage            TokenUsage   `json:"token_usage"`
}

// Metadata is the "metadata" object of an artifact.
type Metadata struct {
	RequestsPerSecond float64 `json:"requests_per_second"`
	TotalRequests     float64 `json:"total_requests"`
}

// Artifact is the body of a single benchmark result file.
type Artifact struct {
	Statistics Statistics `json:"statistics"`
	Metadata   Metadata   `json:"metadata"`
}

// Combination identifies a deployment target.
type Combination struct {
	Runtime      string `json:"runtime"`
	InstanceType string `json:"instance_type"`
	ModelName    string `json:"model_name"`
}

// ID is the synthesized "runtime--instanceType--modelName" identifier.
func (c Combination) ID() string {
	return c.Runtime + "--" + c.InstanceType + "--" + c.ModelName
}

// CombinationDescriptor is a Combination together with its ID, as listed
// to clients.
type CombinationDescriptor struct {
	Combination
	ID string `json:"id"`
}

// Parameters holds the distinct numeric parameters observed for one
// combination, each sorted ascending.
type Parameters struct {
	InputTokens  []int `json:"input_tokens"`
	OutputTokens []int `json:"output_tokens"`
	RandomTokens []int `json:"random_tokens"`
}

// Record is one flattened, normalized benchmark result.
type Record struct {
	Runtime      string `json:"runtime"`
	InstanceType string `json:"instance_type"`
	ModelName    string `json:"model_name"`

	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	Processes    int `json:"processes"`
	RandomTokens int `json:"random_tokens"`

	FirstTokenLatencyMean float64 `json:"first_token_latency_mean"`
	FirstTokenLatencyP50  float64 `json:"first_token_latency_p50"`
	FirstTokenLatencyP90  float64 `json:"first_token_latency_p90"`
	FirstTokenLatencyMin  float64 `json:"first_token_latency_min"`
	FirstTokenLatencyMax  float64 `json:"first_token_latency_max"`

	EndToEndLatencyMean float64 `json:"end_to_end_latency_mean"`
	EndToEndLatencyP50  float64 `json:"end_to_end_latency_p50"`
	EndToEndLatencyP90  float64 `json:"end_to_end_latency_p90"`

	OutputTokensPerSecondMean float64 `json:"output_tokens_per_second_mean"`
	OutputTokensPerSecondP50  float64 `json:"output_tokens_per_second_p50"`
	OutputTokensPerSecondP90  float64 `json:"output_tokens_per_second_p90"`
	OutputTokensPerSecondMin  float64 `json:"output_tokens_per_second_min"`
	OutputTokensPerSecondMax  float64 `json:"output_tokens_per_second_max"`

	SuccessRate        float64 `json:"success_rate"`
	RequestsPerSecond  float64 `json:"requests_per_second"`
	TotalRequests      int     `json:"total_requests"`
	SuccessfulRequests int     `json:"successful_requests"`
	FailedRequests     int     `json:"failed_requests"`
	TotalTokensMean    float64 `json:"total_tokens_mean"`

	// ServerThroughput is RequestsPerSecond * TotalTokensMean.
	ServerThroughput float64 `json:"server_throughput"`

	FilePath string `json:"file_path"`
}

// Combination returns the identity triple of the record.
func (r Record) Combination() Combination {
	return Combination{Runtime: r.Runtime, InstanceType: r.InstanceType, ModelName: r.ModelName}
}

// TestCase is one point of the benchmark test matrix.
type TestCase struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	Processes    int `json:"processing_num"`
	RandomTokens int `json:"random_tokens"`
}

func (tc TestCase) String() string {
	return fmt.Sprintf("in:%d_out:%d_proc:%d_rand:%d", tc.InputTokens, tc.OutputTokens, tc.Processes, tc.RandomTokens)
}

// ArtifactName is the file name the driver writes for this case.
func (tc TestCase) ArtifactName() string {
	return "test_" + tc.String() + ".json"
}
