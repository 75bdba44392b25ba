package results

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/daryltucker/forest-bench/internal/model"
)

// ArtifactParseError is a single unreadable or malformed result file.
type ArtifactParseError struct {
	Path string
	Err  error
}

func (e *ArtifactParseError) Error() string {
	return fmt.Sprintf("artifact %s: %v", e.Path, e.Err)
}

func (e *ArtifactParseError) Unwrap() error { return e.Err }

// scan walks root once and builds a fresh dataset. Only a failure to list
// root itself is returned; bad entries below it are logged and skipped.
// os.ReadDir sorts by name, which keeps the result deterministic.
func scan(root string, logger *slog.Logger) (*Dataset, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read results dir %s: %w", root, err)
	}

	b := newBuilder()
	for _, entry := range entries {
		dir := filepath.Join(root, entry.Name())
		if !isDir(dir, entry) {
			continue
		}
		combo, ok := ParseCombinationDir(entry.Name())
		if !ok {
			logger.Debug("Skipping directory (name not runtime--instance--model)", "dir", dir)
			continue
		}

		files, err := os.ReadDir(dir)
		if err != nil {
			logger.Warn("Cannot read combination directory", "dir", dir, "error", err)
			continue
		}
		for _, f := range files {
			if f.IsDir() {
				continue
			}
			tc, ok := ParseArtifactName(f.Name())
			if !ok {
				continue
			}
			path := filepath.Join(dir, f.Name())
			rec, err := readArtifact(path, combo, tc)
			if err != nil {
				logger.Warn("Skipping artifact", "error", err)
				continue
			}
			b.add(rec)
		}
	}
	return b.build(), nil
}

func isDir(path string, entry os.DirEntry) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func readArtifact(path string, combo model.Combination, tc model.TestCase) (model.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Record{}, &ArtifactParseError{Path: path, Err: err}
	}
	var a model.Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return model.Record{}, &ArtifactParseError{Path: path, Err: err}
	}
	return Flatten(combo, tc, a, path), nil
}

// Flatten combines identity and statistics into one record. Absent
// statistics are already zero in a.
func Flatten(combo model.Combination, tc model.TestCase, a model.Artifact, path string) model.Record {
	st, md := a.Statistics, a.Metadata
	return model.Record{
		Runtime:      combo.Runtime,
		InstanceType: combo.InstanceType,
		ModelName:    combo.ModelName,

		InputTokens:  tc.InputTokens,
		OutputTokens: tc.OutputTokens,
		Processes:    tc.Processes,
		RandomTokens: tc.RandomTokens,

		FirstTokenLatencyMean: st.FirstTokenLatency.Mean,
		FirstTokenLatencyP50:  st.FirstTokenLatency.P50,
		FirstTokenLatencyP90:  st.FirstTokenLatency.P90,
		FirstTokenLatencyMin:  st.FirstTokenLatency.Min,
		FirstTokenLatencyMax:  st.FirstTokenLatency.Max,

		EndToEndLatencyMean: st.EndToEndLatency.Mean,
		EndToEndLatencyP50:  st.EndToEndLatency.P50,
		EndToEndLatencyP90:  st.EndToEndLatency.P90,

		OutputTokensPerSecondMean: st.OutputTokensPerSecond.Mean,
		OutputTokensPerSecondP50:  st.OutputTokensPerSecond.P50,
		OutputTokensPerSecondP90:  st.OutputTokensPerSecond.P90,
		OutputTokensPerSecondMin:  st.OutputTokensPerSecond.Min,
		OutputTokensPerSecondMax:  st.OutputTokensPerSecond.Max,

		SuccessRate:        st.SuccessRate,
		RequestsPerSecond:  md.RequestsPerSecond,
		TotalRequests:      count(md.TotalRequests),
		SuccessfulRequests: count(st.SuccessfulRequests),
		FailedRequests:     count(st.FailedRequests),
		TotalTokensMean:    st.TokenUsage.TotalTokens.Mean,
		ServerThroughput:   md.RequestsPerSecond * st.TokenUsage.TotalTokens.Mean,

		FilePath: path,
	}
}

func count(v float64) int { return int(math.Round(v)) }
