package results

import (
	"errors"
)

// ErrEmptyDataset is returned by Stats when no records are loaded.
var ErrEmptyDataset = errors.New("no benchmark records loaded")

// SummaryStats describes the whole snapshot.
type SummaryStats struct {
	TotalTests         int                `json:"total_tests"`
	UniqueCombinations int                `json:"unique_combinations"`
	Runtimes           []string           `json:"runtimes"`
	InstanceTypes      []string           `json:"instance_types"`
	Models             []string           `json:"models"`
	InputTokenRange    [2]int             `json:"input_token_range"`
	OutputTokenRange   [2]int             `json:"output_token_range"`
	ProcessRange       [2]int             `json:"process_range"`
	PerformanceSummary PerformanceSummary `json:"performance_summary"`
}

// PerformanceSummary holds dataset-wide means.
type PerformanceSummary struct {
	AvgFirstTokenLatency float64 `json:"avg_first_token_latency"`
	AvgThroughput        float64 `json:"avg_throughput"`
	AvgServerThroughput  float64 `json:"avg_server_throughput"`
	AvgSuccessRate       float64 `json:"avg_success_rate"`
}

func (d *Dataset) Stats() (*SummaryStats, error) {
	if len(d.records) == 0 {
		return nil, ErrEmptyDataset
	}

	runtimes, instances, models := map[string]struct{}{}, map[string]struct{}{}, map[string]struct{}{}
	first := d.records[0]
	in := [2]int{first.InputTokens, first.InputTokens}
	out := [2]int{first.OutputTokens, first.OutputTokens}
	proc := [2]int{first.Processes, first.Processes}
	var ftl, tput, server, success float64

	for i := range d.records {
		r := &d.records[i]
		runtimes[r.Runtime] = struct{}{}
		instances[r.InstanceType] = struct{}{}
		models[r.ModelName] = struct{}{}
		widen(&in, r.InputTokens)
		widen(&out, r.OutputTokens)
		widen(&proc, r.Processes)
		ftl += r.FirstTokenLatencyMean
		tput += r.OutputTokensPerSecondMean
		server += r.ServerThroughput
		success += r.SuccessRate
	}

	n := float64(len(d.records))
	return &SummaryStats{
		TotalTests:         len(d.records),
		UniqueCombinations: len(d.combos),
		Runtimes:           sortedStrings(runtimes),
		InstanceTypes:      sortedStrings(instances),
		Models:             sortedStrings(models),
		InputTokenRange:    in,
		OutputTokenRange:   out,
		ProcessRange:       proc,
		PerformanceSummary: PerformanceSummary{
			AvgFirstTokenLatency: ftl / n,
			AvgThroughput:        tput / n,
			AvgServerThroughput:  server / n,
			AvgSuccessRate:       success / n,
		},
	}, nil
}

func widen(r *[2]int, v int) {
	if v < r[0] {
		r[0] = v
	}
	if v > r[1] {
		r[1] = v
	}
}
