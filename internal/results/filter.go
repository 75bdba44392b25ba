package results

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"

	"github.com/daryltucker/forest-bench/internal/model"
)

// Filters maps a record field (by its JSON name) to either a single value
// (equality) or a slice of values (membership). Unknown fields and nil
// values are ignored.
type Filters map[string]any

type fieldGetter func(r *model.Record) any

var fieldGetters = map[string]fieldGetter{
	"runtime":       func(r *model.Record) any { return r.Runtime },
	"instance_type": func(r *model.Record) any { return r.InstanceType },
	"model_name":    func(r *model.Record) any { return r.ModelName },
	"file_path":     func(r *model.Record) any { return r.FilePath },

	"input_tokens":        func(r *model.Record) any { return r.InputTokens },
	"output_tokens":       func(r *model.Record) any { return r.OutputTokens },
	"processes":           func(r *model.Record) any { return r.Processes },
	"random_tokens":       func(r *model.Record) any { return r.RandomTokens },
	"total_requests":      func(r *model.Record) any { return r.TotalRequests },
	"successful_requests": func(r *model.Record) any { return r.SuccessfulRequests },
	"failed_requests":     func(r *model.Record) any { return r.FailedRequests },

	"first_token_latency_mean":      func(r *model.Record) any { return r.FirstTokenLatencyMean },
	"first_token_latency_p50":       func(r *model.Record) any { return r.FirstTokenLatencyP50 },
	"first_token_latency_p90":       func(r *model.Record) any { return r.FirstTokenLatencyP90 },
	"first_token_latency_min":       func(r *model.Record) any { return r.FirstTokenLatencyMin },
	"first_token_latency_max":       func(r *model.Record) any { return r.FirstTokenLatencyMax },
	"end_to_end_latency_mean":       func(r *model.Record) any { return r.EndToEndLatencyMean },
	"end_to_end_latency_p50":        func(r *model.Record) any { return r.EndToEndLatencyP50 },
	"end_to_end_latency_p90":        func(r *model.Record) any { return r.EndToEndLatencyP90 },
	"output_tokens_per_second_mean": func(r *model.Record) any { return r.OutputTokensPerSecondMean },
	"output_tokens_per_second_p50":  func(r *model.Record) any { return r.OutputTokensPerSecondP50 },
	"output_tokens_per_second_p90":  func(r *model.Record) any { return r.OutputTokensPerSecondP90 },
	"output_tokens_per_second_min":  func(r *model.Record) any { return r.OutputTokensPerSecondMin },
	"output_tokens_per_second_max":  func(r *model.Record) any { return r.OutputTokensPerSecondMax },
	"success_rate":                  func(r *model.Record) any { return r.SuccessRate },
	"requests_per_second":           func(r *model.Record) any { return r.RequestsPerSecond },
	"total_tokens_mean":             func(r *model.Record) any { return r.TotalTokensMean },
	"server_throughput":             func(r *model.Record) any { return r.ServerThroughput },
}

// Match reports whether r satisfies every known filter.
func (f Filters) Match(r *model.Record) bool {
	for key, want := range f {
		get, ok := fieldGetters[key]
		if !ok || want == nil {
			continue
		}
		if !matchValue(get(r), want) {
			return false
		}
	}
	return true
}

// ForCombination is the filter selecting exactly one combination.
func ForCombination(c model.Combination) Filters {
	return Filters{"runtime": c.Runtime, "instance_type": c.InstanceType, "model_name": c.ModelName}
}

func matchValue(have, want any) bool {
	if list, ok := asList(want); ok {
		for _, v := range list {
			if equal(have, v) {
				return true
			}
		}
		return false
	}
	return equal(have, want)
}

func asList(v any) ([]any, bool) {
	switch x := v.(type) {
	case []any:
		return x, true
	case string, []byte:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func equal(have, want any) bool {
	switch h := have.(type) {
	case string:
		if s, ok := want.(string); ok {
			return h == s
		}
		return h == fmt.Sprint(want)
	case int:
		f, ok := toFloat(want)
		return ok && float64(h) == f
	case float64:
		f, ok := toFloat(want)
		return ok && h == f
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	}
	return 0, false
}
