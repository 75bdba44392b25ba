/*
PURPOSE:
  Writes benchmark records to a CSV file.
  Ensures data integrity by flushing writes immediately.

REQUIREMENTS:
  User-specified:
  - Export the aggregated dataset to CSV for spreadsheets.

  Implementation-discovered:
  - Column names match the JSON names served by the query API.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli (export)
  - Consumes: internal/model.Record

ERROR HANDLING:
  - Returns error on header or row write failure.

IMPLEMENTATION RULES:
  - Use encoding/csv.
  - Flush() after every write (critical for crash resilience).
  - Use Mutex if concurrent writes are expected.

USAGE:
  w, err := output.NewCSVWriter(f)
  w.Write(record)
  w.Close()

SELF-HEALING INSTRUCTIONS:
  - If CSV format changes, update header and record conversion.

RELATED FILES:
  - internal/model/types.go

MAINTENANCE:
  - Update Write() mapping when Record struct changes.
*/

package output

import (
	"encoding/csv"
	"io"
	"strconv"
	"sync"

	"github.com/daryltucker/forest-bench/internal/model"
)

// CSVHeader is the column order written by CSVWriter.
var CSVHeader = []string{
	"runtime", "instance_type", "model_name",
	"input_tokens", "output_tokens", "processes", "random_tokens",
	"first_token_latency_mean", "first_token_latency_p50", "first_token_latency_p90",
	"first_token_latency_min", "first_token_latency_max",
	"end_to_end_latency_mean", "end_to_end_latency_p50", "end_to_end_latency_p90",
	"output_tokens_per_second_mean", "output_tokens_per_second_p50", "output_tokens_per_second_p90",
	"output_tokens_per_second_min", "output_tokens_per_second_max",
	"success_rate", "requests_per_second", "total_requests",
	"successful_requests", "failed_requests", "total_tokens_mean",
	"server_throughput", "file_path",
}

// CSVWriter handles writing records to a CSV stream.
type CSVWriter struct {
	w      io.Writer
	writer *csv.Writer
	mu     sync.Mutex
}

// NewCSVWriter creates a new CSVWriter and writes the header.
func NewCSVWriter(w io.Writer) (*CSVWriter, error) {
	cw := csv.NewWriter(w)

	if err := cw.Write(CSVHeader); err != nil {
		return nil, err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, err
	}

	return &CSVWriter{
		w:      w,
		writer: cw,
	}, nil
}

// Write writes a single record to the CSV stream.
// It is thread-safe.
func (cw *CSVWriter) Write(r model.Record) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()

	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

	record := []string{
		r.Runtime,
		r.InstanceType,
		r.ModelName,
		strconv.Itoa(r.InputTokens),
		strconv.Itoa(r.OutputTokens),
		strconv.Itoa(r.Processes),
		strconv.Itoa(r.RandomTokens),
		f(r.FirstTokenLatencyMean),
		f(r.FirstTokenLatencyP50),
		f(r.FirstTokenLatencyP90),
		f(r.FirstTokenLatencyMin),
		f(r.FirstTokenLatencyMax),
		f(r.EndToEndLatencyMean),
		f(r.EndToEndLatencyP50),
		f(r.EndToEndLatencyP90),
		f(r.OutputTokensPerSecondMean),
		f(r.OutputTokensPerSecondP50),
		f(r.OutputTokensPerSecondP90),
		f(r.OutputTokensPerSecondMin),
		f(r.OutputTokensPerSecondMax),
		f(r.SuccessRate),
		f(r.RequestsPerSecond),
		strconv.Itoa(r.TotalRequests),
		strconv.Itoa(r.SuccessfulRequests),
		strconv.Itoa(r.FailedRequests),
		f(r.TotalTokensMean),
		f(r.ServerThroughput),
		r.FilePath,
	}

	if err := cw.writer.Write(record); err != nil {
		return err
	}
	cw.writer.Flush()
	return cw.writer.Error()
}

// Close flushes and closes the underlying writer if it is closable.
func (cw *CSVWriter) Close() error {
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return err
	}
	if c, ok := cw.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
