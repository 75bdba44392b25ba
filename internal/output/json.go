/*
PURPOSE:
  Writes benchmark records to a JSON Lines file (NDJSON).
  Optimized for machine parsing and `vecq` integration.

REQUIREMENTS:
  User-specified:
  - JSON output for easier parsing.

  Implementation-discovered:
  - JSON Lines is better for streaming/logging than a single large array (append-friendly).

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli (export)
  - Consumes: internal/model.Record

ERROR HANDLING:
  - Returns error on file creation or write failure.

IMPLEMENTATION RULES:
  - Use encoding/json.NewEncoder.
  - Thread-safe.

USAGE:
  w, err := output.NewJSONWriter(os.Stdout)
  w.Write(record)
  w.Close()

SELF-HEALING INSTRUCTIONS:
  - None specific.

RELATED FILES:
  - internal/model/types.go

MAINTENANCE:
  - Update if we switch to plain JSON array (not recommended for streaming).
*/

package output

import (
	"encoding/json"
	"io"
	"sync"

	"github.com/daryltucker/forest-bench/internal/model"
)

// JSONWriter handles writing records as JSON Lines.
type JSONWriter struct {
	w       io.Writer
	encoder *json.Encoder
	mu      sync.Mutex
}

// NewJSONWriter creates a new JSONWriter on top of w.
func NewJSONWriter(w io.Writer) *JSONWriter {
	return &JSONWriter{
		w:       w,
		encoder: json.NewEncoder(w),
	}
}

// Write writes a single record as a JSON line.
func (jw *JSONWriter) Write(r model.Record) error {
	jw.mu.Lock()
	defer jw.mu.Unlock()

	return jw.encoder.Encode(r)
}

// Close closes the underlying writer if it is closable.
func (jw *JSONWriter) Close() error {
	if c, ok := jw.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
