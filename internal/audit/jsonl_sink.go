package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"sync"
)

// JSONLSink is the default audit sink: line-delimited JSON appended to
// a file, matching spec.md §4.8's "default line-delimited JSON."
type JSONLSink struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewJSONLSink opens (or creates) path for appending.
func NewJSONLSink(path string) (*JSONLSink, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &JSONLSink{file: f, enc: json.NewEncoder(f)}, nil
}

// Emit appends ev as one JSON line. A write failure is logged, not
// propagated — an audit sink must never abort the tool call it is
// observing.
func (s *JSONLSink) Emit(ctx context.Context, ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(ev); err != nil {
		slog.Warn("audit.jsonl_write_failed", "error", err)
	}
}

// Close flushes and closes the underlying file.
func (s *JSONLSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
