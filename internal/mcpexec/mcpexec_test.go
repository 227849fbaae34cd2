package mcpexec

import (
	"testing"
	"time"
)

func TestBackoffForCapsAtMaxBackoff(t *testing.T) {
	if got := backoffFor(0); got != initialBackoff {
		t.Fatalf("expected initial backoff %v, got %v", initialBackoff, got)
	}
	if got := backoffFor(10); got != maxBackoff {
		t.Fatalf("expected backoff to cap at %v, got %v", maxBackoff, got)
	}
}

func TestBackoffForIsMonotonicUntilCap(t *testing.T) {
	prev := time.Duration(0)
	for attempt := 0; attempt < 6; attempt++ {
		d := backoffFor(attempt)
		if d < prev {
			t.Fatalf("backoff decreased at attempt %d: %v < %v", attempt, d, prev)
		}
		prev = d
	}
}

func TestEnvSliceFormatsKeyValuePairs(t *testing.T) {
	out := envSlice(map[string]string{"FOO": "bar"})
	if len(out) != 1 || out[0] != "FOO=bar" {
		t.Fatalf("expected [FOO=bar], got %v", out)
	}
}

func TestEnvSliceEmptyMapYieldsEmptySlice(t *testing.T) {
	out := envSlice(nil)
	if len(out) != 0 {
		t.Fatalf("expected empty slice, got %v", out)
	}
}

func TestNoteErrorDisablesAfterMaxReconnectAttempts(t *testing.T) {
	srv := &server{name: "test", timeout: time.Second}
	srv.connected.Store(true)
	b := &BridgeTool{server: srv, originalName: "tool"}

	for i := 0; i < maxReconnectAttempts; i++ {
		b.noteError(errTest{})
	}

	if srv.connected.Load() {
		t.Fatal("expected server to be marked disconnected after maxReconnectAttempts failures")
	}
}

type errTest struct{}

func (errTest) Error() string { return "boom" }
