package ptyrun

import (
	"strings"
	"testing"
)

func TestScrollbackBufferBoundsLines(t *testing.T) {
	sb := NewScrollbackBuffer(3, 1<<20)
	for i := 0; i < 10; i++ {
		sb.Write("line\n")
	}
	lines, _ := sb.Len()
	if lines != 3 {
		t.Fatalf("expected 3 lines retained, got %d", lines)
	}
	if !sb.Truncated {
		t.Fatal("expected Truncated to be set")
	}
}

func TestScrollbackBufferBoundsBytes(t *testing.T) {
	sb := NewScrollbackBuffer(1000, 10)
	sb.Write(strings.Repeat("x", 100) + "\n")
	if !sb.Truncated {
		t.Fatal("expected Truncated to be set once the byte cap is crossed")
	}
	if !strings.Contains(sb.String(), "truncated") {
		t.Fatalf("expected scrollback to carry an overflow warning, got %q", sb.String())
	}
}

func TestScrollbackBufferReportsExactlyOneOverflowWarning(t *testing.T) {
	sb := NewScrollbackBuffer(1000, 50)
	// 2000 lines of 65 bytes (about 127 KiB) against a 50-byte cap,
	// exercised in small chunks to mirror streamed PTY output.
	for i := 0; i < 2000; i++ {
		sb.Write(strings.Repeat("y", 64) + "\n")
	}
	content := sb.String()
	if got := strings.Count(content, "truncated"); got != 1 {
		t.Fatalf("expected exactly one overflow warning, got %d in %q", got, content)
	}
}

func TestScrollbackBufferKeepsHeadOnByteOverflow(t *testing.T) {
	sb := NewScrollbackBuffer(1000, 30)
	sb.Write("head\n")
	for i := 0; i < 5; i++ {
		sb.Write(strings.Repeat("z", 40) + "\n")
	}
	if !strings.HasPrefix(sb.String(), "head\n") {
		t.Fatalf("expected the head to be retained once the byte cap is hit, got %q", sb.String())
	}
}

func TestScrollbackBufferHoldsInvariantAtEveryWrite(t *testing.T) {
	sb := NewScrollbackBuffer(5, 200)
	for i := 0; i < 50; i++ {
		sb.Write("abcdefgh\n")
		lines, bytes := sb.Len()
		if lines > 5 {
			t.Fatalf("line bound violated mid-stream: %d", lines)
		}
		if bytes > 200 {
			t.Fatalf("byte bound violated mid-stream: %d", bytes)
		}
	}
}

func TestClassifyExit(t *testing.T) {
	cases := map[int]ExitClass{
		0:   ExitClean,
		127: ExitCommandNotFound,
		126: ExitPermission,
		130: ExitInterrupted,
		137: ExitKilled,
		42:  ExitOther,
	}
	for code, want := range cases {
		if got := ClassifyExit(code); got != want {
			t.Errorf("ClassifyExit(%d) = %s, want %s", code, got, want)
		}
	}
}
