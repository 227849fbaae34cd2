package ptyrun

import (
	"context"
	"runtime"
	"strings"
	"testing"
	"time"
)

func TestResolveShellFallsBackWhenLoginShellMissing(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("PATH-search fallback test targets POSIX shells")
	}
	r := ShellResolution{LoginShell: "/no/such/shell-xyz", WindowsFallbackShell: "cmd.exe"}
	path, err := r.ResolveShell()
	if err != nil {
		t.Fatalf("expected fallback to /bin/sh, got error: %v", err)
	}
	if !strings.Contains(path, "sh") {
		t.Fatalf("expected a sh-like fallback shell, got %s", path)
	}
}

func TestRunnerRunProducesOutcome(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("PTY allocation test targets POSIX")
	}
	r := NewRunner(ShellResolution{LoginShell: "/bin/sh"}, 100, 1<<20)
	outcome, err := r.Run(context.Background(), t.TempDir(), "echo hello", 5*time.Second, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.ExitClass != ExitClean {
		t.Fatalf("expected clean exit, got %s (code %d)", outcome.ExitClass, outcome.ExitCode)
	}
	if !strings.Contains(outcome.Scrollback.String(), "hello") {
		t.Fatalf("expected scrollback to contain command output, got %q", outcome.Scrollback.String())
	}
}

func TestRunnerRunTimesOut(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("PTY allocation test targets POSIX")
	}
	r := NewRunner(ShellResolution{LoginShell: "/bin/sh"}, 100, 1<<20)
	outcome, err := r.Run(context.Background(), t.TempDir(), "sleep 5", 200*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !outcome.TimedOut {
		t.Fatal("expected TimedOut to be set")
	}
}
