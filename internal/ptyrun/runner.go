// Package ptyrun implements the PTY Runtime (spec.md §4.4): login-shell
// process spawn with PATH-search-then-shell-fallback resolution, real
// pseudo-terminal allocation via github.com/creack/pty, a dual-bounded
// ScrollbackBuffer, and exit-code classification.
package ptyrun

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
	"github.com/mattn/go-runewidth"
)

// ExitClass classifies a process exit code per spec.md §4.4.
type ExitClass string

const (
	ExitClean           ExitClass = "clean"            // 0
	ExitCommandNotFound ExitClass = "command_not_found" // 127
	ExitPermission      ExitClass = "permission_denied" // 126
	ExitInterrupted     ExitClass = "interrupted"        // 130 (SIGINT)
	ExitKilled          ExitClass = "killed"             // 137 (SIGKILL)
	ExitOther           ExitClass = "other"
)

// ClassifyExit maps a raw exit code to its ExitClass.
func ClassifyExit(code int) ExitClass {
	switch code {
	case 0:
		return ExitClean
	case 127:
		return ExitCommandNotFound
	case 126:
		return ExitPermission
	case 130:
		return ExitInterrupted
	case 137:
		return ExitKilled
	default:
		return ExitOther
	}
}

// ShellResolution configures the PATH-search-then-shell-fallback
// algorithm used to resolve a login shell.
type ShellResolution struct {
	LoginShell           string
	WindowsFallbackShell string
}

// ResolveShell searches PATH for LoginShell; if not found, falls back to
// an OS-appropriate shell (WindowsFallbackShell on Windows, /bin/sh
// elsewhere), matching the teacher's sh -c invocation generalized to an
// explicit, configurable fallback per spec.md §9 Open Question 3.
func (r ShellResolution) ResolveShell() (string, error) {
	if r.LoginShell != "" {
		if path, err := exec.LookPath(r.LoginShell); err == nil {
			return path, nil
		}
	}
	fallback := "/bin/sh"
	if runtime.GOOS == "windows" && r.WindowsFallbackShell != "" {
		fallback = r.WindowsFallbackShell
	}
	path, err := exec.LookPath(fallback)
	if err != nil {
		return "", fmt.Errorf("ptyrun: no usable shell found (tried %q, fallback %q): %w", r.LoginShell, fallback, err)
	}
	return path, nil
}

// Outcome is the result of a single PTY-backed command run.
type Outcome struct {
	ExitCode   int
	ExitClass  ExitClass
	Scrollback *ScrollbackBuffer
	TimedOut   bool
	Cancelled  bool
	Duration   time.Duration
}

// Runner spawns commands attached to a real pseudo-terminal.
type Runner struct {
	Shell      ShellResolution
	MaxLines   int
	MaxBytes   int
	Columns    int
	Rows       int
}

// NewRunner builds a Runner with the given shell resolution and
// scrollback bounds.
func NewRunner(shell ShellResolution, maxLines, maxBytes int) *Runner {
	return &Runner{Shell: shell, MaxLines: maxLines, MaxBytes: maxBytes, Columns: 120, Rows: 40}
}

// Run spawns command under a login shell inside a PTY, streaming output
// into a ScrollbackBuffer, and blocks until the command exits, ctx is
// cancelled, or timeout elapses — whichever comes first. onProgress, if
// non-nil, is invoked with each output chunk as it arrives (feeds the
// Tool Pipeline's Progress result variant).
func (r *Runner) Run(ctx context.Context, dir, command string, timeout time.Duration, onProgress func(string)) (*Outcome, error) {
	shellPath, err := r.Shell.ResolveShell()
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, shellPath, "-lc", command)
	cmd.Dir = dir

	ptyFile, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: uint16(r.Columns), Rows: uint16(r.Rows)})
	if err != nil {
		return nil, fmt.Errorf("ptyrun: start pty: %w", err)
	}
	defer ptyFile.Close()

	scrollback := NewScrollbackBuffer(r.MaxLines, r.MaxBytes)
	start := time.Now()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		buf := make([]byte, 4096)
		for {
			n, rerr := ptyFile.Read(buf)
			if n > 0 {
				chunk := sanitizeForWidth(string(buf[:n]))
				scrollback.Write(chunk)
				if onProgress != nil {
					onProgress(chunk)
				}
			}
			if rerr != nil {
				return
			}
		}
	}()

	waitErr := cmd.Wait()
	wg.Wait()
	duration := time.Since(start)

	outcome := &Outcome{Scrollback: scrollback, Duration: duration}

	if runCtx.Err() == context.DeadlineExceeded {
		outcome.TimedOut = true
		outcome.ExitCode = -1
		outcome.ExitClass = ExitOther
		return outcome, nil
	}
	if ctx.Err() == context.Canceled {
		outcome.Cancelled = true
		outcome.ExitCode = -1
		outcome.ExitClass = ExitOther
		return outcome, nil
	}

	code := exitCodeFrom(waitErr)
	outcome.ExitCode = code
	outcome.ExitClass = ClassifyExit(code)
	return outcome, nil
}

func exitCodeFrom(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			if status.Signaled() {
				return 128 + int(status.Signal())
			}
			return status.ExitStatus()
		}
		return exitErr.ExitCode()
	}
	return -1
}

// maxScrollbackLineWidth bounds a single rendered line so a PTY program
// that emits one enormous unbroken line (e.g. a minified asset dump)
// can't blow past terminal-safe rendering before the byte-cap in
// ScrollbackBuffer even has a newline to evict on.
const maxScrollbackLineWidth = 4000

// sanitizeForWidth clips any line within chunk to maxScrollbackLineWidth
// display columns, counting wide runes correctly via go-runewidth.
func sanitizeForWidth(chunk string) string {
	if runewidth.StringWidth(chunk) <= maxScrollbackLineWidth {
		return chunk
	}
	lines := make([]string, 0)
	for _, line := range splitKeepNewline(chunk) {
		if runewidth.StringWidth(line) > maxScrollbackLineWidth {
			line = runewidth.Truncate(line, maxScrollbackLineWidth, "…\n")
		}
		lines = append(lines, line)
	}
	out := ""
	for _, l := range lines {
		out += l
	}
	return out
}

func splitKeepNewline(s string) []string {
	var out []string
	start := 0
	for i, r := range s {
		if r == '\n' {
			out = append(out, s[start:i+1])
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}
