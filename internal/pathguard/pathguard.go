// Package pathguard resolves a tool-supplied path against a workspace
// root, rejecting traversal, symlink escapes, TOCTOU symlink rebinds,
// and hardlinked files that alias outside the workspace.
package pathguard

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// ErrWorkspaceViolation is returned (wrapped) whenever a resolved path
// would land outside the workspace root.
var ErrWorkspaceViolation = fmt.Errorf("path escapes workspace")

// Guard resolves paths relative to a fixed workspace root.
type Guard struct {
	Workspace string
	Restrict  bool
}

// New constructs a Guard for workspace, restricting to it unless restrict
// is false (matching the teacher's ReadFileTool.restrict flag).
func New(workspace string, restrict bool) *Guard {
	return &Guard{Workspace: workspace, Restrict: restrict}
}

// Resolve cleans and validates path against the workspace root, returning
// the canonical absolute path. It never mutates its inputs.
func (g *Guard) Resolve(path string) (string, error) {
	joined := path
	if !filepath.IsAbs(path) {
		joined = filepath.Join(g.Workspace, path)
	}
	clean := filepath.Clean(joined)

	if !g.Restrict {
		return clean, nil
	}

	wsReal, err := filepath.EvalSymlinks(g.Workspace)
	if err != nil {
		return "", fmt.Errorf("pathguard: resolve workspace root: %w", err)
	}

	real, err := resolveExisting(clean)
	if err != nil {
		return "", fmt.Errorf("pathguard: resolve path: %w", err)
	}

	if !isPathInside(real, wsReal) {
		return "", fmt.Errorf("%w: %s", ErrWorkspaceViolation, path)
	}

	if hasMutableSymlinkParent(real, wsReal) {
		return "", fmt.Errorf("%w: symlink parent directory is writable (TOCTOU rebind risk): %s", ErrWorkspaceViolation, path)
	}

	if err := checkHardlink(real); err != nil {
		return "", fmt.Errorf("%w: %v", ErrWorkspaceViolation, err)
	}

	return real, nil
}

// resolveExisting walks up from clean, calling EvalSymlinks on the
// longest existing prefix, then rejoins the remaining (not-yet-created)
// components. This mirrors the teacher's resolveThroughExistingAncestors:
// a path being created for the first time has no symlinks to resolve on
// its final component, but every existing ancestor must still be
// resolved so a symlinked ancestor directory can't be used to escape.
func resolveExisting(path string) (string, error) {
	if real, err := filepath.EvalSymlinks(path); err == nil {
		return real, nil
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	if dir == path {
		return path, nil // reached filesystem root without resolving
	}
	realDir, err := resolveExisting(dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(realDir, base), nil
}

// isPathInside reports whether child is parent itself or a strict
// descendant of parent, using component-wise comparison (not a raw string prefix) so
// that a sibling directory sharing a string prefix — e.g. "/ws-evil"
// against workspace "/ws" — is correctly rejected.
func isPathInside(child, parent string) bool {
	if child == parent {
		return true
	}
	sep := string(filepath.Separator)
	if !strings.HasSuffix(parent, sep) {
		parent += sep
	}
	return strings.HasPrefix(child, parent)
}

// hasMutableSymlinkParent walks every ancestor directory of real (up to
// the workspace root) and rejects the path if any ancestor is a symlink
// whose own parent directory is writable by the current user — such a
// symlink could be rebound between validation and use.
func hasMutableSymlinkParent(real, wsRoot string) bool {
	if runtime.GOOS == "windows" {
		return false // POSIX access(2) semantics don't translate; rely on ACL checks at use time
	}
	dir := filepath.Dir(real)
	for dir != wsRoot && len(dir) > len(wsRoot) {
		info, err := os.Lstat(dir)
		if err == nil && info.Mode()&os.ModeSymlink != 0 {
			parent := filepath.Dir(dir)
			if isWritable(parent) {
				return true
			}
		}
		next := filepath.Dir(dir)
		if next == dir {
			break
		}
		dir = next
	}
	return false
}

func isWritable(dir string) bool {
	info, err := os.Stat(dir)
	if err != nil {
		return false
	}
	return info.Mode().Perm()&0o002 != 0 || ownerWritable(info)
}

// checkHardlink rejects regular files with more than one hardlink,
// since editing through one name can silently affect content reachable
// through a link outside the workspace. Implemented per-platform in
// pathguard_unix.go / pathguard_windows.go.
func checkHardlink(path string) error {
	return checkHardlinkPlatform(path)
}
