package skills

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// SearchPath is the three-tier skill search order: project-local skills
// shadow workspace skills, which shadow user-global skills (spec.md §6).
type SearchPath struct {
	ProjectDir   string
	WorkspaceDir string
	UserDir      string
}

func (sp SearchPath) tiers() []string {
	var dirs []string
	for _, d := range []string{sp.ProjectDir, sp.WorkspaceDir, sp.UserDir} {
		if d != "" {
			dirs = append(dirs, expandHome(d))
		}
	}
	return dirs
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// Loader discovers and caches skill manifests, optionally watching the
// search path for changes via fsnotify with a debounce delay — adapted
// from regul4rj0hn-architecture-mcp/pkg/monitor's FileSystemMonitor.
type Loader struct {
	search SearchPath

	mu    sync.RWMutex
	cache map[string]*Manifest // name -> manifest, project tier wins on name collision

	watcher       *fsnotify.Watcher
	debounce      time.Duration
	debounceTimers map[string]*time.Timer
}

// NewLoader constructs a Loader over search, performing an initial scan.
func NewLoader(search SearchPath) (*Loader, error) {
	l := &Loader{
		search:   search,
		cache:    make(map[string]*Manifest),
		debounce: 500 * time.Millisecond,
		debounceTimers: make(map[string]*time.Timer),
	}
	if err := l.rescan(); err != nil {
		return nil, err
	}
	return l, nil
}

// rescan walks every tier, lowest-priority first, so that a later
// (higher-priority) tier's manifest overwrites an earlier one sharing
// the same skill name.
func (l *Loader) rescan() error {
	newCache := make(map[string]*Manifest)
	tiers := l.search.tiers()
	for i := len(tiers) - 1; i >= 0; i-- {
		dir := tiers[i]
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue // a tier need not exist
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
				continue
			}
			path := filepath.Join(dir, e.Name())
			m, err := LoadFile(path)
			if err != nil {
				slog.Warn("skills.manifest_invalid", "path", path, "error", err)
				continue
			}
			newCache[m.Name] = m
		}
	}
	l.mu.Lock()
	l.cache = newCache
	l.mu.Unlock()
	return nil
}

// List returns every discovered manifest, sorted by name.
func (l *Loader) List() []*Manifest {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*Manifest, 0, len(l.cache))
	for _, m := range l.cache {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Get returns the manifest for name, if discovered.
func (l *Loader) Get(name string) (*Manifest, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	m, ok := l.cache[name]
	return m, ok
}

// Watch starts an fsnotify watch over every existing tier directory,
// debouncing bursts of filesystem events (editors often emit several
// events per save) before triggering a rescan.
func (l *Loader) Watch() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	l.watcher = w

	for _, dir := range l.search.tiers() {
		if _, err := os.Stat(dir); err == nil {
			if err := w.Add(dir); err != nil {
				slog.Warn("skills.watch_failed", "dir", dir, "error", err)
			}
		}
	}

	go l.watchLoop()
	return nil
}

func (l *Loader) watchLoop() {
	for {
		select {
		case event, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(event.Name, ".md") {
				continue
			}
			l.debounceRescan(event.Name)
		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("skills.watch_error", "error", err)
		}
	}
}

func (l *Loader) debounceRescan(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if t, ok := l.debounceTimers[path]; ok {
		t.Stop()
	}
	l.debounceTimers[path] = time.AfterFunc(l.debounce, func() {
		if err := l.rescan(); err != nil {
			slog.Warn("skills.rescan_failed", "error", err)
		}
	})
}

// Close stops the filesystem watcher, if running.
func (l *Loader) Close() error {
	if l.watcher == nil {
		return nil
	}
	return l.watcher.Close()
}
