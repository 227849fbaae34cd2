// Package registry implements the Tool Registry: a name-to-executor map
// with alias resolution and named tool groups, reconstructed from call
// sites in the teacher (policy.go's toolAliases/toolGroups/
// RegisterToolGroup, and mcp/manager_tools.go's Get/Unregister) since
// the teacher's own Registry type was never present in the pack.
package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/vtcodehq/vtcode/internal/result"
)

// Category names a tool's timeout/policy category (spec.md §3).
type Category string

const (
	CategoryDefault Category = "default"
	CategoryPTY     Category = "pty"
	CategoryMCP     Category = "mcp"
)

// Executor is the polymorphic interface every tool implements,
// regardless of whether it runs in-process, under a PTY, or delegates
// to an external MCP server (spec.md §9).
type Executor interface {
	Name() string
	Category() Category
	Execute(ctx context.Context, args map[string]interface{}) *result.Result
}

// Registry holds registered executors plus alias and group tables.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]Executor
	aliases map[string]string
	groups  map[string][]string
}

// New constructs an empty Registry.
func New() *Registry {
	return &Registry{
		tools:   make(map[string]Executor),
		aliases: make(map[string]string),
		groups:  make(map[string][]string),
	}
}

// Register adds an executor under its own Name(). Registering a name
// that already exists overwrites the previous entry, matching the
// teacher's MCP reconnect-and-re-register flow.
func (r *Registry) Register(e Executor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[e.Name()] = e
}

// Unregister removes an executor by name. No-op if absent.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, name)
}

// Alias maps an alternative surface name to a canonical tool name
// (e.g. "bash" -> "exec"), matching the teacher's toolAliases map.
func (r *Registry) Alias(alias, canonical string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases[alias] = canonical
}

// resolve follows at most one alias hop; aliases are not chained.
func (r *Registry) resolve(name string) string {
	if canonical, ok := r.aliases[name]; ok {
		return canonical
	}
	return name
}

// Get looks up an executor by name or alias.
func (r *Registry) Get(name string) (Executor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.tools[r.resolve(name)]
	return e, ok
}

// List returns every registered tool name.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	return names
}

// RegisterGroup names a set of tools as a group, expandable in policy
// specs via the "group:<name>" syntax (matches the teacher's
// RegisterToolGroup/toolGroups convention).
func (r *Registry) RegisterGroup(name string, members []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups[name] = append([]string(nil), members...)
}

// UnregisterGroup removes a named group.
func (r *Registry) UnregisterGroup(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.groups, name)
}

// Group returns a group's member list, or nil if the group is unknown.
func (r *Registry) Group(name string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.groups[name]
}

// Execute resolves name (through aliasing) and dispatches to its
// executor, or returns a CommandNotFound failure if unregistered.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]interface{}) *result.Result {
	e, ok := r.Get(name)
	if !ok {
		return result.NewFailure(result.FailureCommandNotFound, fmt.Sprintf("no tool registered for %q", name), nil)
	}
	return e.Execute(ctx, args)
}
