// Package mcpexec implements the "external" Tool Registry executor
// variant (spec.md §9): dispatching a ToolCall to a connected MCP
// server. Adapted from the teacher's internal/mcp/manager.go connection
// lifecycle (backoff constants, serverState shape), scoped down from
// gateway-wide multi-server management to the single-process,
// single-workspace use TEC needs.
package mcpexec

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/google/uuid"
	"github.com/vtcodehq/vtcode/internal/registry"
	"github.com/vtcodehq/vtcode/internal/result"
)

const (
	initialBackoff       = 2 * time.Second
	maxBackoff           = 60 * time.Second
	maxReconnectAttempts = 10
)

// ServerConfig describes one MCP server connection.
type ServerConfig struct {
	Name       string
	Command    string
	Args       []string
	Env        map[string]string
	TimeoutSec int
}

// server tracks one live MCP connection.
type server struct {
	name      string
	client    *mcpclient.Client
	connected atomic.Bool
	timeout   time.Duration

	mu             sync.Mutex
	reconnAttempts int
	lastErr        string
}

// Manager connects to configured MCP servers and exposes their tools
// as registry.Executor instances bound by call correlation IDs.
type Manager struct {
	mu      sync.RWMutex
	servers map[string]*server
	reg     *registry.Registry
}

// NewManager constructs a Manager that registers bridged tools into reg.
func NewManager(reg *registry.Registry) *Manager {
	return &Manager{servers: make(map[string]*server), reg: reg}
}

// Connect starts a server connection and registers its tools.
func (m *Manager) Connect(ctx context.Context, cfg ServerConfig) error {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second // spec.md §3 default MCP category timeout
	}

	c, err := mcpclient.NewStdioMCPClient(cfg.Command, envSlice(cfg.Env), cfg.Args...)
	if err != nil {
		return fmt.Errorf("mcpexec: connect %s: %w", cfg.Name, err)
	}

	initCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if _, err := c.Initialize(initCtx, mcp.InitializeRequest{}); err != nil {
		_ = c.Close()
		return fmt.Errorf("mcpexec: initialize %s: %w", cfg.Name, err)
	}

	srv := &server{name: cfg.Name, client: c, timeout: timeout}
	srv.connected.Store(true)

	m.mu.Lock()
	m.servers[cfg.Name] = srv
	m.mu.Unlock()

	toolsResp, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		slog.Warn("mcpexec.list_tools_failed", "server", cfg.Name, "error", err)
		return nil
	}
	for _, t := range toolsResp.Tools {
		m.reg.Register(&BridgeTool{server: srv, originalName: t.Name, category: registry.CategoryMCP})
	}
	return nil
}

func envSlice(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}

// Disconnect closes every server connection and forgets them.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, srv := range m.servers {
		_ = srv.client.Close()
		slog.Debug("mcpexec.disconnected", "server", name)
	}
	m.servers = make(map[string]*server)
}

// BridgeTool adapts one MCP server tool into a registry.Executor.
type BridgeTool struct {
	server       *server
	originalName string
	category     registry.Category
}

func (b *BridgeTool) Name() string               { return b.server.name + ":" + b.originalName }
func (b *BridgeTool) Category() registry.Category { return b.category }
func (b *BridgeTool) OriginalName() string        { return b.originalName }

// Execute dispatches the call to the MCP server under the server's
// timeout. A server marked disconnected fails the call at once; no
// reconnect is attempted. Each failed call counts toward
// maxReconnectAttempts, and once that count is reached the server is
// marked disconnected (backoffFor only feeds the warning logged then).
func (b *BridgeTool) Execute(ctx context.Context, args map[string]interface{}) *result.Result {
	if !b.server.connected.Load() {
		return result.NewFailure(result.FailureExecutorFailure, "mcp server is not connected", nil)
	}

	callCtx, cancel := context.WithTimeout(ctx, b.server.timeout)
	defer cancel()

	callID := uuid.NewString()
	req := mcp.CallToolRequest{}
	req.Params.Name = b.originalName
	req.Params.Arguments = args

	start := time.Now()
	resp, err := b.server.client.CallTool(callCtx, req)
	if err != nil {
		if callCtx.Err() != nil {
			return result.NewTimeout(fmt.Sprintf("mcp call %s timed out", callID), time.Since(start), b.server.timeout)
		}
		b.noteError(err)
		return result.NewFailure(result.FailureExecutorFailure, err.Error(), err)
	}

	text := extractText(resp)
	if resp.IsError {
		return result.NewFailure(result.FailureExecutorFailure, text, nil)
	}
	return result.NewSuccess(text, text, 0)
}

func (b *BridgeTool) noteError(err error) {
	b.server.mu.Lock()
	defer b.server.mu.Unlock()
	b.server.reconnAttempts++
	b.server.lastErr = err.Error()
	if b.server.reconnAttempts >= maxReconnectAttempts {
		b.server.connected.Store(false)
		slog.Warn("mcpexec.server_disabled_after_backoff",
			"server", b.server.name, "attempts", b.server.reconnAttempts,
			"next_backoff", backoffFor(b.server.reconnAttempts))
	}
}

func extractText(resp *mcp.CallToolResult) string {
	var out string
	for _, c := range resp.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			out += tc.Text
		}
	}
	return out
}

// backoffFor returns the exponential backoff duration for attempt,
// capped at maxBackoff, matching the teacher's reconnect schedule.
func backoffFor(attempt int) time.Duration {
	d := initialBackoff
	for i := 0; i < attempt; i++ {
		d *= 2
		if d > maxBackoff {
			return maxBackoff
		}
	}
	return d
}
