// Package app is the composition root: it loads Config and wires every
// TEC component (guards, registry, loop detector, policy store,
// concurrency controller, audit sinks) into a ready-to-dispatch
// Pipeline with its built-in tools registered.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"golang.org/x/time/rate"

	"github.com/vtcodehq/vtcode/internal/argvalidate"
	"github.com/vtcodehq/vtcode/internal/audit"
	"github.com/vtcodehq/vtcode/internal/concurrency"
	"github.com/vtcodehq/vtcode/internal/config"
	"github.com/vtcodehq/vtcode/internal/loopdetect"
	"github.com/vtcodehq/vtcode/internal/pathguard"
	"github.com/vtcodehq/vtcode/internal/pipeline"
	"github.com/vtcodehq/vtcode/internal/policystore"
	"github.com/vtcodehq/vtcode/internal/ptyrun"
	"github.com/vtcodehq/vtcode/internal/registry"
	"github.com/vtcodehq/vtcode/internal/skills"
	"github.com/vtcodehq/vtcode/internal/tools"
	"github.com/vtcodehq/vtcode/internal/urlguard"
)

// App bundles the wired Pipeline plus the collaborators a caller needs
// to shut down cleanly.
type App struct {
	Pipeline    *pipeline.Pipeline
	SkillLoader *skills.Loader
	Controller  *concurrency.Controller
	Auditor     *audit.Recorder

	closers []func() error
}

// Build loads cfg's collaborators and registers the built-in tool set
// (read_file, write_file, exec, web_fetch), matching the teacher's
// runGateway() wiring of its own tool registry, adapted to TEC's scope.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	reg := registry.New()
	reg.Alias("bash", "exec")
	reg.Alias("sh", "exec")
	reg.RegisterGroup("fs", []string{"read_file", "write_file"})
	reg.RegisterGroup("runtime", []string{"exec"})
	reg.RegisterGroup("network", []string{"web_fetch"})

	guard := pathguard.New(cfg.Workspace, cfg.RestrictToWorkspace)
	validator := argvalidate.New(nil)
	controller := concurrency.New(4)

	shell := ptyrun.ShellResolution{
		LoginShell:           cfg.PTY.LoginShell,
		WindowsFallbackShell: cfg.PTY.WindowsFallbackShell,
	}
	runner := ptyrun.NewRunner(shell, cfg.Scrollback.MaxLines, cfg.Scrollback.MaxBytes)

	ug := urlguard.New(urlguard.Mode(cfg.URLGuard.Mode), cfg.URLGuard.AllowedHosts,
		cfg.URLGuard.SensitiveDomains, cfg.URLGuard.MaxRedirects)

	reg.Register(tools.NewReadFileTool(guard))
	reg.Register(tools.NewWriteFileTool(guard, controller.WithWorkspaceWriteLock))
	reg.Register(tools.NewExecTool(validator, runner, controller, cfg.Workspace, cfg.Timeouts.PTY()))
	reg.Register(tools.NewWebFetchTool(ug, time.Duration(cfg.URLGuard.RequestTimeoutSec)*time.Second))

	store, err := policystore.Open(cfg.PolicyStorePath)
	if err != nil {
		return nil, fmt.Errorf("app: open policy store: %w", err)
	}

	detector := loopdetect.NewDetector(cfg.LoopDetector.MaxSignatures, cfg.LoopDetector.Threshold)
	limiter := rate.NewLimiter(rate.Limit(float64(cfg.RateLimit.PerHour)/3600.0), cfg.RateLimit.Burst)

	auditor, closers, err := buildAuditor(ctx, cfg)
	if err != nil {
		return nil, err
	}

	p := pipeline.New(reg, pipeline.CategoryTimeouts{
		registry.CategoryDefault: cfg.Timeouts.Default(),
		registry.CategoryPTY:     cfg.Timeouts.PTY(),
		registry.CategoryMCP:     cfg.Timeouts.MCP(),
	}, cfg.Timeouts.WarningThreshold, limiter, detector, store, controller, auditor)
	p.OnWarning = func(callID string, elapsed, timeout time.Duration) {
		slog.Warn("tec.timeout_warning", "call_id", callID, "elapsed", elapsed, "timeout", timeout)
	}
	if isatty.IsTerminal(os.Stdin.Fd()) {
		p.OnLoopDetected = func(toolName string, pattern loopdetect.Pattern) loopdetect.Response {
			resp, err := loopdetect.PromptForResponse(toolName, pattern)
			if err != nil {
				slog.Warn("app.loop_prompt_failed", "tool", toolName, "error", err)
				return loopdetect.ResponseCancel
			}
			return resp
		}
	} else {
		p.OnLoopDetected = func(toolName string, pattern loopdetect.Pattern) loopdetect.Response {
			slog.Warn("tec.loop_detected_noninteractive", "tool", toolName, "pattern", pattern)
			return loopdetect.ResponseCancel
		}
	}

	loader, err := skills.NewLoader(skills.SearchPath{
		ProjectDir:   cfg.Skills.ProjectDir,
		WorkspaceDir: cfg.Skills.WorkspaceDir,
		UserDir:      cfg.Skills.UserDir,
	})
	if err != nil {
		return nil, fmt.Errorf("app: load skills: %w", err)
	}
	if cfg.Skills.WatchEnabled {
		if err := loader.Watch(); err != nil {
			slog.Warn("app.skills_watch_failed", "error", err)
		}
	}

	controller.Schedule("0 * * * *", func(context.Context) {
		slog.Debug("tec.maintenance_sweep")
	})
	go controller.Run(ctx, time.Minute)

	return &App{
		Pipeline:    p,
		SkillLoader: loader,
		Controller:  controller,
		Auditor:     auditor,
		closers:     closers,
	}, nil
}

// buildAuditor constructs the configured audit sinks: a JSONL sink is
// always present, a SQLite sink and an OTLP span sink are added when
// configured.
func buildAuditor(ctx context.Context, cfg *config.Config) (*audit.Recorder, []func() error, error) {
	var sinks []audit.Sink
	var closers []func() error

	jsonlSink, err := audit.NewJSONLSink(cfg.Audit.LogPath)
	if err != nil {
		return nil, nil, fmt.Errorf("app: open jsonl audit sink: %w", err)
	}
	sinks = append(sinks, jsonlSink)

	if cfg.Audit.SQLitePath != "" {
		sqliteSink, err := audit.NewSQLiteSink(cfg.Audit.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("app: open sqlite audit sink: %w", err)
		}
		sinks = append(sinks, sqliteSink)
	}

	if cfg.Audit.OTLPEndpoint != "" {
		exporterOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Audit.OTLPEndpoint)}
		if cfg.Audit.OTLPInsecure {
			exporterOpts = append(exporterOpts, otlptracegrpc.WithInsecure())
		}
		exporter, err := otlptracegrpc.New(ctx, exporterOpts...)
		if err != nil {
			return nil, nil, fmt.Errorf("app: build otlp exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
		sinks = append(sinks, audit.NewOTelSink(tp.Tracer(cfg.Audit.ServiceName)))
		closers = append(closers, func() error { return tp.Shutdown(ctx) })
	}

	return audit.NewRecorder(sinks...), closers, nil
}

// Close shuts down every collaborator that owns a resource (audit
// sinks, skill watcher, concurrency scheduler).
func (a *App) Close() error {
	a.Controller.Stop()
	_ = a.SkillLoader.Close()

	var first error
	for _, c := range a.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	if err := a.Auditor.Close(); err != nil && first == nil {
		first = err
	}
	return first
}
