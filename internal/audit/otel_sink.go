package audit

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// OTelSink emits each audit event as a span, so a single execution
// outcome is both durably logged (via JSONLSink/SQLiteSink) and visible
// in a distributed trace — grounded on the teacher's full
// go.opentelemetry.io/otel/* dependency set and its
// subagent_exec.go span-per-tool-call pattern.
type OTelSink struct {
	tracer trace.Tracer
}

// NewOTelSink builds a sink using the given tracer (constructed by the
// caller from an OTLP exporter per config.AuditConfig.OTLPEndpoint).
func NewOTelSink(tracer trace.Tracer) *OTelSink {
	return &OTelSink{tracer: tracer}
}

// Emit starts and immediately ends a zero-duration span carrying ev's
// fields as attributes, correlated by call ID.
func (s *OTelSink) Emit(ctx context.Context, ev Event) {
	_, span := s.tracer.Start(ctx, "tec."+string(ev.Kind))
	defer span.End()

	span.SetAttributes(
		attribute.String("tec.call_id", ev.CallID),
		attribute.String("tec.tool", ev.Tool),
		attribute.String("tec.decision", ev.Decision),
		attribute.String("tec.result_kind", ev.ResultKind),
		attribute.Int64("tec.duration_ms", ev.DurationMS),
	)
}

// Close is a no-op: the tracer provider's lifecycle is owned by the
// caller that constructed it, not by this sink.
func (s *OTelSink) Close() error { return nil }
