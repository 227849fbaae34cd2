// Package pipeline implements the Tool Pipeline (spec.md §4.5): batch
// dispatch of a turn's ToolCalls, per-category dynamic timeouts with an
// 80% warning emission, rate limiting, loop detection, and audit event
// emission (validation + outcome on every call, plus a loop_flagged
// event when the Loop Detector intervenes).
package pipeline

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/vtcodehq/vtcode/internal/audit"
	"github.com/vtcodehq/vtcode/internal/concurrency"
	"github.com/vtcodehq/vtcode/internal/loopdetect"
	"github.com/vtcodehq/vtcode/internal/policystore"
	"github.com/vtcodehq/vtcode/internal/registry"
	"github.com/vtcodehq/vtcode/internal/result"
)

// ToolCall is one LLM-issued tool invocation (spec.md §3).
type ToolCall struct {
	ID   string
	Name string
	Args map[string]interface{}
}

// CategoryTimeouts maps a registry.Category to its configured timeout.
type CategoryTimeouts map[registry.Category]time.Duration

// Pipeline dispatches a batch of ToolCalls against a Registry.
type Pipeline struct {
	Registry     *registry.Registry
	Timeouts     CategoryTimeouts
	WarningRatio float64
	Limiter      *rate.Limiter
	LoopDetector *loopdetect.Detector
	PolicyStore  *policystore.Store
	Controller   *concurrency.Controller
	Auditor      *audit.Recorder

	OnWarning func(callID string, elapsed, timeout time.Duration)

	// OnLoopDetected is consulted once a call's signature crosses the
	// Loop Detector's threshold. It returns the collaborator's chosen
	// Response. A nil OnLoopDetected (the non-interactive default)
	// cancels the call rather than risk silently repeating it.
	OnLoopDetected func(toolName string, pattern loopdetect.Pattern) loopdetect.Response
}

// New constructs a Pipeline wired to its collaborators.
func New(reg *registry.Registry, timeouts CategoryTimeouts, warningRatio float64,
	limiter *rate.Limiter, detector *loopdetect.Detector, store *policystore.Store,
	controller *concurrency.Controller, auditor *audit.Recorder) *Pipeline {
	return &Pipeline{
		Registry: reg, Timeouts: timeouts, WarningRatio: warningRatio,
		Limiter: limiter, LoopDetector: detector, PolicyStore: store,
		Controller: controller, Auditor: auditor,
	}
}

// Dispatch runs every call in the batch concurrently (errgroup, matching
// the teacher's goroutine-per-call fan-out in subagent_exec.go), each
// under its own category timeout, and returns one Result per call in
// input order.
func (p *Pipeline) Dispatch(ctx context.Context, calls []ToolCall) []*result.Result {
	results := make([]*result.Result, len(calls))
	var g errgroup.Group

	for i, call := range calls {
		i, call := i, call
		g.Go(func() error {
			results[i] = p.dispatchOne(ctx, call)
			return nil
		})
	}
	_ = g.Wait() // dispatchOne never returns an error: failures are encoded in Result
	return results
}

func (p *Pipeline) dispatchOne(ctx context.Context, call ToolCall) *result.Result {
	if p.Limiter != nil && !p.Limiter.Allow() {
		res := result.NewFailure(result.FailurePolicyRejection, "rate limit exceeded", nil)
		p.emit(ctx, call, "rate_limited", res, 0)
		return res
	}

	executor, ok := p.Registry.Get(call.Name)
	if !ok {
		res := result.NewFailure(result.FailureCommandNotFound, "tool not registered", nil)
		p.emit(ctx, call, "command_not_found", res, 0)
		return res
	}

	decision := policystore.DecisionPromptEachTime
	if p.PolicyStore != nil {
		decision = p.PolicyStore.Get(call.Name)
	}
	if decision == policystore.DecisionAlwaysDeny {
		res := result.NewFailure(result.FailurePolicyRejection, "denied by stored policy decision", nil)
		p.emit(ctx, call, string(decision), res, 0)
		return res
	}
	p.emitValidation(ctx, call, string(decision))

	if p.LoopDetector != nil {
		sig := loopdetect.HashSignature(call.Name, canonicalArgs(call.Args))
		// No per-call quality score is available before execution, so
		// NaN is passed: isDegrading's > comparisons are false against
		// NaN, which correctly falls through to exact-repeat/alternating
		// classification instead of spuriously reading a flat score as
		// "degrading".
		if pattern := p.LoopDetector.Observe(sig, math.NaN()); pattern != loopdetect.PatternNone {
			resp := loopdetect.ResponseCancel
			if p.OnLoopDetected != nil {
				resp = p.OnLoopDetected(call.Name, pattern)
			}
			p.LoopDetector.Apply(sig, resp)
			p.emitLoopFlagged(ctx, call, pattern, resp)

			if resp == loopdetect.ResponseCancel {
				res := result.NewCancelled("repeated call cancelled by loop detector").
					WithContext("pattern", string(pattern))
				p.emitOutcome(ctx, call, res, 0)
				return res
			}
		}
	}

	timeout := p.Timeouts[executor.Category()]
	if timeout <= 0 {
		timeout = 180 * time.Second
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	warnTimer := p.armWarning(call.ID, timeout)
	defer warnTimer.Stop()

	res := executor.Execute(runCtx, call.Args)
	elapsed := time.Since(start)

	if runCtx.Err() == context.DeadlineExceeded && res.Kind != result.KindTimeout {
		res = result.NewTimeout("execution exceeded the configured timeout", elapsed, timeout)
	}

	p.emitOutcome(ctx, call, res, elapsed)
	return res
}

func (p *Pipeline) armWarning(callID string, timeout time.Duration) *time.Timer {
	ratio := p.WarningRatio
	if ratio <= 0 || ratio >= 1 {
		ratio = 0.8
	}
	warnAt := time.Duration(float64(timeout) * ratio)
	return time.AfterFunc(warnAt, func() {
		if p.OnWarning != nil {
			p.OnWarning(callID, warnAt, timeout)
		}
	})
}

func (p *Pipeline) emitValidation(ctx context.Context, call ToolCall, decision string) {
	if p.Auditor == nil {
		return
	}
	p.Auditor.Emit(ctx, audit.Event{
		Kind: audit.EventValidation, CallID: call.ID, Tool: call.Name,
		Timestamp: time.Now(), Decision: decision,
	})
}

func (p *Pipeline) emitLoopFlagged(ctx context.Context, call ToolCall, pattern loopdetect.Pattern, resp loopdetect.Response) {
	if p.Auditor == nil {
		return
	}
	p.Auditor.Emit(ctx, audit.Event{
		Kind: audit.EventLoopFlagged, CallID: call.ID, Tool: call.Name,
		Timestamp: time.Now(),
		Context:   map[string]interface{}{"pattern": string(pattern), "response": string(resp)},
	})
}

// canonicalArgs renders args as a deterministic string for hashing:
// encoding/json already sorts map[string]interface{} keys, so two
// semantically identical argument maps marshal identically regardless
// of insertion order.
func canonicalArgs(args map[string]interface{}) string {
	b, err := json.Marshal(args)
	if err != nil {
		return ""
	}
	return string(b)
}

func (p *Pipeline) emitOutcome(ctx context.Context, call ToolCall, res *result.Result, elapsed time.Duration) {
	if p.Auditor == nil {
		return
	}
	p.Auditor.Emit(ctx, audit.Event{
		Kind: audit.EventOutcome, CallID: call.ID, Tool: call.Name,
		Timestamp: time.Now(), ResultKind: string(res.Kind),
		DurationMS: elapsed.Milliseconds(),
	})
}

// emit is used for the three early-reject paths (rate limit, command
// not found, stored always_deny decision) which produce a single
// terminal Result without a prior validation pass; it still emits both
// a validation and outcome event so every call gets that pair, not
// just ones that reach an executor.
func (p *Pipeline) emit(ctx context.Context, call ToolCall, decision string, res *result.Result, elapsed time.Duration) {
	p.emitValidation(ctx, call, decision)
	p.emitOutcome(ctx, call, res, elapsed)
}
