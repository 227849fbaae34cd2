package pipeline

import (
	"context"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/vtcodehq/vtcode/internal/audit"
	"github.com/vtcodehq/vtcode/internal/concurrency"
	"github.com/vtcodehq/vtcode/internal/loopdetect"
	"github.com/vtcodehq/vtcode/internal/policystore"
	"github.com/vtcodehq/vtcode/internal/registry"
	"github.com/vtcodehq/vtcode/internal/result"
)

type sleepExecutor struct {
	name  string
	delay time.Duration
}

func (s sleepExecutor) Name() string                 { return s.name }
func (s sleepExecutor) Category() registry.Category { return registry.CategoryDefault }
func (s sleepExecutor) Execute(ctx context.Context, args map[string]interface{}) *result.Result {
	select {
	case <-time.After(s.delay):
		return result.NewSuccess("done", "done", 0)
	case <-ctx.Done():
		return result.NewTimeout("deadline exceeded", s.delay, s.delay)
	}
}

func newTestPipeline(t *testing.T) (*Pipeline, *registry.Registry) {
	t.Helper()
	reg := registry.New()
	store, err := policystore.Open(t.TempDir() + "/policy.json")
	if err != nil {
		t.Fatal(err)
	}
	p := New(reg,
		CategoryTimeouts{registry.CategoryDefault: 200 * time.Millisecond},
		0.8,
		rate.NewLimiter(rate.Inf, 1),
		loopdetect.NewDetector(100, 3),
		store,
		concurrency.New(4),
		audit.NewRecorder(),
	)
	return p, reg
}

func TestDispatchSuccess(t *testing.T) {
	p, reg := newTestPipeline(t)
	reg.Register(sleepExecutor{name: "fast", delay: 0})

	results := p.Dispatch(context.Background(), []ToolCall{{ID: "c1", Name: "fast"}})
	if results[0].Kind != result.KindSuccess {
		t.Fatalf("expected success, got %v", results[0].Kind)
	}
	if p.Auditor.CountFor("c1") != 2 {
		t.Fatalf("expected exactly 2 audit events, got %d", p.Auditor.CountFor("c1"))
	}
}

func TestDispatchTimeout(t *testing.T) {
	p, reg := newTestPipeline(t)
	reg.Register(sleepExecutor{name: "slow", delay: time.Second})

	results := p.Dispatch(context.Background(), []ToolCall{{ID: "c2", Name: "slow"}})
	if results[0].Kind != result.KindTimeout {
		t.Fatalf("expected timeout, got %v", results[0].Kind)
	}
}

func TestDispatchCommandNotFound(t *testing.T) {
	p, _ := newTestPipeline(t)
	results := p.Dispatch(context.Background(), []ToolCall{{ID: "c3", Name: "nope"}})
	if results[0].Kind != result.KindFailure || results[0].FailureKind != result.FailureCommandNotFound {
		t.Fatalf("expected command_not_found, got %+v", results[0])
	}
}

func TestDispatchDeniedByPolicyStore(t *testing.T) {
	p, reg := newTestPipeline(t)
	reg.Register(sleepExecutor{name: "denied", delay: 0})
	if err := p.PolicyStore.Set("denied", policystore.DecisionAlwaysDeny); err != nil {
		t.Fatal(err)
	}

	results := p.Dispatch(context.Background(), []ToolCall{{ID: "c4", Name: "denied"}})
	if results[0].Kind != result.KindFailure || results[0].FailureKind != result.FailurePolicyRejection {
		t.Fatalf("expected policy_rejection, got %+v", results[0])
	}
}

func TestDispatchCancelsOnLoopDetection(t *testing.T) {
	p, reg := newTestPipeline(t)
	reg.Register(sleepExecutor{name: "grep_file", delay: 0})

	var sawTool string
	var sawPattern loopdetect.Pattern
	p.OnLoopDetected = func(toolName string, pattern loopdetect.Pattern) loopdetect.Response {
		sawTool, sawPattern = toolName, pattern
		return loopdetect.ResponseCancel
	}

	call := ToolCall{Name: "grep_file", Args: map[string]interface{}{"pattern": "x"}}
	var last *result.Result
	for i := 0; i < 3; i++ {
		c := call
		c.ID = "loop"
		last = p.Dispatch(context.Background(), []ToolCall{c})[0]
	}

	if last.Kind != result.KindCancelled {
		t.Fatalf("expected the third repeated call to be cancelled, got %v", last.Kind)
	}
	if sawTool != "grep_file" {
		t.Fatalf("expected OnLoopDetected to fire for grep_file, got %q", sawTool)
	}
	if sawPattern != loopdetect.PatternExactRepeat {
		t.Fatalf("expected exact_repeat pattern, got %v", sawPattern)
	}
}

func TestDispatchResetSignatureAllowsExecution(t *testing.T) {
	p, reg := newTestPipeline(t)
	reg.Register(sleepExecutor{name: "grep_file", delay: 0})
	p.OnLoopDetected = func(string, loopdetect.Pattern) loopdetect.Response {
		return loopdetect.ResponseResetSignature
	}

	call := ToolCall{Name: "grep_file", Args: map[string]interface{}{"pattern": "x"}}
	var last *result.Result
	for i := 0; i < 3; i++ {
		c := call
		c.ID = "loop-reset"
		last = p.Dispatch(context.Background(), []ToolCall{c})[0]
	}

	if last.Kind != result.KindSuccess {
		t.Fatalf("expected reset_this_signature to let the call execute, got %v", last.Kind)
	}
}

func TestDispatchBatchRunsConcurrently(t *testing.T) {
	p, reg := newTestPipeline(t)
	reg.Register(sleepExecutor{name: "a", delay: 50 * time.Millisecond})
	reg.Register(sleepExecutor{name: "b", delay: 50 * time.Millisecond})

	start := time.Now()
	results := p.Dispatch(context.Background(), []ToolCall{{ID: "c5", Name: "a"}, {ID: "c6", Name: "b"}})
	elapsed := time.Since(start)

	if elapsed > 150*time.Millisecond {
		t.Fatalf("expected concurrent dispatch, took %v", elapsed)
	}
	for _, r := range results {
		if r.Kind != result.KindSuccess {
			t.Fatalf("expected success, got %v", r.Kind)
		}
	}
}
