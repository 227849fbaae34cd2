package registry

import (
	"context"
	"testing"

	"github.com/vtcodehq/vtcode/internal/result"
)

type stubExecutor struct {
	name string
}

func (s stubExecutor) Name() string       { return s.name }
func (s stubExecutor) Category() Category { return CategoryDefault }
func (s stubExecutor) Execute(ctx context.Context, args map[string]interface{}) *result.Result {
	return result.NewSuccess("ok", "ok", 0)
}

func TestRegistryAliasResolution(t *testing.T) {
	r := New()
	r.Register(stubExecutor{name: "exec"})
	r.Alias("bash", "exec")

	res := r.Execute(context.Background(), "bash", nil)
	if res.Kind != result.KindSuccess {
		t.Fatalf("expected alias to resolve to registered tool, got %v", res.Kind)
	}
}

func TestRegistryExecuteUnknownToolIsCommandNotFound(t *testing.T) {
	r := New()
	res := r.Execute(context.Background(), "nope", nil)
	if res.Kind != result.KindFailure || res.FailureKind != result.FailureCommandNotFound {
		t.Fatalf("expected command_not_found failure, got %+v", res)
	}
}

func TestRegistryGroups(t *testing.T) {
	r := New()
	r.RegisterGroup("fs", []string{"read_file", "write_file"})
	if got := r.Group("fs"); len(got) != 2 {
		t.Fatalf("expected 2 group members, got %v", got)
	}
	r.UnregisterGroup("fs")
	if got := r.Group("fs"); got != nil {
		t.Fatalf("expected group to be gone, got %v", got)
	}
}
