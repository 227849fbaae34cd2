package tools

import (
	"context"
	"testing"
	"time"

	"github.com/vtcodehq/vtcode/internal/result"
	"github.com/vtcodehq/vtcode/internal/urlguard"
)

func TestWebFetchToolRejectsNonHTTPS(t *testing.T) {
	guard := urlguard.New(urlguard.ModeBlocklist, nil, nil, 3)
	tool := NewWebFetchTool(guard, 2*time.Second)

	res := tool.Execute(context.Background(), map[string]interface{}{"url": "http://example.com"})
	if res.Kind != result.KindFailure || res.FailureKind != result.FailureNetworkBlocked {
		t.Fatalf("expected network_blocked, got %+v", res)
	}
}

func TestWebFetchToolRejectsLoopback(t *testing.T) {
	guard := urlguard.New(urlguard.ModeBlocklist, nil, nil, 3)
	tool := NewWebFetchTool(guard, 2*time.Second)

	res := tool.Execute(context.Background(), map[string]interface{}{"url": "https://127.0.0.1/secret"})
	if res.Kind != result.KindFailure || res.FailureKind != result.FailureNetworkBlocked {
		t.Fatalf("expected network_blocked, got %+v", res)
	}
}

func TestWebFetchToolRejectsMissingURLArg(t *testing.T) {
	guard := urlguard.New(urlguard.ModeBlocklist, nil, nil, 3)
	tool := NewWebFetchTool(guard, 2*time.Second)

	res := tool.Execute(context.Background(), map[string]interface{}{})
	if res.Kind != result.KindFailure || res.FailureKind != result.FailureValidationError {
		t.Fatalf("expected validation_error, got %+v", res)
	}
}
