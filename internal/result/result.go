// Package result defines the ExecutionResult tagged union returned by
// every tool executor in the pipeline.
package result

import "time"

// Kind discriminates the ExecutionResult variants (spec.md §3).
type Kind string

const (
	KindSuccess   Kind = "success"
	KindFailure   Kind = "failure"
	KindTimeout   Kind = "timeout"
	KindCancelled Kind = "cancelled"
	KindProgress  Kind = "progress"
)

// FailureKind classifies why a Failure result occurred.
type FailureKind string

const (
	FailureCommandNotFound   FailureKind = "command_not_found"
	FailurePermissionDenied  FailureKind = "permission_denied"
	FailureWorkspaceViolation FailureKind = "workspace_violation"
	FailurePolicyRejection   FailureKind = "policy_rejection"
	FailureArgumentInjection FailureKind = "argument_injection"
	FailureNetworkBlocked    FailureKind = "network_blocked"
	FailureOutputOverflow    FailureKind = "output_overflow"
	FailureValidationError   FailureKind = "validation_error"
	FailureExecutorFailure   FailureKind = "executor_failure"
)

// Result is the tagged union ExecutionResult. Exactly one of the
// kind-specific fields is meaningful at a time, selected by Kind.
//
// Callers inspect Kind before reading ForLLM/ForUser/ExitCode/etc, the
// same discipline the teacher's Result type uses with its IsError/Silent
// booleans, generalized to an explicit discriminant.
type Result struct {
	Kind Kind `json:"kind"`

	ForLLM  string `json:"forLLM,omitempty"`
	ForUser string `json:"forUser,omitempty"`

	// Failure-only fields.
	FailureKind FailureKind            `json:"failureKind,omitempty"`
	Context     map[string]interface{} `json:"context,omitempty"`
	Cause       error                  `json:"-"`

	// Timeout-only fields.
	ElapsedSeconds float64 `json:"elapsedSeconds,omitempty"`
	LimitSeconds   float64 `json:"limitSeconds,omitempty"`

	// PTY/process-only fields.
	ExitCode *int `json:"exitCode,omitempty"`

	// Progress-only field: a partial output chunk emitted before
	// completion, e.g. streamed PTY scrollback.
	ProgressChunk string `json:"progressChunk,omitempty"`

	Duration time.Duration `json:"-"`
}

// Error implements the error interface so a Failure Result can be
// returned/wrapped like any other Go error when convenient.
func (r *Result) Error() string {
	if r == nil {
		return ""
	}
	if r.Kind != KindFailure {
		return string(r.Kind)
	}
	if r.ForLLM != "" {
		return string(r.FailureKind) + ": " + r.ForLLM
	}
	return string(r.FailureKind)
}

func (r *Result) Unwrap() error { return r.Cause }

// IsTerminal reports whether Kind represents a final outcome (as opposed
// to Progress, which may be followed by further Results for the same call).
func (r *Result) IsTerminal() bool {
	return r.Kind != KindProgress
}

// NewSuccess builds a Success result.
func NewSuccess(forLLM, forUser string, exitCode int) *Result {
	code := exitCode
	return &Result{Kind: KindSuccess, ForLLM: forLLM, ForUser: forUser, ExitCode: &code}
}

// NewFailure builds a Failure result with structured context, mirroring
// the category/context shape used for StructuredError in the pack's
// documentation-MCP-server repo.
func NewFailure(kind FailureKind, forLLM string, cause error) *Result {
	return &Result{
		Kind:        KindFailure,
		FailureKind: kind,
		ForLLM:      forLLM,
		ForUser:     forLLM,
		Cause:       cause,
		Context:     make(map[string]interface{}),
	}
}

// WithContext attaches structured diagnostic context (which rule fired,
// which path was rejected, ...) to a Failure result.
func (r *Result) WithContext(key string, value interface{}) *Result {
	if r.Context == nil {
		r.Context = make(map[string]interface{})
	}
	r.Context[key] = value
	return r
}

// NewTimeout builds a Timeout result carrying both the elapsed duration
// and the configured limit it exceeded, so the message returned to the
// caller can be specific (spec.md §3 Timeout{elapsed, limit}).
func NewTimeout(forLLM string, elapsed, limit time.Duration) *Result {
	return &Result{
		Kind:           KindTimeout,
		ForLLM:         forLLM,
		ForUser:        forLLM,
		ElapsedSeconds: elapsed.Seconds(),
		LimitSeconds:   limit.Seconds(),
		Duration:       elapsed,
	}
}

// NewCancelled builds a Cancelled result.
func NewCancelled(forLLM string) *Result {
	return &Result{Kind: KindCancelled, ForLLM: forLLM, ForUser: forLLM}
}

// NewProgress builds a non-terminal Progress result carrying a partial
// output chunk (e.g. streamed PTY scrollback before the call completes).
func NewProgress(chunk string) *Result {
	return &Result{Kind: KindProgress, ProgressChunk: chunk}
}
