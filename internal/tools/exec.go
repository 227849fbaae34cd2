package tools

import (
	"context"
	"fmt"
	"time"

	shellwords "github.com/mattn/go-shellwords"

	"github.com/vtcodehq/vtcode/internal/argvalidate"
	"github.com/vtcodehq/vtcode/internal/concurrency"
	"github.com/vtcodehq/vtcode/internal/ptyrun"
	"github.com/vtcodehq/vtcode/internal/registry"
	"github.com/vtcodehq/vtcode/internal/result"
)

var execSchema = mustSchemaDoc(`{
	"type": "object",
	"properties": {"command": {"type": "string", "minLength": 1}},
	"required": ["command"]
}`)

// ExecTool runs a shell command line under a real PTY, after
// argvalidate rejects deny-pattern matches and before the command
// consumes a bounded PTY slot from the Concurrency Controller.
type ExecTool struct {
	Validator  *argvalidate.Validator
	Runner     *ptyrun.Runner
	Controller *concurrency.Controller
	Workspace  string
	Timeout    time.Duration
	Schema     *ArgSchema
}

// NewExecTool builds an ExecTool bound to its collaborators. timeout is
// the PTY category timeout (spec.md §3 default 300s); the Tool
// Pipeline additionally applies it as the ctx deadline, so Runner.Run
// treats it as an upper bound that is never looser than the caller's.
func NewExecTool(validator *argvalidate.Validator, runner *ptyrun.Runner, controller *concurrency.Controller, workspace string, timeout time.Duration) *ExecTool {
	schema, err := CompileArgSchema("exec", execSchema)
	if err != nil {
		panic(err)
	}
	return &ExecTool{Validator: validator, Runner: runner, Controller: controller, Workspace: workspace, Timeout: timeout, Schema: schema}
}

func (t *ExecTool) Name() string                 { return "exec" }
func (t *ExecTool) Category() registry.Category { return registry.CategoryPTY }

func (t *ExecTool) Execute(ctx context.Context, args map[string]interface{}) *result.Result {
	if err := t.Schema.Validate(args); err != nil {
		return result.NewFailure(result.FailureValidationError, err.Error(), err)
	}
	command, _ := args["command"].(string)

	if verdict, reason := t.Validator.ValidateCommandLine(command); verdict == argvalidate.VerdictDeny {
		return result.NewFailure(result.FailureArgumentInjection, reason, nil).WithContext("command", command)
	}

	argv, err := shellwords.Parse(command)
	if err != nil {
		return result.NewFailure(result.FailureArgumentInjection, "unable to parse command line: "+err.Error(), err).WithContext("command", command)
	}
	if len(argv) > 0 {
		verdict, reason := t.Validator.ValidateArgv(argv[0], argv[1:])
		if verdict == argvalidate.VerdictDeny {
			// git's tiered subcommand policy is a standing policy
			// decision, not an injection attempt, so it surfaces as
			// PolicyRejection; every other per-program rule (denied
			// flags, allowlists, metacharacters in a structured arg)
			// reflects an attempted injection.
			failureKind := result.FailureArgumentInjection
			if argv[0] == "git" {
				failureKind = result.FailurePolicyRejection
			}
			return result.NewFailure(failureKind, reason, nil).WithContext("command", command).WithContext("program", argv[0])
		}
	}

	if t.Controller != nil {
		if err := t.Controller.AcquirePTYSlot(ctx); err != nil {
			return result.NewFailure(result.FailureExecutorFailure, "no PTY slot available: "+err.Error(), err)
		}
		defer t.Controller.ReleasePTYSlot()
	}

	outcome, err := t.Runner.Run(ctx, t.Workspace, command, t.Timeout, nil)
	if err != nil {
		return result.NewFailure(result.FailureExecutorFailure, err.Error(), err)
	}

	if outcome.TimedOut {
		return result.NewTimeout("command timed out", outcome.Duration, t.Timeout)
	}
	if outcome.Cancelled {
		return result.NewCancelled("command was cancelled")
	}

	code := outcome.ExitCode
	body := outcome.Scrollback.String()
	res := result.NewSuccess(body, fmt.Sprintf("exit %d", code), code)
	if code != 0 {
		res = result.NewFailure(result.FailureExecutorFailure, body, nil).WithContext("exitCode", code)
		res.ExitCode = &code
	}
	return res
}
