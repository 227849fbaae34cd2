package tools

import (
	"context"
	"fmt"
	"os"

	"github.com/vtcodehq/vtcode/internal/pathguard"
	"github.com/vtcodehq/vtcode/internal/registry"
	"github.com/vtcodehq/vtcode/internal/result"
)

var readFileSchema = mustSchemaDoc(`{
	"type": "object",
	"properties": {"path": {"type": "string", "minLength": 1}},
	"required": ["path"]
}`)

var writeFileSchema = mustSchemaDoc(`{
	"type": "object",
	"properties": {
		"path": {"type": "string", "minLength": 1},
		"content": {"type": "string"}
	},
	"required": ["path", "content"]
}`)

// ReadFileTool reads one file's contents, with every path resolved
// through a pathguard.Guard first.
type ReadFileTool struct {
	Guard  *pathguard.Guard
	Schema *ArgSchema
}

// NewReadFileTool builds a ReadFileTool bound to guard.
func NewReadFileTool(guard *pathguard.Guard) *ReadFileTool {
	schema, err := CompileArgSchema("read_file", readFileSchema)
	if err != nil {
		panic(err) // schema literal is fixed at compile time
	}
	return &ReadFileTool{Guard: guard, Schema: schema}
}

func (t *ReadFileTool) Name() string                 { return "read_file" }
func (t *ReadFileTool) Category() registry.Category { return registry.CategoryDefault }

func (t *ReadFileTool) Execute(ctx context.Context, args map[string]interface{}) *result.Result {
	if err := t.Schema.Validate(args); err != nil {
		return result.NewFailure(result.FailureValidationError, err.Error(), err)
	}
	path, _ := args["path"].(string)

	resolved, err := t.Guard.Resolve(path)
	if err != nil {
		return result.NewFailure(result.FailureWorkspaceViolation, err.Error(), err).
			WithContext("path", path)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if os.IsPermission(err) {
			return result.NewFailure(result.FailurePermissionDenied, err.Error(), err)
		}
		return result.NewFailure(result.FailureExecutorFailure, err.Error(), err)
	}
	return result.NewSuccess(string(data), fmt.Sprintf("read %d bytes from %s", len(data), path), 0)
}

// WriteFileTool writes file contents under the workspace write lock,
// with every path resolved through a pathguard.Guard first.
type WriteFileTool struct {
	Guard  *pathguard.Guard
	Schema *ArgSchema

	// WithWriteLock, if set, serializes this write against every other
	// workspace-mutating tool (concurrency.Controller.WithWorkspaceWriteLock).
	WithWriteLock func(func())
}

// NewWriteFileTool builds a WriteFileTool bound to guard and withLock.
func NewWriteFileTool(guard *pathguard.Guard, withLock func(func())) *WriteFileTool {
	schema, err := CompileArgSchema("write_file", writeFileSchema)
	if err != nil {
		panic(err)
	}
	return &WriteFileTool{Guard: guard, Schema: schema, WithWriteLock: withLock}
}

func (t *WriteFileTool) Name() string                 { return "write_file" }
func (t *WriteFileTool) Category() registry.Category { return registry.CategoryDefault }

func (t *WriteFileTool) Execute(ctx context.Context, args map[string]interface{}) *result.Result {
	if err := t.Schema.Validate(args); err != nil {
		return result.NewFailure(result.FailureValidationError, err.Error(), err)
	}
	path, _ := args["path"].(string)
	content, _ := args["content"].(string)

	resolved, err := t.Guard.Resolve(path)
	if err != nil {
		return result.NewFailure(result.FailureWorkspaceViolation, err.Error(), err).
			WithContext("path", path)
	}

	var writeErr error
	run := func() { writeErr = os.WriteFile(resolved, []byte(content), 0o644) }
	if t.WithWriteLock != nil {
		t.WithWriteLock(run)
	} else {
		run()
	}

	if writeErr != nil {
		if os.IsPermission(writeErr) {
			return result.NewFailure(result.FailurePermissionDenied, writeErr.Error(), writeErr)
		}
		return result.NewFailure(result.FailureExecutorFailure, writeErr.Error(), writeErr)
	}
	return result.NewSuccess(
		fmt.Sprintf("wrote %d bytes", len(content)),
		fmt.Sprintf("wrote %d bytes to %s", len(content), path), 0)
}
