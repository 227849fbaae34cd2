package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vtcodehq/vtcode/internal/registry"
	"github.com/vtcodehq/vtcode/internal/result"
	"github.com/vtcodehq/vtcode/internal/urlguard"
)

var webFetchSchema = mustSchemaDoc(`{
	"type": "object",
	"properties": {"url": {"type": "string", "minLength": 1}},
	"required": ["url"]
}`)

// maxWebFetchBody bounds how much of a response body is read into an
// ExecutionResult, independent of the scrollback caps that bound PTY
// output — an OutputOverflow failure past this point protects the
// tool pipeline from an unbounded download, not a terminal renderer.
const maxWebFetchBody = 2 * 1024 * 1024

// WebFetchTool performs an HTTPS GET validated by a urlguard.Guard on
// the initial URL and on every redirect hop.
type WebFetchTool struct {
	Guard   *urlguard.Guard
	Client  *http.Client
	Schema  *ArgSchema
}

// NewWebFetchTool builds a WebFetchTool bound to guard, with a client
// timeout matching config.URLGuardConfig.RequestTimeoutSec.
func NewWebFetchTool(guard *urlguard.Guard, requestTimeout time.Duration) *WebFetchTool {
	schema, err := CompileArgSchema("web_fetch", webFetchSchema)
	if err != nil {
		panic(err)
	}
	client := &http.Client{
		Timeout:       requestTimeout,
		CheckRedirect: guard.RedirectPolicy(),
	}
	return &WebFetchTool{Guard: guard, Client: client, Schema: schema}
}

func (t *WebFetchTool) Name() string                 { return "web_fetch" }
func (t *WebFetchTool) Category() registry.Category { return registry.CategoryDefault }

func (t *WebFetchTool) Execute(ctx context.Context, args map[string]interface{}) *result.Result {
	if err := t.Schema.Validate(args); err != nil {
		return result.NewFailure(result.FailureValidationError, err.Error(), err)
	}
	rawURL, _ := args["url"].(string)

	if err := t.Guard.CheckURL(ctx, rawURL); err != nil {
		return result.NewFailure(result.FailureNetworkBlocked, err.Error(), err).WithContext("url", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return result.NewFailure(result.FailureValidationError, err.Error(), err)
	}

	resp, err := t.Client.Do(req)
	if err != nil {
		return result.NewFailure(result.FailureNetworkBlocked, err.Error(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxWebFetchBody+1))
	if err != nil {
		return result.NewFailure(result.FailureExecutorFailure, err.Error(), err)
	}
	if len(body) > maxWebFetchBody {
		return result.NewFailure(result.FailureOutputOverflow,
			fmt.Sprintf("response exceeds %d byte cap", maxWebFetchBody), nil)
	}

	return result.NewSuccess(string(body), fmt.Sprintf("fetched %d bytes (HTTP %d)", len(body), resp.StatusCode), 0)
}
