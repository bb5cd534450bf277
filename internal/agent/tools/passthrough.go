package tools

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/reachloop/reachbot/internal/automation"
	"github.com/reachloop/reachbot/internal/fault"
)

// proxyDenialReason is returned verbatim whenever the generic proxy refuses a
// call, regardless of which guard tripped.
const proxyDenialReason = "tool is not allow-listed for proxy invocation"

// NavigateTool drives the browser to a URL via the automation server.
type NavigateTool struct {
	client *automation.Client
}

type navigateInput struct {
	URL string `json:"url"`
}

func NewNavigateTool(client *automation.Client) *NavigateTool {
	return &NavigateTool{client: client}
}

func (t *NavigateTool) Name() string { return automation.ToolNavigate }

func (t *NavigateTool) Description() string {
	return "Navigate the shared browser session to a URL."
}

func (t *NavigateTool) Schema() map[string]any {
	return objectSchema(map[string]any{
		"url": map[string]any{"type": "string", "description": "Absolute URL to open"},
	})
}

func (t *NavigateTool) Execute(ctx context.Context, input json.RawMessage) (any, error) {
	var in navigateInput
	if err := decodeStrict(input, &in); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.URL) == "" {
		return nil, fault.New(fault.InvalidArguments, "url must not be empty")
	}
	if err := t.client.Navigate(ctx, in.URL); err != nil {
		return nil, err
	}
	return map[string]any{"ok": true, "url": in.URL}, nil
}

// SnapshotTool returns a structured accessibility snapshot of the current
// page. The agent uses it to propose new selector candidates after a
// structural failure.
type SnapshotTool struct {
	client *automation.Client
}

func NewSnapshotTool(client *automation.Client) *SnapshotTool {
	return &SnapshotTool{client: client}
}

func (t *SnapshotTool) Name() string { return automation.ToolSnapshot }

func (t *SnapshotTool) Description() string {
	return "Capture a structured snapshot of the current page for inspecting its element structure."
}

func (t *SnapshotTool) Schema() map[string]any {
	return objectSchema(map[string]any{})
}

func (t *SnapshotTool) Execute(ctx context.Context, input json.RawMessage) (any, error) {
	var in struct{}
	if err := decodeStrict(input, &in); err != nil {
		return nil, err
	}
	snapshot, err := t.client.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{"ok": true, "snapshot": snapshot}, nil
}

// RunCodeTool executes a script in the page context. Script failures carry the
// remote diagnostic verbatim.
type RunCodeTool struct {
	client *automation.Client
}

type runCodeInput struct {
	Code string `json:"code"`
}

func NewRunCodeTool(client *automation.Client) *RunCodeTool {
	return &RunCodeTool{client: client}
}

func (t *RunCodeTool) Name() string { return automation.ToolRunCode }

func (t *RunCodeTool) Description() string {
	return "Run a script in the current page and return its output."
}

func (t *RunCodeTool) Schema() map[string]any {
	return objectSchema(map[string]any{
		"code": map[string]any{"type": "string", "description": "Script source to execute"},
	})
}

func (t *RunCodeTool) Execute(ctx context.Context, input json.RawMessage) (any, error) {
	var in runCodeInput
	if err := decodeStrict(input, &in); err != nil {
		return nil, err
	}
	if in.Code == "" {
		return nil, fault.New(fault.InvalidArguments, "code must not be empty")
	}
	output, err := t.client.RunCode(ctx, in.Code)
	if err != nil {
		return nil, err
	}
	return map[string]any{"ok": true, "output": output}, nil
}

// ListToolsTool enumerates the operations the automation server currently
// advertises.
type ListToolsTool struct {
	client *automation.Client
}

func NewListToolsTool(client *automation.Client) *ListToolsTool {
	return &ListToolsTool{client: client}
}

func (t *ListToolsTool) Name() string { return "list_mcp_tools" }

func (t *ListToolsTool) Description() string {
	return "List the tools the automation server currently advertises."
}

func (t *ListToolsTool) Schema() map[string]any {
	return objectSchema(map[string]any{})
}

func (t *ListToolsTool) Execute(ctx context.Context, input json.RawMessage) (any, error) {
	var in struct{}
	if err := decodeStrict(input, &in); err != nil {
		return nil, err
	}
	remote, err := t.client.ListTools(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]map[string]string, 0, len(remote))
	for _, rt := range remote {
		names = append(names, map[string]string{
			"name":        rt.Name,
			"description": rt.Description,
		})
	}
	return map[string]any{"ok": true, "tools": names}, nil
}

// ProxyTool forwards an arbitrary call to the automation server, guarded by a
// capability allow-list: the name must carry the automation namespace prefix
// and must appear in the server's live tool enumeration. A refused call never
// reaches the server.
type ProxyTool struct {
	client *automation.Client
}

type proxyInput struct {
	Tool     string `json:"tool"`
	ArgsJSON string `json:"args_json"`
}

func NewProxyTool(client *automation.Client) *ProxyTool {
	return &ProxyTool{client: client}
}

func (t *ProxyTool) Name() string { return "pw_call" }

func (t *ProxyTool) Description() string {
	return "Call an allow-listed automation server tool by name with a JSON argument object."
}

func (t *ProxyTool) Schema() map[string]any {
	return objectSchema(map[string]any{
		"tool": map[string]any{
			"type":        "string",
			"description": "Remote tool name; must be advertised by the automation server",
		},
		"args_json": map[string]any{
			"type":        "string",
			"description": "JSON object with the remote tool's arguments",
		},
	})
}

func (t *ProxyTool) Execute(ctx context.Context, input json.RawMessage) (any, error) {
	var in proxyInput
	if err := decodeStrict(input, &in); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(in.Tool, automation.ToolNamespace) {
		return nil, fault.New(fault.InvalidArguments, proxyDenialReason)
	}

	remote, err := t.client.ListTools(ctx)
	if err != nil {
		return nil, err
	}
	advertised := false
	for _, rt := range remote {
		if rt.Name == in.Tool {
			advertised = true
			break
		}
	}
	if !advertised {
		return nil, fault.New(fault.InvalidArguments, proxyDenialReason)
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(in.ArgsJSON), &args); err != nil {
		return nil, fault.New(fault.InvalidArguments, "args_json must be a JSON object: %v", err)
	}

	res, err := t.client.Call(ctx, in.Tool, args)
	if err != nil {
		return nil, err
	}
	if res.IsError {
		return nil, fault.New(fault.Unknown, "%s", res.Text)
	}
	return map[string]any{"ok": true, "result": res.Text}, nil
}
