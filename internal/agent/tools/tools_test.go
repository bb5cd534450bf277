package tools

import (
	"context"
	"encoding/json"
	"sort"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/reachloop/reachbot/internal/automation"
	"github.com/reachloop/reachbot/internal/cascade"
	"github.com/reachloop/reachbot/internal/screenshot"
	"github.com/reachloop/reachbot/internal/selectors"
)

var testImpl = &mcp.Implementation{Name: "reachbot-test", Version: "0.1.0"}

// testAutomation starts an in-memory automation server with the given
// handlers and returns a connected client.
func testAutomation(t *testing.T, handlers map[string]mcp.ToolHandler) *automation.Client {
	t.Helper()

	srv := mcp.NewServer(testImpl, nil)
	for name, handler := range handlers {
		srv.AddTool(&mcp.Tool{
			Name:        name,
			Description: "test tool " + name,
			InputSchema: map[string]any{"type": "object"},
		}, handler)
	}

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = srv.Run(ctx, serverT) }()

	mcpClient := mcp.NewClient(testImpl, nil)
	session, err := mcpClient.Connect(ctx, clientT, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })

	c := automation.NewClient("mem://test")
	c.UseSession(session)
	return c
}

func dispatch(t *testing.T, r *Registry, name, args string) map[string]any {
	t.Helper()
	out := r.Dispatch(context.Background(), name, json.RawMessage(args))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded), "result must be well-formed JSON: %s", out)
	return decoded
}

func hintsRegistry() *Registry {
	store := selectors.NewStore(nil)
	r := NewRegistry()
	r.Register(NewGetHintsTool(store))
	r.Register(NewSaveHintsTool(store))
	return r
}

func TestDispatchUnknownTool(t *testing.T) {
	res := dispatch(t, hintsRegistry(), "no_such_tool", `{}`)
	require.Equal(t, false, res["ok"])
	require.Equal(t, "INVALID_ARGUMENTS", res["code"])
}

func TestUndeclaredPropertyIsValidationFailure(t *testing.T) {
	res := dispatch(t, hintsRegistry(), "get_selector_hints",
		`{"feature":"message_cta","bogus":1}`)
	require.Equal(t, false, res["ok"])
	require.Equal(t, "INVALID_ARGUMENTS", res["code"])
}

func TestNonStringSelectorEntryIsValidationFailure(t *testing.T) {
	res := dispatch(t, hintsRegistry(), "save_selector_hints",
		`{"feature":"message_cta","selectors":["button.x",7],"reason":"drift"}`)
	require.Equal(t, false, res["ok"])
	require.Equal(t, "INVALID_ARGUMENTS", res["code"])
}

func TestSaveAndGetHintsRoundTrip(t *testing.T) {
	r := hintsRegistry()

	res := dispatch(t, r, "save_selector_hints",
		`{"feature":"message_cta","selectors":["button.learned"],"reason":"drift"}`)
	require.Equal(t, true, res["ok"])
	require.Equal(t, true, res["saved"])

	res = dispatch(t, r, "get_selector_hints", `{"feature":"message_cta"}`)
	require.Equal(t, true, res["ok"])
	got := res["selectors"].([]any)
	require.NotEmpty(t, got)
	require.Equal(t, "button.learned", got[0], "learned candidates order before seeds")
}

func TestSaveHintsSanitizedToNothingIsNoOp(t *testing.T) {
	r := hintsRegistry()
	res := dispatch(t, r, "save_selector_hints",
		`{"feature":"message_cta","selectors":["   "],"reason":"noise"}`)
	require.Equal(t, true, res["ok"])
	require.Equal(t, false, res["saved"])
}

func TestProxyRefusesOutsideNamespace(t *testing.T) {
	called := false
	client := testAutomation(t, map[string]mcp.ToolHandler{
		"other_thing": func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			called = true
			return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: "ran"}}}, nil
		},
	})

	r := NewRegistry()
	r.Register(NewProxyTool(client))
	res := dispatch(t, r, "pw_call", `{"tool":"other_thing","args_json":"{}"}`)

	require.Equal(t, false, res["ok"])
	require.Equal(t, "INVALID_ARGUMENTS", res["code"])
	require.Equal(t, proxyDenialReason, res["error"])
	require.False(t, called, "refused call must not reach the server")
}

func TestProxyRefusesUnadvertisedTool(t *testing.T) {
	client := testAutomation(t, map[string]mcp.ToolHandler{
		automation.ToolNavigate: func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: "ok"}}}, nil
		},
	})

	r := NewRegistry()
	r.Register(NewProxyTool(client))
	res := dispatch(t, r, "pw_call", `{"tool":"pw_missing","args_json":"{}"}`)

	require.Equal(t, false, res["ok"])
	require.Equal(t, proxyDenialReason, res["error"])
}

func TestProxyForwardsAllowListedCall(t *testing.T) {
	client := testAutomation(t, map[string]mcp.ToolHandler{
		automation.ToolClick: func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: "clicked"}}}, nil
		},
	})

	r := NewRegistry()
	r.Register(NewProxyTool(client))
	res := dispatch(t, r, "pw_call", `{"tool":"`+automation.ToolClick+`","args_json":"{\"ref\":\"e1\"}"}`)

	require.Equal(t, true, res["ok"])
	require.Equal(t, "clicked", res["result"])
}

// emptyDOM answers every query with no matches.
type emptyDOM struct{}

func (emptyDOM) Navigate(ctx context.Context, url string) error { return nil }
func (emptyDOM) QueryAll(ctx context.Context, q cascade.Query) ([]cascade.Element, error) {
	return nil, nil
}
func (emptyDOM) Click(ctx context.Context, ref string) error { return nil }

func TestReadChatSurfacesStructuralCode(t *testing.T) {
	engine := cascade.New(emptyDOM{}, selectors.NewStore(nil), cascade.Config{
		Settle:     time.Millisecond,
		PollBudget: time.Millisecond,
		PollEvery:  time.Millisecond,
	})

	r := NewRegistry()
	r.Register(NewReadChatTool(engine))
	res := dispatch(t, r, "attempt_read_chat",
		`{"profileUrl":"https://example/in/alice","limit":3,"threadHint":""}`)

	require.Equal(t, false, res["ok"])
	require.Equal(t, "CTA_NOT_FOUND", res["code"])
	require.Equal(t, true, res["structural"], "structural codes invite a self-heal cycle")
}

func TestReadChatRejectsOutOfRangeLimit(t *testing.T) {
	engine := cascade.New(emptyDOM{}, selectors.NewStore(nil), cascade.Config{
		Settle:     time.Millisecond,
		PollBudget: time.Millisecond,
		PollEvery:  time.Millisecond,
	})

	r := NewRegistry()
	r.Register(NewReadChatTool(engine))
	res := dispatch(t, r, "attempt_read_chat",
		`{"profileUrl":"https://example/in/alice","limit":0,"threadHint":""}`)

	require.Equal(t, false, res["ok"])
	require.Equal(t, "INVALID_ARGUMENTS", res["code"])
	require.Equal(t, false, res["structural"], "argument failures are not recoverable by self-heal")
}

func TestCatalogOrderAndCompleteness(t *testing.T) {
	client := testAutomation(t, nil)
	engine := cascade.New(emptyDOM{}, selectors.NewStore(nil), cascade.Config{})
	r := NewCatalog(engine, client, screenshot.NewClient("http://localhost:0"), selectors.NewStore(nil))

	defs := r.Definitions()
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name
	}
	require.Equal(t, []string{
		"attempt_read_chat",
		"pw_navigate",
		"pw_snapshot",
		"pw_run_code",
		"get_screenshot",
		"list_mcp_tools",
		"pw_call",
		"get_selector_hints",
		"save_selector_hints",
	}, names)

	for _, d := range defs {
		require.Equal(t, false, d.Parameters["additionalProperties"], "%s schema must be strict", d.Name)

		props := d.Parameters["properties"].(map[string]any)
		required := d.Parameters["required"].([]string)
		require.Len(t, required, len(props), "%s must require every property", d.Name)
		require.True(t, sort.StringsAreSorted(required), "%s required list must be stable: %v", d.Name, required)
	}

	readChat := defs[0].Parameters["properties"].(map[string]any)
	require.Contains(t, readChat, "threadHint", "threadHint stays part of the declared contract")
}
