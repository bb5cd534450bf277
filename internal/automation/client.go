// Package automation is the client side of the external browser-automation
// MCP server. The core never runs a browser itself; every DOM operation is a
// tool call against this server.
package automation

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/reachloop/reachbot/internal/fault"
	"github.com/reachloop/reachbot/internal/logging"
)

// Remote tool names the client assumes the server supports. Anything beyond
// these must pass the dispatcher's capability allow-list.
const (
	ToolNavigate = "pw_navigate"
	ToolSnapshot = "pw_snapshot"
	ToolRunCode  = "pw_run_code"
	ToolQuery    = "pw_query"
	ToolClick    = "pw_click"
)

// ToolNamespace is the required name prefix for proxied remote calls.
const ToolNamespace = "pw_"

// CallResult is the text payload of one remote tool execution.
type CallResult struct {
	Text    string
	IsError bool
}

// Client maintains one MCP session against the automation server. The session
// carries a single mutable browser state, which is why callers must serialize
// tool execution.
type Client struct {
	endpoint string
	http     *http.Client
	log      logging.Logger

	mu      sync.Mutex
	session *mcp.ClientSession
}

// NewClient creates a client for the automation server at endpoint. The
// session is established lazily on first use.
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 60 * time.Second},
		log:      logging.Component("automation"),
	}
}

// connect returns the live session, dialing if needed.
func (c *Client) connect(ctx context.Context) (*mcp.ClientSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		return c.session, nil
	}

	transport := &mcp.StreamableClientTransport{
		Endpoint:   c.endpoint,
		HTTPClient: c.http,
	}
	client := mcp.NewClient(&mcp.Implementation{
		Name:    "reachbot",
		Version: "1.0.0",
	}, &mcp.ClientOptions{KeepAlive: 30 * time.Second})

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("connect automation server: %w", err)
	}
	c.session = session
	c.log.Infof("session established at %s", c.endpoint)

	// Drop the cached session when the server side goes away so the next
	// call redials instead of failing forever.
	go func() {
		_ = session.Wait()
		c.mu.Lock()
		if c.session == session {
			c.session = nil
		}
		c.mu.Unlock()
		c.log.Warnf("session closed")
	}()

	return session, nil
}

// UseSession installs an already-connected session (tests use in-memory
// transports).
func (c *Client) UseSession(session *mcp.ClientSession) {
	c.mu.Lock()
	c.session = session
	c.mu.Unlock()
}

// Close tears down the session if one is live.
func (c *Client) Close() {
	c.mu.Lock()
	session := c.session
	c.session = nil
	c.mu.Unlock()
	if session != nil {
		session.Close()
	}
}

// ListTools returns the server's current tool advertisement.
func (c *Client) ListTools(ctx context.Context) ([]*mcp.Tool, error) {
	session, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	result, err := session.ListTools(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}
	return result.Tools, nil
}

// Call executes one remote tool and flattens its text content. A server-side
// IsError is reported on the result, not as a Go error, so callers can map it
// into the taxonomy for their operation.
func (c *Client) Call(ctx context.Context, name string, args map[string]any) (*CallResult, error) {
	session, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		// The session may be stale; drop it so the next call redials.
		c.mu.Lock()
		if c.session == session {
			c.session = nil
		}
		c.mu.Unlock()
		return nil, fmt.Errorf("call %s: %w", name, err)
	}

	var sb strings.Builder
	for _, part := range result.Content {
		if tc, ok := part.(*mcp.TextContent); ok && tc.Text != "" {
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(tc.Text)
		}
	}
	return &CallResult{Text: sb.String(), IsError: result.IsError}, nil
}

// Navigate points the shared browser session at url.
func (c *Client) Navigate(ctx context.Context, url string) error {
	res, err := c.Call(ctx, ToolNavigate, map[string]any{"url": url})
	if err != nil {
		return err
	}
	if res.IsError {
		return fault.New(fault.Unknown, "navigate failed: %s", res.Text)
	}
	return nil
}

// Snapshot returns the structured accessibility snapshot of the current page.
func (c *Client) Snapshot(ctx context.Context) (string, error) {
	res, err := c.Call(ctx, ToolSnapshot, map[string]any{})
	if err != nil {
		return "", err
	}
	if res.IsError {
		return "", fault.New(fault.Unknown, "snapshot failed: %s", res.Text)
	}
	return res.Text, nil
}

// RunCode executes a script in the remote page context. Remote failures carry
// the server's diagnostic text verbatim under MCP_RUN_CODE_ERROR.
func (c *Client) RunCode(ctx context.Context, code string) (string, error) {
	res, err := c.Call(ctx, ToolRunCode, map[string]any{"code": code})
	if err != nil {
		return "", err
	}
	if res.IsError {
		return "", fault.New(fault.MCPRunCodeError, "%s", res.Text)
	}
	return res.Text, nil
}
