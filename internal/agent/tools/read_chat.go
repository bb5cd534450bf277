package tools

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/reachloop/reachbot/internal/cascade"
	"github.com/reachloop/reachbot/internal/fault"
)

// ReadChatTool runs the full conversation-extraction cascade for one profile.
// This is the preferred high-level path; the low-level pass-throughs exist for
// the self-heal flow when this one reports a structural failure.
type ReadChatTool struct {
	engine *cascade.Engine
}

type readChatInput struct {
	ProfileURL string `json:"profileUrl"`
	Limit      int    `json:"limit"`
	ThreadHint string `json:"threadHint"`
}

type readChatOutput struct {
	OK bool `json:"ok"`
	cascade.ReadResult
}

func NewReadChatTool(engine *cascade.Engine) *ReadChatTool {
	return &ReadChatTool{engine: engine}
}

func (t *ReadChatTool) Name() string { return "attempt_read_chat" }

func (t *ReadChatTool) Description() string {
	return "Open the conversation for a profile URL and return its most recent messages. " +
		"Try this first; on a structural failure code, fall back to snapshot inspection and selector repair."
}

func (t *ReadChatTool) Schema() map[string]any {
	return objectSchema(map[string]any{
		"profileUrl": map[string]any{
			"type":        "string",
			"description": "Absolute URL of the profile whose conversation to read",
		},
		"limit": map[string]any{
			"type":        "integer",
			"minimum":     1,
			"maximum":     100,
			"description": "Number of most recent messages to return",
		},
		"threadHint": map[string]any{
			"type":        "string",
			"description": "Optional free-text hint identifying the thread; empty string if none",
		},
	})
}

func (t *ReadChatTool) Execute(ctx context.Context, input json.RawMessage) (any, error) {
	var in readChatInput
	if err := decodeStrict(input, &in); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.ProfileURL) == "" {
		return nil, fault.New(fault.InvalidArguments, "profileUrl must not be empty")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return nil, fault.New(fault.InvalidArguments, "limit must be between 1 and 100")
	}

	// The thread hint is advisory context for the model; the cascade itself
	// resolves the conversation purely from selector knowledge and the DOM.
	res, err := t.engine.ReadConversation(ctx, cascade.ReadRequest{
		ProfileURL: in.ProfileURL,
		Limit:      in.Limit,
	})
	if err != nil {
		return nil, err
	}
	return readChatOutput{OK: true, ReadResult: *res}, nil
}
