// Package orchestrator is the top-level entry point: it turns a caller's
// high-level action into agent task instructions, runs the agent loop, and
// shapes the final output.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/reachloop/reachbot/internal/agent/runner"
	"github.com/reachloop/reachbot/internal/fault"
	"github.com/reachloop/reachbot/internal/logging"
)

// Action is one of the supported high-level operations.
type Action string

const (
	ActionReadChat       Action = "read_chat"
	ActionSendMessage    Action = "send_message"
	ActionSendConnection Action = "send_connection"
)

// Request is one inbound action invocation.
type Request struct {
	Action     Action `json:"action"`
	ProfileURL string `json:"profileUrl"`
	Limit      int    `json:"limit,omitempty"`
	ThreadHint string `json:"threadHint,omitempty"`
	Message    string `json:"message,omitempty"`
	Note       string `json:"note,omitempty"`
}

// Response is the orchestrator's final output for one request.
type Response struct {
	OK             bool            `json:"ok"`
	RequestID      string          `json:"requestId"`
	ConversationID string          `json:"conversationId"`
	Action         Action          `json:"action"`
	Result         json.RawMessage `json:"result,omitempty"`
	Text           string          `json:"text,omitempty"`
	Truncated      bool            `json:"truncated,omitempty"`
}

// Runner runs one agent conversation; satisfied by runner.Loop.
type Runner interface {
	Run(ctx context.Context, instructions, input string) (*runner.Result, error)
}

// Orchestrator maps actions onto agent runs.
type Orchestrator struct {
	loop Runner
	log  logging.Logger
}

// New creates an orchestrator over the given loop.
func New(loop Runner) *Orchestrator {
	return &Orchestrator{loop: loop, log: logging.Component("orchestrator")}
}

// autonomyInstructions is the fixed policy block sent with every run.
const autonomyInstructions = `You operate a browser-automation toolset against a professional networking site.

Rules:
- Always prefer the high-level attempt_read_chat tool over manual navigation.
- If a tool reports a structural failure code (CTA_NOT_FOUND, CTA_NOT_FOUND_IN_MORE_MENU, CTA_HEADER_MISSELECTION, OVERLAY_NOT_FOUND), first call pw_snapshot to inspect the page. Only if the snapshot shows a clear element pattern, propose new selector candidates.
- Persist proposed candidates with save_selector_hints before retrying the failed operation.
- Perform at most 2 self-heal retry cycles per request. If the operation still fails, stop.
- Never fabricate a successful result. If the task could not be completed, say so explicitly and include the last failure code.
- When a task succeeds, reply with exactly the JSON result of the final successful tool call and nothing else.`

// Do validates the request, runs the agent, and post-processes its output.
func (o *Orchestrator) Do(ctx context.Context, req Request) (*Response, error) {
	task, err := taskFor(req)
	if err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	o.log.Infof("request %s: %s %s", requestID, req.Action, req.ProfileURL)

	res, err := o.loop.Run(ctx, autonomyInstructions, task)
	if err != nil {
		return nil, err
	}

	resp := &Response{
		OK:             true,
		RequestID:      requestID,
		ConversationID: res.ResponseID,
		Action:         req.Action,
		Truncated:      res.Truncated,
	}

	if req.Action == ActionReadChat {
		if raw, ok := parseStructured(res.Text); ok {
			resp.Result = raw
		} else {
			// Still a success: the agent answered, just not in the
			// structured shape.
			resp.Text = res.Text
		}
		return resp, nil
	}

	resp.Text = res.Text
	return resp, nil
}

// parseStructured accepts the final output only when it is a JSON object.
func parseStructured(text string) (json.RawMessage, bool) {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if !strings.HasPrefix(trimmed, "{") || !json.Valid([]byte(trimmed)) {
		return nil, false
	}
	return json.RawMessage(trimmed), true
}

// taskFor renders the natural-language task for one action, embedding the
// payload fields.
func taskFor(req Request) (string, error) {
	if strings.TrimSpace(req.ProfileURL) == "" {
		return "", fault.New(fault.InvalidArguments, "profileUrl is required")
	}

	switch req.Action {
	case ActionReadChat:
		limit := req.Limit
		if limit <= 0 {
			limit = 10
		}
		task := fmt.Sprintf(
			"Read the conversation with the profile at %s and return the %d most recent messages.",
			req.ProfileURL, limit)
		if req.ThreadHint != "" {
			task += fmt.Sprintf(" The thread can be recognized by: %s.", req.ThreadHint)
		}
		return task, nil

	case ActionSendMessage:
		if strings.TrimSpace(req.Message) == "" {
			return "", fault.New(fault.InvalidArguments, "message is required for send_message")
		}
		return fmt.Sprintf(
			"Open the conversation with the profile at %s and send exactly this message:\n%s",
			req.ProfileURL, req.Message), nil

	case ActionSendConnection:
		if strings.TrimSpace(req.Note) == "" {
			return "", fault.New(fault.InvalidArguments, "note is required for send_connection")
		}
		return fmt.Sprintf(
			"Send a connection invitation to the profile at %s with exactly this note:\n%s",
			req.ProfileURL, req.Note), nil

	default:
		return "", fault.New(fault.InvalidArguments, "unknown action %q", req.Action)
	}
}
