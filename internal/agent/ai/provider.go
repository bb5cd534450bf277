// Package ai wraps the completion service behind a minimal turn-based
// interface. A turn either starts a conversation (instructions + task input +
// tool catalog) or continues one by reference: follow-up turns carry only the
// tool outputs plus the previous response identifier, never the transcript.
package ai

import (
	"context"
	"encoding/json"
)

// ToolDefinition describes one callable tool in the catalog sent to the
// model. Parameters is a JSON-schema object.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolCall is one tool invocation requested by the model. The ID ties the
// eventual output back to this call.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// ToolOutput is the serialized result of one executed tool call.
type ToolOutput struct {
	CallID string
	Output string
}

// TurnRequest is one exchange with the completion service.
type TurnRequest struct {
	Model        string
	Instructions string
	Input        string       // first turn: the task input
	Outputs      []ToolOutput // follow-up turns: the delta only
	Tools        []ToolDefinition

	// PreviousResponseID is the continuation identifier; the service
	// retains prior context server-side.
	PreviousResponseID string
}

// TurnResponse is the model's reply: zero or more tool calls and/or final
// text.
type TurnResponse struct {
	ID        string
	ToolCalls []ToolCall
	Text      string
}

// Completer is the completion service. The production implementation is
// OpenAI-backed; tests script it.
type Completer interface {
	CreateTurn(ctx context.Context, req *TurnRequest) (*TurnResponse, error)
}
