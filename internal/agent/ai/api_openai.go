package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
)

// OpenAIProvider implements Completer on the OpenAI Responses API. The
// continuation identifier maps onto previous_response_id, so follow-up turns
// retransmit only the new input items.
type OpenAIProvider struct {
	client openai.Client
	model  string
}

// NewOpenAIProvider creates a provider using the given key and default model.
func NewOpenAIProvider(apiKey, model string) *OpenAIProvider {
	return &OpenAIProvider{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// CreateTurn implements Completer.
func (p *OpenAIProvider) CreateTurn(ctx context.Context, req *TurnRequest) (*TurnResponse, error) {
	model := p.model
	if req.Model != "" {
		model = req.Model
	}

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(model),
		// Tool calls execute strictly one at a time.
		ParallelToolCalls: openai.Bool(false),
	}
	if req.Instructions != "" {
		params.Instructions = openai.String(req.Instructions)
	}
	if req.PreviousResponseID != "" {
		params.PreviousResponseID = openai.String(req.PreviousResponseID)
	}

	if len(req.Outputs) > 0 {
		items := make(responses.ResponseInputParam, 0, len(req.Outputs))
		for _, out := range req.Outputs {
			items = append(items, responses.ResponseInputItemParamOfFunctionCallOutput(out.CallID, out.Output))
		}
		params.Input = responses.ResponseNewParamsInputUnion{OfInputItemList: items}
	} else {
		params.Input = responses.ResponseNewParamsInputUnion{OfString: openai.String(req.Input)}
	}

	if len(req.Tools) > 0 {
		tools := make([]responses.ToolUnionParam, 0, len(req.Tools))
		for _, def := range req.Tools {
			tool := responses.ToolParamOfFunction(def.Name, def.Parameters, true)
			if def.Description != "" && tool.OfFunction != nil {
				tool.OfFunction.Description = openai.String(def.Description)
			}
			tools = append(tools, tool)
		}
		params.Tools = tools
	}

	resp, err := p.client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("completion request: %w", err)
	}

	turn := &TurnResponse{ID: resp.ID, Text: resp.OutputText()}
	for _, item := range resp.Output {
		if item.Type != "function_call" {
			continue
		}
		fc := item.AsFunctionCall()
		turn.ToolCalls = append(turn.ToolCalls, ToolCall{
			ID:        fc.CallID,
			Name:      fc.Name,
			Arguments: json.RawMessage(fc.Arguments),
		})
	}
	return turn, nil
}
