// Package runner drives the bounded tool-calling conversation between the
// completion service and the tool catalog.
package runner

import (
	"context"

	"github.com/reachloop/reachbot/internal/agent/ai"
	"github.com/reachloop/reachbot/internal/agent/tools"
	"github.com/reachloop/reachbot/internal/logging"
)

// DefaultMaxIterations bounds how many completion round trips one run may
// perform.
const DefaultMaxIterations = 6

// Loop executes one agent conversation. Tool calls run strictly one at a
// time: they all share a single mutable browser session, and concurrent DOM
// operations against it would race.
type Loop struct {
	completer     ai.Completer
	registry      *tools.Registry
	model         string
	maxIterations int
	log           logging.Logger
}

// New creates a loop. maxIterations <= 0 selects the default.
func New(completer ai.Completer, registry *tools.Registry, model string, maxIterations int) *Loop {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &Loop{
		completer:     completer,
		registry:      registry,
		model:         model,
		maxIterations: maxIterations,
		log:           logging.Component("agent"),
	}
}

// Result is the terminal state of one run.
type Result struct {
	// Text is the model's final textual output, possibly empty when the
	// iteration budget ran out mid-conversation.
	Text string
	// ResponseID is the continuation identifier of the last turn.
	ResponseID string
	// Iterations counts completed completion round trips.
	Iterations int
	// Truncated is set when the budget was exhausted while the model still
	// requested tools. This is a deliberate cutoff, not an error.
	Truncated bool
}

// Run performs the conversation: a first turn carrying instructions, the tool
// catalog, and the task input, then follow-up turns carrying only the tool
// outputs plus the previous turn's continuation identifier.
func (l *Loop) Run(ctx context.Context, instructions, input string) (*Result, error) {
	req := &ai.TurnRequest{
		Model:        l.model,
		Instructions: instructions,
		Input:        input,
		Tools:        l.registry.Definitions(),
	}

	var resp *ai.TurnResponse
	for i := 0; i < l.maxIterations; i++ {
		var err error
		resp, err = l.completer.CreateTurn(ctx, req)
		if err != nil {
			return nil, err
		}

		if len(resp.ToolCalls) == 0 {
			return &Result{Text: resp.Text, ResponseID: resp.ID, Iterations: i + 1}, nil
		}

		// Last round trip: the budget is spent, so these tool calls must not
		// execute. Their outputs could never be sent back, and the tools have
		// real side effects on the shared browser session.
		if i == l.maxIterations-1 {
			break
		}

		outputs := make([]ai.ToolOutput, 0, len(resp.ToolCalls))
		for _, call := range resp.ToolCalls {
			l.log.Infof("tool call %s (%s)", call.Name, call.ID)
			out := l.registry.Dispatch(ctx, call.Name, call.Arguments)
			outputs = append(outputs, ai.ToolOutput{CallID: call.ID, Output: out})
		}

		req = &ai.TurnRequest{
			Model:              l.model,
			Outputs:            outputs,
			Tools:              l.registry.Definitions(),
			PreviousResponseID: resp.ID,
		}
	}

	l.log.Warnf("iteration budget (%d) exhausted, returning last response", l.maxIterations)
	return &Result{
		Text:       resp.Text,
		ResponseID: resp.ID,
		Iterations: l.maxIterations,
		Truncated:  true,
	}, nil
}
