package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reachloop/reachbot/internal/agent/runner"
	"github.com/reachloop/reachbot/internal/fault"
)

// fakeLoop returns a canned final answer and records what it was asked.
type fakeLoop struct {
	Text             string
	ResponseID       string
	Calls            int
	LastInstructions string
	LastInput        string
}

func (f *fakeLoop) Run(ctx context.Context, instructions, input string) (*runner.Result, error) {
	f.Calls++
	f.LastInstructions = instructions
	f.LastInput = input
	return &runner.Result{Text: f.Text, ResponseID: f.ResponseID, Iterations: 1}, nil
}

func TestReadChatParsesStructuredOutput(t *testing.T) {
	loop := &fakeLoop{
		Text:       `{"ok":true,"messages":["hi","hello"],"limit":2}`,
		ResponseID: "resp-9",
	}

	resp, err := New(loop).Do(context.Background(), Request{
		Action:     ActionReadChat,
		ProfileURL: "https://example/in/alice",
		Limit:      2,
	})
	require.NoError(t, err)
	require.True(t, resp.OK)
	require.Equal(t, "resp-9", resp.ConversationID)
	require.NotEmpty(t, resp.RequestID)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(resp.Result, &parsed))
	require.Equal(t, []any{"hi", "hello"}, parsed["messages"])
	require.Empty(t, resp.Text)
}

func TestReadChatFallsBackToRawTextStillSuccessful(t *testing.T) {
	loop := &fakeLoop{Text: "could not read the chat: OVERLAY_NOT_FOUND", ResponseID: "resp-3"}

	resp, err := New(loop).Do(context.Background(), Request{
		Action:     ActionReadChat,
		ProfileURL: "https://example/in/alice",
	})
	require.NoError(t, err)
	require.True(t, resp.OK)
	require.Nil(t, resp.Result)
	require.Contains(t, resp.Text, "OVERLAY_NOT_FOUND")
}

func TestReadChatAcceptsFencedJSON(t *testing.T) {
	loop := &fakeLoop{Text: "```json\n{\"ok\":true,\"messages\":[]}\n```", ResponseID: "r"}

	resp, err := New(loop).Do(context.Background(), Request{
		Action:     ActionReadChat,
		ProfileURL: "https://example/in/alice",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Result)
}

func TestSendMessageReturnsRawTextUnconditionally(t *testing.T) {
	loop := &fakeLoop{Text: `{"ok":true,"sent":true}`, ResponseID: "resp-5"}

	resp, err := New(loop).Do(context.Background(), Request{
		Action:     ActionSendMessage,
		ProfileURL: "https://example/in/alice",
		Message:    "hello there",
	})
	require.NoError(t, err)
	require.True(t, resp.OK)
	require.Nil(t, resp.Result)
	require.Equal(t, `{"ok":true,"sent":true}`, resp.Text)
	require.Equal(t, "resp-5", resp.ConversationID)
}

func TestTaskEmbedsPayloadFields(t *testing.T) {
	loop := &fakeLoop{Text: "done"}

	_, err := New(loop).Do(context.Background(), Request{
		Action:     ActionReadChat,
		ProfileURL: "https://example/in/alice",
		Limit:      4,
		ThreadHint: "about the offsite",
	})
	require.NoError(t, err)
	require.Contains(t, loop.LastInput, "https://example/in/alice")
	require.Contains(t, loop.LastInput, "4 most recent")
	require.Contains(t, loop.LastInput, "about the offsite")
	require.True(t, strings.Contains(loop.LastInstructions, "save_selector_hints"))
	require.True(t, strings.Contains(loop.LastInstructions, "at most 2 self-heal"))
}

func TestValidationFailures(t *testing.T) {
	loop := &fakeLoop{Text: "done"}
	o := New(loop)

	cases := []Request{
		{Action: ActionReadChat},
		{Action: ActionSendMessage, ProfileURL: "https://example/in/a"},
		{Action: ActionSendConnection, ProfileURL: "https://example/in/a"},
		{Action: "delete_account", ProfileURL: "https://example/in/a"},
	}
	for _, req := range cases {
		_, err := o.Do(context.Background(), req)
		var f *fault.Fault
		require.True(t, errors.As(err, &f), "case %+v", req)
		require.Equal(t, fault.InvalidArguments, f.Code)
	}
	require.Zero(t, loop.Calls, "invalid requests never reach the agent")
}
