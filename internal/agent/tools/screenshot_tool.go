package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/reachloop/reachbot/internal/fault"
	"github.com/reachloop/reachbot/internal/screenshot"
)

// ScreenshotTool reads a recent capture from the screenshot cache. It never
// triggers a new capture; a stale cache is an error the agent must react to.
type ScreenshotTool struct {
	client *screenshot.Client
}

type screenshotInput struct {
	MaxAgeMs int `json:"maxAgeMs"`
}

func NewScreenshotTool(client *screenshot.Client) *ScreenshotTool {
	return &ScreenshotTool{client: client}
}

func (t *ScreenshotTool) Name() string { return "get_screenshot" }

func (t *ScreenshotTool) Description() string {
	return "Fetch the most recent cached page screenshot no older than maxAgeMs milliseconds."
}

func (t *ScreenshotTool) Schema() map[string]any {
	return objectSchema(map[string]any{
		"maxAgeMs": map[string]any{
			"type":        "integer",
			"minimum":     0,
			"maximum":     5000,
			"description": "Maximum acceptable age of the capture in milliseconds",
		},
	})
}

func (t *ScreenshotTool) Execute(ctx context.Context, input json.RawMessage) (any, error) {
	var in screenshotInput
	if err := decodeStrict(input, &in); err != nil {
		return nil, err
	}
	if in.MaxAgeMs < 0 || in.MaxAgeMs > 5000 {
		return nil, fault.New(fault.InvalidArguments, "maxAgeMs must be between 0 and 5000")
	}
	img, err := t.client.Fetch(ctx, time.Duration(in.MaxAgeMs)*time.Millisecond)
	if err != nil {
		return nil, err
	}
	return map[string]any{"ok": true, "image": img}, nil
}
