package tools

import (
	"context"
	"encoding/json"

	"github.com/reachloop/reachbot/internal/fault"
	"github.com/reachloop/reachbot/internal/selectors"
)

// featureEnum lists the valid feature names for schema declarations.
func featureEnum() []string {
	feats := selectors.Features()
	names := make([]string, len(feats))
	for i, f := range feats {
		names[i] = string(f)
	}
	return names
}

// GetHintsTool reads the current candidate list for one feature.
type GetHintsTool struct {
	store *selectors.Store
}

type getHintsInput struct {
	Feature string `json:"feature"`
}

func NewGetHintsTool(store *selectors.Store) *GetHintsTool {
	return &GetHintsTool{store: store}
}

func (t *GetHintsTool) Name() string { return "get_selector_hints" }

func (t *GetHintsTool) Description() string {
	return "Return the current selector candidates for a feature, learned candidates first."
}

func (t *GetHintsTool) Schema() map[string]any {
	return objectSchema(map[string]any{
		"feature": map[string]any{
			"type":        "string",
			"enum":        featureEnum(),
			"description": "Feature whose candidates to read",
		},
	})
}

func (t *GetHintsTool) Execute(ctx context.Context, input json.RawMessage) (any, error) {
	var in getHintsInput
	if err := decodeStrict(input, &in); err != nil {
		return nil, err
	}
	feature, ok := selectors.Parse(in.Feature)
	if !ok {
		return nil, fault.New(fault.InvalidArguments, "unknown feature %q", in.Feature)
	}
	return map[string]any{
		"ok":        true,
		"feature":   feature,
		"selectors": t.store.Get(feature),
	}, nil
}

// SaveHintsTool persists proposed selector candidates for a feature. Saving
// runs the full sanitize pass; a list that sanitizes to nothing is a no-op
// reported as saved:false, not an error.
type SaveHintsTool struct {
	store *selectors.Store
}

type saveHintsInput struct {
	Feature   string   `json:"feature"`
	Selectors []string `json:"selectors"`
	Reason    string   `json:"reason"`
}

func NewSaveHintsTool(store *selectors.Store) *SaveHintsTool {
	return &SaveHintsTool{store: store}
}

func (t *SaveHintsTool) Name() string { return "save_selector_hints" }

func (t *SaveHintsTool) Description() string {
	return "Save new selector candidates for a feature before retrying. " +
		"Candidates are merged ahead of the seeds for future reads."
}

func (t *SaveHintsTool) Schema() map[string]any {
	return objectSchema(map[string]any{
		"feature": map[string]any{
			"type":        "string",
			"enum":        featureEnum(),
			"description": "Feature the candidates belong to",
		},
		"selectors": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"minItems":    1,
			"maxItems":    selectors.MaxCandidates,
			"description": "Proposed selector candidates, most promising first",
		},
		"reason": map[string]any{
			"type":        "string",
			"description": "Why these candidates were proposed",
		},
	})
}

func (t *SaveHintsTool) Execute(ctx context.Context, input json.RawMessage) (any, error) {
	var in saveHintsInput
	if err := decodeStrict(input, &in); err != nil {
		return nil, err
	}
	feature, ok := selectors.Parse(in.Feature)
	if !ok {
		return nil, fault.New(fault.InvalidArguments, "unknown feature %q", in.Feature)
	}
	if len(in.Selectors) < 1 || len(in.Selectors) > selectors.MaxCandidates {
		return nil, fault.New(fault.InvalidArguments,
			"selectors must contain between 1 and %d entries", selectors.MaxCandidates)
	}

	saved := t.store.Save(feature, in.Selectors, in.Reason)
	return map[string]any{
		"ok":        true,
		"feature":   feature,
		"saved":     saved,
		"selectors": t.store.Get(feature),
	}, nil
}
