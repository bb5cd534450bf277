package automation

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/reachloop/reachbot/internal/cascade"
	"github.com/reachloop/reachbot/internal/fault"
)

// DOM adapts the automation server into the cascade's DOM interface. Queries
// travel as structured JSON arguments; the server interprets them as data and
// returns matched elements with stable refs.
type DOM struct {
	client *Client
}

// NewDOM wraps a client for use by the extraction cascade.
func NewDOM(client *Client) *DOM {
	return &DOM{client: client}
}

// Navigate implements cascade.DOM.
func (d *DOM) Navigate(ctx context.Context, url string) error {
	return d.client.Navigate(ctx, url)
}

// QueryAll implements cascade.DOM. The server answers with a JSON array of
// elements.
func (d *DOM) QueryAll(ctx context.Context, q cascade.Query) ([]cascade.Element, error) {
	args, err := queryArgs(q)
	if err != nil {
		return nil, err
	}
	res, err := d.client.Call(ctx, ToolQuery, args)
	if err != nil {
		return nil, err
	}
	if res.IsError {
		return nil, fault.New(fault.Unknown, "query failed: %s", res.Text)
	}
	if res.Text == "" {
		return nil, nil
	}
	var elements []cascade.Element
	if err := json.Unmarshal([]byte(res.Text), &elements); err != nil {
		return nil, fmt.Errorf("decode query result: %w", err)
	}
	return elements, nil
}

// Click implements cascade.DOM.
func (d *DOM) Click(ctx context.Context, ref string) error {
	res, err := d.client.Call(ctx, ToolClick, map[string]any{"ref": ref})
	if err != nil {
		return err
	}
	if res.IsError {
		return fault.New(fault.Unknown, "click %s failed: %s", ref, res.Text)
	}
	return nil
}

// queryArgs flattens a Query into the map shape the SDK sends on the wire.
func queryArgs(q cascade.Query) (map[string]any, error) {
	raw, err := json.Marshal(q)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	return args, nil
}
