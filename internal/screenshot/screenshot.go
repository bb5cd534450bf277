// Package screenshot reads recent page captures from the external screenshot
// cache. The cache is a collaborator with a single read operation; this
// client never triggers new captures.
package screenshot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Image is one cached capture, base64-encoded with its media type.
type Image struct {
	Data       string    `json:"data"`
	MediaType  string    `json:"mediaType"`
	CapturedAt time.Time `json:"capturedAt"`
}

// Client fetches captures from the cache service.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the cache at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Fetch returns the most recent capture no older than maxAge.
func (c *Client) Fetch(ctx context.Context, maxAge time.Duration) (*Image, error) {
	url := c.baseURL + "/screenshot?max_age_ms=" + strconv.FormatInt(maxAge.Milliseconds(), 10)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("screenshot cache: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("no screenshot within the last %s", maxAge)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("screenshot cache returned %d: %s", resp.StatusCode, string(body))
	}

	var img Image
	if err := json.NewDecoder(resp.Body).Decode(&img); err != nil {
		return nil, fmt.Errorf("decode screenshot: %w", err)
	}
	return &img, nil
}
