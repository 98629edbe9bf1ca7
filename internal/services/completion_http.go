package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// HTTPCompleter calls a completion sidecar over HTTP.
type HTTPCompleter struct {
	url    string
	client *http.Client
}

// NewHTTPCompleter creates a new HTTPCompleter for the sidecar at url.
func NewHTTPCompleter(url string) *HTTPCompleter {
	return &HTTPCompleter{url: url, client: http.DefaultClient}
}

// Complete posts the prompt to the sidecar's /complete endpoint.
func (c *HTTPCompleter) Complete(ctx context.Context, prompt string, promptContext map[string]any) (*Completion, error) {
	requestBody, err := json.Marshal(map[string]any{
		"prompt":  prompt,
		"context": promptContext,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/complete", bytes.NewReader(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get completion: status code %d", resp.StatusCode)
	}

	var completion Completion
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}
	if completion.Response == "" {
		return nil, fmt.Errorf("empty completion")
	}
	return &completion, nil
}
