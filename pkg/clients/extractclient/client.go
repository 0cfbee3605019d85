package extractclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hollybank-care/rostergen/pkg/core/model"
)

const requestTimeout = 60 * time.Second

// Client calls the rule extraction service, which turns free-text
// scheduling requests into structured rule records.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates an extraction service client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
}

// Request is one free-text scheduling request to extract.
type Request struct {
	Employee string `json:"employee,omitempty"`
	Text     string `json:"text"`
}

type extractRequest struct {
	Requests []Request `json:"requests"`
}

type extractResponse struct {
	Rules []model.RawRule `json:"rules"`
}

// Extract sends the requests and returns the structured rules the service
// produced. Requests it cannot interpret come back as UNPARSABLE records
// rather than being dropped.
func (c *Client) Extract(ctx context.Context, requests []Request) ([]model.RawRule, error) {
	body, err := json.Marshal(extractRequest{Requests: requests})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal extraction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create extraction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call extraction service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("extraction service returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode extraction response: %w", err)
	}

	return parsed.Rules, nil
}
