// Package assistant provides the client for the remote chat backend.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/opsdesk-ai/opsdesk/internal/domain"
)

// Client defines the remote chat backend operations.
type Client interface {
	// Reply sends one user message plus bounded conversation context and
	// returns the assistant's reply text.
	Reply(ctx context.Context, req *ReplyRequest) (string, error)
}

// ReplyRequest is the chat backend request body.
type ReplyRequest struct {
	Message string       `json:"message"`
	Context ReplyContext `json:"context"`
}

// ReplyContext carries the trailing conversation window and any
// caller-supplied profile context.
type ReplyContext struct {
	History []domain.Message       `json:"history,omitempty"`
	Profile map[string]interface{} `json:"profile,omitempty"`
}

// ReplyResponse is the chat backend response body.
type ReplyResponse struct {
	Response string `json:"response"`
}

// HTTPClient talks to the chat backend over HTTP.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Ensure HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a chat backend client. The timeout bounds the whole
// call so a hung backend cannot leave a session stuck in flight.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Reply sends the chat request. Any non-2xx status or malformed body is an
// error; the caller substitutes the fallback reply.
func (c *HTTPClient) Reply(ctx context.Context, req *ReplyRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("chat backend error [%d]: %s", resp.StatusCode, string(respBody))
	}

	var result ReplyResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if result.Response == "" {
		return "", fmt.Errorf("chat backend returned an empty response")
	}

	return result.Response, nil
}
