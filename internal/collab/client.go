// Package collab provides the client for the operations collaborator
// service: notifications, pipeline stats, lead records, and health checks.
package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// PipelineStats summarizes the sales pipeline.
type PipelineStats struct {
	TotalLeads      int     `json:"total_leads"`
	QualifiedLeads  int     `json:"qualified_leads"`
	ActiveCampaigns int     `json:"active_campaigns"`
	PipelineValue   float64 `json:"pipeline_value"`
}

// Lead is one lead record.
type Lead struct {
	Name    string  `json:"name"`
	Company string  `json:"company"`
	Status  string  `json:"status"`
	Value   float64 `json:"value"`
}

// HealthStatus reports collaborator-side service health.
type HealthStatus struct {
	Healthy  bool              `json:"healthy"`
	Services map[string]string `json:"services"`
}

// Client talks to the collaborator service over HTTP.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a collaborator client.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SendNotification posts a message to the named notification channel.
func (c *Client) SendNotification(ctx context.Context, channel, text string) error {
	body, err := json.Marshal(map[string]string{"channel": channel, "text": text})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	_, err = c.call(ctx, http.MethodPost, "/v1/notify", body)
	return err
}

// PipelineStats fetches the current pipeline summary.
func (c *Client) PipelineStats(ctx context.Context) (*PipelineStats, error) {
	data, err := c.call(ctx, http.MethodGet, "/v1/stats", nil)
	if err != nil {
		return nil, err
	}
	var stats PipelineStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stats payload: %w", err)
	}
	return &stats, nil
}

// ListLeads fetches up to limit lead records.
func (c *Client) ListLeads(ctx context.Context, limit int) ([]Lead, error) {
	path := "/v1/records/leads"
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}
	data, err := c.call(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var leads []Lead
	if err := json.Unmarshal(data, &leads); err != nil {
		return nil, fmt.Errorf("failed to unmarshal leads payload: %w", err)
	}
	return leads, nil
}

// Health checks collaborator-side service health.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	data, err := c.call(ctx, http.MethodGet, "/v1/health", nil)
	if err != nil {
		return nil, err
	}
	var status HealthStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal health payload: %w", err)
	}
	return &status, nil
}

// call performs the request and unwraps the collaborator envelope:
// {"success": bool, "data": <object or JSON string>, "error": string}.
// It returns the normalized data payload as raw JSON.
func (c *Client) call(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("collaborator error [%d]: %s", resp.StatusCode, string(respBody))
	}

	if !gjson.ValidBytes(respBody) {
		return nil, fmt.Errorf("collaborator returned invalid JSON")
	}

	envelope := gjson.ParseBytes(respBody)
	if success := envelope.Get("success"); success.Exists() && !success.Bool() {
		msg := envelope.Get("error").String()
		if msg == "" {
			msg = "unspecified failure"
		}
		return nil, fmt.Errorf("collaborator request failed: %s", msg)
	}

	// Endpoints without an envelope return the payload as the body itself.
	data := envelope.Get("data")
	if !data.Exists() {
		return respBody, nil
	}
	return []byte(normalize(data).Raw), nil
}

// normalize resolves the data field's string-or-object ambiguity: some
// collaborator endpoints return data as an already-parsed object, others as
// a JSON string that needs a second parse.
func normalize(data gjson.Result) gjson.Result {
	if data.Type == gjson.String && gjson.Valid(data.Str) {
		return gjson.Parse(data.Str)
	}
	return data
}
