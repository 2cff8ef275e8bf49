package assistant

import (
	"context"
	"sync"
)

// MockClient is a scriptable Client for tests. It records every request so
// tests can assert call counts and payloads.
type MockClient struct {
	mu       sync.Mutex
	Response string
	Err      error
	Requests []*ReplyRequest

	// ReplyFn, when set, overrides Response/Err entirely.
	ReplyFn func(ctx context.Context, req *ReplyRequest) (string, error)
}

// Ensure MockClient implements Client.
var _ Client = (*MockClient)(nil)

// NewMockClient creates a mock that answers every request with response.
func NewMockClient(response string) *MockClient {
	return &MockClient{Response: response}
}

func (m *MockClient) Reply(ctx context.Context, req *ReplyRequest) (string, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	fn := m.ReplyFn
	resp, err := m.Response, m.Err
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return resp, err
}

// Calls returns the number of requests the mock has received.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}
