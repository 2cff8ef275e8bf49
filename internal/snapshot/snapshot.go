// Package snapshot persists the chat state as a single serialized blob.
package snapshot

import (
	"context"

	"github.com/opsdesk-ai/opsdesk/internal/domain"
)

// Snapshotter stores and reloads the whole chat state. Save replaces the
// previous snapshot; there is no partial or incremental persistence.
type Snapshotter interface {
	Save(ctx context.Context, snap *domain.Snapshot) error
	Load(ctx context.Context) (*domain.Snapshot, error)
	Close() error
}

// Memory is an in-process Snapshotter for tests and ephemeral mode.
type Memory struct {
	data []byte
}

// NewMemory creates an empty in-memory snapshotter.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Save(_ context.Context, snap *domain.Snapshot) error {
	data, err := encode(snap)
	if err != nil {
		return err
	}
	m.data = data
	return nil
}

func (m *Memory) Load(_ context.Context) (*domain.Snapshot, error) {
	return decode(m.data), nil
}

func (m *Memory) Close() error { return nil }
