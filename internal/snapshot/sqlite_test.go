package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/opsdesk-ai/opsdesk/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func TestLoadEmptyDatabase(t *testing.T) {
	s := newTestStore(t)

	snap, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(snap.Sessions) != 0 || snap.ActiveSessionID != "" {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
	if snap.SchemaVersion != domain.SnapshotSchemaVersion {
		t.Fatalf("expected schema version %d, got %d", domain.SnapshotSchemaVersion, snap.SchemaVersion)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	in := &domain.Snapshot{
		Sessions: []*domain.Session{
			{
				SessionID: "s1",
				Title:     "Prepare a pitch",
				Messages: []domain.Message{
					{Role: domain.RoleUser, Text: "Prepare a pitch", Timestamp: now},
					{Role: domain.RoleModel, Text: "On it.", Timestamp: now},
				},
				CreatedAt: now,
				UpdatedAt: now,
			},
			{SessionID: "s2", Title: domain.TitleSentinel, CreatedAt: now, UpdatedAt: now},
		},
		ActiveSessionID: "s1",
	}
	if err := s.Save(ctx, in); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	out, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(out.Sessions) != 2 || out.ActiveSessionID != "s1" {
		t.Fatalf("unexpected snapshot: %+v", out)
	}
	if out.Sessions[0].SessionID != "s1" || out.Sessions[0].Title != "Prepare a pitch" {
		t.Fatalf("unexpected first session: %+v", out.Sessions[0])
	}
	if len(out.Sessions[0].Messages) != 2 || out.Sessions[0].Messages[1].Role != domain.RoleModel {
		t.Fatalf("unexpected messages: %+v", out.Sessions[0].Messages)
	}
}

func TestSaveReplacesPrevious(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Save(ctx, &domain.Snapshot{ActiveSessionID: "a"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := s.Save(ctx, &domain.Snapshot{ActiveSessionID: "b"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	out, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if out.ActiveSessionID != "b" {
		t.Fatalf("expected active session b, got %q", out.ActiveSessionID)
	}
}

func TestLoadCorruptBlobStartsEmpty(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO snapshots (key, schema_version, value) VALUES (?, ?, ?)`,
		stateKey, domain.SnapshotSchemaVersion, `{"sessions": [{`)
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	snap, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(snap.Sessions) != 0 || snap.ActiveSessionID != "" {
		t.Fatalf("expected empty snapshot after corrupt read, got %+v", snap)
	}
}

func TestLoadNewerSchemaStartsEmpty(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO snapshots (key, schema_version, value) VALUES (?, ?, ?)`,
		stateKey, domain.SnapshotSchemaVersion+1, `{"schemaVersion":99,"sessions":[],"activeSessionId":"x"}`)
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	snap, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if snap.ActiveSessionID != "" {
		t.Fatalf("expected empty snapshot for newer schema, got %+v", snap)
	}
}

func TestMemoryRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.Save(ctx, &domain.Snapshot{ActiveSessionID: "s1"}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	snap, err := m.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if snap.ActiveSessionID != "s1" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}
