package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/opsdesk-ai/opsdesk/internal/domain"
	_ "github.com/mattn/go-sqlite3"
)

// stateKey is the single logical key the chat state lives under.
const stateKey = "chat_state"

// SQLiteStore implements Snapshotter on a single-row key/value table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the snapshot database at dsn.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			key TEXT PRIMARY KEY,
			schema_version INTEGER NOT NULL,
			value TEXT NOT NULL,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save serializes the snapshot and replaces the stored blob.
func (s *SQLiteStore) Save(ctx context.Context, snap *domain.Snapshot) error {
	data, err := encode(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO snapshots (key, schema_version, value, updated_at) VALUES (?, ?, ?, ?)`,
		stateKey, domain.SnapshotSchemaVersion, string(data), time.Now())
	if err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// Load reads the stored blob back. A missing row, an unreadable blob, or an
// unknown schema version all yield an empty snapshot rather than an error:
// the store must come up even when the persisted state is unusable.
func (s *SQLiteStore) Load(ctx context.Context) (*domain.Snapshot, error) {
	var version int
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT schema_version, value FROM snapshots WHERE key = ?`,
		stateKey).Scan(&version, &value)
	if err == sql.ErrNoRows {
		return emptySnapshot(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	if version > domain.SnapshotSchemaVersion {
		log.Printf("WARN: snapshot schema version %d is newer than supported %d, starting empty", version, domain.SnapshotSchemaVersion)
		return emptySnapshot(), nil
	}

	return decode([]byte(value)), nil
}

func encode(snap *domain.Snapshot) ([]byte, error) {
	out := *snap
	out.SchemaVersion = domain.SnapshotSchemaVersion
	if out.Sessions == nil {
		out.Sessions = []*domain.Session{}
	}
	return json.Marshal(&out)
}

func decode(data []byte) *domain.Snapshot {
	if len(data) == 0 {
		return emptySnapshot()
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Printf("WARN: discarding corrupt snapshot: %v", err)
		return emptySnapshot()
	}
	// Version 0 predates the schemaVersion field and shares the v1 layout.
	if snap.SchemaVersion > domain.SnapshotSchemaVersion {
		log.Printf("WARN: snapshot schema version %d is newer than supported %d, starting empty", snap.SchemaVersion, domain.SnapshotSchemaVersion)
		return emptySnapshot()
	}
	snap.SchemaVersion = domain.SnapshotSchemaVersion
	return &snap
}

func emptySnapshot() *domain.Snapshot {
	return &domain.Snapshot{SchemaVersion: domain.SnapshotSchemaVersion}
}
