// Package localstore is the durable on-device safety net: every store
// mutation is serialized here synchronously, keyed by round id, so a crash
// or loss of signal never loses an entered stroke. Backed by a cgo-free
// sqlite database.
package localstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	scorestore "github.com/fairway-collective/scorekeeper/app/modules/scoresync/store"
	"github.com/fairway-collective/scorekeeper/app/shared/sharedtypes"
)

const schema = `
CREATE TABLE IF NOT EXISTS round_backups (
	round_id      TEXT PRIMARY KEY,
	snapshot      BLOB NOT NULL,
	last_modified TIMESTAMP NOT NULL
);`

// SQLiteStore persists one snapshot row per round.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (creating if needed) the backup database at path. ":memory:"
// is accepted for tests.
func Open(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("local backup path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open local backup: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping local backup: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init local backup schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Save upserts the snapshot for its round.
func (s *SQLiteStore) Save(ctx context.Context, snap scorestore.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal backup for round %s: %w", snap.RoundID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO round_backups (round_id, snapshot, last_modified) VALUES (?, ?, ?)
		 ON CONFLICT(round_id) DO UPDATE SET snapshot = excluded.snapshot, last_modified = excluded.last_modified`,
		snap.RoundID.String(), payload, snap.LastModified.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("write backup for round %s: %w", snap.RoundID, err)
	}
	return nil
}

// Load returns the stored snapshot for a round; ok is false when none exists.
func (s *SQLiteStore) Load(ctx context.Context, roundID sharedtypes.RoundID) (scorestore.Snapshot, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT snapshot FROM round_backups WHERE round_id = ?`, roundID.String(),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return scorestore.Snapshot{}, false, nil
	}
	if err != nil {
		return scorestore.Snapshot{}, false, fmt.Errorf("read backup for round %s: %w", roundID, err)
	}
	var snap scorestore.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return scorestore.Snapshot{}, false, fmt.Errorf("decode backup for round %s: %w", roundID, err)
	}
	return snap, true, nil
}

// Delete drops the backup for a round. Missing rows are not an error.
func (s *SQLiteStore) Delete(ctx context.Context, roundID sharedtypes.RoundID) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM round_backups WHERE round_id = ?`, roundID.String()); err != nil {
		return fmt.Errorf("delete backup for round %s: %w", roundID, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
