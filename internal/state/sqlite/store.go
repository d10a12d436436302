// Package sqlite persists watch state in a local SQLite database, for
// deployments that prefer a queryable ledger over the JSON file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/JakeFAU/request-watch/internal/watch"
)

const schema = `
CREATE TABLE IF NOT EXISTS watch_meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS sent_fingerprints (
	fingerprint   TEXT PRIMARY KEY,
	first_seen_ms INTEGER NOT NULL
);`

// Store keeps the ledger in two tables: a key/value meta table for the
// version and seeding flags, and one row per sent fingerprint.
type Store struct {
	db *sql.DB
}

// New opens (creating if necessary) the database at path.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply sqlite schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close sqlite: %w", err)
	}
	return nil
}

// Load reassembles the state from the meta and fingerprint tables. An empty
// database yields the default uninitialized state.
func (s *Store) Load(ctx context.Context) (watch.State, error) {
	state := watch.NewState()

	if v, err := s.meta(ctx, "version"); err != nil {
		return watch.State{}, err
	} else if v != "" {
		state.Version = v
	}
	if v, err := s.meta(ctx, "initialized"); err != nil {
		return watch.State{}, err
	} else if v == "true" {
		state.Initialized = true
	}
	if v, err := s.meta(ctx, "initialized_at"); err != nil {
		return watch.State{}, err
	} else if v != "" {
		if ts, perr := time.Parse(time.RFC3339Nano, v); perr == nil {
			state.InitializedAt = &ts
		}
	}

	rows, err := s.db.QueryContext(ctx, `SELECT fingerprint, first_seen_ms FROM sent_fingerprints`)
	if err != nil {
		return watch.State{}, fmt.Errorf("query fingerprints: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var fp string
		var ms int64
		if err := rows.Scan(&fp, &ms); err != nil {
			return watch.State{}, fmt.Errorf("scan fingerprint row: %w", err)
		}
		state.Sent[fp] = ms
	}
	if err := rows.Err(); err != nil {
		return watch.State{}, fmt.Errorf("iterate fingerprint rows: %w", err)
	}
	return state, nil
}

// Save replaces the stored state in one transaction. The ledger is small
// (one page of postings times the TTL window), so a full rewrite is cheaper
// than diffing.
func (s *Store) Save(ctx context.Context, state watch.State) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save tx: %w", err)
	}
	defer tx.Rollback()

	if err := setMeta(ctx, tx, "version", state.Version); err != nil {
		return err
	}
	if err := setMeta(ctx, tx, "initialized", fmt.Sprintf("%t", state.Initialized)); err != nil {
		return err
	}
	initAt := ""
	if state.InitializedAt != nil {
		initAt = state.InitializedAt.Format(time.RFC3339Nano)
	}
	if err := setMeta(ctx, tx, "initialized_at", initAt); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM sent_fingerprints`); err != nil {
		return fmt.Errorf("clear fingerprints: %w", err)
	}
	for fp, ms := range state.Sent {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sent_fingerprints (fingerprint, first_seen_ms) VALUES (?, ?)`, fp, ms); err != nil {
			return fmt.Errorf("insert fingerprint: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save tx: %w", err)
	}
	return nil
}

func (s *Store) meta(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM watch_meta WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read meta %s: %w", key, err)
	}
	return value, nil
}

func setMeta(ctx context.Context, tx *sql.Tx, key, value string) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO watch_meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value); err != nil {
		return fmt.Errorf("write meta %s: %w", key, err)
	}
	return nil
}
