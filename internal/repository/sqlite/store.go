package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Mark-Phillipson/Risk/internal/model"
)

const schema = `CREATE TABLE IF NOT EXISTS region_state (
	storage_key TEXT PRIMARY KEY,
	records     TEXT NOT NULL,
	updated_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

// Store keeps conquest records in a local SQLite file, one JSON document per
// storage key.
type Store struct {
	db *sql.DB
}

// Open opens (and creates if missing) the database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRegions upserts the records for key.
func (s *Store) SaveRegions(ctx context.Context, key string, records []model.RegionRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal regions: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO region_state (storage_key, records, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(storage_key) DO UPDATE SET records = excluded.records, updated_at = CURRENT_TIMESTAMP`,
		key, string(data),
	)
	if err != nil {
		return fmt.Errorf("save regions: %w", err)
	}
	return nil
}

// LoadRegions returns the records for key, or nil when none were saved.
func (s *Store) LoadRegions(ctx context.Context, key string) ([]model.RegionRecord, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT records FROM region_state WHERE storage_key = ?`, key,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load regions: %w", err)
	}
	var records []model.RegionRecord
	if err := json.Unmarshal([]byte(data), &records); err != nil {
		return nil, fmt.Errorf("unmarshal regions: %w", err)
	}
	return records, nil
}

// ClearRegions deletes the records for key.
func (s *Store) ClearRegions(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM region_state WHERE storage_key = ?`, key); err != nil {
		return fmt.Errorf("clear regions: %w", err)
	}
	return nil
}
