package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Mark-Phillipson/Risk/internal/model"
)

// RegionRepo stores conquest records as JSONB documents.
type RegionRepo struct {
	db *sql.DB
}

// NewRegionRepo creates a RegionRepo.
func NewRegionRepo(db *sql.DB) *RegionRepo {
	return &RegionRepo{db: db}
}

// SaveRegions upserts the records for key.
func (r *RegionRepo) SaveRegions(ctx context.Context, key string, records []model.RegionRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal regions: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO region_state (storage_key, records, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (storage_key) DO UPDATE SET records = EXCLUDED.records, updated_at = now()`,
		key, data,
	)
	if err != nil {
		return fmt.Errorf("save regions: %w", err)
	}
	return nil
}

// LoadRegions returns the records for key, or nil when none exist.
func (r *RegionRepo) LoadRegions(ctx context.Context, key string) ([]model.RegionRecord, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT records FROM region_state WHERE storage_key = $1`, key,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load regions: %w", err)
	}
	var records []model.RegionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("unmarshal regions: %w", err)
	}
	return records, nil
}

// ClearRegions deletes the records for key.
func (r *RegionRepo) ClearRegions(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM region_state WHERE storage_key = $1`, key); err != nil {
		return fmt.Errorf("clear regions: %w", err)
	}
	return nil
}
