package repository

import (
	"context"
	"time"

	"github.com/Mark-Phillipson/Risk/internal/model"
)

// RegionStore persists conquest records under a storage key.
type RegionStore interface {
	SaveRegions(ctx context.Context, key string, records []model.RegionRecord) error
	LoadRegions(ctx context.Context, key string) ([]model.RegionRecord, error)
	ClearRegions(ctx context.Context, key string) error
}

// LeaderboardRepository tracks conquests per player.
type LeaderboardRepository interface {
	RecordConquest(ctx context.Context, mode model.Mode, player string) error
	Top(ctx context.Context, mode model.Mode, limit int) ([]model.LeaderboardEntry, error)
	Reset(ctx context.Context, mode model.Mode) error
}

// SessionCache tracks session liveness for idle eviction.
type SessionCache interface {
	TouchSession(ctx context.Context, sessionID string, ttl time.Duration) error
	DropSession(ctx context.Context, sessionID string) error
}
