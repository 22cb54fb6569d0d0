package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Mark-Phillipson/Risk/internal/model"
	"github.com/Mark-Phillipson/Risk/internal/repository"
)

// ErrLeaderboardDisabled is returned when no leaderboard store is configured.
var ErrLeaderboardDisabled = errors.New("leaderboard is not configured")

// Persistence saves conquest records per mode and tallies the leaderboard.
// The leaderboard is optional.
type Persistence struct {
	store repository.RegionStore
	board repository.LeaderboardRepository
}

// NewPersistence creates a Persistence. board may be nil.
func NewPersistence(store repository.RegionStore, board repository.LeaderboardRepository) *Persistence {
	return &Persistence{store: store, board: board}
}

// Save stores the records for mode.
func (p *Persistence) Save(ctx context.Context, mode model.Mode, records []model.RegionRecord) error {
	if err := p.store.SaveRegions(ctx, mode.StorageKey(), records); err != nil {
		return fmt.Errorf("save %s: %w", mode, err)
	}
	return nil
}

// Load returns the stored records for mode. Missing or unreadable state is
// logged and treated as no data.
func (p *Persistence) Load(ctx context.Context, mode model.Mode) []model.RegionRecord {
	records, err := p.store.LoadRegions(ctx, mode.StorageKey())
	if err != nil {
		log.Warn().Err(err).Str("mode", string(mode)).Msg("Failed to load stored regions")
		return nil
	}
	return records
}

// Clear deletes the stored records for mode. Failures are logged.
func (p *Persistence) Clear(ctx context.Context, mode model.Mode) {
	if err := p.store.ClearRegions(ctx, mode.StorageKey()); err != nil {
		log.Warn().Err(err).Str("mode", string(mode)).Msg("Failed to clear stored regions")
	}
}

// RecordConquest credits player with a conquest. Anonymous conquests and a
// missing leaderboard are ignored; failures are logged.
func (p *Persistence) RecordConquest(ctx context.Context, mode model.Mode, player string) {
	if p.board == nil || player == "" {
		return
	}
	if err := p.board.RecordConquest(ctx, mode, player); err != nil {
		log.Warn().Err(err).Str("mode", string(mode)).Str("player", player).Msg("Failed to record conquest")
	}
}

// Leaderboard returns the top players for mode.
func (p *Persistence) Leaderboard(ctx context.Context, mode model.Mode, limit int) ([]model.LeaderboardEntry, error) {
	if p.board == nil {
		return nil, ErrLeaderboardDisabled
	}
	return p.board.Top(ctx, mode, limit)
}

// ResetLeaderboard clears the tallies for mode.
func (p *Persistence) ResetLeaderboard(ctx context.Context, mode model.Mode) error {
	if p.board == nil {
		return ErrLeaderboardDisabled
	}
	return p.board.Reset(ctx, mode)
}
