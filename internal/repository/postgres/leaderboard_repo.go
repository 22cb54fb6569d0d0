package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Mark-Phillipson/Risk/internal/model"
)

// LeaderboardRepo handles conquest tallies.
type LeaderboardRepo struct {
	db *sql.DB
}

// NewLeaderboardRepo creates a LeaderboardRepo.
func NewLeaderboardRepo(db *sql.DB) *LeaderboardRepo {
	return &LeaderboardRepo{db: db}
}

// RecordConquest increments a player's conquest count for a mode.
func (r *LeaderboardRepo) RecordConquest(ctx context.Context, mode model.Mode, player string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO leaderboard (mode, player, conquests, updated_at)
		 VALUES ($1, $2, 1, now())
		 ON CONFLICT (mode, player)
		 DO UPDATE SET conquests = leaderboard.conquests + 1, updated_at = now()`,
		string(mode), player,
	)
	if err != nil {
		return fmt.Errorf("record conquest: %w", err)
	}
	return nil
}

// Top returns the leading players for a mode.
func (r *LeaderboardRepo) Top(ctx context.Context, mode model.Mode, limit int) ([]model.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT player, mode, conquests, updated_at FROM leaderboard
		 WHERE mode = $1 ORDER BY conquests DESC, player ASC LIMIT $2`,
		string(mode), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []model.LeaderboardEntry
	for rows.Next() {
		var e model.LeaderboardEntry
		var m string
		if err := rows.Scan(&e.Player, &m, &e.Conquests, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan leaderboard: %w", err)
		}
		e.Mode = model.Mode(m)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Reset deletes every tally for a mode.
func (r *LeaderboardRepo) Reset(ctx context.Context, mode model.Mode) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM leaderboard WHERE mode = $1`, string(mode)); err != nil {
		return fmt.Errorf("reset leaderboard: %w", err)
	}
	return nil
}
