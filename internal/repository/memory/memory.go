// Package memory holds process-local stores used when no external backend is
// configured, and in tests. State is lost on restart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Mark-Phillipson/Risk/internal/model"
)

// RegionStore keeps conquest records in a map.
type RegionStore struct {
	mu   sync.RWMutex
	data map[string][]model.RegionRecord
}

// NewRegionStore creates an empty store.
func NewRegionStore() *RegionStore {
	return &RegionStore{data: make(map[string][]model.RegionRecord)}
}

// SaveRegions stores a copy of records.
func (s *RegionStore) SaveRegions(_ context.Context, key string, records []model.RegionRecord) error {
	cp := make([]model.RegionRecord, len(records))
	copy(cp, records)
	s.mu.Lock()
	s.data[key] = cp
	s.mu.Unlock()
	return nil
}

// LoadRegions returns a copy of the stored records.
func (s *RegionStore) LoadRegions(_ context.Context, key string) ([]model.RegionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records, ok := s.data[key]
	if !ok {
		return nil, nil
	}
	cp := make([]model.RegionRecord, len(records))
	copy(cp, records)
	return cp, nil
}

// ClearRegions deletes the records for key.
func (s *RegionStore) ClearRegions(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.data, key)
	s.mu.Unlock()
	return nil
}

// TouchSession is a no-op; idle sessions are found by the poller.
func (s *RegionStore) TouchSession(context.Context, string, time.Duration) error { return nil }

// DropSession is a no-op.
func (s *RegionStore) DropSession(context.Context, string) error { return nil }

// Leaderboard counts conquests in memory.
type Leaderboard struct {
	mu     sync.Mutex
	counts map[model.Mode]map[string]*model.LeaderboardEntry
}

// NewLeaderboard creates an empty leaderboard.
func NewLeaderboard() *Leaderboard {
	return &Leaderboard{counts: make(map[model.Mode]map[string]*model.LeaderboardEntry)}
}

// RecordConquest adds one conquest for player.
func (l *Leaderboard) RecordConquest(_ context.Context, mode model.Mode, player string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	byPlayer, ok := l.counts[mode]
	if !ok {
		byPlayer = make(map[string]*model.LeaderboardEntry)
		l.counts[mode] = byPlayer
	}
	e, ok := byPlayer[player]
	if !ok {
		e = &model.LeaderboardEntry{Player: player, Mode: mode}
		byPlayer[player] = e
	}
	e.Conquests++
	e.UpdatedAt = time.Now()
	return nil
}

// Top returns the leading players, most conquests first.
func (l *Leaderboard) Top(_ context.Context, mode model.Mode, limit int) ([]model.LeaderboardEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.LeaderboardEntry, 0, len(l.counts[mode]))
	for _, e := range l.counts[mode] {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Conquests != out[j].Conquests {
			return out[i].Conquests > out[j].Conquests
		}
		return out[i].Player < out[j].Player
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Reset forgets every tally for mode.
func (l *Leaderboard) Reset(_ context.Context, mode model.Mode) error {
	l.mu.Lock()
	delete(l.counts, mode)
	l.mu.Unlock()
	return nil
}
