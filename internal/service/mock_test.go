package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Mark-Phillipson/Risk/internal/model"
	"github.com/Mark-Phillipson/Risk/pkg/geo"
	"github.com/Mark-Phillipson/Risk/pkg/region"
)

var errStoreDown = errors.New("store unavailable")

type mockRegionStore struct {
	mu       sync.Mutex
	data     map[string][]model.RegionRecord
	failSave  bool
	failLoad  bool
	failClear bool
	saves     int
}

func newMockRegionStore() *mockRegionStore {
	return &mockRegionStore{data: make(map[string][]model.RegionRecord)}
}

func (m *mockRegionStore) SaveRegions(_ context.Context, key string, records []model.RegionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave {
		return errStoreDown
	}
	m.saves++
	m.data[key] = append([]model.RegionRecord(nil), records...)
	return nil
}

func (m *mockRegionStore) LoadRegions(_ context.Context, key string) ([]model.RegionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failLoad {
		return nil, errStoreDown
	}
	return m.data[key], nil
}

func (m *mockRegionStore) ClearRegions(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failClear {
		return errStoreDown
	}
	delete(m.data, key)
	return nil
}

func (m *mockRegionStore) record(key, code string) (model.RegionRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.data[key] {
		if r.Code == code {
			return r, true
		}
	}
	return model.RegionRecord{}, false
}

type boardKey struct {
	mode   model.Mode
	player string
}

type mockLeaderboard struct {
	mu     sync.Mutex
	counts map[boardKey]int
}

func newMockLeaderboard() *mockLeaderboard {
	return &mockLeaderboard{counts: make(map[boardKey]int)}
}

func (m *mockLeaderboard) RecordConquest(_ context.Context, mode model.Mode, player string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[boardKey{mode, player}]++
	return nil
}

func (m *mockLeaderboard) Top(_ context.Context, mode model.Mode, limit int) ([]model.LeaderboardEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.LeaderboardEntry
	for k, n := range m.counts {
		if k.mode == mode {
			out = append(out, model.LeaderboardEntry{Player: k.player, Mode: mode, Conquests: n})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Conquests > out[j].Conquests })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockLeaderboard) Reset(_ context.Context, mode model.Mode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.counts {
		if k.mode == mode {
			delete(m.counts, k)
		}
	}
	return nil
}

func (m *mockLeaderboard) count(mode model.Mode, player string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[boardKey{mode, player}]
}

type mockSessionCache struct {
	mu      sync.Mutex
	touched map[string]time.Duration
	dropped []string
}

func newMockSessionCache() *mockSessionCache {
	return &mockSessionCache{touched: make(map[string]time.Duration)}
}

func (m *mockSessionCache) TouchSession(_ context.Context, id string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touched[id] = ttl
	return nil
}

func (m *mockSessionCache) DropSession(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropped = append(m.dropped, id)
	return nil
}

type broadcastEvent struct {
	sessionID string
	eventType string
	data      any
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []broadcastEvent
}

func (b *recordingBroadcaster) BroadcastSessionEvent(sessionID, eventType string, data any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, broadcastEvent{sessionID, eventType, data})
}

func (b *recordingBroadcaster) count(eventType string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, e := range b.events {
		if e.eventType == eventType {
			n++
		}
	}
	return n
}

type mockEnricher struct {
	calls int
}

func (m *mockEnricher) Enrich(_ context.Context, regions []model.Region) int {
	m.calls++
	for i := range regions {
		if regions[i].Code == "FRA" {
			regions[i].Capital = "Paris"
			return 1
		}
	}
	return 0
}

// square builds a 10x10 degree feature with its south-west corner at lat, lng.
func square(props region.Properties, lat, lng float64) region.Feature {
	return region.Feature{
		Properties: props,
		Shape: geo.Shape{Polygons: []geo.Polygon{{geo.Ring{
			{Lat: lat, Lng: lng}, {Lat: lat, Lng: lng + 10},
			{Lat: lat + 10, Lng: lng + 10}, {Lat: lat + 10, Lng: lng},
		}}}},
	}
}

func countryFeatures() []region.Feature {
	return []region.Feature{
		square(region.Properties{"iso_a3": "FRA", "name": "France", "continent": "Europe"}, 40, 0),
		square(region.Properties{"iso_a3": "DEU", "name": "Germany", "continent": "Europe"}, 40, 15),
		square(region.Properties{"iso_a3": "BRA", "name": "Brazil", "continent": "South America"}, -20, -60),
	}
}

func townFeatures(n int) []region.Feature {
	out := make([]region.Feature, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, square(region.Properties{"name": fmt.Sprintf("Town %02d", i)}, 50, -170+float64(i)*11))
	}
	return out
}
