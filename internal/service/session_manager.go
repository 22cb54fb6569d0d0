package service

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Mark-Phillipson/Risk/internal/datasource"
	"github.com/Mark-Phillipson/Risk/internal/metrics"
	"github.com/Mark-Phillipson/Risk/internal/model"
	"github.com/Mark-Phillipson/Risk/internal/repository"
	"github.com/Mark-Phillipson/Risk/pkg/region"
	"github.com/Mark-Phillipson/Risk/pkg/render"
	"github.com/Mark-Phillipson/Risk/pkg/scene"
)

// FeatureLoader reads the map features for a mode.
type FeatureLoader func(mode model.Mode) ([]region.Feature, error)

// DirLoader loads mode data files from dir.
func DirLoader(dir string) FeatureLoader {
	return func(mode model.Mode) ([]region.Feature, error) {
		return datasource.LoadMode(dir, mode)
	}
}

// CapitalEnricher fills in region capitals.
type CapitalEnricher interface {
	Enrich(ctx context.Context, regions []model.Region) int
}

// ManagerConfig wires a SessionManager.
type ManagerConfig struct {
	Loader      FeatureLoader
	Persistence *Persistence
	Cache       repository.SessionCache
	Broadcaster Broadcaster
	// Capitals enriches countries mode; nil skips enrichment.
	Capitals CapitalEnricher
	TTL      time.Duration
	Labels   bool
	Scene    scene.Config
	// Render overrides engine options. Labels, Observer and Logger are
	// filled in when left zero.
	Render render.Options
	Rand   *rand.Rand
}

// SessionManager creates, finds and evicts map sessions.
type SessionManager struct {
	cfg ManagerConfig
	log zerolog.Logger

	mu       sync.RWMutex
	sessions map[string]*MapSession

	featMu   sync.Mutex
	features map[model.Mode][]region.Feature
}

// NewSessionManager creates a SessionManager.
func NewSessionManager(cfg ManagerConfig) *SessionManager {
	if cfg.Broadcaster == nil {
		cfg.Broadcaster = NoopBroadcaster{}
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 2 * time.Hour
	}
	if cfg.Scene.Width == 0 {
		cfg.Scene = scene.DefaultConfig()
	}
	return &SessionManager{
		cfg:      cfg,
		log:      log.Logger.With().Str("component", "sessions").Logger(),
		sessions: make(map[string]*MapSession),
		features: make(map[model.Mode][]region.Feature),
	}
}

// TTL is how long an unused session lives.
func (m *SessionManager) TTL() time.Duration { return m.cfg.TTL }

// featuresFor loads and caches a mode's features. A load failure leaves the
// map empty and is retried on the next session.
func (m *SessionManager) featuresFor(mode model.Mode) []region.Feature {
	m.featMu.Lock()
	defer m.featMu.Unlock()
	if f, ok := m.features[mode]; ok {
		return f
	}
	if m.cfg.Loader == nil {
		return nil
	}
	f, err := m.cfg.Loader(mode)
	if err != nil {
		m.log.Warn().Err(err).Str("mode", string(mode)).Msg("Failed to load map data, starting with an empty map")
		return nil
	}
	m.features[mode] = f
	m.log.Info().Str("mode", string(mode)).Int("features", len(f)).Msg("Map data loaded")
	return f
}

// Create starts a session for mode, restores the mode's stored conquests and
// returns it.
func (m *SessionManager) Create(ctx context.Context, mode model.Mode, players []model.Player) (*MapSession, error) {
	mode, err := model.ParseMode(string(mode))
	if err != nil {
		return nil, ErrUnknownMode
	}

	features := m.featuresFor(mode)
	regions := datasource.Regions(mode, features)
	if mode == model.ModeKentTowns {
		regions = datasource.RandomSubset(regions, datasource.KentTownCount, m.cfg.Rand)
		features = datasource.FilterFeatures(features, regions)
	}
	if mode == model.ModeCountries && m.cfg.Capitals != nil {
		m.cfg.Capitals.Enrich(ctx, regions)
	}

	id := uuid.NewString()
	opts := m.cfg.Render
	opts.LabelsDisabled = !m.cfg.Labels
	if opts.Observer == nil {
		opts.Observer = metrics.RenderObserver{}
	}
	if opts.Logger == nil {
		l := m.log.With().Str("sessionId", id).Logger()
		opts.Logger = &l
	}

	sc := scene.New(m.cfg.Scene)
	eng := render.New(sc, opts)
	eng.Load(features)

	game := NewGameService(mode, regions)
	s := newMapSession(id, mode, eng, sc, game, m.cfg.Persistence, m.cfg.Broadcaster, m.log)
	if len(players) > 0 {
		if err := s.SetPlayers(players); err != nil {
			return nil, err
		}
	}
	s.Restore(ctx)

	m.mu.Lock()
	m.sessions[id] = s
	n := len(m.sessions)
	m.mu.Unlock()
	metrics.ActiveSessions.Set(float64(n))

	m.keepAlive(ctx, id)
	m.log.Info().Str("sessionId", id).Str("mode", string(mode)).Int("regions", len(regions)).Msg("Session created")
	return s, nil
}

func (m *SessionManager) keepAlive(ctx context.Context, id string) {
	if m.cfg.Cache == nil {
		return
	}
	if err := m.cfg.Cache.TouchSession(ctx, id, m.cfg.TTL); err != nil {
		m.log.Warn().Err(err).Str("sessionId", id).Msg("Failed to refresh session expiry")
	}
}

// Get returns a live session and extends its lifetime.
func (m *SessionManager) Get(ctx context.Context, id string) (*MapSession, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.touch()
	m.keepAlive(ctx, id)
	return s, nil
}

// List returns summaries of all live sessions.
func (m *SessionManager) List() []model.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s.Info())
	}
	return out
}

// Count returns the number of live sessions.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Delete ends a session.
func (m *SessionManager) Delete(ctx context.Context, id string) error {
	if !m.Evict(id) {
		return ErrSessionNotFound
	}
	if m.cfg.Cache != nil {
		if err := m.cfg.Cache.DropSession(ctx, id); err != nil {
			m.log.Warn().Err(err).Str("sessionId", id).Msg("Failed to drop session key")
		}
	}
	return nil
}

// Evict removes a session from memory and reports whether it existed.
func (m *SessionManager) Evict(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()
	if !ok {
		return false
	}
	metrics.ActiveSessions.Set(float64(n))
	s.close()
	m.log.Info().Str("sessionId", id).Msg("Session evicted")
	return true
}

// EvictIdle removes sessions unused since before now minus the TTL.
func (m *SessionManager) EvictIdle(now time.Time) int {
	cutoff := now.Add(-m.cfg.TTL)
	m.mu.RLock()
	var stale []string
	for id, s := range m.sessions {
		if s.LastSeen().Before(cutoff) {
			stale = append(stale, id)
		}
	}
	m.mu.RUnlock()

	n := 0
	for _, id := range stale {
		if m.Evict(id) {
			n++
		}
	}
	return n
}

// Leaderboard returns the top players for mode.
func (m *SessionManager) Leaderboard(ctx context.Context, mode model.Mode, limit int) ([]model.LeaderboardEntry, error) {
	return m.cfg.Persistence.Leaderboard(ctx, mode, limit)
}

// ResetLeaderboard clears the tallies for mode.
func (m *SessionManager) ResetLeaderboard(ctx context.Context, mode model.Mode) error {
	return m.cfg.Persistence.ResetLeaderboard(ctx, mode)
}
