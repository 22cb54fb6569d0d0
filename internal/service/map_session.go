package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/Mark-Phillipson/Risk/internal/model"
	"github.com/Mark-Phillipson/Risk/pkg/geo"
	"github.com/Mark-Phillipson/Risk/pkg/render"
	"github.com/Mark-Phillipson/Risk/pkg/scene"
)

// ConquestResult describes the outcome of a conquest.
type ConquestResult struct {
	Region model.Region  `json:"region"`
	Player *model.Player `json:"player,omitempty"`
	Next   *model.Player `json:"nextPlayer,omitempty"`
	// Applied is false when the region has no shape on the map, for example
	// a stored record whose code is not in the current data file.
	Applied bool `json:"applied"`
	Saved   bool `json:"saved"`
}

// MapSession is one live map: a render engine drawing on a scene, the
// ownership model behind it, and persistence of conquests for its mode.
type MapSession struct {
	ID        string
	Mode      model.Mode
	CreatedAt time.Time

	engine  *render.Engine
	scene   *scene.Scene
	game    *GameService
	persist *Persistence
	bc      Broadcaster
	log     zerolog.Logger

	// opMu serializes conquer, restore and reset flows.
	opMu     sync.Mutex
	lastSeen atomic.Int64
}

func newMapSession(id string, mode model.Mode, eng *render.Engine, sc *scene.Scene, game *GameService, persist *Persistence, bc Broadcaster, log zerolog.Logger) *MapSession {
	if bc == nil {
		bc = NoopBroadcaster{}
	}
	s := &MapSession{
		ID:        id,
		Mode:      mode,
		CreatedAt: time.Now().UTC(),
		engine:    eng,
		scene:     sc,
		game:      game,
		persist:   persist,
		bc:        bc,
		log:       log.With().Str("sessionId", id).Str("mode", string(mode)).Logger(),
	}
	s.touch()

	sc.SetListener(func(ev scene.Event) {
		s.bc.BroadcastSessionEvent(s.ID, EventScene, ev)
	})
	eng.OnClick(s.handleClick)
	game.OnClicked(func(code string) {
		reg, _ := game.Region(code)
		s.bc.BroadcastSessionEvent(s.ID, EventRegionClicked, reg)
	})
	game.OnConquered(func(code string) {
		reg, _ := game.Region(code)
		s.bc.BroadcastSessionEvent(s.ID, EventRegionConquered, reg)
	})
	return s
}

// Engine returns the session's render engine.
func (s *MapSession) Engine() *render.Engine { return s.engine }

// Scene returns the surface the engine draws on.
func (s *MapSession) Scene() *scene.Scene { return s.scene }

// Game returns the ownership model.
func (s *MapSession) Game() *GameService { return s.game }

func (s *MapSession) touch() { s.lastSeen.Store(time.Now().UnixNano()) }

// LastSeen is when the session was last used.
func (s *MapSession) LastSeen() time.Time { return time.Unix(0, s.lastSeen.Load()) }

// Info summarizes the session.
func (s *MapSession) Info() model.Session {
	info := model.Session{
		ID:        s.ID,
		Mode:      s.Mode,
		Players:   s.game.Players(),
		Turn:      s.game.Turn(),
		Regions:   len(s.game.Regions()),
		Conquered: s.game.ConqueredCount(),
		Labels:    s.engine.LabelsEnabled(),
		CreatedAt: s.CreatedAt,
	}
	if p, ok := s.game.CurrentPlayer(); ok {
		info.Current = &p
	}
	return info
}

// SetPlayers replaces the players and restarts the turn order.
func (s *MapSession) SetPlayers(players []model.Player) error {
	s.touch()
	if err := s.game.SetPlayers(players); err != nil {
		return err
	}
	s.broadcastTurn()
	return nil
}

func (s *MapSession) broadcastTurn() {
	p, ok := s.game.CurrentPlayer()
	if !ok {
		return
	}
	s.bc.BroadcastSessionEvent(s.ID, EventTurnChanged, map[string]any{
		"turn":   s.game.Turn(),
		"player": p,
	})
}

func (s *MapSession) resolveRegion(code string) (model.Region, bool) {
	if info, ok := s.engine.Region(code); ok {
		if r, ok := s.game.Region(info.ID); ok {
			return r, true
		}
	}
	return s.game.Lookup(code)
}

// Conquer gives a region to the current player. It styles the region, saves
// the mode's records, credits the leaderboard and passes the turn. A blank
// color uses the player's color, then the engine default. Saving is best
// effort: a failed save is logged and reported in the result.
func (s *MapSession) Conquer(ctx context.Context, code, color string) (ConquestResult, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.touch()

	reg, ok := s.resolveRegion(code)
	if !ok {
		return ConquestResult{}, ErrRegionNotFound
	}
	player, hasPlayer := s.game.CurrentPlayer()
	if color == "" {
		color = player.Color
	}

	res := ConquestResult{}
	res.Applied = s.engine.ApplyConquered(reg.Code, color)
	if info, ok := s.engine.Region(reg.Code); ok && info.Color != "" {
		color = info.Color
	}

	if !hasPlayer {
		s.game.Conquer(reg.Code, model.Player{}, color)
	}
	s.game.RaiseConquered(reg.Code, color)
	res.Region, _ = s.game.Region(reg.Code)

	if err := s.persist.Save(ctx, s.Mode, s.game.Records()); err != nil {
		s.log.Warn().Err(err).Str("code", reg.Code).Msg("Failed to save conquest")
	} else {
		res.Saved = true
	}

	if hasPlayer {
		res.Player = &player
		s.persist.RecordConquest(ctx, s.Mode, player.Name)
		s.game.NextTurn()
		if next, ok := s.game.CurrentPlayer(); ok {
			res.Next = &next
		}
		s.broadcastTurn()
	}

	s.log.Info().Str("code", reg.Code).Str("owner", res.Region.Owner).Bool("applied", res.Applied).Msg("Region conquered")
	return res, nil
}

func (s *MapSession) handleClick(ev render.ClickEvent) {
	s.game.RaiseClicked(ev.ID)
	if !s.Mode.ConquerOnClick() || ev.Conquered {
		return
	}
	if _, err := s.Conquer(context.Background(), ev.ID, ""); err != nil {
		s.log.Debug().Err(err).Str("code", ev.ID).Msg("Conquer on click failed")
	}
}

// Click clicks a region by identifier.
func (s *MapSession) Click(code string) bool {
	s.touch()
	return s.engine.Click(code)
}

// ClickAt clicks whatever region contains ll.
func (s *MapSession) ClickAt(ll geo.LatLng) (string, bool) {
	s.touch()
	return s.engine.ClickAt(ll)
}

// ApplyBatch styles many regions at once. It changes only the map; ownership
// and storage are untouched.
func (s *MapSession) ApplyBatch(ids []string, colors render.Colors) render.BatchResult {
	s.touch()
	res := s.engine.ApplyConqueredBatch(ids, colors)
	s.bc.BroadcastSessionEvent(s.ID, EventBatchApplied, res)
	return res
}

// Restore merges the mode's stored records into the game and redraws every
// conquered region with its stored color. Unreadable storage restores
// nothing.
func (s *MapSession) Restore(ctx context.Context) render.BatchResult {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.touch()

	s.game.MergePersisted(s.persist.Load(ctx, s.Mode))

	var ids, colors []string
	for _, r := range s.game.Regions() {
		if r.IsConquered {
			ids = append(ids, r.Code)
			colors = append(colors, r.Color)
		}
	}
	if len(ids) == 0 {
		return render.BatchResult{}
	}
	res := s.engine.ApplyConqueredBatch(ids, render.ColorList(colors...))
	s.log.Info().Int("restored", len(ids)).Int("unmatched", len(res.Unmatched)).Msg("Conquests restored")
	return res
}

// Reset clears the map, the ownership model and the mode's stored records.
func (s *MapSession) Reset(ctx context.Context) {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	s.touch()

	s.engine.ClearAll()
	s.game.Reset()
	s.persist.Clear(ctx, s.Mode)
	s.bc.BroadcastSessionEvent(s.ID, EventSessionReset, nil)
}

// Snapshot returns a copy of the scene.
func (s *MapSession) Snapshot() scene.Snapshot {
	s.touch()
	return s.scene.Snapshot()
}

// close tells subscribers the session is gone and cancels pending engine work.
func (s *MapSession) close() {
	s.engine.ClearAll()
	s.bc.BroadcastSessionEvent(s.ID, EventSessionClosed, nil)
}
