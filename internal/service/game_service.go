package service

import (
	"errors"
	"strings"
	"sync"

	"github.com/Mark-Phillipson/Risk/internal/model"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrUnknownMode     = errors.New("unknown mode")
	ErrRegionNotFound  = errors.New("region not found")
	ErrNoPlayers       = errors.New("session has no players")
	ErrInvalidPlayer   = errors.New("player name is required")
)

// GameService holds turn order and region ownership for one session.
type GameService struct {
	mu      sync.Mutex
	mode    model.Mode
	players []model.Player
	turn    int
	regions []model.Region

	onClicked   func(code string)
	onConquered func(code string)
}

// NewGameService creates a game over regions. The slice is copied.
func NewGameService(mode model.Mode, regions []model.Region) *GameService {
	rs := make([]model.Region, len(regions))
	copy(rs, regions)
	return &GameService{mode: mode, regions: rs}
}

// Mode returns the game's mode.
func (g *GameService) Mode() model.Mode { return g.mode }

// SetPlayers replaces the player list and restarts the turn order.
func (g *GameService) SetPlayers(players []model.Player) error {
	for _, p := range players {
		if strings.TrimSpace(p.Name) == "" {
			return ErrInvalidPlayer
		}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.players = append([]model.Player(nil), players...)
	g.turn = 0
	return nil
}

// Players returns a copy of the player list.
func (g *GameService) Players() []model.Player {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]model.Player(nil), g.players...)
}

// Turn returns the number of turns taken.
func (g *GameService) Turn() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.turn
}

// CurrentPlayer returns whose turn it is.
func (g *GameService) CurrentPlayer() (model.Player, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.currentLocked()
}

func (g *GameService) currentLocked() (model.Player, bool) {
	if len(g.players) == 0 {
		return model.Player{}, false
	}
	return g.players[g.turn%max(1, len(g.players))], true
}

// NextTurn advances to the next player.
func (g *GameService) NextTurn() {
	g.mu.Lock()
	g.turn++
	g.mu.Unlock()
}

func (g *GameService) findLocked(code string) int {
	for i := range g.regions {
		if strings.EqualFold(g.regions[i].Code, code) {
			return i
		}
	}
	return -1
}

// Region returns one region by code.
func (g *GameService) Region(code string) (model.Region, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if i := g.findLocked(code); i >= 0 {
		return g.regions[i], true
	}
	return model.Region{}, false
}

// Lookup finds a region by code, then by display name.
func (g *GameService) Lookup(key string) (model.Region, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if i := g.findLocked(key); i >= 0 {
		return g.regions[i], true
	}
	for _, r := range g.regions {
		if r.Name != "" && strings.EqualFold(r.Name, strings.TrimSpace(key)) {
			return r, true
		}
	}
	return model.Region{}, false
}

// Regions returns a copy of all regions.
func (g *GameService) Regions() []model.Region {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]model.Region(nil), g.regions...)
}

// Records returns the persisted form of every region.
func (g *GameService) Records() []model.RegionRecord {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]model.RegionRecord, 0, len(g.regions))
	for _, r := range g.regions {
		out = append(out, r.Record())
	}
	return out
}

// ConqueredCount returns how many regions are owned.
func (g *GameService) ConqueredCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, r := range g.regions {
		if r.IsConquered {
			n++
		}
	}
	return n
}

// Conquer marks a region as owned by p with color. It reports whether the
// region exists.
func (g *GameService) Conquer(code string, p model.Player, color string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := g.findLocked(code)
	if i < 0 {
		return false
	}
	g.regions[i].IsConquered = true
	g.regions[i].Owner = p.Name
	g.regions[i].Color = color
	return true
}

// MergePersisted folds stored records into the regions, matching codes
// without regard to case. Records for unknown codes are appended so their
// state is not lost on the next save.
func (g *GameService) MergePersisted(records []model.RegionRecord) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, rec := range records {
		if rec.Code == "" {
			continue
		}
		i := g.findLocked(rec.Code)
		if i < 0 {
			g.regions = append(g.regions, model.Region{
				Code:        rec.Code,
				IsConquered: rec.IsConquered,
				Owner:       rec.Owner,
				Color:       rec.Color,
				Capital:     rec.Capital,
			})
			continue
		}
		r := &g.regions[i]
		r.IsConquered = rec.IsConquered
		r.Owner = rec.Owner
		r.Color = rec.Color
		if rec.Capital != "" {
			r.Capital = rec.Capital
		}
	}
}

// Reset clears all ownership and restarts the turn order.
func (g *GameService) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range g.regions {
		g.regions[i].IsConquered = false
		g.regions[i].Owner = ""
		g.regions[i].Color = ""
	}
	g.turn = 0
}

// OnClicked sets the click notification handler.
func (g *GameService) OnClicked(fn func(code string)) {
	g.mu.Lock()
	g.onClicked = fn
	g.mu.Unlock()
}

// OnConquered sets the conquest notification handler.
func (g *GameService) OnConquered(fn func(code string)) {
	g.mu.Lock()
	g.onConquered = fn
	g.mu.Unlock()
}

// RaiseClicked notifies the click handler.
func (g *GameService) RaiseClicked(code string) {
	g.mu.Lock()
	fn := g.onClicked
	g.mu.Unlock()
	if fn != nil {
		fn(code)
	}
}

// RaiseConquered marks the region as owned by the current player, when there
// is one, and notifies the conquest handler.
func (g *GameService) RaiseConquered(code, color string) {
	g.mu.Lock()
	if p, ok := g.currentLocked(); ok && code != "" {
		if i := g.findLocked(code); i >= 0 {
			g.regions[i].IsConquered = true
			g.regions[i].Owner = p.Name
			g.regions[i].Color = color
		}
	}
	fn := g.onConquered
	g.mu.Unlock()
	if fn != nil {
		fn(code)
	}
}
