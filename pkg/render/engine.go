// Package render maps region identifiers to shapes on a map surface, keeps
// conquered regions styled and labelled, and drives the viewport.
//
// An Engine owns all state for one map. Its methods are safe for concurrent
// use; the delayed batch retry and focus polling run on the engine's
// Scheduler and take the same lock.
package render

import (
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Mark-Phillipson/Risk/pkg/geo"
	"github.com/Mark-Phillipson/Risk/pkg/region"
)

// ClickEvent is delivered to the click handler.
type ClickEvent struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Conquered bool   `json:"conquered"`
	Color     string `json:"color,omitempty"`
}

// RegionInfo describes one indexed region.
type RegionInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Group     string `json:"group,omitempty"`
	Conquered bool   `json:"conquered"`
	Color     string `json:"color,omitempty"`
	Style     Style  `json:"style"`
}

type entry struct {
	id        string
	name      string
	group     string
	feature   region.Feature
	style     Style
	conquered bool
	color     string
	seq       uint64
}

// Engine renders region ownership onto a Surface.
type Engine struct {
	mu      sync.Mutex
	surface Surface
	opts    Options
	log     zerolog.Logger
	sched   Scheduler
	obs     Observer

	entries []*entry
	index   map[string]*entry
	labels  map[string]*label

	labelsEnabled bool
	focusing      bool
	onClick       func(ClickEvent)

	retry      Task
	generation uint64
	applySeq   uint64
	focusTask  Task
	focusGen   uint64
	focusID    string

	initialCenter geo.LatLng
	initialZoom   float64
}

// New creates an engine drawing on s and moves s to the initial view.
func New(s Surface, opts Options) *Engine {
	opts = opts.withDefaults()
	e := &Engine{
		surface:       s,
		opts:          opts,
		log:           opts.logger().With().Str("component", "render").Logger(),
		sched:         opts.Scheduler,
		obs:           opts.Observer,
		index:         make(map[string]*entry),
		labels:        make(map[string]*label),
		labelsEnabled: !opts.LabelsDisabled,
		initialCenter: opts.InitialCenter,
		initialZoom:   opts.InitialZoom,
	}
	s.SetView(e.initialCenter, e.clampZoom(e.initialZoom))
	return e
}

// HiddenStyle is the style of a region nobody owns.
func HiddenStyle() Style {
	return Style{Color: "transparent", Weight: 1, Opacity: 1, FillColor: "transparent", FillOpacity: 0}
}

func (e *Engine) conqueredStyle(color string) Style {
	return Style{
		Color:       e.opts.OutlineColor,
		Weight:      1,
		Opacity:     1,
		FillColor:   color,
		FillOpacity: e.opts.FillOpacity,
	}
}

// Load indexes features and adds their shapes to the surface. Features
// without a resolvable identifier are skipped. A feature whose identifier is
// already indexed is merged into the existing region. Load can be called more
// than once; the index only grows.
func (e *Engine) Load(features []region.Feature) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	added := 0
	for _, f := range features {
		id := region.ResolveIdentifier(f)
		if id == "" {
			e.log.Debug().Int("properties", len(f.Properties)).Msg("Skipping feature without identifier")
			continue
		}
		if existing, ok := e.index[id]; ok && existing.id == id {
			existing.feature.Shape.Polygons = append(existing.feature.Shape.Polygons, f.Shape.Polygons...)
			e.surface.AddShape(ShapeKey(existing.id), existing.feature.Shape, existing.style)
			continue
		}
		en := &entry{
			id:      id,
			name:    region.ResolveName(f, id),
			group:   region.ResolveGroup(f, e.opts.GroupKeys),
			feature: f,
			style:   HiddenStyle(),
		}
		e.entries = append(e.entries, en)
		for _, k := range []string{id, strings.ToUpper(id), strings.ToLower(id)} {
			if _, ok := e.index[k]; !ok {
				e.index[k] = en
			}
		}
		e.surface.AddShape(ShapeKey(id), f.Shape, en.style)
		added++
	}
	e.log.Debug().Int("added", added).Int("total", len(e.entries)).Msg("Regions indexed")
	return added
}

// lookupLocked probes raw, upper and lower forms.
func (e *Engine) lookupLocked(id string) *entry {
	if id == "" {
		return nil
	}
	if en, ok := e.index[id]; ok {
		return en
	}
	if en, ok := e.index[strings.ToUpper(id)]; ok {
		return en
	}
	if en, ok := e.index[strings.ToLower(id)]; ok {
		return en
	}
	return nil
}

func (e *Engine) lookupByNameLocked(name string) *entry {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	for _, en := range e.entries {
		if strings.EqualFold(en.name, name) {
			return en
		}
	}
	return nil
}

// Has reports whether id resolves to an indexed region.
func (e *Engine) Has(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lookupLocked(id) != nil
}

// Regions lists indexed regions in load order.
func (e *Engine) Regions() []RegionInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]RegionInfo, 0, len(e.entries))
	for _, en := range e.entries {
		out = append(out, en.info())
	}
	return out
}

// Region returns one region by identifier.
func (e *Engine) Region(id string) (RegionInfo, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	en := e.lookupLocked(id)
	if en == nil {
		return RegionInfo{}, false
	}
	return en.info(), true
}

// Feature returns the source feature of a region.
func (e *Engine) Feature(id string) (region.Feature, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	en := e.lookupLocked(id)
	if en == nil {
		return region.Feature{}, false
	}
	return en.feature, true
}

func (en *entry) info() RegionInfo {
	return RegionInfo{
		ID:        en.id,
		Name:      en.name,
		Group:     en.group,
		Conquered: en.conquered,
		Color:     en.color,
		Style:     en.style,
	}
}

// OnClick sets the handler for region clicks. The handler runs without the
// engine lock held and may call back into the engine.
func (e *Engine) OnClick(fn func(ClickEvent)) {
	e.mu.Lock()
	e.onClick = fn
	e.mu.Unlock()
}

// Click simulates a click on the region with the given identifier.
func (e *Engine) Click(id string) bool {
	e.mu.Lock()
	en := e.lookupLocked(id)
	if en == nil {
		e.mu.Unlock()
		return false
	}
	ev := ClickEvent{ID: en.id, Name: en.name, Conquered: en.conquered, Color: en.color}
	fn := e.onClick
	e.mu.Unlock()

	if fn != nil {
		fn(ev)
	}
	return true
}

// ClickAt hit-tests a coordinate and clicks the first region containing it.
func (e *Engine) ClickAt(ll geo.LatLng) (string, bool) {
	e.mu.Lock()
	var hit string
	for _, en := range e.entries {
		if geo.Contains(en.feature.Shape, ll) {
			hit = en.id
			break
		}
	}
	e.mu.Unlock()
	if hit == "" {
		return "", false
	}
	return hit, e.Click(hit)
}
