package render

import (
	"math"
	"strings"

	"github.com/Mark-Phillipson/Risk/pkg/geo"
)

func (e *Engine) clampZoom(z float64) float64 {
	return math.Max(e.surface.MinZoom(), math.Min(e.surface.MaxZoom(), z))
}

// SetView moves the map and applies the label zoom gate.
func (e *Engine) SetView(center geo.LatLng, zoom float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.surface.SetView(center, e.clampZoom(zoom))
	e.handleZoomEndLocked()
}

// SetZoom changes zoom around the current center, clamped to the surface
// limits.
func (e *Engine) SetZoom(z float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.surface.SetView(e.surface.Center(), e.clampZoom(z))
	e.handleZoomEndLocked()
}

// Zoom returns the current zoom.
func (e *Engine) Zoom() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.surface.Zoom()
}

// MinZoom returns the surface's minimum zoom.
func (e *Engine) MinZoom() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.surface.MinZoom()
}

// MaxZoom returns the surface's maximum zoom.
func (e *Engine) MaxZoom() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.surface.MaxZoom()
}

func (e *Engine) matchesGroup(en *entry, name string) bool {
	if strings.EqualFold(en.name, name) {
		return true
	}
	for _, k := range e.opts.GroupKeys {
		if v := en.feature.Properties.String(k); v != "" && strings.EqualFold(v, name) {
			return true
		}
	}
	return false
}

// ZoomToRegionGroup frames every region whose group property or name matches
// name. When nothing matches, a built-in approximate box for well-known
// group names is used. It returns false if neither applies.
func (e *Engine) ZoomToRegionGroup(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	b := geo.EmptyBounds()
	for _, en := range e.entries {
		if !e.matchesGroup(en, name) {
			continue
		}
		if sb, ok := geo.ShapeBounds(en.feature.Shape); ok {
			b = b.Union(sb)
		}
	}
	if !b.IsValid() {
		fb, ok := e.opts.GroupBoxes[strings.ToLower(name)]
		if !ok {
			e.log.Debug().Str("group", name).Msg("No regions or fallback box for group")
			return false
		}
		b = fb
	}
	e.surface.FitBounds(b, e.opts.FitPadding, 0)
	e.handleZoomEndLocked()
	return true
}

// ZoomToFeature frames one region, looked up by identifier and then by
// display name. Regions with a degenerate extent are centered instead.
func (e *Engine) ZoomToFeature(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	en := e.lookupLocked(strings.TrimSpace(id))
	if en == nil {
		en = e.lookupByNameLocked(id)
	}
	if en == nil {
		return false
	}
	if b, ok := geo.ShapeBounds(en.feature.Shape); ok && b.SW != b.NE {
		e.surface.FitBounds(b, e.opts.FitPadding, 0)
		e.handleZoomEndLocked()
		return true
	}
	anchor, ok := e.anchorLocked(en, e.surface.Projector())
	if !ok {
		return false
	}
	z := e.surface.Zoom() + e.opts.FeatureZoomBump
	z = math.Max(e.opts.FeatureZoomFloor, math.Min(e.opts.FeatureZoomCeil, z))
	e.surface.SetView(anchor, e.clampZoom(z))
	e.handleZoomEndLocked()
	return true
}

// ResetView returns to the view the engine started with.
func (e *Engine) ResetView() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.surface.SetView(e.initialCenter, e.clampZoom(e.initialZoom))
	e.handleZoomEndLocked()
}

// HandleKey handles map keyboard shortcuts and reports whether the key was
// consumed.
func (e *Engine) HandleKey(key string) bool {
	switch key {
	case "Home", "0", "Numpad0":
		e.ResetView()
		return true
	}
	return false
}

// FocusElement focuses a UI element hosted by the surface. If the element is
// not there yet it is polled for until it appears or the attempts run out.
// It returns true only when focus succeeded immediately. Surfaces without
// focusable elements always return false.
func (e *Engine) FocusElement(elementID string, selectText bool) bool {
	f, ok := e.surface.(Focuser)
	if !ok || elementID == "" {
		return false
	}

	e.mu.Lock()
	e.focusGen++
	gen := e.focusGen
	if e.focusTask != nil {
		e.focusTask.Stop()
		e.focusTask = nil
	}
	e.mu.Unlock()

	if f.Focus(elementID, selectText) {
		return true
	}

	// current reports whether this call is still the latest FocusElement.
	current := func() bool {
		e.mu.Lock()
		defer e.mu.Unlock()
		return gen == e.focusGen
	}
	attempts := 1
	var poll func()
	poll = func() {
		if !current() || f.Focus(elementID, selectText) {
			return
		}
		attempts++
		if attempts >= e.opts.FocusAttempts {
			e.log.Debug().Str("element", elementID).Msg("Gave up waiting for element")
			return
		}
		e.mu.Lock()
		defer e.mu.Unlock()
		if gen != e.focusGen {
			return
		}
		e.focusTask = e.sched.AfterFunc(e.opts.FocusInterval, poll)
	}
	e.mu.Lock()
	if gen == e.focusGen {
		e.focusTask = e.sched.AfterFunc(e.opts.FocusInterval, poll)
	}
	e.mu.Unlock()
	return false
}

// FocusShape shows only one region, outlined, and frames it. Other labels
// are taken off the surface but kept on record. Ownership is not changed;
// ShowAll restores every region's style and label.
func (e *Engine) FocusShape(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	target := e.lookupLocked(id)
	if target == nil {
		return false
	}
	e.focusing = true
	e.focusID = target.id
	for _, en := range e.entries {
		if en == target {
			continue
		}
		e.surface.SetShapeStyle(ShapeKey(en.id), HiddenStyle())
		e.removeLabelVisualsLocked(en.id)
	}
	e.surface.SetShapeStyle(ShapeKey(target.id), Style{
		Color:       e.opts.OutlineColor,
		Weight:      2,
		Opacity:     1,
		FillColor:   e.opts.DefaultColor,
		FillOpacity: 0.3,
	})
	if b, ok := geo.ShapeBounds(target.feature.Shape); ok {
		e.surface.FitBounds(b, e.opts.FitPadding, e.opts.FocusMaxZoom)
		e.handleZoomEndLocked()
	}
	return true
}

// ShowAll leaves single-shape view.
func (e *Engine) ShowAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.focusing {
		return
	}
	e.focusing = false
	e.focusID = ""
	for _, en := range e.entries {
		e.surface.SetShapeStyle(ShapeKey(en.id), en.style)
	}
	e.handleZoomEndLocked()
}

// Groups returns the distinct group values of the loaded regions.
func (e *Engine) Groups() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	seen := make(map[string]bool)
	var out []string
	for _, en := range e.entries {
		g := en.group
		if g == "" || seen[strings.ToLower(g)] {
			continue
		}
		seen[strings.ToLower(g)] = true
		out = append(out, g)
	}
	return out
}
