package render

import (
	"math"

	"github.com/Mark-Phillipson/Risk/pkg/geo"
)

// LabelState is the placement of a region's label.
type LabelState int

const (
	LabelNone LabelState = iota
	LabelInline
	LabelOffshore
)

func (s LabelState) String() string {
	switch s {
	case LabelInline:
		return "inline"
	case LabelOffshore:
		return "offshore"
	}
	return "none"
}

// MarshalText lets label states serialize as their names.
func (s LabelState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

const (
	inlineClass   = "country-label"
	offshoreClass = "country-label offshore-label"

	connectorColor   = "#222"
	connectorWeight  = 1
	connectorOpacity = 0.8
	connectorDash    = "3,6"
)

type label struct {
	state     LabelState
	text      string
	at        geo.LatLng
	centroid  geo.LatLng
	arrowDeg  float64
	onSurface bool
}

// LabelInfo is the current label of a region.
type LabelInfo struct {
	State    LabelState `json:"state"`
	Text     string     `json:"text"`
	At       geo.LatLng `json:"at"`
	Centroid geo.LatLng `json:"centroid"`
	ArrowDeg float64    `json:"arrowDeg,omitempty"`
	Visible  bool       `json:"visible"`
}

// Label returns the label recorded for a region. Labels hidden by the zoom
// gate are still returned with Visible false.
func (e *Engine) Label(id string) (LabelInfo, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	en := e.lookupLocked(id)
	if en == nil {
		return LabelInfo{}, false
	}
	l, ok := e.labels[en.id]
	if !ok {
		return LabelInfo{State: LabelNone}, false
	}
	return LabelInfo{
		State:    l.state,
		Text:     l.text,
		At:       l.at,
		Centroid: l.centroid,
		ArrowDeg: l.arrowDeg,
		Visible:  l.onSurface,
	}, true
}

// anchorLocked returns the point a label hangs off: the largest ring centroid
// when it lies inside the shape, else the bounding box center, else the first
// point of the shape.
func (e *Engine) anchorLocked(en *entry, proj geo.Projector) (geo.LatLng, bool) {
	shape := en.feature.Shape
	if c, ok := geo.LargestRingCentroid(shape, proj); ok {
		if geo.Contains(shape, c) {
			return c, true
		}
		e.log.Debug().Str("id", en.id).Msg("Centroid outside shape, using bounds center")
	}
	if b, ok := geo.ShapeBounds(shape); ok {
		return b.Center(), true
	}
	return shape.FirstPoint()
}

func (e *Engine) isNarrow(box geo.PixelBox) bool {
	w, h := box.Width(), box.Height()
	if w > 0 && h/w > e.opts.NarrowAspect {
		return true
	}
	return w < e.opts.SmallSizePx && h < e.opts.SmallSizePx
}

// placeLabelLocked recomputes a region's label from scratch. Existing visuals
// are removed first so a region never has two labels.
func (e *Engine) placeLabelLocked(en *entry) {
	e.removeLabelVisualsLocked(en.id)
	if !e.labelsEnabled {
		delete(e.labels, en.id)
		return
	}

	proj := e.surface.Projector()
	anchor, ok := e.anchorLocked(en, proj)
	if !ok {
		delete(e.labels, en.id)
		return
	}

	l := &label{state: LabelInline, text: en.name, at: anchor, centroid: anchor}
	if box, ok := geo.PixelBounds(en.feature.Shape, proj); ok && e.isNarrow(box) {
		c := proj.Project(anchor)
		offset := math.Max(e.opts.OffshoreMinPx, box.Width()*e.opts.OffshoreFactor)
		p := geo.Point{X: c.X - offset, Y: c.Y}
		dx, dy := c.X-p.X, c.Y-p.Y
		l.state = LabelOffshore
		l.at = proj.Unproject(p)
		l.arrowDeg = math.Atan2(dy, dx)*180/math.Pi + 90
	}
	e.labels[en.id] = l
	e.obs.LabelPlaced(l.state)

	if e.surface.Zoom() >= e.opts.LabelZoomThreshold && e.labelVisibleLocked(en.id) {
		e.showLabelLocked(en.id, l)
	}
}

// labelVisibleLocked is false for every region but the focused one while in
// single-shape view.
func (e *Engine) labelVisibleLocked(id string) bool {
	return !e.focusing || id == e.focusID
}

func (e *Engine) showLabelLocked(id string, l *label) {
	m := Marker{At: l.at, Text: l.text, Class: inlineClass}
	if l.state == LabelOffshore {
		m.Class = offshoreClass
		m.Arrow = true
		m.ArrowDeg = l.arrowDeg
		e.surface.AddPolyline(ConnectorKey(id), Polyline{
			Points:  []geo.LatLng{l.centroid, l.at},
			Color:   connectorColor,
			Weight:  connectorWeight,
			Opacity: connectorOpacity,
			Dash:    connectorDash,
		})
	}
	e.surface.AddMarker(LabelKey(id), m)
	l.onSurface = true
}

func (e *Engine) removeLabelVisualsLocked(id string) {
	l, ok := e.labels[id]
	if !ok || !l.onSurface {
		return
	}
	e.surface.Remove(LabelKey(id))
	if l.state == LabelOffshore {
		e.surface.Remove(ConnectorKey(id))
	}
	l.onSurface = false
}

func (e *Engine) clearLabelLocked(id string) {
	e.removeLabelVisualsLocked(id)
	delete(e.labels, id)
}

func (e *Engine) recomputeLabelsLocked() {
	for _, en := range e.entries {
		if en.conquered {
			e.placeLabelLocked(en)
		} else {
			e.clearLabelLocked(en.id)
		}
	}
}

// SetLabelsEnabled switches labels on or off. Turning them off removes every
// label; turning them on recomputes labels for all conquered regions.
func (e *Engine) SetLabelsEnabled(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.labelsEnabled = on
	if !on {
		for id := range e.labels {
			e.clearLabelLocked(id)
		}
		return
	}
	e.recomputeLabelsLocked()
}

// LabelsEnabled reports the label toggle.
func (e *Engine) LabelsEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.labelsEnabled
}

// RecomputeLabels repositions every label for the current zoom.
func (e *Engine) RecomputeLabels() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.labelsEnabled {
		return
	}
	e.recomputeLabelsLocked()
}

// HandleZoomEnd must be called after the surface zoom changes outside the
// engine. Below the label threshold visuals are taken off the surface but
// kept on record; at or above it every label is recomputed.
func (e *Engine) HandleZoomEnd() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handleZoomEndLocked()
}

func (e *Engine) handleZoomEndLocked() {
	if e.surface.Zoom() < e.opts.LabelZoomThreshold {
		for id := range e.labels {
			e.removeLabelVisualsLocked(id)
		}
		return
	}
	if e.labelsEnabled {
		e.recomputeLabelsLocked()
	}
}
