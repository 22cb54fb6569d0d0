// Package scene is an in-memory map surface. It keeps the visuals the render
// engine draws, computes views the way slippy web maps do, and reports every
// change to a listener so remote clients can mirror it.
package scene

import (
	"math"
	"sort"
	"sync"

	"github.com/Mark-Phillipson/Risk/pkg/geo"
	"github.com/Mark-Phillipson/Risk/pkg/render"
)

// Event types sent to listeners.
const (
	EventView     = "view"
	EventShape    = "shape"
	EventStyle    = "style"
	EventMarker   = "marker"
	EventPolyline = "polyline"
	EventRemove   = "remove"
	EventFocus    = "focus"
)

// Event describes one change to the scene.
type Event struct {
	Type    string `json:"type"`
	Key     string `json:"key,omitempty"`
	Version uint64 `json:"version"`
	Data    any    `json:"data,omitempty"`
}

// ViewData is the payload of a view event.
type ViewData struct {
	Center geo.LatLng `json:"center"`
	Zoom   float64    `json:"zoom"`
}

// FocusData is the payload of a focus event.
type FocusData struct {
	Element    string `json:"element"`
	SelectText bool   `json:"selectText"`
}

// ShapeLayer is a shape with its style.
type ShapeLayer struct {
	Key   string       `json:"key"`
	Shape geo.Shape    `json:"shape"`
	Style render.Style `json:"style"`
}

// MarkerLayer is a keyed marker.
type MarkerLayer struct {
	Key    string        `json:"key"`
	Marker render.Marker `json:"marker"`
}

// PolylineLayer is a keyed polyline.
type PolylineLayer struct {
	Key      string          `json:"key"`
	Polyline render.Polyline `json:"polyline"`
}

// Config sizes the viewport.
type Config struct {
	Width   int
	Height  int
	MinZoom float64
	MaxZoom float64
}

// DefaultConfig matches a typical desktop browser map.
func DefaultConfig() Config {
	return Config{Width: 1024, Height: 768, MinZoom: 1, MaxZoom: 18}
}

// Scene implements render.Surface and render.Focuser.
type Scene struct {
	mu  sync.RWMutex
	cfg Config

	center geo.LatLng
	zoom   float64

	shapes     map[string]*ShapeLayer
	shapeOrder []string
	markers    map[string]render.Marker
	polylines  map[string]render.Polyline
	elements   map[string]bool

	version  uint64
	listener func(Event)
}

// New creates an empty scene.
func New(cfg Config) *Scene {
	d := DefaultConfig()
	if cfg.Width <= 0 {
		cfg.Width = d.Width
	}
	if cfg.Height <= 0 {
		cfg.Height = d.Height
	}
	if cfg.MaxZoom == 0 {
		cfg.MinZoom, cfg.MaxZoom = d.MinZoom, d.MaxZoom
	}
	return &Scene{
		cfg:       cfg,
		zoom:      cfg.MinZoom,
		shapes:    make(map[string]*ShapeLayer),
		markers:   make(map[string]render.Marker),
		polylines: make(map[string]render.Polyline),
		elements:  make(map[string]bool),
	}
}

// SetListener installs the change listener. It is called after the scene
// lock is released, in the goroutine that made the change.
func (s *Scene) SetListener(fn func(Event)) {
	s.mu.Lock()
	s.listener = fn
	s.mu.Unlock()
}

// emitLocked bumps the version and returns the function that delivers the
// event once the caller has unlocked.
func (s *Scene) emitLocked(typ, key string, data any) func() {
	s.version++
	fn := s.listener
	if fn == nil {
		return func() {}
	}
	ev := Event{Type: typ, Key: key, Version: s.version, Data: data}
	return func() { fn(ev) }
}

// Version increases with every change.
func (s *Scene) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Projector implements render.Surface.
func (s *Scene) Projector() geo.Projector {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return geo.WebMercator{Zoom: s.zoom}
}

// Center implements render.Surface.
func (s *Scene) Center() geo.LatLng {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.center
}

// Zoom implements render.Surface.
func (s *Scene) Zoom() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.zoom
}

// MinZoom implements render.Surface.
func (s *Scene) MinZoom() float64 { return s.cfg.MinZoom }

// MaxZoom implements render.Surface.
func (s *Scene) MaxZoom() float64 { return s.cfg.MaxZoom }

func (s *Scene) clamp(z, maxZoom float64) float64 {
	hi := s.cfg.MaxZoom
	if maxZoom > 0 && maxZoom < hi {
		hi = maxZoom
	}
	return math.Max(s.cfg.MinZoom, math.Min(hi, z))
}

// SetView implements render.Surface.
func (s *Scene) SetView(center geo.LatLng, zoom float64) {
	s.mu.Lock()
	s.center = center
	s.zoom = s.clamp(zoom, 0)
	emit := s.emitLocked(EventView, "", ViewData{Center: s.center, Zoom: s.zoom})
	s.mu.Unlock()
	emit()
}

// BoundsZoom returns the largest whole zoom at which b fits in the viewport
// with padding on every side.
func (s *Scene) BoundsZoom(b geo.Bounds, padding, maxZoom float64) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.boundsZoomLocked(b, padding, maxZoom)
}

func (s *Scene) boundsZoomLocked(b geo.Bounds, padding, maxZoom float64) float64 {
	m := geo.WebMercator{Zoom: s.zoom}
	nw := m.Project(geo.LatLng{Lat: b.NE.Lat, Lng: b.SW.Lng})
	se := m.Project(geo.LatLng{Lat: b.SW.Lat, Lng: b.NE.Lng})
	bw, bh := se.X-nw.X, se.Y-nw.Y
	vw := float64(s.cfg.Width) - 2*padding
	vh := float64(s.cfg.Height) - 2*padding
	if bw <= 0 && bh <= 0 {
		return s.clamp(s.cfg.MaxZoom, maxZoom)
	}
	scale := math.Inf(1)
	if bw > 0 {
		scale = vw / bw
	}
	if bh > 0 {
		scale = math.Min(scale, vh/bh)
	}
	z := math.Floor(s.zoom + math.Log2(scale))
	return s.clamp(z, maxZoom)
}

// FitBounds implements render.Surface.
func (s *Scene) FitBounds(b geo.Bounds, padding, maxZoom float64) {
	if !b.IsValid() {
		return
	}
	s.mu.Lock()
	z := s.boundsZoomLocked(b, padding, maxZoom)
	m := geo.WebMercator{Zoom: z}
	sw, ne := m.Project(b.SW), m.Project(b.NE)
	s.center = m.Unproject(geo.Point{X: (sw.X + ne.X) / 2, Y: (sw.Y + ne.Y) / 2})
	s.zoom = z
	emit := s.emitLocked(EventView, "", ViewData{Center: s.center, Zoom: s.zoom})
	s.mu.Unlock()
	emit()
}

// AddShape implements render.Surface.
func (s *Scene) AddShape(key string, shape geo.Shape, style render.Style) {
	s.mu.Lock()
	if _, ok := s.shapes[key]; !ok {
		s.shapeOrder = append(s.shapeOrder, key)
	}
	l := &ShapeLayer{Key: key, Shape: shape, Style: style}
	s.shapes[key] = l
	emit := s.emitLocked(EventShape, key, *l)
	s.mu.Unlock()
	emit()
}

// SetShapeStyle implements render.Surface.
func (s *Scene) SetShapeStyle(key string, style render.Style) {
	s.mu.Lock()
	l, ok := s.shapes[key]
	if !ok {
		s.mu.Unlock()
		return
	}
	l.Style = style
	emit := s.emitLocked(EventStyle, key, style)
	s.mu.Unlock()
	emit()
}

// AddMarker implements render.Surface.
func (s *Scene) AddMarker(key string, m render.Marker) {
	s.mu.Lock()
	s.markers[key] = m
	emit := s.emitLocked(EventMarker, key, m)
	s.mu.Unlock()
	emit()
}

// AddPolyline implements render.Surface.
func (s *Scene) AddPolyline(key string, p render.Polyline) {
	s.mu.Lock()
	s.polylines[key] = p
	emit := s.emitLocked(EventPolyline, key, p)
	s.mu.Unlock()
	emit()
}

// Remove implements render.Surface.
func (s *Scene) Remove(key string) {
	s.mu.Lock()
	_, isShape := s.shapes[key]
	_, isMarker := s.markers[key]
	_, isLine := s.polylines[key]
	if !isShape && !isMarker && !isLine {
		s.mu.Unlock()
		return
	}
	if isShape {
		delete(s.shapes, key)
		for i, k := range s.shapeOrder {
			if k == key {
				s.shapeOrder = append(s.shapeOrder[:i], s.shapeOrder[i+1:]...)
				break
			}
		}
	}
	delete(s.markers, key)
	delete(s.polylines, key)
	emit := s.emitLocked(EventRemove, key, nil)
	s.mu.Unlock()
	emit()
}

// RegisterElement marks a client UI element as present so focus requests
// for it succeed.
func (s *Scene) RegisterElement(id string) {
	s.mu.Lock()
	s.elements[id] = true
	s.mu.Unlock()
}

// UnregisterElement forgets a client UI element.
func (s *Scene) UnregisterElement(id string) {
	s.mu.Lock()
	delete(s.elements, id)
	s.mu.Unlock()
}

// Focus implements render.Focuser by forwarding a focus event for elements
// the client has registered.
func (s *Scene) Focus(id string, selectText bool) bool {
	s.mu.Lock()
	if !s.elements[id] {
		s.mu.Unlock()
		return false
	}
	emit := s.emitLocked(EventFocus, id, FocusData{Element: id, SelectText: selectText})
	s.mu.Unlock()
	emit()
	return true
}

// Snapshot is a consistent copy of the scene.
type Snapshot struct {
	Width     int             `json:"width"`
	Height    int             `json:"height"`
	Center    geo.LatLng      `json:"center"`
	Zoom      float64         `json:"zoom"`
	Version   uint64          `json:"version"`
	Shapes    []ShapeLayer    `json:"shapes"`
	Markers   []MarkerLayer   `json:"markers"`
	Polylines []PolylineLayer `json:"polylines"`
}

// Snapshot copies the current scene. Shapes keep insertion order; markers
// and polylines are sorted by key.
func (s *Scene) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Width:   s.cfg.Width,
		Height:  s.cfg.Height,
		Center:  s.center,
		Zoom:    s.zoom,
		Version: s.version,
	}
	snap.Shapes = make([]ShapeLayer, 0, len(s.shapeOrder))
	for _, k := range s.shapeOrder {
		snap.Shapes = append(snap.Shapes, *s.shapes[k])
	}
	snap.Markers = make([]MarkerLayer, 0, len(s.markers))
	for k, m := range s.markers {
		snap.Markers = append(snap.Markers, MarkerLayer{Key: k, Marker: m})
	}
	sort.Slice(snap.Markers, func(i, j int) bool { return snap.Markers[i].Key < snap.Markers[j].Key })
	snap.Polylines = make([]PolylineLayer, 0, len(s.polylines))
	for k, p := range s.polylines {
		snap.Polylines = append(snap.Polylines, PolylineLayer{Key: k, Polyline: p})
	}
	sort.Slice(snap.Polylines, func(i, j int) bool { return snap.Polylines[i].Key < snap.Polylines[j].Key })
	return snap
}

// ViewProjector maps coordinates to viewport pixels, with (0,0) at the top
// left corner of the viewport.
func (snap Snapshot) ViewProjector() geo.Projector {
	m := geo.WebMercator{Zoom: snap.Zoom}
	c := m.Project(snap.Center)
	return viewProjector{
		m:      m,
		origin: geo.Point{X: c.X - float64(snap.Width)/2, Y: c.Y - float64(snap.Height)/2},
	}
}

type viewProjector struct {
	m      geo.WebMercator
	origin geo.Point
}

func (v viewProjector) Project(ll geo.LatLng) geo.Point {
	p := v.m.Project(ll)
	return geo.Point{X: p.X - v.origin.X, Y: p.Y - v.origin.Y}
}

func (v viewProjector) Unproject(p geo.Point) geo.LatLng {
	return v.m.Unproject(geo.Point{X: p.X + v.origin.X, Y: p.Y + v.origin.Y})
}
