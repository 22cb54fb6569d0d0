package render

import (
	"github.com/Mark-Phillipson/Risk/pkg/geo"
	"github.com/Mark-Phillipson/Risk/pkg/region"
)

// fakeSurface records everything the engine draws.
type fakeSurface struct {
	ppd     float64
	center  geo.LatLng
	zoom    float64
	fitted  []geo.Bounds
	fitZoom float64

	shapes    map[string]geo.Shape
	styles    map[string]Style
	markers   map[string]Marker
	polylines map[string]Polyline

	dupMarkers   int
	dupPolylines int
	removes      int
}

func newFakeSurface() *fakeSurface {
	return &fakeSurface{
		ppd:       10,
		fitZoom:   6,
		shapes:    make(map[string]geo.Shape),
		styles:    make(map[string]Style),
		markers:   make(map[string]Marker),
		polylines: make(map[string]Polyline),
	}
}

func (s *fakeSurface) Projector() geo.Projector { return geo.Equirect{PixelsPerDegree: s.ppd} }
func (s *fakeSurface) Center() geo.LatLng       { return s.center }
func (s *fakeSurface) Zoom() float64            { return s.zoom }
func (s *fakeSurface) MinZoom() float64         { return 1 }
func (s *fakeSurface) MaxZoom() float64         { return 12 }

func (s *fakeSurface) SetView(c geo.LatLng, z float64) {
	s.center, s.zoom = c, z
}

func (s *fakeSurface) FitBounds(b geo.Bounds, padding, maxZoom float64) {
	s.fitted = append(s.fitted, b)
	s.center = b.Center()
	s.zoom = s.fitZoom
	if maxZoom > 0 && s.zoom > maxZoom {
		s.zoom = maxZoom
	}
}

func (s *fakeSurface) AddShape(key string, shape geo.Shape, style Style) {
	s.shapes[key] = shape
	s.styles[key] = style
}

func (s *fakeSurface) SetShapeStyle(key string, style Style) {
	if _, ok := s.shapes[key]; ok {
		s.styles[key] = style
	}
}

func (s *fakeSurface) AddMarker(key string, m Marker) {
	if _, ok := s.markers[key]; ok {
		s.dupMarkers++
	}
	s.markers[key] = m
}

func (s *fakeSurface) AddPolyline(key string, p Polyline) {
	if _, ok := s.polylines[key]; ok {
		s.dupPolylines++
	}
	s.polylines[key] = p
}

func (s *fakeSurface) Remove(key string) {
	s.removes++
	delete(s.markers, key)
	delete(s.polylines, key)
	delete(s.shapes, key)
}

// focusSurface becomes focusable after readyAfter attempts.
type focusSurface struct {
	*fakeSurface
	readyAfter int
	attempts   int
	focused    string
	perID      map[string]int
	onFocus    func(id string)
}

func (s *focusSurface) Focus(id string, selectText bool) bool {
	s.attempts++
	if s.perID != nil {
		s.perID[id]++
	}
	if s.onFocus != nil {
		s.onFocus(id)
	}
	if s.attempts < s.readyAfter {
		return false
	}
	s.focused = id
	return true
}

func rect(id string, props region.Properties, minLat, minLng, h, w float64) region.Feature {
	if props == nil {
		props = region.Properties{}
	}
	props["code"] = id
	return region.Feature{
		Properties: props,
		Shape: geo.Shape{Polygons: []geo.Polygon{{geo.Ring{
			{Lat: minLat, Lng: minLng},
			{Lat: minLat, Lng: minLng + w},
			{Lat: minLat + h, Lng: minLng + w},
			{Lat: minLat + h, Lng: minLng},
			{Lat: minLat, Lng: minLng},
		}}}},
	}
}

type countingObserver struct {
	applied, unmatched, retries int
}

func (o *countingObserver) Applied(string)         { o.applied++ }
func (o *countingObserver) Unmatched(string)       { o.unmatched++ }
func (o *countingObserver) Retried(int, int)       { o.retries++ }
func (o *countingObserver) LabelPlaced(LabelState) {}
