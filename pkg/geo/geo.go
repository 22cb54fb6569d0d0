// Package geo holds the planar geometry used to anchor labels and hit-test
// clicks on region shapes. Shapes are stored in lat/lng; anything that depends
// on screen size is computed in projected pixel space.
package geo

import "math"

// LatLng is a geographic coordinate in degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Point is a projected screen-space coordinate in pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Ring is a closed or open sequence of coordinates. The closing point may be
// repeated; it contributes nothing to area or containment.
type Ring []LatLng

// Polygon is an outer ring followed by zero or more holes.
type Polygon []Ring

// Shape is a polygon or multi-polygon.
type Shape struct {
	Polygons []Polygon `json:"polygons"`
}

// OuterRings returns the first ring of every polygon. Holes are ignored by all
// label and hit-test math.
func (s Shape) OuterRings() []Ring {
	rings := make([]Ring, 0, len(s.Polygons))
	for _, p := range s.Polygons {
		if len(p) == 0 || len(p[0]) == 0 {
			continue
		}
		rings = append(rings, p[0])
	}
	return rings
}

// IsEmpty reports whether the shape has no usable outer ring points.
func (s Shape) IsEmpty() bool {
	return len(s.OuterRings()) == 0
}

// FirstPoint returns the first point of the first outer ring.
func (s Shape) FirstPoint() (LatLng, bool) {
	rings := s.OuterRings()
	if len(rings) == 0 {
		return LatLng{}, false
	}
	return rings[0][0], true
}

// Bounds is a lat/lng bounding box.
type Bounds struct {
	SW LatLng `json:"sw"`
	NE LatLng `json:"ne"`
}

// EmptyBounds returns an inverted box that any Extend call will replace.
func EmptyBounds() Bounds {
	return Bounds{
		SW: LatLng{Lat: math.Inf(1), Lng: math.Inf(1)},
		NE: LatLng{Lat: math.Inf(-1), Lng: math.Inf(-1)},
	}
}

// NewBounds builds a box from two corners in any order.
func NewBounds(a, b LatLng) Bounds {
	return EmptyBounds().Extend(a).Extend(b)
}

// Extend returns a box grown to include p.
func (b Bounds) Extend(p LatLng) Bounds {
	b.SW.Lat = math.Min(b.SW.Lat, p.Lat)
	b.SW.Lng = math.Min(b.SW.Lng, p.Lng)
	b.NE.Lat = math.Max(b.NE.Lat, p.Lat)
	b.NE.Lng = math.Max(b.NE.Lng, p.Lng)
	return b
}

// Union returns the smallest box containing both.
func (b Bounds) Union(o Bounds) Bounds {
	if !o.IsValid() {
		return b
	}
	return b.Extend(o.SW).Extend(o.NE)
}

// IsValid reports whether at least one point has been added.
func (b Bounds) IsValid() bool {
	return b.SW.Lat <= b.NE.Lat && b.SW.Lng <= b.NE.Lng
}

// Center returns the midpoint of the box.
func (b Bounds) Center() LatLng {
	return LatLng{
		Lat: (b.SW.Lat + b.NE.Lat) / 2,
		Lng: (b.SW.Lng + b.NE.Lng) / 2,
	}
}

// ShapeBounds returns the lat/lng box over all outer-ring points.
func ShapeBounds(s Shape) (Bounds, bool) {
	b := EmptyBounds()
	for _, r := range s.OuterRings() {
		for _, p := range r {
			b = b.Extend(p)
		}
	}
	return b, b.IsValid()
}

// PixelBox is an axis-aligned box in pixel space.
type PixelBox struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

// Width of the box in pixels.
func (b PixelBox) Width() float64 { return b.Max.X - b.Min.X }

// Height of the box in pixels.
func (b PixelBox) Height() float64 { return b.Max.Y - b.Min.Y }

// PixelBounds projects every outer-ring point and returns the minimal box
// containing them.
func PixelBounds(s Shape, proj Projector) (PixelBox, bool) {
	box := PixelBox{
		Min: Point{X: math.Inf(1), Y: math.Inf(1)},
		Max: Point{X: math.Inf(-1), Y: math.Inf(-1)},
	}
	found := false
	for _, r := range s.OuterRings() {
		for _, ll := range r {
			p := proj.Project(ll)
			box.Min.X = math.Min(box.Min.X, p.X)
			box.Min.Y = math.Min(box.Min.Y, p.Y)
			box.Max.X = math.Max(box.Max.X, p.X)
			box.Max.Y = math.Max(box.Max.Y, p.Y)
			found = true
		}
	}
	return box, found
}
