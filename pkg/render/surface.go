package render

import "github.com/Mark-Phillipson/Risk/pkg/geo"

// Style is the vector style of a region shape.
type Style struct {
	Color       string  `json:"color"`
	Weight      float64 `json:"weight"`
	Opacity     float64 `json:"opacity"`
	FillColor   string  `json:"fillColor,omitempty"`
	FillOpacity float64 `json:"fillOpacity"`
}

// Marker is a text label pinned to a coordinate. ArrowDeg is only meaningful
// when Arrow is set; 0 points up and angles grow clockwise.
type Marker struct {
	At       geo.LatLng `json:"at"`
	Text     string     `json:"text"`
	Class    string     `json:"class"`
	Arrow    bool       `json:"arrow,omitempty"`
	ArrowDeg float64    `json:"arrowDeg,omitempty"`
}

// Polyline is a stroked path, used for offshore label connectors.
type Polyline struct {
	Points  []geo.LatLng `json:"points"`
	Color   string       `json:"color"`
	Weight  float64      `json:"weight"`
	Opacity float64      `json:"opacity"`
	Dash    string       `json:"dash,omitempty"`
}

// Surface is the map the engine draws on. Every visual is addressed by a
// string key; adding with an existing key replaces the previous visual.
type Surface interface {
	// Projector converts coordinates at the current zoom.
	Projector() geo.Projector
	Center() geo.LatLng
	Zoom() float64
	MinZoom() float64
	MaxZoom() float64
	SetView(center geo.LatLng, zoom float64)
	// FitBounds frames b with padding pixels on every side. A maxZoom of 0
	// means the surface's own limit.
	FitBounds(b geo.Bounds, padding, maxZoom float64)

	AddShape(key string, shape geo.Shape, style Style)
	SetShapeStyle(key string, style Style)
	AddMarker(key string, m Marker)
	AddPolyline(key string, p Polyline)
	Remove(key string)
}

// Focuser is implemented by surfaces that host focusable UI elements. Focus
// returns false while the element does not exist yet.
type Focuser interface {
	Focus(elementID string, selectText bool) bool
}

const (
	shapePrefix     = "shape:"
	labelPrefix     = "label:"
	connectorPrefix = "connector:"
)

// ShapeKey is the surface key of a region's shape.
func ShapeKey(id string) string { return shapePrefix + id }

// LabelKey is the surface key of a region's label marker.
func LabelKey(id string) string { return labelPrefix + id }

// ConnectorKey is the surface key of a region's offshore connector.
func ConnectorKey(id string) string { return connectorPrefix + id }
