package geo

import "math"

// TileSize is the pixel width of one web map tile at zoom 0.
const TileSize = 256

// MaxLatitude is the Web Mercator latitude limit.
const MaxLatitude = 85.0511287798

// Projector converts between lat/lng and pixel coordinates at a fixed zoom.
type Projector interface {
	Project(LatLng) Point
	Unproject(Point) LatLng
}

// WebMercator is the spherical mercator projection used by slippy web maps.
// Pixel (0,0) is the north-west corner of the world at the given zoom.
type WebMercator struct {
	Zoom float64
}

func (m WebMercator) scale() float64 {
	return TileSize * math.Pow(2, m.Zoom)
}

// Project implements Projector.
func (m WebMercator) Project(ll LatLng) Point {
	lat := math.Max(-MaxLatitude, math.Min(MaxLatitude, ll.Lat))
	s := m.scale()
	sin := math.Sin(lat * math.Pi / 180)
	return Point{
		X: s * (ll.Lng/360 + 0.5),
		Y: s * (0.5 - math.Log((1+sin)/(1-sin))/(4*math.Pi)),
	}
}

// Unproject implements Projector.
func (m WebMercator) Unproject(p Point) LatLng {
	s := m.scale()
	lng := (p.X/s - 0.5) * 360
	n := math.Pi - 2*math.Pi*p.Y/s
	lat := 180 / math.Pi * math.Atan(math.Sinh(n))
	return LatLng{Lat: lat, Lng: lng}
}

// Equirect maps degrees linearly onto pixels with north up. Useful for
// small-area maps and predictable measurements.
type Equirect struct {
	PixelsPerDegree float64
}

// Project implements Projector.
func (e Equirect) Project(ll LatLng) Point {
	return Point{X: ll.Lng * e.PixelsPerDegree, Y: -ll.Lat * e.PixelsPerDegree}
}

// Unproject implements Projector.
func (e Equirect) Unproject(p Point) LatLng {
	if e.PixelsPerDegree == 0 {
		return LatLng{}
	}
	return LatLng{Lat: -p.Y / e.PixelsPerDegree, Lng: p.X / e.PixelsPerDegree}
}
