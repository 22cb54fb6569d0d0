package geo

import (
	"math"
	"testing"
)

func square(minLat, minLng, size float64) Ring {
	return Ring{
		{Lat: minLat, Lng: minLng},
		{Lat: minLat, Lng: minLng + size},
		{Lat: minLat + size, Lng: minLng + size},
		{Lat: minLat + size, Lng: minLng},
		{Lat: minLat, Lng: minLng},
	}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestLargestRingCentroidSquare(t *testing.T) {
	s := Shape{Polygons: []Polygon{{square(10, 20, 2)}}}
	c, ok := LargestRingCentroid(s, Equirect{PixelsPerDegree: 10})
	if !ok {
		t.Fatal("expected centroid")
	}
	if !approx(c.Lat, 11) || !approx(c.Lng, 21) {
		t.Errorf("expected (11,21), got (%f,%f)", c.Lat, c.Lng)
	}
}

func TestLargestRingCentroidPicksBiggestRing(t *testing.T) {
	s := Shape{Polygons: []Polygon{
		{square(0, 0, 1)},
		{square(40, 40, 4)},
		{square(-10, -10, 2)},
	}}
	c, ok := LargestRingCentroid(s, Equirect{PixelsPerDegree: 1})
	if !ok {
		t.Fatal("expected centroid")
	}
	if !approx(c.Lat, 42) || !approx(c.Lng, 42) {
		t.Errorf("expected centroid of largest ring (42,42), got (%f,%f)", c.Lat, c.Lng)
	}
}

func TestLargestRingCentroidIgnoresWinding(t *testing.T) {
	r := square(0, 0, 2)
	rev := make(Ring, len(r))
	for i := range r {
		rev[i] = r[len(r)-1-i]
	}
	c, ok := LargestRingCentroid(Shape{Polygons: []Polygon{{rev}}}, Equirect{PixelsPerDegree: 1})
	if !ok || !approx(c.Lat, 1) || !approx(c.Lng, 1) {
		t.Errorf("expected (1,1), got (%f,%f) ok=%v", c.Lat, c.Lng, ok)
	}
}

func TestLargestRingCentroidDegenerate(t *testing.T) {
	tests := []struct {
		name  string
		shape Shape
	}{
		{"empty", Shape{}},
		{"two points", Shape{Polygons: []Polygon{{{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 1}}}}}},
		{"collinear", Shape{Polygons: []Polygon{{{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}}}}}},
		{"empty polygon", Shape{Polygons: []Polygon{{}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := LargestRingCentroid(tt.shape, Equirect{PixelsPerDegree: 1}); ok {
				t.Error("expected no centroid")
			}
		})
	}
}

func TestCentroidInsideBoundsWebMercator(t *testing.T) {
	s := Shape{Polygons: []Polygon{{square(48, -5, 8)}}}
	c, ok := LargestRingCentroid(s, WebMercator{Zoom: 5})
	if !ok {
		t.Fatal("expected centroid")
	}
	b, _ := ShapeBounds(s)
	if c.Lat < b.SW.Lat || c.Lat > b.NE.Lat || c.Lng < b.SW.Lng || c.Lng > b.NE.Lng {
		t.Errorf("centroid %+v outside bounds %+v", c, b)
	}
	if !Contains(s, c) {
		t.Errorf("centroid %+v not inside shape", c)
	}
}

func TestContains(t *testing.T) {
	s := Shape{Polygons: []Polygon{
		{square(0, 0, 10), square(2, 2, 2)},
		{square(50, 50, 1)},
	}}
	tests := []struct {
		name string
		pt   LatLng
		want bool
	}{
		{"inside first", LatLng{Lat: 5, Lng: 5}, true},
		{"inside hole counts as inside", LatLng{Lat: 3, Lng: 3}, true},
		{"inside second", LatLng{Lat: 50.5, Lng: 50.5}, true},
		{"outside", LatLng{Lat: 20, Lng: 20}, false},
		{"west", LatLng{Lat: 5, Lng: -1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Contains(s, tt.pt); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestPixelBounds(t *testing.T) {
	s := Shape{Polygons: []Polygon{{square(0, 0, 5)}, {square(10, 10, 1)}}}
	box, ok := PixelBounds(s, Equirect{PixelsPerDegree: 10})
	if !ok {
		t.Fatal("expected bounds")
	}
	if !approx(box.Width(), 110) || !approx(box.Height(), 110) {
		t.Errorf("expected 110x110, got %fx%f", box.Width(), box.Height())
	}
	if _, ok := PixelBounds(Shape{}, Equirect{PixelsPerDegree: 10}); ok {
		t.Error("expected no bounds for empty shape")
	}
}

func TestBoundsUnionAndCenter(t *testing.T) {
	a := NewBounds(LatLng{Lat: 0, Lng: 0}, LatLng{Lat: 2, Lng: 2})
	b := NewBounds(LatLng{Lat: 10, Lng: -4}, LatLng{Lat: 8, Lng: -2})
	u := a.Union(b)
	if u.SW.Lat != 0 || u.SW.Lng != -4 || u.NE.Lat != 10 || u.NE.Lng != 2 {
		t.Errorf("unexpected union %+v", u)
	}
	c := u.Center()
	if c.Lat != 5 || c.Lng != -1 {
		t.Errorf("expected center (5,-1), got %+v", c)
	}
	if EmptyBounds().IsValid() {
		t.Error("empty bounds should be invalid")
	}
	if got := a.Union(EmptyBounds()); got != a {
		t.Errorf("union with empty changed box: %+v", got)
	}
}

func TestWebMercatorRoundTrip(t *testing.T) {
	m := WebMercator{Zoom: 3}
	for _, ll := range []LatLng{{Lat: 0, Lng: 0}, {Lat: 51.5, Lng: -0.12}, {Lat: -33.9, Lng: 151.2}} {
		got := m.Unproject(m.Project(ll))
		if math.Abs(got.Lat-ll.Lat) > 1e-9 || math.Abs(got.Lng-ll.Lng) > 1e-9 {
			t.Errorf("round trip %+v -> %+v", ll, got)
		}
	}
	p := m.Project(LatLng{})
	if !approx(p.X, 1024) || !approx(p.Y, 1024) {
		t.Errorf("expected origin at (1024,1024), got %+v", p)
	}
}
