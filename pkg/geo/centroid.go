package geo

import "math"

// RingArea returns the signed shoelace area of a projected ring.
func RingArea(pts []Point) float64 {
	n := len(pts)
	if n < 3 {
		return 0
	}
	var a float64
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a += pts[j].X*pts[i].Y - pts[i].X*pts[j].Y
	}
	return a / 2
}

// RingCentroid returns the area-weighted centroid of a projected ring and
// its absolute area. A ring with fewer than three points or zero area has no
// centroid.
func RingCentroid(pts []Point) (Point, float64, bool) {
	n := len(pts)
	if n < 3 {
		return Point{}, 0, false
	}
	var a, cx, cy float64
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		f := pts[j].X*pts[i].Y - pts[i].X*pts[j].Y
		a += f
		cx += (pts[j].X + pts[i].X) * f
		cy += (pts[j].Y + pts[i].Y) * f
	}
	a /= 2
	if a == 0 {
		return Point{}, 0, false
	}
	return Point{X: cx / (6 * a), Y: cy / (6 * a)}, math.Abs(a), true
}

// LargestRingCentroid projects every outer ring, picks the one with the
// largest area and returns its centroid converted back to lat/lng.
func LargestRingCentroid(s Shape, proj Projector) (LatLng, bool) {
	var (
		best     Point
		bestArea float64
		found    bool
	)
	for _, r := range s.OuterRings() {
		pts := make([]Point, len(r))
		for i, ll := range r {
			pts[i] = proj.Project(ll)
		}
		c, area, ok := RingCentroid(pts)
		if !ok || area <= bestArea {
			continue
		}
		best, bestArea, found = c, area, true
	}
	if !found {
		return LatLng{}, false
	}
	return proj.Unproject(best), true
}

// PointInRing is an even-odd ray cast in lat/lng space.
func PointInRing(pt LatLng, ring Ring) bool {
	n := len(ring)
	if n < 3 {
		return false
	}
	inside := false
	x, y := pt.Lng, pt.Lat
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := ring[i].Lng, ring[i].Lat
		xj, yj := ring[j].Lng, ring[j].Lat
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

// Contains reports whether pt lies inside any outer ring of s. Holes are not
// subtracted.
func Contains(s Shape, pt LatLng) bool {
	for _, r := range s.OuterRings() {
		if PointInRing(pt, r) {
			return true
		}
	}
	return false
}
