package region

import (
	"fmt"
	"io"
	"strconv"

	geojson "github.com/paulmach/go.geojson"

	"github.com/Mark-Phillipson/Risk/pkg/geo"
)

// LoadFeatures parses a GeoJSON FeatureCollection. Features that are not
// polygons or multi-polygons are skipped.
func LoadFeatures(r io.Reader) ([]Feature, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read geojson: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse geojson: %w", err)
	}
	out := make([]Feature, 0, len(fc.Features))
	for _, gf := range fc.Features {
		f, ok := FromGeoJSON(gf)
		if !ok {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

// FromGeoJSON converts a single GeoJSON feature. GeoJSON positions are
// [lng, lat].
func FromGeoJSON(gf *geojson.Feature) (Feature, bool) {
	if gf == nil || gf.Geometry == nil {
		return Feature{}, false
	}
	var shape geo.Shape
	switch {
	case gf.Geometry.IsPolygon():
		shape.Polygons = []geo.Polygon{toPolygon(gf.Geometry.Polygon)}
	case gf.Geometry.IsMultiPolygon():
		shape.Polygons = make([]geo.Polygon, 0, len(gf.Geometry.MultiPolygon))
		for _, p := range gf.Geometry.MultiPolygon {
			shape.Polygons = append(shape.Polygons, toPolygon(p))
		}
	default:
		return Feature{}, false
	}
	props := Properties{}
	for k, v := range gf.Properties {
		props[k] = v
	}
	return Feature{ID: featureID(gf.ID), Shape: shape, Properties: props}, true
}

func toPolygon(rings [][][]float64) geo.Polygon {
	poly := make(geo.Polygon, 0, len(rings))
	for _, r := range rings {
		ring := make(geo.Ring, 0, len(r))
		for _, pos := range r {
			if len(pos) < 2 {
				continue
			}
			ring = append(ring, geo.LatLng{Lat: pos[1], Lng: pos[0]})
		}
		poly = append(poly, ring)
	}
	return poly
}

func featureID(id any) string {
	switch v := id.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return scalar(id)
}

// ToGeoJSON converts a feature back to GeoJSON, used when serving region
// shapes to clients.
func ToGeoJSON(f Feature) *geojson.Feature {
	mp := make([][][][]float64, 0, len(f.Shape.Polygons))
	for _, p := range f.Shape.Polygons {
		poly := make([][][]float64, 0, len(p))
		for _, r := range p {
			ring := make([][]float64, len(r))
			for i, ll := range r {
				ring[i] = []float64{ll.Lng, ll.Lat}
			}
			poly = append(poly, ring)
		}
		mp = append(mp, poly)
	}
	gf := geojson.NewMultiPolygonFeature(mp...)
	if f.ID != "" {
		gf.ID = f.ID
	}
	for k, v := range f.Properties {
		gf.SetProperty(k, v)
	}
	return gf
}
