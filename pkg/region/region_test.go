package region

import (
	"strings"
	"testing"
)

func TestResolveIdentifierPriority(t *testing.T) {
	tests := []struct {
		name  string
		id    string
		props Properties
		want  string
	}{
		{"county code beats name", "", Properties{"ctyua22cd": "E10000016", "name": "Kent"}, "E10000016"},
		{"uppercase county code", "", Properties{"CTYUA23CD": "E06000001"}, "E06000001"},
		{"newest census first", "", Properties{"ctyua21cd": "old", "ctyua23cd": "new"}, "new"},
		{"iso a3 beats iso a2", "", Properties{"ISO_A2": "FR", "ISO_A3": "FRA"}, "FRA"},
		{"gss code", "", Properties{"gss_code": "E14000530", "NAME": "x"}, "E14000530"},
		{"global id beats feature id", "feat-1", Properties{"GlobalID": "{ABC}"}, "{ABC}"},
		{"feature id beats name", "feat-1", Properties{"name": "Kent"}, "feat-1"},
		{"name when nothing else", "", Properties{"NAME": "Narnia"}, "Narnia"},
		{"admin", "", Properties{"admin": "France"}, "France"},
		{"blank values skipped", "  ", Properties{"iso_a3": "   ", "formal_en": "French Republic"}, "French Republic"},
		{"numeric code", "", Properties{"code": float64(42)}, "42"},
		{"scan code suffix", "", Properties{"townCode": "TN1", "other": "x"}, "TN1"},
		{"scan ignores non code", "", Properties{"population": 12}, ""},
		{"empty", "", Properties{}, ""},
		{"trims", "", Properties{"iso_a3": " FRA "}, "FRA"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveIdentifier(Feature{ID: tt.id, Properties: tt.props})
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestResolveIdentifierScanIsDeterministic(t *testing.T) {
	props := Properties{"zcode": "Z", "acode": "A", "mcode": "M"}
	for i := 0; i < 50; i++ {
		if got := ResolveIdentifier(Feature{Properties: props}); got != "A" {
			t.Fatalf("iteration %d: expected A, got %q", i, got)
		}
	}
}

func TestResolveName(t *testing.T) {
	tests := []struct {
		name     string
		props    Properties
		fallback string
		want     string
	}{
		{"name", Properties{"name": "Kent", "ctyua22nm": "Kent CC"}, "E1", "Kent"},
		{"county name", Properties{"CTYUA22NM": "Medway"}, "E1", "Medway"},
		{"district name", Properties{"lad23nm": "Dover"}, "E1", "Dover"},
		{"fallback", Properties{"code": "E1"}, "E1", "E1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveName(Feature{Properties: tt.props}, tt.fallback); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestResolveGroup(t *testing.T) {
	f := Feature{Properties: Properties{"REGION_UN": "Europe", "continent": "Europe"}}
	if got := ResolveGroup(f, GroupKeys); got != "Europe" {
		t.Errorf("expected Europe, got %q", got)
	}
	if got := ResolveGroup(Feature{}, GroupKeys); got != "" {
		t.Errorf("expected empty group, got %q", got)
	}
}

const sampleCollection = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "id": 7,
     "properties": {"iso_a3": "FRA", "name": "France", "continent": "Europe"},
     "geometry": {"type": "Polygon", "coordinates": [[[0,40],[5,40],[5,50],[0,50],[0,40]]]}},
    {"type": "Feature",
     "properties": {"name": "Islands"},
     "geometry": {"type": "MultiPolygon", "coordinates": [
        [[[10,10],[11,10],[11,11],[10,11],[10,10]]],
        [[[20,20],[22,20],[22,22],[20,22],[20,20]]]
     ]}},
    {"type": "Feature", "properties": {"name": "Pin"},
     "geometry": {"type": "Point", "coordinates": [1, 2]}}
  ]
}`

func TestLoadFeatures(t *testing.T) {
	features, err := LoadFeatures(strings.NewReader(sampleCollection))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(features) != 2 {
		t.Fatalf("expected 2 polygon features, got %d", len(features))
	}
	fr := features[0]
	if fr.ID != "7" {
		t.Errorf("expected feature id 7, got %q", fr.ID)
	}
	if got := ResolveIdentifier(fr); got != "FRA" {
		t.Errorf("expected FRA, got %q", got)
	}
	first, ok := fr.Shape.FirstPoint()
	if !ok || first.Lat != 40 || first.Lng != 0 {
		t.Errorf("expected [lng,lat] order, first point %+v", first)
	}
	if n := len(features[1].Shape.Polygons); n != 2 {
		t.Errorf("expected 2 polygons, got %d", n)
	}
}

func TestLoadFeaturesInvalid(t *testing.T) {
	if _, err := LoadFeatures(strings.NewReader("not json")); err == nil {
		t.Error("expected error for invalid geojson")
	}
}

func TestToGeoJSONRoundTrip(t *testing.T) {
	features, err := LoadFeatures(strings.NewReader(sampleCollection))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	gf := ToGeoJSON(features[0])
	back, ok := FromGeoJSON(gf)
	if !ok {
		t.Fatal("expected conversion back")
	}
	if ResolveIdentifier(back) != "FRA" {
		t.Errorf("identifier lost in round trip")
	}
	if len(back.Shape.Polygons) != 1 || len(back.Shape.Polygons[0][0]) != 5 {
		t.Errorf("unexpected shape after round trip: %+v", back.Shape)
	}
}
