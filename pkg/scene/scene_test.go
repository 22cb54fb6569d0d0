package scene

import (
	"math"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Mark-Phillipson/Risk/pkg/geo"
	"github.com/Mark-Phillipson/Risk/pkg/region"
	"github.com/Mark-Phillipson/Risk/pkg/render"
)

func unitBox() geo.Bounds {
	return geo.NewBounds(geo.LatLng{Lat: 0, Lng: 0}, geo.LatLng{Lat: 1, Lng: 1})
}

func TestFitBoundsZoom(t *testing.T) {
	tests := []struct {
		name    string
		padding float64
		maxZoom float64
		want    float64
	}{
		{"padded", 40, 0, 9},
		{"capped", 40, 6, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(Config{Width: 1024, Height: 768, MinZoom: 1, MaxZoom: 18})
			s.FitBounds(unitBox(), tt.padding, tt.maxZoom)
			if s.Zoom() != tt.want {
				t.Errorf("expected zoom %v, got %v", tt.want, s.Zoom())
			}
			c := s.Center()
			if math.Abs(c.Lat-0.5) > 1e-3 || math.Abs(c.Lng-0.5) > 1e-9 {
				t.Errorf("expected center near (0.5,0.5), got %+v", c)
			}
		})
	}
}

func TestFitBoundsIgnoresInvalid(t *testing.T) {
	s := New(DefaultConfig())
	s.SetView(geo.LatLng{Lat: 1, Lng: 2}, 3)
	s.FitBounds(geo.EmptyBounds(), 40, 0)
	if s.Zoom() != 3 || s.Center() != (geo.LatLng{Lat: 1, Lng: 2}) {
		t.Errorf("invalid bounds changed view to %+v @ %v", s.Center(), s.Zoom())
	}
}

func TestSetViewClamps(t *testing.T) {
	s := New(Config{Width: 100, Height: 100, MinZoom: 2, MaxZoom: 8})
	s.SetView(geo.LatLng{}, 20)
	if s.Zoom() != 8 {
		t.Errorf("expected 8, got %v", s.Zoom())
	}
	s.SetView(geo.LatLng{}, 0)
	if s.Zoom() != 2 {
		t.Errorf("expected 2, got %v", s.Zoom())
	}
}

func TestEventsAndSnapshot(t *testing.T) {
	s := New(DefaultConfig())
	var events []Event
	s.SetListener(func(ev Event) { events = append(events, ev) })

	shape := geo.Shape{Polygons: []geo.Polygon{{geo.Ring{{Lat: 0, Lng: 0}, {Lat: 0, Lng: 1}, {Lat: 1, Lng: 1}}}}}
	s.AddShape("shape:B", shape, render.Style{Color: "red"})
	s.AddShape("shape:A", shape, render.Style{Color: "blue"})
	s.SetShapeStyle("shape:B", render.Style{Color: "green"})
	s.SetShapeStyle("shape:missing", render.Style{})
	s.AddMarker("label:B", render.Marker{Text: "B"})
	s.AddPolyline("connector:B", render.Polyline{Dash: "3,6"})
	s.Remove("connector:B")
	s.Remove("nothing")

	wantTypes := []string{EventShape, EventShape, EventStyle, EventMarker, EventPolyline, EventRemove}
	if len(events) != len(wantTypes) {
		t.Fatalf("expected %d events, got %d: %+v", len(wantTypes), len(events), events)
	}
	for i, typ := range wantTypes {
		if events[i].Type != typ {
			t.Errorf("event %d: expected %s, got %s", i, typ, events[i].Type)
		}
		if events[i].Version != uint64(i+1) {
			t.Errorf("event %d: expected version %d, got %d", i, i+1, events[i].Version)
		}
	}

	snap := s.Snapshot()
	if len(snap.Shapes) != 2 || snap.Shapes[0].Key != "shape:B" || snap.Shapes[0].Style.Color != "green" {
		t.Errorf("unexpected shapes %+v", snap.Shapes)
	}
	if len(snap.Markers) != 1 || len(snap.Polylines) != 0 {
		t.Errorf("unexpected snapshot markers=%d polylines=%d", len(snap.Markers), len(snap.Polylines))
	}
	if snap.Version != s.Version() {
		t.Errorf("snapshot version %d != %d", snap.Version, s.Version())
	}
}

func TestFocusNeedsRegisteredElement(t *testing.T) {
	s := New(DefaultConfig())
	var focus []Event
	s.SetListener(func(ev Event) {
		if ev.Type == EventFocus {
			focus = append(focus, ev)
		}
	})
	if s.Focus("guess", true) {
		t.Error("expected focus to fail for unknown element")
	}
	s.RegisterElement("guess")
	if !s.Focus("guess", true) {
		t.Error("expected focus to succeed")
	}
	if len(focus) != 1 || focus[0].Data.(FocusData).Element != "guess" {
		t.Errorf("unexpected focus events %+v", focus)
	}
	s.UnregisterElement("guess")
	if s.Focus("guess", false) {
		t.Error("expected focus to fail after unregister")
	}
}

func TestViewProjectorCentersViewport(t *testing.T) {
	s := New(Config{Width: 400, Height: 300, MinZoom: 1, MaxZoom: 18})
	s.SetView(geo.LatLng{Lat: 51.5, Lng: -0.1}, 6)
	proj := s.Snapshot().ViewProjector()
	p := proj.Project(geo.LatLng{Lat: 51.5, Lng: -0.1})
	if math.Abs(p.X-200) > 1e-6 || math.Abs(p.Y-150) > 1e-6 {
		t.Errorf("expected center pixel (200,150), got %+v", p)
	}
	back := proj.Unproject(p)
	if math.Abs(back.Lat-51.5) > 1e-9 || math.Abs(back.Lng+0.1) > 1e-9 {
		t.Errorf("round trip got %+v", back)
	}
}

// The engine drives a scene end to end.
func TestEngineOnScene(t *testing.T) {
	s := New(DefaultConfig())
	nop := zerolog.Nop()
	sched := render.NewManualScheduler()
	e := render.New(s, render.Options{Scheduler: sched, Logger: &nop})

	if s.Zoom() != 2 {
		t.Fatalf("expected initial zoom 2, got %v", s.Zoom())
	}
	e.Load([]region.Feature{{
		Properties: region.Properties{"iso_a3": "FRA", "name": "France"},
		Shape: geo.Shape{Polygons: []geo.Polygon{{geo.Ring{
			{Lat: 42, Lng: -4}, {Lat: 42, Lng: 8}, {Lat: 51, Lng: 8}, {Lat: 51, Lng: -4},
		}}}},
	}})
	e.ApplyConquered("fra", "#ff0000")
	if n := len(s.Snapshot().Markers); n != 0 {
		t.Errorf("expected no labels below zoom 4, got %d", n)
	}
	if !e.ZoomToFeature("FRA") {
		t.Fatal("expected zoom to FRA")
	}
	snap := s.Snapshot()
	if snap.Zoom < 4 {
		t.Fatalf("expected zoom >= 4 after fit, got %v", snap.Zoom)
	}
	if len(snap.Markers) != 1 || snap.Markers[0].Marker.Text != "France" {
		t.Errorf("expected France label, got %+v", snap.Markers)
	}
	e.ClearAll()
	if n := len(s.Snapshot().Markers); n != 0 {
		t.Errorf("expected labels cleared, got %d", n)
	}
}
