package main

import (
	"context"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/Mark-Phillipson/Risk/internal/model"
	"github.com/Mark-Phillipson/Risk/internal/repository/sqlite"
)

const testGeoJSON = `{"type":"FeatureCollection","features":[
{"type":"Feature","properties":{"iso_a3":"FRA","name":"France","continent":"Europe"},
 "geometry":{"type":"Polygon","coordinates":[[[0,40],[10,40],[10,50],[0,50],[0,40]]]}},
{"type":"Feature","properties":{"iso_a3":"BRA","name":"Brazil","continent":"South America"},
 "geometry":{"type":"Polygon","coordinates":[[[-60,-20],[-50,-20],[-50,-10],[-60,-10],[-60,-20]]]}}
]}`

func setup(t *testing.T, records []model.RegionRecord) options {
	t.Helper()
	dir := t.TempDir()
	geo := filepath.Join(dir, "countries.geojson")
	if err := os.WriteFile(geo, []byte(testGeoJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	dbPath := filepath.Join(dir, "risk.db")
	store, err := sqlite.Open(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := store.SaveRegions(context.Background(), model.ModeCountries.StorageKey(), records); err != nil {
		t.Fatalf("save: %v", err)
	}
	store.Close()
	return options{
		mode:    "countries",
		geojson: geo,
		dbPath:  dbPath,
		out:     filepath.Join(dir, "map.png"),
		width:   320,
		height:  200,
		labels:  true,
	}
}

func TestRunWritesPNG(t *testing.T) {
	opts := setup(t, []model.RegionRecord{
		{Code: "FRA", IsConquered: true, Owner: "Alice", Color: "#ff0000"},
		{Code: "BRA", IsConquered: false},
		{Code: "ATL", IsConquered: true, Color: "#00ff00"},
	})
	opts.group = "Europe"

	sum, err := run(context.Background(), opts)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.Features != 2 || sum.Records != 3 {
		t.Errorf("unexpected counts %+v", sum)
	}
	if sum.Matched != 1 {
		t.Errorf("expected FRA matched, got %d", sum.Matched)
	}
	if len(sum.Unmatched) != 1 || sum.Unmatched[0] != "ATL" {
		t.Errorf("expected ATL unmatched, got %v", sum.Unmatched)
	}

	f, err := os.Open(opts.out)
	if err != nil {
		t.Fatalf("open png: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 320 || b.Dy() != 200 {
		t.Errorf("expected 320x200, got %v", b)
	}
}

func TestRunEmptyStore(t *testing.T) {
	opts := setup(t, nil)
	sum, err := run(context.Background(), opts)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.Records != 0 || sum.Matched != 0 {
		t.Errorf("expected nothing drawn, got %+v", sum)
	}
}

func TestRunRejectsUnknownMode(t *testing.T) {
	opts := setup(t, nil)
	opts.mode = "moon"
	if _, err := run(context.Background(), opts); err == nil {
		t.Error("expected error for unknown mode")
	}
}
