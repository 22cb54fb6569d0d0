// Command mapsnap renders the stored conquests of a mode to a PNG.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Mark-Phillipson/Risk/internal/datasource"
	"github.com/Mark-Phillipson/Risk/internal/model"
	"github.com/Mark-Phillipson/Risk/internal/repository/sqlite"
	"github.com/Mark-Phillipson/Risk/pkg/geo"
	"github.com/Mark-Phillipson/Risk/pkg/raster"
	"github.com/Mark-Phillipson/Risk/pkg/region"
	"github.com/Mark-Phillipson/Risk/pkg/render"
	"github.com/Mark-Phillipson/Risk/pkg/scene"
)

type options struct {
	mode    string
	dataDir string
	geojson string
	dbPath  string
	out     string
	width   int
	height  int
	labels  bool
	group   string
	zoom    float64
}

// Counties and towns are unreadable at world zoom.
var modeViews = map[model.Mode]struct {
	center geo.LatLng
	zoom   float64
}{
	model.ModeUKCounties: {geo.LatLng{Lat: 54.5, Lng: -3}, 6},
	model.ModeKentTowns:  {geo.LatLng{Lat: 51.2, Lng: 0.7}, 9},
}

type summary struct {
	Mode       model.Mode `json:"mode"`
	Features   int        `json:"features"`
	Records    int        `json:"records"`
	Matched    int        `json:"matched"`
	Normalized int        `json:"normalized"`
	Unmatched  []string   `json:"unmatched"`
	Out        string     `json:"out"`
}

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	var (
		opts    options
		jsonOut bool
	)
	flag.StringVar(&opts.mode, "mode", string(model.ModeCountries), "Game mode (countries, uk-counties, kent-towns)")
	flag.StringVar(&opts.dataDir, "data", filepath.Join("web", "data"), "Directory holding the mode GeoJSON files")
	flag.StringVar(&opts.geojson, "geojson", "", "GeoJSON file (overrides -data)")
	flag.StringVar(&opts.dbPath, "db", filepath.Join("data", "risk.db"), "SQLite store path")
	flag.StringVar(&opts.out, "o", "map.png", "Output PNG path")
	flag.IntVar(&opts.width, "width", 1024, "Image width in pixels")
	flag.IntVar(&opts.height, "height", 768, "Image height in pixels")
	flag.BoolVar(&opts.labels, "labels", true, "Draw labels for conquered regions")
	flag.StringVar(&opts.group, "group", "", "Frame a region group (e.g. Europe) instead of the default view")
	flag.Float64Var(&opts.zoom, "zoom", 0, "Zoom level (0 = mode default)")
	flag.BoolVar(&jsonOut, "json", false, "Print a JSON summary")
	flag.Parse()

	sum, err := run(context.Background(), opts)
	if err != nil {
		log.Fatal().Err(err).Msg("Snapshot failed")
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(sum)
		return
	}
	fmt.Printf("%s: %d/%d stored conquests drawn -> %s\n", sum.Mode, sum.Matched+sum.Normalized, sum.Records, sum.Out)
	if len(sum.Unmatched) > 0 {
		fmt.Printf("unmatched: %v\n", sum.Unmatched)
	}
}

func run(ctx context.Context, opts options) (*summary, error) {
	mode, err := model.ParseMode(opts.mode)
	if err != nil {
		return nil, err
	}

	var features []region.Feature
	if opts.geojson != "" {
		features, err = datasource.LoadFile(opts.geojson)
	} else {
		features, err = datasource.LoadMode(opts.dataDir, mode)
	}
	if err != nil {
		return nil, err
	}

	store, err := sqlite.Open(opts.dbPath)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	records, err := store.LoadRegions(ctx, mode.StorageKey())
	if err != nil {
		return nil, err
	}

	sc := scene.New(scene.Config{Width: opts.width, Height: opts.height, MinZoom: 1, MaxZoom: 18})
	sched := render.NewManualScheduler()
	ro := render.DefaultOptions()
	ro.Scheduler = sched
	ro.LabelsDisabled = !opts.labels
	if v, ok := modeViews[mode]; ok {
		ro.InitialCenter, ro.InitialZoom = v.center, v.zoom
	}
	eng := render.New(sc, ro)
	eng.Load(features)

	var ids, colors []string
	for _, r := range records {
		if r.IsConquered {
			ids = append(ids, r.Code)
			colors = append(colors, r.Color)
		}
	}
	res := eng.ApplyConqueredBatch(ids, render.ColorList(colors...))
	if len(res.Pending) > 0 {
		sched.Advance(ro.RetryDelay)
	}

	if opts.group != "" && !eng.ZoomToRegionGroup(opts.group) {
		log.Warn().Str("group", opts.group).Msg("Unknown region group, using default view")
	}
	if opts.zoom > 0 {
		eng.SetZoom(opts.zoom)
	}

	f, err := os.Create(opts.out)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", opts.out, err)
	}
	defer f.Close()
	if err := raster.Encode(f, sc.Snapshot(), raster.DefaultOptions()); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}

	// Pending ids the retry resolved are no longer conquered misses.
	var unmatched []string
	for _, id := range res.Pending {
		if !eng.Has(id) {
			unmatched = append(unmatched, id)
		}
	}
	log.Info().Str("mode", string(mode)).Int("records", len(records)).Int("drawn", len(eng.Conquered())).Msg("Snapshot written")
	return &summary{
		Mode:       mode,
		Features:   len(features),
		Records:    len(records),
		Matched:    len(res.Matched),
		Normalized: len(res.Normalized),
		Unmatched:  unmatched,
		Out:        opts.out,
	}, nil
}
