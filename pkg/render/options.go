package render

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Mark-Phillipson/Risk/pkg/geo"
	"github.com/Mark-Phillipson/Risk/pkg/region"
)

// Observer receives counters from the engine. Implementations must not call
// back into the engine.
type Observer interface {
	Applied(id string)
	Unmatched(id string)
	Retried(resolved, remaining int)
	LabelPlaced(state LabelState)
}

type nopObserver struct{}

func (nopObserver) Applied(string)         {}
func (nopObserver) Unmatched(string)       {}
func (nopObserver) Retried(int, int)       {}
func (nopObserver) LabelPlaced(LabelState) {}

// Options tunes rendering. Zero fields take the defaults from DefaultOptions.
type Options struct {
	DefaultColor string
	OutlineColor string
	FillOpacity  float64

	LabelZoomThreshold float64
	NarrowAspect       float64
	SmallSizePx        float64
	OffshoreMinPx      float64
	OffshoreFactor     float64

	RetryDelay    time.Duration
	FocusInterval time.Duration
	FocusAttempts int

	FitPadding       float64
	FocusMaxZoom     float64
	InitialCenter    geo.LatLng
	InitialZoom      float64
	FeatureZoomBump  float64
	FeatureZoomFloor float64
	FeatureZoomCeil  float64

	// LabelsDisabled starts the engine with labels switched off.
	LabelsDisabled bool
	GroupKeys      []string
	GroupBoxes     map[string]geo.Bounds

	Scheduler Scheduler
	Logger    *zerolog.Logger
	Observer  Observer
}

// DefaultOptions returns the stock map behavior.
func DefaultOptions() Options {
	return Options{
		DefaultColor:       "#ffcc00",
		OutlineColor:       "#222",
		FillOpacity:        0.6,
		LabelZoomThreshold: 4,
		NarrowAspect:       2.5,
		SmallSizePx:        120,
		OffshoreMinPx:      80,
		OffshoreFactor:     1.2,
		RetryDelay:         250 * time.Millisecond,
		FocusInterval:      50 * time.Millisecond,
		FocusAttempts:      40,
		FitPadding:         40,
		FocusMaxZoom:       6,
		InitialCenter:      geo.LatLng{Lat: 20, Lng: 0},
		InitialZoom:        2,
		FeatureZoomBump:    2,
		FeatureZoomFloor:   4,
		FeatureZoomCeil:    10,
		GroupKeys:          region.GroupKeys,
		GroupBoxes:         FallbackGroupBoxes(),
		Scheduler:          TimerScheduler{},
		Observer:           nopObserver{},
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.DefaultColor == "" {
		o.DefaultColor = d.DefaultColor
	}
	if o.OutlineColor == "" {
		o.OutlineColor = d.OutlineColor
	}
	if o.FillOpacity == 0 {
		o.FillOpacity = d.FillOpacity
	}
	if o.LabelZoomThreshold == 0 {
		o.LabelZoomThreshold = d.LabelZoomThreshold
	}
	if o.NarrowAspect == 0 {
		o.NarrowAspect = d.NarrowAspect
	}
	if o.SmallSizePx == 0 {
		o.SmallSizePx = d.SmallSizePx
	}
	if o.OffshoreMinPx == 0 {
		o.OffshoreMinPx = d.OffshoreMinPx
	}
	if o.OffshoreFactor == 0 {
		o.OffshoreFactor = d.OffshoreFactor
	}
	if o.RetryDelay == 0 {
		o.RetryDelay = d.RetryDelay
	}
	if o.FocusInterval == 0 {
		o.FocusInterval = d.FocusInterval
	}
	if o.FocusAttempts == 0 {
		o.FocusAttempts = d.FocusAttempts
	}
	if o.FitPadding == 0 {
		o.FitPadding = d.FitPadding
	}
	if o.FocusMaxZoom == 0 {
		o.FocusMaxZoom = d.FocusMaxZoom
	}
	if o.InitialZoom == 0 && o.InitialCenter == (geo.LatLng{}) {
		o.InitialCenter = d.InitialCenter
		o.InitialZoom = d.InitialZoom
	}
	if o.FeatureZoomBump == 0 {
		o.FeatureZoomBump = d.FeatureZoomBump
	}
	if o.FeatureZoomFloor == 0 {
		o.FeatureZoomFloor = d.FeatureZoomFloor
	}
	if o.FeatureZoomCeil == 0 {
		o.FeatureZoomCeil = d.FeatureZoomCeil
	}
	if o.GroupKeys == nil {
		o.GroupKeys = d.GroupKeys
	}
	if o.GroupBoxes == nil {
		o.GroupBoxes = d.GroupBoxes
	}
	if o.Scheduler == nil {
		o.Scheduler = d.Scheduler
	}
	if o.Observer == nil {
		o.Observer = d.Observer
	}
	return o
}

func (o Options) logger() zerolog.Logger {
	if o.Logger != nil {
		return *o.Logger
	}
	return log.Logger
}

func box(swLat, swLng, neLat, neLng float64) geo.Bounds {
	return geo.NewBounds(geo.LatLng{Lat: swLat, Lng: swLng}, geo.LatLng{Lat: neLat, Lng: neLng})
}

// FallbackGroupBoxes returns approximate extents for group names that often
// have no matching property in the loaded data. Keys are lowercase.
func FallbackGroupBoxes() map[string]geo.Bounds {
	return map[string]geo.Bounds{
		"africa":        box(-35, -20, 38, 52),
		"europe":        box(34, -25, 72, 45),
		"asia":          box(-10, 26, 80, 180),
		"north america": box(5, -170, 83, -30),
		"south america": box(-56, -82, 13, -34),
		"oceania":       box(-50, 110, 10, 180),
		"antarctica":    box(-90, -180, -60, 180),

		"england":          box(49.9, -6.5, 55.8, 1.8),
		"scotland":         box(54.5, -7.5, 60.9, -0.8),
		"wales":            box(51.3, -5.5, 53.5, -2.8),
		"northern ireland": box(54.0, -8.2, 55.5, -5.4),

		"south kent": box(51.0, 0.8, 51.2, 1.2),
		"north kent": box(51.4, 0.3, 51.5, 0.7),
		"east kent":  box(51.2, 1.0, 51.4, 1.4),
		"west kent":  box(51.1, 0.2, 51.3, 0.6),
	}
}
