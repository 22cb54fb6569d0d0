// Package raster draws scene snapshots to PNG: region fills and outlines,
// dashed label connectors, and text labels with optional arrows.
package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/vector"

	"github.com/Mark-Phillipson/Risk/pkg/geo"
	"github.com/Mark-Phillipson/Risk/pkg/render"
	"github.com/Mark-Phillipson/Risk/pkg/scene"
)

// Options controls the base map look.
type Options struct {
	Background   color.NRGBA
	BaseOutline  color.NRGBA
	LabelColor   color.NRGBA
	LabelHalo    color.NRGBA
	LabelSize    float64
	ArrowSizePx  float64
	ShowOutlines bool
}

// DefaultOptions returns a light sea-and-land palette.
func DefaultOptions() Options {
	return Options{
		Background:   color.NRGBA{0xAA, 0xD3, 0xDF, 0xFF},
		BaseOutline:  color.NRGBA{0x88, 0x88, 0x88, 0xFF},
		LabelColor:   color.NRGBA{0x22, 0x22, 0x22, 0xFF},
		LabelHalo:    color.NRGBA{0xFF, 0xFF, 0xFF, 0xFF},
		LabelSize:    12,
		ArrowSizePx:  7,
		ShowOutlines: true,
	}
}

// Render draws a snapshot at its viewport size.
func Render(snap scene.Snapshot, opts Options) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, snap.Width, snap.Height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: opts.Background}, image.Point{}, draw.Src)
	proj := snap.ViewProjector()

	for _, l := range snap.Shapes {
		if opts.ShowOutlines {
			strokeShape(img, l.Shape, proj, opts.BaseOutline, 0.5)
		}
		fillShape(img, l.Shape, proj, l.Style)
		if c, ok := ParseColor(l.Style.Color, l.Style.Opacity); ok && l.Style.Weight > 0 {
			strokeShape(img, l.Shape, proj, c, l.Style.Weight)
		}
	}
	for _, p := range snap.Polylines {
		drawPolyline(img, p.Polyline, proj)
	}
	for _, m := range snap.Markers {
		drawMarker(img, m.Marker, proj, opts)
	}
	return img
}

// Encode renders a snapshot and writes it as PNG.
func Encode(w io.Writer, snap scene.Snapshot, opts Options) error {
	if err := png.Encode(w, Render(snap, opts)); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

func newRasterizer(img *image.RGBA) *vector.Rasterizer {
	b := img.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	z.DrawOp = draw.Over
	return z
}

func fillShape(img *image.RGBA, s geo.Shape, proj geo.Projector, st render.Style) {
	c, ok := ParseColor(st.FillColor, st.FillOpacity)
	if !ok {
		return
	}
	z := newRasterizer(img)
	for _, poly := range s.Polygons {
		for _, ring := range poly {
			if len(ring) < 3 {
				continue
			}
			for i, ll := range ring {
				p := proj.Project(ll)
				if i == 0 {
					z.MoveTo(float32(p.X), float32(p.Y))
				} else {
					z.LineTo(float32(p.X), float32(p.Y))
				}
			}
			z.ClosePath()
		}
	}
	z.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{})
}

func strokeShape(img *image.RGBA, s geo.Shape, proj geo.Projector, c color.Color, width float64) {
	z := newRasterizer(img)
	for _, r := range s.OuterRings() {
		n := len(r)
		for i := 0; i < n; i++ {
			a := proj.Project(r[i])
			b := proj.Project(r[(i+1)%n])
			segment(z, a, b, width)
		}
	}
	z.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{})
}

// segment adds a rectangle of the given width around a-b.
func segment(z *vector.Rasterizer, a, b geo.Point, width float64) {
	dx, dy := b.X-a.X, b.Y-a.Y
	l := math.Hypot(dx, dy)
	if l == 0 {
		return
	}
	hw := math.Max(width, 0.5) / 2
	nx, ny := -dy/l*hw, dx/l*hw
	z.MoveTo(float32(a.X+nx), float32(a.Y+ny))
	z.LineTo(float32(b.X+nx), float32(b.Y+ny))
	z.LineTo(float32(b.X-nx), float32(b.Y-ny))
	z.LineTo(float32(a.X-nx), float32(a.Y-ny))
	z.ClosePath()
}

// dashPattern parses a comma or space separated dash array.
func dashPattern(s string) []float64 {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	var out []float64
	for _, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || v < 0 {
			return nil
		}
		out = append(out, v)
	}
	total := 0.0
	for _, v := range out {
		total += v
	}
	if total == 0 {
		return nil
	}
	return out
}

func drawPolyline(img *image.RGBA, p render.Polyline, proj geo.Projector) {
	c, ok := ParseColor(p.Color, p.Opacity)
	if !ok || len(p.Points) < 2 {
		return
	}
	z := newRasterizer(img)
	dash := dashPattern(p.Dash)
	for i := 0; i+1 < len(p.Points); i++ {
		a, b := proj.Project(p.Points[i]), proj.Project(p.Points[i+1])
		if dash == nil {
			segment(z, a, b, p.Weight)
			continue
		}
		dashSegment(z, a, b, p.Weight, dash)
	}
	z.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{})
}

func dashSegment(z *vector.Rasterizer, a, b geo.Point, width float64, dash []float64) {
	l := math.Hypot(b.X-a.X, b.Y-a.Y)
	if l == 0 {
		return
	}
	ux, uy := (b.X-a.X)/l, (b.Y-a.Y)/l
	pos, i := 0.0, 0
	for pos < l {
		run := math.Min(dash[i%len(dash)], l-pos)
		if i%2 == 0 && run > 0 {
			start := geo.Point{X: a.X + ux*pos, Y: a.Y + uy*pos}
			end := geo.Point{X: a.X + ux*(pos+run), Y: a.Y + uy*(pos+run)}
			segment(z, start, end, width)
		}
		pos += dash[i%len(dash)]
		i++
	}
}

// ParseColor reads "#rgb" or "#rrggbb" and applies opacity. Transparent or
// unparseable colors and zero opacity report false.
func ParseColor(s string, opacity float64) (color.NRGBA, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if opacity <= 0 || s == "" || strings.EqualFold(s, "transparent") {
		return color.NRGBA{}, false
	}
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return color.NRGBA{}, false
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.NRGBA{}, false
	}
	a := math.Round(math.Min(opacity, 1) * 255)
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: uint8(a)}, true
}
