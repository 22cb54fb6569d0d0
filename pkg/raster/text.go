package raster

import (
	"image"
	"image/color"
	"math"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/Mark-Phillipson/Risk/pkg/geo"
	"github.com/Mark-Phillipson/Risk/pkg/render"
)

const labelMargin = 4

var (
	goFontOnce sync.Once
	goFont     *opentype.Font
	goFontErr  error
	faceMu     sync.Mutex
	faceBySize = make(map[float64]font.Face)
)

// labelFace returns Go Regular at size, or the built-in bitmap face if the
// font cannot be loaded.
func labelFace(size float64) font.Face {
	goFontOnce.Do(func() {
		goFont, goFontErr = opentype.Parse(goregular.TTF)
	})
	if goFontErr != nil || goFont == nil {
		return basicfont.Face7x13
	}
	faceMu.Lock()
	defer faceMu.Unlock()
	if f, ok := faceBySize[size]; ok {
		return f
	}
	f, err := opentype.NewFace(goFont, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return basicfont.Face7x13
	}
	faceBySize[size] = f
	return f
}

func drawText(img *image.RGBA, text string, x, y int, c color.Color, face font.Face) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// drawMarker centers the text on the marker point with a halo. Offshore
// labels get an arrow to the right of the text, rotated toward the region.
func drawMarker(img *image.RGBA, m render.Marker, proj geo.Projector, opts Options) {
	if m.Text == "" {
		return
	}
	face := labelFace(opts.LabelSize)
	p := proj.Project(m.At)
	w := font.MeasureString(face, m.Text).Ceil()
	metrics := face.Metrics()
	ascent := metrics.Ascent.Ceil()
	h := metrics.Height.Ceil()

	x := int(math.Round(p.X)) - w/2
	y := int(math.Round(p.Y)) - h/2 + ascent
	for _, dx := range []int{-1, 0, 1} {
		for _, dy := range []int{-1, 0, 1} {
			if dx == 0 && dy == 0 {
				continue
			}
			drawText(img, m.Text, x+dx, y+dy, opts.LabelHalo, face)
		}
	}
	drawText(img, m.Text, x, y, opts.LabelColor, face)

	if m.Arrow {
		tip := geo.Point{X: float64(x+w+labelMargin) + opts.ArrowSizePx, Y: p.Y}
		drawArrow(img, tip, m.ArrowDeg, opts.ArrowSizePx, opts.LabelColor)
	}
}

// drawArrow draws a triangle centered on c pointing at deg, where 0 is up
// and angles grow clockwise.
func drawArrow(img *image.RGBA, c geo.Point, deg, size float64, col color.Color) {
	rad := deg * math.Pi / 180
	rot := func(x, y float64) (float32, float32) {
		sin, cos := math.Sincos(rad)
		return float32(c.X + x*cos - y*sin), float32(c.Y + x*sin + y*cos)
	}
	z := newRasterizer(img)
	z.MoveTo(rot(0, -size))
	z.LineTo(rot(size*0.6, size*0.6))
	z.LineTo(rot(-size*0.6, size*0.6))
	z.ClosePath()
	z.Draw(img, img.Bounds(), image.NewUniform(col), image.Point{})
}
