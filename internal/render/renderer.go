// Package render synthesises the placeholder image used when every remote
// provider has failed. Output depends only on the prompt and the canvas size.
package render

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"sync"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

const (
	DefaultTitle    = "STUDENT DEMO"
	DefaultSubtitle = "Get free API keys above!"

	// MaxCanvasSide bounds the surface so a bad size cannot exhaust memory.
	MaxCanvasSide = 4096
)

// ErrSurfaceUnavailable reports that no canvas could be allocated.
var ErrSurfaceUnavailable = errors.New("render: surface unavailable")

// Result is a finished placeholder image plus the plan that produced it.
type Result struct {
	Hash    int64
	Palette Palette
	Shapes  []Shape
	PNG     []byte
}

// DataURL embeds the PNG as a data URL.
func (r *Result) DataURL() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(r.PNG)
}

// Options configures the overlay text.
type Options struct {
	Title    string
	Subtitle string
}

// Renderer draws placeholder images. It is safe for concurrent use.
type Renderer struct {
	title    string
	subtitle string
}

// NewRenderer applies defaults to opts.
func NewRenderer(opts Options) *Renderer {
	title := opts.Title
	if title == "" {
		title = DefaultTitle
	}
	subtitle := opts.Subtitle
	if subtitle == "" {
		subtitle = DefaultSubtitle
	}
	return &Renderer{title: title, subtitle: subtitle}
}

// Render paints the placeholder for prompt on a width x height canvas.
func (r *Renderer) Render(prompt string, width, height int) (*Result, error) {
	if width <= 0 || height <= 0 || width > MaxCanvasSide || height > MaxCanvasSide {
		return nil, fmt.Errorf("%w: %dx%d", ErrSurfaceUnavailable, width, height)
	}
	hash := Hash(prompt)
	palette := PaletteFor(hash)
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	paintGradient(img, palette)
	shapes := Layout(prompt, width, height, hash)
	for _, s := range shapes {
		fillShape(img, s)
	}
	if err := r.drawCaption(img); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("render: encode png: %w", err)
	}
	return &Result{Hash: hash, Palette: palette, Shapes: shapes, PNG: buf.Bytes()}, nil
}

type gradientStop struct {
	offset float64
	color  colorful.Color
}

// GradientStops returns the three radial stops for palette: the base hue
// lightened, then the +60 and +120 degree rotations.
func GradientStops(p Palette) [3]colorful.Color {
	s := float64(p.Saturation) / 100
	return [3]colorful.Color{
		colorful.Hsl(float64(p.Hue), s, float64(p.Lightness+20)/100),
		colorful.Hsl(float64((p.Hue+60)%360), s, float64(p.Lightness)/100),
		colorful.Hsl(float64((p.Hue+120)%360), s, float64(p.Lightness-10)/100),
	}
}

func paintGradient(img *image.RGBA, p Palette) {
	c := GradientStops(p)
	stops := []gradientStop{{0, c[0]}, {0.7, c[1]}, {1, c[2]}}
	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	cx, cy := w/2, h/2
	radius := math.Max(w, h) / 2

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			d := math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy) / radius
			r, g, bl := colorAt(stops, d).Clamped().RGB255()
			img.SetRGBA(x, y, color.RGBA{R: r, G: g, B: bl, A: 0xff})
		}
	}
}

func colorAt(stops []gradientStop, t float64) colorful.Color {
	if t <= stops[0].offset {
		return stops[0].color
	}
	for i := 1; i < len(stops); i++ {
		if t <= stops[i].offset {
			prev := stops[i-1]
			span := stops[i].offset - prev.offset
			return prev.color.BlendRgb(stops[i].color, (t-prev.offset)/span)
		}
	}
	return stops[len(stops)-1].color
}

// kappa places cubic control points so four segments approximate a circle.
const kappa = 0.5522847498

func fillShape(img *image.RGBA, s Shape) {
	b := img.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	z.DrawOp = draw.Over

	switch s.Kind {
	case ShapeCircle, ShapeStar:
		cx, cy, rad := float32(s.Center.X), float32(s.Center.Y), float32(s.Radius)
		k := rad * kappa
		z.MoveTo(cx+rad, cy)
		z.CubeTo(cx+rad, cy+k, cx+k, cy+rad, cx, cy+rad)
		z.CubeTo(cx-k, cy+rad, cx-rad, cy+k, cx-rad, cy)
		z.CubeTo(cx-rad, cy-k, cx-k, cy-rad, cx, cy-rad)
		z.CubeTo(cx+k, cy-rad, cx+rad, cy-k, cx+rad, cy)
		z.ClosePath()
	case ShapeTriangle:
		if len(s.Vertices) < 3 {
			return
		}
		z.MoveTo(float32(s.Vertices[0].X), float32(s.Vertices[0].Y))
		for _, v := range s.Vertices[1:] {
			z.LineTo(float32(v.X), float32(v.Y))
		}
		z.ClosePath()
	default:
		return
	}

	a := uint8(math.Round(s.Alpha * 255))
	src := image.NewUniform(color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: a})
	z.Draw(img, b, src, image.Point{})
}

var (
	fontsOnce sync.Once
	boldFont  *opentype.Font
	plainFont *opentype.Font
	fontsErr  error
)

func loadFonts() error {
	fontsOnce.Do(func() {
		boldFont, fontsErr = opentype.Parse(gobold.TTF)
		if fontsErr != nil {
			return
		}
		plainFont, fontsErr = opentype.Parse(goregular.TTF)
	})
	if fontsErr != nil {
		return fmt.Errorf("render: load fonts: %w", fontsErr)
	}
	return nil
}

var (
	strokeColor = color.NRGBA{A: 77}
	fillColor   = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 230}
)

func (r *Renderer) drawCaption(img *image.RGBA) error {
	if err := loadFonts(); err != nil {
		return err
	}
	b := img.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	fontSize := math.Min(w, h) / 15

	if err := drawCentered(img, boldFont, fontSize, r.title, w/2, h/2-fontSize); err != nil {
		return err
	}
	return drawCentered(img, plainFont, fontSize*0.6, r.subtitle, w/2, h/2+fontSize/2)
}

// drawCentered strokes then fills text centred on (cx, cy).
func drawCentered(img *image.RGBA, f *opentype.Font, size float64, text string, cx, cy float64) error {
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return fmt.Errorf("render: new face: %w", err)
	}
	defer face.Close()

	m := face.Metrics()
	advance := font.MeasureString(face, text)
	x := fixed.Int26_6(cx*64) - advance/2
	y := fixed.Int26_6(cy*64) + (m.Ascent-m.Descent)/2

	d := &font.Drawer{Dst: img, Face: face, Src: image.NewUniform(strokeColor)}
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			d.Dot = fixed.Point26_6{X: x + fixed.I(dx), Y: y + fixed.I(dy)}
			d.DrawString(text)
		}
	}
	d.Src = image.NewUniform(fillColor)
	d.Dot = fixed.Point26_6{X: x, Y: y}
	d.DrawString(text)
	return nil
}
