package caption

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/sudhir-bahadure/tube-automa-sub000/internal/scene"
	"github.com/sudhir-bahadure/tube-automa-sub000/internal/system"
)

// MaxBandHeight caps the caption band in pixels.
const MaxBandHeight = 400

// Style is the caption look for one orientation and visual style.
type Style struct {
	Upper       bool
	Fill        color.Color
	Stroke      color.Color
	StrokeWidth int
	FontSize    float64
	Anchor      float64 // band top as a fraction of frame height
	WidthFrac   float64 // line width budget as a fraction of frame width
}

// StyleFor returns the caption style of a render.
func StyleFor(o scene.Orientation, s scene.Style) Style {
	if o == scene.Vertical {
		return Style{
			Upper:       true,
			Fill:        color.White,
			Stroke:      color.Black,
			StrokeWidth: 5,
			FontSize:    64,
			Anchor:      0.75,
			WidthFrac:   0.9,
		}
	}

	st := Style{
		StrokeWidth: 1,
		FontSize:    44,
		Anchor:      0.85,
		WidthFrac:   0.8,
		Fill:        color.White,
		Stroke:      color.Black,
	}
	if s == scene.StyleStickman {
		st.Fill, st.Stroke = color.Black, color.White
	}
	return st
}

// Band is where a caption image goes on the frame.
type Band struct {
	X, Y          int
	Width, Height int
}

// BandFor computes the caption band of a frame.
func BandFor(st Style, frameW, frameH int) Band {
	w := int(float64(frameW) * st.WidthFrac)
	y := int(float64(frameH) * st.Anchor)
	h := min(MaxBandHeight, frameH-y)
	return Band{X: (frameW - w) / 2, Y: y, Width: w, Height: h}
}

// Overlay is a rendered caption: a transparent PNG exactly the size of its band.
type Overlay struct {
	Path  string
	Band  Band
	Lines []string
}

// Renderer draws captions with one font. It is safe for concurrent use.
type Renderer struct {
	font *opentype.Font
}

// NewRenderer loads the font at path, or the bundled Go Bold when path is empty.
func NewRenderer(path string) (*Renderer, error) {
	data := gobold.TTF
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read font: %w", err)
		}
		data = b
	}

	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &Renderer{font: f}, nil
}

func (r *Renderer) face(size float64) (font.Face, error) {
	return opentype.NewFace(r.font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// Render draws text into a band-sized PNG at out. An empty caption yields a
// nil overlay and no file.
func (r *Renderer) Render(text string, st Style, frameW, frameH int, out string) (*Overlay, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	if st.Upper {
		text = strings.ToUpper(text)
	}

	face, err := r.face(st.FontSize)
	if err != nil {
		return nil, err
	}
	defer face.Close()

	band := BandFor(st, frameW, frameH)
	if band.Width <= 0 || band.Height <= 0 {
		return nil, fmt.Errorf("caption band %dx%d is empty", band.Width, band.Height)
	}

	lines := Wrap(face, text, band.Width-2*st.StrokeWidth)
	lineH := face.Metrics().Height.Ceil()
	fit := (band.Height - 2*st.StrokeWidth) / lineH
	if fit < len(lines) {
		lines = lines[:max(fit, 0)]
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("caption does not fit a %dpx band", band.Height)
	}

	img := system.GetFrame(image.Rect(0, 0, band.Width, band.Height))
	defer system.PutFrame(img)

	ascent := face.Metrics().Ascent.Ceil()
	for i, line := range lines {
		adv := font.MeasureString(face, line).Ceil()
		x := (band.Width - adv) / 2
		y := st.StrokeWidth + i*lineH + ascent
		drawStroked(img, face, line, x, y, st)
	}

	if err := system.SavePNG(out, img); err != nil {
		return nil, err
	}
	return &Overlay{Path: out, Band: band, Lines: lines}, nil
}

func drawStroked(dst *image.RGBA, face font.Face, s string, x, y int, st Style) {
	d := &font.Drawer{Dst: dst, Face: face}

	if st.StrokeWidth > 0 && st.Stroke != nil {
		d.Src = image.NewUniform(st.Stroke)
		sw := st.StrokeWidth
		for dy := -sw; dy <= sw; dy++ {
			for dx := -sw; dx <= sw; dx++ {
				if dx*dx+dy*dy > sw*sw || (dx == 0 && dy == 0) {
					continue
				}
				d.Dot = fixed.P(x+dx, y+dy)
				d.DrawString(s)
			}
		}
	}

	d.Src = image.NewUniform(st.Fill)
	d.Dot = fixed.P(x, y)
	d.DrawString(s)
}

// Wrap breaks text into lines no wider than maxWidth pixels. A single word
// wider than the budget gets a line of its own.
func Wrap(face font.Face, text string, maxWidth int) []string {
	var lines []string
	var cur string
	for _, word := range strings.Fields(text) {
		if cur == "" {
			cur = word
			continue
		}
		candidate := cur + " " + word
		if font.MeasureString(face, candidate).Ceil() <= maxWidth {
			cur = candidate
			continue
		}
		lines = append(lines, cur)
		cur = word
	}
	if cur != "" {
		lines = append(lines, cur)
	}
	return lines
}
