package compositor

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/sudhir-bahadure/tube-automa-sub000/internal/motion"
	"github.com/sudhir-bahadure/tube-automa-sub000/internal/source"
	"github.com/sudhir-bahadure/tube-automa-sub000/internal/system"
)

// CharacterWidth is the rest width of a stickman character relative to the frame.
const CharacterWidth = 0.7

var (
	background    = image.NewUniform(motion.Background)
	particleColor = image.NewUniform(motion.ParticleColor)
	particleMask  = image.NewUniform(color.Alpha{A: uint8(math.Round(motion.ParticleOpacity * 255))})
)

// Puppet draws the frames of a stickman-family scene: a flat background with
// drifting particles and the animated character on top.
type Puppet struct {
	char      *image.RGBA
	motion    motion.MotionFunc
	particles []motion.Particle
	width     int
	height    int
	fps       int
	frames    int
}

// NewPuppet loads the character image and scales it to its rest size.
func NewPuppet(path string, m motion.Motion, particles []motion.Particle, width, height, fps, frames int) (*Puppet, error) {
	img, err := source.Decode(path, 0)
	if err != nil {
		return nil, fmt.Errorf("load character: %w", err)
	}
	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("character %s is empty", path)
	}

	cw := int(math.Round(float64(width) * CharacterWidth))
	ch := max(1, int(math.Round(float64(b.Dy())*float64(cw)/float64(b.Dx()))))
	char := image.NewRGBA(image.Rect(0, 0, cw, ch))
	xdraw.CatmullRom.Scale(char, char.Bounds(), img, b, xdraw.Src, nil)

	return &Puppet{
		char:      char,
		motion:    m.Func(),
		particles: particles,
		width:     width,
		height:    height,
		fps:       fps,
		frames:    frames,
	}, nil
}

// Draw renders frame n into dst, which must be width x height.
func (p *Puppet) Draw(dst *image.RGBA, n int) {
	t := float64(n) / float64(p.fps)
	xdraw.Draw(dst, dst.Bounds(), background, image.Point{}, xdraw.Src)

	for _, pt := range p.particles {
		x, y := pt.Position(t)
		r := image.Rect(int(x), int(y), int(x)+pt.Size, int(y)+pt.Size)
		xdraw.DrawMask(dst, r, particleColor, image.Point{}, particleMask, image.Point{}, xdraw.Over)
	}

	tr := p.motion(t)
	if tr.Opacity <= 0 || tr.Scale <= 0 {
		return
	}

	cw, ch := float64(p.char.Rect.Dx()), float64(p.char.Rect.Dy())
	cx := float64(p.width)/2 + tr.OffsetX
	cy := float64(p.height)/2 + tr.OffsetY
	sin, cos := math.Sincos(tr.RotationDeg * math.Pi / 180)
	a, b := tr.Scale*cos, -tr.Scale*sin
	c, d := tr.Scale*sin, tr.Scale*cos
	s2d := f64.Aff3{
		a, b, cx - (a*cw/2 + b*ch/2),
		c, d, cy - (c*cw/2 + d*ch/2),
	}

	var opts *xdraw.Options
	if tr.Opacity < 1 {
		opts = &xdraw.Options{SrcMask: image.NewUniform(color.Alpha{A: uint8(math.Round(tr.Opacity * 255))})}
	}
	xdraw.ApproxBiLinear.Transform(dst, s2d, p.char, p.char.Bounds(), xdraw.Over, opts)
}

// Feed streams every frame as packed RGBA.
func (p *Puppet) Feed(ctx context.Context, w io.Writer) error {
	frame := system.GetFrame(image.Rect(0, 0, p.width, p.height))
	defer system.PutFrame(frame)

	for n := 0; n < p.frames; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.Draw(frame, n)
		if _, err := w.Write(frame.Pix); err != nil {
			return fmt.Errorf("frame %d: %w", n, err)
		}
	}
	return nil
}

// InputOptions describes the Feed stream to ffmpeg.
func (p *Puppet) InputOptions() []string {
	return []string{
		"-f", "rawvideo",
		"-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", p.width, p.height),
		"-framerate", fmt.Sprintf("%d", p.fps),
	}
}
