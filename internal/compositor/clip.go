package compositor

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/sudhir-bahadure/tube-automa-sub000/internal/assets"
	"github.com/sudhir-bahadure/tube-automa-sub000/internal/caption"
	"github.com/sudhir-bahadure/tube-automa-sub000/internal/motion"
	"github.com/sudhir-bahadure/tube-automa-sub000/internal/scene"
	"github.com/sudhir-bahadure/tube-automa-sub000/internal/source"
	"github.com/sudhir-bahadure/tube-automa-sub000/internal/timeline"
	"github.com/sudhir-bahadure/tube-automa-sub000/internal/video"
)

// Settings are the render-wide parameters of the compositor.
type Settings struct {
	Width  int
	Height int
	FPS    int
	Seed   int64
}

// Prepared is a resolved scene with its caption band, ready for placement.
type Prepared struct {
	Resolved assets.Resolved
	Caption  *caption.Overlay // nil when the scene has no caption
}

// Clip is one placed scene. Frame counts are exact; every clip ends on the
// frame where the next scene's narration starts, plus the held tail that the
// next crossfade consumes.
type Clip struct {
	Prepared
	Motion     motion.Motion
	Transition motion.Transition
	Particles  []motion.Particle

	Start      float64 // narration start in seconds
	StartFrame int
	Frames     int // rendered frames, held tail included
	Overlap    int // crossfade frames into this clip
}

// Style is the scene's visual style.
func (c *Clip) Style() scene.Style {
	return c.Resolved.Scene.Style
}

// Animated reports whether the clip's frames are drawn in Go.
func (c *Clip) Animated() bool {
	return c.Style().IsStickmanFamily() && c.Resolved.Visual.Kind == assets.KindImage
}

// Seconds is the rendered length of the clip.
func (c *Clip) Seconds(fps int) float64 {
	return float64(c.Frames) / float64(fps)
}

// Check reports problems that would make Build fail, so the scene can be
// skipped before it is placed.
func Check(p Prepared) error {
	v := p.Resolved.Visual
	if !p.Resolved.Scene.Style.IsStickmanFamily() || v.Kind != assets.KindImage {
		return nil
	}
	if _, err := source.Decode(v.Path, 0); err != nil {
		return fmt.Errorf("load character: %w", err)
	}
	return nil
}

// Plan places scenes on the timeline and assigns motion to each clip.
func Plan(scenes []Prepared, s Settings) (*timeline.Timeline, []Clip, error) {
	if s.FPS <= 0 {
		return nil, nil, fmt.Errorf("fps must be positive, got %d", s.FPS)
	}

	tcs := make([]timeline.Clip, len(scenes))
	trs := make([]motion.Transition, len(scenes))
	for i, p := range scenes {
		sc := p.Resolved.Scene
		trs[i] = motion.TransitionFor(sc.Style, sc.IsPunchline)
		tcs[i] = timeline.Clip{Index: p.Resolved.Index, Duration: p.Resolved.Duration(), Overlap: trs[i].Crossfade}
	}
	tl, err := timeline.Build(tcs)
	if err != nil {
		return nil, nil, err
	}

	fps := float64(s.FPS)
	bounds := make([]int, len(scenes)+1)
	for i, e := range tl.Entries {
		end := timeline.FrameAlign(e.End(), s.FPS)
		bounds[i+1] = max(int(math.Round(end*fps)), bounds[i]+1)
	}

	overlaps := make([]int, len(scenes)+1)
	for i := 1; i < len(scenes); i++ {
		o := int(math.Round(tl.Entries[i].Overlap * fps))
		overlaps[i] = min(o, (bounds[i+1]-bounds[i])/2)
	}

	clips := make([]Clip, len(scenes))
	for i, p := range scenes {
		sc := p.Resolved.Scene
		seed := scene.Seed(s.Seed, p.Resolved.Index)
		frames := bounds[i+1] - bounds[i] + overlaps[i+1]

		c := Clip{
			Prepared:   p,
			Transition: trs[i],
			Start:      tl.Entries[i].Start,
			StartFrame: bounds[i],
			Frames:     frames,
			Overlap:    overlaps[i],
		}
		c.Motion = motion.For(motion.Params{
			Style:     sc.Style,
			Action:    sc.Action,
			Punchline: sc.IsPunchline,
			Duration:  float64(frames) / fps,
			Width:     s.Width,
			Height:    s.Height,
			FPS:       s.FPS,
			Seed:      seed,
		})
		if sc.Style.IsStickmanFamily() {
			c.Particles = motion.NewParticles(rand.New(rand.NewSource(seed+2)), s.Width, s.Height)
		}
		clips[i] = c
	}
	return tl, clips, nil
}

// Build adds the clip's inputs and filters to g and returns the label of its
// video stream: exactly c.Frames frames of s.Width x s.Height yuv420p.
func (c *Clip) Build(g *video.Graph, s Settings) (string, error) {
	var base string
	var err error
	switch {
	case c.Resolved.Visual.Kind == assets.KindVideo:
		base = c.buildVideo(g, s)
	case c.Animated():
		base, err = c.buildPuppet(g, s)
	case c.Style() == scene.StyleNoir:
		base = c.buildStill(g, s, noirCanvas(s), motion.NoirCanvas)
	default:
		base = c.buildStill(g, s, plainCanvas(s), 1)
	}
	if err != nil {
		return "", err
	}

	if c.Caption != nil {
		idx := g.AddInput(video.Input{Path: c.Caption.Path})
		over := g.Label("cap")
		g.Chain("%s[%d:v]overlay=%d:%d:eof_action=repeat%s", base, idx, c.Caption.Band.X, c.Caption.Band.Y, over)
		base = over
	}

	out := g.Label("clip")
	g.Chain("%sfps=%d,format=yuv420p,setsar=1,settb=AVTB%s", base, s.FPS, out)
	return out, nil
}

func (c *Clip) buildPuppet(g *video.Graph, s Settings) (string, error) {
	p, err := NewPuppet(c.Resolved.Visual.Path, c.Motion, c.Particles, s.Width, s.Height, s.FPS, c.Frames)
	if err != nil {
		return "", err
	}
	idx := g.AddInput(video.Input{Options: p.InputOptions(), Feed: p.Feed})
	out := g.Label("v")
	g.Chain("[%d:v]null%s", idx, out)
	return out, nil
}

// buildStill animates a single image with zoompan over a prepared canvas.
func (c *Clip) buildStill(g *video.Graph, s Settings, canvas string, zoom float64) string {
	idx := g.AddInput(video.Input{Path: c.Resolved.Visual.Path})
	out := g.Label("v")
	g.Chain("[%d:v]%s,setsar=1,%s%s", idx, canvas, c.Motion.ZoomPan(zoom, s.Width, s.Height, c.Frames), out)
	return out
}

// noirCanvas covers 1.2x the frame and crops to 1.1x so the drift never
// reveals an edge.
func noirCanvas(s Settings) string {
	pw, ph := even(float64(s.Width)*motion.NoirPrescale), even(float64(s.Height)*motion.NoirPrescale)
	cw, ch := even(float64(s.Width)*motion.NoirCanvas), even(float64(s.Height)*motion.NoirCanvas)
	return fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d", pw, ph, cw, ch)
}

// plainCanvas fits the image inside the frame, centered on black.
func plainCanvas(s Settings) string {
	return fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2:color=black",
		s.Width, s.Height, s.Width, s.Height)
}

// buildVideo loops or trims a clip to the scene and crops it to cover the frame.
func (c *Clip) buildVideo(g *video.Graph, s Settings) string {
	limit := fmt.Sprintf("%.3f", c.Seconds(s.FPS)+1)
	idx := g.AddInput(video.Input{Options: []string{"-stream_loop", "-1", "-t", limit}, Path: c.Resolved.Visual.Path})
	out := g.Label("v")

	chain := fmt.Sprintf("[%d:v]fps=%d,scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,setsar=1,trim=end_frame=%d,setpts=PTS-STARTPTS",
		idx, s.FPS, s.Width, s.Height, s.Width, s.Height, c.Frames)
	if tr := c.Transition; tr.FadeIn > 0 || tr.FadeOut > 0 {
		chain += c.fades(s.FPS)
	}
	g.Chain("%s%s", chain, out)
	return out
}

// fades applies the style's fade envelope to clips that are not drawn in Go.
func (c *Clip) fades(fps int) string {
	tr := c.Transition
	d := c.Seconds(fps)
	var f string
	if tr.FadeIn > 0 {
		f += fmt.Sprintf(",fade=t=in:st=0:d=%s:color=white", secs(min(tr.FadeIn, d/2)))
	}
	if tr.FadeOut > 0 {
		out := min(tr.FadeOut, d/2)
		f += fmt.Sprintf(",fade=t=out:st=%s:d=%s:color=white", secs(d-out), secs(out))
	}
	return f
}

func even(v float64) int {
	n := int(math.Round(v))
	return n + n%2
}

func secs(v float64) string {
	return fmt.Sprintf("%.6f", v)
}
