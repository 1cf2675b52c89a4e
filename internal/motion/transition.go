package motion

import (
	"image/color"
	"math/rand"

	"github.com/sudhir-bahadure/tube-automa-sub000/internal/scene"
)

// Transition describes how a scene enters and leaves. Crossfade is the
// overlap with the previous clip and is applied by the sequencer.
type Transition struct {
	FadeIn    float64
	FadeOut   float64
	Crossfade float64
}

const (
	StickmanFade      = 0.4
	PsychCrossfade    = 0.3
	StandardCrossfade = 0.5
	ParticleCount     = 3
	ParticleOpacity   = 0.15
	ParticleMaxSpeed  = 15.0
	particleMinSize   = 4
	particleMaxSize   = 10
)

// TransitionFor returns the transition policy of a style. Punchlines cut in hard.
func TransitionFor(style scene.Style, punchline bool) Transition {
	if punchline {
		return Transition{}
	}
	switch style {
	case scene.StyleStickman:
		return Transition{FadeIn: StickmanFade, FadeOut: StickmanFade}
	case scene.StylePsychStickman:
		return Transition{Crossfade: PsychCrossfade}
	default:
		return Transition{Crossfade: StandardCrossfade}
	}
}

// Background is the flat fill behind stickman-family characters.
var (
	Background    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	ParticleColor = color.RGBA{R: 220, G: 220, B: 220, A: 255}
)

// Particle drifts linearly across the background.
type Particle struct {
	X0, Y0 float64
	VX, VY float64
	Size   int
}

func (p Particle) Position(t float64) (x, y float64) {
	return p.X0 + p.VX*t, p.Y0 + p.VY*t
}

// NewParticles places the decorative particles of one scene.
func NewParticles(rng *rand.Rand, width, height int) []Particle {
	ps := make([]Particle, ParticleCount)
	for i := range ps {
		ps[i] = Particle{
			X0:   rng.Float64() * float64(width),
			Y0:   rng.Float64() * float64(height),
			VX:   (rng.Float64()*2 - 1) * ParticleMaxSpeed,
			VY:   (rng.Float64()*2 - 1) * ParticleMaxSpeed,
			Size: particleMinSize + rng.Intn(particleMaxSize-particleMinSize+1),
		}
	}
	return ps
}
