package motion

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/sudhir-bahadure/tube-automa-sub000/internal/scene"
)

// Transform is the state of the animated layer at one instant. Offsets are in
// output pixels relative to the centered rest position, Scale is relative to
// the rest size.
type Transform struct {
	OffsetX     float64
	OffsetY     float64
	Scale       float64
	RotationDeg float64
	Opacity     float64
}

// MotionFunc maps scene time in seconds to a transform.
type MotionFunc func(t float64) Transform

// Kind tags one entry of the motion dispatch table.
type Kind int

const (
	KindFloating Kind = iota
	KindJumping
	KindBouncing
	KindShaking
	KindWaving
	KindPunchline
	KindNoirZoomIn
	KindNoirZoomOut
	KindNoirPan
	KindStatic
)

var kindNames = map[Kind]string{
	KindFloating:    "floating",
	KindJumping:     "jumping",
	KindBouncing:    "bouncing",
	KindShaking:     "shaking",
	KindWaving:      "waving",
	KindPunchline:   "punchline",
	KindNoirZoomIn:  "noir_zoom_in",
	KindNoirZoomOut: "noir_zoom_out",
	KindNoirPan:     "noir_pan",
	KindStatic:      "static",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

const (
	BreathingAmp  = 0.015
	BreathingFreq = 0.25

	FloatAmp  = 15.0
	FloatFreq = 0.33

	JumpHeight = 150.0
	JumpFreq   = 0.8
	JumpSquash = 0.1

	BounceAmp  = 0.15
	BounceFreq = 0.7

	ShakeAmp     = 8.0
	PunchlineAmp = 35.0

	PunchZoomBase = 1.15
	PunchZoomAmp  = 0.1
	PunchZoomFreq = 5.0

	WaveDeg  = 5.0
	WaveFreq = 0.5

	NoirDrift = 0.05

	// NoirPrescale and NoirCanvas are relative to the output frame: the
	// source is scaled to cover 1.2x and cropped to 1.1x before moving.
	NoirPrescale = 1.2
	NoirCanvas   = 1.1
)

// Params selects and parameterizes the motion of one scene.
type Params struct {
	Style     scene.Style
	Action    scene.VocalAction
	Punchline bool
	Duration  float64 // seconds the clip is on screen
	Width     int
	Height    int
	FPS       int
	Seed      int64 // scene seed, see scene.Seed
}

// Motion is a resolved entry of the dispatch table. Every channel is an
// expression so it can be evaluated here or printed into a filter graph.
type Motion struct {
	Kind     Kind
	OffsetX  Expr
	OffsetY  Expr
	Scale    Expr
	Rotation Expr // degrees
	Opacity  Expr
	FPS      int
}

// At evaluates the motion at scene time t.
func (m Motion) At(t float64) Transform {
	n := math.Floor(t*float64(m.FPS) + 1e-6)
	return Transform{
		OffsetX:     m.OffsetX.Eval(t, n),
		OffsetY:     m.OffsetY.Eval(t, n),
		Scale:       m.Scale.Eval(t, n),
		RotationDeg: m.Rotation.Eval(t, n),
		Opacity:     m.Opacity.Eval(t, n),
	}
}

// Func returns m as a plain function of time.
func (m Motion) Func() MotionFunc {
	return m.At
}

type builder func(p Params, rng *rand.Rand) Motion

var builders = map[Kind]builder{
	KindFloating:    floating,
	KindJumping:     jumping,
	KindBouncing:    bouncing,
	KindShaking:     shaking,
	KindWaving:      waving,
	KindPunchline:   punchline,
	KindNoirZoomIn:  noirZoomIn,
	KindNoirZoomOut: noirZoomOut,
	KindNoirPan:     noirPan,
	KindStatic:      static,
}

var actionKinds = map[scene.VocalAction]Kind{
	scene.ActionTalking:  KindFloating,
	scene.ActionDefault:  KindFloating,
	scene.ActionJumping:  KindJumping,
	scene.ActionBouncing: KindBouncing,
	scene.ActionShaking:  KindShaking,
	scene.ActionWaving:   KindWaving,
}

var noirKinds = []Kind{KindNoirZoomIn, KindNoirZoomOut, KindNoirPan}

// For returns the motion of a scene. The result depends only on p, so two
// calls with equal params produce identical motion.
func For(p Params) Motion {
	rng := rand.New(rand.NewSource(p.Seed))
	kind := selectKind(p, rng)
	m := builders[kind](p, rng)
	m.Kind = kind
	m.FPS = p.FPS
	if m.Rotation == nil {
		m.Rotation = Const(0)
	}
	if m.Opacity == nil {
		m.Opacity = opacity(p)
	}
	return m
}

// selectKind picks the dispatch entry. Punchline motion is character motion,
// so noir and plain scenes keep their camera move and only lose transitions.
func selectKind(p Params, rng *rand.Rand) Kind {
	switch {
	case p.Style.IsStickmanFamily():
		if p.Punchline {
			return KindPunchline
		}
		if k, ok := actionKinds[p.Action]; ok {
			return k
		}
		return KindFloating
	case p.Style == scene.StyleNoir:
		return noirKinds[rng.Intn(len(noirKinds))]
	default:
		return KindStatic
	}
}

func breathing() Expr {
	return Add(Const(1), Wave(BreathingAmp, BreathingFreq))
}

func floatingY() Expr {
	return Wave(FloatAmp, FloatFreq)
}

// Jitter is a bounded pseudo-random offset that changes once per frame:
// amp*(2*frac(sin(n*12.9898+seed)*43758.5453)-1).
func Jitter(amp, seed float64) Expr {
	h := Frac(Mul(Sin(Add(Mul(N(), Const(12.9898)), Const(seed))), Const(43758.5453)))
	return Mul(Const(amp), Sub(Mul(Const(2), h), Const(1)))
}

func jitterSeed(rng *rand.Rand) float64 {
	return math.Round(rng.Float64()*1e6) / 1e3
}

func floating(p Params, rng *rand.Rand) Motion {
	return Motion{OffsetX: Const(0), OffsetY: floatingY(), Scale: breathing()}
}

func jumping(p Params, rng *rand.Rand) Motion {
	cycle := Abs(Sin(Mul(Const(2*math.Pi*JumpFreq), T())))
	return Motion{
		OffsetX: Const(0),
		OffsetY: Neg(Mul(Const(JumpHeight), cycle)),
		Scale:   Add(Const(1), Mul(Const(JumpSquash), Sub(cycle, Const(0.5)))),
	}
}

func bouncing(p Params, rng *rand.Rand) Motion {
	return Motion{
		OffsetX: Const(0),
		OffsetY: floatingY(),
		Scale:   Add(Const(1), Abs(Wave(BounceAmp, BounceFreq))),
	}
}

func shaking(p Params, rng *rand.Rand) Motion {
	return Motion{
		OffsetX: Jitter(ShakeAmp, jitterSeed(rng)),
		OffsetY: Jitter(ShakeAmp, jitterSeed(rng)),
		Scale:   breathing(),
	}
}

func waving(p Params, rng *rand.Rand) Motion {
	return Motion{
		OffsetX:  Const(0),
		OffsetY:  floatingY(),
		Scale:    breathing(),
		Rotation: Wave(WaveDeg, WaveFreq),
	}
}

func punchline(p Params, rng *rand.Rand) Motion {
	return Motion{
		OffsetX: Jitter(PunchlineAmp, jitterSeed(rng)),
		OffsetY: Jitter(PunchlineAmp, jitterSeed(rng)),
		Scale:   Add(Const(PunchZoomBase), Wave(PunchZoomAmp, PunchZoomFreq)),
	}
}

func progress(p Params) Expr {
	d := p.Duration
	if d <= 0 {
		d = 1
	}
	return Div(T(), Const(d))
}

func noirZoomIn(p Params, rng *rand.Rand) Motion {
	return Motion{OffsetX: Const(0), OffsetY: Const(0), Scale: Add(Const(1), Mul(Const(NoirDrift), progress(p)))}
}

func noirZoomOut(p Params, rng *rand.Rand) Motion {
	return Motion{OffsetX: Const(0), OffsetY: Const(0), Scale: Sub(Const(1+2*NoirDrift), Mul(Const(NoirDrift), progress(p)))}
}

func noirPan(p Params, rng *rand.Rand) Motion {
	return Motion{
		OffsetX: Mul(Const(-NoirDrift*float64(p.Width)), progress(p)),
		OffsetY: Const(0),
		Scale:   Const(1),
	}
}

func static(p Params, rng *rand.Rand) Motion {
	return Motion{OffsetX: Const(0), OffsetY: Const(0), Scale: Const(1)}
}

// opacity is the per-layer fade envelope; only the stickman style blinks.
func opacity(p Params) Expr {
	tr := TransitionFor(p.Style, p.Punchline)
	if tr.FadeIn <= 0 && tr.FadeOut <= 0 {
		return Const(1)
	}
	d := p.Duration
	env := Expr(Const(1))
	if tr.FadeIn > 0 {
		env = Min(env, Div(T(), Const(tr.FadeIn)))
	}
	if tr.FadeOut > 0 {
		env = Min(env, Div(Sub(Const(d), T()), Const(tr.FadeOut)))
	}
	return Clamp01(env)
}
