package motion

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Expr is a formula over scene time t (seconds) and frame index n. The same
// tree is evaluated in Go and printed as an ffmpeg expression, so frames
// drawn locally and frames produced by a filter follow one definition.
type Expr interface {
	Eval(t, n float64) float64
	Format(v Vars) string
}

// Vars names the time and frame variables of the filter an expression is printed for.
type Vars struct {
	T string
	N string
}

// OverlayVars suits overlay, rotate and other per-frame filters.
var OverlayVars = Vars{T: "t", N: "n"}

// ZoomPanVars derives time from the zoompan output frame counter.
func ZoomPanVars(fps int) Vars {
	return Vars{T: fmt.Sprintf("(on/%d)", fps), N: "on"}
}

type constant float64

func (c constant) Eval(t, n float64) float64 { return float64(c) }

func (c constant) Format(Vars) string {
	s := strconv.FormatFloat(float64(c), 'f', -1, 64)
	if c < 0 {
		return "(" + s + ")"
	}
	return s
}

type timeVar struct{}

func (timeVar) Eval(t, n float64) float64 { return t }
func (timeVar) Format(v Vars) string { return v.T }

type frameVar struct{}

func (frameVar) Eval(t, n float64) float64 { return n }
func (frameVar) Format(v Vars) string { return v.N }

type binary struct {
	op   byte
	a, b Expr
}

func (e binary) Eval(t, n float64) float64 {
	a, b := e.a.Eval(t, n), e.b.Eval(t, n)
	switch e.op {
	case '+':
		return a + b
	case '-':
		return a - b
	case '*':
		return a * b
	case '/':
		return a / b
	}
	panic("motion: unknown operator " + string(e.op))
}

func (e binary) Format(v Vars) string {
	return "(" + e.a.Format(v) + string(e.op) + e.b.Format(v) + ")"
}

type call struct {
	name string
	args []Expr
}

func (e call) Eval(t, n float64) float64 {
	x := e.args[0].Eval(t, n)
	switch e.name {
	case "sin":
		return math.Sin(x)
	case "abs":
		return math.Abs(x)
	case "floor":
		return math.Floor(x)
	case "min":
		return math.Min(x, e.args[1].Eval(t, n))
	case "max":
		return math.Max(x, e.args[1].Eval(t, n))
	}
	panic("motion: unknown function " + e.name)
}

func (e call) Format(v Vars) string {
	args := make([]string, len(e.args))
	for i, a := range e.args {
		args[i] = a.Format(v)
	}
	return e.name + "(" + strings.Join(args, ",") + ")"
}

func Const(v float64) Expr { return constant(v) }
func T() Expr { return timeVar{} }
func N() Expr { return frameVar{} }

func Add(a, b Expr) Expr { return binary{'+', a, b} }
func Sub(a, b Expr) Expr { return binary{'-', a, b} }
func Mul(a, b Expr) Expr { return binary{'*', a, b} }
func Div(a, b Expr) Expr { return binary{'/', a, b} }

func Sin(a Expr) Expr { return call{"sin", []Expr{a}} }
func Abs(a Expr) Expr { return call{"abs", []Expr{a}} }
func Floor(a Expr) Expr { return call{"floor", []Expr{a}} }
func Min(a, b Expr) Expr { return call{"min", []Expr{a, b}} }
func Max(a, b Expr) Expr { return call{"max", []Expr{a, b}} }
func Frac(a Expr) Expr { return Sub(a, Floor(a)) }
func Clamp01(a Expr) Expr { return Max(Const(0), Min(Const(1), a)) }
func Neg(a Expr) Expr { return Mul(Const(-1), a) }

// Wave is amp*sin(2*pi*freq*t).
func Wave(amp, freq float64) Expr {
	return Mul(Const(amp), Sin(Mul(Const(2*math.Pi*freq), T())))
}
