package scene

import (
	"fmt"
	"strings"
)

// Style selects the animation, transition and music profile of a scene.
type Style string

const (
	StyleNoir          Style = "noir"
	StyleStickman      Style = "stickman"
	StylePsychStickman Style = "psych_stickman"
	StylePlain         Style = "plain"
)

// Styles lists every known style in a stable order.
var Styles = []Style{StyleNoir, StyleStickman, StylePsychStickman, StylePlain}

// ParseStyle accepts the canonical names plus a few spellings used by upstream scripts.
func ParseStyle(s string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "noir":
		return StyleNoir, nil
	case "stickman":
		return StyleStickman, nil
	case "psych_stickman", "psychstickman", "psych-stickman":
		return StylePsychStickman, nil
	case "plain", "standard", "default":
		return StylePlain, nil
	}
	return "", fmt.Errorf("unknown style %q", s)
}

// IsStickmanFamily reports whether the style draws a character on a flat background.
func (s Style) IsStickmanFamily() bool {
	return s == StyleStickman || s == StylePsychStickman
}

// VocalAction drives the character motion of a scene.
type VocalAction string

const (
	ActionTalking  VocalAction = "talking"
	ActionJumping  VocalAction = "jumping"
	ActionBouncing VocalAction = "bouncing"
	ActionShaking  VocalAction = "shaking"
	ActionWaving   VocalAction = "waving"
	ActionDefault  VocalAction = "default"
)

// Actions lists every known vocal action in a stable order.
var Actions = []VocalAction{ActionTalking, ActionJumping, ActionBouncing, ActionShaking, ActionWaving, ActionDefault}

func ParseAction(s string) (VocalAction, error) {
	switch a := VocalAction(strings.ToLower(strings.TrimSpace(s))); a {
	case "":
		return ActionDefault, nil
	case ActionTalking, ActionJumping, ActionBouncing, ActionShaking, ActionWaving, ActionDefault:
		return a, nil
	}
	return "", fmt.Errorf("unknown vocal action %q", s)
}

// Orientation is fixed for a whole render.
type Orientation string

const (
	Vertical   Orientation = "vertical"
	Horizontal Orientation = "horizontal"
)

func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "vertical", "short", "9:16", "":
		return Vertical, nil
	case "horizontal", "long", "16:9":
		return Horizontal, nil
	}
	return "", fmt.Errorf("unknown orientation %q", s)
}

// Dimensions returns the output frame size for the orientation.
func (o Orientation) Dimensions() (width, height int) {
	if o == Horizontal {
		return 1920, 1080
	}
	return 1080, 1920
}

// Scene is one narrated beat. It is never mutated once handed to the renderer.
type Scene struct {
	AudioPath   string      `yaml:"audio,omitempty"`
	VisualPath  string      `yaml:"visual,omitempty"`
	Caption     string      `yaml:"caption,omitempty"`
	Style       Style       `yaml:"style,omitempty"`
	Action      VocalAction `yaml:"vocal_action,omitempty"`
	IsPunchline bool        `yaml:"is_punchline,omitempty"`
}

// Seed derives the per-scene random seed from the render seed, so every
// random choice of a scene is reproducible on its own.
func Seed(renderSeed int64, index int) int64 {
	return renderSeed ^ (int64(index+1) * 0x5DEECE66D)
}
