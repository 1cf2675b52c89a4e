package audio

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"github.com/sudhir-bahadure/tube-automa-sub000/internal/assets"
	"github.com/sudhir-bahadure/tube-automa-sub000/internal/scene"
	"github.com/sudhir-bahadure/tube-automa-sub000/internal/video"
)

const (
	EffectGain = 0.8

	StickmanMusicGain = 0.18
	DefaultMusicGain  = 0.10

	MusicFadeIn  = 1.0
	MusicFadeOut = 2.0
)

// MusicGain is the fixed music level for a render style. Music is never
// ducked dynamically under narration.
func MusicGain(style scene.Style) float64 {
	if style.IsStickmanFamily() {
		return StickmanMusicGain
	}
	return DefaultMusicGain
}

// Narration is one scene's voice track, padded or cut to Duration.
type Narration struct {
	Path     string
	Duration float64
}

// Effect is a sound effect placed at Start and cut to Duration.
type Effect struct {
	Path     string
	Start    float64
	Duration float64
}

// Music is the optional background bed.
type Music struct {
	Path string
	Gain float64
}

// Mix is the complete audio plan of a render.
type Mix struct {
	Narration  []Narration
	Effects    []Effect
	Music      *Music
	SampleRate int
}

// Total is the narration length, which is the length of the whole render.
func (m *Mix) Total() float64 {
	var total float64
	for _, n := range m.Narration {
		total += n.Duration
	}
	return total
}

// Plan builds the mix for resolved scenes. starts holds each scene's
// timeline start. Punchline scenes get one seeded effect from the catalog.
func Plan(resolved []assets.Resolved, starts []float64, cat *assets.Catalog, seed int64, sampleRate int) *Mix {
	m := &Mix{SampleRate: sampleRate}
	for i, r := range resolved {
		m.Narration = append(m.Narration, Narration{Path: r.Audio.Path, Duration: r.Duration()})

		if !r.Scene.IsPunchline || cat == nil {
			continue
		}
		rng := rand.New(rand.NewSource(scene.Seed(seed, r.Index) + 1))
		if path, ok := cat.SoundEffect(rng); ok {
			m.Effects = append(m.Effects, Effect{Path: path, Start: starts[i], Duration: r.Duration()})
		}
	}
	return m
}

// Prober checks whether a file carries an audio stream.
type Prober interface {
	HasStream(ctx context.Context, path, kind string) (bool, error)
}

// CheckMusic validates a music file. A nil error means it can be mixed.
func CheckMusic(ctx context.Context, probe Prober, path string) error {
	if path == "" {
		return errors.New("no music configured")
	}
	return CheckTrack(ctx, probe, path)
}

// CheckTrack reports whether path is a non-empty file with an audio stream.
func CheckTrack(ctx context.Context, probe Prober, path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	if fi.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	if fi.Size() == 0 {
		return fmt.Errorf("%s is empty", path)
	}
	ok, err := probe.HasStream(ctx, path, "a")
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s has no audio stream", path)
	}
	return nil
}

// Build adds the mix to g and returns the label of the final stereo track.
func (m *Mix) Build(g *video.Graph) string {
	norm := fmt.Sprintf("aresample=%d,aformat=sample_fmts=fltp:channel_layouts=stereo", m.SampleRate)

	var parts strings.Builder
	for _, n := range m.Narration {
		idx := g.AddInput(video.Input{Path: n.Path})
		label := g.Label("na")
		g.Chain("[%d:a]%s,apad=whole_dur=%s,atrim=0:%s,asetpts=PTS-STARTPTS%s",
			idx, norm, sec(n.Duration), sec(n.Duration), label)
		parts.WriteString(label)
	}

	voice := g.Label("voice")
	g.Chain("%sconcat=n=%d:v=0:a=1%s", parts.String(), len(m.Narration), voice)

	layers := []string{voice}
	for _, e := range m.Effects {
		idx := g.AddInput(video.Input{Path: e.Path})
		label := g.Label("fx")
		delay := int(e.Start * 1000)
		g.Chain("[%d:a]%s,atrim=0:%s,asetpts=PTS-STARTPTS,volume=%s,adelay=%d|%d%s",
			idx, norm, sec(e.Duration), num(EffectGain), delay, delay, label)
		layers = append(layers, label)
	}

	if m.Music != nil {
		total := m.Total()
		idx := g.AddInput(video.Input{Options: []string{"-stream_loop", "-1"}, Path: m.Music.Path})
		label := g.Label("music")
		g.Chain("[%d:a]%s,atrim=0:%s,asetpts=PTS-STARTPTS,volume=%s,afade=t=in:st=0:d=%s,afade=t=out:st=%s:d=%s%s",
			idx, norm, sec(total), num(m.Music.Gain), sec(MusicFadeIn), sec(max(0, total-MusicFadeOut)), sec(MusicFadeOut), label)
		layers = append(layers, label)
	}

	if len(layers) == 1 {
		return voice
	}
	out := g.Label("aout")
	g.Chain("%samix=inputs=%d:duration=first:normalize=0%s", strings.Join(layers, ""), len(layers), out)
	return out
}

func sec(v float64) string {
	return fmt.Sprintf("%.6f", v)
}

func num(v float64) string {
	return fmt.Sprintf("%g", v)
}
