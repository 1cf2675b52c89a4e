package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sudhir-bahadure/tube-automa-sub000/internal/assets"
	"github.com/sudhir-bahadure/tube-automa-sub000/internal/audio"
	"github.com/sudhir-bahadure/tube-automa-sub000/internal/caption"
	"github.com/sudhir-bahadure/tube-automa-sub000/internal/compositor"
	"github.com/sudhir-bahadure/tube-automa-sub000/internal/config"
	"github.com/sudhir-bahadure/tube-automa-sub000/internal/scene"
	"github.com/sudhir-bahadure/tube-automa-sub000/internal/system"
	"github.com/sudhir-bahadure/tube-automa-sub000/internal/video"
)

// ErrNoRenderableScenes is returned when every scene failed composition.
var ErrNoRenderableScenes = errors.New("no renderable scenes")

// Prober is what the pipeline needs from ffprobe.
type Prober interface {
	assets.Prober
	audio.Prober
}

// CaptionRenderer draws caption bands.
type CaptionRenderer interface {
	Render(text string, st caption.Style, frameW, frameH int, out string) (*caption.Overlay, error)
}

// Project is one render request: validated config plus the scene list.
type Project struct {
	Config   *config.Config
	Scenes   []scene.Scene
	Encoder  video.Encoder
	Probe    Prober
	Captions CaptionRenderer
	Log      zerolog.Logger

	// Renderer overrides the backend chosen from Config.
	Renderer Renderer
}

// Report summarizes a finished render.
type Report struct {
	RenderID  string
	Backend   config.Backend
	Output    string
	Scenes    int
	Skipped   []int
	Duration  float64
	Fallbacks map[assets.Tier]int
	Silent    int
	Elapsed   time.Duration
}

// Run resolves, composes and encodes the project. The output path is only
// written once the encode has fully succeeded.
func (p *Project) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	cfg := p.Config
	if len(p.Scenes) == 0 {
		return nil, scene.ErrNoScenes
	}

	id := uuid.NewString()
	log := p.Log.With().Str("render", id[:8]).Logger()
	workDir, err := os.MkdirTemp(cfg.TempRoot, "scenerender_"+id[:8]+"_")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	log.Info().
		Int("scenes", len(p.Scenes)).
		Str("style", string(cfg.Style)).
		Str("orientation", string(cfg.Orientation)).
		Int64("seed", cfg.Seed).
		Msgf("[*] resolution %dx%d @ %d fps", cfg.Width, cfg.Height, cfg.FPS)

	catalog, err := assets.NewCatalog(cfg.FallbackDir, cfg.SFXDir)
	if err != nil {
		return nil, fmt.Errorf("scan asset catalog: %w", err)
	}
	if catalog.Empty() {
		log.Debug().Str("dir", cfg.FallbackDir).Msg("[*] no fallback images, missing visuals become solid frames")
	}

	resolver := &assets.Resolver{
		Catalog:    catalog,
		Probe:      p.Probe,
		WorkDir:    workDir,
		Width:      cfg.Width,
		Height:     cfg.Height,
		SampleRate: cfg.SampleRate,
		Seed:       cfg.Seed,
		Log:        log,
	}
	resolved, err := resolver.ResolveAll(ctx, p.Scenes, p.workers())
	if err != nil {
		return nil, err
	}

	report := &Report{RenderID: id, Output: cfg.OutputVideo, Fallbacks: make(map[assets.Tier]int)}
	for _, r := range resolved {
		if r.Visual.Tier != assets.TierOriginal {
			report.Fallbacks[r.Visual.Tier]++
		}
		if r.Audio.Silent {
			report.Silent++
		}
	}

	prepared, skipped := p.prepare(resolved, workDir, log)
	report.Skipped = skipped
	if len(prepared) == 0 {
		return nil, ErrNoRenderableScenes
	}

	settings := compositor.Settings{Width: cfg.Width, Height: cfg.Height, FPS: cfg.FPS, Seed: cfg.Seed}
	tl, clips, err := compositor.Plan(prepared, settings)
	if err != nil {
		return nil, err
	}
	for i := range clips {
		log.Debug().Msgf("[*] %s", clips[i].String())
	}
	log.Debug().Float64("total", tl.Total).Float64("overlap", tl.TotalOverlap()).Msg("[*] timeline planned")

	kept := make([]assets.Resolved, len(prepared))
	starts := make([]float64, len(clips))
	for i := range prepared {
		kept[i] = prepared[i].Resolved
		starts[i] = clips[i].Start
	}
	mix := audio.Plan(kept, starts, catalog, cfg.Seed, cfg.SampleRate)
	mix.Effects = p.effects(ctx, mix.Effects, log)
	mix.Music = p.music(ctx, log)

	renderer := p.Renderer
	if renderer == nil {
		renderer = NewRenderer(cfg, len(clips), p.Encoder, log)
	}
	report.Backend = renderer.Backend()
	report.Scenes = len(clips)
	report.Duration = tl.Total

	job := &Job{
		Clips:    clips,
		Mix:      mix,
		Settings: settings,
		Profile:  cfg.Profile(),
		WorkDir:  workDir,
	}
	tmp := filepath.Join(workDir, "render.mp4")
	log.Info().Str("backend", string(report.Backend)).Float64("duration", tl.Total).Msg("[*] encoding")
	if err := renderer.Render(ctx, job, tmp); err != nil {
		return nil, err
	}
	if err := video.Publish(tmp, cfg.OutputVideo); err != nil {
		return nil, fmt.Errorf("publish output: %w", err)
	}

	report.Elapsed = time.Since(start)
	log.Info().
		Str("output", cfg.OutputVideo).
		Dur("took", report.Elapsed).
		Ints("skipped", skipped).
		Msg("[+++] render complete")
	return report, nil
}

// prepare renders caption bands and drops scenes that cannot be composed.
func (p *Project) prepare(resolved []assets.Resolved, workDir string, log zerolog.Logger) ([]compositor.Prepared, []int) {
	cfg := p.Config
	var out []compositor.Prepared
	var skipped []int
	for _, r := range resolved {
		prep := compositor.Prepared{Resolved: r}

		st := caption.StyleFor(cfg.Orientation, r.Scene.Style)
		path := filepath.Join(workDir, fmt.Sprintf("caption_%03d.png", r.Index))
		ov, err := p.Captions.Render(r.Scene.Caption, st, cfg.Width, cfg.Height, path)
		if err == nil {
			prep.Caption = ov
			err = compositor.Check(prep)
		}
		if err != nil {
			log.Warn().Int("scene", r.Index).Err(err).Msg("[!] scene skipped")
			skipped = append(skipped, r.Index)
			continue
		}
		out = append(out, prep)
	}
	return out, skipped
}

// music validates the configured bed; a bad file only costs the music.
func (p *Project) music(ctx context.Context, log zerolog.Logger) *audio.Music {
	path := p.Config.MusicPath
	if path == "" {
		return nil
	}
	if err := audio.CheckMusic(ctx, p.Probe, path); err != nil {
		log.Warn().Str("music", path).Err(err).Msg("[!] background music unusable, narration only")
		return nil
	}
	return &audio.Music{Path: path, Gain: audio.MusicGain(p.Config.Style)}
}

// effects drops sound effects ffmpeg could not decode. The layer is optional,
// so a broken file costs only its own effect.
func (p *Project) effects(ctx context.Context, fx []audio.Effect, log zerolog.Logger) []audio.Effect {
	var kept []audio.Effect
	for _, e := range fx {
		if err := audio.CheckTrack(ctx, p.Probe, e.Path); err != nil {
			log.Warn().Str("sfx", e.Path).Err(err).Msg("[!] sound effect unusable, skipped")
			continue
		}
		kept = append(kept, e)
	}
	return kept
}

func (p *Project) workers() int {
	if p.Config.Workers > 0 {
		return p.Config.Workers
	}
	return system.DefaultWorkers()
}
