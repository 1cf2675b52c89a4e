package assets

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"slices"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/sudhir-bahadure/tube-automa-sub000/internal/scene"
	"github.com/sudhir-bahadure/tube-automa-sub000/internal/source"
	"github.com/sudhir-bahadure/tube-automa-sub000/internal/system"
)

// decodeDPI is used for PDF visual references; raster files ignore it.
const decodeDPI = 150

var rasterExtensions = slices.DeleteFunc(slices.Clone(system.ImageExtensions), func(e string) bool { return e == ".pdf" })

// Tier records where a resolved visual came from.
type Tier int

const (
	TierOriginal Tier = iota
	TierStyleFallback
	TierGenericFallback
	TierRandomFallback
	TierSolid
)

func (t Tier) String() string {
	switch t {
	case TierOriginal:
		return "original"
	case TierStyleFallback:
		return "style_fallback"
	case TierGenericFallback:
		return "generic_fallback"
	case TierRandomFallback:
		return "random_fallback"
	case TierSolid:
		return "solid"
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// Kind distinguishes still images from clips.
type Kind int

const (
	KindImage Kind = iota
	KindVideo
)

type Visual struct {
	Path   string
	Kind   Kind
	Tier   Tier
	Width  int // prepared image size; zero for video
	Height int
}

type Audio struct {
	Path     string
	Duration float64
	Silent   bool
}

// Resolved is one scene with usable assets. Duration always comes from Audio.
type Resolved struct {
	Index  int
	Scene  scene.Scene
	Audio  Audio
	Visual Visual
}

func (r Resolved) Duration() float64 {
	return r.Audio.Duration
}

// Prober is the subset of ffprobe the resolver needs.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
	HasStream(ctx context.Context, path, kind string) (bool, error)
}

// Resolver turns scene references into assets that are guaranteed to exist.
// Missing or broken inputs are replaced and logged; the only errors returned
// are scratch-directory write failures and context cancellation.
type Resolver struct {
	Catalog    *Catalog
	Probe      Prober
	WorkDir    string
	Width      int
	Height     int
	SampleRate int
	Seed       int64
	Log        zerolog.Logger
}

// ResolveAll resolves every scene with at most workers in flight. Results are
// ordered by scene index.
func (r *Resolver) ResolveAll(ctx context.Context, scenes []scene.Scene, workers int) ([]Resolved, error) {
	out := make([]Resolved, len(scenes))

	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, sc := range scenes {
		g.Go(func() error {
			res, err := r.Resolve(gctx, i, sc)
			if err != nil {
				return fmt.Errorf("scene %d: %w", i, err)
			}
			out[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Resolver) Resolve(ctx context.Context, index int, sc scene.Scene) (Resolved, error) {
	audio, err := r.ResolveAudio(ctx, index, sc.AudioPath)
	if err != nil {
		return Resolved{}, err
	}
	visual, err := r.ResolveVisual(ctx, index, sc)
	if err != nil {
		return Resolved{}, err
	}
	return Resolved{Index: index, Scene: sc, Audio: audio, Visual: visual}, nil
}

// ResolveAudio probes the narration. Anything unusable becomes two seconds of silence.
func (r *Resolver) ResolveAudio(ctx context.Context, index int, ref string) (Audio, error) {
	d, reason := r.probeAudio(ctx, ref)
	if reason == nil {
		return Audio{Path: ref, Duration: d}, nil
	}
	if err := ctx.Err(); err != nil {
		return Audio{}, err
	}

	path := filepath.Join(r.WorkDir, fmt.Sprintf("silence_%03d.wav", index))
	if err := WriteSilence(path, SilenceDuration, r.SampleRate); err != nil {
		return Audio{}, fmt.Errorf("write silence: %w", err)
	}
	r.Log.Warn().Int("scene", index).Str("ref", ref).Err(reason).Msg("[!] narration unusable, using silence")
	return Audio{Path: path, Duration: SilenceDuration, Silent: true}, nil
}

func (r *Resolver) probeAudio(ctx context.Context, ref string) (float64, error) {
	if ref == "" {
		return 0, errors.New("no narration reference")
	}
	if err := checkFile(ref); err != nil {
		return 0, err
	}
	d, err := r.Probe.Duration(ctx, ref)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("narration has duration %.3f", d)
	}
	ok, err := r.Probe.HasStream(ctx, ref, "a")
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%s has no audio stream", ref)
	}
	return d, nil
}

// ResolveVisual walks the fallback chain: original, style, generic, random, solid.
func (r *Resolver) ResolveVisual(ctx context.Context, index int, sc scene.Scene) (Visual, error) {
	out := filepath.Join(r.WorkDir, fmt.Sprintf("visual_%03d.png", index))

	v, err := r.original(ctx, sc.VisualPath, out)
	if err == nil {
		return v, nil
	}
	if cerr := ctx.Err(); cerr != nil {
		return Visual{}, cerr
	}
	reason := err

	rng := rand.New(rand.NewSource(scene.Seed(r.Seed, index)))
	candidates := []fallbackSet{
		{TierStyleFallback, r.Catalog.StyleImages(sc.Style)},
		{TierGenericFallback, r.Catalog.GenericImages()},
	}
	if p, ok := r.Catalog.RandomImage(rng); ok {
		candidates = append(candidates, fallbackSet{TierRandomFallback, []string{p}})
	}

	for _, c := range candidates {
		for _, p := range c.paths {
			v, err := r.prepareImage(p, out, 0)
			if err != nil {
				r.Log.Debug().Int("scene", index).Str("fallback", p).Err(err).Msg("[!] fallback image unusable")
				continue
			}
			v.Tier = c.tier
			r.Log.Warn().Int("scene", index).Str("tier", c.tier.String()).Str("ref", sc.VisualPath).Err(reason).Msg("[!] visual replaced")
			return v, nil
		}
	}

	if err := WriteSolidFrame(out, r.Width, r.Height); err != nil {
		return Visual{}, fmt.Errorf("write solid frame: %w", err)
	}
	r.Log.Warn().Int("scene", index).Str("tier", TierSolid.String()).Str("ref", sc.VisualPath).Err(reason).Msg("[!] visual replaced")
	return Visual{Path: out, Kind: KindImage, Tier: TierSolid, Width: r.Width, Height: r.Height}, nil
}

type fallbackSet struct {
	tier  Tier
	paths []string
}

func (r *Resolver) original(ctx context.Context, ref, out string) (Visual, error) {
	if ref == "" {
		return Visual{}, errors.New("no visual reference")
	}
	if err := checkFile(ref); err != nil {
		return Visual{}, err
	}

	if system.HasExtension(ref, system.VideoExtensions) {
		ok, err := r.Probe.HasStream(ctx, ref, "v")
		if err != nil {
			return Visual{}, err
		}
		if !ok {
			return Visual{}, fmt.Errorf("%s has no video stream", ref)
		}
		return Visual{Path: ref, Kind: KindVideo, Tier: TierOriginal}, nil
	}

	return r.prepareImage(ref, out, BottomCrop)
}

// prepareImage decodes path completely and stores a cropped, size-capped PNG
// copy at out. Images are capped at twice the frame so zooms keep detail.
func (r *Resolver) prepareImage(path, out string, crop float64) (Visual, error) {
	img, err := source.Decode(path, decodeDPI)
	if err != nil {
		return Visual{}, err
	}
	prepared := PrepareImage(img, crop, 2*r.Width, 2*r.Height)
	if err := system.SavePNG(out, prepared); err != nil {
		return Visual{}, err
	}
	b := prepared.Bounds()
	return Visual{Path: out, Kind: KindImage, Tier: TierOriginal, Width: b.Dx(), Height: b.Dy()}, nil
}

func checkFile(path string) error {
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
	return nil
}
