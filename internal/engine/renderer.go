package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/sudhir-bahadure/tube-automa-sub000/internal/audio"
	"github.com/sudhir-bahadure/tube-automa-sub000/internal/compositor"
	"github.com/sudhir-bahadure/tube-automa-sub000/internal/config"
	"github.com/sudhir-bahadure/tube-automa-sub000/internal/system"
	"github.com/sudhir-bahadure/tube-automa-sub000/internal/video"
)

// MaxCompositeScenes is the scene count above which auto selects segments:
// one invocation with that many inputs stops being practical.
const MaxCompositeScenes = 40

// Job is a fully planned render.
type Job struct {
	Clips    []compositor.Clip
	Mix      *audio.Mix
	Settings compositor.Settings
	Profile  config.EncodeProfile
	WorkDir  string
}

// Renderer encodes a job into a single file at out.
type Renderer interface {
	Render(ctx context.Context, job *Job, out string) error
	Backend() config.Backend
}

// ChooseBackend resolves auto against the free memory and the scene count.
// A failed memory probe counts as low memory.
func ChooseBackend(b config.Backend, free uint64, memErr error, threshold uint64, scenes int) config.Backend {
	if b != config.BackendAuto {
		return b
	}
	if memErr != nil || free < threshold || scenes > MaxCompositeScenes {
		return config.BackendSegment
	}
	return config.BackendComposite
}

// NewRenderer returns the renderer selected by cfg.
func NewRenderer(cfg *config.Config, scenes int, enc video.Encoder, log zerolog.Logger) Renderer {
	free, err := system.AvailableMemory()
	backend := ChooseBackend(cfg.Backend, free, err, cfg.MemoryThreshold, scenes)
	if cfg.Backend == config.BackendAuto {
		log.Debug().Uint64("free", free).Err(err).Int("scenes", scenes).Str("backend", string(backend)).Msg("[*] backend selected")
	}

	if backend == config.BackendComposite {
		return &CompositeRenderer{Encoder: enc, Log: log}
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = system.DefaultWorkers()
	}
	return &SegmentRenderer{Encoder: enc, Workers: workers, Log: log}
}

// CompositeRenderer builds one filter graph for the whole render and runs
// a single encoder invocation.
type CompositeRenderer struct {
	Encoder video.Encoder
	Log     zerolog.Logger
}

func (r *CompositeRenderer) Backend() config.Backend {
	return config.BackendComposite
}

func (r *CompositeRenderer) Render(ctx context.Context, job *Job, out string) error {
	g := video.NewGraph()
	labels := make([]string, len(job.Clips))
	for i := range job.Clips {
		c := &job.Clips[i]
		label, err := c.Build(g, job.Settings)
		if err != nil {
			return fmt.Errorf("scene %d: %w", c.Resolved.Index, err)
		}
		labels[i] = label
	}

	v := compositor.Sequence(g, job.Clips, labels, job.Settings.FPS)
	a := job.Mix.Build(g)

	r.Log.Info().Int("inputs", len(g.Inputs())).Int("feeds", len(g.Feeds())).Msg("[*] encoding composite graph")
	return r.Encoder.Run(ctx, outputArgs(g.Args(v, a), job.Profile, out), g.Feeds()...)
}

// SegmentRenderer encodes every clip on its own, in parallel, and assembles
// the segments in a final pass that also mixes the audio.
type SegmentRenderer struct {
	Encoder video.Encoder
	Workers int
	Log     zerolog.Logger
}

func (r *SegmentRenderer) Backend() config.Backend {
	return config.BackendSegment
}

func (r *SegmentRenderer) Render(ctx context.Context, job *Job, out string) error {
	paths := make([]string, len(job.Clips))
	var done atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	if r.Workers > 0 {
		g.SetLimit(r.Workers)
	}
	for i := range job.Clips {
		g.Go(func() error {
			c := &job.Clips[i]
			graph := video.NewGraph()
			label, err := c.Build(graph, job.Settings)
			if err != nil {
				return fmt.Errorf("scene %d: %w", c.Resolved.Index, err)
			}

			seg := filepath.Join(job.WorkDir, fmt.Sprintf("s%03d.mp4", i))
			args := append(graph.Args(label), video.VideoArgs(job.Profile)...)
			args = append(args, "-an", seg)
			if err := r.Encoder.Run(gctx, args, graph.Feeds()...); err != nil {
				return err
			}
			paths[i] = seg
			r.Log.Info().Msgf("[>] Ready: %d/%d", done.Add(1), len(job.Clips))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if compositor.HasCrossfades(job.Clips) {
		return r.blend(ctx, job, paths, out)
	}
	return r.join(ctx, job, paths, out)
}

// join concatenates without re-encoding video, then muxes the mixed audio.
func (r *SegmentRenderer) join(ctx context.Context, job *Job, paths []string, out string) error {
	list := filepath.Join(job.WorkDir, "inputs.txt")
	if err := video.WriteConcatList(list, paths); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}
	joined := filepath.Join(job.WorkDir, "joined.mp4")
	r.Log.Info().Msg("[*] joining segments")
	if err := r.Encoder.Run(ctx, video.ConcatArgs(list, joined)); err != nil {
		return err
	}

	g := video.NewGraph()
	v := g.AddInput(video.Input{Path: joined})
	a := job.Mix.Build(g)
	args := append(g.Args(fmt.Sprintf("%d:v", v), a), "-c:v", "copy")
	args = append(args, video.AudioArgs(job.Profile)...)
	args = append(args, "-movflags", "+faststart", out)
	return r.Encoder.Run(ctx, args)
}

// blend re-encodes the segments through the crossfade chain.
func (r *SegmentRenderer) blend(ctx context.Context, job *Job, paths []string, out string) error {
	g := video.NewGraph()
	labels := compositor.SegmentInputs(g, paths, job.Settings.FPS)
	v := compositor.Sequence(g, job.Clips, labels, job.Settings.FPS)
	a := job.Mix.Build(g)

	r.Log.Info().Msg("[*] assembling final video with transitions")
	return r.Encoder.Run(ctx, outputArgs(g.Args(v, a), job.Profile, out))
}

func outputArgs(args []string, p config.EncodeProfile, out string) []string {
	args = append(args, video.VideoArgs(p)...)
	args = append(args, video.AudioArgs(p)...)
	return append(args, "-movflags", "+faststart", out)
}
