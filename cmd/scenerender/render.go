package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sudhir-bahadure/tube-automa-sub000/internal/caption"
	"github.com/sudhir-bahadure/tube-automa-sub000/internal/config"
	"github.com/sudhir-bahadure/tube-automa-sub000/internal/engine"
	"github.com/sudhir-bahadure/tube-automa-sub000/internal/scene"
	"github.com/sudhir-bahadure/tube-automa-sub000/internal/system"
	"github.com/sudhir-bahadure/tube-automa-sub000/internal/video"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a scene manifest",
	Long: `Render every scene of a manifest into a single video file.

Settings are layered: built-in defaults, then .env / environment, then the
manifest, then flags given on the command line.`,
	Args: cobra.NoArgs,
	RunE: runRender,
}

var renderFlags struct {
	manifest    string
	output      string
	backend     string
	music       string
	fallbackDir string
	sfxDir      string
	font        string
	encoder     string
	quality     int
	workers     int
	seed        int64
}

func init() {
	f := renderCmd.Flags()
	f.StringVarP(&renderFlags.manifest, "manifest", "m", "", "Scene manifest (YAML)")
	f.StringVarP(&renderFlags.output, "output", "o", "", "Output video (default: output/<manifest>_<timestamp>.mp4)")
	f.StringVar(&renderFlags.backend, "backend", "", "Renderer: auto, segment or composite")
	f.StringVar(&renderFlags.music, "music", "", "Background music file")
	f.StringVar(&renderFlags.fallbackDir, "fallback-dir", "", "Directory of substitute images")
	f.StringVar(&renderFlags.sfxDir, "sfx-dir", "", "Directory of punchline sound effects")
	f.StringVar(&renderFlags.font, "font", "", "Caption font (TTF/OTF); bundled Go Bold when empty")
	f.StringVar(&renderFlags.encoder, "encoder", "", "H.264 encoder (default: best available)")
	f.IntVar(&renderFlags.quality, "quality", 0, "Video quality (0 - auto; x264 CRF, NVENC CQ, VideoToolbox bitrate = Q*100 kbit/s)")
	f.IntVar(&renderFlags.workers, "workers", 0, "Parallel scene workers (0 - physical cores)")
	f.Int64Var(&renderFlags.seed, "seed", 0, "Random seed for motion, fallbacks and effects (0 - manifest or time)")
	renderCmd.MarkFlagRequired("manifest")
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	m, err := loadManifest(renderFlags.manifest)
	if err != nil {
		return err
	}

	cfg := config.Default()
	cfg.LoadEnv()
	cfg.ManifestPath = renderFlags.manifest
	cfg.ApplyManifest(m)
	applyRenderFlags(cmd, cfg)
	if cfg.OutputVideo == "" {
		cfg.OutputVideo = defaultOutput(renderFlags.manifest)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := system.CheckFFmpeg(ctx, cfg.FFmpegBin); err != nil {
		return err
	}
	if !cmd.Flags().Changed("encoder") {
		cfg.VideoEncoder = system.GetBestH264Encoder(ctx, cfg.FFmpegBin)
		if cfg.VideoEncoder != "libx264" {
			log.Info().Msgf("[*] hardware encoder detected: %s", cfg.VideoEncoder)
		}
	}
	if cfg.Quality == 0 {
		cfg.Quality = system.DefaultQuality(cfg.VideoEncoder)
	}

	captions, err := caption.NewRenderer(cfg.FontPath)
	if err != nil {
		return fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}

	project := &engine.Project{
		Config:   cfg,
		Scenes:   m.Scenes,
		Encoder:  &video.FFmpeg{Bin: cfg.FFmpegBin, Timeout: cfg.EncodeTimeout, Log: log.Logger},
		Probe:    system.FFprobe{Bin: cfg.FFprobeBin},
		Captions: captions,
		Log:      log.Logger,
	}
	report, err := project.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("[+++] %s (%d scenes, %.2fs, %s backend, %v)\n",
		report.Output, report.Scenes, report.Duration, report.Backend, report.Elapsed.Round(time.Millisecond))
	if len(report.Skipped) > 0 {
		fmt.Printf("[!] skipped scenes: %v\n", report.Skipped)
	}
	for tier, n := range report.Fallbacks {
		fmt.Printf("[!] %d visual(s) from %s\n", n, tier)
	}
	if report.Silent > 0 {
		fmt.Printf("[!] %d scene(s) with silent narration\n", report.Silent)
	}
	return nil
}

// loadManifest reads and normalizes a manifest. An empty scene list keeps
// its own sentinel; every other problem is a configuration error.
func loadManifest(path string) (*scene.Manifest, error) {
	m, err := scene.ReadManifest(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}
	if err := m.Normalize(); err != nil {
		if errors.Is(err, scene.ErrNoScenes) {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return nil, fmt.Errorf("%w: %s: %v", config.ErrInvalidConfig, path, err)
	}
	return m, nil
}

func applyRenderFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("output") {
		cfg.OutputVideo = renderFlags.output
	}
	if f.Changed("backend") {
		cfg.Backend = config.Backend(strings.ToLower(renderFlags.backend))
	}
	if f.Changed("music") {
		cfg.MusicPath = renderFlags.music
	}
	if f.Changed("fallback-dir") {
		cfg.FallbackDir = renderFlags.fallbackDir
	}
	if f.Changed("sfx-dir") {
		cfg.SFXDir = renderFlags.sfxDir
	}
	if f.Changed("font") {
		cfg.FontPath = renderFlags.font
	}
	if f.Changed("encoder") {
		cfg.VideoEncoder = renderFlags.encoder
	}
	if f.Changed("quality") {
		cfg.Quality = renderFlags.quality
	}
	if f.Changed("workers") {
		cfg.Workers = renderFlags.workers
	}
	if f.Changed("seed") {
		cfg.Seed = renderFlags.seed
	}
}

func defaultOutput(manifest string) string {
	base := filepath.Base(manifest)
	name := strings.ReplaceAll(strings.TrimSuffix(base, filepath.Ext(base)), " ", "_")
	os.MkdirAll("output", 0755)
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join("output", fmt.Sprintf("%s_%s.mp4", name, timestamp))
}
