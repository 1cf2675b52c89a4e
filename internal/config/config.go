package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/sudhir-bahadure/tube-automa-sub000/internal/scene"
)

// ErrInvalidConfig wraps every configuration problem found before rendering starts.
var ErrInvalidConfig = errors.New("invalid configuration")

// Backend selects the compositor / encoder strategy.
type Backend string

const (
	BackendAuto      Backend = "auto"
	BackendSegment   Backend = "segment"
	BackendComposite Backend = "composite"
)

type Config struct {
	ManifestPath string
	OutputVideo  string

	Style       scene.Style
	Orientation scene.Orientation
	Width       int
	Height      int
	FPS         int
	SampleRate  int

	Backend         Backend
	Workers         int
	MemoryThreshold uint64 // auto backend falls back to segments below this many free bytes

	FallbackDir string
	SFXDir      string
	MusicPath   string
	FontPath    string

	FFmpegBin     string
	FFprobeBin    string
	VideoEncoder  string
	Quality       int
	AudioBitrate  string
	EncodeTimeout time.Duration

	Seed     int64
	TempRoot string
}

// EncodeProfile is the fixed output profile shared by every encoder invocation of a render.
type EncodeProfile struct {
	Width, Height int
	FPS           int
	SampleRate    int
	VideoEncoder  string
	Quality       int
	AudioBitrate  string
}

// Default returns the render defaults: vertical 1080x1920 @ 24 fps, 44.1 kHz audio.
func Default() *Config {
	return &Config{
		Style:           scene.StyleNoir,
		Orientation:     scene.Vertical,
		FPS:             24,
		SampleRate:      44100,
		Backend:         BackendAuto,
		MemoryThreshold: 2 << 30,
		FallbackDir:     "assets/fallbacks",
		SFXDir:          "assets/sfx",
		FFmpegBin:       "ffmpeg",
		FFprobeBin:      "ffprobe",
		VideoEncoder:    "libx264",
		AudioBitrate:    "192k",
		EncodeTimeout:   300 * time.Second,
	}
}

// LoadEnv overlays values from the environment, reading a .env file first if present.
func (c *Config) LoadEnv() {
	_ = godotenv.Load()

	c.FFmpegBin = getEnv("FFMPEG_BIN", c.FFmpegBin)
	c.FFprobeBin = getEnv("FFPROBE_BIN", c.FFprobeBin)
	c.FallbackDir = getEnv("FALLBACK_DIR", c.FallbackDir)
	c.SFXDir = getEnv("SFX_DIR", c.SFXDir)
	c.MusicPath = getEnv("MUSIC_PATH", c.MusicPath)
	c.FontPath = getEnv("FONT_PATH", c.FontPath)
	c.Backend = Backend(getEnv("RENDER_BACKEND", string(c.Backend)))
	c.Workers = getEnvInt("RENDER_WORKERS", c.Workers)
	c.TempRoot = getEnv("RENDER_TMPDIR", c.TempRoot)
	c.EncodeTimeout = getEnvDuration("ENCODE_TIMEOUT", c.EncodeTimeout)
}

// ApplyManifest copies render-wide settings from a manifest. Manifest values
// override the environment; empty ones leave the current setting alone.
func (c *Config) ApplyManifest(m *scene.Manifest) {
	c.Style = m.Style
	c.Orientation = m.Orientation
	if m.Output != "" {
		c.OutputVideo = m.Output
	}
	if m.Music != "" {
		c.MusicPath = m.Music
	}
	if m.Seed != 0 {
		c.Seed = m.Seed
	}
}

// Validate normalizes the config and rejects values that would fail later.
func (c *Config) Validate() error {
	style, err := scene.ParseStyle(string(c.Style))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	c.Style = style

	orientation, err := scene.ParseOrientation(string(c.Orientation))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	c.Orientation = orientation
	c.Width, c.Height = orientation.Dimensions()

	switch c.Backend {
	case "":
		c.Backend = BackendAuto
	case BackendAuto, BackendSegment, BackendComposite:
	default:
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidConfig, c.Backend)
	}

	if c.OutputVideo == "" {
		return fmt.Errorf("%w: output path is required", ErrInvalidConfig)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("%w: fps must be positive, got %d", ErrInvalidConfig, c.FPS)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive, got %d", ErrInvalidConfig, c.SampleRate)
	}
	if c.EncodeTimeout <= 0 {
		return fmt.Errorf("%w: encode timeout must be positive", ErrInvalidConfig)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative", ErrInvalidConfig)
	}
	if c.Seed == 0 {
		c.Seed = time.Now().UnixNano()
	}
	return nil
}

// Profile returns the encode parameters for the validated config.
func (c *Config) Profile() EncodeProfile {
	return EncodeProfile{
		Width:        c.Width,
		Height:       c.Height,
		FPS:          c.FPS,
		SampleRate:   c.SampleRate,
		VideoEncoder: c.VideoEncoder,
		Quality:      c.Quality,
		AudioBitrate: c.AudioBitrate,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		i, err := strconv.Atoi(value)
		if err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return defaultValue
}
