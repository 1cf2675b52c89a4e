package config

import (
	"errors"
	"testing"
	"time"

	"github.com/sudhir-bahadure/tube-automa-sub000/internal/scene"
)

func TestValidateDefaults(t *testing.T) {
	cfg := Default()
	cfg.OutputVideo = "out.mp4"

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if cfg.Width != 1080 || cfg.Height != 1920 {
		t.Errorf("expected 1080x1920, got %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.FPS != 24 {
		t.Errorf("expected 24 fps, got %d", cfg.FPS)
	}
	if cfg.EncodeTimeout != 300*time.Second {
		t.Errorf("expected 300s encoder ceiling, got %v", cfg.EncodeTimeout)
	}
	if cfg.Seed == 0 {
		t.Error("expected a seed to be assigned")
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown style", func(c *Config) { c.Style = "glitch" }},
		{"unknown orientation", func(c *Config) { c.Orientation = "square" }},
		{"unknown backend", func(c *Config) { c.Backend = "gpu" }},
		{"missing output", func(c *Config) { c.OutputVideo = "" }},
		{"zero fps", func(c *Config) { c.FPS = 0 }},
		{"zero timeout", func(c *Config) { c.EncodeTimeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.OutputVideo = "out.mp4"
			tt.mutate(cfg)

			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestApplyManifest(t *testing.T) {
	m := &scene.Manifest{
		Style:       scene.StylePsychStickman,
		Orientation: scene.Horizontal,
		Music:       "manifest.mp3",
		Output:      "manifest.mp4",
		Seed:        7,
	}

	cfg := Default()
	cfg.MusicPath = "env.mp3"
	cfg.FontPath = "env.ttf"
	cfg.ApplyManifest(m)

	if cfg.MusicPath != "manifest.mp3" {
		t.Errorf("manifest music should override the environment, got %s", cfg.MusicPath)
	}
	if cfg.FontPath != "env.ttf" {
		t.Errorf("font not in manifest should be kept, got %s", cfg.FontPath)
	}
	if cfg.OutputVideo != "manifest.mp4" || cfg.Seed != 7 {
		t.Errorf("manifest values not applied: %+v", cfg)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if cfg.Width != 1920 || cfg.Height != 1080 {
		t.Errorf("expected horizontal dimensions, got %dx%d", cfg.Width, cfg.Height)
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("RENDER_BACKEND", "segment")
	t.Setenv("RENDER_WORKERS", "3")
	t.Setenv("ENCODE_TIMEOUT", "90s")
	t.Setenv("SFX_DIR", "/tmp/sfx")

	cfg := Default()
	cfg.LoadEnv()

	if cfg.Backend != BackendSegment || cfg.Workers != 3 || cfg.EncodeTimeout != 90*time.Second || cfg.SFXDir != "/tmp/sfx" {
		t.Errorf("environment not applied: %+v", cfg)
	}
}
