package scene

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestManifestWriteRead(t *testing.T) {
	m := &Manifest{
		Version:     "1.0",
		Style:       StyleStickman,
		Orientation: Vertical,
		Music:       "assets/music/funny.mp3",
		Seed:        42,
		Scenes: []Scene{
			{AudioPath: "a1.mp3", VisualPath: "v1.png", Caption: "HELLO", Action: ActionTalking},
			{AudioPath: "a2.mp3", IsPunchline: true},
		},
	}

	path := filepath.Join(t.TempDir(), "manifest.yaml")
	if err := WriteManifest(m, path); err != nil {
		t.Fatalf("WriteManifest failed: %v", err)
	}

	got, err := ReadManifest(path)
	if err != nil {
		t.Fatalf("ReadManifest failed: %v", err)
	}

	if got.Style != m.Style || got.Orientation != m.Orientation || got.Seed != m.Seed {
		t.Errorf("header mismatch: got %+v", got)
	}
	if len(got.Scenes) != 2 {
		t.Fatalf("expected 2 scenes, got %d", len(got.Scenes))
	}
	if !got.Scenes[1].IsPunchline || got.Scenes[0].Caption != "HELLO" {
		t.Errorf("scene fields lost: %+v", got.Scenes)
	}
}

func TestNormalize(t *testing.T) {
	m := &Manifest{
		Style:       "Stickman",
		Orientation: "",
		Scenes: []Scene{
			{Caption: "a"},
			{Caption: "b", Style: "noir", Action: "WAVING"},
		},
	}
	original := m.Scenes

	if err := m.Normalize(); err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if m.Orientation != Vertical {
		t.Errorf("expected default vertical orientation, got %q", m.Orientation)
	}
	if m.Scenes[0].Style != StyleStickman || m.Scenes[0].Action != ActionDefault {
		t.Errorf("scene 0 defaults not applied: %+v", m.Scenes[0])
	}
	if m.Scenes[1].Style != StyleNoir || m.Scenes[1].Action != ActionWaving {
		t.Errorf("scene 1 tags not parsed: %+v", m.Scenes[1])
	}
	if original[0].Style != "" {
		t.Errorf("Normalize mutated the caller's scenes")
	}
	if m.Version != "1.0" {
		t.Errorf("expected default version, got %q", m.Version)
	}
}

func TestNormalizeErrors(t *testing.T) {
	tests := []struct {
		name string
		m    Manifest
	}{
		{"empty", Manifest{Style: StyleNoir}},
		{"unknown style", Manifest{Style: "vaporwave", Scenes: []Scene{{}}}},
		{"unknown scene style", Manifest{Style: StyleNoir, Scenes: []Scene{{Style: "pixel"}}}},
		{"unknown action", Manifest{Style: StyleNoir, Scenes: []Scene{{Action: "dancing"}}}},
		{"unknown orientation", Manifest{Style: StyleNoir, Orientation: "diagonal", Scenes: []Scene{{}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tt.m
			if err := m.Normalize(); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}

	empty := Manifest{Style: StyleNoir}
	if err := empty.Normalize(); !errors.Is(err, ErrNoScenes) {
		t.Errorf("expected ErrNoScenes, got %v", err)
	}
}

func TestOrientationDimensions(t *testing.T) {
	w, h := Vertical.Dimensions()
	if w != 1080 || h != 1920 {
		t.Errorf("vertical: got %dx%d", w, h)
	}
	w, h = Horizontal.Dimensions()
	if w != 1920 || h != 1080 {
		t.Errorf("horizontal: got %dx%d", w, h)
	}
}

func TestStickmanFamily(t *testing.T) {
	for _, s := range Styles {
		want := s == StyleStickman || s == StylePsychStickman
		if s.IsStickmanFamily() != want {
			t.Errorf("%s: IsStickmanFamily = %v", s, !want)
		}
	}
}
