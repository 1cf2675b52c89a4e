package scene

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrNoScenes is returned when a manifest carries an empty scene list.
var ErrNoScenes = errors.New("no scenes")

// Manifest is a complete render request as produced by the script stage.
type Manifest struct {
	Version     string      `yaml:"version"`
	Style       Style       `yaml:"style"`
	Orientation Orientation `yaml:"orientation"`
	Music       string      `yaml:"music,omitempty"`
	Output      string      `yaml:"output,omitempty"`
	Seed        int64       `yaml:"seed,omitempty"`
	Scenes      []Scene     `yaml:"scenes"`
}

// Normalize validates every tag and fills per-scene defaults from the manifest.
// Scenes are copied, the caller's slice is left untouched.
func (m *Manifest) Normalize() error {
	if len(m.Scenes) == 0 {
		return ErrNoScenes
	}

	style, err := ParseStyle(string(m.Style))
	if err != nil {
		return err
	}
	m.Style = style

	orientation, err := ParseOrientation(string(m.Orientation))
	if err != nil {
		return err
	}
	m.Orientation = orientation

	scenes := make([]Scene, len(m.Scenes))
	for i, s := range m.Scenes {
		if s.Style == "" {
			s.Style = m.Style
		} else if s.Style, err = ParseStyle(string(s.Style)); err != nil {
			return fmt.Errorf("scene %d: %w", i, err)
		}
		if s.Action, err = ParseAction(string(s.Action)); err != nil {
			return fmt.Errorf("scene %d: %w", i, err)
		}
		scenes[i] = s
	}
	m.Scenes = scenes

	if m.Version == "" {
		m.Version = "1.0"
	}
	return nil
}

// WriteManifest writes a manifest to a YAML file
func WriteManifest(m *Manifest, path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ReadManifest reads a manifest from a YAML file
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}

	return &m, nil
}
