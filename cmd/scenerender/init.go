package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sudhir-bahadure/tube-automa-sub000/internal/config"
	"github.com/sudhir-bahadure/tube-automa-sub000/internal/scene"
	"github.com/sudhir-bahadure/tube-automa-sub000/internal/system"
)

var initFlags struct {
	style       string
	orientation string
	force       bool
}

var initCmd = &cobra.Command{
	Use:   "init <dir> [manifest.yaml]",
	Short: "Write a manifest for the narration files found in a directory",
	Long: `Scan a directory for narration audio and write one scene per file, in name
order. A visual with the same base name (image or video) is picked up when
present. The result is a starting point: edit captions and actions before rendering.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := args[0]
		out := filepath.Join(dir, "manifest.yaml")
		if len(args) == 2 {
			out = args[1]
		}
		if _, err := os.Stat(out); err == nil && !initFlags.force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", out)
		}

		m, err := scanManifest(dir, initFlags.style, initFlags.orientation)
		if err != nil {
			return err
		}
		if err := scene.WriteManifest(m, out); err != nil {
			return err
		}
		fmt.Printf("[+] %s: %d scenes\n", out, len(m.Scenes))
		return nil
	},
}

func init() {
	initCmd.Flags().StringVar(&initFlags.style, "style", string(scene.StyleNoir), "Render style")
	initCmd.Flags().StringVar(&initFlags.orientation, "orientation", string(scene.Vertical), "vertical or horizontal")
	initCmd.Flags().BoolVarP(&initFlags.force, "force", "f", false, "Overwrite an existing manifest")
}

// scanManifest pairs every audio file in dir with a visual of the same stem.
func scanManifest(dir, style, orientation string) (*scene.Manifest, error) {
	st, err := scene.ParseStyle(style)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}
	o, err := scene.ParseOrientation(orientation)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}

	narrations, err := system.ListFiles(dir, system.AudioExtensions)
	if err != nil {
		return nil, err
	}
	if len(narrations) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, scene.ErrNoScenes)
	}

	visuals := make(map[string]string)
	for _, exts := range [][]string{system.VideoExtensions, system.ImageExtensions} {
		files, err := system.ListFiles(dir, exts)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			visuals[stem(f)] = f
		}
	}

	m := &scene.Manifest{Version: "1.0", Style: st, Orientation: o}
	for _, a := range narrations {
		m.Scenes = append(m.Scenes, scene.Scene{
			AudioPath:  a,
			VisualPath: visuals[stem(a)],
			Caption:    strings.ReplaceAll(stem(a), "_", " "),
			Action:     scene.ActionTalking,
		})
	}
	return m, nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
