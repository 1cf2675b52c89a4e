package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/sudhir-bahadure/tube-automa-sub000/internal/assets"
	"github.com/sudhir-bahadure/tube-automa-sub000/internal/config"
	"github.com/sudhir-bahadure/tube-automa-sub000/internal/engine"
	"github.com/sudhir-bahadure/tube-automa-sub000/internal/scene"
	"github.com/sudhir-bahadure/tube-automa-sub000/internal/system"
)

var probeManifest string

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Report encoder, memory and the backend a render would use",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := config.Default()
		cfg.LoadEnv()

		scenes := 0
		if probeManifest != "" {
			m, err := loadManifest(probeManifest)
			if err != nil {
				return err
			}
			cfg.ApplyManifest(m)
			scenes = len(m.Scenes)
		}

		fmt.Printf("ffmpeg:   %s", cfg.FFmpegBin)
		if err := system.CheckFFmpeg(ctx, cfg.FFmpegBin); err != nil {
			fmt.Printf(" (unavailable: %v)\n", err)
		} else {
			enc := system.GetBestH264Encoder(ctx, cfg.FFmpegBin)
			fmt.Printf(" (ok)\nencoder:  %s, quality %d\n", enc, system.DefaultQuality(enc))
		}

		free, err := system.AvailableMemory()
		if err != nil {
			fmt.Printf("memory:   unknown (%v)\n", err)
		} else {
			fmt.Printf("memory:   %d MiB available, threshold %d MiB\n", free>>20, cfg.MemoryThreshold>>20)
		}
		fmt.Printf("workers:  %d physical cores, %d logical\n", system.DefaultWorkers(), runtime.NumCPU())

		backend := engine.ChooseBackend(cfg.Backend, free, err, cfg.MemoryThreshold, scenes)
		fmt.Printf("backend:  %s (configured %s, %d scenes)\n", backend, cfg.Backend, scenes)

		catalogInfo(cfg)
		return nil
	},
}

func catalogInfo(cfg *config.Config) {
	cat, err := assets.NewCatalog(cfg.FallbackDir, cfg.SFXDir)
	if err != nil {
		fmt.Printf("assets:   %v\n", err)
		return
	}
	fmt.Printf("assets:   %d generic fallback images, %d sound effects\n", len(cat.GenericImages()), len(cat.SoundEffects()))
	for _, st := range scene.Styles {
		if n := len(cat.StyleImages(st)); n > 0 {
			fmt.Printf("          %d %s images\n", n, st)
		}
	}
}

func init() {
	probeCmd.Flags().StringVarP(&probeManifest, "manifest", "m", "", "Manifest to size the backend choice against")
}
