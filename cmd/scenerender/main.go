package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/sudhir-bahadure/tube-automa-sub000/internal/config"
	"github.com/sudhir-bahadure/tube-automa-sub000/internal/scene"
	"github.com/sudhir-bahadure/tube-automa-sub000/internal/system"
	"github.com/sudhir-bahadure/tube-automa-sub000/internal/video"
)

// set with -ldflags "-X main.version=..."
var version = "dev"

var verbose bool

// diagnosticLines of ffmpeg output are shown when an encode fails.
const diagnosticLines = 20

var rootCmd = &cobra.Command{
	Use:   "scenerender",
	Short: "Render narrated scene manifests into short-form video",
	Long: `scenerender turns a YAML manifest of narrated scenes into one H.264/AAC video.
Each scene gets style-specific motion, a caption band and a transition; narration,
sound effects and background music are mixed under the picture.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := zerolog.InfoLevel
		if verbose {
			level = zerolog.DebugLevel
		}
		zerolog.SetGlobalLevel(level)
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
			With().Timestamp().Logger()

		system.InitResourceLimits()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging, including every ffmpeg command line")
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		log.Error().Err(err).Msg("[-] render failed")
		var ee *video.EncodeError
		if errors.As(err, &ee) && ee.Output != "" {
			fmt.Fprintf(os.Stderr, "--- ffmpeg output (last %d lines) ---\n%s\n", diagnosticLines, ee.Tail(diagnosticLines))
		}
		if errors.Is(err, config.ErrInvalidConfig) || errors.Is(err, scene.ErrNoScenes) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
