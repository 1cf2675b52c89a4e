package system

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
)

var (
	AudioExtensions = []string{".mp3", ".wav", ".m4a", ".ogg", ".aac", ".flac"}
	ImageExtensions = []string{".jpg", ".jpeg", ".png", ".webp", ".pdf"}
	VideoExtensions = []string{".mp4", ".mov", ".webm", ".mkv", ".avi", ".m4v"}
)

// InitResourceLimits raises the open file limit; the composite backend opens
// one input per scene asset.
func InitResourceLimits() {
	var rLimit syscall.Rlimit
	err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit)
	if err != nil {
		log.Warn().Err(err).Msg("[!] could not read open file limit")
		return
	}

	rLimit.Cur = 4096
	if rLimit.Cur > rLimit.Max {
		rLimit.Cur = rLimit.Max
	}

	if err := syscall.Setrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		log.Warn().Err(err).Msg("[!] could not raise open file limit")
		return
	}
	log.Debug().Uint64("nofile", uint64(rLimit.Cur)).Msg("[*] open file limit raised")
}

// HasExtension reports whether path ends in one of exts, case-insensitively.
func HasExtension(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// ListFiles returns the regular files in dir whose extension is in exts, sorted by name.
// A missing directory yields an empty list.
func ListFiles(dir string, exts []string) ([]string, error) {
	if dir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if HasExtension(entry.Name(), exts) {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// FFprobe queries media files through the ffprobe binary.
type FFprobe struct {
	Bin string
}

func (p FFprobe) bin() string {
	if p.Bin == "" {
		return "ffprobe"
	}
	return p.Bin
}

// Duration returns the container duration in seconds.
func (p FFprobe) Duration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, p.bin(), "-v", "error", "-show_entries", "format=duration", "-of", "default=noprint_wrappers=1:nokey=1", path)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w: %s", path, err, strings.TrimSpace(string(out)))
	}

	var duration float64
	if _, err := fmt.Sscanf(strings.TrimSpace(string(out)), "%f", &duration); err != nil {
		return 0, fmt.Errorf("parse duration of %s: %w", path, err)
	}

	return duration, nil
}

// HasStream reports whether the file carries at least one stream of the kind ("v" or "a").
func (p FFprobe) HasStream(ctx context.Context, path, kind string) (bool, error) {
	cmd := exec.CommandContext(ctx, p.bin(), "-v", "error", "-select_streams", kind, "-show_entries", "stream=codec_type", "-of", "csv=p=0", path)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return false, fmt.Errorf("ffprobe %s: %w: %s", path, err, strings.TrimSpace(string(out)))
	}
	return strings.TrimSpace(string(out)) != "", nil
}

// CheckFFmpeg verifies the encoder binary can be executed.
func CheckFFmpeg(ctx context.Context, bin string) error {
	out, err := exec.CommandContext(ctx, bin, "-version").CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg not available (%s): %w: %s", bin, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// GetBestH264Encoder picks a hardware H.264 encoder when ffmpeg was built with one.
// Order: VideoToolbox (macOS), NVENC, then libx264.
func GetBestH264Encoder(ctx context.Context, bin string) string {
	out, err := exec.CommandContext(ctx, bin, "-hide_banner", "-encoders").CombinedOutput()
	if err != nil {
		return "libx264"
	}

	for _, name := range []string{"h264_videotoolbox", "h264_nvenc"} {
		if strings.Contains(string(out), name) {
			return name
		}
	}
	return "libx264"
}

// DefaultQuality returns the quality knob for an encoder: CRF for x264, CQ for
// NVENC, bitrate in 100 kbit/s units for VideoToolbox.
func DefaultQuality(encoder string) int {
	switch encoder {
	case "h264_videotoolbox":
		return 75
	case "h264_nvenc":
		return 28
	default:
		return 23
	}
}
