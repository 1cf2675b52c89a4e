package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/sudhir-bahadure/tube-automa-sub000/internal/config"
)

// Feed writes a raw input stream. It must stop when ctx is done.
type Feed func(ctx context.Context, w io.Writer) error

// Encoder runs one encoder invocation.
type Encoder interface {
	Run(ctx context.Context, args []string, feeds ...Feed) error
}

// EncodeError is returned when the encoder fails or exceeds its time limit.
type EncodeError struct {
	Args   []string
	Output string
	Err    error
}

func (e *EncodeError) Error() string {
	out := strings.TrimSpace(e.Output)
	if i := strings.LastIndexByte(out, '\n'); i >= 0 {
		out = out[i+1:]
	}
	if out == "" {
		return fmt.Sprintf("ffmpeg: %v", e.Err)
	}
	return fmt.Sprintf("ffmpeg: %v: %s", e.Err, out)
}

// Tail returns the last n lines of the encoder output.
func (e *EncodeError) Tail(n int) string {
	lines := strings.Split(strings.TrimRight(e.Output, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// FFmpeg runs the ffmpeg binary with a per-invocation time limit.
type FFmpeg struct {
	Bin     string
	Timeout time.Duration
	Log     zerolog.Logger
}

const outputTail = 16 << 10

func (f *FFmpeg) Run(ctx context.Context, args []string, feeds ...Feed) error {
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	full := append([]string{"-hide_banner", "-nostdin", "-y"}, args...)
	cmd := exec.CommandContext(ctx, f.Bin, full...)
	out := &tailBuffer{max: outputTail}
	cmd.Stdout = out
	cmd.Stderr = out
	cmd.WaitDelay = 10 * time.Second

	writers := make([]*os.File, 0, len(feeds))
	closeAll := func() {
		for _, w := range writers {
			w.Close()
		}
		for _, r := range cmd.ExtraFiles {
			r.Close()
		}
	}
	for range feeds {
		r, w, err := os.Pipe()
		if err != nil {
			closeAll()
			return &EncodeError{Args: full, Err: fmt.Errorf("open feed pipe: %w", err)}
		}
		cmd.ExtraFiles = append(cmd.ExtraFiles, r)
		writers = append(writers, w)
	}

	f.Log.Debug().Strs("args", full).Msg("[*] ffmpeg")
	start := time.Now()

	if err := cmd.Start(); err != nil {
		closeAll()
		return &EncodeError{Args: full, Err: err}
	}
	for _, r := range cmd.ExtraFiles {
		r.Close()
	}

	var g errgroup.Group
	for i, feed := range feeds {
		w := writers[i]
		g.Go(func() error {
			defer w.Close()
			return feed(ctx, w)
		})
	}
	feedErr := g.Wait()
	waitErr := cmd.Wait()

	switch {
	case ctx.Err() != nil:
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return &EncodeError{Args: full, Output: out.String(), Err: fmt.Errorf("timed out after %v: %w", f.Timeout, ctx.Err())}
		}
		return &EncodeError{Args: full, Output: out.String(), Err: ctx.Err()}
	case waitErr != nil:
		return &EncodeError{Args: full, Output: out.String(), Err: waitErr}
	case feedErr != nil:
		return &EncodeError{Args: full, Output: out.String(), Err: fmt.Errorf("feed: %w", feedErr)}
	}

	f.Log.Debug().Dur("took", time.Since(start)).Msg("[*] ffmpeg done")
	return nil
}

// QualityArgs maps the quality knob onto the encoder's own rate control.
func QualityArgs(encoder string, quality int) []string {
	switch encoder {
	case "h264_videotoolbox":
		// VideoToolbox ignores -q:v on several versions; quality is 100 kbit/s units.
		return []string{"-b:v", fmt.Sprintf("%dk", quality*100)}
	case "h264_nvenc":
		return []string{"-cq", fmt.Sprintf("%d", quality)}
	default:
		return []string{"-crf", fmt.Sprintf("%d", quality), "-preset", "medium"}
	}
}

// VideoArgs is the H.264 output section of the fixed profile.
func VideoArgs(p config.EncodeProfile) []string {
	args := []string{
		"-r", fmt.Sprintf("%d", p.FPS),
		"-c:v", p.VideoEncoder,
		"-pix_fmt", "yuv420p",
	}
	return append(args, QualityArgs(p.VideoEncoder, p.Quality)...)
}

// AudioArgs is the AAC output section of the fixed profile.
func AudioArgs(p config.EncodeProfile) []string {
	return []string{
		"-c:a", "aac",
		"-b:a", p.AudioBitrate,
		"-ar", fmt.Sprintf("%d", p.SampleRate),
		"-ac", "2",
	}
}

// WriteConcatList writes a concat demuxer list for paths.
func WriteConcatList(path string, paths []string) error {
	var b strings.Builder
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
	}
	return os.WriteFile(path, []byte(b.String()), 0644)
}

// ConcatArgs joins segments without re-encoding.
func ConcatArgs(listPath, out string) []string {
	return []string{"-f", "concat", "-safe", "0", "-i", listPath, "-c", "copy", out}
}

// Publish moves a finished file into place. The destination only ever holds
// a complete file.
func Publish(tmp, dst string) error {
	if dir := filepath.Dir(dst); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	if err := os.Rename(tmp, dst); err == nil {
		return nil
	}

	// Different filesystems: copy next to dst, then rename there.
	staging := dst + ".partial"
	if err := copyFile(tmp, staging); err != nil {
		os.Remove(staging)
		return err
	}
	if err := os.Rename(staging, dst); err != nil {
		os.Remove(staging)
		return err
	}
	return os.Remove(tmp)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	buf bytes.Buffer
	max int
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf.Write(p)
	if over := t.buf.Len() - t.max; over > 0 {
		t.buf.Next(over)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	return t.buf.String()
}
