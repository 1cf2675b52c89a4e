package video

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sudhir-bahadure/tube-automa-sub000/internal/config"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-ffmpeg")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestQualityArgs(t *testing.T) {
	tests := []struct {
		encoder string
		quality int
		want    string
	}{
		{"h264_videotoolbox", 75, "-b:v 7500k"},
		{"h264_nvenc", 28, "-cq 28"},
		{"libx264", 23, "-crf 23 -preset medium"},
	}
	for _, tt := range tests {
		if got := strings.Join(QualityArgs(tt.encoder, tt.quality), " "); got != tt.want {
			t.Errorf("%s: got %q, want %q", tt.encoder, got, tt.want)
		}
	}
}

func TestProfileArgs(t *testing.T) {
	p := config.EncodeProfile{FPS: 24, SampleRate: 44100, VideoEncoder: "libx264", Quality: 23, AudioBitrate: "192k"}
	v := strings.Join(VideoArgs(p), " ")
	for _, want := range []string{"-r 24", "-c:v libx264", "-pix_fmt yuv420p", "-crf 23"} {
		if !strings.Contains(v, want) {
			t.Errorf("video args %q missing %q", v, want)
		}
	}
	if a := strings.Join(AudioArgs(p), " "); a != "-c:a aac -b:a 192k -ar 44100 -ac 2" {
		t.Errorf("unexpected audio args %q", a)
	}
}

func TestGraph(t *testing.T) {
	g := NewGraph()
	img := g.AddInput(Input{Options: []string{"-loop", "1"}, Path: "a.png"})
	raw := g.AddInput(Input{Options: []string{"-f", "rawvideo"}, Feed: func(context.Context, io.Writer) error { return nil }})
	if img != 0 || raw != 1 {
		t.Fatalf("unexpected input indices %d, %d", img, raw)
	}

	if a, b := g.Label("v"), g.Label("v"); a != "[v0]" || b != "[v1]" {
		t.Errorf("labels %s %s", a, b)
	}
	g.Chain("[%d:v]null[v0]", img)
	g.Chain("[%d:v]null[v1]", raw)

	args := strings.Join(g.Args("[v1]"), " ")
	want := "-loop 1 -i a.png -f rawvideo -i pipe:3 -filter_complex [0:v]null[v0];[1:v]null[v1] -map [v1]"
	if args != want {
		t.Errorf("got  %q\nwant %q", args, want)
	}
	if len(g.Feeds()) != 1 {
		t.Errorf("expected one feed, got %d", len(g.Feeds()))
	}
}

func TestRunFailureIsEncodeError(t *testing.T) {
	bin := writeScript(t, `echo "Invalid argument" >&2; exit 1`)
	f := &FFmpeg{Bin: bin, Timeout: 5 * time.Second, Log: zerolog.Nop()}

	err := f.Run(context.Background(), []string{"out.mp4"})
	var ee *EncodeError
	if !errors.As(err, &ee) {
		t.Fatalf("expected EncodeError, got %v", err)
	}
	if !strings.Contains(ee.Output, "Invalid argument") {
		t.Errorf("diagnostics not captured: %q", ee.Output)
	}
	if ee.Args[len(ee.Args)-1] != "out.mp4" {
		t.Errorf("args not recorded: %v", ee.Args)
	}
}

func TestRunTimeout(t *testing.T) {
	bin := writeScript(t, `exec sleep 5`)
	f := &FFmpeg{Bin: bin, Timeout: 100 * time.Millisecond, Log: zerolog.Nop()}

	start := time.Now()
	err := f.Run(context.Background(), nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if time.Since(start) > 3*time.Second {
		t.Error("process was not killed at the deadline")
	}
}

func TestRunFeeds(t *testing.T) {
	bin := writeScript(t, `for a; do last=$a; done; cat <&3 > "$last"`)
	out := filepath.Join(t.TempDir(), "fed.raw")
	f := &FFmpeg{Bin: bin, Timeout: 5 * time.Second, Log: zerolog.Nop()}

	feed := func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "frame-data")
		return err
	}
	if err := f.Run(context.Background(), []string{out}, feed); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "frame-data" {
		t.Errorf("feed not delivered, got %q", got)
	}
}

func TestWriteConcatList(t *testing.T) {
	dir := t.TempDir()
	list := filepath.Join(dir, "inputs.txt")
	if err := WriteConcatList(list, []string{filepath.Join(dir, "s0.mp4"), filepath.Join(dir, "it's.mp4")}); err != nil {
		t.Fatal(err)
	}
	b, _ := os.ReadFile(list)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "file '/") || !strings.Contains(lines[1], `it'\''s.mp4`) {
		t.Errorf("unexpected list:\n%s", b)
	}
}

func TestPublish(t *testing.T) {
	dir := t.TempDir()
	tmp := filepath.Join(dir, "render.tmp.mp4")
	dst := filepath.Join(dir, "out", "final.mp4")
	os.WriteFile(tmp, []byte("mp4"), 0644)

	if err := Publish(tmp, dst); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if _, err := os.Stat(tmp); !os.IsNotExist(err) {
		t.Error("temp file should be gone")
	}
	if b, _ := os.ReadFile(dst); string(b) != "mp4" {
		t.Errorf("unexpected output %q", b)
	}
}

func TestTailBuffer(t *testing.T) {
	tb := &tailBuffer{max: 4}
	tb.Write([]byte("abc"))
	tb.Write([]byte("defg"))
	if tb.String() != "defg" {
		t.Errorf("got %q", tb.String())
	}
}

func TestEncodeErrorTail(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= 30; i++ {
		b.WriteString("line ")
		b.WriteString(strings.Repeat("x", i%3))
		b.WriteString("\n")
	}
	b.WriteString("Conversion failed!\n")
	e := &EncodeError{Err: errors.New("exit status 1"), Output: b.String()}

	tail := e.Tail(20)
	lines := strings.Split(tail, "\n")
	if len(lines) != 20 {
		t.Fatalf("expected 20 lines, got %d", len(lines))
	}
	if lines[19] != "Conversion failed!" {
		t.Errorf("last line %q", lines[19])
	}
	if !strings.HasSuffix(e.Error(), "Conversion failed!") {
		t.Errorf("Error() should keep the last line: %s", e.Error())
	}

	short := &EncodeError{Output: "only\n"}
	if got := short.Tail(20); got != "only" {
		t.Errorf("short tail %q", got)
	}
}
