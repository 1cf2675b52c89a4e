package compositor

import (
	"bytes"
	"context"
	"image"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sudhir-bahadure/tube-automa-sub000/internal/assets"
	"github.com/sudhir-bahadure/tube-automa-sub000/internal/caption"
	"github.com/sudhir-bahadure/tube-automa-sub000/internal/scene"
	"github.com/sudhir-bahadure/tube-automa-sub000/internal/system"
	"github.com/sudhir-bahadure/tube-automa-sub000/internal/video"
)

var vertical = Settings{Width: 1080, Height: 1920, FPS: 24, Seed: 42}

func prepared(style scene.Style, durations []float64, punch map[int]bool) []Prepared {
	out := make([]Prepared, len(durations))
	for i, d := range durations {
		out[i] = Prepared{Resolved: assets.Resolved{
			Index:  i,
			Scene:  scene.Scene{Style: style, Action: scene.ActionTalking, IsPunchline: punch[i]},
			Audio:  assets.Audio{Path: "a.wav", Duration: d},
			Visual: assets.Visual{Path: "v.png", Kind: assets.KindImage},
		}}
	}
	return out
}

func TestPlanThreeScenes(t *testing.T) {
	tl, clips, err := Plan(prepared(scene.StyleNoir, []float64{3, 2, 4}, nil), vertical)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if tl.Total != 9 {
		t.Errorf("total %v, want 9", tl.Total)
	}

	tests := []struct {
		start, frames, overlap int
	}{
		{0, 84, 0},
		{72, 60, 12},
		{120, 96, 12},
	}
	for i, tt := range tests {
		c := clips[i]
		if c.StartFrame != tt.start || c.Frames != tt.frames || c.Overlap != tt.overlap {
			t.Errorf("clip %d: got %s, want start %d frames %d overlap %d", i, c.String(), tt.start, tt.frames, tt.overlap)
		}
	}
	if got := Frames(clips); got != 216 {
		t.Errorf("video is %d frames, want 216", got)
	}

	g := video.NewGraph()
	out := Sequence(g, clips, []string{"[a]", "[b]", "[c]"}, vertical.FPS)
	filter := g.Filter()
	for _, want := range []string{
		"[a][b]xfade=transition=fade:duration=0.500000:offset=3.000000[seq0]",
		"[seq0][c]xfade=transition=fade:duration=0.500000:offset=5.000000[seq1]",
	} {
		if !strings.Contains(filter, want) {
			t.Errorf("filter missing %q:\n%s", want, filter)
		}
	}
	if out != "[seq1]" {
		t.Errorf("unexpected output %s", out)
	}
}

func TestPlanFrameBoundsFollowNarration(t *testing.T) {
	tests := []struct {
		durations []float64
		starts    []int
		frames    []int
	}{
		{[]float64{1.01, 1.01, 1.01}, []int{0, 24, 48}, []int{24, 24, 25}},
		{[]float64{0.01, 1.01}, []int{0, 1}, []int{1, 23}},
	}
	for _, tt := range tests {
		_, clips, err := Plan(prepared(scene.StyleStickman, tt.durations, nil), vertical)
		if err != nil {
			t.Fatal(err)
		}
		for i, c := range clips {
			if c.StartFrame != tt.starts[i] || c.Frames != tt.frames[i] {
				t.Errorf("%v: clip %d = %s, want @%d+%d", tt.durations, i, c.String(), tt.starts[i], tt.frames[i])
			}
		}
	}
}

func TestPunchlineCutsIn(t *testing.T) {
	_, clips, err := Plan(prepared(scene.StyleNoir, []float64{3, 2, 4}, map[int]bool{1: true}), vertical)
	if err != nil {
		t.Fatal(err)
	}
	if clips[1].Overlap != 0 || clips[0].Frames != 72 {
		t.Errorf("punchline should cut in: %s / %s", clips[0].String(), clips[1].String())
	}
	if clips[2].Overlap != 12 {
		t.Errorf("scene after the punchline still crossfades: %s", clips[2].String())
	}

	g := video.NewGraph()
	Sequence(g, clips, []string{"[a]", "[b]", "[c]"}, vertical.FPS)
	filter := g.Filter()
	if !strings.Contains(filter, "[a][b]concat=n=2:v=1:a=0[seq0]") || !strings.Contains(filter, "offset=5.000000") {
		t.Errorf("unexpected sequence:\n%s", filter)
	}
}

func TestStickmanSequenceConcats(t *testing.T) {
	_, clips, err := Plan(prepared(scene.StyleStickman, []float64{1, 1, 1}, nil), vertical)
	if err != nil {
		t.Fatal(err)
	}
	if HasCrossfades(clips) {
		t.Fatal("stickman scenes fade, they do not crossfade")
	}
	g := video.NewGraph()
	Sequence(g, clips, []string{"[a]", "[b]", "[c]"}, vertical.FPS)
	if g.Filter() != "[a][b][c]concat=n=3:v=1:a=0[seq0]" {
		t.Errorf("unexpected sequence %q", g.Filter())
	}
	if len(clips[0].Particles) != 3 {
		t.Errorf("expected 3 particles, got %d", len(clips[0].Particles))
	}
}

func TestShortSceneClampsOverlap(t *testing.T) {
	_, clips, err := Plan(prepared(scene.StylePlain, []float64{3, 0.5}, nil), vertical)
	if err != nil {
		t.Fatal(err)
	}
	if clips[1].Overlap != 6 || clips[0].Frames != 78 {
		t.Errorf("overlap not clamped to half the short clip: %s / %s", clips[0].String(), clips[1].String())
	}
}

func TestPlanEmpty(t *testing.T) {
	if _, _, err := Plan(nil, vertical); err == nil {
		t.Error("expected an error for an empty plan")
	}
}

func TestBuildNoirStill(t *testing.T) {
	_, clips, err := Plan(prepared(scene.StyleNoir, []float64{3, 2}, nil), vertical)
	if err != nil {
		t.Fatal(err)
	}
	g := video.NewGraph()
	label, err := clips[0].Build(g, vertical)
	if err != nil {
		t.Fatal(err)
	}
	filter := g.Filter()
	for _, want := range []string{
		"[0:v]scale=1296:2304:force_original_aspect_ratio=increase,crop=1188:2112,setsar=1,zoompan=",
		":d=84:s=1080x1920:fps=24",
		"fps=24,format=yuv420p,setsar=1,settb=AVTB" + label,
	} {
		if !strings.Contains(filter, want) {
			t.Errorf("filter missing %q:\n%s", want, filter)
		}
	}
	if args := strings.Join(g.InputArgs(), " "); args != "-i v.png" {
		t.Errorf("still image should be a single frame input, got %q", args)
	}
}

func TestBuildPlainWithCaption(t *testing.T) {
	scenes := prepared(scene.StylePlain, []float64{2}, nil)
	scenes[0].Caption = &caption.Overlay{Path: "cap.png", Band: caption.Band{X: 54, Y: 1440, Width: 972, Height: 400}}
	_, clips, err := Plan(scenes, vertical)
	if err != nil {
		t.Fatal(err)
	}

	g := video.NewGraph()
	if _, err := clips[0].Build(g, vertical); err != nil {
		t.Fatal(err)
	}
	filter := g.Filter()
	for _, want := range []string{
		"pad=1080:1920:(ow-iw)/2:(oh-ih)/2:color=black",
		"zoompan=z='(1*1)'",
		"[v0][1:v]overlay=54:1440:eof_action=repeat[cap0]",
	} {
		if !strings.Contains(filter, want) {
			t.Errorf("filter missing %q:\n%s", want, filter)
		}
	}
}

func TestBuildVideo(t *testing.T) {
	scenes := prepared(scene.StyleStickman, []float64{2}, nil)
	scenes[0].Resolved.Visual = assets.Visual{Path: "clip.mp4", Kind: assets.KindVideo}
	_, clips, err := Plan(scenes, vertical)
	if err != nil {
		t.Fatal(err)
	}
	if clips[0].Animated() {
		t.Fatal("video visuals are not drawn in Go")
	}

	g := video.NewGraph()
	if _, err := clips[0].Build(g, vertical); err != nil {
		t.Fatal(err)
	}
	if args := strings.Join(g.InputArgs(), " "); args != "-stream_loop -1 -t 3.000 -i clip.mp4" {
		t.Errorf("unexpected input %q", args)
	}
	filter := g.Filter()
	for _, want := range []string{
		"crop=1080:1920,setsar=1,trim=end_frame=48,setpts=PTS-STARTPTS",
		"fade=t=in:st=0:d=0.400000:color=white",
		"fade=t=out:st=1.600000:d=0.400000:color=white",
	} {
		if !strings.Contains(filter, want) {
			t.Errorf("filter missing %q:\n%s", want, filter)
		}
	}
}

func writeCharacter(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	for i := 0; i < len(img.Pix); i += 4 {
		copy(img.Pix[i:], []byte{255, 0, 0, 255})
	}
	path := filepath.Join(t.TempDir(), "character.png")
	if err := system.SavePNG(path, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPuppetFrames(t *testing.T) {
	small := Settings{Width: 100, Height: 200, FPS: 24, Seed: 7}
	char := writeCharacter(t)

	tests := []struct {
		style    scene.Style
		firstRed bool
	}{
		{scene.StyleStickman, false}, // fades in from transparent
		{scene.StylePsychStickman, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.style), func(t *testing.T) {
			scenes := prepared(tt.style, []float64{2}, nil)
			scenes[0].Resolved.Visual.Path = char
			_, clips, err := Plan(scenes, small)
			if err != nil {
				t.Fatal(err)
			}
			c := clips[0]
			if !c.Animated() {
				t.Fatal("stickman image scenes are drawn in Go")
			}
			p, err := NewPuppet(char, c.Motion, c.Particles, small.Width, small.Height, small.FPS, c.Frames)
			if err != nil {
				t.Fatal(err)
			}

			frame := image.NewRGBA(image.Rect(0, 0, small.Width, small.Height))
			isRed := func(n int) bool {
				p.Draw(frame, n)
				px := frame.RGBAAt(50, 100)
				return px.R > 200 && px.G < 50
			}
			if got := isRed(0); got != tt.firstRed {
				t.Errorf("frame 0: character visible = %v, want %v", got, tt.firstRed)
			}
			if !isRed(24) {
				t.Errorf("frame 24: character not drawn at the center, got %v", frame.RGBAAt(50, 100))
			}
			if corner := frame.RGBAAt(0, 0); corner.A != 255 || corner.R < 200 {
				t.Errorf("background should be opaque light, got %v", corner)
			}
		})
	}
}

func TestPuppetFeed(t *testing.T) {
	char := writeCharacter(t)
	scenes := prepared(scene.StyleStickman, []float64{1}, nil)
	scenes[0].Resolved.Visual.Path = char
	small := Settings{Width: 40, Height: 60, FPS: 24, Seed: 1}
	_, clips, err := Plan(scenes, small)
	if err != nil {
		t.Fatal(err)
	}

	g := video.NewGraph()
	if _, err := clips[0].Build(g, small); err != nil {
		t.Fatal(err)
	}
	if len(g.Feeds()) != 1 {
		t.Fatalf("expected one frame feed, got %d", len(g.Feeds()))
	}
	if args := strings.Join(g.InputArgs(), " "); args != "-f rawvideo -pixel_format rgba -video_size 40x60 -framerate 24 -i pipe:3" {
		t.Errorf("unexpected input %q", args)
	}

	var buf bytes.Buffer
	if err := g.Feeds()[0](context.Background(), &buf); err != nil {
		t.Fatal(err)
	}
	if want := 24 * 40 * 60 * 4; buf.Len() != want {
		t.Errorf("fed %d bytes, want %d", buf.Len(), want)
	}
}

func TestPuppetMissingCharacter(t *testing.T) {
	scenes := prepared(scene.StyleStickman, []float64{1}, nil)
	scenes[0].Resolved.Visual.Path = filepath.Join(t.TempDir(), "gone.png")
	_, clips, err := Plan(scenes, vertical)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := clips[0].Build(video.NewGraph(), vertical); err == nil {
		t.Error("expected a composition error")
	}
}

func TestCheck(t *testing.T) {
	scenes := prepared(scene.StyleStickman, []float64{1}, nil)
	scenes[0].Resolved.Visual.Path = filepath.Join(t.TempDir(), "gone.png")
	if err := Check(scenes[0]); err == nil {
		t.Error("missing character should fail the check")
	}
	scenes[0].Resolved.Visual.Path = writeCharacter(t)
	if err := Check(scenes[0]); err != nil {
		t.Errorf("valid character rejected: %v", err)
	}

	noir := prepared(scene.StyleNoir, []float64{1}, nil)
	if err := Check(noir[0]); err != nil {
		t.Errorf("zoompan scenes are checked by ffmpeg, got %v", err)
	}
}
