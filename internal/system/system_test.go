package system

import (
	"image"
	"os"
	"path/filepath"
	"testing"
)

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.png", "a.JPG", "notes.txt", ".hidden.png"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.png"), 0755); err != nil {
		t.Fatal(err)
	}

	files, err := ListFiles(dir, ImageExtensions)
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}

	want := []string{filepath.Join(dir, "a.JPG"), filepath.Join(dir, "b.png")}
	if len(files) != len(want) {
		t.Fatalf("expected %v, got %v", want, files)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("file %d: expected %s, got %s", i, want[i], files[i])
		}
	}
}

func TestListFilesMissingDir(t *testing.T) {
	files, err := ListFiles(filepath.Join(t.TempDir(), "nope"), AudioExtensions)
	if err != nil || len(files) != 0 {
		t.Errorf("expected empty result, got %v, %v", files, err)
	}

	files, err = ListFiles("", AudioExtensions)
	if err != nil || len(files) != 0 {
		t.Errorf("expected empty result for empty dir, got %v, %v", files, err)
	}
}

func TestHasExtension(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"clip.MP4", true},
		{"clip.mp4.txt", false},
		{"noext", false},
	}
	for _, tt := range tests {
		if got := HasExtension(tt.path, VideoExtensions); got != tt.want {
			t.Errorf("HasExtension(%q) = %v", tt.path, got)
		}
	}
}

func TestFramePoolClears(t *testing.T) {
	rect := image.Rect(0, 0, 4, 4)
	img := GetFrame(rect)
	img.Pix[0] = 255
	PutFrame(img)

	again := GetFrame(rect)
	if again.Rect != rect {
		t.Fatalf("unexpected bounds %v", again.Rect)
	}
	for i, v := range again.Pix {
		if v != 0 {
			t.Fatalf("pixel byte %d not cleared: %d", i, v)
		}
	}
}

func TestDefaultQuality(t *testing.T) {
	if DefaultQuality("libx264") != 23 || DefaultQuality("h264_nvenc") != 28 || DefaultQuality("h264_videotoolbox") != 75 {
		t.Error("unexpected default quality table")
	}
}

func TestDefaultWorkers(t *testing.T) {
	if DefaultWorkers() < 1 {
		t.Error("expected at least one worker")
	}
}
