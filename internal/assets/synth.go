package assets

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"

	xdraw "golang.org/x/image/draw"

	"github.com/sudhir-bahadure/tube-automa-sub000/internal/system"
)

const (
	SilenceDuration = 2.0
	silenceChannels = 2
	bitsPerSample   = 16

	// BottomCrop is the share of an image's height removed before use.
	BottomCrop = 0.08
)

// SolidColor fills the terminal visual fallback.
var SolidColor = color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff}

// WriteSilence writes a 16-bit PCM stereo WAV of the given length.
func WriteSilence(path string, seconds float64, sampleRate int) error {
	frames := int(math.Round(seconds * float64(sampleRate)))
	blockAlign := silenceChannels * bitsPerSample / 8
	dataSize := uint32(frames * blockAlign)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)

	header := []any{
		[4]byte{'R', 'I', 'F', 'F'},
		36 + dataSize,
		[4]byte{'W', 'A', 'V', 'E'},
		[4]byte{'f', 'm', 't', ' '},
		uint32(16),
		uint16(1), // PCM
		uint16(silenceChannels),
		uint32(sampleRate),
		uint32(sampleRate * blockAlign),
		uint16(blockAlign),
		uint16(bitsPerSample),
		[4]byte{'d', 'a', 't', 'a'},
		dataSize,
	}
	for _, v := range header {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			f.Close()
			return fmt.Errorf("write wav header: %w", err)
		}
	}

	zeros := make([]byte, 4096)
	for remaining := int(dataSize); remaining > 0; {
		n := min(remaining, len(zeros))
		if _, err := w.Write(zeros[:n]); err != nil {
			f.Close()
			return err
		}
		remaining -= n
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteSolidFrame writes a width x height PNG filled with SolidColor.
func WriteSolidFrame(path string, width, height int) error {
	img := system.GetFrame(image.Rect(0, 0, width, height))
	defer system.PutFrame(img)

	xdraw.Draw(img, img.Bounds(), image.NewUniform(SolidColor), image.Point{}, xdraw.Src)
	return system.SavePNG(path, img)
}

// PrepareImage drops the bottom crop fraction of src and, when the remainder
// is larger than maxW x maxH, downsamples it with Catmull-Rom keeping the aspect.
func PrepareImage(src image.Image, crop float64, maxW, maxH int) *image.RGBA {
	b := src.Bounds()
	keep := int(math.Round(float64(b.Dy()) * (1 - crop)))
	if keep < 1 {
		keep = 1
	}
	cropRect := image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+keep)

	w, h := cropRect.Dx(), cropRect.Dy()
	if maxW > 0 && maxH > 0 && (w > maxW || h > maxH) {
		scale := math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
		w = max(1, int(float64(w)*scale))
		h = max(1, int(float64(h)*scale))
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == cropRect.Dx() && h == cropRect.Dy() {
		xdraw.Draw(dst, dst.Bounds(), src, cropRect.Min, xdraw.Src)
		return dst
	}
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, cropRect, xdraw.Src, nil)
	return dst
}
