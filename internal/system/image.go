package system

import (
	"fmt"
	"image"
	"image/png"
	"os"
)

// SavePNG encodes img to path with fast compression; these files live only
// for the duration of a render.
func SavePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
