package system

import (
	"image"
	"sync"
)

// FramePool recycles *image.RGBA buffers by size. Puppet frames, caption bands
// and solid frames come in a handful of sizes per render, so the pool stays small.
type FramePool struct {
	pools map[image.Rectangle]*sync.Pool
	mu    sync.RWMutex
}

var frames = &FramePool{pools: make(map[image.Rectangle]*sync.Pool)}

// GetFrame returns a cleared RGBA buffer of the given bounds.
func GetFrame(rect image.Rectangle) *image.RGBA {
	return frames.Get(rect)
}

// PutFrame hands a buffer back once its contents have been encoded.
func PutFrame(img *image.RGBA) {
	frames.Put(img)
}

func (p *FramePool) Get(rect image.Rectangle) *image.RGBA {
	p.mu.RLock()
	pool, ok := p.pools[rect]
	p.mu.RUnlock()

	if !ok {
		p.mu.Lock()
		pool, ok = p.pools[rect]
		if !ok {
			pool = &sync.Pool{
				New: func() any {
					return image.NewRGBA(rect)
				},
			}
			p.pools[rect] = pool
		}
		p.mu.Unlock()
	}

	img := pool.Get().(*image.RGBA)
	clear(img.Pix)
	return img
}

func (p *FramePool) Put(img *image.RGBA) {
	if img == nil {
		return
	}
	p.mu.RLock()
	pool, ok := p.pools[img.Rect]
	p.mu.RUnlock()

	if ok {
		pool.Put(img)
	}
}
