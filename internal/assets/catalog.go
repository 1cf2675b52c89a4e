package assets

import (
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"github.com/sudhir-bahadure/tube-automa-sub000/internal/scene"
	"github.com/sudhir-bahadure/tube-automa-sub000/internal/system"
)

// Catalog is the set of substitute assets available to one render. It is
// built once, before any scene is resolved, and only read afterwards.
//
// Fallback directory layout:
//
//	<dir>/noir.png, <dir>/stickman_2.jpg   style-specific (name or name_ prefix)
//	<dir>/noir/*.png                       style-specific (sub-directory)
//	<dir>/generic.png, <dir>/default_1.jpg generic
//	anything else                          only used by the random tier
type Catalog struct {
	byStyle map[scene.Style][]string
	generic []string
	all     []string
	sfx     []string
}

var genericNames = []string{"generic", "default", "fallback"}

// NewCatalog scans the fallback and sound-effect directories. Either may be
// empty or missing, which yields an empty tier.
func NewCatalog(fallbackDir, sfxDir string) (*Catalog, error) {
	c := &Catalog{byStyle: make(map[scene.Style][]string)}

	images, err := system.ListFiles(fallbackDir, rasterExtensions)
	if err != nil {
		return nil, err
	}
	for _, p := range images {
		c.add(p, nameStem(p))
	}

	if fallbackDir != "" {
		for _, style := range scene.Styles {
			sub := filepath.Join(fallbackDir, string(style))
			if fi, err := os.Stat(sub); err != nil || !fi.IsDir() {
				continue
			}
			files, err := system.ListFiles(sub, rasterExtensions)
			if err != nil {
				return nil, err
			}
			c.byStyle[style] = append(c.byStyle[style], files...)
			c.all = append(c.all, files...)
		}
	}

	c.sfx, err = system.ListFiles(sfxDir, system.AudioExtensions)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) add(path, stem string) {
	c.all = append(c.all, path)
	for _, style := range scene.Styles {
		if matchesName(stem, string(style)) {
			c.byStyle[style] = append(c.byStyle[style], path)
			return
		}
	}
	for _, name := range genericNames {
		if matchesName(stem, name) {
			c.generic = append(c.generic, path)
			return
		}
	}
}

// StyleImages returns the style-specific fallbacks in name order.
func (c *Catalog) StyleImages(style scene.Style) []string {
	return c.byStyle[style]
}

// GenericImages returns the generic fallbacks in name order.
func (c *Catalog) GenericImages() []string {
	return c.generic
}

// RandomImage picks any catalog image.
func (c *Catalog) RandomImage(rng *rand.Rand) (string, bool) {
	if len(c.all) == 0 {
		return "", false
	}
	return c.all[rng.Intn(len(c.all))], true
}

// SoundEffect picks one effect from the pool.
func (c *Catalog) SoundEffect(rng *rand.Rand) (string, bool) {
	if len(c.sfx) == 0 {
		return "", false
	}
	return c.sfx[rng.Intn(len(c.sfx))], true
}

// SoundEffects returns the effect pool in name order.
func (c *Catalog) SoundEffects() []string {
	return c.sfx
}

// Empty reports whether no fallback image exists at all.
func (c *Catalog) Empty() bool {
	return len(c.all) == 0
}

func nameStem(path string) string {
	base := filepath.Base(path)
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}

// matchesName accepts "noir", "noir_2", "noir-dark" but not "noirish".
func matchesName(stem, name string) bool {
	if stem == name {
		return true
	}
	return strings.HasPrefix(stem, name+"_") || strings.HasPrefix(stem, name+"-")
}
