package flappy

import (
	"fmt"
	"image"
	_ "image/png"
	"os"
	"path/filepath"
)

// Sprite file names looked up by LoadMasks.
const (
	BirdSprite = "bird.png"
	PipeSprite = "pipe.png"
)

// MaskThreshold is the alpha above which a sprite pixel is solid.
const MaskThreshold = 127

// LoadMasks builds collision masks from the sprites in dir. The pipe sprite is
// the bottom barrier; the top barrier is the same sprite flipped. Sprites must
// match the sizes in cfg.
func LoadMasks(dir string, cfg *Config) (Masks, error) {
	bird, err := loadMask(filepath.Join(dir, BirdSprite), cfg.Bird.Width, cfg.Bird.Height)
	if err != nil {
		return Masks{}, err
	}
	pipe, err := loadMask(filepath.Join(dir, PipeSprite), cfg.Pipe.Width, cfg.Pipe.Height)
	if err != nil {
		return Masks{}, err
	}
	return Masks{Bird: bird, PipeTop: pipe.FlipV(), PipeBottom: pipe}, nil
}

func loadMask(path string, w, h int) (*Mask, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening sprite: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding sprite %s: %w", path, err)
	}
	m := MaskFromImage(img, MaskThreshold)
	if mw, mh := m.Size(); mw != w || mh != h {
		return nil, fmt.Errorf("%w: sprite %s is %dx%d, want %dx%d", ErrInvalidConfig, path, mw, mh, w, h)
	}
	return m, nil
}
