// Package surface defines the external output-surface contract and
// provides an in-memory reference implementation used by tests, the CLI,
// and as the default preview source. The concrete output surface is an
// external collaborator owned by the host application — this package
// exists so the engine has something real to render into without a
// host UI.
package surface

import (
	"fmt"
	"image"
	"image/color"
	"sync"
)

// Surface is the external collaborator contract: a raster writable in
// RGBA8 at a given rectangle, row-major, one byte per channel, alpha=255
// for opaque pixels.
type Surface interface {
	Size() (width, height int)
	Blit(x, y, width, height int, rgba8 []byte) error
	Snapshot(x, y, width, height int) ([]byte, error)
}

// ImageSurface is a Surface backed by image.RGBA, safe for concurrent
// Blit calls from multiple tile completions.
type ImageSurface struct {
	mu sync.RWMutex
	img *image.RGBA
}

// NewImageSurface allocates a blank width×height surface.
func NewImageSurface(width, height int) *ImageSurface {
	return &ImageSurface{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

// Size implements Surface.
func (s *ImageSurface) Size() (int, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

// Blit implements Surface.
func (s *ImageSurface) Blit(x, y, width, height int, rgba8 []byte) error {
	if len(rgba8) != width*height*4 {
		return fmt.Errorf("surface: blit buffer length %d does not match %dx%d", len(rgba8), width, height)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	bounds := s.img.Bounds()
	for row := 0; row < height; row++ {
		dstY := y + row
		if dstY < bounds.Min.Y || dstY >= bounds.Max.Y {
			continue
		}
		srcOff := row * width * 4
		for col := 0; col < width; col++ {
			dstX := x + col
			if dstX < bounds.Min.X || dstX >= bounds.Max.X {
				continue
			}
			o := srcOff + col*4
			s.img.SetRGBA(dstX, dstY, color.RGBA{R: rgba8[o], G: rgba8[o+1], B: rgba8[o+2], A: rgba8[o+3]})
		}
	}
	return nil
}

// Snapshot implements Surface.
func (s *ImageSurface) Snapshot(x, y, width, height int) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	buf := make([]byte, width*height*4)
	bounds := s.img.Bounds()
	for row := 0; row < height; row++ {
		srcY := y + row
		for col := 0; col < width; col++ {
			srcX := x + col
			o := (row*width + col) * 4
			if srcX < bounds.Min.X || srcX >= bounds.Max.X || srcY < bounds.Min.Y || srcY >= bounds.Max.Y {
				buf[o+3] = 0
				continue
			}
			c := s.img.RGBAAt(srcX, srcY)
			buf[o], buf[o+1], buf[o+2], buf[o+3] = c.R, c.G, c.B, c.A
		}
	}
	return buf, nil
}

// Image returns the underlying image for callers (CLI PNG export) that
// need direct access; callers must not mutate it concurrently with Blit.
func (s *ImageSurface) Image() *image.RGBA {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.img
}

