// ABOUTME: 2D drawing surface abstraction and a raster implementation
// ABOUTME: ImageCanvas fills rects and strokes anti-aliased polylines into an RGBA image
package visual

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"sync"

	"golang.org/x/image/vector"
)

// Point is a canvas coordinate in pixels
type Point struct {
	X, Y float64
}

// Canvas is a 2D drawing surface
type Canvas interface {
	Size() (width, height int)
	Clear()
	FillRect(x, y, w, h float64, c color.Color)
	StrokePolyline(pts []Point, width float64, c color.Color)
}

// ImageCanvas draws into an in-memory RGBA image. It is safe to snapshot
// from another goroutine while drawing.
type ImageCanvas struct {
	mu         sync.Mutex
	img        *image.RGBA
	background color.Color
	raster     *vector.Rasterizer
}

// NewImageCanvas creates a canvas cleared to background
func NewImageCanvas(width, height int, background color.Color) *ImageCanvas {
	if background == nil {
		background = color.Transparent
	}
	c := &ImageCanvas{
		img:        image.NewRGBA(image.Rect(0, 0, width, height)),
		background: background,
		raster:     vector.NewRasterizer(width, height),
	}
	c.raster.DrawOp = draw.Over
	c.Clear()
	return c
}

// Size returns the canvas dimensions
func (c *ImageCanvas) Size() (int, int) {
	b := c.img.Bounds()
	return b.Dx(), b.Dy()
}

// Clear fills the canvas with the background colour
func (c *ImageCanvas) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(c.background), image.Point{}, draw.Src)
}

// FillRect composites a solid rectangle over the canvas
func (c *ImageCanvas) FillRect(x, y, w, h float64, col color.Color) {
	if w <= 0 || h <= 0 {
		return
	}
	r := image.Rect(
		int(math.Round(x)), int(math.Round(y)),
		int(math.Round(x+w)), int(math.Round(y+h)),
	).Intersect(c.img.Bounds())
	if r.Empty() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	draw.Draw(c.img, r, image.NewUniform(col), image.Point{}, draw.Over)
}

// StrokePolyline draws connected segments of the given width
func (c *ImageCanvas) StrokePolyline(pts []Point, width float64, col color.Color) {
	if len(pts) < 2 || width <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	w, h := c.Size()
	c.raster.Reset(w, h)
	c.raster.DrawOp = draw.Over

	half := width / 2
	for i := 1; i < len(pts); i++ {
		p0, p1 := pts[i-1], pts[i]
		dx, dy := p1.X-p0.X, p1.Y-p0.Y
		length := math.Hypot(dx, dy)
		if length == 0 {
			continue
		}
		// Unit normal scaled to half the stroke width
		nx, ny := -dy/length*half, dx/length*half

		c.raster.MoveTo(float32(p0.X+nx), float32(p0.Y+ny))
		c.raster.LineTo(float32(p1.X+nx), float32(p1.Y+ny))
		c.raster.LineTo(float32(p1.X-nx), float32(p1.Y-ny))
		c.raster.LineTo(float32(p0.X-nx), float32(p0.Y-ny))
		c.raster.ClosePath()
	}
	c.raster.Draw(c.img, c.img.Bounds(), image.NewUniform(col), image.Point{})
}

// At returns the colour of one pixel
func (c *ImageCanvas) At(x, y int) color.Color {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.img.At(x, y)
}

// Snapshot returns a copy of the current image
func (c *ImageCanvas) Snapshot() *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	dup := image.NewRGBA(c.img.Bounds())
	copy(dup.Pix, c.img.Pix)
	return dup
}

// PNG encodes the current image
func (c *ImageCanvas) PNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, c.Snapshot()); err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	return buf.Bytes(), nil
}
