// ABOUTME: Spectrum and waveform renderer
// ABOUTME: Draws mirrored accent-coloured bars and an oscilloscope trace per tick
package visual

import (
	"image/color"
	"math"
	"sync"

	"github.com/Lyricium/lyricium-go/internal/palette"
)

// Renderer layout constants
const (
	BarWidthFactor = 2.5
	WaveformWidth  = 2.0
)

// Renderer draws frames in one accent colour
type Renderer struct {
	mu     sync.Mutex
	accent color.RGBA
	points []Point
}

// NewRenderer creates a renderer for a hex accent. Invalid hex falls back
// to palette.Default.
func NewRenderer(accentHex string) *Renderer {
	r := &Renderer{}
	r.SetAccent(accentHex)
	return r
}

// SetAccent changes the accent colour
func (r *Renderer) SetAccent(accentHex string) {
	c, err := palette.ParseHex(accentHex)
	if err != nil {
		c, _ = palette.ParseHex(palette.Default)
	}
	c.A = 0xff

	r.mu.Lock()
	r.accent = c
	r.mu.Unlock()
}

// Accent returns the accent colour
func (r *Renderer) Accent() color.RGBA {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.accent
}

// BarAlpha returns the fill alpha for a bar height
func BarAlpha(barHeight float64) float64 {
	return 0.5 + 0.5*(barHeight/128)
}

// BarColor returns accent with floor(alpha*255) as its (straight) alpha
func BarColor(accent color.RGBA, barHeight float64) color.NRGBA {
	a := math.Min(math.Max(BarAlpha(barHeight), 0), 1)
	return color.NRGBA{R: accent.R, G: accent.G, B: accent.B, A: uint8(math.Floor(a * 255))}
}

// BarX returns the left edge of bar i of n on a canvas of the given width.
// Bars below n/2 extend leftward from the centre, the rest rightward, so
// bars n/2-1 and n/2 touch at the centre.
func BarX(i, n int, width float64) float64 {
	barWidth := width / float64(n) * BarWidthFactor
	center := width / 2
	half := n / 2
	if i < half {
		k := half - 1 - i
		return center - float64(k+1)*barWidth
	}
	return center + float64(i-half)*barWidth
}

// WaveY maps a time-domain byte to a canvas y coordinate
func WaveY(v byte, height float64) float64 {
	return float64(v)/128*height/4 + height/2
}

// Render draws one frame. A nil canvas or an empty snapshot skips the
// frame; Render reports whether anything was drawn.
func (r *Renderer) Render(c Canvas, freq, timeData []byte) bool {
	if c == nil || len(freq) == 0 || len(timeData) == 0 {
		return false
	}
	w, h := c.Size()
	if w <= 0 || h <= 0 {
		return false
	}
	width, height := float64(w), float64(h)

	r.mu.Lock()
	defer r.mu.Unlock()

	c.Clear()

	n := len(freq)
	barWidth := width / float64(n) * BarWidthFactor
	for i, v := range freq {
		barHeight := float64(v) / 2
		c.FillRect(BarX(i, n, width), height-barHeight, barWidth, barHeight, BarColor(r.accent, barHeight))
	}

	if cap(r.points) < len(timeData) {
		r.points = make([]Point, len(timeData))
	}
	pts := r.points[:len(timeData)]
	slice := width / float64(len(timeData))
	for i, v := range timeData {
		pts[i] = Point{X: float64(i) * slice, Y: WaveY(v, height)}
	}
	c.StrokePolyline(pts, WaveformWidth, r.accent)
	return true
}
