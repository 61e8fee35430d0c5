// ABOUTME: Analyser node exposing frequency and time-domain snapshots
// ABOUTME: Blackman-windowed FFT with exponential smoothing and dB byte scaling
package fx

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/Lyricium/lyricium-go/pkg/audio"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// Analyser defaults
const (
	DefaultFFTSize         = 2048
	MinFFTSize             = 32
	MaxFFTSize             = 32768
	DefaultMinDecibels     = -100.0
	DefaultMaxDecibels     = -30.0
	DefaultSmoothingFactor = 0.8
)

// Analyser passes audio through unchanged and keeps the most recent fftSize
// mono samples for inspection.
type Analyser struct {
	node
	fftSize   int
	minDB     float64
	maxDB     float64
	smoothing float64

	ring  []float64
	pos   int
	fresh bool

	fft    *fourier.FFT
	window []float64
	frame  []float64
	coeffs []complex128
	mag    []float64
}

// NewAnalyser creates an analyser with the default FFT size
func (c *Context) NewAnalyser() *Analyser {
	a := &Analyser{
		minDB:     DefaultMinDecibels,
		maxDB:     DefaultMaxDecibels,
		smoothing: DefaultSmoothingFactor,
	}
	a.node = newNode(c, "analyser", a)
	a.resize(DefaultFFTSize)
	return a
}

// SetFFTSize sets the FFT length; it must be a power of two in
// [MinFFTSize, MaxFFTSize]. History and smoothing state are reset.
func (a *Analyser) SetFFTSize(n int) error {
	if n < MinFFTSize || n > MaxFFTSize || n&(n-1) != 0 {
		return fmt.Errorf("fft size %d must be a power of two in [%d, %d]", n, MinFFTSize, MaxFFTSize)
	}
	a.ctx.locked(func() { a.resize(n) })
	return nil
}

func (a *Analyser) resize(n int) {
	a.fftSize = n
	a.ring = make([]float64, n)
	a.pos = 0
	a.fresh = false
	a.fft = fourier.NewFFT(n)
	a.frame = make([]float64, n)
	a.coeffs = make([]complex128, n/2+1)
	a.mag = make([]float64, n/2)

	// Periodic Blackman: the symmetric window of n+1 points without its last point
	w := make([]float64, n+1)
	for i := range w {
		w[i] = 1
	}
	a.window = window.Blackman(w)[:n]
}

// FFTSize returns the FFT length
func (a *Analyser) FFTSize() int {
	a.ctx.mu.Lock()
	defer a.ctx.mu.Unlock()
	return a.fftSize
}

// FrequencyBinCount returns half the FFT size
func (a *Analyser) FrequencyBinCount() int {
	return a.FFTSize() / 2
}

// SetDecibelRange sets the range mapped onto byte frequency data
func (a *Analyser) SetDecibelRange(minDB, maxDB float64) error {
	if minDB >= maxDB {
		return fmt.Errorf("min decibels %.1f must be below max decibels %.1f", minDB, maxDB)
	}
	a.ctx.locked(func() { a.minDB, a.maxDB = minDB, maxDB })
	return nil
}

// SetSmoothingTimeConstant sets the averaging constant in [0, 1]
func (a *Analyser) SetSmoothingTimeConstant(v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("smoothing time constant %.2f outside [0, 1]", v)
	}
	a.ctx.locked(func() { a.smoothing = v })
	return nil
}

// GetFloatFrequencyData writes smoothed magnitudes in dB into dst
func (a *Analyser) GetFloatFrequencyData(dst []float64) {
	a.ctx.locked(func() {
		a.analyse()
		n := min(len(dst), len(a.mag))
		for k := range n {
			dst[k] = toDecibels(a.mag[k])
		}
	})
}

// GetByteFrequencyData writes smoothed magnitudes scaled from the decibel
// range onto 0..255 into dst
func (a *Analyser) GetByteFrequencyData(dst []byte) {
	a.ctx.locked(func() {
		a.analyse()
		span := a.maxDB - a.minDB
		n := min(len(dst), len(a.mag))
		for k := range n {
			scaled := 255 / span * (toDecibels(a.mag[k]) - a.minDB)
			dst[k] = clampByte(scaled)
		}
	})
}

// GetByteTimeDomainData writes the most recent samples as 128*(1+x),
// oldest first
func (a *Analyser) GetByteTimeDomainData(dst []byte) {
	a.ctx.locked(func() {
		n := min(len(dst), a.fftSize)
		for i := range n {
			dst[i] = clampByte(128 * (1 + a.ring[(a.pos+i)%a.fftSize]))
		}
	})
}

func (a *Analyser) process(in, out []audio.Frame) {
	copy(out, in)
	for _, f := range in {
		a.ring[a.pos] = 0.5 * (f[0] + f[1])
		a.pos = (a.pos + 1) % a.fftSize
	}
	a.fresh = true
}

// analyse refreshes the smoothed spectrum when new audio has arrived
func (a *Analyser) analyse() {
	if !a.fresh {
		return
	}
	a.fresh = false

	for i := range a.frame {
		a.frame[i] = a.ring[(a.pos+i)%a.fftSize] * a.window[i]
	}
	a.coeffs = a.fft.Coefficients(a.coeffs, a.frame)

	scale := 1 / float64(a.fftSize)
	for k := range a.mag {
		m := a.smoothing*a.mag[k] + (1-a.smoothing)*cmplx.Abs(a.coeffs[k])*scale
		if math.IsNaN(m) || math.IsInf(m, 0) {
			m = 0
		}
		a.mag[k] = m
	}
}

func toDecibels(linear float64) float64 {
	if linear <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(linear)
}

func clampByte(v float64) byte {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return byte(v)
	}
}
