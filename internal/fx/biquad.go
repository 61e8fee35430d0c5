// ABOUTME: Biquad filter node
// ABOUTME: Low-shelf sections with live parameter updates
package fx

import (
	"math"

	"github.com/Lyricium/lyricium-go/pkg/audio"
	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"
)

// Shelf filters use a fixed slope of 1
var shelfQ = 1 / math.Sqrt2

// BiquadFilter is a stereo second-order low-shelf filter. Changing a
// parameter redesigns the coefficients while keeping the filter state.
type BiquadFilter struct {
	node
	frequency float64
	gainDB    float64
	sections  [2]*biquad.Section
}

// NewBiquadFilter creates a flat 350 Hz low shelf
func (c *Context) NewBiquadFilter() *BiquadFilter {
	f := &BiquadFilter{frequency: 350}
	f.node = newNode(c, "biquad", f)
	coeffs := f.design()
	f.sections[0] = biquad.NewSection(coeffs)
	f.sections[1] = biquad.NewSection(coeffs)
	return f
}

// Frequency returns the corner frequency in Hz
func (f *BiquadFilter) Frequency() float64 {
	f.ctx.mu.Lock()
	defer f.ctx.mu.Unlock()
	return f.frequency
}

// Gain returns the shelf gain in dB
func (f *BiquadFilter) Gain() float64 {
	f.ctx.mu.Lock()
	defer f.ctx.mu.Unlock()
	return f.gainDB
}

// SetFrequency sets the corner frequency in Hz
func (f *BiquadFilter) SetFrequency(hz float64) {
	f.update(func() { f.frequency = hz })
}

// SetGain sets the shelf gain in dB
func (f *BiquadFilter) SetGain(db float64) {
	f.update(func() { f.gainDB = db })
}

func (f *BiquadFilter) update(set func()) {
	f.ctx.locked(func() {
		set()
		coeffs := f.design()
		f.sections[0].Coefficients = coeffs
		f.sections[1].Coefficients = coeffs
	})
}

func (f *BiquadFilter) design() biquad.Coefficients {
	sr := f.ctx.sampleRate
	// Clamp to just below Nyquist so a high corner stays valid at low rates
	hz := math.Min(f.frequency, sr/2*0.999)
	return design.LowShelf(hz, f.gainDB, shelfQ, sr)
}

func (f *BiquadFilter) process(in, out []audio.Frame) {
	l, r := f.sections[0], f.sections[1]
	for i, s := range in {
		out[i] = audio.Frame{l.ProcessSample(s[0]), r.ProcessSample(s[1])}
	}
}
