// ABOUTME: Synthetic reverb impulse response generator
// ABOUTME: Builds multi-channel noise buffers under a power-law decay envelope
package fx

import (
	"math"
	"math/rand/v2"
)

// Impulse defaults used by the effects chain
const (
	ImpulseSeconds  = 2.0
	ImpulseChannels = 2
	ImpulseDecayExp = 1.5
)

// ImpulseBuffer is an immutable multi-channel sample buffer used as a
// convolution kernel
type ImpulseBuffer struct {
	sampleRate float64
	channels   [][]float64
}

// GenerateImpulse returns a buffer of seconds*sampleRate frames where every
// sample is uniform noise in [-1, 1] scaled by DecayEnvelope. Each channel
// draws its own noise. random must return values in [0, 1); nil uses
// math/rand.
func GenerateImpulse(sampleRate, seconds float64, channels int, random func() float64) *ImpulseBuffer {
	if random == nil {
		random = rand.Float64
	}
	length := int(sampleRate * seconds)
	if length < 0 {
		length = 0
	}

	b := &ImpulseBuffer{
		sampleRate: sampleRate,
		channels:   make([][]float64, channels),
	}
	for ch := range b.channels {
		data := make([]float64, length)
		for i := range data {
			data[i] = (random()*2 - 1) * DecayEnvelope(i, length)
		}
		b.channels[ch] = data
	}
	return b
}

// DecayEnvelope returns (1 - i/length)^1.5
func DecayEnvelope(i, length int) float64 {
	if length <= 0 {
		return 0
	}
	return math.Pow(1-float64(i)/float64(length), ImpulseDecayExp)
}

// CreateImpulse generates the chain's reverb impulse at the context rate
// using the context's random source
func (c *Context) CreateImpulse() *ImpulseBuffer {
	c.mu.Lock()
	random := c.random
	c.mu.Unlock()
	return GenerateImpulse(c.sampleRate, ImpulseSeconds, ImpulseChannels, random)
}

// SampleRate returns the buffer sample rate in Hz
func (b *ImpulseBuffer) SampleRate() float64 { return b.sampleRate }

// Len returns the number of frames per channel
func (b *ImpulseBuffer) Len() int {
	if len(b.channels) == 0 {
		return 0
	}
	return len(b.channels[0])
}

// NumberOfChannels returns the channel count
func (b *ImpulseBuffer) NumberOfChannels() int { return len(b.channels) }

// Duration returns the buffer length in seconds
func (b *ImpulseBuffer) Duration() float64 {
	if b.sampleRate == 0 {
		return 0
	}
	return float64(b.Len()) / b.sampleRate
}

// Channel returns a copy of channel ch
func (b *ImpulseBuffer) Channel(ch int) []float64 {
	return append([]float64(nil), b.channels[ch]...)
}
