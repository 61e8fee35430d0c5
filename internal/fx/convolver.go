// ABOUTME: Convolution reverb node
// ABOUTME: Partitioned convolution per channel with power-based kernel normalization
package fx

import (
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/Lyricium/lyricium-go/pkg/audio"
	"github.com/cwbudde/algo-dsp/dsp/effects/reverb"
)

// Kernel normalization calibration
const (
	convolverCalibrationDB   = -58
	convolverCalibrationRate = 44100
	convolverMinPower        = 0.000125
	// 2^7 = 128 frames, one render quantum
	convolverMinBlockOrder = 7
)

// Convolver convolves its input with an impulse buffer. Without a buffer it
// outputs silence.
type Convolver struct {
	node
	normalize bool
	buffer    *ImpulseBuffer
	engines   []*reverb.ConvolutionReverb
	scratch   [2][]float64
	failed    bool
}

// NewConvolver creates a convolver with normalization enabled
func (c *Context) NewConvolver() *Convolver {
	cv := &Convolver{normalize: true}
	cv.scratch[0] = make([]float64, RenderQuantum)
	cv.scratch[1] = make([]float64, RenderQuantum)
	cv.node = newNode(c, "convolver", cv)
	return cv
}

// SetNormalize controls kernel normalization for the next SetBuffer
func (cv *Convolver) SetNormalize(on bool) {
	cv.ctx.locked(func() { cv.normalize = on })
}

// Normalize reports whether kernels are normalized
func (cv *Convolver) Normalize() bool {
	cv.ctx.mu.Lock()
	defer cv.ctx.mu.Unlock()
	return cv.normalize
}

// Buffer returns the current impulse buffer, or nil
func (cv *Convolver) Buffer() *ImpulseBuffer {
	cv.ctx.mu.Lock()
	defer cv.ctx.mu.Unlock()
	return cv.buffer
}

// SetBuffer installs b as the convolution kernel. A nil buffer clears it.
// The buffer must match the context sample rate and have one or two
// channels.
func (cv *Convolver) SetBuffer(b *ImpulseBuffer) error {
	if b == nil {
		cv.ctx.locked(func() {
			cv.buffer = nil
			cv.engines = nil
		})
		return nil
	}
	if b.SampleRate() != cv.ctx.sampleRate {
		return fmt.Errorf("convolver buffer rate %.0fHz does not match context rate %.0fHz",
			b.SampleRate(), cv.ctx.sampleRate)
	}
	if n := b.NumberOfChannels(); n < 1 || n > 2 {
		return fmt.Errorf("convolver buffer has %d channels, want 1 or 2", n)
	}
	if b.Len() == 0 {
		return errors.New("convolver buffer is empty")
	}

	scale := 1.0
	if cv.Normalize() {
		scale = normalizationScale(b)
	}

	// A mono kernel feeds both output channels through separate engines
	engines := make([]*reverb.ConvolutionReverb, 2)
	for ch := range engines {
		kernel := b.Channel(min(ch, b.NumberOfChannels()-1))
		for i := range kernel {
			kernel[i] *= scale
		}
		engine, err := reverb.NewConvolutionReverb(kernel, convolverMinBlockOrder)
		if err != nil {
			return fmt.Errorf("convolver channel %d: %w", ch, err)
		}
		engine.SetWetDry(1, 0)
		engines[ch] = engine
	}

	cv.ctx.locked(func() {
		cv.buffer = b
		cv.engines = engines
		cv.failed = false
	})
	return nil
}

// normalizationScale returns the gain that brings b's RMS power to the
// calibrated reference level
func normalizationScale(b *ImpulseBuffer) float64 {
	var power float64
	for _, data := range b.channels {
		for _, s := range data {
			power += s * s
		}
	}
	power = math.Sqrt(power / float64(b.NumberOfChannels()*b.Len()))
	if math.IsNaN(power) || math.IsInf(power, 0) || power < convolverMinPower {
		power = convolverMinPower
	}

	scale := 1 / power
	scale *= math.Pow(10, convolverCalibrationDB*0.05)
	scale *= convolverCalibrationRate / b.SampleRate()
	return scale
}

func (cv *Convolver) process(in, out []audio.Frame) {
	if len(cv.engines) == 0 || cv.failed {
		audio.Silence(out)
		return
	}

	left, right := cv.scratch[0][:len(in)], cv.scratch[1][:len(in)]
	for i, f := range in {
		left[i], right[i] = f[0], f[1]
	}

	if err := cv.engines[0].ProcessInPlace(left); err != nil {
		cv.fail(err)
		audio.Silence(out)
		return
	}
	if err := cv.engines[1].ProcessInPlace(right); err != nil {
		cv.fail(err)
		audio.Silence(out)
		return
	}

	for i := range out {
		out[i] = audio.Frame{left[i], right[i]}
	}
}

func (cv *Convolver) fail(err error) {
	cv.failed = true
	log.Printf("Convolver disabled: %v", err)
}
