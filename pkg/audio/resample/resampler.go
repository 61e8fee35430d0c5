// ABOUTME: Simple linear resampler for converting audio sample rates
// ABOUTME: Used by the media element to match the output context rate
package resample

import (
	"math"

	"github.com/Lyricium/lyricium-go/pkg/audio"
)

// Resampler performs linear interpolation to convert between sample rates
type Resampler struct {
	inputRate  int
	outputRate int
	ratio      float64
	position   float64
	last       audio.Frame // final frame of the previous chunk
	primed     bool
}

// New creates a new resampler
func New(inputRate, outputRate int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		ratio:      float64(inputRate) / float64(outputRate),
	}
}

// Passthrough reports whether input and output rates match
func (r *Resampler) Passthrough() bool {
	return r.inputRate == r.outputRate
}

// Resample converts input frames to the output rate and returns the number
// of frames written. All input is consumed; output must hold at least
// OutputFramesNeeded(len(input)) frames.
func (r *Resampler) Resample(input []audio.Frame, output []audio.Frame) int {
	if r.Passthrough() {
		return copy(output, input)
	}
	if len(input) == 0 {
		return 0
	}

	offset := 0
	if r.primed {
		offset = 1
	}
	length := len(input) + offset

	at := func(i int) audio.Frame {
		if i < offset {
			return r.last
		}
		return input[i-offset]
	}

	outIdx := 0
	for outIdx < len(output) {
		inputIdx := int(r.position)

		// Need the following frame to interpolate
		if inputIdx+1 >= length {
			break
		}

		frac := r.position - float64(inputIdx)
		a, b := at(inputIdx), at(inputIdx+1)
		output[outIdx] = audio.Frame{
			a[0]*(1.0-frac) + b[0]*frac,
			a[1]*(1.0-frac) + b[1]*frac,
		}

		outIdx++
		r.position += r.ratio
	}

	// Re-anchor on the last frame, which leads the next chunk
	r.position -= float64(length - 1)
	if r.position < 0 {
		r.position = 0
	}
	r.last = input[len(input)-1]
	r.primed = true

	return outIdx
}

// Reset resets the resampler state
func (r *Resampler) Reset() {
	r.position = 0
	r.last = audio.Frame{}
	r.primed = false
}

// OutputFramesNeeded returns an upper bound of output frames for inputFrames
func (r *Resampler) OutputFramesNeeded(inputFrames int) int {
	if r.Passthrough() {
		return inputFrames
	}
	return int(math.Ceil(float64(inputFrames+1)/r.ratio)) + 1
}
