// ABOUTME: Audio type definitions
// ABOUTME: Defines audio formats, stereo frames and sample conversions
package audio

// Format describes a decoded audio stream
type Format struct {
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
}

// Frame is one stereo sample pair in [-1, 1]
type Frame = [2]float64

// FloatToInt16 converts a float sample to int16 with clipping
func FloatToInt16(sample float64) int16 {
	if sample > 1 {
		sample = 1
	} else if sample < -1 {
		sample = -1
	}
	return int16(sample * 32767)
}

// Int16ToFloat converts an int16 sample to float in [-1, 1)
func Int16ToFloat(sample int16) float64 {
	return float64(sample) / 32768
}

// IntToFloat converts a signed integer sample of the given bit depth to float
func IntToFloat(sample int32, bitDepth int) float64 {
	if bitDepth <= 0 || bitDepth > 32 {
		return 0
	}
	return float64(sample) / float64(int64(1)<<(bitDepth-1))
}

// Silence zeroes a frame slice in place
func Silence(frames []Frame) {
	for i := range frames {
		frames[i] = Frame{}
	}
}

// Scale multiplies every sample by gain in place
func Scale(frames []Frame, gain float64) {
	if gain == 1 {
		return
	}
	for i := range frames {
		frames[i][0] *= gain
		frames[i][1] *= gain
	}
}
