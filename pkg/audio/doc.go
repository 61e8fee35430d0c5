// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, Frame and sample conversion functions
// Package audio provides fundamental audio types shared by the decoders,
// the resampler, the output backends and the effects graph.
//
// Decoded audio travels as stereo Frame slices with samples in [-1, 1].
// Mono sources are duplicated to both channels at decode time.
//
// Example:
//
//	s := audio.FloatToInt16(frames[i][0])
//	f := audio.IntToFloat(flacSample, 24)
package audio
