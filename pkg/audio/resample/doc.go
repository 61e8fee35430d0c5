// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts decoded media to the output context's sample rate
// Package resample provides audio sample rate conversion.
//
// Uses linear interpolation for converting between sample rates.
// Handles both upsampling and downsampling, and carries the last input
// frame across calls so chunked input resamples without seams.
//
// Example:
//
//	r := resample.New(44100, 48000)
//	out := make([]audio.Frame, r.OutputFramesNeeded(len(in)))
//	n := r.Resample(in, out)
package resample
