// ABOUTME: Visualizer package for analysis snapshots and drawing
// ABOUTME: Sampler, beat detector, renderer, canvases and the cancellable frame loop
// Package visual turns analyser snapshots into pictures.
//
// On every animation tick a Sampler copies the analyser's frequency and
// time-domain bytes into fixed buffers, a BeatDetector watches the bass
// bins, and a Renderer draws a mirrored bar spectrum with a waveform trace
// onto a Canvas. Loop drives the ticks and can be stopped from any
// goroutine.
package visual
