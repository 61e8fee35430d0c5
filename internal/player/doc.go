// ABOUTME: Player package with media elements and the playback controller
// ABOUTME: Elements stream decoded audio; the controller drives effects and visuals
// Package player plays one track at a time.
//
// An Element decodes a file on its own goroutine and writes it to the
// shared audio output, emitting play, pause, ended and volumechange events
// to its listeners. Once an effects context captures the element, every
// block is rendered through the effects graph instead of being written
// directly.
//
// The Controller listens to the current element. On play it builds the
// effects chain (once per element), resumes the audio context and starts
// the visualizer loop; on pause or end it stops the loop and keeps the
// graph. Loading another element tears the previous chain down.
//
// Hooks passed to the Controller run on internal goroutines and must not
// call back into the Controller synchronously.
package player
