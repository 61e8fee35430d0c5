// ABOUTME: Audio output package for playing audio
// ABOUTME: Provides Output interface with oto and null implementations
// Package output provides audio playback sinks.
//
// Oto drives the system audio device; Null discards audio (optionally
// paced in real time) for headless runs and tests. Only one oto context
// may exist per process, so a single Oto output is shared by every
// media element the player creates.
//
// Example:
//
//	out := output.NewOto()
//	err := out.Open(48000, 2)
//	err = out.Write(frames)
package output
