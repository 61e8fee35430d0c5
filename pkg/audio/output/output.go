// ABOUTME: Audio output interface definition
// ABOUTME: Common interface for audio playback backends
package output

import "github.com/Lyricium/lyricium-go/pkg/audio"

// Output represents an audio output device
type Output interface {
	// Open initializes the output device
	Open(sampleRate, channels int) error

	// Write outputs stereo frames (blocks until accepted by the device)
	Write(frames []audio.Frame) error

	// Suspend pauses the device clock
	Suspend() error

	// Resume restarts a suspended device
	Resume() error

	// Close releases output resources
	Close() error
}
