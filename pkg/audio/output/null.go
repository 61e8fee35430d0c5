// ABOUTME: Null audio output for headless playback
// ABOUTME: Discards frames, optionally sleeping to keep real-time pacing
package output

import (
	"fmt"
	"sync"
	"time"

	"github.com/Lyricium/lyricium-go/pkg/audio"
)

// Null discards audio
type Null struct {
	mu         sync.Mutex
	paced      bool
	sampleRate int
	open       bool
	suspended  bool
	frames     int64
	peak       float64
}

// NewNull creates a null output. When paced, Write sleeps for the
// duration of the frames written so playback advances in real time.
func NewNull(paced bool) *Null {
	return &Null{paced: paced}
}

// Open marks the output ready
func (n *Null) Open(sampleRate, channels int) error {
	if sampleRate <= 0 || channels <= 0 {
		return fmt.Errorf("invalid output format: %dHz %dch", sampleRate, channels)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sampleRate = sampleRate
	n.open = true
	return nil
}

// Write counts and discards frames
func (n *Null) Write(frames []audio.Frame) error {
	n.mu.Lock()
	if !n.open {
		n.mu.Unlock()
		return fmt.Errorf("output not initialized")
	}
	n.frames += int64(len(frames))
	for _, f := range frames {
		n.peak = max(n.peak, abs(f[0]), abs(f[1]))
	}
	paced, rate := n.paced, n.sampleRate
	n.mu.Unlock()

	if paced {
		time.Sleep(time.Duration(len(frames)) * time.Second / time.Duration(rate))
	}
	return nil
}

// Suspend marks the output suspended
func (n *Null) Suspend() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.suspended = true
	return nil
}

// Resume clears the suspended mark
func (n *Null) Resume() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.suspended = false
	return nil
}

// Close marks the output closed
func (n *Null) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.open = false
	return nil
}

// Frames returns the number of frames written so far
func (n *Null) Frames() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.frames
}

// Peak returns the largest absolute sample written so far
func (n *Null) Peak() float64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.peak
}

// Suspended reports whether Suspend was called last
func (n *Null) Suspended() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.suspended
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
