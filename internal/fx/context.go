// ABOUTME: Audio context owning the node graph and its render clock
// ABOUTME: Tracks running/suspended/closed state and renders blocks in quanta
package fx

import (
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"sync"

	"github.com/Lyricium/lyricium-go/pkg/audio"
)

// RenderQuantum is the number of frames rendered per graph pull
const RenderQuantum = 128

// Supported context sample rates
const (
	MinSampleRate = 3000
	MaxSampleRate = 768000
)

var (
	// ErrUnsupportedContext is returned when a context cannot be created
	ErrUnsupportedContext = errors.New("audio context unsupported")
	// ErrContextClosed is returned for operations on a closed context
	ErrContextClosed = errors.New("audio context closed")
	// ErrAlreadyCaptured is returned when an element already has a source node
	ErrAlreadyCaptured = errors.New("media element already connected to a source node")
	// ErrForeignNode is returned when connecting nodes of different contexts
	ErrForeignNode = errors.New("node belongs to a different context")
	// ErrCycle is returned when a connection would create a cycle
	ErrCycle = errors.New("connection would create a cycle")
)

// State is the context lifecycle state
type State int

const (
	StateSuspended State = iota
	StateRunning
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateSuspended:
		return "suspended"
	case StateRunning:
		return "running"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Context owns a node graph and renders it
type Context struct {
	mu         sync.Mutex
	sampleRate float64
	state      State
	quantum    int64
	dest       *Destination
	captured   map[any]*MediaElementSource
	random     func() float64
}

// NewContext creates a suspended context at the given sample rate
func NewContext(sampleRate int) (*Context, error) {
	if sampleRate < MinSampleRate || sampleRate > MaxSampleRate {
		return nil, fmt.Errorf("%w: sample rate %d outside [%d, %d]",
			ErrUnsupportedContext, sampleRate, MinSampleRate, MaxSampleRate)
	}

	c := &Context{
		sampleRate: float64(sampleRate),
		state:      StateSuspended,
		captured:   make(map[any]*MediaElementSource),
		random:     rand.Float64,
	}
	c.dest = newDestination(c)

	log.Printf("Audio context created: %dHz", sampleRate)
	return c, nil
}

// SampleRate returns the context sample rate in Hz
func (c *Context) SampleRate() float64 {
	return c.sampleRate
}

// State returns the current lifecycle state
func (c *Context) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CurrentTime returns the seconds of audio rendered so far
func (c *Context) CurrentTime() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return float64(c.quantum*RenderQuantum) / c.sampleRate
}

// Destination returns the final node of the graph
func (c *Context) Destination() *Destination {
	return c.dest
}

// SetRandom replaces the random source used for impulse generation.
// The function must return values in [0, 1).
func (c *Context) SetRandom(fn func() float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if fn == nil {
		fn = rand.Float64
	}
	c.random = fn
}

// Resume starts rendering
func (c *Context) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateClosed:
		return ErrContextClosed
	case StateRunning:
		return nil
	}
	c.state = StateRunning
	log.Printf("Audio context resumed")
	return nil
}

// Suspend stops rendering; captured elements output silence until resumed
func (c *Context) Suspend() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateClosed:
		return ErrContextClosed
	case StateSuspended:
		return nil
	}
	c.state = StateSuspended
	log.Printf("Audio context suspended")
	return nil
}

// Close releases the context; it cannot be resumed afterwards
func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return nil
	}
	c.state = StateClosed
	clear(c.captured)
	log.Printf("Audio context closed")
	return nil
}

// Captured reports whether element has a live source in this context
func (c *Context) Captured(element any) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.captured[element]
	return ok
}

// render pushes in through src and writes the destination output to out.
// Both slices must have the same length.
func (c *Context) render(src *MediaElementSource, in, out []audio.Frame) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateRunning {
		audio.Silence(out)
		return
	}

	for off := 0; off < len(in); off += RenderQuantum {
		n := min(RenderQuantum, len(in)-off)
		copy(src.pending, in[off:off+n])
		audio.Silence(src.pending[n:])
		src.fed = true

		c.quantum++
		block := c.dest.pull(c.quantum)
		copy(out[off:off+n], block[:n])
		src.fed = false
	}
}

// locked runs fn while holding the context lock
func (c *Context) locked(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn()
}
