// ABOUTME: Media element source and destination nodes
// ABOUTME: Entry point for element audio and the sink of the graph
package fx

import (
	"fmt"

	"github.com/Lyricium/lyricium-go/pkg/audio"
)

// MediaElementSource feeds a media element's decoded audio into the graph.
// It has no inputs.
type MediaElementSource struct {
	node
	element     any
	pending     []audio.Frame
	fed         bool
	disconnects int
}

// NewMediaElementSource captures element. An element can be captured by at
// most one source until that source is released.
func (c *Context) NewMediaElementSource(element any) (*MediaElementSource, error) {
	if element == nil {
		return nil, fmt.Errorf("create media element source: nil element")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateClosed {
		return nil, ErrContextClosed
	}
	if _, ok := c.captured[element]; ok {
		return nil, ErrAlreadyCaptured
	}

	s := &MediaElementSource{
		element: element,
		pending: make([]audio.Frame, RenderQuantum),
	}
	s.node = newNode(c, "source", s)
	c.captured[element] = s
	return s, nil
}

// Element returns the captured element
func (s *MediaElementSource) Element() any {
	return s.element
}

// Process renders in through the context graph and writes what reaches the
// destination to out. out must be at least as long as in.
func (s *MediaElementSource) Process(in, out []audio.Frame) {
	s.ctx.render(s, in, out[:len(in)])
}

// Disconnect removes every outgoing connection
func (s *MediaElementSource) Disconnect() {
	s.ctx.locked(func() {
		s.disconnects++
		s.disconnectAll()
	})
}

// Release disconnects the source and frees its element. The source must not
// be reused afterwards.
func (s *MediaElementSource) Release() {
	s.ctx.locked(func() {
		s.disconnectAll()
		if s.ctx.captured[s.element] == s {
			delete(s.ctx.captured, s.element)
		}
	})
}

// DisconnectCount returns how many times Disconnect was called
func (s *MediaElementSource) DisconnectCount() int {
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()
	return s.disconnects
}

func (s *MediaElementSource) process(_, out []audio.Frame) {
	if !s.fed {
		audio.Silence(out)
		return
	}
	copy(out, s.pending)
}

// Destination is the final node; its output is what the element plays
type Destination struct {
	node
}

func newDestination(c *Context) *Destination {
	d := &Destination{}
	d.node = newNode(c, "destination", d)
	return d
}

func (d *Destination) process(in, out []audio.Frame) {
	copy(out, in)
}
