// ABOUTME: Gain node
// ABOUTME: Multiplies its input by a live-settable gain value
package fx

import "github.com/Lyricium/lyricium-go/pkg/audio"

// Gain scales its input by a live gain value
type Gain struct {
	node
	gain float64
}

// NewGain creates a gain node with unity gain
func (c *Context) NewGain() *Gain {
	g := &Gain{gain: 1}
	g.node = newNode(c, "gain", g)
	return g
}

// Gain returns the current gain value
func (g *Gain) Gain() float64 {
	g.ctx.mu.Lock()
	defer g.ctx.mu.Unlock()
	return g.gain
}

// SetGain sets the gain value applied from the next quantum
func (g *Gain) SetGain(v float64) {
	g.ctx.locked(func() { g.gain = v })
}

func (g *Gain) process(in, out []audio.Frame) {
	for i := range in {
		out[i][0] = in[i][0] * g.gain
		out[i][1] = in[i][1] * g.gain
	}
}
