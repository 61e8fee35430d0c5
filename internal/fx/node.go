// ABOUTME: Node graph plumbing shared by every node type
// ABOUTME: Connection bookkeeping, pull rendering with per-quantum caching, path counting
package fx

import (
	"fmt"
	"slices"

	"github.com/Lyricium/lyricium-go/pkg/audio"
)

// Node is an element of the processing graph
type Node interface {
	// Connect routes this node's output into dst
	Connect(dst Node) error
	// Disconnect removes every outgoing connection
	Disconnect()
	// DisconnectFrom removes the connection to dst, if any
	DisconnectFrom(dst Node)
	// Context returns the owning context
	Context() *Context

	base() *node
}

// kernel processes one summed input block into an output block
type kernel interface {
	process(in, out []audio.Frame)
}

type node struct {
	ctx     *Context
	name    string
	kernel  kernel
	inputs  []*node
	outputs []*node

	in       []audio.Frame
	out      []audio.Frame
	rendered int64
}

func newNode(ctx *Context, name string, k kernel) node {
	return node{
		ctx:    ctx,
		name:   name,
		kernel: k,
		in:     make([]audio.Frame, RenderQuantum),
		out:    make([]audio.Frame, RenderQuantum),
	}
}

func (n *node) base() *node { return n }

// Context returns the owning context
func (n *node) Context() *Context { return n.ctx }

func (n *node) String() string { return n.name }

// Connect routes this node's output into dst. Connecting the same pair
// twice is a no-op.
func (n *node) Connect(dst Node) error {
	var err error
	n.ctx.locked(func() { err = n.connect(dst.base()) })
	return err
}

// Disconnect removes every outgoing connection
func (n *node) Disconnect() {
	n.ctx.locked(n.disconnectAll)
}

// DisconnectFrom removes the connection to dst, if any
func (n *node) DisconnectFrom(dst Node) {
	n.ctx.locked(func() { n.disconnect(dst.base()) })
}

func (n *node) connect(dst *node) error {
	if dst.ctx != n.ctx {
		return fmt.Errorf("connect %s -> %s: %w", n.name, dst.name, ErrForeignNode)
	}
	if slices.Contains(n.outputs, dst) {
		return nil
	}
	if dst == n || countPaths(dst, n) > 0 {
		return fmt.Errorf("connect %s -> %s: %w", n.name, dst.name, ErrCycle)
	}
	n.outputs = append(n.outputs, dst)
	dst.inputs = append(dst.inputs, n)
	return nil
}

func (n *node) disconnect(dst *node) {
	i := slices.Index(n.outputs, dst)
	if i < 0 {
		return
	}
	n.outputs = slices.Delete(n.outputs, i, i+1)
	if j := slices.Index(dst.inputs, n); j >= 0 {
		dst.inputs = slices.Delete(dst.inputs, j, j+1)
	}
}

func (n *node) disconnectAll() {
	for len(n.outputs) > 0 {
		n.disconnect(n.outputs[0])
	}
}

// pull renders this node for quantum q and returns its output block.
// Callers must hold the context lock.
func (n *node) pull(q int64) []audio.Frame {
	if n.rendered == q {
		return n.out
	}
	n.rendered = q

	audio.Silence(n.in)
	for _, src := range n.inputs {
		block := src.pull(q)
		for i := range n.in {
			n.in[i][0] += block[i][0]
			n.in[i][1] += block[i][1]
		}
	}
	n.kernel.process(n.in, n.out)
	return n.out
}

// PathCount returns the number of distinct directed paths from one node to
// another. Nodes of different contexts have no paths between them.
func PathCount(from, to Node) int {
	f, t := from.base(), to.base()
	if f.ctx != t.ctx {
		return 0
	}
	var count int
	f.ctx.locked(func() { count = countPaths(f, t) })
	return count
}

func countPaths(from, to *node) int {
	if from == to {
		return 1
	}
	total := 0
	for _, next := range from.outputs {
		total += countPaths(next, to)
	}
	return total
}
