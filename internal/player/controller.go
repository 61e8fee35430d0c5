// ABOUTME: Playback controller state machine
// ABOUTME: Builds the effects chain on play, drives the visualizer loop, tears down on load and close
package player

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Lyricium/lyricium-go/internal/fx"
	"github.com/Lyricium/lyricium-go/internal/visual"
	"github.com/Lyricium/lyricium-go/pkg/audio/output"
)

// State is the controller's playback state
type State int

const (
	StateIdle State = iota
	StatePlaying
	StatePaused
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrNoElement is returned when no element is loaded
var ErrNoElement = errors.New("no media element loaded")

// ContextFactory creates an effects context
type ContextFactory func(sampleRate int) (*fx.Context, error)

// Frame is one visualizer tick's data. The slices are reused by the next
// tick and must be copied to be retained.
type Frame struct {
	Freq []byte
	Time []byte
	Beat bool
}

// Config holds controller configuration
type Config struct {
	SampleRate int
	FPS        int
	Settings   fx.EffectSettings
	Canvas     visual.Canvas

	// Output is the device elements write to. When set it is resumed on
	// play and suspended on close.
	Output output.Output

	// Injectable collaborators; zero values use the real implementations
	NewContext ContextFactory
	NewTicker  visual.TickerFactory
	Clock      visual.Clock

	OnFrame       func(Frame)
	OnBeat        func(bool)
	OnStateChange func(State)
}

// Controller owns the effects context, the current element's chain and the
// render loop
type Controller struct {
	config   Config
	renderer *visual.Renderer

	// loopMu serializes loop start/stop; never taken by ticks or hooks
	loopMu sync.Mutex

	// applyMu orders settings swaps with their graph updates. Not held
	// while element events are emitted.
	applyMu sync.Mutex

	mu        sync.Mutex
	ctx       *fx.Context
	ctxFailed bool
	warning   string
	element   *Element
	chain     *fx.Chain
	sampler   *visual.Sampler
	beat      *visual.BeatDetector
	loop      *visual.Loop
	state     State
	settings  fx.EffectSettings
	closed    bool
}

// NewController creates a controller
func NewController(config Config) *Controller {
	if config.NewContext == nil {
		config.NewContext = fx.NewContext
	}
	if config.NewTicker == nil {
		config.NewTicker = visual.NewRealTicker
	}
	if config.Clock == nil {
		config.Clock = visual.RealClock
	}
	if config.FPS <= 0 {
		config.FPS = 60
	}

	return &Controller{
		config:   config,
		renderer: visual.NewRenderer("#ffffff"),
		settings: config.Settings.Normalize(),
	}
}

// Load makes el the current element with the given accent colour. The
// previous element's chain is torn down and the previous element closed.
// The controller returns to Idle.
func (c *Controller) Load(el *Element, accentHex string) {
	c.stopLoop()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	old := c.element
	c.teardownLocked()
	c.element = el
	c.renderer.SetAccent(accentHex)
	settings := c.settings
	c.mu.Unlock()

	if old != nil && old != el {
		old.Close()
	}
	if el != nil {
		el.SetVolume(settings.Volume)
		el.AddListener(func(ev Event) { c.handleEvent(el, ev) })
	}
	c.setState(StateIdle)
}

// Play starts the current element
func (c *Controller) Play() error {
	el := c.Element()
	if el == nil {
		return ErrNoElement
	}
	return el.Play()
}

// Pause pauses the current element
func (c *Controller) Pause() {
	if el := c.Element(); el != nil {
		el.Pause()
	}
}

// Toggle plays when paused and pauses when playing
func (c *Controller) Toggle() error {
	el := c.Element()
	if el == nil {
		return ErrNoElement
	}
	if el.Paused() {
		return el.Play()
	}
	el.Pause()
	return nil
}

// Apply replaces the effect settings and updates the live graph
func (c *Controller) Apply(next fx.EffectSettings) error {
	next = next.Normalize()

	c.applyMu.Lock()
	c.mu.Lock()
	prev := c.settings
	c.settings = next
	chain := c.chain
	el := c.element
	state := c.state
	c.mu.Unlock()

	changed := fx.Diff(prev, next)
	if changed == fx.ChangeNone {
		c.applyMu.Unlock()
		return nil
	}

	var err error
	if chain != nil {
		_, err = chain.Apply(next)
	}
	c.applyMu.Unlock()

	// SetVolume emits volumechange, which re-enters Apply
	if el != nil && changed.Has(fx.ChangeVolume) {
		el.SetVolume(next.Volume)
	}
	if changed.Has(fx.ChangeVisualizer) && state == StatePlaying {
		c.restartLoop()
	}
	return err
}

// Settings returns the current effect settings
func (c *Controller) Settings() fx.EffectSettings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// State returns the playback state
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Warning returns the persistent effects warning, or ""
func (c *Controller) Warning() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.warning
}

// Element returns the current element
func (c *Controller) Element() *Element {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.element
}

// Chain returns the current effects chain, or nil
func (c *Controller) Chain() *fx.Chain {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.chain
}

// Context returns the effects context, or nil
func (c *Controller) Context() *fx.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ctx
}

// Looping reports whether a render loop is active
func (c *Controller) Looping() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loop != nil
}

// Close cancels the render loop, disconnects the source and suspends the
// context, in that order. The current element is closed and the output
// suspended. Safe to call more than once.
func (c *Controller) Close() {
	c.stopLoop()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.teardownLocked()
	ctx := c.ctx
	el := c.element
	c.element = nil
	c.mu.Unlock()

	if ctx != nil && ctx.State() == fx.StateRunning {
		if err := ctx.Suspend(); err != nil {
			log.Printf("Failed to suspend audio context: %v", err)
		}
	}
	if el != nil {
		el.Close()
	}
	if out := c.config.Output; out != nil {
		if err := out.Suspend(); err != nil {
			log.Printf("Failed to suspend audio output: %v", err)
		}
	}
}

func (c *Controller) handleEvent(el *Element, ev Event) {
	c.mu.Lock()
	current := c.element == el && !c.closed
	c.mu.Unlock()
	if !current {
		return
	}

	switch ev {
	case EventPlay:
		c.onPlay(el)
	case EventPause:
		c.onStop(StatePaused)
	case EventEnded:
		c.onStop(StateEnded)
	case EventVolumeChange:
		c.mu.Lock()
		next := c.settings.WithVolume(el.Volume())
		c.mu.Unlock()
		if err := c.Apply(next); err != nil {
			log.Printf("Failed to apply volume: %v", err)
		}
	}
}

func (c *Controller) onPlay(el *Element) {
	c.loopMu.Lock()
	defer c.loopMu.Unlock()

	c.mu.Lock()
	if c.closed || c.element != el {
		c.mu.Unlock()
		return
	}
	c.ensureGraphLocked(el)
	ctx := c.ctx
	c.mu.Unlock()

	// The context must be running before the first tick samples it
	if ctx != nil && ctx.State() == fx.StateSuspended {
		if err := ctx.Resume(); err != nil {
			log.Printf("Failed to resume audio context: %v", err)
		}
	}
	if out := c.config.Output; out != nil {
		if err := out.Resume(); err != nil {
			log.Printf("Failed to resume audio output: %v", err)
		}
	}

	c.stopLoopLocked()
	c.startLoopLocked()
	c.setState(StatePlaying)
}

func (c *Controller) onStop(state State) {
	c.stopLoop()
	c.setState(state)
}

// ensureGraphLocked creates the context and the element's chain if they do
// not exist yet. Failures leave the element on direct output.
func (c *Controller) ensureGraphLocked(el *Element) {
	if c.chain != nil {
		return
	}

	if c.ctx == nil && !c.ctxFailed {
		ctx, err := c.config.NewContext(c.config.SampleRate)
		if err != nil {
			c.ctxFailed = true
			c.warning = "Audio effects unavailable in this environment; playing without effects"
			log.Printf("Effects unavailable: %v", err)
			return
		}
		c.ctx = ctx
	}
	if c.ctx == nil {
		return
	}

	source, err := c.ctx.NewMediaElementSource(el)
	if err != nil {
		log.Printf("Failed to capture media element: %v", err)
		return
	}
	chain, err := fx.Build(source, c.settings)
	if err != nil {
		log.Printf("Failed to build effects graph: %v", err)
		c.warning = "Audio effects failed to start; playing without effects"
		return
	}

	c.chain = chain
	c.sampler = visual.NewSampler(chain.Analyser())
	c.beat = visual.NewBeatDetector(c.config.Clock, c.config.OnBeat)
	el.SetProcessor(source)
}

// teardownLocked disconnects the current chain. The loop must already be
// stopped.
func (c *Controller) teardownLocked() {
	if c.beat != nil {
		c.beat.Stop()
		c.beat = nil
	}
	if c.chain != nil {
		c.chain.Teardown()
		c.chain = nil
	}
	c.sampler = nil
}

func (c *Controller) restartLoop() {
	c.loopMu.Lock()
	defer c.loopMu.Unlock()
	c.stopLoopLocked()
	c.startLoopLocked()
}

func (c *Controller) stopLoop() {
	c.loopMu.Lock()
	defer c.loopMu.Unlock()
	c.stopLoopLocked()
}

// stopLoopLocked stops the loop and waits for its last tick. Callers hold
// loopMu.
func (c *Controller) stopLoopLocked() {
	c.mu.Lock()
	l := c.loop
	c.loop = nil
	c.mu.Unlock()

	if l != nil {
		l.Stop()
		l.Wait()
	}
}

// startLoopLocked starts a loop when a chain exists and the visualizer is
// enabled. Callers hold loopMu.
func (c *Controller) startLoopLocked() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.chain == nil || !c.settings.VisualizerEnabled {
		return
	}

	sampler, beat, renderer := c.sampler, c.beat, c.renderer
	canvas, onFrame := c.config.Canvas, c.config.OnFrame
	ticker := c.config.NewTicker(visual.FrameInterval(c.config.FPS))

	c.loop = visual.StartLoop(ticker, func(time.Time) {
		freq, timeData := sampler.Sample()
		on := beat.Detect(freq)
		renderer.Render(canvas, freq, timeData)
		if onFrame != nil {
			onFrame(Frame{Freq: freq, Time: timeData, Beat: on})
		}
	})
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	if c.state == s {
		c.mu.Unlock()
		return
	}
	c.state = s
	hook := c.config.OnStateChange
	c.mu.Unlock()

	log.Printf("Playback state: %s", s)
	if hook != nil {
		hook(s)
	}
}
