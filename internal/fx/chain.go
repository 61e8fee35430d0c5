// ABOUTME: Effects chain builder and owner handle
// ABOUTME: Wires source, gain, optional reverb, bass shelf and analyser; applies settings diffs
package fx

import (
	"fmt"
	"log"
	"sync"
)

// AnalyserFFTSize is the chain analyser's FFT length (128 usable bins)
const AnalyserFFTSize = 256

// Chain owns the nodes of one effects chain:
//
//	source -> gain -> [convolver] -> bass -> analyser -> destination
type Chain struct {
	ctx       *Context
	source    *MediaElementSource
	gain      *Gain
	convolver *Convolver
	bass      *BiquadFilter
	analyser  *Analyser

	mu       sync.Mutex
	settings EffectSettings
	torn     bool
}

// Build creates and connects a chain for source using settings. The reverb
// impulse is generated once here and kept for the chain's lifetime.
func Build(source *MediaElementSource, settings EffectSettings) (*Chain, error) {
	ctx := source.Context()
	settings = settings.Normalize()

	ch := &Chain{
		ctx:       ctx,
		source:    source,
		gain:      ctx.NewGain(),
		convolver: ctx.NewConvolver(),
		bass:      ctx.NewBiquadFilter(),
		analyser:  ctx.NewAnalyser(),
		settings:  settings,
	}

	if err := ch.convolver.SetBuffer(ctx.CreateImpulse()); err != nil {
		return nil, fmt.Errorf("failed to load reverb impulse: %w", err)
	}
	if err := ch.analyser.SetFFTSize(AnalyserFFTSize); err != nil {
		return nil, fmt.Errorf("failed to size analyser: %w", err)
	}

	ch.gain.SetGain(settings.Volume)
	ch.bass.SetFrequency(BassShelfFrequency)
	ch.bass.SetGain(settings.BassGainDB())

	var err error
	ctx.locked(func() {
		if err = source.connect(&ch.gain.node); err != nil {
			return
		}
		if err = ch.wire(settings.ReverbEnabled); err != nil {
			return
		}
		if err = ch.bass.connect(&ch.analyser.node); err != nil {
			return
		}
		err = ch.analyser.connect(&ctx.dest.node)
	})
	if err != nil {
		ch.Teardown()
		return nil, fmt.Errorf("failed to connect effects chain: %w", err)
	}

	log.Printf("Effects graph built: reverb=%v bass=%.1fdB volume=%.2f",
		settings.ReverbEnabled, settings.BassGainDB(), settings.Volume)
	return ch, nil
}

// wire connects gain to the bass filter, through the convolver when reverb
// is on. Any previous gain/convolver edges are removed first so exactly one
// path from gain to bass exists afterwards. Callers hold the context lock.
func (ch *Chain) wire(reverb bool) error {
	ch.gain.disconnectAll()
	ch.convolver.disconnectAll()

	if !reverb {
		return ch.gain.connect(&ch.bass.node)
	}
	if err := ch.gain.connect(&ch.convolver.node); err != nil {
		return err
	}
	return ch.convolver.connect(&ch.bass.node)
}

// Apply moves the live graph from the current settings to next and returns
// what changed. Only a reverb flip touches the topology; volume and bass
// changes set node parameters. Apply on a torn down chain only records next.
func (ch *Chain) Apply(next EffectSettings) (Change, error) {
	next = next.Normalize()

	ch.mu.Lock()
	defer ch.mu.Unlock()

	changed := Diff(ch.settings, next)
	ch.settings = next
	if ch.torn || changed == ChangeNone {
		return changed, nil
	}

	if changed.Has(ChangeVolume) {
		ch.gain.SetGain(next.Volume)
	}
	if changed.Has(ChangeBass) {
		ch.bass.SetGain(next.BassGainDB())
	}
	if changed.Has(ChangeReverb) {
		var err error
		ch.ctx.locked(func() { err = ch.wire(next.ReverbEnabled) })
		if err != nil {
			return changed, fmt.Errorf("failed to rewire reverb: %w", err)
		}
		log.Printf("Effects graph rewired: reverb=%v", next.ReverbEnabled)
	}
	return changed, nil
}

// Settings returns the settings last applied
func (ch *Chain) Settings() EffectSettings {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.settings
}

// Teardown disconnects every node in reverse build order and releases the
// source's element. It returns true only for the call that performed the
// teardown.
func (ch *Chain) Teardown() bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	if ch.torn {
		return false
	}
	ch.torn = true

	ch.analyser.Disconnect()
	ch.bass.Disconnect()
	ch.convolver.Disconnect()
	ch.gain.Disconnect()
	ch.source.Disconnect()
	ch.source.Release()
	return true
}

// Torn reports whether Teardown has run
func (ch *Chain) Torn() bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.torn
}

// Source returns the chain's source node
func (ch *Chain) Source() *MediaElementSource { return ch.source }

// GainNode returns the volume node
func (ch *Chain) GainNode() *Gain { return ch.gain }

// Convolver returns the reverb node
func (ch *Chain) Convolver() *Convolver { return ch.convolver }

// Bass returns the low-shelf node
func (ch *Chain) Bass() *BiquadFilter { return ch.bass }

// Analyser returns the analysis node
func (ch *Chain) Analyser() *Analyser { return ch.analyser }
