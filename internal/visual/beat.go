// ABOUTME: Bass energy beat detector with a wall-clock cooldown
// ABOUTME: Triggers on loud low bins and resets itself after the cooldown
package visual

import (
	"sync"
	"time"
)

// Beat detection tuning
const (
	BeatBands     = 5
	BeatThreshold = 180.0
	BeatCooldown  = 100 * time.Millisecond
)

// Timer is a cancellable scheduled callback
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealClock schedules with the time package
var RealClock Clock = realClock{}

// BassEnergy returns the mean of the first BeatBands bins (fewer if the
// snapshot is shorter)
func BassEnergy(freq []byte) float64 {
	n := min(BeatBands, len(freq))
	if n == 0 {
		return 0
	}
	var sum float64
	for _, v := range freq[:n] {
		sum += float64(v)
	}
	return sum / float64(n)
}

// BeatDetector holds the beat state. A beat turns on when the bass energy
// exceeds BeatThreshold while off, and turns off BeatCooldown later
// regardless of whether ticks keep arriving.
type BeatDetector struct {
	mu       sync.Mutex
	clock    Clock
	onChange func(bool)
	on       bool
	timer    Timer
	gen      uint64
	stopped  bool
}

// NewBeatDetector creates a detector. clock may be nil for RealClock;
// onChange, if set, is called outside the lock on every transition.
func NewBeatDetector(clock Clock, onChange func(bool)) *BeatDetector {
	if clock == nil {
		clock = RealClock
	}
	return &BeatDetector{clock: clock, onChange: onChange}
}

// Detect updates the state from a frequency snapshot and returns it
func (b *BeatDetector) Detect(freq []byte) bool {
	b.mu.Lock()
	if b.stopped || b.on || BassEnergy(freq) <= BeatThreshold {
		on := b.on
		b.mu.Unlock()
		return on
	}

	b.on = true
	b.gen++
	gen := b.gen
	b.timer = b.clock.AfterFunc(BeatCooldown, func() { b.reset(gen) })
	b.mu.Unlock()

	b.notify(true)
	return true
}

func (b *BeatDetector) reset(gen uint64) {
	b.mu.Lock()
	if gen != b.gen || !b.on {
		b.mu.Unlock()
		return
	}
	b.on = false
	b.timer = nil
	b.mu.Unlock()

	b.notify(false)
}

func (b *BeatDetector) notify(on bool) {
	if b.onChange != nil {
		b.onChange(on)
	}
}

// Beat returns the current state
func (b *BeatDetector) Beat() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.on
}

// Stop cancels a pending reset, clears the state and ignores further input
func (b *BeatDetector) Stop() {
	b.mu.Lock()
	wasOn := b.on
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.gen++
	b.on = false
	b.stopped = true
	b.mu.Unlock()

	if wasOn {
		b.notify(false)
	}
}
