// ABOUTME: Cancellable animation loop
// ABOUTME: Runs a tick function on every frame until stopped
package visual

import (
	"sync"
	"sync/atomic"
	"time"
)

// Ticker delivers frame times
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory creates a ticker for a frame interval
type TickerFactory func(d time.Duration) Ticker

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// NewRealTicker wraps time.NewTicker
func NewRealTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// FrameInterval returns the tick period for a frame rate
func FrameInterval(fps int) time.Duration {
	if fps <= 0 {
		fps = 60
	}
	return time.Second / time.Duration(fps)
}

// Loop is a running animation task
type Loop struct {
	stopped  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
	ticks    atomic.Int64
}

// StartLoop calls tick on every ticker event until Stop. The stop flag is
// checked before each tick does any work.
func StartLoop(ticker Ticker, tick func(time.Time)) *Loop {
	l := &Loop{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}

	go func() {
		defer close(l.done)
		defer ticker.Stop()
		for {
			select {
			case <-l.stop:
				return
			case now := <-ticker.C():
				if l.stopped.Load() {
					return
				}
				tick(now)
				l.ticks.Add(1)
			}
		}
	}()

	return l
}

// Stop cancels the loop. It does not wait for an in-flight tick; use Wait
// or Done for that. Safe to call more than once.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		l.stopped.Store(true)
		close(l.stop)
	})
}

// Wait blocks until the loop goroutine has exited
func (l *Loop) Wait() {
	<-l.done
}

// Done is closed when the loop goroutine exits
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Stopped reports whether Stop was called
func (l *Loop) Stopped() bool {
	return l.stopped.Load()
}

// Ticks returns the number of completed ticks
func (l *Loop) Ticks() int64 {
	return l.ticks.Load()
}
