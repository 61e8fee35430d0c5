// ABOUTME: Media element streaming a decoded file to the audio output
// ABOUTME: Supports play/pause/volume with events and optional effects capture
package player

import (
	"errors"
	"fmt"
	"io"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/Lyricium/lyricium-go/pkg/audio"
	"github.com/Lyricium/lyricium-go/pkg/audio/decode"
	"github.com/Lyricium/lyricium-go/pkg/audio/output"
	"github.com/Lyricium/lyricium-go/pkg/audio/resample"
)

// ChunkFrames is the number of decoded frames handled per write
const ChunkFrames = 1024

// ErrElementClosed is returned by Play on a closed element
var ErrElementClosed = errors.New("media element closed")

// Event is a media element notification
type Event int

const (
	EventPlay Event = iota
	EventPause
	EventEnded
	EventVolumeChange
)

func (e Event) String() string {
	switch e {
	case EventPlay:
		return "play"
	case EventPause:
		return "pause"
	case EventEnded:
		return "ended"
	case EventVolumeChange:
		return "volumechange"
	default:
		return fmt.Sprintf("Event(%d)", int(e))
	}
}

// Processor renders element audio through an effects graph
type Processor interface {
	Process(in, out []audio.Frame)
}

// Opener opens a fresh decoder stream for an element
type Opener func() (decode.Stream, error)

// Element plays one audio stream. It starts paused.
type Element struct {
	mu        sync.Mutex
	cond      *sync.Cond
	name      string
	open      Opener
	stream    decode.Stream
	out       output.Output
	rate      int
	volume    float64
	paused    bool
	ended     bool
	closed    bool
	processor Processor
	listeners []func(Event)
	frames    int64
	srcRate   int
	done      chan struct{}
}

// OpenElement opens path for playback at the output rate
func OpenElement(path string, out output.Output, outputRate int) (*Element, error) {
	return NewElement(path, func() (decode.Stream, error) { return decode.Open(path) }, out, outputRate)
}

// NewElement creates an element reading from open. The stream is opened
// immediately so format errors surface here.
func NewElement(name string, open Opener, out output.Output, outputRate int) (*Element, error) {
	stream, err := open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}

	e := &Element{
		name:    name,
		open:    open,
		stream:  stream,
		out:     out,
		rate:    outputRate,
		volume:  1,
		paused:  true,
		srcRate: stream.Format().SampleRate,
		done:    make(chan struct{}),
	}
	e.cond = sync.NewCond(&e.mu)

	f := stream.Format()
	log.Printf("Media element opened: %s (%s %dHz %dch)", name, f.Codec, f.SampleRate, f.Channels)

	go e.run()
	return e, nil
}

// Name returns the element's source name
func (e *Element) Name() string { return e.name }

// AddListener registers fn for every event. Listeners run on the goroutine
// that caused the event and must not block.
func (e *Element) AddListener(fn func(Event)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, fn)
}

// SetProcessor routes audio through p; nil restores direct output
func (e *Element) SetProcessor(p Processor) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.processor = p
}

// Play starts or resumes playback. Playing an ended element restarts it
// from the beginning.
func (e *Element) Play() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrElementClosed
	}
	if !e.paused {
		e.mu.Unlock()
		return nil
	}
	if e.ended {
		stream, err := e.open()
		if err != nil {
			e.mu.Unlock()
			return fmt.Errorf("failed to reopen %s: %w", e.name, err)
		}
		e.stream.Close()
		e.stream = stream
		e.frames = 0
		e.ended = false
	}
	e.paused = false
	e.cond.Broadcast()
	e.mu.Unlock()

	e.emit(EventPlay)
	return nil
}

// Pause stops playback at the current position
func (e *Element) Pause() {
	e.mu.Lock()
	if e.closed || e.paused {
		e.mu.Unlock()
		return
	}
	e.paused = true
	e.mu.Unlock()

	e.emit(EventPause)
}

// SetVolume sets the direct-output volume, clamped to [0, 1]
func (e *Element) SetVolume(v float64) {
	v = min(max(v, 0), 1)
	e.mu.Lock()
	if e.closed || e.volume == v {
		e.mu.Unlock()
		return
	}
	e.volume = v
	e.mu.Unlock()

	e.emit(EventVolumeChange)
}

// Volume returns the element volume
func (e *Element) Volume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume
}

// Paused reports whether the element is paused
func (e *Element) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

// Ended reports whether the stream has been played to the end
func (e *Element) Ended() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ended
}

// Position returns the playback position
func (e *Element) Position() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.srcRate == 0 {
		return 0
	}
	return time.Duration(e.frames) * time.Second / time.Duration(e.srcRate)
}

// Close stops the element and releases its stream. No events are emitted.
func (e *Element) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.cond.Broadcast()
	e.mu.Unlock()

	<-e.done
	return e.stream.Close()
}

// Done is closed once the playback goroutine exits
func (e *Element) Done() <-chan struct{} {
	return e.done
}

func (e *Element) emit(ev Event) {
	e.mu.Lock()
	listeners := slices.Clone(e.listeners)
	e.mu.Unlock()

	for _, fn := range listeners {
		fn(ev)
	}
}

func (e *Element) run() {
	defer close(e.done)

	decoded := make([]audio.Frame, ChunkFrames)
	var (
		rs        *resample.Resampler
		rsRate    int
		resampled []audio.Frame
		rendered  []audio.Frame
	)

	for {
		e.mu.Lock()
		for e.paused && !e.closed {
			e.cond.Wait()
		}
		if e.closed {
			e.mu.Unlock()
			return
		}
		stream := e.stream
		proc := e.processor
		volume := e.volume
		e.mu.Unlock()

		if srcRate := stream.Format().SampleRate; rs == nil || srcRate != rsRate {
			rs = resample.New(srcRate, e.rate)
			rsRate = srcRate
			resampled = make([]audio.Frame, rs.OutputFramesNeeded(ChunkFrames))
			rendered = make([]audio.Frame, len(resampled))
		}

		n, readErr := stream.Read(decoded)
		if n > 0 {
			m := rs.Resample(decoded[:n], resampled)
			block := rendered[:m]
			if proc != nil {
				proc.Process(resampled[:m], block)
			} else {
				copy(block, resampled[:m])
				audio.Scale(block, volume)
			}
			if err := e.out.Write(block); err != nil {
				log.Printf("Audio output write failed: %v", err)
			}

			e.mu.Lock()
			e.frames += int64(n)
			e.mu.Unlock()
		}

		if readErr != nil {
			if !errors.Is(readErr, io.EOF) {
				log.Printf("Decode error in %s: %v", e.name, readErr)
			}
			e.finish()
			rs = nil
		}
	}
}

// finish marks the element ended and emits pause then ended
func (e *Element) finish() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.paused = true
	e.ended = true
	e.mu.Unlock()

	log.Printf("Media element ended: %s", e.name)
	e.emit(EventPause)
	e.emit(EventEnded)
}
