// ABOUTME: Oto-based audio output implementation
// ABOUTME: Streams float frames as 16-bit PCM through a persistent oto player
package output

import (
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/Lyricium/lyricium-go/pkg/audio"
	"github.com/ebitengine/oto/v3"
)

// Oto output implementation using oto library
type Oto struct {
	mu         sync.Mutex
	otoCtx     *oto.Context
	player     *oto.Player
	pipeReader *io.PipeReader
	pipeWriter *io.PipeWriter
	sampleRate int
	channels   int
	buf        []byte
	ready      bool
}

// NewOto creates a new Oto output
func NewOto() *Oto {
	return &Oto{}
}

// Open initializes the output device
func (o *Oto) Open(sampleRate, channels int) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	// If already initialized with same format, reuse the existing context
	if o.otoCtx != nil && o.sampleRate == sampleRate && o.channels == channels {
		log.Printf("Audio output already initialized with same format, reusing context")
		return nil
	}

	// oto only allows one context per process
	if o.otoCtx != nil {
		return fmt.Errorf("audio output already open at %dHz %dch", o.sampleRate, o.channels)
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}

	<-readyChan

	o.otoCtx = ctx
	o.sampleRate = sampleRate
	o.channels = channels

	// Create pipe for continuous streaming
	o.pipeReader, o.pipeWriter = io.Pipe()

	// Create persistent player that reads from the pipe
	o.player = o.otoCtx.NewPlayer(o.pipeReader)
	o.player.Play()

	o.ready = true

	log.Printf("Audio output initialized: %dHz, %d channels", sampleRate, channels)

	return nil
}

// Write outputs audio frames (blocks until written)
func (o *Oto) Write(frames []audio.Frame) error {
	o.mu.Lock()
	if !o.ready {
		o.mu.Unlock()
		return fmt.Errorf("output not initialized")
	}

	o.buf = encodeInt16LE(frames, o.channels, o.buf[:0])
	pw := o.pipeWriter
	buf := o.buf
	o.mu.Unlock()

	// Write to pipe (which feeds the persistent player)
	if _, err := pw.Write(buf); err != nil {
		return fmt.Errorf("pipe write failed: %w", err)
	}

	return nil
}

// Suspend pauses the oto context
func (o *Oto) Suspend() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.otoCtx == nil {
		return nil
	}
	if err := o.otoCtx.Suspend(); err != nil {
		return fmt.Errorf("failed to suspend oto context: %w", err)
	}
	return nil
}

// Resume restarts the oto context
func (o *Oto) Resume() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.otoCtx == nil {
		return nil
	}
	if err := o.otoCtx.Resume(); err != nil {
		return fmt.Errorf("failed to resume oto context: %w", err)
	}
	return nil
}

// Close releases output resources
func (o *Oto) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.pipeWriter != nil {
		o.pipeWriter.Close()
		o.pipeWriter = nil
	}
	if o.player != nil {
		o.player.Close()
		o.player = nil
	}
	if o.pipeReader != nil {
		o.pipeReader.Close()
		o.pipeReader = nil
	}
	if o.otoCtx != nil {
		o.otoCtx.Suspend()
		o.ready = false
	}
	return nil
}

// encodeInt16LE appends frames as interleaved 16-bit little-endian PCM to dst.
// A mono device receives the average of both channels.
func encodeInt16LE(frames []audio.Frame, channels int, dst []byte) []byte {
	var sample [2]byte
	for _, f := range frames {
		if channels == 1 {
			binary.LittleEndian.PutUint16(sample[:], uint16(audio.FloatToInt16((f[0]+f[1])/2)))
			dst = append(dst, sample[:]...)
			continue
		}
		binary.LittleEndian.PutUint16(sample[:], uint16(audio.FloatToInt16(f[0])))
		dst = append(dst, sample[:]...)
		binary.LittleEndian.PutUint16(sample[:], uint16(audio.FloatToInt16(f[1])))
		dst = append(dst, sample[:]...)
	}
	return dst
}
