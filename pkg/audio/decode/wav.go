// ABOUTME: WAV audio decoder
// ABOUTME: Decodes PCM WAV files using beep's wav package
package decode

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Lyricium/lyricium-go/pkg/audio"
	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
)

// WAVDecoder decodes WAV audio
type WAVDecoder struct {
	streamer beep.StreamSeekCloser
	closer   io.Closer
	format   audio.Format
}

// NewWAV creates a new WAV decoder
func NewWAV(r io.ReadCloser) (Stream, error) {
	streamer, format, err := wav.Decode(r)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("failed to create wav decoder: %w", err)
	}

	return &WAVDecoder{
		streamer: streamer,
		closer:   r,
		format: audio.Format{
			Codec:      "wav",
			SampleRate: int(format.SampleRate),
			Channels:   format.NumChannels,
			BitDepth:   format.Precision * 8,
		},
	}, nil
}

// Read decodes up to len(dst) frames
func (d *WAVDecoder) Read(dst []audio.Frame) (int, error) {
	n, ok := d.streamer.Stream(dst)
	if !ok {
		if err := d.streamer.Err(); err != nil {
			return n, fmt.Errorf("wav decode error: %w", err)
		}
		if n == 0 {
			return 0, io.EOF
		}
	}
	return n, nil
}

// Format returns the decoded format
func (d *WAVDecoder) Format() audio.Format {
	return d.format
}

// Close releases the streamer and the underlying reader
func (d *WAVDecoder) Close() error {
	err := d.streamer.Close()
	if cerr := d.closer.Close(); cerr != nil && !errors.Is(cerr, os.ErrClosed) && err == nil {
		err = cerr
	}
	return err
}
