// ABOUTME: FLAC audio decoder
// ABOUTME: Decodes FLAC files frame by frame using mewkiz/flac
package decode

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Lyricium/lyricium-go/pkg/audio"
	"github.com/mewkiz/flac"
)

// FLACDecoder decodes FLAC audio
type FLACDecoder struct {
	stream *flac.Stream
	closer io.Closer
	format audio.Format

	// Decoded samples of the current FLAC frame, per channel
	pending [][]int32
	pos     int
}

// NewFLAC creates a new FLAC decoder
func NewFLAC(r io.ReadCloser) (Stream, error) {
	stream, err := flac.New(r)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("failed to create flac decoder: %w", err)
	}

	return &FLACDecoder{
		stream: stream,
		closer: r,
		format: audio.Format{
			Codec:      "flac",
			SampleRate: int(stream.Info.SampleRate),
			Channels:   int(stream.Info.NChannels),
			BitDepth:   int(stream.Info.BitsPerSample),
		},
	}, nil
}

// Read decodes up to len(dst) frames
func (d *FLACDecoder) Read(dst []audio.Frame) (int, error) {
	n := 0
	for n < len(dst) {
		if d.pending == nil || d.pos >= len(d.pending[0]) {
			if err := d.next(); err != nil {
				if errors.Is(err, io.EOF) && n > 0 {
					return n, nil
				}
				return n, err
			}
			continue
		}

		left := d.pending[0]
		right := left
		if len(d.pending) > 1 {
			right = d.pending[1]
		}

		for n < len(dst) && d.pos < len(left) {
			dst[n] = audio.Frame{
				audio.IntToFloat(left[d.pos], d.format.BitDepth),
				audio.IntToFloat(right[d.pos], d.format.BitDepth),
			}
			n++
			d.pos++
		}
	}
	return n, nil
}

// next parses the following FLAC frame
func (d *FLACDecoder) next() error {
	f, err := d.stream.ParseNext()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		return fmt.Errorf("flac decode error: %w", err)
	}
	if len(f.Subframes) == 0 {
		return fmt.Errorf("flac decode error: frame without subframes")
	}

	d.pending = d.pending[:0]
	for _, sub := range f.Subframes {
		d.pending = append(d.pending, sub.Samples)
	}
	d.pos = 0
	return nil
}

// Format returns the decoded format
func (d *FLACDecoder) Format() audio.Format {
	return d.format
}

// Close releases decoder resources
func (d *FLACDecoder) Close() error {
	err := d.stream.Close()
	if cerr := d.closer.Close(); cerr != nil && !errors.Is(cerr, os.ErrClosed) && err == nil {
		err = cerr
	}
	return err
}
