// ABOUTME: MP3 audio decoder
// ABOUTME: Decodes MP3 files to stereo float frames using go-mp3
package decode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/Lyricium/lyricium-go/pkg/audio"
	"github.com/hajimehoshi/go-mp3"
)

// MP3Decoder decodes MP3 audio
type MP3Decoder struct {
	decoder *mp3.Decoder
	closer  io.Closer
	buf     []byte
	format  audio.Format
}

// NewMP3 creates a new MP3 decoder
func NewMP3(r io.ReadCloser) (Stream, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("failed to create mp3 decoder: %w", err)
	}

	// go-mp3 always produces 16-bit little-endian stereo
	return &MP3Decoder{
		decoder: decoder,
		closer:  r,
		format: audio.Format{
			Codec:      "mp3",
			SampleRate: decoder.SampleRate(),
			Channels:   2,
			BitDepth:   16,
		},
	}, nil
}

// Read decodes up to len(dst) frames
func (d *MP3Decoder) Read(dst []audio.Frame) (int, error) {
	need := len(dst) * 4
	if cap(d.buf) < need {
		d.buf = make([]byte, need)
	}
	buf := d.buf[:need]

	n, err := io.ReadFull(d.decoder, buf)
	frames := n / 4
	for i := 0; i < frames; i++ {
		l := int16(binary.LittleEndian.Uint16(buf[i*4:]))
		r := int16(binary.LittleEndian.Uint16(buf[i*4+2:]))
		dst[i] = audio.Frame{audio.Int16ToFloat(l), audio.Int16ToFloat(r)}
	}

	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			if frames > 0 {
				return frames, nil
			}
			return 0, io.EOF
		}
		return frames, fmt.Errorf("mp3 decode error: %w", err)
	}
	return frames, nil
}

// Format returns the decoded format
func (d *MP3Decoder) Format() audio.Format {
	return d.format
}

// Close releases decoder resources
func (d *MP3Decoder) Close() error {
	return d.closer.Close()
}
