// ABOUTME: Stream interface definition and codec selection
// ABOUTME: Common interface for all file decoders
package decode

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Lyricium/lyricium-go/pkg/audio"
)

// ErrUnsupportedFormat is returned for files no decoder handles
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Stream decodes an audio file into stereo float frames
type Stream interface {
	// Read fills dst with decoded frames. It returns io.EOF once the
	// stream is exhausted and no frames were read.
	Read(dst []audio.Frame) (int, error)

	// Format describes the decoded audio
	Format() audio.Format

	// Close releases decoder resources and the underlying reader
	Close() error
}

// CodecForPath maps a file name to a codec name
func CodecForPath(path string) string {
	// Remove query string
	path = strings.Split(path, "?")[0]

	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return "mp3"
	case ".flac":
		return "flac"
	case ".wav", ".wave":
		return "wav"
	}
	return ""
}

// New creates a decoder for codec reading from r. The stream owns r.
func New(codec string, r io.ReadCloser) (Stream, error) {
	switch codec {
	case "mp3":
		return NewMP3(r)
	case "flac":
		return NewFLAC(r)
	case "wav":
		return NewWAV(r)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, codec)
}

// Open opens a file and picks the decoder from its extension
func Open(path string) (Stream, error) {
	codec := CodecForPath(path)
	if codec == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}

	s, err := New(codec, f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}
