// ABOUTME: Audio decoder package for uploaded song files
// ABOUTME: Provides the Stream interface and MP3, FLAC and WAV implementations
// Package decode provides streaming decoders for the audio files attached
// to Lyricium tracks.
//
// Supports: MP3 (go-mp3), FLAC (mewkiz/flac), WAV (beep)
//
// All decoders implement the Stream interface and produce stereo float
// frames; mono files are duplicated to both channels.
//
// Example:
//
//	s, err := decode.Open("song.mp3")
//	n, err := s.Read(frames)
package decode
