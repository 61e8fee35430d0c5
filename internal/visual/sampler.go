// ABOUTME: Analysis sampler pulling snapshots from an analyser
// ABOUTME: Reuses one frequency and one time-domain buffer across ticks
package visual

// Analyser is the subset of an analyser node the sampler reads
type Analyser interface {
	FrequencyBinCount() int
	GetByteFrequencyData(dst []byte)
	GetByteTimeDomainData(dst []byte)
}

// Sampler reads snapshots into buffers allocated once
type Sampler struct {
	src  Analyser
	freq []byte
	time []byte
}

// NewSampler sizes both buffers to the analyser's bin count
func NewSampler(src Analyser) *Sampler {
	n := src.FrequencyBinCount()
	return &Sampler{
		src:  src,
		freq: make([]byte, n),
		time: make([]byte, n),
	}
}

// Sample refreshes and returns the frequency and time-domain snapshots.
// The returned slices are overwritten by the next call.
func (s *Sampler) Sample() (freq, timeData []byte) {
	s.src.GetByteFrequencyData(s.freq)
	s.src.GetByteTimeDomainData(s.time)
	return s.freq, s.time
}

// Len returns the snapshot length
func (s *Sampler) Len() int {
	return len(s.freq)
}
