package audio

import (
	"time"
)

// SessionBuffer accumulates PCM for one recording session. It is owned by
// the session's consumer goroutine and never shared.
type SessionBuffer struct {
	sampleRate int
	samples    []int16
	seg        *Segment
}

// NewSessionBuffer returns an empty buffer for the given sample rate.
func NewSessionBuffer(sampleRate int) *SessionBuffer {
	return &SessionBuffer{sampleRate: sampleRate}
}

// Append adds one frame of samples. Appending after Finalize is a
// programming error.
func (b *SessionBuffer) Append(pcm []int16) {
	if b.seg != nil {
		panic("audio: append to finalized session buffer")
	}
	b.samples = append(b.samples, pcm...)
}

// Len returns the number of buffered samples.
func (b *SessionBuffer) Len() int { return len(b.samples) }

// Duration returns the buffered audio duration.
func (b *SessionBuffer) Duration() time.Duration {
	return time.Duration(len(b.samples)) * time.Second / time.Duration(b.sampleRate)
}

// TruncateTo discards samples past n. Used to trim grace-period silence
// back to the hangover boundary.
func (b *SessionBuffer) TruncateTo(n int) {
	if b.seg != nil {
		panic("audio: truncate finalized session buffer")
	}
	if n >= 0 && n < len(b.samples) {
		b.samples = b.samples[:n]
	}
}

// Finalize seals the buffer into an immutable Segment. Subsequent calls
// return the same segment.
func (b *SessionBuffer) Finalize() *Segment {
	if b.seg == nil {
		b.seg = &Segment{
			PCM:        b.samples,
			SampleRate: b.sampleRate,
			Samples:    len(b.samples),
		}
	}
	return b.seg
}

// Segment is the finalized audio of one session. Callers must treat it as
// immutable.
type Segment struct {
	PCM        []int16
	SampleRate int
	Samples    int

	// Language is the untouched hint from the session options, for the
	// transcription client.
	Language string

	// Incomplete marks audio retained from a cancelled session.
	Incomplete bool
}

// Duration returns the segment's audio duration.
func (s *Segment) Duration() time.Duration {
	return time.Duration(s.Samples) * time.Second / time.Duration(s.SampleRate)
}

// Bytes returns the PCM as little-endian 16-bit samples.
func (s *Segment) Bytes() []byte {
	out := make([]byte, 2*len(s.PCM))
	for i, v := range s.PCM {
		out[2*i] = byte(v)
		out[2*i+1] = byte(uint16(v) >> 8)
	}
	return out
}
