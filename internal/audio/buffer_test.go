package audio

import (
	"bytes"
	"testing"
	"time"
)

func TestSessionBufferFinalizeIdempotent(t *testing.T) {
	b := NewSessionBuffer(16000)
	b.Append([]int16{1, 2, 3, 4})

	first := b.Finalize()
	second := b.Finalize()
	if first != second {
		t.Fatalf("finalize must return the same segment")
	}
	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Fatalf("finalized bytes differ between calls")
	}
	if first.Samples != 4 {
		t.Fatalf("samples = %d", first.Samples)
	}
}

func TestSessionBufferDuration(t *testing.T) {
	b := NewSessionBuffer(16000)
	b.Append(make([]int16, 320)) // one 20 ms frame
	if got := b.Duration(); got != 20*time.Millisecond {
		t.Fatalf("duration %v", got)
	}
}

func TestSessionBufferTruncate(t *testing.T) {
	b := NewSessionBuffer(16000)
	b.Append([]int16{1, 2, 3, 4, 5, 6})
	b.TruncateTo(4)
	if b.Len() != 4 {
		t.Fatalf("len %d after truncate", b.Len())
	}
	b.TruncateTo(10) // beyond length is a no-op
	if b.Len() != 4 {
		t.Fatalf("len %d after oversized truncate", b.Len())
	}
}

func TestSegmentBytesLittleEndian(t *testing.T) {
	b := NewSessionBuffer(16000)
	b.Append([]int16{0x0102, -2})
	got := b.Finalize().Bytes()
	want := []byte{0x02, 0x01, 0xfe, 0xff}
	if !bytes.Equal(got, want) {
		t.Fatalf("bytes %x, want %x", got, want)
	}
}

func TestSegmentDuration(t *testing.T) {
	seg := &Segment{SampleRate: 16000, Samples: 16000 * 3 / 2}
	if got := seg.Duration(); got != 1500*time.Millisecond {
		t.Fatalf("duration %v", got)
	}
}
