package audio

import (
	"math"
	"testing"
)

func sine(n int, amp float64) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(amp * 32767 * math.Sin(2*math.Pi*float64(i)/64))
	}
	return out
}

func TestEnergyClassifierHysteresis(t *testing.T) {
	opts := testOptions()
	c := newEnergyClassifier(opts)
	loud := sine(opts.FrameSamples(), 0.3)
	quiet := make([]int16, opts.FrameSamples())

	// Needs consecutive loud frames before triggering.
	if got, _ := c.Classify(loud); got {
		t.Fatalf("single loud frame should not trigger")
	}
	if got, _ := c.Classify(loud); !got {
		t.Fatalf("sustained loud input should trigger")
	}
	// A single quiet frame must not end speech.
	if got, _ := c.Classify(quiet); !got {
		t.Fatalf("one quiet frame flickered the verdict")
	}
	for i := 0; i < 4; i++ {
		c.Classify(quiet)
	}
	if got, _ := c.Classify(quiet); got {
		t.Fatalf("sustained quiet input should end speech")
	}
}

func TestEnergyClassifierFreshPerSession(t *testing.T) {
	opts := testOptions()
	loud := sine(opts.FrameSamples(), 0.3)

	first := newEnergyClassifier(opts)
	first.Classify(loud)
	first.Classify(loud)

	// A new instance must not inherit the in-speech state.
	second := newEnergyClassifier(opts)
	if got, _ := second.Classify(make([]int16, opts.FrameSamples())); got {
		t.Fatalf("fresh classifier leaked state")
	}
}

func TestNewClassifierUnknownEngine(t *testing.T) {
	opts := testOptions()
	opts.Engine = "psychic"
	if _, err := NewClassifier(opts); err == nil {
		t.Fatalf("expected error for unknown engine")
	}
}

func TestRMSEmptyFrame(t *testing.T) {
	if rms(nil) != 0 {
		t.Fatalf("rms of empty frame")
	}
}
