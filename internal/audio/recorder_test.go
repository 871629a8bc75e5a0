package audio

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/SmokySkyline/chutes-omnivocal-public/internal/logging"
)

// fakeSource replays a scripted verdict sequence as frames, then either
// blocks (simulating an idle mic) or fails.
type fakeSource struct {
	opts    Options
	script  []bool // per-frame speech verdict, consumed in order
	failAt  int    // frame index to fail on; 0 = never
	failErr error

	mu     sync.Mutex
	seq    uint64
	closed bool
	done   chan struct{}
}

func newFakeSource(opts Options, script []bool) *fakeSource {
	return &fakeSource{opts: opts, script: script, done: make(chan struct{})}
}

func (f *fakeSource) Read() (Frame, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return Frame{}, io.EOF
	}
	if f.failAt > 0 && int(f.seq) >= f.failAt {
		f.mu.Unlock()
		return Frame{}, &DeviceError{Err: f.failErr}
	}
	idx := int(f.seq)
	f.seq++
	f.mu.Unlock()

	speech := true
	if idx < len(f.script) {
		speech = f.script[idx]
	} else {
		// Script exhausted: keep producing speech at roughly frame
		// pace so the session stays open until the test ends it.
		time.Sleep(time.Millisecond)
	}

	pcm := make([]int16, f.opts.FrameSamples())
	if speech {
		for i := range pcm {
			pcm[i] = 8000 // loud enough for the energy classifier
		}
	}
	return Frame{PCM: pcm, Seq: f.seq, Captured: time.Now()}, nil
}

func (f *fakeSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.done)
	}
	return nil
}

func (f *fakeSource) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// scriptClassifier trusts the fake source's amplitude convention.
type scriptClassifier struct{}

func (scriptClassifier) Classify(pcm []int16) (bool, error) {
	return len(pcm) > 0 && pcm[0] != 0, nil
}

func newTestRecorder(src Source) *Recorder {
	r := New(func(Options) (Source, error) { return src, nil }, logging.NewTestLogger())
	r.NewClassifier = func(Options) (Classifier, error) { return scriptClassifier{}, nil }
	return r
}

func verdicts(silence, speech, trailing int) []bool {
	var out []bool
	for i := 0; i < silence; i++ {
		out = append(out, false)
	}
	for i := 0; i < speech; i++ {
		out = append(out, true)
	}
	for i := 0; i < trailing; i++ {
		out = append(out, false)
	}
	return out
}

func TestRecorderProducesSegment(t *testing.T) {
	opts := testOptions()
	src := newFakeSource(opts, verdicts(5, 50, 60))
	rec := newTestRecorder(src)

	s, err := rec.Start(context.Background(), opts)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	res, err := s.Wait(context.Background())
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if res.Outcome != OutcomeSegment {
		t.Fatalf("outcome %v", res.Outcome)
	}
	if got, want := res.Segment.Duration(), 1800*time.Millisecond; got != want {
		t.Fatalf("segment duration %v, want %v", got, want)
	}
	if !src.isClosed() {
		t.Fatalf("source left open after session")
	}
}

func TestRecorderRejectsConcurrentSession(t *testing.T) {
	opts := testOptions()
	src := newFakeSource(opts, verdicts(0, 5, 0))
	rec := newTestRecorder(src)

	s, err := rec.Start(context.Background(), opts)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := rec.Start(context.Background(), opts); !errors.Is(err, ErrSessionActive) {
		t.Fatalf("second start: %v, want ErrSessionActive", err)
	}
	s.Cancel()
	if _, err := s.Wait(context.Background()); err != nil {
		t.Fatalf("wait: %v", err)
	}
}

func TestRecorderCancelReturnsPartial(t *testing.T) {
	opts := testOptions()
	src := newFakeSource(opts, verdicts(0, 10, 0))
	rec := newTestRecorder(src)

	s, err := rec.Start(context.Background(), opts)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	time.Sleep(20 * time.Millisecond) // let some frames flow
	s.Cancel()

	res, err := s.Wait(context.Background())
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if res.Outcome != OutcomeCancelled {
		t.Fatalf("outcome %v", res.Outcome)
	}
	if res.Segment == nil || !res.Segment.Incomplete {
		t.Fatalf("cancelled result must carry an incomplete segment: %+v", res.Segment)
	}
	if !src.isClosed() {
		t.Fatalf("source left open after cancel")
	}
}

func TestRecorderStopFinishesWithBuffer(t *testing.T) {
	opts := testOptions()
	src := newFakeSource(opts, verdicts(0, 25, 0))
	rec := newTestRecorder(src)

	s, err := rec.Start(context.Background(), opts)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	s.Stop()

	res, err := s.Wait(context.Background())
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if res.Outcome != OutcomeSegment {
		t.Fatalf("outcome %v", res.Outcome)
	}
	if res.Segment.Incomplete {
		t.Fatalf("stopped session is complete, not cancelled")
	}
}

func TestRecorderContextCancelBecomesCancelled(t *testing.T) {
	opts := testOptions()
	src := newFakeSource(opts, verdicts(0, 10, 0))
	rec := newTestRecorder(src)

	ctx, cancel := context.WithCancel(context.Background())
	s, err := rec.Start(ctx, opts)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	cancel()

	res, err := s.Wait(context.Background())
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if res.Outcome != OutcomeCancelled {
		t.Fatalf("outcome %v", res.Outcome)
	}
	if !src.isClosed() {
		t.Fatalf("source left open after context cancel")
	}
}

func TestRecorderNoSpeechOutcome(t *testing.T) {
	opts := testOptions()
	opts.NoSpeechTimeout = 100 * time.Millisecond // 5 frames
	src := newFakeSource(opts, verdicts(10, 0, 0))
	rec := newTestRecorder(src)

	s, err := rec.Start(context.Background(), opts)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	res, err := s.Wait(context.Background())
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if res.Outcome != OutcomeNoSpeech {
		t.Fatalf("outcome %v, want no-speech", res.Outcome)
	}
	if res.Segment != nil {
		t.Fatalf("no-speech result must not carry a segment")
	}
}

// slowClassifier simulates a consumer that cannot keep up with the device.
type slowClassifier struct {
	delay time.Duration
}

func (c slowClassifier) Classify(pcm []int16) (bool, error) {
	time.Sleep(c.delay)
	return true, nil
}

func TestRecorderStalledQueueIsDeviceError(t *testing.T) {
	opts := testOptions()
	opts.QueueDepth = 1
	src := newFakeSource(opts, verdicts(0, 200, 0))
	rec := newTestRecorder(src)
	rec.StallTimeout = 50 * time.Millisecond
	rec.NewClassifier = func(Options) (Classifier, error) {
		return slowClassifier{delay: 500 * time.Millisecond}, nil
	}

	s, err := rec.Start(context.Background(), opts)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	_, err = s.Wait(context.Background())
	var derr *DeviceError
	if !errors.As(err, &derr) {
		t.Fatalf("stalled queue should be a *DeviceError, got %v", err)
	}
	if !src.isClosed() {
		t.Fatalf("source must be closed before the stall error surfaces")
	}
}

func TestRecorderDeviceErrorClosesSourceFirst(t *testing.T) {
	opts := testOptions()
	src := newFakeSource(opts, verdicts(0, 5, 0))
	src.failAt = 3
	src.failErr = errors.New("device unplugged")
	rec := newTestRecorder(src)

	s, err := rec.Start(context.Background(), opts)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	_, err = s.Wait(context.Background())
	var derr *DeviceError
	if !errors.As(err, &derr) {
		t.Fatalf("want *DeviceError, got %v", err)
	}
	if !src.isClosed() {
		t.Fatalf("source must be closed before the error surfaces")
	}
}

func TestRecorderInvalidOptionsRejectedAtStart(t *testing.T) {
	opts := testOptions()
	opts.FrameMS = 25
	rec := newTestRecorder(newFakeSource(opts, nil))

	_, err := rec.Start(context.Background(), opts)
	var cerr *ConfigurationError
	if !errors.As(err, &cerr) {
		t.Fatalf("want *ConfigurationError, got %v", err)
	}
}
