package audio

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// How long the producer may block on a full frame queue before the session
// is declared starved. Dropping frames instead would corrupt the VAD
// hangover arithmetic.
const defaultStallTimeout = 2 * time.Second

var errSessionDone = errors.New("session done")

// ErrSessionActive is returned by Start while a session is in flight; a
// second recording is rejected, not queued.
var ErrSessionActive = errors.New("a recording session is already active")

// Result is the terminal outcome of one session.
type Result struct {
	Outcome Outcome
	// Segment holds the finalized audio for OutcomeSegment, or the
	// partial (incomplete) audio for OutcomeCancelled. Nil for
	// OutcomeNoSpeech.
	Segment *Segment
}

// Recorder orchestrates source, classifier, and segmenter for one session
// at a time.
type Recorder struct {
	// Open acquires the frame source; OpenMic in production.
	Open SourceOpener
	// NewClassifier builds a fresh per-session classifier.
	NewClassifier func(Options) (Classifier, error)
	Logger        *logrus.Logger
	// StallTimeout bounds how long the producer may block on a full
	// frame queue before the session fails with a DeviceError.
	StallTimeout time.Duration

	mu     sync.Mutex
	active bool
}

// New returns a Recorder using the default classifier factory.
func New(open SourceOpener, logger *logrus.Logger) *Recorder {
	return &Recorder{Open: open, NewClassifier: NewClassifier, Logger: logger, StallTimeout: defaultStallTimeout}
}

// Session is the caller's handle on one in-flight recording.
type Session struct {
	ID   uuid.UUID
	opts Options

	stopOnce   sync.Once
	cancelOnce sync.Once
	stopCh     chan struct{}
	cancelCh   chan struct{}

	done   chan struct{}
	result *Result
	err    error
}

// Stop ends the session gracefully; buffered audio becomes the result.
func (s *Session) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// Cancel aborts the session. Buffered audio is retained in the result but
// tagged incomplete.
func (s *Session) Cancel() {
	s.cancelOnce.Do(func() { close(s.cancelCh) })
}

// Wait blocks until the session reaches a terminal state and returns its
// result. A *DeviceError is returned only after the source has been closed.
func (s *Session) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return s.result, s.err
	}
}

// Start validates opts, acquires the device, and begins capturing. The
// returned session must be waited on. Cancelling ctx cancels the session.
func (r *Recorder) Start(ctx context.Context, opts Options) (*Session, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	if r.active {
		r.mu.Unlock()
		return nil, ErrSessionActive
	}
	r.active = true
	r.mu.Unlock()

	release := func() {
		r.mu.Lock()
		r.active = false
		r.mu.Unlock()
	}

	var cls Classifier
	if opts.VADEnabled {
		var err error
		if cls, err = r.NewClassifier(opts); err != nil {
			release()
			return nil, err
		}
	}

	src, err := r.Open(opts)
	if err != nil {
		release()
		return nil, err
	}

	s := &Session{
		ID:       uuid.New(),
		opts:     opts,
		stopCh:   make(chan struct{}),
		cancelCh: make(chan struct{}),
		done:     make(chan struct{}),
	}
	r.Logger.WithFields(logrus.Fields{
		"session":  s.ID,
		"rate":     opts.SampleRate,
		"frame_ms": opts.FrameMS,
		"vad":      opts.VADEnabled,
	}).Info("recording session started")

	go r.run(ctx, s, src, cls, release)
	return s, nil
}

func (r *Recorder) run(ctx context.Context, s *Session, src Source, cls Classifier, release func()) {
	defer close(s.done)
	defer release()

	seg := NewSegmenter(s.opts, NewSessionBuffer(s.opts.SampleRate))
	seg.Start()

	err := r.pump(ctx, s, src, cls, seg)

	// The device is always released before any error surfaces.
	if cerr := src.Close(); cerr != nil && err == nil {
		err = &DeviceError{Err: cerr}
	}

	switch {
	case err == nil || errors.Is(err, errSessionDone):
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		seg.Cancel()
		err = nil
	default:
		var derr *DeviceError
		if !errors.As(err, &derr) {
			err = &DeviceError{Err: err}
		}
		s.err = err
		r.Logger.WithField("session", s.ID).Errorf("session failed: %v", err)
		return
	}

	if !seg.State().Terminal() {
		seg.Finish()
	}

	res := &Result{Outcome: seg.Outcome()}
	switch res.Outcome {
	case OutcomeSegment:
		res.Segment = seg.Buffer().Finalize()
		res.Segment.Language = s.opts.Language
	case OutcomeCancelled:
		res.Segment = seg.Buffer().Finalize()
		res.Segment.Language = s.opts.Language
		res.Segment.Incomplete = true
	}
	s.result = res
	r.Logger.WithFields(logrus.Fields{
		"session": s.ID,
		"outcome": res.Outcome,
		"state":   seg.State(),
	}).Info("recording session ended")
}

// pump runs the producer (device reads) and the single-threaded consumer
// (classify + segment) until the session reaches a terminal state.
func (r *Recorder) pump(ctx context.Context, s *Session, src Source, cls Classifier, seg *Segmenter) error {
	depth := s.opts.QueueDepth
	if depth <= 0 {
		depth = 16
	}
	frames := make(chan Frame, depth)

	stallAfter := r.StallTimeout
	if stallAfter <= 0 {
		stallAfter = defaultStallTimeout
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		stall := time.NewTimer(stallAfter)
		defer stall.Stop()
		for {
			f, err := src.Read()
			if err != nil {
				if errors.Is(err, io.EOF) {
					return errSessionDone
				}
				return err
			}
			if !stall.Stop() {
				<-stall.C
			}
			stall.Reset(stallAfter)
			select {
			case frames <- f:
			case <-gctx.Done():
				return gctx.Err()
			case <-stall.C:
				return &DeviceError{Err: errors.New("frame queue stalled; consumer starved")}
			}
		}
	})

	g.Go(func() error {
		for {
			// Stop and cancel are observed at the top of every
			// iteration so they never wait on the next frame.
			select {
			case <-s.cancelCh:
				seg.Cancel()
				return errSessionDone
			case <-s.stopCh:
				seg.Finish()
				return errSessionDone
			default:
			}

			select {
			case <-s.cancelCh:
				seg.Cancel()
				return errSessionDone
			case <-s.stopCh:
				seg.Finish()
				return errSessionDone
			case <-gctx.Done():
				return gctx.Err()
			case f := <-frames:
				speech := true
				if s.opts.VADEnabled {
					var err error
					if speech, err = cls.Classify(f.PCM); err != nil {
						return &DeviceError{Err: err}
					}
				}
				if st := seg.Feed(ClassifiedFrame{Frame: f, Speech: speech}); st.Terminal() {
					return errSessionDone
				}
			}
		}
	})

	return g.Wait()
}
