package audio

import "time"

// State is the segmentation state of one session. It is owned by the
// Segmenter; transitions happen only inside Feed, Finish, and Cancel, which
// must all run on a single goroutine.
type State int

const (
	StateIdle State = iota
	StateWaitingForSpeech
	StateRecording
	StateTrailingSilence
	StateFinished
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateWaitingForSpeech:
		return "waiting-for-speech"
	case StateRecording:
		return "recording"
	case StateTrailingSilence:
		return "trailing-silence"
	case StateFinished:
		return "finished"
	case StateCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Terminal reports whether no further frames are accepted.
func (s State) Terminal() bool {
	return s == StateFinished || s == StateCancelled
}

// Outcome classifies how a session ended.
type Outcome int

const (
	// OutcomeSegment means a transcription-ready segment was produced.
	OutcomeSegment Outcome = iota
	// OutcomeNoSpeech means the session finished without ever hearing
	// speech; the buffer is empty and must not be sent for transcription.
	OutcomeNoSpeech
	// OutcomeCancelled means the caller aborted; buffered audio is
	// retained but tagged incomplete.
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSegment:
		return "segment"
	case OutcomeNoSpeech:
		return "no-speech"
	case OutcomeCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Segmenter consumes classified frames in capture order and decides when
// the session ends. With VAD enabled it waits for speech, records through
// pauses shorter than the hangover, then keeps buffering silence for a
// grace period in case speech resumes. Grace frames past the hangover
// boundary are trimmed from the final buffer.
//
// The duration ceiling is checked before any VAD logic on every frame, so
// continuous speech cannot push the buffer past Options.MaxDuration.
type Segmenter struct {
	opts     Options
	buf      *SessionBuffer
	frameDur time.Duration

	state      State
	silenceRun time.Duration // consecutive silence while recording
	graceRun   time.Duration // silence buffered past the hangover
	waited     time.Duration // time spent waiting for first speech
	trimMark   int           // buffer length at the hangover boundary
	sawSpeech  bool
	preRoll    [][]int16
}

// NewSegmenter returns a Segmenter in StateIdle.
func NewSegmenter(opts Options, buf *SessionBuffer) *Segmenter {
	return &Segmenter{
		opts:     opts,
		buf:      buf,
		frameDur: opts.FrameDuration(),
		state:    StateIdle,
	}
}

// State returns the current segmentation state.
func (g *Segmenter) State() State { return g.state }

// Buffer returns the session buffer the segmenter appends to.
func (g *Segmenter) Buffer() *SessionBuffer { return g.buf }

// Start begins the session. With VAD disabled there is nothing to wait
// for, so recording starts immediately.
func (g *Segmenter) Start() {
	if g.state != StateIdle {
		return
	}
	if g.opts.VADEnabled {
		g.state = StateWaitingForSpeech
	} else {
		g.state = StateRecording
	}
}

// Feed processes one classified frame and returns the resulting state.
// Frames arriving after a terminal state are ignored.
func (g *Segmenter) Feed(f ClassifiedFrame) State {
	if g.state == StateIdle || g.state.Terminal() {
		return g.state
	}

	// Ceiling first: authoritative over everything below.
	if g.buf.Duration()+g.frameDur > g.opts.MaxDuration {
		g.state = StateFinished
		return g.state
	}

	if !g.opts.VADEnabled {
		g.buf.Append(f.PCM)
		return g.state
	}

	switch g.state {
	case StateWaitingForSpeech:
		if f.Speech {
			g.sawSpeech = true
			// Pre-roll must not push the buffer past the ceiling.
			maxPre := int(g.opts.MaxDuration/g.frameDur) - 1
			if maxPre < 0 {
				maxPre = 0
			}
			if len(g.preRoll) > maxPre {
				g.preRoll = g.preRoll[len(g.preRoll)-maxPre:]
			}
			for _, pcm := range g.preRoll {
				g.buf.Append(pcm)
			}
			g.preRoll = nil
			g.buf.Append(f.PCM)
			g.state = StateRecording
			break
		}
		if g.opts.PreRollFrames > 0 {
			g.preRoll = append(g.preRoll, f.PCM)
			if len(g.preRoll) > g.opts.PreRollFrames {
				g.preRoll = g.preRoll[1:]
			}
		}
		g.waited += g.frameDur
		if g.opts.NoSpeechTimeout > 0 && g.waited >= g.opts.NoSpeechTimeout {
			g.state = StateFinished
		}

	case StateRecording:
		g.buf.Append(f.PCM)
		if f.Speech {
			g.silenceRun = 0
			break
		}
		g.silenceRun += g.frameDur
		if g.silenceRun >= g.opts.Hangover {
			if g.opts.HangoverGrace == 0 {
				g.state = StateFinished
				break
			}
			g.trimMark = g.buf.Len()
			g.graceRun = 0
			g.state = StateTrailingSilence
		}

	case StateTrailingSilence:
		g.buf.Append(f.PCM)
		if f.Speech {
			g.silenceRun = 0
			g.trimMark = 0
			g.state = StateRecording
			break
		}
		g.graceRun += g.frameDur
		if g.graceRun >= g.opts.HangoverGrace {
			g.buf.TruncateTo(g.trimMark)
			g.state = StateFinished
		}
	}
	return g.state
}

// Finish ends the session from outside (explicit stop). The buffer keeps
// everything appended so far, trailing silence included.
func (g *Segmenter) Finish() {
	if !g.state.Terminal() {
		g.state = StateFinished
	}
}

// Cancel aborts the session. Buffered audio is retained but the outcome is
// OutcomeCancelled.
func (g *Segmenter) Cancel() {
	if !g.state.Terminal() {
		g.state = StateCancelled
	}
}

// Outcome reports how the session ended. Only meaningful once the state is
// terminal.
func (g *Segmenter) Outcome() Outcome {
	if g.state == StateCancelled {
		return OutcomeCancelled
	}
	if g.opts.VADEnabled && !g.sawSpeech {
		return OutcomeNoSpeech
	}
	return OutcomeSegment
}
