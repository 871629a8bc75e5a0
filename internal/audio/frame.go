// Package audio implements microphone capture and voice-activity-driven
// segmentation: a session records until the speaker stops talking (or a
// duration ceiling hits) and yields one finalized PCM segment.
package audio

import (
	"fmt"
	"time"
)

// Classifier engines.
const (
	EngineWebRTC = "webrtc"
	EngineEnergy = "energy"
)

// Frame is one fixed-duration chunk of mono 16-bit PCM in capture order.
type Frame struct {
	PCM      []int16
	Seq      uint64
	Captured time.Time
}

// ClassifiedFrame pairs a frame with its speech verdict. Immutable once
// produced.
type ClassifiedFrame struct {
	Frame
	Speech bool
}

// ConfigurationError reports an invalid option combination. It is raised at
// session start, never per frame.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "audio config: " + e.Reason
}

// DeviceError wraps a fatal audio device failure. It ends the current
// session; the caller decides whether to start a new one.
type DeviceError struct {
	Err error
}

func (e *DeviceError) Error() string {
	return "audio device: " + e.Err.Error()
}

func (e *DeviceError) Unwrap() error { return e.Err }

// Options configures one recording session. It is resolved once at session
// start and read-only afterwards.
type Options struct {
	Device     string
	SampleRate int
	FrameMS    int

	VADEnabled     bool
	Engine         string // webrtc (default) or energy
	Aggressiveness int    // 0 (quality) .. 3 (aggressive)

	Hangover        time.Duration // continuous silence required to end speech
	HangoverGrace   time.Duration // extra silence buffered past the hangover
	MaxDuration     time.Duration // hard ceiling on buffered audio
	NoSpeechTimeout time.Duration // give up waiting for first speech; 0 = never

	PreRollFrames int
	QueueDepth    int

	// Language is passed through untouched to the transcription client.
	Language string
}

// FrameSamples returns samples per frame.
func (o Options) FrameSamples() int {
	return o.SampleRate * o.FrameMS / 1000
}

// FrameDuration returns the wall duration of one frame.
func (o Options) FrameDuration() time.Duration {
	return time.Duration(o.FrameMS) * time.Millisecond
}

// Validate checks the option combination. All failures are
// *ConfigurationError and fatal to the start attempt only.
func (o Options) Validate() error {
	if o.FrameMS != 10 && o.FrameMS != 20 && o.FrameMS != 30 {
		return &ConfigurationError{Reason: fmt.Sprintf("frame_ms must be 10, 20, or 30 (got %d)", o.FrameMS)}
	}
	switch o.SampleRate {
	case 8000, 16000, 32000, 48000:
	default:
		return &ConfigurationError{Reason: fmt.Sprintf("sample_rate must be 8k/16k/32k/48k (got %d)", o.SampleRate)}
	}
	if o.MaxDuration <= 0 {
		return &ConfigurationError{Reason: "max duration must be positive"}
	}
	if o.VADEnabled {
		if o.Hangover <= 0 {
			return &ConfigurationError{Reason: "silence hangover must be positive when vad is enabled"}
		}
		if o.HangoverGrace < 0 {
			return &ConfigurationError{Reason: "hangover grace must not be negative"}
		}
		if o.Aggressiveness < 0 || o.Aggressiveness > 3 {
			return &ConfigurationError{Reason: fmt.Sprintf("aggressiveness must be 0..3 (got %d)", o.Aggressiveness)}
		}
	}
	if o.PreRollFrames < 0 {
		return &ConfigurationError{Reason: "pre-roll frame count must not be negative"}
	}
	if o.NoSpeechTimeout < 0 {
		return &ConfigurationError{Reason: "no-speech timeout must not be negative"}
	}
	return nil
}
