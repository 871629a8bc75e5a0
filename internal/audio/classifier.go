package audio

import (
	"fmt"
	"math"
)

// Classifier decides whether one frame contains speech. Implementations may
// keep frame-rate-dependent internal history but never share it across
// sessions: every session gets a fresh instance.
type Classifier interface {
	Classify(pcm []int16) (bool, error)
}

// NewClassifier builds a fresh classifier for one session.
func NewClassifier(opts Options) (Classifier, error) {
	switch opts.Engine {
	case "", EngineWebRTC:
		return newWebRTCClassifier(opts)
	case EngineEnergy:
		return newEnergyClassifier(opts), nil
	default:
		return nil, &ConfigurationError{Reason: fmt.Sprintf("unknown vad engine %q", opts.Engine)}
	}
}

// energyClassifier is a pure-Go RMS detector with hysteresis so transient
// noise does not flicker the verdict.
type energyClassifier struct {
	speechThreshold  float64 // RMS level to start speech
	silenceThreshold float64 // RMS level to end speech
	speechFrames     int     // consecutive frames needed to trigger
	silenceFrames    int     // consecutive frames needed to end

	inSpeech     bool
	speechCount  int
	silenceCount int
}

func newEnergyClassifier(opts Options) *energyClassifier {
	// Higher aggressiveness demands louder input before triggering.
	scale := 1.0 + 0.5*float64(opts.Aggressiveness)
	return &energyClassifier{
		speechThreshold:  0.015 * scale,
		silenceThreshold: 0.008 * scale,
		speechFrames:     2,
		silenceFrames:    4,
	}
}

func (c *energyClassifier) Classify(pcm []int16) (bool, error) {
	level := rms(pcm)

	if c.inSpeech {
		if level < c.silenceThreshold {
			c.silenceCount++
			if c.silenceCount >= c.silenceFrames {
				c.inSpeech = false
				c.silenceCount = 0
			}
		} else {
			c.silenceCount = 0
		}
	} else {
		if level >= c.speechThreshold {
			c.speechCount++
			if c.speechCount >= c.speechFrames {
				c.inSpeech = true
				c.speechCount = 0
			}
		} else {
			c.speechCount = 0
		}
	}
	return c.inSpeech, nil
}

func rms(pcm []int16) float64 {
	if len(pcm) == 0 {
		return 0
	}
	var sum float64
	for _, s := range pcm {
		f := float64(s) / 32768.0
		sum += f * f
	}
	return math.Sqrt(sum / float64(len(pcm)))
}
