//go:build mic

package audio

import (
	"encoding/binary"
	"fmt"

	vad "github.com/maxhawkins/go-webrtcvad"
)

// webrtcClassifier wraps the WebRTC voice activity detector.
type webrtcClassifier struct {
	v       *vad.VAD
	rate    int
	scratch []byte
}

func newWebRTCClassifier(opts Options) (Classifier, error) {
	if ok := vad.ValidRateAndFrameLength(opts.SampleRate, opts.FrameSamples()); !ok {
		return nil, &ConfigurationError{
			Reason: fmt.Sprintf("frame_ms %d not valid for sample_rate %d", opts.FrameMS, opts.SampleRate),
		}
	}
	v, err := vad.New()
	if err != nil {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("webrtc vad: %v", err)}
	}
	if err := v.SetMode(opts.Aggressiveness); err != nil {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("vad mode %d: %v", opts.Aggressiveness, err)}
	}
	return &webrtcClassifier{
		v:       v,
		rate:    opts.SampleRate,
		scratch: make([]byte, 2*opts.FrameSamples()),
	}, nil
}

func (c *webrtcClassifier) Classify(pcm []int16) (bool, error) {
	if len(pcm)*2 != len(c.scratch) {
		return false, fmt.Errorf("unexpected frame length %d", len(pcm))
	}
	for i, s := range pcm {
		binary.LittleEndian.PutUint16(c.scratch[2*i:], uint16(s))
	}
	return c.v.Process(c.rate, c.scratch)
}
