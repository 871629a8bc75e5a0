//go:build mic

package audio

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
)

// OpenMic opens the default (or configured) input device via PortAudio.
func OpenMic(opts Options) (Source, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, &DeviceError{Err: fmt.Errorf("portaudio init: %w", err)}
	}
	dev, err := selectDevice(opts.Device)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, &DeviceError{Err: err}
	}

	buf := make([]int16, opts.FrameSamples())
	stream, err := portaudio.OpenStream(portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: 1,
			Latency:  dev.DefaultLowInputLatency,
		},
		SampleRate:      float64(opts.SampleRate),
		FramesPerBuffer: opts.FrameSamples(),
	}, &buf)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, &DeviceError{Err: fmt.Errorf("open stream: %w", err)}
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return nil, &DeviceError{Err: fmt.Errorf("start stream: %w", err)}
	}
	return &micSource{stream: stream, buf: buf}, nil
}

type micSource struct {
	stream *portaudio.Stream
	buf    []int16
	seq    uint64

	closeOnce sync.Once
	closeErr  error
}

func (s *micSource) Read() (Frame, error) {
	// Overflow means the device outpaced us for one buffer; the frame is
	// still valid, so keep it.
	if err := s.stream.Read(); err != nil && !errors.Is(err, portaudio.InputOverflowed) {
		return Frame{}, &DeviceError{Err: fmt.Errorf("stream read: %w", err)}
	}
	pcm := make([]int16, len(s.buf))
	copy(pcm, s.buf)
	s.seq++
	return Frame{PCM: pcm, Seq: s.seq, Captured: time.Now()}, nil
}

func (s *micSource) Close() error {
	s.closeOnce.Do(func() {
		if err := s.stream.Stop(); err != nil {
			s.closeErr = err
		}
		if err := s.stream.Close(); err != nil && s.closeErr == nil {
			s.closeErr = err
		}
		if err := portaudio.Terminate(); err != nil && s.closeErr == nil {
			s.closeErr = err
		}
	})
	return s.closeErr
}

// ListDevices returns the names of available input devices, with the
// default first-marked.
func ListDevices() ([]DeviceInfo, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init: %w", err)
	}
	defer func() { _ = portaudio.Terminate() }()

	devs, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	def := portaudio.DefaultInputDevice()
	out := []DeviceInfo{}
	for i, d := range devs {
		if d.MaxInputChannels < 1 {
			continue
		}
		out = append(out, DeviceInfo{
			Index:     i,
			Name:      d.Name,
			Channels:  d.MaxInputChannels,
			LatencyMS: d.DefaultLowInputLatency.Seconds() * 1000,
			Default:   def != nil && d.Name == def.Name,
		})
	}
	return out, nil
}

func selectDevice(preferred string) (*portaudio.DeviceInfo, error) {
	devs, err := portaudio.Devices()
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	if preferred != "" {
		for _, d := range devs {
			if d.MaxInputChannels > 0 && strings.Contains(strings.ToLower(d.Name), strings.ToLower(preferred)) {
				return d, nil
			}
		}
	}
	if def := portaudio.DefaultInputDevice(); def != nil {
		return def, nil
	}
	for _, d := range devs {
		if d.MaxInputChannels > 0 {
			return d, nil
		}
	}
	return nil, fmt.Errorf("no input devices found")
}
