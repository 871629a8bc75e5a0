//go:build !mic

package audio

import "fmt"

// OpenMic is unavailable without the mic build tag (PortAudio required).
func OpenMic(_ Options) (Source, error) {
	return nil, fmt.Errorf("microphone capture requires a build with '-tags mic' (PortAudio)")
}

// ListDevices is unavailable without the mic build tag.
func ListDevices() ([]DeviceInfo, error) {
	return nil, fmt.Errorf("device listing requires a build with '-tags mic' (PortAudio)")
}
