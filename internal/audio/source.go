package audio

// Source delivers PCM frames from an audio input in strict capture order.
// Read blocks until the next frame is available and returns io.EOF once the
// source is closed; any other failure is a *DeviceError. Close releases the
// underlying device and is safe to call more than once.
type Source interface {
	Read() (Frame, error)
	Close() error
}

// SourceOpener opens a Source for one session. Opening acquires an
// exclusive hold on the input device.
type SourceOpener func(opts Options) (Source, error)

// DeviceInfo describes one input device.
type DeviceInfo struct {
	Index     int     `json:"index"`
	Name      string  `json:"name"`
	Channels  int     `json:"channels"`
	LatencyMS float64 `json:"latency_ms"`
	Default   bool    `json:"default"`
}
