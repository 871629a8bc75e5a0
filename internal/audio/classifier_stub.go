//go:build !mic

package audio

func newWebRTCClassifier(_ Options) (Classifier, error) {
	return nil, &ConfigurationError{
		Reason: "webrtc vad requires a build with '-tags mic'; set vad.engine = \"energy\" or rebuild",
	}
}
