//go:build !mic

package doctor

import "os/exec"

func checkPortAudio() Result {
	if _, err := exec.LookPath("pkg-config"); err != nil {
		return Result{Name: "portaudio", Pass: false, Detail: "pkg-config not found; cannot probe portaudio"}
	}
	if err := exec.Command("pkg-config", "--exists", "portaudio-2.0").Run(); err != nil {
		return Result{Name: "portaudio", Pass: false, Detail: "portaudio-2.0 not found (install portaudio and rebuild with -tags mic)"}
	}
	return Result{Name: "portaudio", Pass: true, Detail: "library present; rebuild with -tags mic to capture"}
}
