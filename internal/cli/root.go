// Package cli wires the ovstt command tree.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the ovstt root command.
func NewRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "ovstt",
		Short: "Omnivocal speech-to-text via the Chutes Whisper API",
		Long: `Omnivocal records from your microphone, detects when you stop talking,
and sends the captured audio to the Chutes Whisper API for transcription.
The result is printed and (optionally) copied to your clipboard.

Key commands:
  once                 Record one utterance and transcribe it
  config show|path|edit|set Inspect or change configuration
  mic list|set         Select the input device
  doctor               Check dependencies and config
  test-api             Verify Chutes API connectivity
  status               Show configuration status

Env overrides: OMNIVOCAL_API_KEY, OMNIVOCAL_ENDPOINT, OMNIVOCAL_LANGUAGE,
               OMNIVOCAL_VAD_ENABLED, OMNIVOCAL_VAD_ENGINE,
               OMNIVOCAL_LOG_LEVEL/FORMAT, OMNIVOCAL_CLIPBOARD_ENABLED,
               OMNIVOCAL_NOTIFY_ENABLED`,
		Example: `  ovstt once --language en
  ovstt once --no-vad
  ovstt config set vad.silence_ms 900
  ovstt mic list
  ovstt doctor`,
		DisableFlagsInUseLine: true,
	}

	root.Version = version
	root.SetVersionTemplate("Omnivocal v{{.Version}}\n")
	root.CompletionOptions.DisableDefaultCmd = true

	cfgPath := root.PersistentFlags().StringP("config", "c", "", "Path to config file (TOML). Defaults to ~/.config/omnivocal/config.toml")

	root.AddCommand(newOnceCmd(cfgPath))
	root.AddCommand(newConfigCmd(cfgPath))
	root.AddCommand(newMicCmd(cfgPath))
	root.AddCommand(newDoctorCmd(cfgPath))
	root.AddCommand(newTestAPICmd(cfgPath))
	root.AddCommand(newStatusCmd(cfgPath))

	applyColorHelp(root, version)

	return root
}

func applyColorHelp(root *cobra.Command, version string) {
	const (
		boldBlue = "\033[1;34m"
		green    = "\033[32m"
		bold     = "\033[1m"
		dim      = "\033[2m"
		reset    = "\033[0m"
	)
	root.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		write := func(format string, args ...any) { _, _ = fmt.Fprintf(out, format, args...) }
		writeln := func(line string) { _, _ = fmt.Fprintln(out, line) }

		write("%sOmnivocal%s speech-to-text for the Chutes Whisper API %s(v%s)%s\n", boldBlue, reset, dim, version, reset)
		write("%sRecords from your mic, stops when you stop talking, transcribes remotely.%s\n\n", dim, reset)

		write("%sUsage%s\n", bold, reset)
		write("  ovstt [command] [flags]\n\n")

		write("%sKey commands%s\n", bold, reset)
		writeln("  once                    record one utterance and transcribe it")
		writeln("  config show|path|edit|set   inspect or change configuration")
		writeln("  mic list|set            select input device")
		writeln("  doctor                  check deps/config/portaudio")
		writeln("  test-api                verify Chutes API connectivity")
		writeln("  status                  show configuration status")
		writeln("")

		write("%sNotable flags & env%s\n", bold, reset)
		writeln("  --language <code>       language hint for transcription")
		writeln("  --no-vad                record until Ctrl+C instead of auto-stop")
		writeln("  -c, --config <path>     config file (default ~/.config/omnivocal/config.toml)")
		writeln("  Env: OMNIVOCAL_API_KEY, OMNIVOCAL_ENDPOINT, OMNIVOCAL_LANGUAGE,")
		writeln("       OMNIVOCAL_VAD_ENABLED=0, OMNIVOCAL_VAD_ENGINE=energy,")
		writeln("       OMNIVOCAL_LOG_LEVEL=debug, OMNIVOCAL_LOG_FORMAT=json")
		writeln("")

		write("%sExamples%s\n", bold, reset)
		writeln("  ovstt once --language en")
		writeln("  ovstt once --no-vad --keep-wav")
		writeln("  ovstt config set vad.silence_ms 900")
		writeln("  ovstt mic list")
		writeln("  ovstt doctor")
		writeln("")

		write("%sCommands%s\n", bold, reset)
		for _, c := range cmd.Commands() {
			if c.Hidden {
				continue
			}
			write("  %s%-15s%s %s\n", green, c.Name(), reset, c.Short)
		}
	})
}
