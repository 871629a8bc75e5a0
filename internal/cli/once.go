package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/SmokySkyline/chutes-omnivocal-public/internal/api"
	"github.com/SmokySkyline/chutes-omnivocal-public/internal/audio"
	"github.com/SmokySkyline/chutes-omnivocal-public/internal/config"
	"github.com/SmokySkyline/chutes-omnivocal-public/internal/logging"
	"github.com/SmokySkyline/chutes-omnivocal-public/internal/ui"

	"github.com/spf13/cobra"
)

// Segments shorter than this are almost certainly breath noise; skip the
// round-trip to the API.
const minSegmentDuration = 300 * time.Millisecond

func newOnceCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "once",
		Short: "Record one utterance and transcribe it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			logger, err := logging.Configure(cfg)
			if err != nil {
				return err
			}

			noVAD, _ := cmd.Flags().GetBool("no-vad")
			auto, _ := cmd.Flags().GetBool("auto")
			keepWAV, _ := cmd.Flags().GetBool("keep-wav")
			tempDir, _ := cmd.Flags().GetString("temp-dir")
			language, _ := cmd.Flags().GetString("language")
			if language == "" {
				language = cfg.Chutes.Language
			}

			opts := recorderOptions(cfg)
			opts.Language = language
			if noVAD {
				opts.VADEnabled = false
			}

			notifier := ui.NewNotifier(cfg, logger)
			clipboard := ui.NewClipboard(cfg, logger)

			// Ctrl+C cancels the session; the partial buffer is
			// discarded with a message rather than transcribed.
			ctx, stopSignals := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stopSignals()

			rec := audio.New(audio.OpenMic, logger)
			session, err := rec.Start(ctx, opts)
			if err != nil {
				return err
			}
			if opts.VADEnabled {
				cmd.Println("Recording... (stops automatically when you stop talking)")
			} else {
				cmd.Println("Recording... (press Ctrl+C to stop)")
			}
			notifier.Send(ctx, "Recording started")

			res, err := session.Wait(context.Background())
			stopSignals()
			if err != nil {
				return err
			}

			switch res.Outcome {
			case audio.OutcomeNoSpeech:
				notifier.Send(context.Background(), "No speech detected")
				cmd.Println("No speech detected.")
				return nil
			case audio.OutcomeCancelled:
				cmd.Println("Recording cancelled.")
				return nil
			}

			seg := res.Segment
			logger.Infof("captured %s of audio (%d samples)", seg.Duration(), seg.Samples)
			if seg.Duration() < minSegmentDuration {
				notifier.Send(context.Background(), "No speech detected")
				cmd.Println("Segment too short; skipping transcription.")
				return nil
			}

			dir := tempDir
			if dir == "" {
				dir = cfg.Recording.TempDir
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
			wavPath := filepath.Join(dir, fmt.Sprintf("omnivocal-%s.wav", time.Now().UTC().Format("20060102T150405")))
			if err := seg.WriteWAV(wavPath); err != nil {
				return err
			}
			if !keepWAV {
				defer func() { _ = os.Remove(wavPath) }()
			}

			cmd.Println("Transcribing...")
			notifier.Send(context.Background(), "Transcribing audio")
			client := api.New(cfg, logger)
			result, err := client.TranscribeFile(context.Background(), wavPath, seg.Language)
			if err != nil {
				return err
			}

			cmd.Println(result.Text)
			if cfg.UI.ShowSegments {
				for _, s := range result.Segments {
					cmd.Printf("  [%6.2fs – %6.2fs] %s\n", s.Start, s.End, s.Text)
				}
			}
			if auto || cfg.UI.AutoCopy {
				if err := clipboard.Copy(context.Background(), result.Text); err != nil {
					logger.Warnf("clipboard: %v", err)
				}
			}
			notifier.Send(context.Background(), "Transcription complete")
			return nil
		},
	}
	cmd.Flags().String("language", "", "Language hint for transcription")
	cmd.Flags().String("temp-dir", "", "Temporary directory override")
	cmd.Flags().Bool("auto", false, "Copy result to clipboard")
	cmd.Flags().Bool("no-vad", false, "Disable voice activity detection")
	cmd.Flags().Bool("keep-wav", false, "Keep the recorded WAV file")
	return cmd
}

// recorderOptions maps the configuration file onto session options.
func recorderOptions(cfg *config.Config) audio.Options {
	return audio.Options{
		Device:          cfg.Recording.DeviceName,
		SampleRate:      cfg.Recording.SampleRate,
		FrameMS:         cfg.Recording.FrameMS,
		VADEnabled:      cfg.VAD.Enabled,
		Engine:          cfg.VAD.Engine,
		Aggressiveness:  cfg.VAD.Aggressiveness,
		Hangover:        time.Duration(cfg.VAD.SilenceMS) * time.Millisecond,
		HangoverGrace:   time.Duration(cfg.VAD.GraceMS) * time.Millisecond,
		MaxDuration:     time.Duration(cfg.Recording.MaxSeconds) * time.Second,
		NoSpeechTimeout: time.Duration(cfg.VAD.NoSpeechMS) * time.Millisecond,
		PreRollFrames:   cfg.VAD.PreRollFrames,
		QueueDepth:      cfg.Recording.QueueDepth,
		Language:        cfg.Chutes.Language,
	}
}
