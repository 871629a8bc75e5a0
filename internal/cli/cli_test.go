package cli

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/SmokySkyline/chutes-omnivocal-public/internal/config"
)

func TestRecorderOptionsMapping(t *testing.T) {
	cfg, err := config.Default()
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	cfg.VAD.SilenceMS = 800
	cfg.VAD.GraceMS = 100
	cfg.Recording.MaxSeconds = 30
	cfg.VAD.NoSpeechMS = 5000
	cfg.Chutes.Language = "de"

	opts := recorderOptions(cfg)
	if err := opts.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if opts.Hangover != 800*time.Millisecond {
		t.Fatalf("hangover %v", opts.Hangover)
	}
	if opts.HangoverGrace != 100*time.Millisecond {
		t.Fatalf("grace %v", opts.HangoverGrace)
	}
	if opts.MaxDuration != 30*time.Second {
		t.Fatalf("max duration %v", opts.MaxDuration)
	}
	if opts.NoSpeechTimeout != 5*time.Second {
		t.Fatalf("no-speech timeout %v", opts.NoSpeechTimeout)
	}
	if opts.Language != "de" {
		t.Fatalf("language %q", opts.Language)
	}
}

func TestConfigSetCommandPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	root := NewRootCmd("test")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"--config", path, "config", "set", "vad.silence_ms", "640"})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v\n%s", err, out.String())
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.VAD.SilenceMS != 640 {
		t.Fatalf("silence_ms = %d", cfg.VAD.SilenceMS)
	}
}

func TestConfigShowRedactsAPIKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, _ := config.Default()
	cfg.Chutes.APIKey = "super-secret"
	if err := config.Save(cfg, path); err != nil {
		t.Fatalf("save: %v", err)
	}

	root := NewRootCmd("test")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"--config", path, "config", "show"})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if bytes.Contains(out.Bytes(), []byte("super-secret")) {
		t.Fatalf("api key leaked in config show output")
	}
}

func TestConfigEditSpawnsEditor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	root := NewRootCmd("test")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"--config", path, "config", "edit", "--editor", "/bin/true"})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v\n%s", err, out.String())
	}
}

func TestConfigEditFailsWithoutEditor(t *testing.T) {
	t.Setenv("VISUAL", "")
	t.Setenv("EDITOR", "")
	t.Setenv("PATH", t.TempDir()) // hide nano/vi

	path := filepath.Join(t.TempDir(), "config.toml")
	root := NewRootCmd("test")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"--config", path, "config", "edit"})
	if err := root.Execute(); err == nil {
		t.Fatalf("expected error with no editor available")
	}
}

func TestDefaultEditorPrefersVisual(t *testing.T) {
	t.Setenv("VISUAL", "visual-editor")
	t.Setenv("EDITOR", "plain-editor")
	if got := defaultEditor(); got != "visual-editor" {
		t.Fatalf("editor %q, want VISUAL to win", got)
	}
	t.Setenv("VISUAL", "")
	if got := defaultEditor(); got != "plain-editor" {
		t.Fatalf("editor %q, want EDITOR fallback", got)
	}
}

func TestStatusCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	root := NewRootCmd("test")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"--config", path, "status"})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !bytes.Contains(out.Bytes(), []byte("api key:  not set")) {
		t.Fatalf("status output missing api key line:\n%s", out.String())
	}
}
