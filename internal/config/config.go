package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

const (
	defaultEndpoint      = "https://chutes-whisper-large-v3.chutes.ai/transcribe"
	defaultSilenceMS     = 1200
	defaultGraceMS       = 100
	defaultStateDirLinux = ".local/state/omnivocal"
	defaultConfigDir     = ".config/omnivocal"
	envPrefix            = "OMNIVOCAL"
)

// Config holds user configuration loaded from TOML.
type Config struct {
	Chutes struct {
		APIKey         string `toml:"api_key"`
		Endpoint       string `toml:"endpoint"`
		TimeoutSeconds int    `toml:"timeout_seconds"`
		MaxRetries     int    `toml:"max_retries"`
		Language       string `toml:"language"`
	} `toml:"chutes"`

	Recording struct {
		DeviceName string `toml:"device_name"`
		SampleRate int    `toml:"sample_rate"`
		FrameMS    int    `toml:"frame_ms"`
		MaxSeconds int    `toml:"max_seconds"`
		TempDir    string `toml:"temp_dir"`
		QueueDepth int    `toml:"queue_depth"`
	} `toml:"recording"`

	VAD struct {
		Enabled        bool   `toml:"enabled"`
		Engine         string `toml:"engine"` // webrtc, energy
		SilenceMS      int    `toml:"silence_ms"`
		GraceMS        int    `toml:"grace_ms"`
		NoSpeechMS     int    `toml:"no_speech_ms"`
		Aggressiveness int    `toml:"aggressiveness"` // 0-3, higher = more aggressive
		PreRollFrames  int    `toml:"pre_roll_frames"`
	} `toml:"vad"`

	Clipboard struct {
		Enabled bool   `toml:"enabled"`
		Command string `toml:"command"`
	} `toml:"clipboard"`

	Notifications struct {
		Enabled bool   `toml:"enabled"`
		Command string `toml:"command"`
		Title   string `toml:"title"`
	} `toml:"notifications"`

	UI struct {
		ShowSegments bool `toml:"show_segments"`
		AutoCopy     bool `toml:"auto_copy"`
	} `toml:"ui"`

	Logging struct {
		Level  string `toml:"level"`  // debug, info, warn, error
		Format string `toml:"format"` // text, json
		Stdout bool   `toml:"stdout"`
	} `toml:"logging"`

	Paths struct {
		StateDir   string `toml:"state_dir"`
		LogPath    string `toml:"log_path"`
		ConfigPath string `toml:"-"`
	} `toml:"paths"`
}

// Default returns Config populated with defaults.
func Default() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	stateDir := filepath.Join(home, defaultStateDirLinux)
	if isMac() {
		stateDir = filepath.Join(home, "Library", "Application Support", "omnivocal")
	}

	cfg := &Config{}

	cfg.Chutes.Endpoint = defaultEndpoint
	cfg.Chutes.TimeoutSeconds = 30
	cfg.Chutes.MaxRetries = 3

	cfg.Recording.SampleRate = 16000
	cfg.Recording.FrameMS = 20
	cfg.Recording.MaxSeconds = 180
	cfg.Recording.TempDir = filepath.Join(os.TempDir(), "omnivocal")
	cfg.Recording.QueueDepth = 16

	cfg.VAD.Enabled = true
	cfg.VAD.Engine = "webrtc"
	cfg.VAD.SilenceMS = defaultSilenceMS
	cfg.VAD.GraceMS = defaultGraceMS
	cfg.VAD.NoSpeechMS = 10000
	cfg.VAD.Aggressiveness = 2
	cfg.VAD.PreRollFrames = 5

	cfg.Clipboard.Enabled = true
	cfg.Clipboard.Command = "wl-copy"

	cfg.Notifications.Enabled = true
	cfg.Notifications.Command = "notify-send"
	cfg.Notifications.Title = "Omnivocal"

	cfg.UI.AutoCopy = true

	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"

	cfg.Paths.StateDir = stateDir
	cfg.Paths.LogPath = filepath.Join(stateDir, "omnivocal.log")

	return cfg, nil
}

// Load loads config from file, applying defaults. A missing file is written
// out as a template first.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	if path == "" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, defaultConfigDir, "config.toml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, err
			}
			if err := Save(cfg, path); err != nil {
				return nil, err
			}
			cfg.Paths.ConfigPath = path
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Paths.ConfigPath = path
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Save writes cfg to path.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o600)
}

// Set assigns a configuration value by "section.option" name, coercing the
// string form to the field's type.
func Set(cfg *Config, key, value string) error {
	section, option, ok := strings.Cut(key, ".")
	if !ok || section == "" || option == "" {
		return fmt.Errorf("key must be in section.option format")
	}
	// Round-trip through TOML so field lookup and coercion follow the
	// same tags used for files.
	doc := map[string]map[string]any{section: {option: parseScalar(value)}}
	patch, err := toml.Marshal(doc)
	if err != nil {
		return err
	}
	if err := toml.Unmarshal(patch, cfg); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func parseScalar(v string) any {
	switch strings.ToLower(v) {
	case "true", "yes", "on":
		return true
	case "false", "no", "off":
		return false
	}
	var i int64
	if _, err := fmt.Sscanf(v, "%d", &i); err == nil && fmt.Sprintf("%d", i) == v {
		return i
	}
	return v
}

func isMac() bool {
	return runtime.GOOS == "darwin"
}

// MustStatePaths ensures state dirs exist.
func MustStatePaths(cfg *Config) error {
	for _, p := range []string{cfg.Paths.StateDir, filepath.Dir(cfg.Paths.LogPath), cfg.Recording.TempDir} {
		if p == "" {
			continue
		}
		if err := os.MkdirAll(p, 0o755); err != nil {
			return err
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(envPrefix + "_API_KEY"); v != "" {
		cfg.Chutes.APIKey = v
	}
	if v := os.Getenv(envPrefix + "_ENDPOINT"); v != "" {
		cfg.Chutes.Endpoint = v
	}
	if v := os.Getenv(envPrefix + "_LANGUAGE"); v != "" {
		cfg.Chutes.Language = v
	}
	if v := os.Getenv(envPrefix + "_VAD_ENABLED"); v != "" {
		cfg.VAD.Enabled = envBool(v)
	}
	if v := os.Getenv(envPrefix + "_VAD_ENGINE"); v != "" {
		cfg.VAD.Engine = v
	}
	if v := os.Getenv(envPrefix + "_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv(envPrefix + "_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv(envPrefix + "_CLIPBOARD_ENABLED"); v != "" {
		cfg.Clipboard.Enabled = envBool(v)
	}
	if v := os.Getenv(envPrefix + "_NOTIFY_ENABLED"); v != "" {
		cfg.Notifications.Enabled = envBool(v)
	}
}

func envBool(v string) bool {
	return v != "0" && strings.ToLower(v) != "false"
}
