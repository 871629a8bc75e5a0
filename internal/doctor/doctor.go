package doctor

import (
	"net/url"
	"os"
	"os/exec"
	"strings"

	"github.com/SmokySkyline/chutes-omnivocal-public/internal/config"

	"github.com/google/shlex"
)

// Result represents a diagnostic check.
type Result struct {
	Name   string
	Pass   bool
	Detail string
}

// Run executes doctor checks.
func Run(cfg *config.Config) []Result {
	results := []Result{
		checkFile("config path", cfg.Paths.ConfigPath),
		checkAPIKey(cfg),
		checkEndpoint(cfg),
		checkCommand("clipboard", cfg.Clipboard.Enabled, cfg.Clipboard.Command),
		checkCommand("notifications", cfg.Notifications.Enabled, cfg.Notifications.Command),
		checkStateDir(cfg),
	}
	results = append(results, checkPortAudio())
	return results
}

func checkFile(label, path string) Result {
	if path == "" {
		return Result{Name: label, Pass: false, Detail: "not set"}
	}
	if _, err := os.Stat(os.ExpandEnv(path)); err != nil {
		return Result{Name: label, Pass: false, Detail: err.Error()}
	}
	return Result{Name: label, Pass: true, Detail: path}
}

func checkAPIKey(cfg *config.Config) Result {
	if strings.TrimSpace(cfg.Chutes.APIKey) == "" {
		return Result{Name: "api key", Pass: false, Detail: "chutes.api_key is not set (or OMNIVOCAL_API_KEY)"}
	}
	return Result{Name: "api key", Pass: true, Detail: "set"}
}

func checkEndpoint(cfg *config.Config) Result {
	u, err := url.Parse(cfg.Chutes.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Result{Name: "endpoint", Pass: false, Detail: "chutes.endpoint is not a valid URL"}
	}
	return Result{Name: "endpoint", Pass: true, Detail: cfg.Chutes.Endpoint}
}

func checkCommand(label string, enabled bool, command string) Result {
	if !enabled {
		return Result{Name: label, Pass: true, Detail: "disabled"}
	}
	fields, err := shlex.Split(command)
	if err != nil || len(fields) == 0 {
		return Result{Name: label, Pass: false, Detail: "command not set"}
	}
	name := fields[0]
	if strings.Contains(name, "/") {
		info, err := os.Stat(name)
		if err != nil {
			return Result{Name: label, Pass: false, Detail: err.Error()}
		}
		if info.IsDir() || info.Mode().Perm()&0o111 == 0 {
			return Result{Name: label, Pass: false, Detail: "not an executable file"}
		}
		return Result{Name: label, Pass: true, Detail: name}
	}
	resolved, err := exec.LookPath(name)
	if err != nil {
		return Result{Name: label, Pass: false, Detail: err.Error()}
	}
	return Result{Name: label, Pass: true, Detail: resolved}
}

func checkStateDir(cfg *config.Config) Result {
	if err := config.MustStatePaths(cfg); err != nil {
		return Result{Name: "state dir", Pass: false, Detail: err.Error()}
	}
	return Result{Name: "state dir", Pass: true, Detail: cfg.Paths.StateDir}
}
