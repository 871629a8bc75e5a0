// Package ui delivers transcription results to the desktop: clipboard and
// notification commands configured by the user.
package ui

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/SmokySkyline/chutes-omnivocal-public/internal/config"

	"github.com/google/shlex"
	"github.com/sirupsen/logrus"
)

const commandTimeout = 5 * time.Second

// Clipboard copies text by piping it to the configured command
// (wl-copy, xclip, pbcopy, ...).
type Clipboard struct {
	enabled bool
	command string
	logger  *logrus.Logger
}

func NewClipboard(cfg *config.Config, logger *logrus.Logger) *Clipboard {
	return &Clipboard{
		enabled: cfg.Clipboard.Enabled,
		command: cfg.Clipboard.Command,
		logger:  logger,
	}
}

// Copy pipes text into the clipboard command's stdin.
func (c *Clipboard) Copy(ctx context.Context, text string) error {
	if !c.enabled {
		return nil
	}
	name, args, err := splitCommand(c.command)
	if err != nil {
		return fmt.Errorf("clipboard command: %w", err)
	}
	runCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()
	cmd := exec.CommandContext(runCtx, name, args...)
	cmd.Stdin = strings.NewReader(text)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("clipboard command failed: %w (%s)", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Notifier sends short status strings to the desktop. Fire-and-forget:
// failures are logged, never fatal.
type Notifier struct {
	enabled bool
	command string
	title   string
	logger  *logrus.Logger
}

func NewNotifier(cfg *config.Config, logger *logrus.Logger) *Notifier {
	return &Notifier{
		enabled: cfg.Notifications.Enabled,
		command: cfg.Notifications.Command,
		title:   cfg.Notifications.Title,
		logger:  logger,
	}
}

// Send shows one notification.
func (n *Notifier) Send(ctx context.Context, message string) {
	if !n.enabled {
		return
	}
	name, args, err := splitCommand(n.command)
	if err != nil {
		n.logger.Warnf("notification command: %v", err)
		return
	}
	runCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()
	cmd := exec.CommandContext(runCtx, name, append(args, n.title, message)...)
	if out, err := cmd.CombinedOutput(); err != nil {
		n.logger.Warnf("notification failed: %v (%s)", err, strings.TrimSpace(string(out)))
	}
}

// splitCommand parses a configured command string into executable + args.
func splitCommand(raw string) (string, []string, error) {
	fields, err := shlex.Split(raw)
	if err != nil {
		return "", nil, err
	}
	if len(fields) == 0 {
		return "", nil, fmt.Errorf("empty command")
	}
	return fields[0], fields[1:], nil
}
