package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"

	"github.com/SmokySkyline/chutes-omnivocal-public/internal/config"

	"github.com/google/shlex"
	"github.com/spf13/cobra"
)

func newConfigCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or change configuration",
	}
	cmd.AddCommand(newConfigShowCmd(cfgPath))
	cmd.AddCommand(newConfigPathCmd(cfgPath))
	cmd.AddCommand(newConfigEditCmd(cfgPath))
	cmd.AddCommand(newConfigSetCmd(cfgPath))
	return cmd
}

func newConfigShowCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			// Never print the API key.
			if cfg.Chutes.APIKey != "" {
				cfg.Chutes.APIKey = "********"
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(cfg)
		},
	}
}

func newConfigPathCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			cmd.Println(cfg.Paths.ConfigPath)
			return nil
		},
	}
}

func newConfigEditCmd(cfgPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Open configuration in an editor",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			editor, _ := cmd.Flags().GetString("editor")
			if editor == "" {
				editor = defaultEditor()
			}
			if editor == "" {
				return fmt.Errorf("no editor configured; set EDITOR or pass --editor")
			}
			fields, err := shlex.Split(editor)
			if err != nil || len(fields) == 0 {
				return fmt.Errorf("invalid editor command %q", editor)
			}
			run := exec.CommandContext(cmd.Context(), fields[0], append(fields[1:], cfg.Paths.ConfigPath)...)
			run.Stdin = os.Stdin
			run.Stdout = os.Stdout
			run.Stderr = os.Stderr
			return run.Run()
		},
	}
	cmd.Flags().String("editor", "", "Editor command (default $VISUAL, $EDITOR, nano, vi)")
	return cmd
}

// defaultEditor resolves the editor like the usual unix tools: VISUAL,
// then EDITOR, then whichever of nano/vi is installed.
func defaultEditor() string {
	for _, env := range []string{"VISUAL", "EDITOR"} {
		if v := os.Getenv(env); v != "" {
			return v
		}
	}
	for _, name := range []string{"nano", "vi"} {
		if p, err := exec.LookPath(name); err == nil {
			return p
		}
	}
	return ""
}

func newConfigSetCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "set <section.option> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			if err := config.Set(cfg, args[0], args[1]); err != nil {
				return err
			}
			if err := config.Save(cfg, cfg.Paths.ConfigPath); err != nil {
				return err
			}
			cmd.Printf("updated %s in %s\n", args[0], cfg.Paths.ConfigPath)
			return nil
		},
	}
}
