package cli

import (
	"fmt"
	"strings"

	"github.com/SmokySkyline/chutes-omnivocal-public/internal/api"
	"github.com/SmokySkyline/chutes-omnivocal-public/internal/config"
	"github.com/SmokySkyline/chutes-omnivocal-public/internal/doctor"
	"github.com/SmokySkyline/chutes-omnivocal-public/internal/logging"

	"github.com/spf13/cobra"
)

func newDoctorCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check dependencies and config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			results := doctor.Run(cfg)
			failed := false
			for _, r := range results {
				status := "ok"
				if !r.Pass {
					status = "fail"
					failed = true
				}
				cmd.Printf("%-14s %-4s %s\n", r.Name, status, r.Detail)
			}
			if failed {
				return fmt.Errorf("doctor found issues")
			}
			return nil
		},
	}
}

func newTestAPICmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "test-api",
		Short: "Test Chutes API connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			logger, err := logging.Configure(cfg)
			if err != nil {
				return err
			}
			client := api.New(cfg, logger)
			if err := client.TestConnection(cmd.Context()); err != nil {
				return err
			}
			cmd.Println("API connectivity OK")
			return nil
		},
	}
}

func newStatusCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			cmd.Printf("config:   %s\n", cfg.Paths.ConfigPath)
			cmd.Printf("endpoint: %s\n", cfg.Chutes.Endpoint)
			key := "not set"
			if strings.TrimSpace(cfg.Chutes.APIKey) != "" {
				key = "set"
			}
			cmd.Printf("api key:  %s\n", key)
			vad := "disabled"
			if cfg.VAD.Enabled {
				vad = fmt.Sprintf("%s (silence %dms, aggressiveness %d)", cfg.VAD.Engine, cfg.VAD.SilenceMS, cfg.VAD.Aggressiveness)
			}
			cmd.Printf("vad:      %s\n", vad)
			return nil
		},
	}
}
