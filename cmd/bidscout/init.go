package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/bidscout/bidscout/internal/config"
)

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:          "init",
		Short:        "Initialize a bidscout data directory with a default config",
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg := config.Default()

			if err := os.MkdirAll(filepath.Join(cfg.DataDir, "runs"), 0o755); err != nil {
				return fmt.Errorf("create runs dir: %w", err)
			}

			configPath := filepath.Join(cfg.DataDir, "config.yaml")
			if _, err := os.Stat(configPath); err == nil {
				log.Info().Str("path", configPath).Msg("config already exists, skipping")
				return nil
			}

			// Round-trip through the json tags so the YAML keys match
			// what the config loader expects.
			raw, err := json.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("marshal default config: %w", err)
			}
			var tree map[string]any
			if err := json.Unmarshal(raw, &tree); err != nil {
				return fmt.Errorf("marshal default config: %w", err)
			}
			data, err := yaml.Marshal(tree)
			if err != nil {
				return fmt.Errorf("marshal default config: %w", err)
			}
			if err := os.WriteFile(configPath, data, 0o644); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			log.Info().Str("path", configPath).Msg("installed default config")
			return nil
		},
	}
}
