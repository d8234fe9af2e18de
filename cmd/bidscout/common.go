package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/bidscout/bidscout/internal/config"
	"github.com/bidscout/bidscout/internal/db"
)

// loadConfig reads the config file if present, falling back to defaults,
// and validates the merged settings against the schema.
func loadConfig() (config.Config, error) {
	cfg := config.Default()

	path := viper.GetString("config")
	if path == "" {
		path = cfgFile
	}
	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return config.Config{}, fmt.Errorf("read config: %w", err)
		}
		// No config file; defaults apply.
		return cfg, nil
	}

	if err := config.ValidateSettings(viper.AllSettings()); err != nil {
		return config.Config{}, err
	}
	if err := viper.Unmarshal(&cfg); err != nil {
		return config.Config{}, fmt.Errorf("parse config: %w", err)
	}
	if cfg.DataDir == "" {
		cfg.DataDir = ".bidscout"
	}
	return cfg, nil
}

// openDB opens the run history database under the data dir.
func openDB(cfg config.Config) (*sql.DB, func(), error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create data dir: %w", err)
	}
	handle, err := db.Open(filepath.Join(cfg.DataDir, "bidscout.db"))
	if err != nil {
		return nil, nil, err
	}
	return handle, func() { _ = handle.Close() }, nil
}

func runsDir(cfg config.Config) string {
	return filepath.Join(cfg.DataDir, "runs")
}
