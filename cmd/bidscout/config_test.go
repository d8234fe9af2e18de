package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestLoadConfig_DefaultsWhenFileMissing(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("config", filepath.Join(t.TempDir(), "config.yaml"))

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Thresholds.Coverage != 0.7 {
		t.Fatalf("coverage threshold = %v, want 0.7", cfg.Thresholds.Coverage)
	}
	if cfg.Completion.Provider != "openai" {
		t.Fatalf("completion provider = %q, want openai", cfg.Completion.Provider)
	}
}

func TestLoadConfig_MergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(`data_dir: /tmp/bids
completion:
  provider: gemini
  model: gemini-2.0-flash
thresholds:
  coverage: 0.8
budgets:
  max_iterations: 5
`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("config", path)

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Completion.Provider != "gemini" {
		t.Fatalf("completion provider = %q, want gemini", cfg.Completion.Provider)
	}
	if cfg.Thresholds.Coverage != 0.8 {
		t.Fatalf("coverage threshold = %v, want 0.8", cfg.Thresholds.Coverage)
	}
	if cfg.Budgets.MaxIterations != 5 {
		t.Fatalf("max iterations = %d, want 5", cfg.Budgets.MaxIterations)
	}
	// Untouched sections keep their defaults.
	if cfg.Search.Provider != "tavily" {
		t.Fatalf("search provider = %q, want tavily", cfg.Search.Provider)
	}
}

func TestLoadConfig_RejectsInvalidProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(`completion:
  provider: carrier-pigeon
  model: fast-bird
`), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("config", path)

	if _, err := loadConfig(); err == nil {
		t.Fatal("invalid provider accepted")
	}
}
