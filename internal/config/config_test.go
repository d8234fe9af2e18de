package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Thresholds(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.InDelta(t, 0.7, cfg.Thresholds.Coverage, 1e-9)
	assert.InDelta(t, 0.3, cfg.Thresholds.Evidence, 1e-9)
	assert.Equal(t, 2, cfg.Budgets.EvidenceRequirements)
	assert.Equal(t, 3, cfg.Budgets.MaxIterations)
}

func TestValidateSettings_AcceptsDefaults(t *testing.T) {
	t.Parallel()

	settings := map[string]any{
		"data_dir": ".bidscout",
		"completion": map[string]any{
			"provider": "openai",
			"model":    "gpt-4o",
		},
		"search": map[string]any{
			"provider": "tavily",
		},
		"budgets": map[string]any{
			"max_iterations": 3,
		},
	}
	require.NoError(t, ValidateSettings(settings))
}

func TestValidateSettings_RejectsUnknownProvider(t *testing.T) {
	t.Parallel()

	settings := map[string]any{
		"completion": map[string]any{
			"provider": "mainframe",
			"model":    "gpt-4o",
		},
	}
	err := ValidateSettings(settings)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "completion")
}

func TestValidateSettings_RejectsNegativeIterations(t *testing.T) {
	t.Parallel()

	settings := map[string]any{
		"budgets": map[string]any{
			"max_iterations": -1,
		},
	}
	require.Error(t, ValidateSettings(settings))
}
