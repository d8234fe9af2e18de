// Package config provides configuration loading and management for bidscout.
package config

import "time"

// Config is the root configuration. Every knob the workflow and stages use
// is carried here explicitly; nothing reads ambient global state.
type Config struct {
	DataDir    string           `json:"data_dir"   mapstructure:"data_dir"`
	Completion CompletionConfig `json:"completion" mapstructure:"completion"`
	Search     SearchConfig     `json:"search"     mapstructure:"search"`
	Document   DocumentConfig   `json:"document"   mapstructure:"document"`
	Budgets    Budgets          `json:"budgets"    mapstructure:"budgets"`
	Thresholds Thresholds       `json:"thresholds" mapstructure:"thresholds"`
	Retention  RetentionPolicy  `json:"retention"  mapstructure:"retention"`
}

// CompletionConfig describes the text-completion provider.
type CompletionConfig struct {
	Provider       string `json:"provider"              mapstructure:"provider"`
	Model          string `json:"model"                 mapstructure:"model"`
	BaseURL        string `json:"base_url,omitempty"    mapstructure:"base_url"`
	APIKeyEnv      string `json:"api_key_env,omitempty" mapstructure:"api_key_env"`
	TimeoutSeconds int    `json:"timeout_seconds"       mapstructure:"timeout_seconds"`
}

// Timeout returns the completion call timeout.
func (c CompletionConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SearchConfig describes the web-search provider.
type SearchConfig struct {
	Provider       string `json:"provider"              mapstructure:"provider"`
	BaseURL        string `json:"base_url,omitempty"    mapstructure:"base_url"`
	APIKeyEnv      string `json:"api_key_env,omitempty" mapstructure:"api_key_env"`
	TimeoutSeconds int    `json:"timeout_seconds"       mapstructure:"timeout_seconds"`
}

// Timeout returns the search call timeout.
func (c SearchConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DocumentConfig describes document extraction behavior.
type DocumentConfig struct {
	OCRBaseURL   string `json:"ocr_base_url,omitempty"    mapstructure:"ocr_base_url"`
	OCRAPIKeyEnv string `json:"ocr_api_key_env,omitempty" mapstructure:"ocr_api_key_env"`
	RedactPII    bool   `json:"redact_pii"                mapstructure:"redact_pii"`
}

// Budgets defines run limits and stage scope parameters.
type Budgets struct {
	MaxIterations        int `json:"max_iterations"          mapstructure:"max_iterations"`
	EvidenceRequirements int `json:"evidence_requirements"   mapstructure:"evidence_requirements"`
	QueriesPerReq        int `json:"queries_per_requirement" mapstructure:"queries_per_requirement"`
	ResultsPerQuery      int `json:"results_per_query"       mapstructure:"results_per_query"`
	ProfileResults       int `json:"profile_results"         mapstructure:"profile_results"`
	ContextResults       int `json:"context_results"         mapstructure:"context_results"`
}

// Thresholds defines the scoring gates: Coverage gates the refine/terminate
// decision, Evidence gates snippet retention.
type Thresholds struct {
	Coverage float64 `json:"coverage" mapstructure:"coverage"`
	Evidence float64 `json:"evidence" mapstructure:"evidence"`
}

// RetentionPolicy defines how many old runs to keep.
type RetentionPolicy struct {
	KeepLast int `json:"keep_last,omitempty" mapstructure:"keep_last"`
	KeepDays int `json:"keep_days,omitempty" mapstructure:"keep_days"`
}

// Default returns the configuration written by `bidscout init`.
func Default() Config {
	return Config{
		DataDir: ".bidscout",
		Completion: CompletionConfig{
			Provider:       "openai",
			Model:          "gpt-4o",
			APIKeyEnv:      "OPENAI_API_KEY",
			TimeoutSeconds: 60,
		},
		Search: SearchConfig{
			Provider:       "tavily",
			APIKeyEnv:      "TAVILY_API_KEY",
			TimeoutSeconds: 15,
		},
		Document: DocumentConfig{
			OCRAPIKeyEnv: "MISTRAL_API_KEY",
			RedactPII:    true,
		},
		Budgets: Budgets{
			MaxIterations:        3,
			EvidenceRequirements: 2,
			QueriesPerReq:        4,
			ResultsPerQuery:      3,
			ProfileResults:       5,
			ContextResults:       20,
		},
		Thresholds: Thresholds{
			Coverage: 0.7,
			Evidence: 0.3,
		},
	}
}
