package config

// LLMConfig configures the LLM provider layer.
type LLMConfig struct {
	Provider string `yaml:"provider"` // gemini, openai, mock
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"` // Go duration string, e.g. "30s"

	// JudgeModel is used for AI-as-judge evaluation. Should be a capable
	// model; defaults to the provider's strongest default.
	JudgeModel string `yaml:"judge_model"`
}

// DefaultLLMConfig returns provider defaults. The mock provider keeps
// the deterministic layers fully usable with no credentials.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Provider:   "mock",
		Timeout:    "30s",
		JudgeModel: "gpt-4o",
	}
}

// LimitsConfig bounds provider-facing concurrency and work sizes.
type LimitsConfig struct {
	// MaxConcurrentEvaluations bounds parallel candidate-case evaluation.
	MaxConcurrentEvaluations int `yaml:"max_concurrent_evaluations"`

	// MaxProviderConcurrency bounds in-flight requests per provider client.
	MaxProviderConcurrency int `yaml:"max_provider_concurrency"`

	// DefaultSampleSize is the frozen-case sample size for candidate runs.
	DefaultSampleSize int `yaml:"default_sample_size"`
}

// DefaultLimitsConfig returns conservative defaults.
func DefaultLimitsConfig() LimitsConfig {
	return LimitsConfig{
		MaxConcurrentEvaluations: 4,
		MaxProviderConcurrency:   3,
		DefaultSampleSize:        10,
	}
}
