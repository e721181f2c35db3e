package provider

import (
	"os"
	"time"

	"resumeiq/internal/config"
	"resumeiq/internal/logging"
)

// DetectProvider resolves the provider name: explicit config first, then
// environment, then mock.
func DetectProvider(cfg config.LLMConfig) string {
	if cfg.Provider != "" && cfg.Provider != "auto" {
		return cfg.Provider
	}
	if p := os.Getenv("RESUMEIQ_PROVIDER"); p != "" {
		return p
	}
	if os.Getenv("GEMINI_API_KEY") != "" {
		return "gemini"
	}
	if os.Getenv("OPENAI_API_KEY") != "" {
		return "openai"
	}
	return "mock"
}

// NewClient builds an LLMClient from config.
func NewClient(cfg config.LLMConfig) LLMClient {
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil || timeout <= 0 {
		timeout = 30 * time.Second
	}

	provider := DetectProvider(cfg)
	log := logging.Get(logging.CategoryProvider)

	switch provider {
	case "gemini":
		gc := DefaultGeminiConfig(keyFor(cfg, "GEMINI_API_KEY"))
		gc.Timeout = timeout
		if cfg.Model != "" {
			gc.Model = cfg.Model
		}
		if cfg.BaseURL != "" {
			gc.BaseURL = cfg.BaseURL
		}
		log.Info("provider selected: gemini model=%s", gc.Model)
		return NewGeminiClientWithConfig(gc)
	case "openai":
		oc := DefaultOpenAIConfig(keyFor(cfg, "OPENAI_API_KEY"))
		oc.Timeout = timeout
		if cfg.Model != "" {
			oc.Model = cfg.Model
		}
		if cfg.BaseURL != "" {
			oc.BaseURL = cfg.BaseURL
		}
		log.Info("provider selected: openai model=%s", oc.Model)
		return NewOpenAIClientWithConfig(oc)
	default:
		log.Info("provider selected: mock")
		return NewMockClient()
	}
}

func keyFor(cfg config.LLMConfig, envVar string) string {
	if cfg.APIKey != "" {
		return cfg.APIKey
	}
	return os.Getenv(envVar)
}
