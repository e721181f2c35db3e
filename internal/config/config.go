// Package config holds resumeiq configuration loaded from YAML with
// per-concern defaults. API keys are never written to config files;
// they come from the environment.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Policy  PolicyConfig  `yaml:"policy"`
	LLM     LLMConfig     `yaml:"llm"`
	Logging LoggingConfig `yaml:"logging"`
	Store   StoreConfig   `yaml:"store"`
	Limits  LimitsConfig  `yaml:"limits"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// StoreConfig points at the sqlite database backing governance state.
type StoreConfig struct {
	// Path to the sqlite file. Empty means in-memory only (no durability).
	Path string `yaml:"path"`
}

// Default returns the full default configuration.
func Default() *Config {
	return &Config{
		Policy:  DefaultPolicyConfig(),
		LLM:     DefaultLLMConfig(),
		Logging: LoggingConfig{Level: "info"},
		Store:   StoreConfig{},
		Limits:  DefaultLimitsConfig(),
	}
}

// Load reads a YAML config file and merges it over defaults.
// A missing file is not an error; defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		cfg.applyEnv()
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.applyEnv()
	if err := cfg.Policy.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables onto the config.
func (c *Config) applyEnv() {
	if p := os.Getenv("RESUMEIQ_PROVIDER"); p != "" {
		c.LLM.Provider = p
	}
	if k := os.Getenv("GEMINI_API_KEY"); k != "" && c.LLM.Provider == "gemini" {
		c.LLM.APIKey = k
	}
	if k := os.Getenv("OPENAI_API_KEY"); k != "" && c.LLM.Provider == "openai" {
		c.LLM.APIKey = k
	}
	if p := os.Getenv("RESUMEIQ_DB"); p != "" {
		c.Store.Path = p
	}
}
