// Package config loads the gateway's yaml configuration. Only listen and log
// settings are boot-time; rate limiting and fallback policy reload live via
// the file watcher.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultListen            = ":8090"
	DefaultRequestsPerWindow = 30
	DefaultWindowSeconds     = 60
	DefaultFallbackProvider  = "groq"
	DefaultFallbackModel     = "llama-3.1-8b-instant"
)

type Config struct {
	Listen    string                    `yaml:"listen"`
	LogLevel  string                    `yaml:"logLevel"`
	RateLimit RateLimitConfig           `yaml:"rateLimit"`
	Fallback  FallbackConfig            `yaml:"fallback"`
	Providers map[string]ProviderConfig `yaml:"providers"`
}

type RateLimitConfig struct {
	RequestsPerWindow int `yaml:"requestsPerWindow"`
	WindowSeconds     int `yaml:"windowSeconds"`
}

// FallbackConfig designates the single secondary provider and its fixed
// model. The fallback model is policy-chosen, never request-chosen.
type FallbackConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

type ProviderConfig struct {
	// RequestOverrides are applied onto the serialized upstream request body,
	// e.g. temperature: 0.2 or max_tokens: 512.
	RequestOverrides map[string]any `yaml:"requestOverrides"`
}

// Default returns the coded defaults used when no config file exists.
func Default() Config {
	return Config{}.WithDefaults()
}

// WithDefaults fills zero-valued fields with the coded defaults.
func (c Config) WithDefaults() Config {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.RateLimit.RequestsPerWindow <= 0 {
		c.RateLimit.RequestsPerWindow = DefaultRequestsPerWindow
	}
	if c.RateLimit.WindowSeconds <= 0 {
		c.RateLimit.WindowSeconds = DefaultWindowSeconds
	}
	if c.Fallback.Provider == "" {
		c.Fallback.Provider = DefaultFallbackProvider
	}
	if c.Fallback.Model == "" {
		c.Fallback.Model = DefaultFallbackModel
	}
	return c
}

// Load reads and parses the yaml file at path. ${VAR} references are expanded
// from the environment before parsing.
func Load(path string) (Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	expanded := os.Expand(string(raw), func(key string) string {
		return os.Getenv(key)
	})

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg.WithDefaults(), nil
}
