// Package config assembles the explicit configuration object threaded
// through every pipeline component. Components never read environment
// state themselves.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultWorkers     = 8
	DefaultOpenAIModel = "gpt-4o"
	DefaultGeminiModel = "gemini-2.5-flash"
)

type Config struct {
	// Provider selects the text-generation backend: openai, gemini or
	// fake (offline, deterministic).
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"-"`

	// Workers bounds concurrent flag-extraction calls.
	Workers int `yaml:"workers"`

	Temperature float32 `yaml:"temperature"`

	FilterTimeout   time.Duration `yaml:"filter_timeout"`
	RefineTimeout   time.Duration `yaml:"refine_timeout"`
	ExtractTimeout  time.Duration `yaml:"extract_timeout"`
	PipelineTimeout time.Duration `yaml:"pipeline_timeout"`

	// Optional client-side request throttle; 0 disables.
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`

	CacheSize int `yaml:"cache_size"`
}

func defaults() Config {
	return Config{
		Provider:        "openai",
		Workers:         DefaultWorkers,
		Temperature:     0.2,
		FilterTimeout:   60 * time.Second,
		RefineTimeout:   60 * time.Second,
		ExtractTimeout:  45 * time.Second,
		PipelineTimeout: 10 * time.Minute,
		CacheSize:       256,
	}
}

// Load builds the configuration from defaults, an optional YAML file,
// and environment variables, in that order of increasing precedence.
// provider, when non-empty, overrides both (flag wins); remaining flag
// overrides are applied by the caller on the returned value.
func Load(path, provider string) (Config, error) {
	cfg := defaults()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if v := os.Getenv("RULES2LINT_PROVIDER"); v != "" {
		cfg.Provider = strings.ToLower(strings.TrimSpace(v))
	}
	if provider != "" {
		cfg.Provider = strings.ToLower(strings.TrimSpace(provider))
	}
	if v := os.Getenv("RULES2LINT_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("RULES2LINT_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Workers = n
		}
	}
	if v := os.Getenv("LLM_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RPS = f
		}
	}
	if v := os.Getenv("LLM_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Burst = n
		}
	}

	if cfg.Model == "" {
		switch cfg.Provider {
		case "gemini":
			cfg.Model = DefaultGeminiModel
		default:
			cfg.Model = DefaultOpenAIModel
		}
	}

	switch cfg.Provider {
	case "openai":
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	case "gemini":
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	case "fake":
	default:
		return Config{}, fmt.Errorf("config: unknown provider %q", cfg.Provider)
	}
	return cfg, nil
}

// Validate checks fields a run cannot proceed without.
func (c Config) Validate() error {
	if c.Provider != "fake" && c.APIKey == "" {
		return fmt.Errorf("config: API key for provider %q is not set", c.Provider)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("config: workers must be positive, got %d", c.Workers)
	}
	return nil
}
