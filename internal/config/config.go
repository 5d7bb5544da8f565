package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type LLMConfig struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
}

type MemgraphConfig struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

// ResolutionConfig holds the matching thresholds, all bounded to [0,1].
type ResolutionConfig struct {
	FuzzyFirstNameThreshold        float64 `toml:"fuzzy_first_name_threshold"`
	FuzzyLastNameThreshold         float64 `toml:"fuzzy_last_name_threshold"`
	AutoResolveConfidenceThreshold float64 `toml:"auto_resolve_confidence_threshold"`
}

type ExtractionPrompts struct {
	System string `toml:"system"`
}

type Config struct {
	LLM        LLMConfig         `toml:"llm"`
	Memgraph   MemgraphConfig    `toml:"memgraph"`
	Resolution ResolutionConfig  `toml:"resolution"`
	Extraction ExtractionPrompts `toml:"extraction"`
}

func Default() *Config {
	return &Config{
		Resolution: ResolutionConfig{
			FuzzyFirstNameThreshold:        0.8,
			FuzzyLastNameThreshold:         0.7,
			AutoResolveConfidenceThreshold: 0.8,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	if err := cfg.Resolution.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects thresholds outside [0,1].
func (r ResolutionConfig) Validate() error {
	check := func(name string, v float64) error {
		if v < 0 || v > 1 {
			return fmt.Errorf("resolution.%s must be in [0,1], got %v", name, v)
		}
		return nil
	}

	if err := check("fuzzy_first_name_threshold", r.FuzzyFirstNameThreshold); err != nil {
		return err
	}
	if err := check("fuzzy_last_name_threshold", r.FuzzyLastNameThreshold); err != nil {
		return err
	}
	return check("auto_resolve_confidence_threshold", r.AutoResolveConfidenceThreshold)
}
