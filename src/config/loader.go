package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "anthropic/claude-sonnet-4"

// DefaultConfig returns the baseline configuration before file and
// environment overrides.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "https://openrouter.ai/api/v1",
		},
		Agent: AgentConfig{
			Model:         DefaultModel,
			MaxIterations: 30,
		},
		Session: SessionConfig{
			MaxSessions:        50,
			HiddenFailureTools: []string{"bash"},
		},
	}
}

// Load builds the effective configuration: defaults, then the user config
// file, then the project-local file, then environment variables. Missing
// files are fine; malformed files are not.
func Load(fs afero.Fs, workDir string) (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range []string{UserConfigPath(), ProjectConfigPath(workDir)} {
		if err := mergeFile(fs, path, cfg); err != nil {
			return nil, err
		}
	}
	applyEnvironment(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func mergeFile(fs afero.Fs, path string, cfg *Config) error {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	// Unmarshal into the accumulated config so absent fields keep their
	// current values.
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func applyEnvironment(cfg *Config) {
	if key := os.Getenv("DROVER_API_KEY"); key != "" {
		cfg.API.APIKey = key
	}
	if cfg.API.APIKey == "" {
		if key := os.Getenv("OPENROUTER_API_KEY"); key != "" {
			cfg.API.APIKey = key
		}
	}
	if model := os.Getenv("DROVER_MODEL"); model != "" {
		cfg.Agent.Model = model
	}
	if baseURL := os.Getenv("DROVER_BASE_URL"); baseURL != "" {
		cfg.API.BaseURL = baseURL
	}
}

// Validate checks structural constraints on a configuration.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
