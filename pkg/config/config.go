package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const llmFileName = "llm.yaml"

// Default provider selection for a fresh install.
const (
	DefaultProvider = "gemini"
	DefaultModel    = "gemini-1.5-flash"
)

type ProviderConfig struct {
	APIKey string `yaml:"api_key"`
}

// Config holds the LLM triage assistant settings.
type Config struct {
	SelectedProvider string                    `yaml:"selected_provider"`
	SelectedModel    string                    `yaml:"selected_model"`
	Providers        map[string]ProviderConfig `yaml:"providers"`
}

// GetConfigPath returns ~/mssp-agent/llm.yaml, creating the directory.
func GetConfigPath() (string, error) {
	dir, err := AgentDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	return filepath.Join(dir, llmFileName), nil
}

func LoadConfig() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadConfigFrom(path)
}

// LoadConfigFrom reads the provider config at path, returning defaults when
// the file does not exist.
func LoadConfigFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{
			SelectedProvider: DefaultProvider,
			SelectedModel:    DefaultModel,
			Providers:        make(map[string]ProviderConfig),
		}, nil
	}
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}
	return &cfg, nil
}

func SaveConfig(cfg *Config) error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	return SaveConfigTo(path, cfg)
}

// SaveConfigTo writes cfg as YAML. API keys live here, so the file is 0600.
func SaveConfigTo(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

func (c *Config) SetAPIKey(provider, key string) {
	if c.Providers == nil {
		c.Providers = make(map[string]ProviderConfig)
	}
	p := c.Providers[provider]
	p.APIKey = key
	c.Providers[provider] = p
}

func (c *Config) GetAPIKey(provider string) string {
	return c.Providers[provider].APIKey
}
