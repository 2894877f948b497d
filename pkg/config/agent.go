package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Placeholders written by the installer when no values are given.
const (
	PlaceholderURL   = "https://your-server.com/api/report/"
	PlaceholderToken = "REPLACE_WITH_YOUR_CLIENT_TOKEN"
)

const (
	agentDirName  = "mssp-agent"
	agentFileName = "config.json"
	envPrefix     = "MSSP"
)

// AgentConfig is the collector endpoint and client token.
type AgentConfig struct {
	APIURL string `json:"api_url" mapstructure:"api_url"`
	Token  string `json:"token" mapstructure:"token"`
}

// Configured reports whether both values are set and not placeholders.
func (c *AgentConfig) Configured() bool {
	return c.APIURL != "" && c.Token != "" && c.APIURL != PlaceholderURL && c.Token != PlaceholderToken
}

// AgentDir returns ~/mssp-agent.
func AgentDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, agentDirName), nil
}

// AgentConfigPath returns the config.json path inside dir, or inside
// AgentDir when dir is empty.
func AgentConfigPath(dir string) (string, error) {
	if dir == "" {
		var err error
		if dir, err = AgentDir(); err != nil {
			return "", err
		}
	}
	return filepath.Join(dir, agentFileName), nil
}

// LoadAgent reads the agent config at path. A missing file is not an
// error; MSSP_API_URL and MSSP_TOKEN override whatever the file says.
func LoadAgent(path string) (*AgentConfig, error) {
	return readAgent(path, true)
}

// LoadAgentFile reads only what is stored at path, ignoring environment
// overrides. Use it before modifying and saving the file.
func LoadAgentFile(path string) (*AgentConfig, error) {
	return readAgent(path, false)
}

func readAgent(path string, withEnv bool) (*AgentConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if withEnv {
		v.SetEnvPrefix(envPrefix)
		_ = v.BindEnv("api_url")
		_ = v.BindEnv("token")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
	}

	return &AgentConfig{
		APIURL: v.GetString("api_url"),
		Token:  v.GetString("token"),
	}, nil
}

// SaveAgent writes cfg to path with 0600 permissions, creating the
// directory if needed.
func SaveAgent(path string, cfg *AgentConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0600); err != nil {
		return err
	}
	// WriteFile keeps the mode of an existing file.
	return os.Chmod(path, 0600)
}
