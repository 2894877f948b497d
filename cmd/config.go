package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/mssp-agent/pkg/adk"
	"github.com/user/mssp-agent/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration (collector endpoint, LLM providers, models, keys)",
}

func agentConfigFile() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	return config.AgentConfigPath("")
}

// updateAgentConfig loads the agent config, applies fn and saves it back.
func updateAgentConfig(fn func(*config.AgentConfig)) (*config.AgentConfig, error) {
	path, err := agentConfigFile()
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadAgentFile(path)
	if err != nil {
		return nil, err
	}
	fn(cfg)
	if err := config.SaveAgent(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func maskToken(tok string) string {
	if len(tok) <= 4 {
		return strings.Repeat("*", len(tok))
	}
	return strings.Repeat("*", len(tok)-4) + tok[len(tok)-4:]
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the agent config (token masked)",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := agentConfigFile()
		if err != nil {
			return err
		}
		cfg, err := loadAgentConfig()
		if err != nil {
			return err
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "Config:  %s\n", path)
		fmt.Fprintf(w, "API URL: %s\n", cfg.APIURL)
		fmt.Fprintf(w, "Token:   %s\n", maskToken(cfg.Token))
		if !cfg.Configured() {
			fmt.Fprintln(w, colorWarn("Agent is not configured yet (placeholders or empty values)."))
		}
		return nil
	},
}

var setURLCmd = &cobra.Command{
	Use:   "set-url <api_url>",
	Short: "Set the collector URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := updateAgentConfig(func(c *config.AgentConfig) { c.APIURL = args[0] })
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "API URL set to %s\n", cfg.APIURL)
		return nil
	},
}

var setTokenCmd = &cobra.Command{
	Use:   "set-token <token>",
	Short: "Set the client token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := updateAgentConfig(func(c *config.AgentConfig) { c.Token = args[0] }); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Token saved.")
		return nil
	},
}

var setKeyCmd = &cobra.Command{
	Use:   "set-key",
	Short: "Manually set API key for an LLM provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, _ := cmd.Flags().GetString("provider")
		key, _ := cmd.Flags().GetString("key")

		if provider == "" || key == "" {
			return fmt.Errorf("--provider and --key are required")
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		cfg.SetAPIKey(strings.ToLower(provider), key)
		if err := config.SaveConfig(cfg); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "API key saved for provider: %s\n", provider)
		return nil
	},
}

var setModelCmd = &cobra.Command{
	Use:   "set-model",
	Short: "Manually set the active LLM provider and model",
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, _ := cmd.Flags().GetString("provider")
		model, _ := cmd.Flags().GetString("model")

		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		if provider != "" {
			cfg.SelectedProvider = strings.ToLower(provider)
		}
		if model != "" {
			cfg.SelectedModel = model
		}

		if err := config.SaveConfig(cfg); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Active configuration updated: Provider=%s, Model=%s\n", cfg.SelectedProvider, cfg.SelectedModel)
		return nil
	},
}

var listModelsCmd = &cobra.Command{
	Use:   "list-models",
	Short: "List available models from the configured provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		provider := cfg.SelectedProvider
		if provider == "" {
			return fmt.Errorf("no provider selected; run 'mssp-agent config setup'")
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Fetching models for %s...\n", provider)
		ctx := cmd.Context()
		p, err := adk.NewProvider(ctx, provider, cfg.GetAPIKey(provider), "")
		if err != nil {
			return err
		}
		if closer, ok := p.(interface{ Close() }); ok {
			defer closer.Close()
		}

		models, err := p.ListModels(ctx)
		if err != nil {
			return fmt.Errorf("fetching models: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "\nAvailable Models (%s):\n", provider)
		for _, m := range models {
			mark := " "
			if m == cfg.SelectedModel {
				mark = "*"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", mark, m)
		}
		return nil
	},
}

func init() {
	setKeyCmd.Flags().StringP("provider", "p", "", "Provider (gemini, openai, anthropic)")
	setKeyCmd.Flags().StringP("key", "k", "", "API Key")

	setModelCmd.Flags().StringP("provider", "p", "", "Provider (gemini, openai, anthropic)")
	setModelCmd.Flags().StringP("model", "m", "", "Model name")

	configCmd.AddCommand(showCmd, setURLCmd, setTokenCmd)
	configCmd.AddCommand(setKeyCmd, setModelCmd, listModelsCmd)
	rootCmd.AddCommand(configCmd)
}
