package cmd

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/mssp-agent/pkg/adk"
	"github.com/user/mssp-agent/pkg/config"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard for the LLM triage assistant",
	RunE: func(cmd *cobra.Command, args []string) error {
		scanner := bufio.NewScanner(cmd.InOrStdin())
		out := cmd.OutOrStdout()
		ask := func(prompt string) string {
			fmt.Fprint(out, prompt)
			scanner.Scan()
			return strings.TrimSpace(scanner.Text())
		}

		fmt.Fprintln(out, colorHeader("mssp-agent Assistant Setup"))
		fmt.Fprintln(out, "---------------------------------")

		fmt.Fprintln(out, "Step 1: Choose your AI Provider")
		for i, p := range adk.Providers {
			fmt.Fprintf(out, "%d. %s\n", i+1, p)
		}
		choice := strings.ToLower(ask("Enter number or name > "))

		var provider string
		for i, p := range adk.Providers {
			if choice == p || choice == strconv.Itoa(i+1) {
				provider = p
			}
		}
		if provider == "" {
			return fmt.Errorf("invalid provider choice %q", choice)
		}

		fmt.Fprintf(out, "\nStep 2: Enter API Key for %s\n", provider)
		apiKey := ask("> ")
		if apiKey == "" {
			return fmt.Errorf("API key cannot be empty")
		}

		fmt.Fprintln(out, "\nStep 3: Validating key and fetching available models...")
		ctx := cmd.Context()
		p, err := adk.NewProvider(ctx, provider, apiKey, "")
		if err != nil {
			return fmt.Errorf("initializing provider: %w", err)
		}
		if closer, ok := p.(interface{ Close() }); ok {
			defer closer.Close()
		}

		var selectedModel string
		models, err := p.ListModels(ctx)
		if err != nil || len(models) == 0 {
			fmt.Fprintf(out, "%s could not fetch models: %v\n", colorWarn("Warning:"), err)
			selectedModel = ask("Please enter model name manually > ")
		} else {
			fmt.Fprintf(out, "Successfully retrieved %d models.\n", len(models))
			for i, m := range models {
				fmt.Fprintf(out, "%d. %s\n", i+1, m)
			}
			idx, err := strconv.Atoi(ask("Select Model (number) > "))
			if err != nil || idx < 1 || idx > len(models) {
				fmt.Fprintln(out, "Invalid selection. Using first available model.")
				idx = 1
			}
			selectedModel = models[idx-1]
		}

		fmt.Fprintln(out, "\nStep 4: Saving Configuration...")
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg.SelectedProvider = provider
		cfg.SelectedModel = selectedModel
		cfg.SetAPIKey(provider, apiKey)
		if err := config.SaveConfig(cfg); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}

		fmt.Fprintln(out, "---------------------------------")
		fmt.Fprintln(out, colorSuccess("Setup Complete!"))
		fmt.Fprintf(out, "Provider: %s\n", provider)
		fmt.Fprintf(out, "Model:    %s\n", selectedModel)
		fmt.Fprintln(out, "You can now run 'mssp-agent interactive'")
		return nil
	},
}

func init() {
	configCmd.AddCommand(setupCmd)
}
