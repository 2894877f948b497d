package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/mssp-agent/pkg/adk"
	"github.com/user/mssp-agent/pkg/config"
	"github.com/user/mssp-agent/pkg/engine"
	"github.com/user/mssp-agent/pkg/wrappers"
)

// newAgent wires the check tools and the findings viewer onto an agent.
func newAgent(provider adk.LLMProvider, graph *engine.UnifiedGraph) *adk.Agent {
	agent := adk.NewAgent(provider)
	for _, t := range wrappers.NewRegistry(newEnv(), graph).All() {
		agent.RegisterTool(t)
	}
	agent.RegisterTool(&wrappers.FindingsTool{Graph: graph})
	return agent
}

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Start an LLM triage session that can run the host checks",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		providerName := cfg.SelectedProvider
		if providerName == "" {
			providerName = config.DefaultProvider
		}

		apiKey := cfg.GetAPIKey(providerName)
		if apiKey == "" && providerName == "gemini" {
			apiKey = os.Getenv("GOOGLE_API_KEY")
		}
		if apiKey == "" {
			return fmt.Errorf("API key not found; run 'mssp-agent config setup' to configure your keys")
		}

		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Connecting to %s (Model: %s)...\n", providerName, cfg.SelectedModel)

		provider, err := adk.NewProvider(ctx, providerName, apiKey, cfg.SelectedModel)
		if err != nil {
			return fmt.Errorf("creating AI provider: %w", err)
		}
		if closer, ok := provider.(interface{ Close() }); ok {
			defer closer.Close()
		}

		agent := newAgent(provider, engine.NewUnifiedGraph())

		scanner := bufio.NewScanner(cmd.InOrStdin())
		fmt.Fprintln(out, "\n---------------------------------------------------------")
		fmt.Fprintln(out, colorHeader("mssp-agent triage assistant ready."))
		fmt.Fprintln(out, "Example: 'Who is brute forcing SSH on this host?'")
		fmt.Fprintln(out, "Example: 'Any new CVEs for openssl this week?'")
		fmt.Fprintln(out, "Type 'quit' or 'exit' to stop.")
		fmt.Fprintln(out, "---------------------------------------------------------")

		for {
			fmt.Fprint(out, "\n> ")
			if !scanner.Scan() {
				return nil
			}
			input := strings.TrimSpace(scanner.Text())
			if input == "quit" || input == "exit" {
				return nil
			}
			if input == "" {
				continue
			}

			fmt.Fprint(out, "Agent thinking... ")
			resp, err := agent.Chat(ctx, input, func(msg string) {
				fmt.Fprintf(out, "\r\033[K%s %s\nAgent thinking... ", colorInfo("[Progress]:"), msg)
			})
			fmt.Fprint(out, "\r\033[K")

			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				fmt.Fprintf(out, "%s %v\n", colorError("Error:"), err)
				continue
			}
			fmt.Fprintf(out, "\n%s %s\n", colorSuccess("[Agent]:"), resp)
		}
	},
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
}
