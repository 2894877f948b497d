package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user/mssp-agent/pkg/agent"
	"github.com/user/mssp-agent/pkg/config"
	"github.com/user/mssp-agent/pkg/logging"
	"github.com/user/mssp-agent/pkg/wrappers"
)

var (
	reportArgs   map[string]string
	reportDryRun bool
)

// newReporter builds the collector client. Tests replace it.
var newReporter = agent.NewReporter

func loadAgentConfig() (*config.AgentConfig, error) {
	path, err := agentConfigFile()
	if err != nil {
		return nil, err
	}
	return config.LoadAgent(path)
}

var reportCmd = &cobra.Command{
	Use:   "report <check>...",
	Short: "Run checks and submit their records to the collector",
	Long: `Runs each named check in order and POSTs its record to the configured
api_url. Check names are the reporting names (open_ports, patch_status,
ssh_logins, clamav, log_summary, vuln_feeds, lynis_audit) or the subcommand
names (ports, patches, ssh, clamav, logs, cves, lynis).`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, names []string) error {
		reg := wrappers.NewRegistry(newEnv(), nil)

		tools := make([]wrappers.Tool, 0, len(names))
		for _, n := range names {
			t, err := reg.Lookup(n)
			if err != nil {
				return err
			}
			tools = append(tools, t)
		}

		args := make(map[string]interface{}, len(reportArgs))
		for k, v := range reportArgs {
			args[k] = v
		}

		cfg, err := loadAgentConfig()
		if err != nil {
			return err
		}
		if !reportDryRun && !cfg.Configured() {
			logging.Warnf("agent config still has placeholder values; run 'mssp-agent config set-url' and 'set-token'")
		}
		rep := newReporter(cfg.APIURL, cfg.Token)

		var failed int
		for _, t := range tools {
			rec := t.Collect(cmd.Context(), args)
			if reportDryRun {
				if err := writeJSON(cmd.OutOrStdout(), rep.NewPayload(rec)); err != nil {
					return err
				}
				continue
			}
			if err := rep.Submit(cmd.Context(), rec); err != nil {
				failed++
				fmt.Fprintf(cmd.ErrOrStderr(), "%s %s: %v\n", colorError("[!]"), t.Name(), err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s submitted\n", colorSuccess("[✓]"), t.Name())
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d submissions failed", failed, len(tools))
		}
		return nil
	},
}

func init() {
	reportCmd.Flags().StringToStringVar(&reportArgs, "arg", nil, "check argument as key=value (e.g. --arg days=2 --arg target=10.0.0.1)")
	reportCmd.Flags().BoolVar(&reportDryRun, "dry-run", false, "print the payloads instead of sending them")
	rootCmd.AddCommand(reportCmd)
}
