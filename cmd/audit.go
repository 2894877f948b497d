package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user/mssp-agent/pkg/engine"
	"github.com/user/mssp-agent/pkg/logging"
	"github.com/user/mssp-agent/pkg/wrappers"
)

var (
	auditJSON bool
	auditSkip []string
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Run every check and print findings ranked by severity",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		graph := engine.NewUnifiedGraph()
		reg := wrappers.NewRegistry(newEnv(), graph)

		skip := make(map[string]bool, len(auditSkip))
		for _, s := range auditSkip {
			t, err := reg.Lookup(s)
			if err != nil {
				return err
			}
			skip[t.Name()] = true
		}

		for _, t := range reg.All() {
			if skip[t.Name()] {
				continue
			}
			if _, err := t.Execute(cmd.Context(), nil, func(msg string) { logging.Infof("%s", msg) }); err != nil {
				return err
			}
		}

		findings := graph.Sorted()
		if auditJSON {
			return writeJSON(cmd.OutOrStdout(), findings)
		}

		w := cmd.OutOrStdout()
		fmt.Fprintln(w, colorHeader(fmt.Sprintf("Findings (%d):", len(findings))))
		for _, f := range findings {
			fmt.Fprintf(w, "%s %s (%s)\n", colorSeverity(f.Severity, fmt.Sprintf("[%d/10]", f.Severity)), f.Category, f.SourceTool)
			fmt.Fprintf(w, "  Asset: %s\n", f.Asset)
			fmt.Fprintf(w, "  Evidence: %s\n", f.Evidence)
			if f.RemediationHint != "" {
				fmt.Fprintf(w, "  Fix: %s\n", f.RemediationHint)
			}
		}
		return nil
	},
}

func init() {
	auditCmd.Flags().BoolVar(&auditJSON, "json", false, "Output findings as JSON")
	auditCmd.Flags().StringSliceVar(&auditSkip, "skip", nil, "checks to skip (e.g. --skip clamav,lynis)")
	rootCmd.AddCommand(auditCmd)
}
