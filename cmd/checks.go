package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/user/mssp-agent/pkg/checks"
	"github.com/user/mssp-agent/pkg/wrappers"
)

// checkCommand describes one check subcommand. args turns the parsed flags
// into tool arguments.
type checkCommand struct {
	use   string
	tool  string
	short string
	flags func(cmd *cobra.Command)
	args  func(cmd *cobra.Command) map[string]interface{}
}

var checkCommands = []checkCommand{
	{
		use:   "ports",
		tool:  "open_ports",
		short: "Scan open ports using nmap",
		flags: func(c *cobra.Command) {
			c.Flags().String("target", checks.DefaultScanTarget, "Target IP or hostname")
			c.Flags().String("ports", checks.DefaultScanPorts, "Port range to scan (e.g., 22,80 or 1-65535)")
		},
		args: func(c *cobra.Command) map[string]interface{} {
			target, _ := c.Flags().GetString("target")
			ports, _ := c.Flags().GetString("ports")
			return map[string]interface{}{"target": target, "ports": ports}
		},
	},
	{
		use:   "patches",
		tool:  "patch_status",
		short: "Check available OS package updates",
	},
	{
		use:   "ssh",
		tool:  "ssh_logins",
		short: "Parse SSH login failures from system logs",
		flags: func(c *cobra.Command) {
			c.Flags().Int("days", wrappers.DefaultSSHDays, "Days to look back")
		},
		args: func(c *cobra.Command) map[string]interface{} {
			days, _ := c.Flags().GetInt("days")
			return map[string]interface{}{"days": days}
		},
	},
	{
		use:   "clamav",
		tool:  "clamav",
		short: "Run a ClamAV scan and list infected files",
		flags: func(c *cobra.Command) {
			c.Flags().String("dir", checks.DefaultScanDir, "Target directory to scan")
		},
		args: func(c *cobra.Command) map[string]interface{} {
			dir, _ := c.Flags().GetString("dir")
			return map[string]interface{}{"dir": dir}
		},
	},
	{
		use:   "logs",
		tool:  "log_summary",
		short: "Summarize important log activity",
	},
	{
		use:   "cves",
		tool:  "vuln_feeds",
		short: "Fetch recent CVEs from the NVD",
		flags: func(c *cobra.Command) {
			c.Flags().Int("days", checks.DefaultCVEDays, "Number of days to look back")
			c.Flags().String("keyword", "", "Keyword to filter (e.g., openssh, apache)")
			c.Flags().Int("limit", checks.DefaultCVELimit, "Maximum number of CVEs to fetch")
		},
		args: func(c *cobra.Command) map[string]interface{} {
			days, _ := c.Flags().GetInt("days")
			keyword, _ := c.Flags().GetString("keyword")
			limit, _ := c.Flags().GetInt("limit")
			return map[string]interface{}{"days": days, "keyword": keyword, "limit": limit}
		},
	},
	{
		use:   "lynis",
		tool:  "lynis_audit",
		short: "Run a Lynis system audit and extract results",
	},
}

func (cc checkCommand) command() *cobra.Command {
	c := &cobra.Command{
		Use:   cc.use,
		Short: cc.short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var args map[string]interface{}
			if cc.args != nil {
				args = cc.args(cmd)
			}
			asJSON, _ := cmd.Flags().GetBool("json")
			return runCheck(cmd, cc.tool, args, asJSON)
		},
	}
	c.Flags().Bool("json", false, "Output raw JSON")
	if cc.flags != nil {
		cc.flags(c)
	}
	return c
}

// runCheck collects one record and prints it. Only a missing SSH auth log
// changes the exit status.
func runCheck(cmd *cobra.Command, name string, args map[string]interface{}, asJSON bool) error {
	tool, err := wrappers.NewRegistry(newEnv(), nil).Lookup(name)
	if err != nil {
		return err
	}
	rec := tool.Collect(cmd.Context(), args)

	if errors.Is(rec.Err, checks.ErrNoAuthLog) {
		printRecordError(cmd.ErrOrStderr(), rec)
		return &exitError{code: 1}
	}

	if asJSON {
		return writeJSON(cmd.OutOrStdout(), rec)
	}
	if rec.Failed() {
		printRecordError(cmd.ErrOrStderr(), rec)
		return nil
	}
	printSummary(cmd.OutOrStdout(), rec, args)
	return nil
}

func init() {
	for _, cc := range checkCommands {
		rootCmd.AddCommand(cc.command())
	}
}
