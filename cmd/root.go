package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/user/mssp-agent/pkg/checks"
	"github.com/user/mssp-agent/pkg/logging"
)

var rootCmd = &cobra.Command{
	Use:   "mssp-agent",
	Short: "Host security checks and reporting agent",
	Long: `mssp-agent runs host security checks (open ports, patch status, SSH
login failures, ClamAV, log summary, NVD CVE feed, Lynis) and reports
them to a managed security service provider's collector.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if DebugMode {
			logging.SetDebug(true)
		}
	},
}

var (
	DebugMode bool
	cfgFile   string
)

// newEnv builds the host environment checks run against. Tests replace it.
var newEnv = checks.NewEnv

// exitError carries a process exit status after its message was printed.
type exitError struct{ code int }

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err == nil {
		return
	}
	var ee *exitError
	if errors.As(err, &ee) {
		os.Exit(ee.code)
	}
	fmt.Fprintln(os.Stderr, colorError("Error:"), err)
	os.Exit(1)
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&DebugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "agent config file (default is ~/mssp-agent/config.json)")
}
