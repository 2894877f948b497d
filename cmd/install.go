package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user/mssp-agent/pkg/installer"
)

var installOpts installer.Options
var installNoSchedule bool

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install the agent binary, config and periodic schedule",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := installer.Install(installOpts)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Agent installed in %s\n", colorSuccess("[✓]"), opts.Dir)

		if installNoSchedule {
			return nil
		}

		err = installer.Schedule(cmd.Context(), *opts)
		switch {
		case err == nil:
			fmt.Fprintf(cmd.OutOrStdout(), "%s Periodic SSH report scheduled.\n", colorSuccess("[✓]"))
		case errors.Is(err, installer.ErrNeedRoot):
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %v\n", colorWarn("[!]"), err)
		default:
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %v\n", colorError("[!]"), err)
		}
		return nil
	},
}

func init() {
	f := installCmd.Flags()
	f.StringVar(&installOpts.APIURL, "api-url", "", "collector URL written to config.json and the cron line")
	f.StringVar(&installOpts.Token, "token", "", "client token written to config.json and the cron line")
	f.StringVar(&installOpts.Dir, "dir", "", "agent directory (default ~/mssp-agent)")
	f.StringVar(&installOpts.CronFile, "cron-file", installer.DefaultCronFile, "cron.d file to write on linux")
	f.BoolVar(&installNoSchedule, "no-schedule", false, "skip the cron job / scheduled task")
	rootCmd.AddCommand(installCmd)
}
