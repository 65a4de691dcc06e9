package cli

import (
	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/config"
	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/daemon"
	"github.com/spf13/cobra"
)

func newDaemonCmd() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:    "daemon",
		Short:  "Internal: run daemon process",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.MustHomeFrom(cmd.Context())
			opts, settings, err := flags.options(cmd, home)
			if err != nil {
				return err
			}
			opts.Logger = newLogger(settings.LogLevel)
			return daemon.StartForeground(cmd.Context(), opts)
		},
	}

	flags.register(cmd)
	return cmd
}
