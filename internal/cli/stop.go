package cli

import (
	"fmt"

	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/config"
	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/daemon"
	"github.com/spf13/cobra"
)

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the background daemon; pending agent actions are dropped, saved state is kept",
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.MustHomeFrom(cmd.Context())
			before, err := daemon.Status(cmd.Context(), home)
			if err != nil {
				return err
			}
			stopped, err := daemon.Stop(cmd.Context(), home)
			if err != nil {
				return err
			}
			if !stopped {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "careagent is not running for %s\n", home)
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Stopped careagent (pid %d, %s)\n", before.PID, before.Addr)
			return nil
		},
	}
}
