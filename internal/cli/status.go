package cli

import (
	"fmt"

	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/config"
	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/daemon"
	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/pkg/client"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show careagent daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.MustHomeFrom(cmd.Context())
			st, err := daemon.Status(cmd.Context(), home)
			if err != nil {
				return err
			}
			if !st.Running {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "careagent not running")
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "careagent running (pid %d, addr %s)\n", st.PID, st.Addr)
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			if ok, err := c.Health(cmd.Context()); err != nil || !ok {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "health check failed: %v\n", err)
				return nil
			}
			agents, err := c.ListAgents(cmd.Context(), client.AgentFilter{ActiveOnly: true})
			if err == nil {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "healthy, %d active agent(s)\n", len(agents))
			}
			return nil
		},
	}
	return cmd
}
