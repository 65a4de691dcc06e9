package cli

import (
	"fmt"

	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/config"
	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/daemon"
	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/store"
	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/store/postgres"
	"github.com/spf13/cobra"
)

func newResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Forget persisted agent state; the next start seeds agents and rules from the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.MustHomeFrom(cmd.Context())
			if st, _ := daemon.Status(cmd.Context(), home); st.Running {
				return fmt.Errorf("careagent is running (pid %d); stop it first", st.PID)
			}
			s, err := config.LoadSettings(home)
			if err != nil {
				return err
			}

			var slots store.Store
			switch s.DBDriver {
			case "memory":
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Memory driver keeps no state; nothing to reset.")
				return nil
			case "postgres":
				slots, err = postgres.Open(s.DatabaseURL)
			default:
				slots, err = store.Open(home)
			}
			if err != nil {
				return err
			}
			defer func() { _ = slots.Close() }()

			p := &store.SnapshotPersister{Store: slots, Key: s.StorageKey}
			if err := p.Reset(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Reset %q.\n", p.Key)
			return nil
		},
	}
	return cmd
}
