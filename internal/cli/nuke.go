package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/config"
	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/daemon"
	"github.com/spf13/cobra"
)

const nukeConfirmation = "delete everything"

func newNukeCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "nuke",
		Short: "Delete the careagent home: agent state, staff identities, settings and logs",
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.MustHomeFrom(cmd.Context())
			if st, _ := daemon.Status(cmd.Context(), home); st.Running {
				return fmt.Errorf("careagent is running (pid %d); run `careagent stop` first", st.PID)
			}
			out := cmd.OutOrStdout()

			entries, err := os.ReadDir(home)
			if errors.Is(err, os.ErrNotExist) {
				_, _ = fmt.Fprintf(out, "Nothing to delete: %s does not exist.\n", home)
				return nil
			}
			if err != nil {
				return err
			}

			if !yes {
				_, _ = fmt.Fprintf(out, "This permanently deletes %s:\n", home)
				for _, e := range entries {
					_, _ = fmt.Fprintf(out, "  %s\n", e.Name())
				}
				_, _ = fmt.Fprintf(out, "Type %q to confirm:\n", nukeConfirmation)
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return err
				}
				if strings.TrimSpace(line) != nukeConfirmation {
					_, _ = fmt.Fprintln(out, "Aborted.")
					return nil
				}
			}

			if err := os.RemoveAll(home); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(out, "Deleted %s.\n", home)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the confirmation prompt")
	return cmd
}
