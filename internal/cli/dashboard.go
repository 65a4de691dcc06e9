package cli

import (
	"fmt"

	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/pkg/models"
	"github.com/spf13/cobra"
)

func newDashboardCmd() *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show the role dashboard (for --role, or the --staff member's role)",
		RunE: func(cmd *cobra.Command, args []string) error {
			var r models.Role
			if role != "" {
				parsed, err := models.ParseRole(role)
				if err != nil {
					return err
				}
				r = parsed
			}
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			d, err := c.Dashboard(cmd.Context(), r)
			if err != nil {
				return err
			}
			if wantJSON(cmd) {
				return printJSON(cmd, d)
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Role: %s\n", d.Role)
			_, _ = fmt.Fprintf(out, "Agents: %d (%d active)\n", len(d.Agents), d.ActiveAgents)
			_, _ = fmt.Fprintf(out, "Recommendations: %d (%d critical)\n", len(d.Recommendations), d.CriticalCount)
			_, _ = fmt.Fprintf(out, "Enabled rules: %d\n", d.EnabledRules)
			_, _ = fmt.Fprintf(out, "Open tasks: %d\n", d.OpenTasks)
			for _, a := range d.Agents {
				_, _ = fmt.Fprintf(out, "- %s [%s] %s\n", a.ID, a.Status, a.Name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "admin, doctor, nurse, receptionist or diagnostician")
	return cmd
}
