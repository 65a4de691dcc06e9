package cli

import (
	"errors"
	"fmt"

	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/automation"
	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/pkg/models"
	"github.com/spf13/cobra"
)

func newRuleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rule",
		Short: "Manage automation rules",
	}
	cmd.AddCommand(newRuleListCmd())
	cmd.AddCommand(newRuleAddCmd())
	cmd.AddCommand(newRuleToggleCmd())
	cmd.AddCommand(newRuleExecuteCmd())
	return cmd
}

func newRuleListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List automation rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			rules, err := c.ListRules(cmd.Context())
			if err != nil {
				return err
			}
			if wantJSON(cmd) {
				return printJSON(cmd, rules)
			}
			if len(rules) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No rules.")
				return nil
			}
			for _, r := range rules {
				state := "disabled"
				if r.Enabled {
					state = "enabled"
				}
				sched := r.Schedule
				if sched == "" {
					sched = "manual"
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "- %s [%s] %s (trigger %s, %s, runs %d)\n",
					r.ID, state, r.Name, r.Trigger, sched, r.ExecutionCount)
			}
			return nil
		},
	}
}

func newRuleAddCmd() *cobra.Command {
	var (
		r        models.AutomationRule
		disabled bool
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an automation rule",
		RunE: func(cmd *cobra.Command, args []string) error {
			if r.Name == "" {
				return errors.New("--name is required")
			}
			if err := automation.ValidateSchedule(r.Schedule); err != nil {
				return err
			}
			r.Enabled = !disabled
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			created, err := c.AddRule(cmd.Context(), r)
			if err != nil {
				return err
			}
			if wantJSON(cmd) {
				return printJSON(cmd, created)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added rule %s\n", created.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&r.Name, "name", "", "Rule name")
	cmd.Flags().StringVar(&r.Trigger, "trigger", "manual", "Trigger event name")
	cmd.Flags().StringSliceVar(&r.Conditions, "condition", nil, "Condition (repeatable)")
	cmd.Flags().StringSliceVar(&r.Actions, "action", nil, "Action (repeatable)")
	cmd.Flags().StringVar(&r.Schedule, "schedule", "", `Cron schedule with seconds, e.g. "0 */15 * * * *"`)
	cmd.Flags().BoolVar(&disabled, "disabled", false, "Create the rule disabled")
	return cmd
}

func newRuleToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Enable or disable a rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			r, err := c.ToggleRule(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s enabled=%t\n", r.ID, r.Enabled)
			return nil
		},
	}
}

func newRuleExecuteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "execute <id>",
		Short: "Run a rule now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			r, err := c.ExecuteRule(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s executed (%d runs)\n", r.ID, r.ExecutionCount)
			return nil
		},
	}
}
