package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/pkg/client"
	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/pkg/models"
	"github.com/spf13/cobra"
)

func newAgentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Inspect agents and trigger actions",
	}
	cmd.AddCommand(newAgentListCmd())
	cmd.AddCommand(newAgentShowCmd())
	cmd.AddCommand(newAgentStatusCmd())
	cmd.AddCommand(newAgentTriggerCmd())
	return cmd
}

func newAgentListCmd() *cobra.Command {
	var (
		agentType string
		active    bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List agents",
		RunE: func(cmd *cobra.Command, args []string) error {
			var f client.AgentFilter
			if agentType != "" {
				t, err := models.ParseAgentType(agentType)
				if err != nil {
					return err
				}
				f.Type = t
			}
			f.ActiveOnly = active
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			agents, err := c.ListAgents(cmd.Context(), f)
			if err != nil {
				return err
			}
			if wantJSON(cmd) {
				return printJSON(cmd, agents)
			}
			if len(agents) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No agents.")
				return nil
			}
			for _, a := range agents {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "- %s [%s] %s (%s)\n", a.ID, a.Status, a.Name, a.Type)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&agentType, "type", "", "Only agents of this type (clinical, administrative, operational, predictive, diagnostic)")
	cmd.Flags().BoolVar(&active, "active", false, "Only active agents")
	return cmd
}

func newAgentShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			a, err := c.GetAgent(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, a)
		},
	}
}

func newAgentStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <active|idle|processing|offline>",
		Short: "Set an agent's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := models.ParseAgentStatus(args[1])
			if err != nil {
				return err
			}
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			a, err := c.UpdateAgentStatus(cmd.Context(), args[0], status)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", a.ID, a.Status)
			return nil
		},
	}
}

func newAgentTriggerCmd() *cobra.Command {
	var (
		action string
		data   string
	)
	cmd := &cobra.Command{
		Use:   "trigger <id>",
		Short: "Trigger an action on an agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw json.RawMessage
			if data != "" {
				if !json.Valid([]byte(data)) {
					return errors.New("--data must be valid JSON")
				}
				raw = json.RawMessage(data)
			}
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			task, err := c.TriggerAction(cmd.Context(), args[0], action, raw)
			if err != nil {
				return err
			}
			if wantJSON(cmd) {
				return printJSON(cmd, task)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Triggered %s on %s (task %s)\n", task.Type, args[0], task.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&action, "action", "manual_trigger", "Action name")
	cmd.Flags().StringVar(&data, "data", "", "JSON payload for the action")
	return cmd
}
