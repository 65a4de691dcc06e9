package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/pkg/client"
	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/pkg/models"
	"github.com/spf13/cobra"
)

func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage agent tasks",
	}
	cmd.AddCommand(newTaskListCmd())
	cmd.AddCommand(newTaskAddCmd())
	cmd.AddCommand(newTaskUpdateCmd())
	return cmd
}

func jsonFlag(name, value string) (json.RawMessage, error) {
	if value == "" {
		return nil, nil
	}
	if !json.Valid([]byte(value)) {
		return nil, fmt.Errorf("--%s must be valid JSON", name)
	}
	return json.RawMessage(value), nil
}

func newTaskListCmd() *cobra.Command {
	var (
		agent  string
		status string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := client.TaskFilter{AgentID: agent}
			if status != "" {
				s, err := models.ParseTaskStatus(status)
				if err != nil {
					return err
				}
				f.Status = s
			}
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			tasks, err := c.ListTasks(cmd.Context(), f)
			if err != nil {
				return err
			}
			if wantJSON(cmd) {
				return printJSON(cmd, tasks)
			}
			if len(tasks) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No tasks.")
				return nil
			}
			for _, t := range tasks {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "- %s [%s] %s on %s (%s, created %s)\n",
					t.ID, t.Status, t.Type, t.AgentID, t.Priority, t.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&agent, "agent", "", "Only tasks of this agent")
	cmd.Flags().StringVar(&status, "status", "", "Only tasks with this status (pending, processing, completed, failed)")
	return cmd
}

func newTaskAddCmd() *cobra.Command {
	var (
		t        models.AgentTask
		priority string
		data     string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Queue a task for an agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			if t.AgentID == "" || t.Type == "" {
				return errors.New("--agent and --type are required")
			}
			p, err := models.ParsePriority(priority)
			if err != nil {
				return err
			}
			t.Priority = p
			if t.Data, err = jsonFlag("data", data); err != nil {
				return err
			}
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			created, err := c.AddTask(cmd.Context(), t)
			if err != nil {
				return err
			}
			if wantJSON(cmd) {
				return printJSON(cmd, created)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added task %s\n", created.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&t.AgentID, "agent", "", "Agent id")
	cmd.Flags().StringVar(&t.Type, "type", "", "Task type")
	cmd.Flags().StringVar(&priority, "priority", "medium", "low, medium, high or critical")
	cmd.Flags().StringVar(&data, "data", "", "JSON payload")
	return cmd
}

func newTaskUpdateCmd() *cobra.Command {
	var (
		status string
		result string
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Set a task's status and result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := models.ParseTaskStatus(status)
			if err != nil {
				return err
			}
			raw, err := jsonFlag("result", result)
			if err != nil {
				return err
			}
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			t, err := c.UpdateTaskStatus(cmd.Context(), args[0], s, raw)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", t.ID, t.Status)
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "completed", "pending, processing, completed or failed")
	cmd.Flags().StringVar(&result, "result", "", "JSON result")
	return cmd
}
