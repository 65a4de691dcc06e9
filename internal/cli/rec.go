package cli

import (
	"errors"
	"fmt"

	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/pkg/models"
	"github.com/spf13/cobra"
)

func newRecCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rec",
		Aliases: []string{"recommendation"},
		Short:   "Manage agent recommendations",
	}
	cmd.AddCommand(newRecListCmd())
	cmd.AddCommand(newRecAddCmd())
	cmd.AddCommand(newRecDismissCmd())
	cmd.AddCommand(newRecProcessCmd())
	return cmd
}

func printRecommendations(cmd *cobra.Command, recs []models.Recommendation) error {
	if wantJSON(cmd) {
		return printJSON(cmd, recs)
	}
	if len(recs) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No recommendations.")
		return nil
	}
	for _, r := range recs {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "- %s [%s/%s] %s (agent %s, %.0f%%)\n",
			r.ID, r.Priority, r.Type, r.Title, r.AgentID, r.Confidence*100)
	}
	return nil
}

func newRecListCmd() *cobra.Command {
	var priority string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recommendations, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var p models.Priority
			if priority != "" {
				parsed, err := models.ParsePriority(priority)
				if err != nil {
					return err
				}
				p = parsed
			}
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			recs, err := c.ListRecommendations(cmd.Context(), p)
			if err != nil {
				return err
			}
			return printRecommendations(cmd, recs)
		},
	}
	cmd.Flags().StringVar(&priority, "priority", "", "Only this priority (low, medium, high, critical)")
	return cmd
}

func newRecAddCmd() *cobra.Command {
	var (
		r        models.Recommendation
		recType  string
		priority string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Raise a recommendation",
		RunE: func(cmd *cobra.Command, args []string) error {
			if r.Title == "" {
				return errors.New("--title is required")
			}
			if r.AgentID == "" {
				return errors.New("--agent is required")
			}
			t, err := models.ParseRecommendationType(recType)
			if err != nil {
				return err
			}
			p, err := models.ParsePriority(priority)
			if err != nil {
				return err
			}
			r.Type, r.Priority = t, p
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			created, err := c.AddRecommendation(cmd.Context(), r)
			if err != nil {
				return err
			}
			if wantJSON(cmd) {
				return printJSON(cmd, created)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added recommendation %s\n", created.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&r.Title, "title", "", "Title")
	cmd.Flags().StringVar(&r.Description, "description", "", "Description")
	cmd.Flags().StringVar(&r.AgentID, "agent", "", "Raising agent id")
	cmd.Flags().StringVar(&r.Action, "action", "", "Suggested follow-up")
	cmd.Flags().Float64Var(&r.Confidence, "confidence", 0.8, "Confidence between 0 and 1")
	cmd.Flags().StringVar(&recType, "type", "alert", "alert, suggestion, action or optimization")
	cmd.Flags().StringVar(&priority, "priority", "medium", "low, medium, high or critical")
	return cmd
}

func newRecDismissCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dismiss <id>",
		Short: "Dismiss a recommendation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			if err := c.DismissRecommendation(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Dismissed %s\n", args[0])
			return nil
		},
	}
}

func newRecProcessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process",
		Short: "Escalate critical recommendations to the care team now",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			recs, err := c.ProcessRecommendations(cmd.Context())
			if err != nil {
				return err
			}
			if wantJSON(cmd) {
				return printJSON(cmd, recs)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Escalated %d critical recommendation(s)\n", len(recs))
			return nil
		},
	}
}
