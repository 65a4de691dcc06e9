package cli

import (
	"errors"
	"fmt"

	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/config"
	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/identity"
	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/pkg/models"
	"github.com/spf13/cobra"
)

func newIdentityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "identity",
		Short: "Manage staff identities and their roles",
	}
	cmd.AddCommand(newIdentityDetectCmd())
	cmd.AddCommand(newIdentitySetCmd())
	cmd.AddCommand(newIdentityListCmd())
	return cmd
}

func newIdentityDetectCmd() *cobra.Command {
	var (
		repoDir string
		role    string
	)
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Detect name and email from git config and save them with a role to members/",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := models.ParseRole(role)
			if err != nil {
				return err
			}
			home := config.MustHomeFrom(cmd.Context())
			s := identity.DetectFromGit(repoDir)
			if s.Name == "" {
				return errors.New("git user.name is not set; use `careagent identity set`")
			}
			s.Role = r
			if err := identity.SaveStaff(home, s); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Detected: %s <%s> as %s\n", s.Name, s.Email, s.Role)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Saved to %s\n", identity.MemberPath(home, s.Name))
			return nil
		},
	}
	cmd.Flags().StringVar(&repoDir, "repo", "", "Git repo path (default: global git config)")
	cmd.Flags().StringVar(&role, "role", "", "Staff role (admin, doctor, nurse, receptionist, diagnostician)")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

func newIdentitySetCmd() *cobra.Command {
	var (
		s    models.Staff
		role string
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Create or replace a staff member",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := models.ParseRole(role)
			if err != nil {
				return err
			}
			s.Role = r
			home := config.MustHomeFrom(cmd.Context())
			if err := identity.SaveStaff(home, s); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s) as %s\n", s.Name, identity.Username(s.Name), s.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&s.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&s.Email, "email", "", "Email")
	cmd.Flags().StringVar(&role, "role", "", "Staff role")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}

func newIdentityListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List staff members",
		RunE: func(cmd *cobra.Command, args []string) error {
			staff, err := identity.ListStaff(config.MustHomeFrom(cmd.Context()))
			if err != nil {
				return err
			}
			if wantJSON(cmd) {
				return printJSON(cmd, staff)
			}
			if len(staff) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No staff members.")
				return nil
			}
			for _, s := range staff {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "- %s (%s) %s\n", identity.Username(s.Name), s.Role, s.Email)
			}
			return nil
		},
	}
}
