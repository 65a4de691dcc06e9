package cli

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/agentstore"
	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/automation"
	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/config"
	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/store"
	"github.com/spf13/cobra"
)

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Verify settings, storage and the seed catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			home := config.MustHomeFrom(cmd.Context())
			out := cmd.OutOrStdout()
			var problems []string

			s, err := config.LoadSettings(home)
			if err != nil {
				problems = append(problems, "settings: "+err.Error())
			}

			switch s.DBDriver {
			case "", "sqlite":
				if err := store.EnsureSchema(home); err != nil {
					problems = append(problems, "sqlite: "+err.Error())
				}
			case "postgres":
				if s.DatabaseURL == "" && os.Getenv("DATABASE_URL") == "" {
					problems = append(problems, "postgres: no database_url or DATABASE_URL set")
				}
			}

			if s.CatalogPath != "" {
				cat, err := agentstore.LoadCatalog(s.CatalogPath)
				switch {
				case err != nil:
					problems = append(problems, "catalog: "+err.Error())
				case cat != nil:
					for _, r := range cat.Rules {
						if err := automation.ValidateSchedule(r.Schedule); err != nil {
							problems = append(problems, fmt.Sprintf("catalog rule %s: %v", r.ID, err))
						}
					}
				}
			}

			// git is only needed for `identity detect`.
			if _, err := exec.LookPath("git"); err != nil {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "warning: git not found on PATH; identity detect is unavailable")
			}

			if len(problems) > 0 {
				for _, p := range problems {
					_, _ = fmt.Fprintln(cmd.ErrOrStderr(), p)
				}
				return errors.New("doctor checks failed")
			}

			_, _ = fmt.Fprintln(out, "ok")
			return nil
		},
	}
	return cmd
}
