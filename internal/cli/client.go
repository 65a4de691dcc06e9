package cli

import (
	"os"
	"strconv"

	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/config"
	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/daemon"
	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/pkg/client"
	"github.com/spf13/cobra"
)

const (
	flagServer = "server"
	flagAPIKey = "api-key"
	flagStaff  = "staff"
	flagJSON   = "json"
)

func addClientFlags(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.String(flagServer, "", "API base URL (default: the running daemon's address)")
	pf.String(flagAPIKey, "", "API key (default: CAREAGENT_API_KEY or api_key in config.yaml)")
	pf.String(flagStaff, "", "Staff username sent as X-Staff-User (env: CAREAGENT_STAFF)")
	pf.Bool(flagJSON, false, "Print raw JSON")
}

// apiClient builds a client for the daemon serving home. The base URL comes from --server, the
// daemon's addr file, or the configured host and port, in that order.
func apiClient(cmd *cobra.Command) (*client.Client, error) {
	home := config.MustHomeFrom(cmd.Context())
	settings, err := config.LoadSettings(home)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()

	base, _ := flags.GetString(flagServer)
	if base == "" {
		if st, _ := daemon.Status(cmd.Context(), home); st.Running && st.Addr != "unknown" {
			base = "http://" + st.Addr
		} else {
			base = "http://" + settings.Host + ":" + strconv.Itoa(settings.Port)
		}
	}
	key, _ := flags.GetString(flagAPIKey)
	if key == "" {
		key = settings.APIKey
	}
	c := client.New(base, key)
	c.StaffUser, _ = flags.GetString(flagStaff)
	if c.StaffUser == "" {
		c.StaffUser = os.Getenv("CAREAGENT_STAFF")
	}
	return c, nil
}

func wantJSON(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool(flagJSON)
	return v
}
