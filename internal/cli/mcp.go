package cli

import (
	"github.com/anshukumar-mobius/RAK-Healthcarev4-sub001/internal/mcp"
	"github.com/spf13/cobra"
)

func newMCPCmd() *cobra.Command {
	var agentID string
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the agent panel as MCP tools over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := apiClient(cmd)
			if err != nil {
				return err
			}
			return mcp.ServeStdio(&mcp.Toolkit{Backend: c, AgentID: agentID}, cmd.Root().Version)
		},
	}
	cmd.Flags().StringVar(&agentID, "as-agent", "", "Attribute recommendations raised through the tools to this agent")
	return cmd
}
