package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/nodeup/cmd/nodeup/handlers"
)

// Serve returns the command that runs the node manager conversation.
//
// The workflow runs in a local terminal chat: the configured admin walks
// through node setup interactively while provisioning and registration
// happen in the background.
//
// Optional flags:
//
//	--config, -c: Path to configuration YAML file (default: auto-detect nodeup.yaml)
//
// Environment variables:
//
//	NODEUP_BOT_ADMIN_IDS: comma-separated admin allow-list (required)
//	NODEUP_MARZBAN_URL, NODEUP_MARZBAN_USERNAME, NODEUP_MARZBAN_PASSWORD:
//	  panel endpoint and credentials (required)
//	NODEUP_NODE_CERTIFICATE: client certificate for provisioned nodes (required)
func Serve() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the node manager conversation",
		Long: `Run the node manager conversation in the terminal.

The conversation walks through node setup: server IP, root password, ports,
confirmation, then live provisioning progress. Existing nodes can be listed,
inspected and deleted from the same session.

Examples:
  # Run with nodeup.yaml from the current directory
  nodeup serve

  # Run with a specific config file
  nodeup serve -c production.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Serve(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: nodeup.yaml)")

	return cmd
}
