package commands

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/imamik/nodeup/cmd/nodeup/handlers"
)

// Nodes returns the command group for inspecting registered nodes without
// entering the conversation.
func Nodes() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "nodes",
		Short: "Inspect nodes registered with the Marzban panel",
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: nodeup.yaml)")

	var jsonOutput bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List registered nodes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.NodesList(cmd.Context(), configPath, jsonOutput)
		},
	}
	list.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.AddCommand(list)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <node-id>",
		Short: "Delete a registered node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return err
			}
			return handlers.NodesDelete(cmd.Context(), configPath, id)
		},
	})

	return cmd
}
