package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/nodeup/cmd/nodeup/handlers"
)

// Validate returns the command that checks configuration without starting
// anything.
func Validate() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and report problems",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Validate(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: nodeup.yaml)")

	return cmd
}
