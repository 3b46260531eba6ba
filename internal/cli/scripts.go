package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/mowbray/fieldbot/internal/scripts"
)

// NewScriptsCommand creates the scripts command.
func NewScriptsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "scripts",
		Short: "List the registered maintenance scripts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := &OutputFormatter{
				Format:  rootOpts.Format,
				Writer:  cmd.OutOrStdout(),
				Verbose: rootOpts.Verbose,
			}
			names := scripts.Names()
			if rootOpts.Format == "json" {
				return formatter.Success(names)
			}
			return formatter.Success(strings.Join(names, "\n"))
		},
	}
}
