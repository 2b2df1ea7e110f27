package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/landmark/pkg/landmark"
)

const modulePath = "github.com/mesh-intelligence/landmark"

func (a *app) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the landmark version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.jsonMode {
				return printJSON(cmd.OutOrStdout(), map[string]string{"version": landmark.Version, "module": modulePath})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "landmark v%s\nmodule: %s\n", landmark.Version, modulePath)
			return nil
		},
	}
}
