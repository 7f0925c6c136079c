package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tarrence/linode-cli/internal/catalog"
	"github.com/tarrence/linode-cli/internal/version"
)

func newVersionCmd(cat *catalog.Catalog) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "linode-cli %s\n", version.Version())
			if cat.APIVersion != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Built from spec version %s\n", cat.APIVersion)
			}
		},
	}
}
