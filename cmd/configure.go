package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tarrence/linode-cli/internal/clierr"
	"github.com/tarrence/linode-cli/internal/config"
)

func newConfigureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Explain how to configure credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return clierr.Authf("interactive configuration is not supported.\n\n"+
				"Set LINODE_CLI_TOKEN, or write %s:\n\n"+
				"  default-user: me\n"+
				"  users:\n"+
				"    me:\n"+
				"      token: <personal access token>\n"+
				"      defaults:\n"+
				"        region: us-east", config.DefaultPath())
		},
	}
}
