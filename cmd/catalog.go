package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tarrence/linode-cli/internal/catalog"
	"github.com/tarrence/linode-cli/internal/clierr"
	"github.com/tarrence/linode-cli/internal/cligen"
	"github.com/tarrence/linode-cli/internal/openapi"
)

func newCatalogCmd(cat *catalog.Catalog) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:           "catalog",
		Short:         "Operation catalog utilities (for maintainers)",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	catalogCmd.AddCommand(newCatalogBakeCmd())
	catalogCmd.AddCommand(newCatalogListCmd(cat))
	catalogCmd.AddCommand(newCatalogVerifyCmd(cat))

	return catalogCmd
}

func newCatalogBakeCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:           "bake <spec>",
		Short:         "Bake an OpenAPI spec (path or http(s) URL) into a catalog",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			doc, err := openapi.Load(ctx, args[0])
			if err != nil {
				return clierr.New(clierr.FileIO, err)
			}
			cat, err := openapi.Bake(ctx, doc)
			if err != nil {
				return err
			}
			if err := verifyCatalog(cat); err != nil {
				return err
			}
			b, err := catalog.Marshal(cat)
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(b)
				return err
			}
			if err := os.WriteFile(out, b, 0o644); err != nil {
				return clierr.New(clierr.FileIO, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d commands, %d operations)\n", out, len(cat.Commands), len(cat.Operations()))
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "Write the catalog to this file instead of stdout")
	return cmd
}

func newCatalogListCmd(cat *catalog.Catalog) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List the operations in the loaded catalog",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if cat.APIVersion != "" {
				fmt.Fprintf(w, "# spec %s, %d operations\n", cat.APIVersion, len(cat.Operations()))
			}
			for _, op := range cat.Operations() {
				action := op.Action
				if len(op.Aliases) > 0 {
					action += " (" + strings.Join(op.Aliases, ", ") + ")"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", op.Command, action, strings.ToUpper(op.Method), op.URL)
			}
			return nil
		},
	}
}

func newCatalogVerifyCmd(cat *catalog.Catalog) *cobra.Command {
	return &cobra.Command{
		Use:           "verify",
		Short:         "Verify the loaded catalog generates unique, fully bound commands",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := verifyCatalog(cat); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}

func verifyCatalog(cat *catalog.Catalog) error {
	if err := cat.Verify(); err != nil {
		return err
	}
	root := &cobra.Command{Use: "verify-root"}
	return cligen.AddCatalogCommands(root, cat)
}
