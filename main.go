package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tarrence/linode-cli/cmd"
	"github.com/tarrence/linode-cli/internal/clierr"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, err := cmd.NewRootCmd(cmd.WithCatalogFile(cmd.CatalogFlag(os.Args[1:])))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(clierr.ExitCode(err))
	}
	code := cmd.Execute(ctx, root)
	stop()
	os.Exit(code)
}
