////////////////////////////////////////////////////////////////////////////////
// Realms DAO: token weighted governance over a local ledger
// realms create, vote on and execute proposals signed by their governances
////////////////////////////////////////////////////////////////////////////////

package main

import (
	"context"
	"os"
	"os/signal"

	"realms_dao/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := cli.NewRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
