package main

import (
	"context"

	"github.com/urfave/cli/v2"
)

var sync = cli.Command{
	Name:   "sync",
	Usage:  "reconcile the local caches against the indexer",
	Action: syncAction,
	Flags:  []cli.Flag{&passwordFlag},
}

func syncAction(ctx *cli.Context) error {
	svc, err := getServices(ctx)
	if err != nil {
		return err
	}
	defer svc.cleanup()

	cache, err := svc.cacheSvc.Reconcile(context.Background(), svc.walletID)
	if err != nil {
		return err
	}

	printRespJSON(map[string]interface{}{
		"transactions": len(cache.Transactions),
		"utxos":        len(cache.Utxos),
		"tip_height":   cache.TipHeight,
		"synced_at":    cache.LastUpdated,
	})

	return nil
}
