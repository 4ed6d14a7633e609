package main

import (
	"context"

	"github.com/urfave/cli/v2"
)

var receive = cli.Command{
	Name:   "receive",
	Usage:  "derive the next unused receiving address",
	Action: receiveAction,
	Flags:  []cli.Flag{&passwordFlag},
}

func receiveAction(ctx *cli.Context) error {
	svc, err := getServices(ctx)
	if err != nil {
		return err
	}
	defer svc.cleanup()

	info, err := svc.cacheSvc.NextAddress(context.Background(), svc.walletID)
	if err != nil {
		return err
	}

	printRespJSON(map[string]interface{}{
		"address":         info.Address,
		"derivation_path": info.DerivationPath,
		"index":           info.Index,
	})

	return nil
}
