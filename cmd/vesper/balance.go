package main

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
)

var balance = cli.Command{
	Name:   "balance",
	Usage:  "check the balance of the wallet",
	Action: balanceAction,
	Flags:  []cli.Flag{&passwordFlag},
}

func balanceAction(ctx *cli.Context) error {
	svc, err := getServices(ctx)
	if err != nil {
		return err
	}
	defer svc.cleanup()

	bal, err := svc.cacheSvc.GetBalance(context.Background(), svc.walletID)
	if err != nil {
		return err
	}

	printRespJSON(map[string]interface{}{
		"confirmed_sats":   bal.Confirmed,
		"unconfirmed_sats": bal.Unconfirmed,
		"confirmed_btc":    satsToBTC(bal.Confirmed),
		"unconfirmed_btc":  satsToBTC(bal.Unconfirmed),
	})

	return nil
}

func satsToBTC(sats uint64) string {
	return decimal.NewFromInt(int64(sats)).
		Div(decimal.NewFromInt(100000000)).StringFixed(8)
}
