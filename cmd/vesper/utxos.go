package main

import (
	"context"

	"github.com/urfave/cli/v2"
)

var utxos = cli.Command{
	Name:   "utxos",
	Usage:  "list the unspent outputs of the wallet",
	Action: utxosAction,
	Flags:  []cli.Flag{&passwordFlag},
}

func utxosAction(ctx *cli.Context) error {
	svc, err := getServices(ctx)
	if err != nil {
		return err
	}
	defer svc.cleanup()

	list, err := svc.cacheSvc.GetUtxos(context.Background(), svc.walletID)
	if err != nil {
		return err
	}

	type utxoView struct {
		TxID          string `json:"txid"`
		VOut          uint32 `json:"vout"`
		Value         uint64 `json:"value"`
		Address       string `json:"address"`
		Confirmations int64  `json:"confirmations"`
		Spent         bool   `json:"spent"`
	}
	views := make([]utxoView, 0, len(list))
	for _, u := range list {
		views = append(views, utxoView{
			TxID:          u.TxID,
			VOut:          u.VOut,
			Value:         u.Value,
			Address:       u.Address,
			Confirmations: u.Confirmations,
			Spent:         u.Spent,
		})
	}

	printRespJSON(views)

	return nil
}
