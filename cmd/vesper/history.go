package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v2"
)

var history = cli.Command{
	Name:   "history",
	Usage:  "list the transactions of the wallet",
	Action: historyAction,
	Flags:  []cli.Flag{&passwordFlag},
}

func historyAction(ctx *cli.Context) error {
	svc, err := getServices(ctx)
	if err != nil {
		return err
	}
	defer svc.cleanup()

	txs, err := svc.cacheSvc.GetHistory(context.Background(), svc.walletID)
	if err != nil {
		return err
	}

	type txView struct {
		TxID           string    `json:"txid"`
		Classification string    `json:"classification"`
		NetAmount      int64     `json:"net_amount"`
		Confirmations  int64     `json:"confirmations"`
		BlockTime      time.Time `json:"block_time,omitempty"`
	}
	views := make([]txView, 0, len(txs))
	for _, tx := range txs {
		views = append(views, txView{
			TxID:           tx.TxID,
			Classification: string(tx.Classification),
			NetAmount:      tx.NetAmount,
			Confirmations:  tx.Confirmations,
			BlockTime:      tx.BlockTime,
		})
	}

	printRespJSON(views)

	return nil
}
