package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v2"
)

var pending = cli.Command{
	Name:   "pending",
	Usage:  "list the broadcast transactions not yet observed on-chain",
	Action: pendingAction,
	Flags:  []cli.Flag{&passwordFlag},
}

func pendingAction(ctx *cli.Context) error {
	svc, err := getServices(ctx)
	if err != nil {
		return err
	}
	defer svc.cleanup()

	pendingTxs, err := svc.cacheSvc.GetPendingTransactions(
		context.Background(), svc.walletID,
	)
	if err != nil {
		return err
	}

	type pendingView struct {
		TxID      string    `json:"txid"`
		Recipient string    `json:"recipient"`
		Amount    uint64    `json:"amount"`
		Fee       uint64    `json:"fee"`
		CreatedAt time.Time `json:"created_at"`
	}
	views := make([]pendingView, 0, len(pendingTxs))
	for _, tx := range pendingTxs {
		views = append(views, pendingView{
			TxID:      tx.TxID,
			Recipient: tx.Recipient,
			Amount:    tx.Amount,
			Fee:       tx.Fee,
			CreatedAt: tx.CreatedAt,
		})
	}

	printRespJSON(views)

	return nil
}
