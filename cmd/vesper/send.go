package main

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
	"github.com/vesper-wallet/vesper/internal/core/application"
)

var send = cli.Command{
	Name:   "send",
	Usage:  "send funds to an address",
	Action: sendAction,
	Flags: []cli.Flag{
		&passwordFlag,
		&cli.StringFlag{
			Name:     "to",
			Usage:    "the recipient address",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "amount",
			Usage:    "the amount to send in BTC, ie. 0.001",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "priority",
			Usage: "fee priority: slow, normal, fast or urgent",
			Value: string(application.FeePriorityNormal),
		},
	},
}

func sendAction(ctx *cli.Context) error {
	amountSats, err := btcToSats(ctx.String("amount"))
	if err != nil {
		return err
	}

	svc, err := getServices(ctx)
	if err != nil {
		return err
	}
	defer svc.cleanup()

	result, err := svc.sendSvc.Send(
		context.Background(), svc.walletID, ctx.String("to"), amountSats,
		application.FeePriority(ctx.String("priority")),
	)
	if err != nil {
		return err
	}

	printRespJSON(map[string]interface{}{
		"txid":        result.TxID,
		"fee_sats":    result.Fee,
		"change_sats": result.ChangeAmount,
	})

	return nil
}

func btcToSats(amount string) (uint64, error) {
	btc, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, errors.New("amount must be a decimal number of BTC")
	}
	sats := btc.Mul(decimal.NewFromInt(100000000))
	if !sats.Equal(sats.Truncate(0)) {
		return 0, errors.New("amount has sub-satoshi precision")
	}
	if !sats.IsPositive() {
		return 0, errors.New("amount must be greater than zero")
	}
	return uint64(sats.IntPart()), nil
}
