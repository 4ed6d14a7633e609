package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"
)

var restorewallet = cli.Command{
	Name:   "restorewallet",
	Usage:  "restore a wallet from an existing mnemonic",
	Action: restoreWalletAction,
	Flags: []cli.Flag{
		&passwordFlag,
		&cli.StringFlag{
			Name:     "mnemonic",
			Usage:    "the space-separated mnemonic of the wallet to restore",
			Required: true,
		},
	},
}

func restoreWalletAction(ctx *cli.Context) error {
	mnemonic := strings.Fields(ctx.String("mnemonic"))

	if err := storeWallet(mnemonic, ctx.String("password")); err != nil {
		return err
	}

	fmt.Println("wallet restored, run 'sync' to recover its history")

	return nil
}
