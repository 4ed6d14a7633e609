package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"
	"github.com/vesper-wallet/vesper/pkg/wallet"
)

var genseed = cli.Command{
	Name:   "genseed",
	Usage:  "generate a mnemonic seed",
	Action: genSeedAction,
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "entropy",
			Usage: "entropy size in bits, either 128 or 256",
			Value: 256,
		},
	},
}

func genSeedAction(ctx *cli.Context) error {
	mnemonic, err := wallet.NewMnemonic(wallet.NewMnemonicOpts{
		EntropySize: ctx.Int("entropy"),
	})
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(strings.Join(mnemonic, " "))

	return nil
}
