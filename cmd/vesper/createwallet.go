package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"github.com/vesper-wallet/vesper/internal/config"
	"github.com/vesper-wallet/vesper/pkg/wallet"
)

var createwallet = cli.Command{
	Name:   "createwallet",
	Usage:  "create a new wallet and store its encrypted mnemonic locally",
	Action: createWalletAction,
	Flags: []cli.Flag{
		&passwordFlag,
		&cli.IntFlag{
			Name:  "entropy",
			Usage: "entropy size in bits, either 128 or 256",
			Value: 256,
		},
	},
}

func createWalletAction(ctx *cli.Context) error {
	mnemonic, err := wallet.NewMnemonic(wallet.NewMnemonicOpts{
		EntropySize: ctx.Int("entropy"),
	})
	if err != nil {
		return err
	}

	if err := storeWallet(mnemonic, ctx.String("password")); err != nil {
		return err
	}

	fmt.Println("wallet created, write down the mnemonic, it is shown only once")
	fmt.Println()
	fmt.Println(strings.Join(mnemonic, " "))

	return nil
}

// storeWallet encrypts the mnemonic with the password and saves it in the
// local state along with a fresh wallet id.
func storeWallet(mnemonic []string, password string) error {
	if err := config.InitConfig(); err != nil {
		return err
	}
	network, err := config.GetNetwork()
	if err != nil {
		return err
	}

	// reject invalid mnemonics before anything touches the disk
	if _, err := wallet.NewWalletFromMnemonic(wallet.NewWalletFromMnemonicOpts{
		Mnemonic: mnemonic,
		Network:  network,
	}); err != nil {
		return err
	}

	encryptedMnemonic, err := wallet.Encrypt(wallet.EncryptOpts{
		PlainText:  strings.Join(mnemonic, " "),
		Passphrase: password,
	})
	if err != nil {
		return err
	}

	return setState(map[string]string{
		"wallet_id":          uuid.NewString(),
		"encrypted_mnemonic": encryptedMnemonic,
	})
}
