package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"github.com/vesper-wallet/vesper/internal/config"
	"github.com/vesper-wallet/vesper/internal/core/application"
	"github.com/vesper-wallet/vesper/internal/core/domain"
	"github.com/vesper-wallet/vesper/internal/core/ports"
	dbbadger "github.com/vesper-wallet/vesper/internal/infrastructure/storage/db/badger"
	"github.com/vesper-wallet/vesper/pkg/explorer"
	"github.com/vesper-wallet/vesper/pkg/explorer/electrum"
	"github.com/vesper-wallet/vesper/pkg/explorer/esplora"
	"github.com/vesper-wallet/vesper/pkg/wallet"
)

var (
	vesperDataDir = btcutil.AppDataDir("vesper", false)
	statePath     = path.Join(vesperDataDir, "state.json")
)

func main() {
	app := cli.NewApp()

	app.Version = "0.1.0"
	app.Name = "vesper CLI"
	app.Usage = "Command line interface for the vesper wallet engine"
	app.Commands = append(
		app.Commands,
		&configCmd,
		&genseed,
		&createwallet,
		&restorewallet,
		&receive,
		&balance,
		&sync,
		&utxos,
		&history,
		&estimatefee,
		&send,
		&pending,
	)

	err := app.Run(os.Args)
	if err != nil {
		fatal(err)
	}
}

func getState() (map[string]string, error) {
	data := map[string]string{}

	file, err := os.ReadFile(statePath)
	if err != nil {
		return nil, errors.New("get config state error: try 'createwallet' or 'restorewallet'")
	}
	json.Unmarshal(file, &data)

	return data, nil
}

func setState(data map[string]string) error {
	if _, err := os.Stat(vesperDataDir); os.IsNotExist(err) {
		os.Mkdir(vesperDataDir, os.ModeDir|0755)
	}

	currentData := map[string]string{}
	if file, err := os.ReadFile(statePath); err == nil {
		json.Unmarshal(file, &currentData)
	}

	mergedData := merge(currentData, data)

	jsonString, err := json.Marshal(mergedData)
	if err != nil {
		return err
	}
	if err := os.WriteFile(statePath, jsonString, 0644); err != nil {
		return fmt.Errorf("writing to file: %w", err)
	}

	return nil
}

func merge(maps ...map[string]string) map[string]string {
	merge := make(map[string]string, 0)
	for _, m := range maps {
		for k, v := range m {
			merge[k] = v
		}
	}
	return merge
}

func printRespJSON(resp interface{}) {
	jsonStr, err := json.MarshalIndent(resp, "", "\t")
	if err != nil {
		fmt.Println("unable to encode response: ", err)
		return
	}

	fmt.Println(string(jsonStr))
}

// services bundles everything a wallet command needs, with a cleanup to
// release the store and the indexer connection.
type services struct {
	walletID    string
	cacheSvc    application.TransactionCacheService
	sendSvc     application.SendService
	repoManager ports.RepoManager
	cleanup     func()
}

// getServices loads the config, decrypts the mnemonic from the local state
// with the given password and wires the engine. The decrypted seed lives in
// the process only.
func getServices(ctx *cli.Context) (*services, error) {
	if err := config.InitConfig(); err != nil {
		return nil, err
	}
	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))

	network, err := config.GetNetwork()
	if err != nil {
		return nil, err
	}

	state, err := getState()
	if err != nil {
		return nil, err
	}
	walletID, ok := state["wallet_id"]
	if !ok {
		return nil, errors.New("no wallet found: try 'createwallet' or 'restorewallet'")
	}
	encryptedMnemonic, ok := state["encrypted_mnemonic"]
	if !ok {
		return nil, errors.New("no wallet found: try 'createwallet' or 'restorewallet'")
	}

	password := ctx.String("password")
	mnemonic, err := wallet.Decrypt(wallet.DecryptOpts{
		CypherText: encryptedMnemonic,
		Passphrase: password,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to unlock wallet: %w", err)
	}

	w, err := wallet.NewWalletFromMnemonic(wallet.NewWalletFromMnemonicOpts{
		Mnemonic: strings.Split(mnemonic, " "),
		Network:  network,
	})
	if err != nil {
		return nil, err
	}

	coinType := uint32(0)
	if network.Name != "mainnet" {
		coinType = 1
	}
	account := domain.Account{Purpose: 84, CoinType: coinType, Index: 0}

	keeper := application.NewWalletKeeper()
	if _, err := keeper.RegisterWalletWithID(
		walletID, w, account, network,
	); err != nil {
		return nil, err
	}

	explorerSvc, err := getExplorer()
	if err != nil {
		return nil, err
	}

	repoManager, err := dbbadger.NewRepoManager(
		path.Join(config.GetDatadir(), config.DbLocation), nil,
	)
	if err != nil {
		explorerSvc.Close()
		return nil, err
	}

	cacheSvc := application.NewTransactionCacheService(
		keeper, repoManager, explorerSvc, nil,
		config.GetInt(config.GapLimitKey),
		config.GetInt(config.MaxGapExtensionsKey),
		config.GetDuration(config.CacheTTLKey),
	)
	sendSvc := application.NewSendService(
		keeper, repoManager, cacheSvc, explorerSvc, nil,
		int64(config.GetInt(config.MinConfirmationsKey)),
	)

	return &services{
		walletID:    walletID,
		cacheSvc:    cacheSvc,
		sendSvc:     sendSvc,
		repoManager: repoManager,
		cleanup: func() {
			repoManager.Close()
			explorerSvc.Close()
		},
	}, nil
}

func getExplorer() (explorer.Service, error) {
	switch config.GetString(config.ExplorerTypeKey) {
	case config.ExplorerTypeEsplora:
		return esplora.NewService(esplora.ServiceOpts{
			APIURL:            config.GetString(config.EsploraURLKey),
			RequestsPerSecond: config.GetInt(config.EsploraRequestsPerSecondKey),
		})
	default:
		network, err := config.GetNetwork()
		if err != nil {
			return nil, err
		}
		return electrum.NewService(electrum.ServiceOpts{
			Addr:    config.GetString(config.ElectrumURLKey),
			Network: network,
		})
	}
}

type invalidUsageError struct {
	ctx     *cli.Context
	command string
}

func (e *invalidUsageError) Error() string {
	return fmt.Sprintf("invalid usage of command %s", e.command)
}

func fatal(err error) {
	var e *invalidUsageError
	if errors.As(err, &e) {
		_ = cli.ShowCommandHelp(e.ctx, e.command)
	} else {
		_, _ = fmt.Fprintf(os.Stderr, "[vesper] %v\n", err)
	}
	os.Exit(1)
}
