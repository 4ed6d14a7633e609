package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/spf13/viper"
)

const (
	// DatadirKey is the local data directory to store the wallet caches and
	// the encrypted state file
	DatadirKey = "DATADIR"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// NetworkKey selects the chain, one of mainnet, testnet, regtest
	NetworkKey = "NETWORK"
	// ExplorerTypeKey selects the indexer implementation, electrum or esplora
	ExplorerTypeKey = "EXPLORER_TYPE"
	// ElectrumURLKey is the endpoint of the electrum server, in
	// scheme://host:port format with scheme one of tcp, ssl, ws, wss
	ElectrumURLKey = "ELECTRUM_URL"
	// EsploraURLKey is the base url of the esplora REST API
	EsploraURLKey = "ESPLORA_URL"
	// GapLimitKey is the number of consecutive unused addresses that ends an
	// account discovery scan
	GapLimitKey = "GAP_LIMIT"
	// MaxGapExtensionsKey caps how many times a discovery scan may extend
	// the address window past the initial one
	MaxGapExtensionsKey = "MAX_GAP_EXTENSIONS"
	// CacheTTLKey is the age after which the reconciled caches count as
	// stale and reads trigger a new reconciliation
	CacheTTLKey = "CACHE_TTL"
	// MinConfirmationsKey is the confirmation threshold for an output to
	// fund a new transaction
	MinConfirmationsKey = "MIN_CONFIRMATIONS"
	// EsploraRequestsPerSecondKey paces the requests towards the esplora API
	EsploraRequestsPerSecondKey = "ESPLORA_REQUESTS_PER_SECOND"

	// ExplorerTypeElectrum ...
	ExplorerTypeElectrum = "electrum"
	// ExplorerTypeEsplora ...
	ExplorerTypeEsplora = "esplora"

	// DbLocation is the subdirectory of the datadir holding the badger store
	DbLocation = "db"

	networkMainnet = "mainnet"
	networkTestnet = "testnet"
	networkRegtest = "regtest"
)

var vip *viper.Viper
var defaultDatadir = btcutil.AppDataDir("vesper", false)

func InitConfig() error {
	vip = viper.New()
	vip.SetEnvPrefix("VESPER")
	vip.AutomaticEnv()

	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(LogLevelKey, 4)
	vip.SetDefault(NetworkKey, networkMainnet)
	vip.SetDefault(ExplorerTypeKey, ExplorerTypeElectrum)
	vip.SetDefault(ElectrumURLKey, "ssl://electrum.blockstream.info:50002")
	vip.SetDefault(EsploraURLKey, "https://blockstream.info/api")
	vip.SetDefault(GapLimitKey, 20)
	vip.SetDefault(MaxGapExtensionsKey, 10)
	vip.SetDefault(CacheTTLKey, 30*time.Minute)
	vip.SetDefault(MinConfirmationsKey, 2)
	vip.SetDefault(EsploraRequestsPerSecondKey, 10)

	if err := validate(); err != nil {
		return fmt.Errorf("error while validating config: %s", err)
	}

	if err := initDatadir(); err != nil {
		return fmt.Errorf("error while creating datadir: %s", err)
	}

	return nil
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetDuration(key string) time.Duration {
	return vip.GetDuration(key)
}

func GetBool(key string) bool {
	return vip.GetBool(key)
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

// GetNetwork maps the configured network name to its chain parameters.
func GetNetwork() (*chaincfg.Params, error) {
	switch network := GetString(NetworkKey); network {
	case networkMainnet:
		return &chaincfg.MainNetParams, nil
	case networkTestnet:
		return &chaincfg.TestNet3Params, nil
	case networkRegtest:
		return &chaincfg.RegressionNetParams, nil
	default:
		return nil, fmt.Errorf(
			"unknown network %s, must be one of %s, %s, %s",
			network, networkMainnet, networkTestnet, networkRegtest,
		)
	}
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("missing datadir")
	}

	if _, err := GetNetwork(); err != nil {
		return err
	}

	switch explorerType := GetString(ExplorerTypeKey); explorerType {
	case ExplorerTypeElectrum:
		if len(GetString(ElectrumURLKey)) <= 0 {
			return fmt.Errorf("missing electrum url")
		}
	case ExplorerTypeEsplora:
		if len(GetString(EsploraURLKey)) <= 0 {
			return fmt.Errorf("missing esplora url")
		}
	default:
		return fmt.Errorf(
			"unknown explorer type %s, must be either %s or %s",
			explorerType, ExplorerTypeElectrum, ExplorerTypeEsplora,
		)
	}

	if GetInt(GapLimitKey) <= 0 {
		return fmt.Errorf("%s must be a positive number", GapLimitKey)
	}
	if GetInt(MaxGapExtensionsKey) < 0 {
		return fmt.Errorf("%s must not be negative", MaxGapExtensionsKey)
	}
	if GetInt(MinConfirmationsKey) < 0 {
		return fmt.Errorf("%s must not be negative", MinConfirmationsKey)
	}

	return nil
}

func initDatadir() error {
	return makeDirectoryIfNotExists(filepath.Join(GetDatadir(), DbLocation))
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}
