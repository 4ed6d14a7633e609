package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConfigDefaults(t *testing.T) {
	t.Setenv("VESPER_DATADIR", filepath.Join(t.TempDir(), "vesper"))

	err := InitConfig()
	require.NoError(t, err)

	assert.Equal(t, ExplorerTypeElectrum, GetString(ExplorerTypeKey))
	assert.Equal(t, 20, GetInt(GapLimitKey))
	assert.Equal(t, 30*time.Minute, GetDuration(CacheTTLKey))

	network, err := GetNetwork()
	require.NoError(t, err)
	assert.Equal(t, &chaincfg.MainNetParams, network)
}

func TestInitConfigFromEnv(t *testing.T) {
	t.Setenv("VESPER_DATADIR", filepath.Join(t.TempDir(), "vesper"))
	t.Setenv("VESPER_NETWORK", "testnet")
	t.Setenv("VESPER_EXPLORER_TYPE", "esplora")
	t.Setenv("VESPER_ESPLORA_URL", "https://blockstream.info/testnet/api")
	t.Setenv("VESPER_GAP_LIMIT", "40")

	err := InitConfig()
	require.NoError(t, err)

	assert.Equal(t, 40, GetInt(GapLimitKey))
	assert.Equal(t, ExplorerTypeEsplora, GetString(ExplorerTypeKey))

	network, err := GetNetwork()
	require.NoError(t, err)
	assert.Equal(t, &chaincfg.TestNet3Params, network)
}

func TestInitConfigRejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown network", "VESPER_NETWORK", "signet"},
		{"unknown explorer", "VESPER_EXPLORER_TYPE", "bitcoind"},
		{"zero gap limit", "VESPER_GAP_LIMIT", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("VESPER_DATADIR", filepath.Join(t.TempDir(), "vesper"))
			t.Setenv(tt.key, tt.value)

			err := InitConfig()
			require.Error(t, err)
		})
	}
}
