package wallet

import (
	"math"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/tyler-smith/go-bip39"
)

const (
	// MaxHardenedValue is the max value for hardened indexes of BIP32
	// derivation paths
	MaxHardenedValue = math.MaxUint32 - hdkeychain.HardenedKeyStart

	// DustThreshold is the lowest output value in satoshis accepted for a
	// transaction output.
	DustThreshold = 546
)

func generateMnemonic(entropySize int) ([]string, error) {
	entropy, err := bip39.NewEntropy(entropySize)
	if err != nil {
		return nil, err
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, err
	}
	return strings.Split(mnemonic, " "), nil
}

func generateSeedFromMnemonic(mnemonic []string) []byte {
	m := strings.Join(mnemonic, " ")
	return bip39.NewSeed(m, "")
}

func isMnemonicValid(mnemonic []string) bool {
	m := strings.Join(mnemonic, " ")
	return bip39.IsMnemonicValid(m)
}

func varIntSerializeSize(val uint64) int {
	// The value is small enough to be represented by itself, so it's
	// just 1 byte.
	if val < 0xfd {
		return 1
	}

	// Discriminant 1 byte plus 2 bytes for the uint16.
	if val <= math.MaxUint16 {
		return 3
	}

	// Discriminant 1 byte plus 4 bytes for the uint32.
	if val <= math.MaxUint32 {
		return 5
	}

	// Discriminant 1 byte plus 8 bytes for the uint64.
	return 9
}

// OutputScriptForAddress decodes an address, enforcing the given network, and
// returns its locking script. Malformed addresses fail, they are never
// coerced.
func OutputScriptForAddress(
	addr string, net *chaincfg.Params,
) ([]byte, error) {
	if net == nil {
		return nil, ErrNullNetwork
	}
	decoded, err := btcutil.DecodeAddress(addr, net)
	if err != nil {
		return nil, ErrInvalidAddress
	}
	if !decoded.IsForNet(net) {
		return nil, ErrInvalidAddress
	}
	return txscript.PayToAddrScript(decoded)
}

// scriptTypeForScript maps a locking script to the input/output size classes
// of the estimation model.
func scriptTypeForScript(script []byte) (int, error) {
	switch txscript.GetScriptClass(script) {
	case txscript.PubKeyHashTy:
		return P2PKH, nil
	case txscript.ScriptHashTy:
		// treated as a nested P2WPKH, the only P2SH script this wallet
		// produces
		return P2SH_P2WPKH, nil
	case txscript.WitnessV0PubKeyHashTy:
		return P2WPKH, nil
	case txscript.WitnessV0ScriptHashTy:
		return P2WSH, nil
	case txscript.WitnessV1TaprootTy:
		return P2TR, nil
	default:
		return 0, ErrUnsupportedScript
	}
}
