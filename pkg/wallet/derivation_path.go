package wallet

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

// DerivationPath is the internal representation of a hierarchical
// deterministic wallet path
type DerivationPath []uint32

// Purposes supported by the wallet, one per address encoding scheme.
const (
	// PurposeLegacy is the BIP44 purpose, P2PKH base58check addresses.
	PurposeLegacy = 44
	// PurposeNestedSegwit is the BIP49 purpose, P2SH-P2WPKH addresses.
	PurposeNestedSegwit = 49
	// PurposeNativeSegwit is the BIP84 purpose, P2WPKH bech32 addresses.
	PurposeNativeSegwit = 84
)

// Chains of an account subtree.
const (
	// ExternalChain is the receiving chain of an account.
	ExternalChain = 0
	// InternalChain is the change chain of an account.
	InternalChain = 1
)

// ParseDerivationPath converts a derivation path string to the
// internal binary representation
func ParseDerivationPath(strPath string) (DerivationPath, error) {
	var path DerivationPath

	elems := strings.Split(strPath, "/")
	switch {
	case strPath == "":
		return nil, ErrNullDerivationPath

	case containsEmptyString(elems):
		return nil, ErrMalformedDerivationPath
	case len(elems) < 2:
		return nil, ErrMalformedDerivationPath

	case len(elems) > 1:
		if strings.TrimSpace(elems[0]) == "m" {
			elems = elems[1:]
		}

	default:
		return nil, ErrInvalidDerivationPath
	}

	// all remaining elems are relative, append one by one
	for _, elem := range elems {
		elem = strings.TrimSpace(elem)
		var value uint32

		if strings.HasSuffix(elem, "'") {
			value = hdkeychain.HardenedKeyStart
			elem = strings.TrimSpace(strings.TrimSuffix(elem, "'"))
		}

		// use big int for conversion
		bigval, ok := new(big.Int).SetString(elem, 0)
		if !ok {
			return nil, fmt.Errorf("invalid elem '%s' in path", elem)
		}

		max := math.MaxUint32 - value
		if bigval.Sign() < 0 || bigval.Cmp(big.NewInt(int64(max))) > 0 {
			return nil, ErrDerivationIndexOverflow
		}
		value += uint32(bigval.Uint64())

		path = append(path, value)
	}

	return path, nil
}

// String converts a binary derivation path to its canonical representation
func (path DerivationPath) String() string {
	if len(path) <= 0 {
		return ""
	}

	result := "m"
	for _, component := range path {
		var hardened bool
		if component >= hdkeychain.HardenedKeyStart {
			component -= hdkeychain.HardenedKeyStart
			hardened = true
		}
		result = fmt.Sprintf("%s/%d", result, component)
		if hardened {
			result += "'"
		}
	}
	return result
}

func containsEmptyString(composedPath []string) bool {
	for _, s := range composedPath {
		if s == "" {
			return true
		}
	}
	return false
}

// checkDerivationPath enforces the purpose'/coin_type'/account'/chain/index
// convention: five levels, the first three hardened, chain and index not.
func checkDerivationPath(path DerivationPath) error {
	if len(path) != 5 {
		return ErrInvalidDerivationPathLength
	}
	for _, level := range path[:3] {
		if level < hdkeychain.HardenedKeyStart {
			return ErrInvalidDerivationPathAccount
		}
	}
	switch path[0] - hdkeychain.HardenedKeyStart {
	case PurposeLegacy, PurposeNestedSegwit, PurposeNativeSegwit:
	default:
		return ErrInvalidPurpose
	}
	if path[3] >= hdkeychain.HardenedKeyStart || path[4] >= hdkeychain.HardenedKeyStart {
		return ErrDerivationIndexOverflow
	}
	if path[3] != ExternalChain && path[3] != InternalChain {
		return ErrInvalidDerivationPathChain
	}
	return nil
}
