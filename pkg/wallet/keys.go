package wallet

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
)

// ExtendedKeyOpts is the struct given to ExtendedPrivateKey and
// ExtendedPublicKey methods
type ExtendedKeyOpts struct {
	Purpose  uint32
	CoinType uint32
	Account  uint32
}

func (o ExtendedKeyOpts) validate() error {
	switch o.Purpose {
	case PurposeLegacy, PurposeNestedSegwit, PurposeNativeSegwit:
	default:
		return ErrInvalidPurpose
	}
	if o.CoinType > MaxHardenedValue || o.Account > MaxHardenedValue {
		return ErrDerivationIndexOverflow
	}
	return nil
}

func (o ExtendedKeyOpts) path() DerivationPath {
	return DerivationPath{
		hdkeychain.HardenedKeyStart + o.Purpose,
		hdkeychain.HardenedKeyStart + o.CoinType,
		hdkeychain.HardenedKeyStart + o.Account,
	}
}

// ExtendedPrivateKey returns the signing extended private key in base58
// format for the provided account, derived at
// m/purpose'/coin_type'/account'
func (w *Wallet) ExtendedPrivateKey(opts ExtendedKeyOpts) (string, error) {
	if err := opts.validate(); err != nil {
		return "", err
	}
	if err := w.validate(); err != nil {
		return "", err
	}

	xprv, err := w.deriveKey(opts.path())
	if err != nil {
		return "", err
	}
	return xprv.String(), nil
}

// ExtendedPublicKey returns the signing extended public key in base58 format
// for the provided account
func (w *Wallet) ExtendedPublicKey(opts ExtendedKeyOpts) (string, error) {
	if err := opts.validate(); err != nil {
		return "", err
	}
	if err := w.validate(); err != nil {
		return "", err
	}

	xprv, err := w.deriveKey(opts.path())
	if err != nil {
		return "", err
	}
	xpub, err := xprv.Neuter()
	if err != nil {
		return "", err
	}
	return xpub.String(), nil
}

// DeriveSigningKeyPairOpts is the struct given to DeriveSigningKeyPair method
type DeriveSigningKeyPairOpts struct {
	DerivationPath string
}

func (o DeriveSigningKeyPairOpts) validate() error {
	derivationPath, err := ParseDerivationPath(o.DerivationPath)
	if err != nil {
		return err
	}
	return checkDerivationPath(derivationPath)
}

// DeriveSigningKeyPair derives the key pair of the provided derivation path
func (w *Wallet) DeriveSigningKeyPair(opts DeriveSigningKeyPairOpts) (
	*btcec.PrivateKey,
	*btcec.PublicKey,
	error,
) {
	if err := opts.validate(); err != nil {
		return nil, nil, err
	}
	if err := w.validate(); err != nil {
		return nil, nil, err
	}

	derivationPath, _ := ParseDerivationPath(opts.DerivationPath)
	hdNode, err := w.deriveKey(derivationPath)
	if err != nil {
		return nil, nil, err
	}

	privateKey, err := hdNode.ECPrivKey()
	if err != nil {
		return nil, nil, err
	}
	publicKey, err := hdNode.ECPubKey()
	if err != nil {
		return nil, nil, err
	}

	return privateKey, publicKey, nil
}

// DeriveAddressOpts is the struct given to DeriveAddress method
type DeriveAddressOpts struct {
	DerivationPath string
	Network        *chaincfg.Params
}

func (o DeriveAddressOpts) validate() error {
	derivationPath, err := ParseDerivationPath(o.DerivationPath)
	if err != nil {
		return err
	}
	if err := checkDerivationPath(derivationPath); err != nil {
		return err
	}
	if o.Network == nil {
		return ErrNullNetwork
	}
	return nil
}

// DeriveAddress derives the public key of the provided derivation path
// and encodes it with the scheme mandated by the path's purpose level:
// base58check P2PKH for 44', nested P2SH-P2WPKH for 49', bech32 P2WPKH
// for 84'. It returns the encoded address along with its locking script.
func (w *Wallet) DeriveAddress(opts DeriveAddressOpts) (string, []byte, error) {
	if err := opts.validate(); err != nil {
		return "", nil, err
	}
	if err := w.validate(); err != nil {
		return "", nil, err
	}

	_, pubkey, err := w.DeriveSigningKeyPair(DeriveSigningKeyPairOpts{
		DerivationPath: opts.DerivationPath,
	})
	if err != nil {
		return "", nil, err
	}

	derivationPath, _ := ParseDerivationPath(opts.DerivationPath)
	purpose := derivationPath[0] - hdkeychain.HardenedKeyStart
	return encodeAddress(pubkey, purpose, opts.Network)
}

// AddressData groups everything known about a derived address
type AddressData struct {
	Address        string
	Script         []byte
	DerivationPath string
	Index          uint32
}

// DeriveAddressBatchOpts is the struct given to DeriveAddressBatch method
type DeriveAddressBatchOpts struct {
	Purpose    uint32
	CoinType   uint32
	Account    uint32
	Chain      uint32
	StartIndex uint32
	Count      int
	Network    *chaincfg.Params
}

func (o DeriveAddressBatchOpts) validate() error {
	if err := (ExtendedKeyOpts{o.Purpose, o.CoinType, o.Account}).validate(); err != nil {
		return err
	}
	if o.Chain != ExternalChain && o.Chain != InternalChain {
		return ErrInvalidDerivationPathChain
	}
	if o.Count <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if uint64(o.StartIndex)+uint64(o.Count) > uint64(hdkeychain.HardenedKeyStart) {
		return ErrDerivationIndexOverflow
	}
	return nil
}

// DeriveAddressBatch derives Count consecutive addresses of an account chain
// starting at StartIndex. The account and chain nodes are derived once for
// the whole batch.
func (w *Wallet) DeriveAddressBatch(opts DeriveAddressBatchOpts) ([]AddressData, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if err := w.validate(); err != nil {
		return nil, err
	}

	chainPath := append(
		ExtendedKeyOpts{opts.Purpose, opts.CoinType, opts.Account}.path(),
		opts.Chain,
	)
	chainNode, err := w.deriveKey(chainPath)
	if err != nil {
		return nil, err
	}

	batch := make([]AddressData, 0, opts.Count)
	for i := 0; i < opts.Count; i++ {
		index := opts.StartIndex + uint32(i)
		child, err := chainNode.Derive(index)
		if err != nil {
			return nil, err
		}
		pubkey, err := child.ECPubKey()
		if err != nil {
			return nil, err
		}
		addr, script, err := encodeAddress(pubkey, opts.Purpose, opts.Network)
		if err != nil {
			return nil, err
		}
		batch = append(batch, AddressData{
			Address:        addr,
			Script:         script,
			DerivationPath: append(chainPath, index).String(),
			Index:          index,
		})
	}
	return batch, nil
}

func (w *Wallet) deriveKey(path DerivationPath) (*hdkeychain.ExtendedKey, error) {
	hdNode := w.masterKey
	var err error
	for _, step := range path {
		hdNode, err = hdNode.Derive(step)
		if err != nil {
			return nil, err
		}
	}
	return hdNode, nil
}

func encodeAddress(
	pubkey *btcec.PublicKey, purpose uint32, net *chaincfg.Params,
) (string, []byte, error) {
	pubkeyHash := btcutil.Hash160(pubkey.SerializeCompressed())

	var addr btcutil.Address
	var err error
	switch purpose {
	case PurposeLegacy:
		addr, err = btcutil.NewAddressPubKeyHash(pubkeyHash, net)
	case PurposeNativeSegwit:
		addr, err = btcutil.NewAddressWitnessPubKeyHash(pubkeyHash, net)
	case PurposeNestedSegwit:
		var witnessProg btcutil.Address
		witnessProg, err = btcutil.NewAddressWitnessPubKeyHash(pubkeyHash, net)
		if err != nil {
			break
		}
		var redeemScript []byte
		redeemScript, err = txscript.PayToAddrScript(witnessProg)
		if err != nil {
			break
		}
		addr, err = btcutil.NewAddressScriptHash(redeemScript, net)
	default:
		return "", nil, ErrInvalidPurpose
	}
	if err != nil {
		return "", nil, err
	}

	script, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return "", nil, err
	}
	return addr.EncodeAddress(), script, nil
}
