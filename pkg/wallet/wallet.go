package wallet

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
)

var (
	// ErrNullNetwork ...
	ErrNullNetwork = errors.New("network params are null")
	// ErrNullMnemonic ...
	ErrNullMnemonic = errors.New("mnemonic is null")
	// ErrNullMasterKey ...
	ErrNullMasterKey = errors.New("master key is null")
	// ErrNullPassphrase ...
	ErrNullPassphrase = errors.New("passphrase must not be null")
	// ErrNullPlainText ...
	ErrNullPlainText = errors.New("text to encrypt must not be null")
	// ErrNullCypherText ...
	ErrNullCypherText = errors.New("cypher to decrypt must not be null")
	// ErrNullDerivationPath ...
	ErrNullDerivationPath = errors.New("derivation path must not be null")
	// ErrNullChangeAddress ...
	ErrNullChangeAddress = errors.New("change address must not be null")

	// ErrInvalidMnemonic ...
	ErrInvalidMnemonic = errors.New("mnemonic is invalid")
	// ErrInvalidEntropySize ...
	ErrInvalidEntropySize = errors.New(
		"entropy size must be a multiple of 32 in the range [128,256]",
	)
	// ErrInvalidCypherText ...
	ErrInvalidCypherText = errors.New("cypher must be in base64 format")
	// ErrInvalidDerivationPath ...
	ErrInvalidDerivationPath = errors.New("invalid derivation path")
	// ErrInvalidDerivationPathLength ...
	ErrInvalidDerivationPathLength = errors.New(
		"derivation path must be an absolute path in the form " +
			"\"m/purpose'/coin_type'/account'/chain/index\"",
	)
	// ErrInvalidDerivationPathAccount ...
	ErrInvalidDerivationPathAccount = errors.New(
		"derivation path's purpose, coin type and account levels must be " +
			"hardened (suffix \"'\")",
	)
	// ErrInvalidDerivationPathChain ...
	ErrInvalidDerivationPathChain = errors.New(
		"derivation path's chain level must be 0 (external) or 1 (internal)",
	)
	// ErrDerivationIndexOverflow is returned when a non-hardened path level
	// exceeds the 31-bit index range.
	ErrDerivationIndexOverflow = errors.New(
		"derivation index exceeds the non-hardened range [0, 2^31)",
	)
	// ErrInvalidPurpose ...
	ErrInvalidPurpose = errors.New("purpose must be one of 44, 49 or 84")
	// ErrInvalidAddress ...
	ErrInvalidAddress = errors.New("address is not valid for the given network")
	// ErrInvalidRecipientAddress ...
	ErrInvalidRecipientAddress = errors.New(
		"recipient address is not valid for the given network",
	)
	// ErrInvalidChangeAddress ...
	ErrInvalidChangeAddress = errors.New(
		"change address is not valid for the given network",
	)

	// ErrEmptyDerivationPaths ...
	ErrEmptyDerivationPaths = errors.New("derivation path list must not be empty")
	// ErrEmptyUnspents ...
	ErrEmptyUnspents = errors.New("unspent list must not be empty")

	// ErrDustAmount is returned when the requested amount is below the dust
	// threshold, before any coin selection takes place.
	ErrDustAmount = fmt.Errorf(
		"amount is below the dust threshold of %d satoshis", DustThreshold,
	)
	// ErrZeroFeeRate ...
	ErrZeroFeeRate = errors.New("fee rate must not be zero")
	// ErrKeyMismatch is returned when the key derived for an input does not
	// match the input's locking script. It is a defect, never skipped.
	ErrKeyMismatch = errors.New(
		"derived key does not match the input's locking script",
	)
	// ErrUnsupportedScript ...
	ErrUnsupportedScript = errors.New("unsupported locking script type")
	// ErrMalformedDerivationPath ...
	ErrMalformedDerivationPath = errors.New(
		"path must not start or end with a '/' and " +
			"must start with 'm/' for absolute paths",
	)
)

// Wallet is the data structure holding the seed material of an HD wallet. It
// derives signing key pairs and addresses for the BIP44/49/84 hierarchies and
// signs transaction inputs with the keys it derives. The master key never
// leaves this structure and must not be persisted nor logged by callers.
type Wallet struct {
	mnemonic  []string
	masterKey *hdkeychain.ExtendedKey
}

// NewWalletOpts is the struct given to the NewWallet method
type NewWalletOpts struct {
	EntropySize int
	Network     *chaincfg.Params
}

func (o NewWalletOpts) validate() error {
	if o.EntropySize < 128 || o.EntropySize > 256 || o.EntropySize%32 != 0 {
		return ErrInvalidEntropySize
	}
	if o.Network == nil {
		return ErrNullNetwork
	}
	return nil
}

// NewWallet creates a new wallet with a freshly generated mnemonic
func NewWallet(opts NewWalletOpts) (*Wallet, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	mnemonic, err := generateMnemonic(opts.EntropySize)
	if err != nil {
		return nil, err
	}

	seed := generateSeedFromMnemonic(mnemonic)
	masterKey, err := hdkeychain.NewMaster(seed, opts.Network)
	if err != nil {
		return nil, err
	}

	return &Wallet{
		mnemonic:  mnemonic,
		masterKey: masterKey,
	}, nil
}

// NewWalletFromMnemonicOpts is the struct given to the NewWalletFromMnemonic
// method
type NewWalletFromMnemonicOpts struct {
	Mnemonic []string
	Network  *chaincfg.Params
}

func (o NewWalletFromMnemonicOpts) validate() error {
	if len(o.Mnemonic) <= 0 {
		return ErrNullMnemonic
	}
	if !isMnemonicValid(o.Mnemonic) {
		return ErrInvalidMnemonic
	}
	if o.Network == nil {
		return ErrNullNetwork
	}
	return nil
}

// NewWalletFromMnemonic restores a wallet from the provided mnemonic. The
// derivation is deterministic, the same mnemonic always yields the same key
// tree.
func NewWalletFromMnemonic(opts NewWalletFromMnemonicOpts) (*Wallet, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	seed := generateSeedFromMnemonic(opts.Mnemonic)
	masterKey, err := hdkeychain.NewMaster(seed, opts.Network)
	if err != nil {
		return nil, err
	}

	return &Wallet{
		mnemonic:  opts.Mnemonic,
		masterKey: masterKey,
	}, nil
}

func (w *Wallet) validate() error {
	if w.masterKey == nil {
		return ErrNullMasterKey
	}
	if len(w.mnemonic) <= 0 {
		return ErrNullMnemonic
	}
	if !isMnemonicValid(w.mnemonic) {
		return ErrInvalidMnemonic
	}
	return nil
}

// Mnemonic is the getter for the wallet's mnemonic
func (w *Wallet) Mnemonic() ([]string, error) {
	if err := w.validate(); err != nil {
		return nil, err
	}
	return w.mnemonic, nil
}
