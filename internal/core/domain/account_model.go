package domain

import "fmt"

const (
	// ExternalChain is the receiving branch of an account.
	ExternalChain uint32 = 0
	// InternalChain is the change branch of an account.
	InternalChain uint32 = 1
)

// Account identifies one BIP44/49/84 account of the wallet hierarchy. The
// purpose selects the address scheme, the index the hardened account level.
type Account struct {
	Purpose  uint32
	CoinType uint32
	Index    uint32
}

// Validate returns whether the account maps to a supported address scheme.
func (a Account) Validate() error {
	switch a.Purpose {
	case 44, 49, 84:
		return nil
	default:
		return ErrInvalidAccount
	}
}

// BasePath returns the hardened prefix of every path derived for the account.
func (a Account) BasePath() string {
	return fmt.Sprintf("m/%d'/%d'/%d'", a.Purpose, a.CoinType, a.Index)
}

// AddressInfo is one derived address of an account branch. Indexes are
// append-only, an address once generated is never renumbered.
type AddressInfo struct {
	Account        Account
	Chain          uint32
	Index          uint32
	DerivationPath string
	Address        string
	Script         []byte
	Used           bool
}
