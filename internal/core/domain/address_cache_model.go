package domain

import (
	"encoding/hex"
	"time"
)

// AddressCache is the set of addresses derived so far for a wallet, split by
// branch, with their usage state as of the last reconciliation. It is always
// persisted as a whole, never updated field by field.
type AddressCache struct {
	WalletID          string
	Account           Account
	ExternalAddresses []AddressInfo
	InternalAddresses []AddressInfo
	LastUpdated       time.Time
}

// AddressesForChain returns the derived addresses of one branch, in
// derivation order.
func (c *AddressCache) AddressesForChain(chain uint32) []AddressInfo {
	if chain == InternalChain {
		return c.InternalAddresses
	}
	return c.ExternalAddresses
}

// SetAddressesForChain replaces the derived addresses of one branch.
func (c *AddressCache) SetAddressesForChain(chain uint32, addresses []AddressInfo) {
	if chain == InternalChain {
		c.InternalAddresses = addresses
		return
	}
	c.ExternalAddresses = addresses
}

// AllAddresses returns every derived address, external branch first.
func (c *AddressCache) AllAddresses() []AddressInfo {
	all := make([]AddressInfo, 0, len(c.ExternalAddresses)+len(c.InternalAddresses))
	all = append(all, c.ExternalAddresses...)
	all = append(all, c.InternalAddresses...)
	return all
}

// AddressSet returns the wallet's addresses as a set, the snapshot
// transaction classification runs against.
func (c *AddressCache) AddressSet() map[string]struct{} {
	set := make(map[string]struct{})
	for _, info := range c.AllAddresses() {
		set[info.Address] = struct{}{}
	}
	return set
}

// DerivationPathByScript maps the hex encoded locking script of every derived
// address to its derivation path, the shape the signer consumes.
func (c *AddressCache) DerivationPathByScript() map[string]string {
	paths := make(map[string]string)
	for _, info := range c.AllAddresses() {
		paths[hex.EncodeToString(info.Script)] = info.DerivationPath
	}
	return paths
}

// NextUnusedAddress returns the first address of the branch without history.
// A nil result means every derived address has been used.
func (c *AddressCache) NextUnusedAddress(chain uint32) *AddressInfo {
	for _, info := range c.AddressesForChain(chain) {
		if !info.Used {
			addr := info
			return &addr
		}
	}
	return nil
}
