package domain

import "context"

// AddressCacheRepository persists the per-wallet address caches. Updates
// always replace the whole cache object.
type AddressCacheRepository interface {
	// GetAddressCache returns the cache of a wallet, or
	// ErrAddressCacheNotFound if the wallet was never reconciled.
	GetAddressCache(ctx context.Context, walletID string) (*AddressCache, error)
	// UpdateAddressCache stores the given cache, replacing any previous
	// version for the same wallet.
	UpdateAddressCache(ctx context.Context, cache *AddressCache) error
	// DeleteAddressCache drops the cache of a wallet.
	DeleteAddressCache(ctx context.Context, walletID string) error
}
