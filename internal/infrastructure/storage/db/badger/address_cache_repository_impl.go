package dbbadger

import (
	"context"
	"errors"

	"github.com/timshannon/badgerhold/v4"
	"github.com/vesper-wallet/vesper/internal/core/domain"
)

type addressCacheRepositoryImpl struct {
	store *badgerhold.Store
}

func newAddressCacheRepositoryImpl(
	store *badgerhold.Store,
) domain.AddressCacheRepository {
	return addressCacheRepositoryImpl{store}
}

func (r addressCacheRepositoryImpl) GetAddressCache(
	_ context.Context, walletID string,
) (*domain.AddressCache, error) {
	var cache domain.AddressCache
	if err := r.store.Get(walletID, &cache); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrAddressCacheNotFound
		}
		return nil, err
	}
	return &cache, nil
}

func (r addressCacheRepositoryImpl) UpdateAddressCache(
	_ context.Context, cache *domain.AddressCache,
) error {
	return r.store.Upsert(cache.WalletID, cache)
}

func (r addressCacheRepositoryImpl) DeleteAddressCache(
	_ context.Context, walletID string,
) error {
	if err := r.store.Delete(walletID, &domain.AddressCache{}); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return domain.ErrAddressCacheNotFound
		}
		return err
	}
	return nil
}
