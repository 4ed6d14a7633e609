package inmemory

import (
	"context"
	"sync"

	"github.com/vesper-wallet/vesper/internal/core/domain"
)

type addressCacheRepositoryImpl struct {
	caches map[string]domain.AddressCache
	lock   *sync.RWMutex
}

func newAddressCacheRepositoryImpl() domain.AddressCacheRepository {
	return &addressCacheRepositoryImpl{
		caches: map[string]domain.AddressCache{},
		lock:   &sync.RWMutex{},
	}
}

func (r *addressCacheRepositoryImpl) GetAddressCache(
	_ context.Context, walletID string,
) (*domain.AddressCache, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	cache, ok := r.caches[walletID]
	if !ok {
		return nil, domain.ErrAddressCacheNotFound
	}
	return &cache, nil
}

func (r *addressCacheRepositoryImpl) UpdateAddressCache(
	_ context.Context, cache *domain.AddressCache,
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.caches[cache.WalletID] = *cache
	return nil
}

func (r *addressCacheRepositoryImpl) DeleteAddressCache(
	_ context.Context, walletID string,
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.caches[walletID]; !ok {
		return domain.ErrAddressCacheNotFound
	}
	delete(r.caches, walletID)
	return nil
}
