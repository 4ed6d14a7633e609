package inmemory

import (
	"context"
	"sync"

	"github.com/vesper-wallet/vesper/internal/core/domain"
)

type txCacheRepositoryImpl struct {
	caches map[string]domain.CachedTransactions
	lock   *sync.RWMutex
}

func newTxCacheRepositoryImpl() domain.TransactionCacheRepository {
	return &txCacheRepositoryImpl{
		caches: map[string]domain.CachedTransactions{},
		lock:   &sync.RWMutex{},
	}
}

func (r *txCacheRepositoryImpl) GetCachedTransactions(
	_ context.Context, walletID string,
) (*domain.CachedTransactions, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	cache, ok := r.caches[walletID]
	if !ok {
		return nil, domain.ErrTransactionCacheNotFound
	}
	return &cache, nil
}

func (r *txCacheRepositoryImpl) UpdateCachedTransactions(
	_ context.Context, cache *domain.CachedTransactions,
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.caches[cache.WalletID] = *cache
	return nil
}

func (r *txCacheRepositoryImpl) SpendUtxos(
	_ context.Context, walletID string, keys []domain.UtxoKey,
) error {
	return r.markUtxos(walletID, keys, true)
}

func (r *txCacheRepositoryImpl) UnspendUtxos(
	_ context.Context, walletID string, keys []domain.UtxoKey,
) error {
	return r.markUtxos(walletID, keys, false)
}

func (r *txCacheRepositoryImpl) DeleteCachedTransactions(
	_ context.Context, walletID string,
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.caches[walletID]; !ok {
		return domain.ErrTransactionCacheNotFound
	}
	delete(r.caches, walletID)
	return nil
}

func (r *txCacheRepositoryImpl) markUtxos(
	walletID string, keys []domain.UtxoKey, spent bool,
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	cache, ok := r.caches[walletID]
	if !ok {
		return domain.ErrTransactionCacheNotFound
	}

	utxos := make([]domain.Utxo, len(cache.Utxos))
	copy(utxos, cache.Utxos)

	indexByKey := make(map[domain.UtxoKey]int, len(utxos))
	for i, utxo := range utxos {
		indexByKey[utxo.Key()] = i
	}
	for _, key := range keys {
		i, ok := indexByKey[key]
		if !ok {
			return domain.ErrUtxoNotFound
		}
		utxos[i].Spent = spent
	}

	cache.Utxos = utxos
	r.caches[walletID] = cache
	return nil
}
