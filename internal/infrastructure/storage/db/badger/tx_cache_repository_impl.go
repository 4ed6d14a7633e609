package dbbadger

import (
	"context"
	"errors"

	"github.com/timshannon/badgerhold/v4"
	"github.com/vesper-wallet/vesper/internal/core/domain"
)

type txCacheRepositoryImpl struct {
	store *badgerhold.Store
}

func newTxCacheRepositoryImpl(
	store *badgerhold.Store,
) domain.TransactionCacheRepository {
	return txCacheRepositoryImpl{store}
}

func (r txCacheRepositoryImpl) GetCachedTransactions(
	_ context.Context, walletID string,
) (*domain.CachedTransactions, error) {
	return r.getCachedTransactions(walletID)
}

func (r txCacheRepositoryImpl) UpdateCachedTransactions(
	_ context.Context, cache *domain.CachedTransactions,
) error {
	return r.store.Upsert(cache.WalletID, cache)
}

func (r txCacheRepositoryImpl) SpendUtxos(
	_ context.Context, walletID string, keys []domain.UtxoKey,
) error {
	return r.markUtxos(walletID, keys, true)
}

func (r txCacheRepositoryImpl) UnspendUtxos(
	_ context.Context, walletID string, keys []domain.UtxoKey,
) error {
	return r.markUtxos(walletID, keys, false)
}

func (r txCacheRepositoryImpl) DeleteCachedTransactions(
	_ context.Context, walletID string,
) error {
	if err := r.store.Delete(
		walletID, &domain.CachedTransactions{},
	); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return domain.ErrTransactionCacheNotFound
		}
		return err
	}
	return nil
}

func (r txCacheRepositoryImpl) getCachedTransactions(
	walletID string,
) (*domain.CachedTransactions, error) {
	var cache domain.CachedTransactions
	if err := r.store.Get(walletID, &cache); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, domain.ErrTransactionCacheNotFound
		}
		return nil, err
	}
	return &cache, nil
}

func (r txCacheRepositoryImpl) markUtxos(
	walletID string, keys []domain.UtxoKey, spent bool,
) error {
	cache, err := r.getCachedTransactions(walletID)
	if err != nil {
		return err
	}

	indexByKey := make(map[domain.UtxoKey]int, len(cache.Utxos))
	for i, utxo := range cache.Utxos {
		indexByKey[utxo.Key()] = i
	}
	for _, key := range keys {
		i, ok := indexByKey[key]
		if !ok {
			return domain.ErrUtxoNotFound
		}
		cache.Utxos[i].Spent = spent
	}

	return r.store.Upsert(cache.WalletID, cache)
}
