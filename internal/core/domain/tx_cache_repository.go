package domain

import "context"

// TransactionCacheRepository persists the reconciled transaction caches.
// Reconciliation updates replace the whole cache object, the spend marks are
// the only targeted mutation and exist for the send flow.
type TransactionCacheRepository interface {
	// GetCachedTransactions returns the cache of a wallet, or
	// ErrTransactionCacheNotFound if the wallet was never reconciled.
	GetCachedTransactions(
		ctx context.Context, walletID string,
	) (*CachedTransactions, error)
	// UpdateCachedTransactions stores the given cache, replacing any
	// previous version for the same wallet.
	UpdateCachedTransactions(ctx context.Context, cache *CachedTransactions) error
	// SpendUtxos marks the given outputs as optimistically spent.
	// ErrUtxoNotFound if any key is not in the cache.
	SpendUtxos(ctx context.Context, walletID string, keys []UtxoKey) error
	// UnspendUtxos rolls back the optimistic marks on the given outputs.
	UnspendUtxos(ctx context.Context, walletID string, keys []UtxoKey) error
	// DeleteCachedTransactions drops the cache of a wallet.
	DeleteCachedTransactions(ctx context.Context, walletID string) error
}
