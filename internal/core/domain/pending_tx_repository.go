package domain

import "context"

// PendingTransactionRepository persists the transactions broadcast by the
// send flow until reconciliation observes them in the indexer history.
type PendingTransactionRepository interface {
	// AddPendingTransaction records a freshly broadcast transaction.
	AddPendingTransaction(ctx context.Context, tx *PendingTransaction) error
	// GetPendingTransactions returns the pending transactions of a wallet,
	// oldest first.
	GetPendingTransactions(
		ctx context.Context, walletID string,
	) ([]PendingTransaction, error)
	// DeletePendingTransaction removes a pending transaction, typically
	// because it appeared in history. ErrPendingTransactionNotFound if
	// unknown.
	DeletePendingTransaction(ctx context.Context, txid string) error
}
