package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/vesper-wallet/vesper/internal/core/domain"
)

type pendingTxRepositoryImpl struct {
	txs  map[string]domain.PendingTransaction
	lock *sync.RWMutex
}

func newPendingTxRepositoryImpl() domain.PendingTransactionRepository {
	return &pendingTxRepositoryImpl{
		txs:  map[string]domain.PendingTransaction{},
		lock: &sync.RWMutex{},
	}
}

func (r *pendingTxRepositoryImpl) AddPendingTransaction(
	_ context.Context, tx *domain.PendingTransaction,
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.txs[tx.TxID] = *tx
	return nil
}

func (r *pendingTxRepositoryImpl) GetPendingTransactions(
	_ context.Context, walletID string,
) ([]domain.PendingTransaction, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	txs := make([]domain.PendingTransaction, 0, len(r.txs))
	for _, tx := range r.txs {
		if tx.WalletID == walletID {
			txs = append(txs, tx)
		}
	}

	sort.Slice(txs, func(i, j int) bool {
		return txs[i].CreatedAt.Before(txs[j].CreatedAt)
	})
	return txs, nil
}

func (r *pendingTxRepositoryImpl) DeletePendingTransaction(
	_ context.Context, txid string,
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.txs[txid]; !ok {
		return domain.ErrPendingTransactionNotFound
	}
	delete(r.txs, txid)
	return nil
}
