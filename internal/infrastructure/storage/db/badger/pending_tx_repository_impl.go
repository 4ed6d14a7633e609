package dbbadger

import (
	"context"
	"errors"
	"sort"

	"github.com/timshannon/badgerhold/v4"
	"github.com/vesper-wallet/vesper/internal/core/domain"
)

type pendingTxRepositoryImpl struct {
	store *badgerhold.Store
}

func newPendingTxRepositoryImpl(
	store *badgerhold.Store,
) domain.PendingTransactionRepository {
	return pendingTxRepositoryImpl{store}
}

func (r pendingTxRepositoryImpl) AddPendingTransaction(
	_ context.Context, tx *domain.PendingTransaction,
) error {
	return r.store.Upsert(tx.TxID, tx)
}

func (r pendingTxRepositoryImpl) GetPendingTransactions(
	_ context.Context, walletID string,
) ([]domain.PendingTransaction, error) {
	var txs []domain.PendingTransaction
	if err := r.store.Find(
		&txs, badgerhold.Where("WalletID").Eq(walletID),
	); err != nil {
		return nil, err
	}

	sort.Slice(txs, func(i, j int) bool {
		return txs[i].CreatedAt.Before(txs[j].CreatedAt)
	})
	return txs, nil
}

func (r pendingTxRepositoryImpl) DeletePendingTransaction(
	_ context.Context, txid string,
) error {
	if err := r.store.Delete(
		txid, &domain.PendingTransaction{},
	); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return domain.ErrPendingTransactionNotFound
		}
		return err
	}
	return nil
}
