package inmemory

import (
	"github.com/vesper-wallet/vesper/internal/core/domain"
	"github.com/vesper-wallet/vesper/internal/core/ports"
)

// repoManager is the volatile counterpart of the badger storage, it backs
// tests and ephemeral runs.
type repoManager struct {
	addressCacheRepository domain.AddressCacheRepository
	txCacheRepository      domain.TransactionCacheRepository
	pendingTxRepository    domain.PendingTransactionRepository
}

// NewRepoManager returns a repo manager holding everything in memory.
func NewRepoManager() ports.RepoManager {
	return &repoManager{
		addressCacheRepository: newAddressCacheRepositoryImpl(),
		txCacheRepository:      newTxCacheRepositoryImpl(),
		pendingTxRepository:    newPendingTxRepositoryImpl(),
	}
}

func (d *repoManager) AddressCacheRepository() domain.AddressCacheRepository {
	return d.addressCacheRepository
}

func (d *repoManager) TransactionCacheRepository() domain.TransactionCacheRepository {
	return d.txCacheRepository
}

func (d *repoManager) PendingTransactionRepository() domain.PendingTransactionRepository {
	return d.pendingTxRepository
}

func (d *repoManager) Close() {}
