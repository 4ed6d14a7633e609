package ports

import (
	"github.com/vesper-wallet/vesper/internal/core/domain"
)

// RepoManager gives access to every domain repository backed by the same
// storage.
type RepoManager interface {
	AddressCacheRepository() domain.AddressCacheRepository
	TransactionCacheRepository() domain.TransactionCacheRepository
	PendingTransactionRepository() domain.PendingTransactionRepository

	Close()
}
