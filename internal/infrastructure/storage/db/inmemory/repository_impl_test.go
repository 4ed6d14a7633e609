package inmemory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vesper-wallet/vesper/internal/core/domain"
)

func TestAddressCacheRepository(t *testing.T) {
	repo := NewRepoManager().AddressCacheRepository()
	ctx := context.Background()

	_, err := repo.GetAddressCache(ctx, "w1")
	require.ErrorIs(t, err, domain.ErrAddressCacheNotFound)

	cache := &domain.AddressCache{
		WalletID: "w1",
		ExternalAddresses: []domain.AddressInfo{
			{Index: 0, Address: "ext0"},
		},
		LastUpdated: time.Now(),
	}
	require.NoError(t, repo.UpdateAddressCache(ctx, cache))

	stored, err := repo.GetAddressCache(ctx, "w1")
	require.NoError(t, err)
	assert.Len(t, stored.ExternalAddresses, 1)

	require.NoError(t, repo.DeleteAddressCache(ctx, "w1"))
	_, err = repo.GetAddressCache(ctx, "w1")
	assert.ErrorIs(t, err, domain.ErrAddressCacheNotFound)
}

func TestTransactionCacheRepositorySpendMarks(t *testing.T) {
	repo := NewRepoManager().TransactionCacheRepository()
	ctx := context.Background()

	cache := &domain.CachedTransactions{
		WalletID: "w1",
		Utxos: []domain.Utxo{
			{TxID: "aa", VOut: 0, Value: 50000, Confirmations: 3},
		},
		LastUpdated: time.Now(),
	}
	require.NoError(t, repo.UpdateCachedTransactions(ctx, cache))

	keys := []domain.UtxoKey{{TxID: "aa", VOut: 0}}
	require.NoError(t, repo.SpendUtxos(ctx, "w1", keys))

	stored, err := repo.GetCachedTransactions(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), stored.Balance())

	require.NoError(t, repo.UnspendUtxos(ctx, "w1", keys))
	stored, err = repo.GetCachedTransactions(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, uint64(50000), stored.Balance())

	err = repo.SpendUtxos(ctx, "w1", []domain.UtxoKey{{TxID: "zz", VOut: 1}})
	assert.ErrorIs(t, err, domain.ErrUtxoNotFound)
}

func TestPendingTransactionRepository(t *testing.T) {
	repo := NewRepoManager().PendingTransactionRepository()
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, repo.AddPendingTransaction(ctx, &domain.PendingTransaction{
		TxID: "bb", WalletID: "w1", CreatedAt: now,
	}))
	require.NoError(t, repo.AddPendingTransaction(ctx, &domain.PendingTransaction{
		TxID: "aa", WalletID: "w1", CreatedAt: now.Add(-time.Minute),
	}))

	txs, err := repo.GetPendingTransactions(ctx, "w1")
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "aa", txs[0].TxID)

	require.NoError(t, repo.DeletePendingTransaction(ctx, "bb"))
	err = repo.DeletePendingTransaction(ctx, "bb")
	assert.ErrorIs(t, err, domain.ErrPendingTransactionNotFound)
}
