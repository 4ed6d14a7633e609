package application

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vesper-wallet/vesper/internal/core/domain"
	"github.com/vesper-wallet/vesper/internal/core/ports"
	"github.com/vesper-wallet/vesper/internal/infrastructure/storage/db/inmemory"
)

const testWalletID = "test-wallet"

func newTestCacheService(
	t *testing.T, svc *mockExplorer, clk clock.Clock,
) (TransactionCacheService, ports.RepoManager) {
	t.Helper()

	keeper := NewWalletKeeper()
	w := newTestWallet(t)
	_, err := keeper.RegisterWalletWithID(
		testWalletID, w, testAccount, &chaincfg.MainNetParams,
	)
	require.NoError(t, err)

	repoManager := inmemory.NewRepoManager()
	return NewTransactionCacheService(
		keeper, repoManager, svc, clk, 0, 0, 0,
	), repoManager
}

func TestReconcile(t *testing.T) {
	w := newTestWallet(t)
	mock, externals, internals := newWalletFixture(t, w)
	svc, repoManager := newTestCacheService(t, mock, nil)
	ctx := context.Background()

	cache, err := svc.Reconcile(ctx, testWalletID)
	require.NoError(t, err)
	require.NotNil(t, cache)

	// both branches end with a full window of trailing unused addresses
	addrCache, err := repoManager.AddressCacheRepository().
		GetAddressCache(ctx, testWalletID)
	require.NoError(t, err)
	for _, chain := range []uint32{domain.ExternalChain, domain.InternalChain} {
		addrs := addrCache.AddressesForChain(chain)
		require.Len(t, addrs, DefaultGapLimit+1)
		for _, info := range addrs[1:] {
			assert.False(t, info.Used)
		}
		assert.True(t, addrs[0].Used)
	}

	require.Len(t, cache.Utxos, 1)
	assert.Equal(t, internals[0].Address, cache.Utxos[0].Address)
	assert.Equal(t, uint64(55000), cache.Balance())
	assert.Zero(t, cache.UnconfirmedBalance())

	// the utxo sum and the net transaction flow agree
	assert.Equal(t, int64(cache.Balance()), cache.NetBalance())

	require.Len(t, cache.Transactions, 2)
	received := cache.GetTransaction(strings.Repeat("aa", 32))
	require.NotNil(t, received)
	assert.Equal(t, domain.TxReceived, received.Classification)
	assert.Equal(t, int64(100000), received.NetAmount)
	assert.Equal(t, externals[0].Address, received.Outputs[0].Address)

	sent := cache.GetTransaction(strings.Repeat("bb", 32))
	require.NotNil(t, sent)
	assert.Equal(t, domain.TxSent, sent.Classification)
	assert.Equal(t, int64(-45000), sent.NetAmount)

	assert.Equal(t, int64(800103), cache.TipHeight)
}

func TestReconcileIdempotent(t *testing.T) {
	w := newTestWallet(t)
	mock, _, _ := newWalletFixture(t, w)
	svc, _ := newTestCacheService(t, mock, nil)
	ctx := context.Background()

	first, err := svc.Reconcile(ctx, testWalletID)
	require.NoError(t, err)
	second, err := svc.Reconcile(ctx, testWalletID)
	require.NoError(t, err)

	assert.Equal(t, first.Transactions, second.Transactions)
	assert.Equal(t, first.Utxos, second.Utxos)
	assert.Equal(t, first.TipHeight, second.TipHeight)
}

func TestConcurrentReconcileSharesOneRound(t *testing.T) {
	w := newTestWallet(t)
	mock, _, _ := newWalletFixture(t, w)
	mock.historyDelay = 50 * time.Millisecond
	svc, _ := newTestCacheService(t, mock, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]*domain.CachedTransactions, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = svc.Reconcile(ctx, testWalletID)
		}()
	}
	wg.Wait()

	for i := 0; i < 2; i++ {
		require.NoError(t, errs[i])
		require.NotNil(t, results[i])
	}

	// the waiter shared the winner's round, the indexer saw one sync
	_, tipCalls, _ := mock.counters()
	assert.Equal(t, 1, tipCalls)
	assert.Same(t, results[0], results[1])
}

func TestReconcileGapLimitExceeded(t *testing.T) {
	mock := &mockExplorer{allUsed: true, tipHeight: 800103}
	svc, _ := newTestCacheService(t, mock, nil)

	_, err := svc.Reconcile(context.Background(), testWalletID)
	require.ErrorIs(t, err, domain.ErrGapLimitExceeded)
}

func TestReconcileUnknownWallet(t *testing.T) {
	w := newTestWallet(t)
	mock, _, _ := newWalletFixture(t, w)
	svc, _ := newTestCacheService(t, mock, nil)

	_, err := svc.Reconcile(context.Background(), "never-registered")
	require.ErrorIs(t, err, ErrWalletNotFound)
}

func TestGetBalanceReconcilesOnce(t *testing.T) {
	w := newTestWallet(t)
	mock, _, _ := newWalletFixture(t, w)
	svc, _ := newTestCacheService(t, mock, nil)
	ctx := context.Background()

	balance, err := svc.GetBalance(ctx, testWalletID)
	require.NoError(t, err)
	assert.Equal(t, uint64(55000), balance.Confirmed)
	assert.Zero(t, balance.Unconfirmed)

	// the cache is fresh, the second read is served locally
	_, err = svc.GetBalance(ctx, testWalletID)
	require.NoError(t, err)
	_, tipCalls, _ := mock.counters()
	assert.Equal(t, 1, tipCalls)
}

func TestIsStale(t *testing.T) {
	w := newTestWallet(t)
	mock, _, _ := newWalletFixture(t, w)
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	testClock := clock.NewTestClock(start)
	svc, _ := newTestCacheService(t, mock, testClock)
	ctx := context.Background()

	// no cache yet
	assert.True(t, svc.IsStale(ctx, testWalletID))

	_, err := svc.Reconcile(ctx, testWalletID)
	require.NoError(t, err)
	assert.False(t, svc.IsStale(ctx, testWalletID))

	testClock.SetTime(start.Add(DefaultCacheTTL + time.Minute))
	assert.True(t, svc.IsStale(ctx, testWalletID))
}

func TestNextAddress(t *testing.T) {
	w := newTestWallet(t)
	mock, externals, _ := newWalletFixture(t, w)
	svc, _ := newTestCacheService(t, mock, nil)
	ctx := context.Background()

	_, err := svc.Reconcile(ctx, testWalletID)
	require.NoError(t, err)

	// the first receiving address is used, the next unused follows it
	next, err := svc.NextAddress(ctx, testWalletID)
	require.NoError(t, err)
	assert.Equal(t, externals[1].Address, next.Address)
	assert.Equal(t, uint32(1), next.Index)
	assert.Equal(t, uint32(domain.ExternalChain), next.Chain)
}

func TestGenerateAddressBatch(t *testing.T) {
	w := newTestWallet(t)
	mock, _, _ := newWalletFixture(t, w)
	svc, repoManager := newTestCacheService(t, mock, nil)
	ctx := context.Background()

	_, err := svc.Reconcile(ctx, testWalletID)
	require.NoError(t, err)

	batch, err := svc.GenerateAddressBatch(
		ctx, testWalletID, domain.ExternalChain, 5,
	)
	require.NoError(t, err)
	require.Len(t, batch, 5)
	assert.Equal(t, uint32(DefaultGapLimit+1), batch[0].Index)

	addrCache, err := repoManager.AddressCacheRepository().
		GetAddressCache(ctx, testWalletID)
	require.NoError(t, err)
	assert.Len(
		t, addrCache.AddressesForChain(domain.ExternalChain),
		DefaultGapLimit+6,
	)

	_, err = svc.GenerateAddressBatch(ctx, testWalletID, 7, 1)
	require.ErrorIs(t, err, domain.ErrInvalidChain)
}
