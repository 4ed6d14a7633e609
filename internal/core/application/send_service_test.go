package application

import (
	"context"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vesper-wallet/vesper/internal/core/domain"
	"github.com/vesper-wallet/vesper/internal/core/ports"
	"github.com/vesper-wallet/vesper/internal/infrastructure/storage/db/inmemory"
	"github.com/vesper-wallet/vesper/pkg/explorer"
	"github.com/vesper-wallet/vesper/pkg/wallet"
)

func newTestSendService(
	t *testing.T, w *wallet.Wallet, svc *mockExplorer,
) (SendService, TransactionCacheService, ports.RepoManager) {
	t.Helper()

	keeper := NewWalletKeeper()
	_, err := keeper.RegisterWalletWithID(
		testWalletID, w, testAccount, &chaincfg.MainNetParams,
	)
	require.NoError(t, err)

	repoManager := inmemory.NewRepoManager()
	cacheSvc := NewTransactionCacheService(
		keeper, repoManager, svc, nil, 0, 0, 0,
	)
	sendSvc := NewSendService(keeper, repoManager, cacheSvc, svc, nil, 0)
	return sendSvc, cacheSvc, repoManager
}

func TestSend(t *testing.T) {
	w := newTestWallet(t)
	mock, externals, _ := newWalletFixture(t, w)
	svc, _, repoManager := newTestSendService(t, w, mock)
	ctx := context.Background()

	amount := uint64(20000)
	result, err := svc.Send(
		ctx, testWalletID, externals[1].Address, amount, FeePriorityNormal,
	)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, mockBroadcastTxID, result.TxID)
	assert.NotEmpty(t, result.TxHex)
	assert.Greater(t, result.Fee, uint64(0))
	assert.Equal(t, 55000-amount-result.Fee, result.ChangeAmount)

	// the consumed utxo is optimistically marked, nothing is spendable
	cache, err := repoManager.TransactionCacheRepository().
		GetCachedTransactions(ctx, testWalletID)
	require.NoError(t, err)
	require.Len(t, cache.Utxos, 1)
	assert.True(t, cache.Utxos[0].Spent)
	assert.Empty(t, cache.SpendableUtxos(DefaultMinConfirmations))

	// the broadcast is tracked until reconciliation observes it
	pending, err := repoManager.PendingTransactionRepository().
		GetPendingTransactions(ctx, testWalletID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, mockBroadcastTxID, pending[0].TxID)
	assert.Equal(t, amount, pending[0].Amount)
	assert.Equal(t, externals[1].Address, pending[0].Recipient)
	require.Len(t, pending[0].SpentUtxoKeys, 1)
	assert.Equal(
		t,
		domain.UtxoKey{TxID: cache.Utxos[0].TxID, VOut: cache.Utxos[0].VOut},
		pending[0].SpentUtxoKeys[0],
	)
}

func TestSendBroadcastRejectedRollsBack(t *testing.T) {
	w := newTestWallet(t)
	mock, externals, _ := newWalletFixture(t, w)
	mock.broadcastErr = explorer.ErrBroadcastRejected
	svc, _, repoManager := newTestSendService(t, w, mock)
	ctx := context.Background()

	_, err := svc.Send(
		ctx, testWalletID, externals[1].Address, 20000, FeePriorityNormal,
	)
	require.ErrorIs(t, err, explorer.ErrBroadcastRejected)

	// the optimistic marks are rolled back, the utxo is spendable again
	cache, err := repoManager.TransactionCacheRepository().
		GetCachedTransactions(ctx, testWalletID)
	require.NoError(t, err)
	require.Len(t, cache.Utxos, 1)
	assert.False(t, cache.Utxos[0].Spent)
	assert.Len(t, cache.SpendableUtxos(DefaultMinConfirmations), 1)

	pending, err := repoManager.PendingTransactionRepository().
		GetPendingTransactions(ctx, testWalletID)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSendInsufficientFunds(t *testing.T) {
	w := newTestWallet(t)
	mock, externals, _ := newWalletFixture(t, w)
	svc, _, _ := newTestSendService(t, w, mock)

	_, err := svc.Send(
		context.Background(), testWalletID, externals[1].Address, 60000,
		FeePriorityNormal,
	)
	var insufficientErr *wallet.InsufficientFundsError
	require.ErrorAs(t, err, &insufficientErr)
	assert.Greater(t, insufficientErr.Shortfall, uint64(0))

	_, _, broadcasts := mock.counters()
	assert.Zero(t, broadcasts)
}

func TestSendDustAmount(t *testing.T) {
	w := newTestWallet(t)
	mock, externals, _ := newWalletFixture(t, w)
	svc, _, _ := newTestSendService(t, w, mock)

	_, err := svc.Send(
		context.Background(), testWalletID, externals[1].Address, 100,
		FeePriorityNormal,
	)
	require.ErrorIs(t, err, wallet.ErrDustAmount)

	_, _, broadcasts := mock.counters()
	assert.Zero(t, broadcasts)
}

func TestSendUnknownFeePriority(t *testing.T) {
	w := newTestWallet(t)
	mock, externals, _ := newWalletFixture(t, w)
	svc, _, _ := newTestSendService(t, w, mock)

	_, err := svc.Send(
		context.Background(), testWalletID, externals[1].Address, 20000,
		FeePriority("hyper"),
	)
	require.ErrorIs(t, err, ErrUnknownFeePriority)
}

func TestEstimateFees(t *testing.T) {
	w := newTestWallet(t)
	mock, _, _ := newWalletFixture(t, w)
	svc, _, _ := newTestSendService(t, w, mock)
	ctx := context.Background()

	rates := svc.EstimateFees(ctx)
	assert.Equal(t, mock.feeRates, rates)

	// a second read within the ttl is served from the cached table
	svc.EstimateFees(ctx)
	mock.lock.Lock()
	feeCalls := mock.feeCalls
	mock.lock.Unlock()
	assert.Equal(t, 1, feeCalls)
}

func TestEstimateFeesFallback(t *testing.T) {
	w := newTestWallet(t)
	mock, _, _ := newWalletFixture(t, w)
	mock.feeErr = explorer.ErrUnavailable
	svc, _, _ := newTestSendService(t, w, mock)
	ctx := context.Background()

	rates := svc.EstimateFees(ctx)
	assert.Equal(t, FallbackFeeRates, rates)

	// the fallback is not cached, recovery is picked up immediately
	mock.lock.Lock()
	mock.feeErr = nil
	fixedRates := mock.feeRates
	mock.lock.Unlock()

	rates = svc.EstimateFees(ctx)
	assert.Equal(t, fixedRates, rates)
}

func TestReconcileSupersedesPendingTransaction(t *testing.T) {
	w := newTestWallet(t)
	mock, externals, internals := newWalletFixture(t, w)
	sendSvc, cacheSvc, repoManager := newTestSendService(t, w, mock)
	ctx := context.Background()

	result, err := sendSvc.Send(
		ctx, testWalletID, externals[1].Address, 20000, FeePriorityNormal,
	)
	require.NoError(t, err)

	pending, err := repoManager.PendingTransactionRepository().
		GetPendingTransactions(ctx, testWalletID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	spentUtxo := pending[0].SpentUtxoKeys[0]

	mock.lock.Lock()
	mock.historyByAddress[internals[0].Address] = append(
		mock.historyByAddress[internals[0].Address],
		explorer.HistoryItem{TxID: result.TxID, Height: 0},
	)
	mock.historyByAddress[externals[1].Address] = []explorer.HistoryItem{
		{TxID: result.TxID, Height: 0},
	}
	mock.txs[result.TxID] = &explorer.Transaction{
		TxID: result.TxID,
		Inputs: []explorer.TxInput{{
			TxID:    spentUtxo.TxID,
			VOut:    spentUtxo.VOut,
			Address: internals[0].Address,
			Value:   55000,
		}},
		Outputs: []explorer.TxOutput{
			{Index: 0, Address: externals[1].Address, Value: 20000},
			{
				Index:   1,
				Address: internals[1].Address,
				Value:   result.ChangeAmount,
			},
		},
	}
	mock.lock.Unlock()

	cache, err := cacheSvc.Reconcile(ctx, testWalletID)
	require.NoError(t, err)

	pending, err = repoManager.PendingTransactionRepository().
		GetPendingTransactions(ctx, testWalletID)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// the spent utxo is gone, the change output is an unconfirmed utxo
	assert.Zero(t, cache.Balance())
	assert.Equal(t, 20000+result.ChangeAmount, cache.UnconfirmedBalance())
}
