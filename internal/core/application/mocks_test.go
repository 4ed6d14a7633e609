package application

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"
	"github.com/vesper-wallet/vesper/internal/core/domain"
	"github.com/vesper-wallet/vesper/pkg/explorer"
	"github.com/vesper-wallet/vesper/pkg/wallet"
)

const mockBroadcastTxID = "cc33cc33cc33cc33cc33cc33cc33cc33cc33cc33cc33cc33cc33cc33cc33cc33"

// mockExplorer is a scripted indexer. History and transactions are fixed
// fixtures, every call is counted.
type mockExplorer struct {
	lock sync.Mutex

	historyByAddress map[string][]explorer.HistoryItem
	txs              map[string]*explorer.Transaction
	feeRates         explorer.FeeRates
	feeErr           error
	broadcastErr     error
	tipHeight        int64
	// allUsed makes every address look used, regardless of the fixtures.
	allUsed bool
	// historyDelay slows down history calls so that tests can overlap
	// concurrent reconciliations.
	historyDelay time.Duration

	historyCalls   int
	tipCalls       int
	broadcastCalls int
	feeCalls       int
}

func (m *mockExplorer) GetHistoryForAddresses(
	ctx context.Context, addresses []string,
) ([]explorer.AddressHistory, error) {
	if m.historyDelay > 0 {
		time.Sleep(m.historyDelay)
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	m.historyCalls++
	histories := make([]explorer.AddressHistory, 0, len(addresses))
	for _, addr := range addresses {
		items := m.historyByAddress[addr]
		if m.allUsed {
			items = []explorer.HistoryItem{{TxID: strings.Repeat("dd", 32), Height: 1}}
		}
		histories = append(histories, explorer.AddressHistory{
			Address: addr,
			Items:   items,
		})
	}
	return histories, nil
}

func (m *mockExplorer) GetTransaction(
	ctx context.Context, txid string,
) (*explorer.Transaction, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	tx, ok := m.txs[txid]
	if !ok {
		return nil, explorer.ErrTransactionNotFound
	}
	return tx, nil
}

func (m *mockExplorer) EstimateFeeRates(
	ctx context.Context,
) (explorer.FeeRates, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.feeCalls++
	if m.feeErr != nil {
		return explorer.FeeRates{}, m.feeErr
	}
	return m.feeRates, nil
}

func (m *mockExplorer) Broadcast(
	ctx context.Context, txHex string,
) (string, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.broadcastCalls++
	if m.broadcastErr != nil {
		return "", m.broadcastErr
	}
	return mockBroadcastTxID, nil
}

func (m *mockExplorer) GetBlockHeight(ctx context.Context) (int64, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.tipCalls++
	return m.tipHeight, nil
}

func (m *mockExplorer) Close() error { return nil }

func (m *mockExplorer) counters() (history, tip, broadcast int) {
	m.lock.Lock()
	defer m.lock.Unlock()

	return m.historyCalls, m.tipCalls, m.broadcastCalls
}

var testMnemonic = strings.Split(
	"abandon abandon abandon abandon abandon abandon abandon abandon "+
		"abandon abandon abandon about", " ",
)

var testAccount = domain.Account{Purpose: 84, CoinType: 0, Index: 0}

func newTestWallet(t *testing.T) *wallet.Wallet {
	t.Helper()

	w, err := wallet.NewWalletFromMnemonic(wallet.NewWalletFromMnemonicOpts{
		Mnemonic: testMnemonic,
		Network:  &chaincfg.MainNetParams,
	})
	require.NoError(t, err)
	return w
}

func deriveTestAddresses(
	t *testing.T, w *wallet.Wallet, chain uint32, count int,
) []wallet.AddressData {
	t.Helper()

	batch, err := w.DeriveAddressBatch(wallet.DeriveAddressBatchOpts{
		Purpose:  testAccount.Purpose,
		CoinType: testAccount.CoinType,
		Account:  testAccount.Index,
		Chain:    chain,
		Count:    count,
		Network:  &chaincfg.MainNetParams,
	})
	require.NoError(t, err)
	return batch
}

// newWalletFixture scripts the mock explorer with a small confirmed
// history for the test wallet:
//
//	tx aa.. funds the first receiving address with 100000 sats
//	tx bb.. spends it, paying 40000 to a foreign address and 55000 back
//	to the first change address, 5000 sats of fees
func newWalletFixture(
	t *testing.T, w *wallet.Wallet,
) (*mockExplorer, []wallet.AddressData, []wallet.AddressData) {
	t.Helper()

	externals := deriveTestAddresses(t, w, domain.ExternalChain, 2)
	internals := deriveTestAddresses(t, w, domain.InternalChain, 2)

	txAA := strings.Repeat("aa", 32)
	txBB := strings.Repeat("bb", 32)
	txFF := strings.Repeat("ff", 32)
	foreignAddr := "1BitcoinEaterAddressDontSendf59kuE"
	blockTime := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	return &mockExplorer{
		historyByAddress: map[string][]explorer.HistoryItem{
			externals[0].Address: {
				{TxID: txAA, Height: 800100},
				{TxID: txBB, Height: 800101},
			},
			internals[0].Address: {
				{TxID: txBB, Height: 800101},
			},
		},
		txs: map[string]*explorer.Transaction{
			txAA: {
				TxID: txAA,
				Inputs: []explorer.TxInput{
					{TxID: txFF, VOut: 0, Address: foreignAddr, Value: 200000},
				},
				Outputs: []explorer.TxOutput{
					{
						Index:   0,
						Address: externals[0].Address,
						Value:   100000,
						Script:  externals[0].Script,
					},
				},
				Confirmations: 4,
				BlockTime:     blockTime,
			},
			txBB: {
				TxID: txBB,
				Inputs: []explorer.TxInput{
					{TxID: txAA, VOut: 0, Address: externals[0].Address, Value: 100000},
				},
				Outputs: []explorer.TxOutput{
					{Index: 0, Address: foreignAddr, Value: 40000},
					{
						Index:   1,
						Address: internals[0].Address,
						Value:   55000,
						Script:  internals[0].Script,
					},
				},
				Confirmations: 3,
				BlockTime:     blockTime.Add(10 * time.Minute),
			},
		},
		feeRates:  explorer.FeeRates{Slow: 2, Normal: 5, Fast: 10, Urgent: 25},
		tipHeight: 800103,
	}, externals, internals
}
