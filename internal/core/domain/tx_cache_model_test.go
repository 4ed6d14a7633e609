package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCachedTransactionsBalance(t *testing.T) {
	cache := CachedTransactions{
		WalletID: "w1",
		Utxos: []Utxo{
			{TxID: "aa", VOut: 0, Value: 50000, Confirmations: 3},
			{TxID: "bb", VOut: 1, Value: 20000, Confirmations: 0},
			{TxID: "cc", VOut: 0, Value: 10000, Confirmations: 5, Spent: true},
		},
		Transactions: []Transaction{
			{TxID: "aa", Confirmations: 3, NetAmount: 60000},
			{TxID: "cc", Confirmations: 5, NetAmount: -10000},
			{TxID: "bb", Confirmations: 0, NetAmount: 20000},
		},
	}

	assert.Equal(t, uint64(50000), cache.Balance())
	assert.Equal(t, uint64(20000), cache.UnconfirmedBalance())
	// mempool txs are excluded on both sides
	assert.Equal(t, int64(50000), cache.NetBalance())
}

func TestCachedTransactionsSpendableUtxos(t *testing.T) {
	cache := CachedTransactions{
		Utxos: []Utxo{
			{TxID: "aa", Value: 50000, Confirmations: 3},
			{TxID: "bb", Value: 20000, Confirmations: 1},
			{TxID: "cc", Value: 10000, Confirmations: 5, Spent: true},
		},
	}

	spendable := cache.SpendableUtxos(2)
	assert.Len(t, spendable, 1)
	assert.Equal(t, "aa", spendable[0].TxID)
}

func TestCachedTransactionsIsStale(t *testing.T) {
	now := time.Now()
	ttl := 30 * time.Minute

	cache := CachedTransactions{LastUpdated: now.Add(-10 * time.Minute)}
	assert.False(t, cache.IsStale(now, ttl))

	cache.LastUpdated = now.Add(-31 * time.Minute)
	assert.True(t, cache.IsStale(now, ttl))
}

func TestAddressCacheNextUnused(t *testing.T) {
	cache := AddressCache{
		ExternalAddresses: []AddressInfo{
			{Index: 0, Address: "ext0", Used: true},
			{Index: 1, Address: "ext1", Used: false},
		},
		InternalAddresses: []AddressInfo{
			{Index: 0, Address: "int0", Used: true},
		},
	}

	next := cache.NextUnusedAddress(ExternalChain)
	assert.NotNil(t, next)
	assert.Equal(t, "ext1", next.Address)

	assert.Nil(t, cache.NextUnusedAddress(InternalChain))
}
