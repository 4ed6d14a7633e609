package domain

import "time"

// CachedTransactions is the reconciled view of a wallet's on-chain activity,
// the transactions involving its addresses and the unspent output set they
// produce. It is replaced as a whole at the end of every reconciliation.
type CachedTransactions struct {
	WalletID     string
	Transactions []Transaction
	Utxos        []Utxo
	TipHeight    int64
	LastUpdated  time.Time
}

// Balance returns the sum of the confirmed unspent outputs.
func (c *CachedTransactions) Balance() uint64 {
	balance := uint64(0)
	for _, utxo := range c.Utxos {
		if utxo.Confirmed() && !utxo.Spent {
			balance += utxo.Value
		}
	}
	return balance
}

// UnconfirmedBalance returns the sum of the mempool unspent outputs.
func (c *CachedTransactions) UnconfirmedBalance() uint64 {
	balance := uint64(0)
	for _, utxo := range c.Utxos {
		if !utxo.Confirmed() && !utxo.Spent {
			balance += utxo.Value
		}
	}
	return balance
}

// NetBalance sums the net amounts of the confirmed transactions. On a
// consistent cache it equals Balance, both are computed so that the
// equality can be checked.
func (c *CachedTransactions) NetBalance() int64 {
	balance := int64(0)
	for _, tx := range c.Transactions {
		if tx.Confirmed() {
			balance += tx.NetAmount
		}
	}
	return balance
}

// IsStale returns whether the cache is older than the given ttl.
func (c *CachedTransactions) IsStale(now time.Time, ttl time.Duration) bool {
	return now.Sub(c.LastUpdated) >= ttl
}

// SpendableUtxos returns the outputs that can fund a new transaction.
func (c *CachedTransactions) SpendableUtxos(minConfirmations int64) []Utxo {
	utxos := make([]Utxo, 0, len(c.Utxos))
	for _, utxo := range c.Utxos {
		if utxo.Spendable(minConfirmations) {
			utxos = append(utxos, utxo)
		}
	}
	return utxos
}

// GetTransaction returns the cached transaction with the given txid.
func (c *CachedTransactions) GetTransaction(txid string) *Transaction {
	for i := range c.Transactions {
		if c.Transactions[i].TxID == txid {
			return &c.Transactions[i]
		}
	}
	return nil
}
