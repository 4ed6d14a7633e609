package domain

// UtxoKey identifies an unspent output by its txid and vout.
type UtxoKey struct {
	TxID string
	VOut uint32
}

// Utxo is one output the wallet controls. Spent is the optimistic mark set by
// the send flow between reconciliations, reconciliation itself only keeps
// outputs no cached transaction consumes.
type Utxo struct {
	TxID          string
	VOut          uint32
	Value         uint64
	Address       string
	Script        []byte
	Confirmations int64
	Spent         bool
}

// Key returns the identifier of the utxo.
func (u Utxo) Key() UtxoKey {
	return UtxoKey{TxID: u.TxID, VOut: u.VOut}
}

// Confirmed returns whether the output's transaction is included in a block.
func (u Utxo) Confirmed() bool {
	return u.Confirmations > 0
}

// Spendable returns whether the output can fund a new transaction with the
// given confirmation threshold.
func (u Utxo) Spendable(minConfirmations int64) bool {
	return !u.Spent && u.Confirmations >= minConfirmations
}
