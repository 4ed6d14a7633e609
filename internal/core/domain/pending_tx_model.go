package domain

import "time"

// PendingTransaction is a transaction the wallet broadcast and that has not
// been observed in the indexer history yet. Reconciliation supersedes it as
// soon as the txid appears in history, so it never double-counts.
type PendingTransaction struct {
	TxID          string
	WalletID      string
	TxHex         string
	Recipient     string
	Amount        uint64
	Fee           uint64
	ChangeAmount  uint64
	SpentUtxoKeys []UtxoKey
	CreatedAt     time.Time
}
