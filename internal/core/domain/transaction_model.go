package domain

import "time"

// TxClassification tells how a transaction relates to the wallet.
type TxClassification string

const (
	// TxReceived means the wallet owns none of the inputs and at least one
	// output.
	TxReceived TxClassification = "received"
	// TxSent means the wallet owns inputs and pays at least one foreign
	// output.
	TxSent TxClassification = "sent"
	// TxSelfTransfer means the wallet owns the inputs and every output,
	// only the fee leaves the wallet.
	TxSelfTransfer TxClassification = "self-transfer"
)

// TxEndpoint is one side of a transaction edge, an input resolved against the
// output it spends or an output itself.
type TxEndpoint struct {
	TxID    string
	VOut    uint32
	Address string
	Value   uint64
}

// Transaction is one cached wallet transaction with its classification as of
// the last reconciliation.
type Transaction struct {
	TxID           string
	TxHex          string
	Inputs         []TxEndpoint
	Outputs        []TxEndpoint
	Confirmations  int64
	BlockTime      time.Time
	Classification TxClassification
	// NetAmount is the signed balance change the transaction causes to the
	// wallet, fee included for outgoing transactions.
	NetAmount int64
}

// Confirmed returns whether the transaction is included in a block.
func (t *Transaction) Confirmed() bool {
	return t.Confirmations > 0
}

// Classify derives the classification and net amount of a transaction from a
// snapshot of the wallet's addresses. It is a pure function, reconciliation
// recomputes it from scratch every round.
func Classify(
	tx Transaction, addresses map[string]struct{},
) (TxClassification, int64) {
	ownedIn, ownedOut := uint64(0), uint64(0)
	foreignOutputs := false

	for _, in := range tx.Inputs {
		if _, ok := addresses[in.Address]; ok {
			ownedIn += in.Value
		}
	}
	for _, out := range tx.Outputs {
		if _, ok := addresses[out.Address]; ok {
			ownedOut += out.Value
			continue
		}
		foreignOutputs = true
	}

	netAmount := int64(ownedOut) - int64(ownedIn)

	if ownedIn <= 0 {
		return TxReceived, netAmount
	}
	if foreignOutputs {
		return TxSent, netAmount
	}
	return TxSelfTransfer, netAmount
}
