package explorer

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUnavailable is returned whenever a call to the indexer fails at
	// the transport level or times out. Calls are never retried
	// internally, the caller decides whether to retry the whole sync.
	ErrUnavailable = errors.New("indexer is unavailable")

	// ErrBroadcastRejected is returned when the network refuses a raw
	// transaction, for example because of a too low fee or an attempted
	// double spend.
	ErrBroadcastRejected = errors.New("transaction rejected by the network")

	// ErrTransactionNotFound ...
	ErrTransactionNotFound = errors.New("transaction not found")
)

// HistoryItem is one confirmed or mempool appearance of a script in the
// chain history. Height is 0 for mempool transactions.
type HistoryItem struct {
	TxID   string
	Height int64
}

// AddressHistory pairs an address with its chain history.
type AddressHistory struct {
	Address string
	Items   []HistoryItem
}

// HasHistory returns whether the address appeared on-chain at least once.
func (h AddressHistory) HasHistory() bool {
	return len(h.Items) > 0
}

// TxInput is a transaction input resolved against its previous output, so
// that the spending address and amount are known.
type TxInput struct {
	TxID    string
	VOut    uint32
	Address string
	Value   uint64
}

// TxOutput is a transaction output.
type TxOutput struct {
	Index   uint32
	Address string
	Value   uint64
	Script  []byte
}

// Transaction is a reconciled view of an on-chain transaction.
type Transaction struct {
	TxID          string
	TxHex         string
	Inputs        []TxInput
	Outputs       []TxOutput
	Confirmations int64
	BlockTime     time.Time
}

// Confirmed returns whether the transaction has been included in a block.
func (t *Transaction) Confirmed() bool {
	return t.Confirmations > 0
}

// Utxo is an unspent output as reported by the indexer.
type Utxo struct {
	TxID          string
	VOut          uint32
	Value         uint64
	Address       string
	Script        []byte
	Confirmations int64
}

// FeeRates holds the fee estimations in sat/vByte for the supported
// confirmation targets.
type FeeRates struct {
	Slow   uint64
	Normal uint64
	Fast   uint64
	Urgent uint64
}

// Service is the representation of a blockchain indexer. It exposes the four
// logical operations the wallet engine needs: per-address history, full
// transactions, fee estimation and raw transaction broadcast. One instance
// holds a single logical connection that is shared and reused across calls;
// concurrent request issuance must be safe.
type Service interface {
	// GetHistoryForAddresses fetches the list of txids involving each of
	// the given addresses.
	GetHistoryForAddresses(
		ctx context.Context, addresses []string,
	) ([]AddressHistory, error)
	// GetTransaction fetches a transaction by its hash with inputs
	// resolved against their previous outputs.
	GetTransaction(ctx context.Context, txid string) (*Transaction, error)
	// EstimateFeeRates returns current fee estimations in sat/vByte.
	EstimateFeeRates(ctx context.Context) (FeeRates, error)
	// Broadcast attempts to add the given transaction in hex format to the
	// mempool and returns its hash.
	Broadcast(ctx context.Context, txHex string) (string, error)
	// GetBlockHeight returns the height of the chain tip.
	GetBlockHeight(ctx context.Context) (int64, error)
	// Close releases the underlying connection.
	Close() error
}
