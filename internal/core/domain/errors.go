package domain

import "errors"

var (
	// ErrGapLimitExceeded is thrown when an address discovery scan keeps
	// finding history past the maximum number of window extensions.
	ErrGapLimitExceeded = errors.New(
		"address discovery exceeded the maximum number of gap limit extensions",
	)
	// ErrAddressCacheNotFound ...
	ErrAddressCacheNotFound = errors.New("address cache not found for wallet")
	// ErrTransactionCacheNotFound ...
	ErrTransactionCacheNotFound = errors.New(
		"transaction cache not found for wallet",
	)
	// ErrPendingTransactionNotFound ...
	ErrPendingTransactionNotFound = errors.New("pending transaction not found")
	// ErrUtxoNotFound ...
	ErrUtxoNotFound = errors.New("utxo not found")
	// ErrInvalidAccount ...
	ErrInvalidAccount = errors.New("account purpose must be one of 44, 49, 84")
	// ErrInvalidChain is thrown when a chain index is neither external (0)
	// nor internal (1).
	ErrInvalidChain = errors.New("chain index must be either 0 or 1")
)
