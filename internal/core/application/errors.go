package application

import "errors"

var (
	// ErrWalletNotFound is thrown when an operation references a wallet id
	// that was never registered in this process.
	ErrWalletNotFound = errors.New("wallet is not registered")
	// ErrWalletAlreadyRegistered ...
	ErrWalletAlreadyRegistered = errors.New("wallet id is already registered")
	// ErrUnknownFeePriority ...
	ErrUnknownFeePriority = errors.New(
		"fee priority must be one of slow, normal, fast, urgent",
	)
)
