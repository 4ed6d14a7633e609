package application

import (
	"sync"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/google/uuid"
	"github.com/vesper-wallet/vesper/internal/core/domain"
	"github.com/vesper-wallet/vesper/pkg/wallet"
)

// registeredWallet pairs an unlocked wallet with the account and network it
// operates on.
type registeredWallet struct {
	wallet  *wallet.Wallet
	account domain.Account
	network *chaincfg.Params
}

// WalletKeeper is the process-scoped registry of unlocked wallets. Key
// material lives here and only here, it is never handed to the storage
// layer or the logs.
type WalletKeeper struct {
	lock    sync.RWMutex
	wallets map[string]*registeredWallet
}

// NewWalletKeeper returns an empty registry.
func NewWalletKeeper() *WalletKeeper {
	return &WalletKeeper{
		wallets: make(map[string]*registeredWallet),
	}
}

// RegisterWallet adds an unlocked wallet to the registry under a fresh id.
func (k *WalletKeeper) RegisterWallet(
	w *wallet.Wallet, account domain.Account, network *chaincfg.Params,
) (string, error) {
	return k.register(uuid.NewString(), w, account, network)
}

// RegisterWalletWithID adds an unlocked wallet under a caller-provided id,
// the restore path for wallets whose caches already exist on disk.
func (k *WalletKeeper) RegisterWalletWithID(
	walletID string, w *wallet.Wallet, account domain.Account,
	network *chaincfg.Params,
) (string, error) {
	return k.register(walletID, w, account, network)
}

// RemoveWallet drops a wallet from the registry.
func (k *WalletKeeper) RemoveWallet(walletID string) {
	k.lock.Lock()
	defer k.lock.Unlock()

	delete(k.wallets, walletID)
}

func (k *WalletKeeper) register(
	walletID string, w *wallet.Wallet, account domain.Account,
	network *chaincfg.Params,
) (string, error) {
	if err := account.Validate(); err != nil {
		return "", err
	}

	k.lock.Lock()
	defer k.lock.Unlock()

	if _, ok := k.wallets[walletID]; ok {
		return "", ErrWalletAlreadyRegistered
	}
	k.wallets[walletID] = &registeredWallet{
		wallet:  w,
		account: account,
		network: network,
	}
	return walletID, nil
}

func (k *WalletKeeper) getWallet(walletID string) (*registeredWallet, error) {
	k.lock.RLock()
	defer k.lock.RUnlock()

	w, ok := k.wallets[walletID]
	if !ok {
		return nil, ErrWalletNotFound
	}
	return w, nil
}
