package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	log "github.com/sirupsen/logrus"
	"github.com/vesper-wallet/vesper/internal/core/domain"
	"github.com/vesper-wallet/vesper/internal/core/ports"
	"github.com/vesper-wallet/vesper/pkg/explorer"
	"github.com/vesper-wallet/vesper/pkg/wallet"
)

// SendResult reports a broadcast transaction back to the caller.
type SendResult struct {
	TxID         string
	TxHex        string
	Fee          uint64
	ChangeAmount uint64
}

// SendService assembles, signs and broadcasts transactions on top of the
// reconciled caches.
type SendService interface {
	// Send pays amountSats to the recipient at the given fee priority. The
	// consumed outputs are optimistically marked spent before broadcasting
	// and the marks are rolled back if the broadcast fails.
	Send(
		ctx context.Context, walletID, recipient string, amountSats uint64,
		priority FeePriority,
	) (*SendResult, error)
	// EstimateFees returns the current fee rates per priority, falling back
	// to the static table when the indexer has no estimations.
	EstimateFees(ctx context.Context) explorer.FeeRates
}

// feeRatesTTL is how long a fetched estimation table is served before
// asking the indexer again.
const feeRatesTTL = 2 * time.Minute

type sendService struct {
	keeper      *WalletKeeper
	repoManager ports.RepoManager
	cacheSvc    TransactionCacheService
	explorerSvc explorer.Service
	clock       clock.Clock

	minConfirmations int64

	feeLock           sync.Mutex
	feeRates          *explorer.FeeRates
	feeRatesFetchedAt time.Time
}

// NewSendService returns the send flow. Zero minConfirmations selects the
// default threshold. The explorer service is wrapped with a circuit breaker.
func NewSendService(
	keeper *WalletKeeper, repoManager ports.RepoManager,
	cacheSvc TransactionCacheService, explorerSvc explorer.Service,
	clk clock.Clock, minConfirmations int64,
) SendService {
	if minConfirmations <= 0 {
		minConfirmations = DefaultMinConfirmations
	}
	if clk == nil {
		clk = clock.NewDefaultClock()
	}

	return &sendService{
		keeper:           keeper,
		repoManager:      repoManager,
		cacheSvc:         cacheSvc,
		explorerSvc:      newBreakerExplorer(explorerSvc),
		clock:            clk,
		minConfirmations: minConfirmations,
	}
}

func (s *sendService) Send(
	ctx context.Context, walletID, recipient string, amountSats uint64,
	priority FeePriority,
) (*SendResult, error) {
	w, err := s.keeper.getWallet(walletID)
	if err != nil {
		return nil, err
	}

	feeRate, err := s.feeRateForPriority(ctx, priority)
	if err != nil {
		return nil, err
	}

	// a fresh view of the utxo set before selecting anything
	txCache, err := s.cacheSvc.Reconcile(ctx, walletID)
	if err != nil {
		return nil, err
	}
	addrCache, err := s.repoManager.AddressCacheRepository().
		GetAddressCache(ctx, walletID)
	if err != nil {
		return nil, err
	}

	unspents := toExplorerUtxos(txCache.SpendableUtxos(s.minConfirmations))

	changeAddress, err := s.changeAddress(ctx, w, addrCache)
	if err != nil {
		return nil, err
	}

	created, err := w.wallet.CreateTx(wallet.CreateTxOpts{
		Unspents:         unspents,
		RecipientAddress: recipient,
		AmountSats:       amountSats,
		SatsPerVByte:     feeRate,
		ChangeAddress:    changeAddress,
		MinConfirmations: s.minConfirmations,
		Network:          w.network,
	})
	if err != nil {
		return nil, err
	}

	signed, err := w.wallet.SignTransaction(wallet.SignTransactionOpts{
		UnsignedTx:        created.UnsignedTx,
		Unspents:          created.SelectedUnspents,
		DerivationPathMap: addrCache.DerivationPathByScript(),
		Network:           w.network,
	})
	if err != nil {
		return nil, err
	}

	spentKeys := make([]domain.UtxoKey, 0, len(created.SelectedUnspents))
	for _, u := range created.SelectedUnspents {
		spentKeys = append(spentKeys, domain.UtxoKey{TxID: u.TxID, VOut: u.VOut})
	}

	txCacheRepo := s.repoManager.TransactionCacheRepository()
	if err := txCacheRepo.SpendUtxos(ctx, walletID, spentKeys); err != nil {
		return nil, err
	}

	txid, err := s.explorerSvc.Broadcast(ctx, signed.TxHex)
	if err != nil {
		// roll back the optimistic marks, the outputs are still unspent
		if rbErr := txCacheRepo.UnspendUtxos(
			ctx, walletID, spentKeys,
		); rbErr != nil {
			log.WithError(rbErr).WithField("wallet", walletID).Warn(
				"failed to unmark utxos after rejected broadcast",
			)
		}
		return nil, err
	}

	pendingTx := &domain.PendingTransaction{
		TxID:          txid,
		WalletID:      walletID,
		TxHex:         signed.TxHex,
		Recipient:     recipient,
		Amount:        amountSats,
		Fee:           created.FeeAmount,
		ChangeAmount:  created.ChangeAmount,
		SpentUtxoKeys: spentKeys,
		CreatedAt:     s.clock.Now(),
	}
	if err := s.repoManager.PendingTransactionRepository().
		AddPendingTransaction(ctx, pendingTx); err != nil {
		// the transaction is on the network regardless, the next
		// reconciliation will pick it up from history
		log.WithError(err).WithField("txid", txid).Warn(
			"failed to track broadcast transaction as pending",
		)
	}

	log.WithFields(log.Fields{
		"wallet": walletID,
		"txid":   txid,
		"fee":    created.FeeAmount,
	}).Info("transaction broadcast")

	return &SendResult{
		TxID:         txid,
		TxHex:        signed.TxHex,
		Fee:          created.FeeAmount,
		ChangeAmount: created.ChangeAmount,
	}, nil
}

// EstimateFees serves a cached estimation table, refreshing it when older
// than feeRatesTTL. An unavailable indexer yields the static fallback table
// without caching it, the next call retries.
func (s *sendService) EstimateFees(ctx context.Context) explorer.FeeRates {
	s.feeLock.Lock()
	defer s.feeLock.Unlock()

	now := s.clock.Now()
	if s.feeRates != nil && now.Sub(s.feeRatesFetchedAt) < feeRatesTTL {
		return *s.feeRates
	}

	rates, err := s.explorerSvc.EstimateFeeRates(ctx)
	if err != nil {
		log.WithError(err).Debug("fee estimation unavailable, using fallback rates")
		return FallbackFeeRates
	}
	s.feeRates = &rates
	s.feeRatesFetchedAt = now
	return rates
}

func (s *sendService) feeRateForPriority(
	ctx context.Context, priority FeePriority,
) (uint64, error) {
	rates := s.EstimateFees(ctx)
	switch priority {
	case FeePrioritySlow:
		return rates.Slow, nil
	case FeePriorityNormal, "":
		return rates.Normal, nil
	case FeePriorityFast:
		return rates.Fast, nil
	case FeePriorityUrgent:
		return rates.Urgent, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownFeePriority, priority)
	}
}

// changeAddress picks the first unused internal address, extending the
// branch and persisting the cache when every derived one has been used.
func (s *sendService) changeAddress(
	ctx context.Context, w *registeredWallet, cache *domain.AddressCache,
) (string, error) {
	if next := cache.NextUnusedAddress(domain.InternalChain); next != nil {
		return next.Address, nil
	}

	newAddrs, err := s.cacheSvc.GenerateAddressBatch(
		ctx, cache.WalletID, domain.InternalChain, 1,
	)
	if err != nil {
		return "", err
	}
	// reload so the derivation path map covers the new address
	fresh, err := s.repoManager.AddressCacheRepository().
		GetAddressCache(ctx, cache.WalletID)
	if err != nil {
		return "", err
	}
	*cache = *fresh
	return newAddrs[0].Address, nil
}

func toExplorerUtxos(utxos []domain.Utxo) []explorer.Utxo {
	list := make([]explorer.Utxo, 0, len(utxos))
	for _, u := range utxos {
		list = append(list, explorer.Utxo{
			TxID:          u.TxID,
			VOut:          u.VOut,
			Value:         u.Value,
			Address:       u.Address,
			Script:        u.Script,
			Confirmations: u.Confirmations,
		})
	}
	return list
}
