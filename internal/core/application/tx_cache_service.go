package application

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	log "github.com/sirupsen/logrus"
	"github.com/vesper-wallet/vesper/internal/core/domain"
	"github.com/vesper-wallet/vesper/internal/core/ports"
	"github.com/vesper-wallet/vesper/pkg/explorer"
	"golang.org/x/sync/errgroup"
)

// Balance is the reconciled balance of a wallet.
type Balance struct {
	Confirmed   uint64
	Unconfirmed uint64
}

// TransactionCacheService reconciles the local view of a wallet against the
// indexer and serves reads from the reconciled caches.
type TransactionCacheService interface {
	// Reconcile runs the full pipeline for a wallet: discover addresses,
	// fetch history and transactions, classify, recompute the utxo set and
	// swap the persisted caches. Concurrent calls for the same wallet share
	// a single indexer round.
	Reconcile(
		ctx context.Context, walletID string,
	) (*domain.CachedTransactions, error)
	// GetBalance returns the cached balance, reconciling first when the
	// cache is missing or stale.
	GetBalance(ctx context.Context, walletID string) (*Balance, error)
	// GetUtxos returns the cached unspent outputs, reconciling first when
	// the cache is missing or stale.
	GetUtxos(ctx context.Context, walletID string) ([]domain.Utxo, error)
	// GetHistory returns the cached transactions, newest last, reconciling
	// first when the cache is missing or stale.
	GetHistory(ctx context.Context, walletID string) ([]domain.Transaction, error)
	// GetPendingTransactions returns the broadcast transactions not yet
	// observed in history.
	GetPendingTransactions(
		ctx context.Context, walletID string,
	) ([]domain.PendingTransaction, error)
	// IsStale tells whether the wallet's cache is older than the ttl. A
	// wallet without cache is stale.
	IsStale(ctx context.Context, walletID string) bool
	// NextAddress returns the first unused receiving address, extending the
	// branch if every derived address has been used.
	NextAddress(ctx context.Context, walletID string) (*domain.AddressInfo, error)
	// GenerateAddressBatch derives count more addresses on a branch,
	// append-only, and persists the extended cache.
	GenerateAddressBatch(
		ctx context.Context, walletID string, chain uint32, count int,
	) ([]domain.AddressInfo, error)
}

type reconcileCall struct {
	done  chan struct{}
	cache *domain.CachedTransactions
	err   error
}

type transactionCacheService struct {
	keeper      *WalletKeeper
	repoManager ports.RepoManager
	explorerSvc explorer.Service
	clock       clock.Clock

	gapLimit         int
	maxGapExtensions int
	cacheTTL         time.Duration

	inflightLock sync.Mutex
	inflight     map[string]*reconcileCall
}

// NewTransactionCacheService returns the reconciler. Zero values for the
// tunables select the defaults. The explorer service is wrapped with a
// circuit breaker.
func NewTransactionCacheService(
	keeper *WalletKeeper, repoManager ports.RepoManager,
	explorerSvc explorer.Service, clk clock.Clock,
	gapLimit, maxGapExtensions int, cacheTTL time.Duration,
) TransactionCacheService {
	if gapLimit <= 0 {
		gapLimit = DefaultGapLimit
	}
	if maxGapExtensions <= 0 {
		maxGapExtensions = DefaultMaxGapExtensions
	}
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	if clk == nil {
		clk = clock.NewDefaultClock()
	}

	return &transactionCacheService{
		keeper:           keeper,
		repoManager:      repoManager,
		explorerSvc:      newBreakerExplorer(explorerSvc),
		clock:            clk,
		gapLimit:         gapLimit,
		maxGapExtensions: maxGapExtensions,
		cacheTTL:         cacheTTL,
		inflight:         make(map[string]*reconcileCall),
	}
}

func (s *transactionCacheService) Reconcile(
	ctx context.Context, walletID string,
) (*domain.CachedTransactions, error) {
	s.inflightLock.Lock()
	if call, ok := s.inflight[walletID]; ok {
		s.inflightLock.Unlock()
		select {
		case <-call.done:
			return call.cache, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	call := &reconcileCall{done: make(chan struct{})}
	s.inflight[walletID] = call
	s.inflightLock.Unlock()

	call.cache, call.err = s.reconcile(ctx, walletID)

	s.inflightLock.Lock()
	delete(s.inflight, walletID)
	s.inflightLock.Unlock()
	close(call.done)

	return call.cache, call.err
}

func (s *transactionCacheService) GetBalance(
	ctx context.Context, walletID string,
) (*Balance, error) {
	cache, err := s.freshCache(ctx, walletID)
	if err != nil {
		return nil, err
	}
	return &Balance{
		Confirmed:   cache.Balance(),
		Unconfirmed: cache.UnconfirmedBalance(),
	}, nil
}

func (s *transactionCacheService) GetUtxos(
	ctx context.Context, walletID string,
) ([]domain.Utxo, error) {
	cache, err := s.freshCache(ctx, walletID)
	if err != nil {
		return nil, err
	}
	return cache.Utxos, nil
}

func (s *transactionCacheService) GetHistory(
	ctx context.Context, walletID string,
) ([]domain.Transaction, error) {
	cache, err := s.freshCache(ctx, walletID)
	if err != nil {
		return nil, err
	}
	return cache.Transactions, nil
}

func (s *transactionCacheService) GetPendingTransactions(
	ctx context.Context, walletID string,
) ([]domain.PendingTransaction, error) {
	if _, err := s.keeper.getWallet(walletID); err != nil {
		return nil, err
	}
	return s.repoManager.PendingTransactionRepository().
		GetPendingTransactions(ctx, walletID)
}

func (s *transactionCacheService) IsStale(
	ctx context.Context, walletID string,
) bool {
	cache, err := s.repoManager.TransactionCacheRepository().
		GetCachedTransactions(ctx, walletID)
	if err != nil {
		return true
	}
	return cache.IsStale(s.clock.Now(), s.cacheTTL)
}

func (s *transactionCacheService) NextAddress(
	ctx context.Context, walletID string,
) (*domain.AddressInfo, error) {
	w, err := s.keeper.getWallet(walletID)
	if err != nil {
		return nil, err
	}

	addrCache, err := s.addressCache(ctx, walletID, w)
	if err != nil {
		return nil, err
	}

	if next := addrCache.NextUnusedAddress(domain.ExternalChain); next != nil {
		return next, nil
	}

	// every derived address has history, extend the branch
	newAddrs, err := s.extendChain(w, addrCache, domain.ExternalChain, 1)
	if err != nil {
		return nil, err
	}
	addrCache.LastUpdated = s.clock.Now()
	if err := s.repoManager.AddressCacheRepository().
		UpdateAddressCache(ctx, addrCache); err != nil {
		return nil, err
	}
	return &newAddrs[0], nil
}

func (s *transactionCacheService) GenerateAddressBatch(
	ctx context.Context, walletID string, chain uint32, count int,
) ([]domain.AddressInfo, error) {
	if chain != domain.ExternalChain && chain != domain.InternalChain {
		return nil, domain.ErrInvalidChain
	}
	w, err := s.keeper.getWallet(walletID)
	if err != nil {
		return nil, err
	}

	addrCache, err := s.addressCache(ctx, walletID, w)
	if err != nil {
		return nil, err
	}

	newAddrs, err := s.extendChain(w, addrCache, chain, count)
	if err != nil {
		return nil, err
	}
	addrCache.LastUpdated = s.clock.Now()
	if err := s.repoManager.AddressCacheRepository().
		UpdateAddressCache(ctx, addrCache); err != nil {
		return nil, err
	}
	return newAddrs, nil
}

// freshCache serves the cached view, reconciling first when missing or
// stale.
func (s *transactionCacheService) freshCache(
	ctx context.Context, walletID string,
) (*domain.CachedTransactions, error) {
	if _, err := s.keeper.getWallet(walletID); err != nil {
		return nil, err
	}

	cache, err := s.repoManager.TransactionCacheRepository().
		GetCachedTransactions(ctx, walletID)
	if err != nil {
		if !errors.Is(err, domain.ErrTransactionCacheNotFound) {
			return nil, err
		}
		return s.Reconcile(ctx, walletID)
	}
	if cache.IsStale(s.clock.Now(), s.cacheTTL) {
		return s.Reconcile(ctx, walletID)
	}
	return cache, nil
}

// addressCache loads the wallet's address cache, or starts an empty one for
// a wallet never reconciled.
func (s *transactionCacheService) addressCache(
	ctx context.Context, walletID string, w *registeredWallet,
) (*domain.AddressCache, error) {
	cache, err := s.repoManager.AddressCacheRepository().
		GetAddressCache(ctx, walletID)
	if err != nil {
		if !errors.Is(err, domain.ErrAddressCacheNotFound) {
			return nil, err
		}
		cache = &domain.AddressCache{
			WalletID: walletID,
			Account:  w.account,
		}
	}
	return cache, nil
}

func (s *transactionCacheService) reconcile(
	ctx context.Context, walletID string,
) (*domain.CachedTransactions, error) {
	w, err := s.keeper.getWallet(walletID)
	if err != nil {
		return nil, err
	}

	addrCache, err := s.addressCache(ctx, walletID, w)
	if err != nil {
		return nil, err
	}

	// 1. discover addresses per branch, gap-limit bounded
	histories := make([]explorer.AddressHistory, 0)
	for _, chain := range []uint32{domain.ExternalChain, domain.InternalChain} {
		chainHistories, err := s.discoverChain(ctx, w, addrCache, chain)
		if err != nil {
			return nil, err
		}
		histories = append(histories, chainHistories...)
	}

	// 2. fetch every distinct transaction seen in history
	txByID, err := s.fetchTransactions(ctx, histories)
	if err != nil {
		return nil, err
	}

	// 3. classify against the fresh address snapshot and rebuild the utxo
	// set from scratch
	addressSet := addrCache.AddressSet()
	transactions := classifyTransactions(txByID, addressSet)
	utxos := computeUtxoSet(txByID, addressSet)

	// 4. supersede observed pending transactions, re-apply the optimistic
	// marks of the still unobserved ones
	if err := s.settlePendingTransactions(ctx, walletID, txByID, utxos); err != nil {
		return nil, err
	}

	tipHeight, err := s.explorerSvc.GetBlockHeight(ctx)
	if err != nil {
		return nil, err
	}

	// 5. swap the persisted caches as whole objects
	now := s.clock.Now()
	addrCache.LastUpdated = now
	txCache := &domain.CachedTransactions{
		WalletID:     walletID,
		Transactions: transactions,
		Utxos:        utxos,
		TipHeight:    tipHeight,
		LastUpdated:  now,
	}

	if err := s.repoManager.AddressCacheRepository().
		UpdateAddressCache(ctx, addrCache); err != nil {
		return nil, err
	}
	if err := s.repoManager.TransactionCacheRepository().
		UpdateCachedTransactions(ctx, txCache); err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"wallet":       walletID,
		"transactions": len(transactions),
		"utxos":        len(utxos),
		"tip":          tipHeight,
	}).Debug("wallet reconciled")

	return txCache, nil
}

func (s *transactionCacheService) fetchTransactions(
	ctx context.Context, histories []explorer.AddressHistory,
) (map[string]*explorer.Transaction, error) {
	txids := make(map[string]struct{})
	for _, history := range histories {
		for _, item := range history.Items {
			txids[item.TxID] = struct{}{}
		}
	}

	txByID := make(map[string]*explorer.Transaction, len(txids))
	var txLock sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentTxFetches)
	for txid := range txids {
		txid := txid
		g.Go(func() error {
			tx, err := s.explorerSvc.GetTransaction(gctx, txid)
			if err != nil {
				return err
			}
			txLock.Lock()
			txByID[txid] = tx
			txLock.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return txByID, nil
}

func (s *transactionCacheService) settlePendingTransactions(
	ctx context.Context, walletID string,
	txByID map[string]*explorer.Transaction, utxos []domain.Utxo,
) error {
	repo := s.repoManager.PendingTransactionRepository()
	pending, err := repo.GetPendingTransactions(ctx, walletID)
	if err != nil {
		return err
	}

	utxoIndex := make(map[domain.UtxoKey]int, len(utxos))
	for i, utxo := range utxos {
		utxoIndex[utxo.Key()] = i
	}

	for _, ptx := range pending {
		if _, observed := txByID[ptx.TxID]; observed {
			if err := repo.DeletePendingTransaction(ctx, ptx.TxID); err != nil {
				return err
			}
			continue
		}
		for _, key := range ptx.SpentUtxoKeys {
			if i, ok := utxoIndex[key]; ok {
				utxos[i].Spent = true
			}
		}
	}
	return nil
}

func classifyTransactions(
	txByID map[string]*explorer.Transaction, addressSet map[string]struct{},
) []domain.Transaction {
	transactions := make([]domain.Transaction, 0, len(txByID))
	for _, tx := range txByID {
		domainTx := toDomainTransaction(tx)
		classification, netAmount := domain.Classify(domainTx, addressSet)
		domainTx.Classification = classification
		domainTx.NetAmount = netAmount
		transactions = append(transactions, domainTx)
	}

	// confirmed first in block time order, mempool last
	sort.SliceStable(transactions, func(i, j int) bool {
		ti, tj := transactions[i], transactions[j]
		if ti.Confirmed() != tj.Confirmed() {
			return ti.Confirmed()
		}
		if !ti.BlockTime.Equal(tj.BlockTime) {
			return ti.BlockTime.Before(tj.BlockTime)
		}
		return ti.TxID < tj.TxID
	})
	return transactions
}

func computeUtxoSet(
	txByID map[string]*explorer.Transaction, addressSet map[string]struct{},
) []domain.Utxo {
	consumed := make(map[domain.UtxoKey]struct{})
	for _, tx := range txByID {
		for _, in := range tx.Inputs {
			consumed[domain.UtxoKey{TxID: in.TxID, VOut: in.VOut}] = struct{}{}
		}
	}

	utxos := make([]domain.Utxo, 0)
	for _, tx := range txByID {
		for _, out := range tx.Outputs {
			if _, owned := addressSet[out.Address]; !owned {
				continue
			}
			key := domain.UtxoKey{TxID: tx.TxID, VOut: out.Index}
			if _, spent := consumed[key]; spent {
				continue
			}
			utxos = append(utxos, domain.Utxo{
				TxID:          tx.TxID,
				VOut:          out.Index,
				Value:         out.Value,
				Address:       out.Address,
				Script:        out.Script,
				Confirmations: tx.Confirmations,
			})
		}
	}

	sort.Slice(utxos, func(i, j int) bool {
		if utxos[i].TxID != utxos[j].TxID {
			return utxos[i].TxID < utxos[j].TxID
		}
		return utxos[i].VOut < utxos[j].VOut
	})
	return utxos
}

func toDomainTransaction(tx *explorer.Transaction) domain.Transaction {
	ins := make([]domain.TxEndpoint, 0, len(tx.Inputs))
	for _, in := range tx.Inputs {
		ins = append(ins, domain.TxEndpoint{
			TxID:    in.TxID,
			VOut:    in.VOut,
			Address: in.Address,
			Value:   in.Value,
		})
	}
	outs := make([]domain.TxEndpoint, 0, len(tx.Outputs))
	for _, out := range tx.Outputs {
		outs = append(outs, domain.TxEndpoint{
			TxID:    tx.TxID,
			VOut:    out.Index,
			Address: out.Address,
			Value:   out.Value,
		})
	}

	return domain.Transaction{
		TxID:          tx.TxID,
		TxHex:         tx.TxHex,
		Inputs:        ins,
		Outputs:       outs,
		Confirmations: tx.Confirmations,
		BlockTime:     tx.BlockTime,
	}
}
