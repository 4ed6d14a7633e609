package application

import (
	"context"

	"github.com/vesper-wallet/vesper/internal/core/domain"
	"github.com/vesper-wallet/vesper/pkg/explorer"
	"github.com/vesper-wallet/vesper/pkg/wallet"
)

// discoverChain performs the gap-limit scan for one branch of the account.
// The cache branch is extended in place with every derived address, marked
// used when it has history. The scan ends when the trailing gapLimit
// addresses are all unused, with at most maxGapExtensions extensions of the
// initial window.
func (s *transactionCacheService) discoverChain(
	ctx context.Context, w *registeredWallet, cache *domain.AddressCache,
	chain uint32,
) ([]explorer.AddressHistory, error) {
	addrs := cache.AddressesForChain(chain)
	histories := make([]explorer.AddressHistory, 0, len(addrs))

	// refresh the usage state of the addresses derived in past rounds
	if len(addrs) > 0 {
		batchHistories, err := s.explorerSvc.GetHistoryForAddresses(
			ctx, addressList(addrs),
		)
		if err != nil {
			return nil, err
		}
		markUsed(addrs, batchHistories)
		histories = append(histories, batchHistories...)
	}

	extensions := 0
	for {
		missing := s.gapLimit - trailingUnused(addrs)
		if missing <= 0 {
			break
		}

		start := len(addrs)
		if start >= s.gapLimit {
			// the initial window was already full, this is an extension
			if extensions >= s.maxGapExtensions {
				return nil, domain.ErrGapLimitExceeded
			}
			extensions++
		}

		batch, err := w.wallet.DeriveAddressBatch(wallet.DeriveAddressBatchOpts{
			Purpose:    w.account.Purpose,
			CoinType:   w.account.CoinType,
			Account:    w.account.Index,
			Chain:      chain,
			StartIndex: uint32(start),
			Count:      missing,
			Network:    w.network,
		})
		if err != nil {
			return nil, err
		}

		newAddrs := toAddressInfo(w.account, chain, batch)
		batchHistories, err := s.explorerSvc.GetHistoryForAddresses(
			ctx, addressList(newAddrs),
		)
		if err != nil {
			return nil, err
		}
		markUsed(newAddrs, batchHistories)

		addrs = append(addrs, newAddrs...)
		histories = append(histories, batchHistories...)
	}

	cache.SetAddressesForChain(chain, addrs)
	return histories, nil
}

// extendChain derives count more addresses for a branch without scanning,
// the append-only batch generation.
func (s *transactionCacheService) extendChain(
	w *registeredWallet, cache *domain.AddressCache, chain uint32, count int,
) ([]domain.AddressInfo, error) {
	addrs := cache.AddressesForChain(chain)

	batch, err := w.wallet.DeriveAddressBatch(wallet.DeriveAddressBatchOpts{
		Purpose:    w.account.Purpose,
		CoinType:   w.account.CoinType,
		Account:    w.account.Index,
		Chain:      chain,
		StartIndex: uint32(len(addrs)),
		Count:      count,
		Network:    w.network,
	})
	if err != nil {
		return nil, err
	}

	newAddrs := toAddressInfo(w.account, chain, batch)
	cache.SetAddressesForChain(chain, append(addrs, newAddrs...))
	return newAddrs, nil
}

func toAddressInfo(
	account domain.Account, chain uint32, batch []wallet.AddressData,
) []domain.AddressInfo {
	infos := make([]domain.AddressInfo, 0, len(batch))
	for _, data := range batch {
		infos = append(infos, domain.AddressInfo{
			Account:        account,
			Chain:          chain,
			Index:          data.Index,
			DerivationPath: data.DerivationPath,
			Address:        data.Address,
			Script:         data.Script,
		})
	}
	return infos
}

func addressList(addrs []domain.AddressInfo) []string {
	list := make([]string, 0, len(addrs))
	for _, info := range addrs {
		list = append(list, info.Address)
	}
	return list
}

func markUsed(addrs []domain.AddressInfo, histories []explorer.AddressHistory) {
	hasHistory := make(map[string]bool, len(histories))
	for _, h := range histories {
		hasHistory[h.Address] = h.HasHistory()
	}
	for i := range addrs {
		if hasHistory[addrs[i].Address] {
			addrs[i].Used = true
		}
	}
}

func trailingUnused(addrs []domain.AddressInfo) int {
	unused := 0
	for i := len(addrs) - 1; i >= 0; i-- {
		if addrs[i].Used {
			break
		}
		unused++
	}
	return unused
}
