package electrum

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/vesper-wallet/vesper/pkg/explorer"
)

const defaultRequestTimeout = 30 * time.Second

// feeTargetByPriority maps the supported priorities to the confirmation
// target, in blocks, requested from the server.
var feeTargetByPriority = map[string]int{
	"slow":   25,
	"normal": 6,
	"fast":   3,
	"urgent": 1,
}

// ServiceOpts is the struct given to NewService
type ServiceOpts struct {
	// Addr is the server endpoint, one of tcp://, ssl://, ws:// or wss://.
	Addr    string
	Network *chaincfg.Params
}

func (o ServiceOpts) validate() error {
	if len(o.Addr) <= 0 {
		return fmt.Errorf("endpoint address must not be null")
	}
	if o.Network == nil {
		return fmt.Errorf("network params are null")
	}
	return nil
}

type electrumService struct {
	client *Client
	net    *chaincfg.Params
}

// NewService connects to an Electrum server and returns it wrapped as an
// explorer.Service. The connection is shared and reused across calls.
func NewService(opts ServiceOpts) (explorer.Service, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	client, err := Dial(opts.Addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", explorer.ErrUnavailable, err)
	}

	return &electrumService{
		client: client,
		net:    opts.Network,
	}, nil
}

func (s *electrumService) GetHistoryForAddresses(
	ctx context.Context, addresses []string,
) ([]explorer.AddressHistory, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultRequestTimeout)
	defer cancel()

	histories := make([]explorer.AddressHistory, 0, len(addresses))
	for _, addr := range addresses {
		scripthash, err := s.scripthashForAddress(addr)
		if err != nil {
			return nil, err
		}

		history, err := s.client.GetHistory(ctx, scripthash)
		if err != nil {
			return nil, wrapUnavailable(err)
		}

		items := make([]explorer.HistoryItem, 0, len(history))
		for _, item := range history {
			height := item.Height
			if height < 0 {
				height = 0
			}
			items = append(items, explorer.HistoryItem{
				TxID:   item.TxHash,
				Height: height,
			})
		}
		histories = append(histories, explorer.AddressHistory{
			Address: addr,
			Items:   items,
		})
	}

	return histories, nil
}

func (s *electrumService) GetTransaction(
	ctx context.Context, txid string,
) (*explorer.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultRequestTimeout)
	defer cancel()

	info, err := s.getTransactionInfo(ctx, txid)
	if err != nil {
		return nil, err
	}

	tx, err := info.toExplorerTransaction()
	if err != nil {
		return nil, err
	}

	// resolve input addresses and amounts against the outputs they spend,
	// fetching every distinct previous transaction once
	prevTxs := make(map[string]*transactionInfo)
	ins := make([]explorer.TxInput, 0, len(info.Vin))
	for _, in := range info.Vin {
		if len(in.Coinbase) > 0 {
			continue
		}

		prevTx, ok := prevTxs[in.TxID]
		if !ok {
			prevTx, err = s.getTransactionInfo(ctx, in.TxID)
			if err != nil {
				return nil, err
			}
			prevTxs[in.TxID] = prevTx
		}
		if in.Vout >= uint32(len(prevTx.Vout)) {
			return nil, fmt.Errorf(
				"transaction '%s' spends missing output %s:%d",
				txid, in.TxID, in.Vout,
			)
		}

		prevOut := prevTx.Vout[in.Vout]
		value, err := prevOut.amount()
		if err != nil {
			return nil, err
		}
		ins = append(ins, explorer.TxInput{
			TxID:    in.TxID,
			VOut:    in.Vout,
			Address: prevOut.address(),
			Value:   value,
		})
	}
	tx.Inputs = ins

	return tx, nil
}

func (s *electrumService) EstimateFeeRates(
	ctx context.Context,
) (explorer.FeeRates, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultRequestTimeout)
	defer cancel()

	ratesByPriority := make(map[string]uint64, len(feeTargetByPriority))
	for priority, target := range feeTargetByPriority {
		btcPerKB, err := s.client.EstimateFee(ctx, target)
		if err != nil {
			return explorer.FeeRates{}, wrapUnavailable(err)
		}
		if btcPerKB < 0 {
			continue
		}
		ratesByPriority[priority] = btcPerKBToSatPerVByte(btcPerKB)
	}
	if len(ratesByPriority) <= 0 {
		return explorer.FeeRates{}, fmt.Errorf(
			"%w: no fee estimations", explorer.ErrUnavailable,
		)
	}

	// a priority the server could not estimate borrows the next faster
	// known rate so that a transaction never underpays, with a second pass
	// from the slow end for the case where only slower targets are known
	fallback := uint64(0)
	for _, priority := range []string{"urgent", "fast", "normal", "slow"} {
		if rate, ok := ratesByPriority[priority]; ok {
			fallback = rate
			continue
		}
		ratesByPriority[priority] = fallback
	}
	fallback = 0
	for _, priority := range []string{"slow", "normal", "fast", "urgent"} {
		if ratesByPriority[priority] > 0 {
			fallback = ratesByPriority[priority]
			continue
		}
		ratesByPriority[priority] = fallback
	}

	return explorer.FeeRates{
		Slow:   ratesByPriority["slow"],
		Normal: ratesByPriority["normal"],
		Fast:   ratesByPriority["fast"],
		Urgent: ratesByPriority["urgent"],
	}, nil
}

func (s *electrumService) Broadcast(
	ctx context.Context, txHex string,
) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultRequestTimeout)
	defer cancel()

	txid, err := s.client.BroadcastTx(ctx, txHex)
	if err != nil {
		var srvErr *serverError
		if errors.As(err, &srvErr) {
			return "", fmt.Errorf(
				"%w: %s", explorer.ErrBroadcastRejected, srvErr.Message,
			)
		}
		return "", wrapUnavailable(err)
	}

	return txid, nil
}

func (s *electrumService) GetBlockHeight(ctx context.Context) (int64, error) {
	if tip := s.client.TipHeight(); tip > 0 {
		return tip, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultRequestTimeout)
	defer cancel()

	tip, err := s.client.SubscribeHeaders(ctx)
	if err != nil {
		return 0, wrapUnavailable(err)
	}
	return tip, nil
}

func (s *electrumService) Close() error {
	return s.client.Close()
}

func (s *electrumService) getTransactionInfo(
	ctx context.Context, txid string,
) (*transactionInfo, error) {
	info, err := s.client.GetTransaction(ctx, txid)
	if err != nil {
		var srvErr *serverError
		if errors.As(err, &srvErr) {
			if strings.Contains(
				strings.ToLower(srvErr.Message), "no such",
			) {
				return nil, explorer.ErrTransactionNotFound
			}
			return nil, err
		}
		return nil, wrapUnavailable(err)
	}
	return info, nil
}

func (s *electrumService) scripthashForAddress(addr string) (string, error) {
	decoded, err := btcutil.DecodeAddress(addr, s.net)
	if err != nil {
		return "", fmt.Errorf("invalid address '%s': %v", addr, err)
	}
	if !decoded.IsForNet(s.net) {
		return "", fmt.Errorf(
			"address '%s' is not for network %s", addr, s.net.Name,
		)
	}
	script, err := txscript.PayToAddrScript(decoded)
	if err != nil {
		return "", err
	}
	return ScripthashFromScript(script), nil
}

func wrapUnavailable(err error) error {
	var srvErr *serverError
	if errors.As(err, &srvErr) {
		return err
	}
	return fmt.Errorf("%w: %v", explorer.ErrUnavailable, err)
}

// btcPerKBToSatPerVByte converts a server estimation from BTC/kB to sat/vB,
// rounding up with a floor of 1 sat/vB.
func btcPerKBToSatPerVByte(btcPerKB float64) uint64 {
	amount, err := btcutil.NewAmount(btcPerKB)
	if err != nil || amount <= 0 {
		return 1
	}
	satPerVByte := (uint64(amount) + 999) / 1000
	if satPerVByte < 1 {
		satPerVByte = 1
	}
	return satPerVByte
}
