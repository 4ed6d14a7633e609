package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/sony/gobreaker"
	"github.com/vesper-wallet/vesper/pkg/circuitbreaker"
	"github.com/vesper-wallet/vesper/pkg/explorer"
)

// breakerExplorer decorates an explorer.Service with a circuit breaker so
// that a flapping indexer stops being hammered while it recovers. An open
// breaker surfaces as explorer.ErrUnavailable.
type breakerExplorer struct {
	svc explorer.Service
	cb  *gobreaker.CircuitBreaker
}

func newBreakerExplorer(svc explorer.Service) explorer.Service {
	return &breakerExplorer{
		svc: svc,
		cb:  circuitbreaker.NewCircuitBreaker("explorer"),
	}
}

func (b *breakerExplorer) GetHistoryForAddresses(
	ctx context.Context, addresses []string,
) ([]explorer.AddressHistory, error) {
	res, err := b.execute(func() (interface{}, error) {
		return b.svc.GetHistoryForAddresses(ctx, addresses)
	})
	if err != nil {
		return nil, err
	}
	return res.([]explorer.AddressHistory), nil
}

func (b *breakerExplorer) GetTransaction(
	ctx context.Context, txid string,
) (*explorer.Transaction, error) {
	res, err := b.execute(func() (interface{}, error) {
		return b.svc.GetTransaction(ctx, txid)
	})
	if err != nil {
		return nil, err
	}
	return res.(*explorer.Transaction), nil
}

func (b *breakerExplorer) EstimateFeeRates(
	ctx context.Context,
) (explorer.FeeRates, error) {
	res, err := b.execute(func() (interface{}, error) {
		return b.svc.EstimateFeeRates(ctx)
	})
	if err != nil {
		return explorer.FeeRates{}, err
	}
	return res.(explorer.FeeRates), nil
}

func (b *breakerExplorer) Broadcast(
	ctx context.Context, txHex string,
) (string, error) {
	res, err := b.execute(func() (interface{}, error) {
		return b.svc.Broadcast(ctx, txHex)
	})
	if err != nil {
		return "", err
	}
	return res.(string), nil
}

func (b *breakerExplorer) GetBlockHeight(ctx context.Context) (int64, error) {
	res, err := b.execute(func() (interface{}, error) {
		return b.svc.GetBlockHeight(ctx)
	})
	if err != nil {
		return 0, err
	}
	return res.(int64), nil
}

func (b *breakerExplorer) Close() error {
	return b.svc.Close()
}

func (b *breakerExplorer) execute(
	fn func() (interface{}, error),
) (interface{}, error) {
	res, err := b.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) ||
			errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", explorer.ErrUnavailable, err)
		}
		return nil, err
	}
	return res, nil
}
