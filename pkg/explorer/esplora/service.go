package esplora

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/vesper-wallet/vesper/pkg/explorer"
	"github.com/vesper-wallet/vesper/pkg/util"
	"go.uber.org/ratelimit"
)

const (
	defaultRequestTimeout    = 30 * time.Second
	defaultRequestsPerSecond = 10
)

// feeTargetByPriority maps the supported priorities to the confirmation
// target, in blocks, of the /fee-estimates response.
var feeTargetByPriority = map[string]string{
	"slow":   "25",
	"normal": "6",
	"fast":   "3",
	"urgent": "1",
}

// ServiceOpts is the struct given to NewService
type ServiceOpts struct {
	APIURL string
	// RequestsPerSecond caps the request rate towards the endpoint, public
	// instances ban aggressive clients. Zero means the default cap.
	RequestsPerSecond int
}

func (o ServiceOpts) validate() error {
	if len(o.APIURL) <= 0 {
		return fmt.Errorf("api url must not be null")
	}
	if o.RequestsPerSecond < 0 {
		return fmt.Errorf("requests per second must not be negative")
	}
	return nil
}

type esplora struct {
	apiURL  string
	limiter ratelimit.Limiter
}

// NewService returns a new esplora service as an explorer.Service interface
func NewService(opts ServiceOpts) (explorer.Service, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	rps := opts.RequestsPerSecond
	if rps == 0 {
		rps = defaultRequestsPerSecond
	}
	service := &esplora{
		apiURL:  opts.APIURL,
		limiter: ratelimit.New(rps),
	}

	if err := service.healthCheck(); err != nil {
		return nil, fmt.Errorf("health check: %w", err)
	}

	return service, nil
}

func (e *esplora) healthCheck() error {
	ctx, cancel := context.WithTimeout(
		context.Background(), defaultRequestTimeout,
	)
	defer cancel()

	_, err := e.GetBlockHeight(ctx)
	return err
}

func (e *esplora) GetHistoryForAddresses(
	ctx context.Context, addresses []string,
) ([]explorer.AddressHistory, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultRequestTimeout)
	defer cancel()

	histories := make([]explorer.AddressHistory, 0, len(addresses))
	for _, addr := range addresses {
		url := fmt.Sprintf("%s/address/%s/txs", e.apiURL, addr)
		resp, err := e.get(ctx, url)
		if err != nil {
			return nil, err
		}

		txs, err := parseTxs(resp)
		if err != nil {
			return nil, err
		}

		items := make([]explorer.HistoryItem, 0, len(txs))
		for _, t := range txs {
			height := int64(0)
			if t.Status.Confirmed {
				height = t.Status.BlockHeight
			}
			items = append(items, explorer.HistoryItem{
				TxID:   t.TxID,
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

func (e *esplora) GetTransaction(
	ctx context.Context, txid string,
) (*explorer.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultRequestTimeout)
	defer cancel()

	resp, err := e.get(ctx, fmt.Sprintf("%s/tx/%s", e.apiURL, txid))
	if err != nil {
		return nil, err
	}
	t, err := parseTx(resp)
	if err != nil {
		return nil, err
	}

	txHex, err := e.get(ctx, fmt.Sprintf("%s/tx/%s/hex", e.apiURL, txid))
	if err != nil {
		return nil, err
	}

	tipHeight, err := e.GetBlockHeight(ctx)
	if err != nil {
		return nil, err
	}

	return t.toExplorerTransaction(txHex, tipHeight)
}

func (e *esplora) EstimateFeeRates(
	ctx context.Context,
) (explorer.FeeRates, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultRequestTimeout)
	defer cancel()

	resp, err := e.get(ctx, fmt.Sprintf("%s/fee-estimates", e.apiURL))
	if err != nil {
		return explorer.FeeRates{}, err
	}

	estimates := map[string]float64{}
	if err := json.Unmarshal([]byte(resp), &estimates); err != nil {
		return explorer.FeeRates{}, err
	}
	if len(estimates) <= 0 {
		return explorer.FeeRates{}, fmt.Errorf(
			"%w: no fee estimations", explorer.ErrUnavailable,
		)
	}

	ratesByPriority := make(map[string]uint64, len(feeTargetByPriority))
	for priority, target := range feeTargetByPriority {
		rate, ok := estimates[target]
		if !ok || rate <= 0 {
			rate = 1
		}
		ratesByPriority[priority] = uint64(math.Ceil(rate))
	}

	return explorer.FeeRates{
		Slow:   ratesByPriority["slow"],
		Normal: ratesByPriority["normal"],
		Fast:   ratesByPriority["fast"],
		Urgent: ratesByPriority["urgent"],
	}, nil
}

func (e *esplora) Broadcast(ctx context.Context, txHex string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultRequestTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/tx", e.apiURL)
	headers := map[string]string{
		"Content-Type": "text/plain",
	}

	e.limiter.Take()
	status, resp, err := util.NewHTTPRequest(ctx, "POST", url, txHex, headers)
	if err != nil {
		return "", fmt.Errorf("%w: %v", explorer.ErrUnavailable, err)
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("%w: %s", explorer.ErrBroadcastRejected, resp)
	}

	return resp, nil
}

func (e *esplora) GetBlockHeight(ctx context.Context) (int64, error) {
	resp, err := e.get(ctx, fmt.Sprintf("%s/blocks/tip/height", e.apiURL))
	if err != nil {
		return 0, err
	}

	height, err := strconv.ParseInt(resp, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid tip height '%s'", resp)
	}
	return height, nil
}

func (e *esplora) Close() error {
	return nil
}

func (e *esplora) get(ctx context.Context, url string) (string, error) {
	e.limiter.Take()
	status, resp, err := util.NewHTTPRequest(ctx, "GET", url, "", nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", explorer.ErrUnavailable, err)
	}
	if status == http.StatusNotFound {
		return "", explorer.ErrTransactionNotFound
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("%w: %s", explorer.ErrUnavailable, resp)
	}
	return resp, nil
}
