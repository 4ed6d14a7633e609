package electrum

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	log "github.com/sirupsen/logrus"
)

const (
	clientName      = "vesper"
	protocolVersion = "1.4"

	headersSubscribeMethod = "blockchain.headers.subscribe"
)

// ErrClientClosed is returned by calls issued after the connection has been
// torn down.
var ErrClientClosed = errors.New("electrum client is closed")

type request struct {
	ID     uint64        `json:"id"`
	Method string        `json:"method"`
	Params []interface{} `json:"params"`
}

type response struct {
	ID     uint64          `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
	Result json.RawMessage `json:"result"`
	Error  *serverError    `json:"error"`
}

type serverError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *serverError) Error() string {
	return e.Message
}

// blockHeader is the payload of a headers subscription, both as the result of
// the initial call and as notification params on every new tip.
type blockHeader struct {
	Height int64  `json:"height"`
	Hex    string `json:"hex"`
}

// historyItem is one entry of a blockchain.scripthash.get_history response.
// Height is 0 for mempool transactions and -1 for those with unconfirmed
// parents.
type historyItem struct {
	TxHash string `json:"tx_hash"`
	Height int64  `json:"height"`
}

// Client is a JSON-RPC client for the Electrum protocol. A single connection
// is shared across callers, responses are matched to in-flight requests by
// id, so issuing concurrent requests is safe.
type Client struct {
	transport transport

	nextID uint64

	pendingMtx sync.Mutex
	pending    map[uint64]chan *response

	tipMtx sync.RWMutex
	tip    int64

	closeOnce sync.Once
	quit      chan struct{}
	wg        sync.WaitGroup
}

// Dial connects to an Electrum server, performs the protocol handshake and
// subscribes to chain tip notifications.
func Dial(addr string) (*Client, error) {
	t, err := dialTransport(addr)
	if err != nil {
		return nil, err
	}

	client := newClient(t)

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()

	if err := client.handshake(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("handshake with '%s': %v", addr, err)
	}
	if _, err := client.SubscribeHeaders(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("headers subscription on '%s': %v", addr, err)
	}

	return client, nil
}

func newClient(t transport) *Client {
	client := &Client{
		transport: t,
		pending:   make(map[uint64]chan *response),
		quit:      make(chan struct{}),
	}

	client.wg.Add(1)
	go client.readLoop()

	return client
}

// Close tears down the connection and fails every in-flight request.
func (c *Client) Close() error {
	c.shutdown()
	c.wg.Wait()
	return nil
}

func (c *Client) shutdown() {
	c.closeOnce.Do(func() {
		close(c.quit)
		c.transport.close()
	})
}

// TipHeight returns the chain tip height as last notified by the server.
func (c *Client) TipHeight() int64 {
	c.tipMtx.RLock()
	defer c.tipMtx.RUnlock()

	return c.tip
}

// SubscribeHeaders subscribes to new block notifications and returns the
// current chain tip height. The tip kept by the client is updated on every
// notification afterwards.
func (c *Client) SubscribeHeaders(ctx context.Context) (int64, error) {
	var header blockHeader
	if err := c.call(ctx, headersSubscribeMethod, nil, &header); err != nil {
		return 0, err
	}
	c.setTip(header.Height)

	return header.Height, nil
}

// GetHistory returns the confirmed and mempool history of a scripthash.
func (c *Client) GetHistory(
	ctx context.Context, scripthash string,
) ([]historyItem, error) {
	var history []historyItem
	if err := c.call(
		ctx, "blockchain.scripthash.get_history",
		[]interface{}{scripthash}, &history,
	); err != nil {
		return nil, err
	}
	return history, nil
}

// GetTransaction returns the verbose form of a transaction.
func (c *Client) GetTransaction(
	ctx context.Context, txid string,
) (*transactionInfo, error) {
	tx := &transactionInfo{}
	if err := c.call(
		ctx, "blockchain.transaction.get",
		[]interface{}{txid, true}, tx,
	); err != nil {
		return nil, err
	}
	return tx, nil
}

// EstimateFee returns the fee rate in BTC/kB estimated for confirmation
// within the given number of blocks. A negative rate means the server could
// not produce an estimation.
func (c *Client) EstimateFee(ctx context.Context, target int) (float64, error) {
	var rate float64
	if err := c.call(
		ctx, "blockchain.estimatefee", []interface{}{target}, &rate,
	); err != nil {
		return 0, err
	}
	return rate, nil
}

// BroadcastTx submits a raw transaction to the network and returns its txid.
func (c *Client) BroadcastTx(ctx context.Context, txHex string) (string, error) {
	var txid string
	if err := c.call(
		ctx, "blockchain.transaction.broadcast",
		[]interface{}{txHex}, &txid,
	); err != nil {
		return "", err
	}
	return txid, nil
}

// Ping keeps the connection alive.
func (c *Client) Ping(ctx context.Context) error {
	return c.call(ctx, "server.ping", nil, nil)
}

func (c *Client) handshake(ctx context.Context) error {
	var version []string
	return c.call(
		ctx, "server.version",
		[]interface{}{clientName, protocolVersion}, &version,
	)
}

func (c *Client) call(
	ctx context.Context, method string, params []interface{},
	result interface{},
) error {
	select {
	case <-c.quit:
		return ErrClientClosed
	default:
	}

	if params == nil {
		params = []interface{}{}
	}
	id := atomic.AddUint64(&c.nextID, 1)
	buf, err := json.Marshal(request{ID: id, Method: method, Params: params})
	if err != nil {
		return err
	}

	respChan := make(chan *response, 1)
	c.pendingMtx.Lock()
	c.pending[id] = respChan
	c.pendingMtx.Unlock()

	defer func() {
		c.pendingMtx.Lock()
		delete(c.pending, id)
		c.pendingMtx.Unlock()
	}()

	if err := c.transport.send(buf); err != nil {
		return err
	}

	select {
	case resp := <-respChan:
		if resp.Error != nil {
			return resp.Error
		}
		if result == nil {
			return nil
		}
		return json.Unmarshal(resp.Result, result)
	case <-ctx.Done():
		return ctx.Err()
	case <-c.quit:
		return ErrClientClosed
	}
}

func (c *Client) readLoop() {
	defer c.wg.Done()

	for {
		msg, err := c.transport.recv()
		if err != nil {
			select {
			case <-c.quit:
			default:
				log.WithError(err).Warn(
					"electrum: connection dropped",
				)
				c.shutdown()
			}
			return
		}

		resp := &response{}
		if err := json.Unmarshal(msg, resp); err != nil {
			log.WithError(err).Warn("electrum: skipping malformed message")
			continue
		}

		if resp.Method == headersSubscribeMethod {
			c.handleHeaderNotification(resp.Params)
			continue
		}

		c.pendingMtx.Lock()
		respChan, ok := c.pending[resp.ID]
		c.pendingMtx.Unlock()
		if ok {
			respChan <- resp
		}
	}
}

func (c *Client) handleHeaderNotification(params json.RawMessage) {
	var headers []blockHeader
	if err := json.Unmarshal(params, &headers); err != nil || len(headers) <= 0 {
		log.Warn("electrum: skipping malformed header notification")
		return
	}
	c.setTip(headers[0].Height)
}

func (c *Client) setTip(height int64) {
	c.tipMtx.Lock()
	defer c.tipMtx.Unlock()

	if height > c.tip {
		c.tip = height
	}
}
