package electrum

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testHandler answers one decoded request. A nil result with a non-nil error
// produces a JSON-RPC error response.
type testHandler func(method string, params []interface{}) (interface{}, *serverError)

// newTestClient wires a client to an in-memory server that answers every
// request through the given handler. The returned send function pushes a raw
// notification to the client.
func newTestClient(t *testing.T, handler testHandler) (*Client, func(msg string)) {
	t.Helper()

	clientConn, serverConn := net.Pipe()

	go func() {
		reader := bufio.NewReader(serverConn)
		for {
			line, err := reader.ReadBytes('\n')
			if err != nil {
				return
			}

			var req request
			if err := json.Unmarshal(line, &req); err != nil {
				continue
			}

			resp := map[string]interface{}{"id": req.ID}
			result, srvErr := handler(req.Method, req.Params)
			if srvErr != nil {
				resp["error"] = srvErr
			} else {
				resp["result"] = result
			}
			buf, err := json.Marshal(resp)
			if err != nil {
				return
			}
			if _, err := serverConn.Write(append(buf, '\n')); err != nil {
				return
			}
		}
	}()

	client := newClient(newLineTransport(clientConn))
	t.Cleanup(func() {
		client.Close()
		serverConn.Close()
	})

	notify := func(msg string) {
		_, err := serverConn.Write(append([]byte(msg), '\n'))
		require.NoError(t, err)
	}
	return client, notify
}

func TestClientCall(t *testing.T) {
	client, _ := newTestClient(t, func(
		method string, params []interface{},
	) (interface{}, *serverError) {
		require.Equal(t, "blockchain.scripthash.get_history", method)
		require.Len(t, params, 1)
		return []map[string]interface{}{
			{"tx_hash": "aa11", "height": 100},
			{"tx_hash": "bb22", "height": 0},
		}, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	history, err := client.GetHistory(ctx, "deadbeef")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "aa11", history[0].TxHash)
	assert.Equal(t, int64(100), history[0].Height)
	assert.Equal(t, int64(0), history[1].Height)
}

func TestClientServerError(t *testing.T) {
	client, _ := newTestClient(t, func(
		method string, params []interface{},
	) (interface{}, *serverError) {
		return nil, &serverError{Code: 2, Message: "daemon error"}
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := client.BroadcastTx(ctx, "deadbeef")
	require.Error(t, err)

	var srvErr *serverError
	require.ErrorAs(t, err, &srvErr)
	assert.Equal(t, "daemon error", srvErr.Message)
}

func TestClientHeaderNotifications(t *testing.T) {
	client, notify := newTestClient(t, func(
		method string, params []interface{},
	) (interface{}, *serverError) {
		require.Equal(t, headersSubscribeMethod, method)
		return map[string]interface{}{"height": 800000, "hex": "00"}, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	tip, err := client.SubscribeHeaders(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(800000), tip)
	require.Equal(t, int64(800000), client.TipHeight())

	notify(`{"method": "blockchain.headers.subscribe", "params": [{"height": 800001, "hex": "00"}]}`)

	assert.Eventually(t, func() bool {
		return client.TipHeight() == 800001
	}, time.Second, 10*time.Millisecond)

	// a stale notification never rolls the tip back
	notify(`{"method": "blockchain.headers.subscribe", "params": [{"height": 799999, "hex": "00"}]}`)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(800001), client.TipHeight())
}

func TestClientCallAfterClose(t *testing.T) {
	client, _ := newTestClient(t, func(
		method string, params []interface{},
	) (interface{}, *serverError) {
		return nil, nil
	})
	require.NoError(t, client.Close())

	err := client.Ping(context.Background())
	assert.ErrorIs(t, err, ErrClientClosed)
}

func TestScripthashFromScript(t *testing.T) {
	// P2PKH locking script of 1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa
	script := []byte{
		0x76, 0xa9, 0x14,
		0x62, 0xe9, 0x07, 0xb1, 0x5c, 0xbf, 0x27, 0xd5, 0x42, 0x53,
		0x99, 0xeb, 0xf6, 0xf0, 0xfb, 0x50, 0xeb, 0xb8, 0x8f, 0x18,
		0x88, 0xac,
	}
	assert.Equal(
		t,
		"8b01df4e368ea28f8dc0423bcf7a4923e3a12d307c875e47a0cfbf90b5c39161",
		ScripthashFromScript(script),
	)
}
