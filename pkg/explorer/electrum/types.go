package electrum

import (
	"encoding/hex"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/vesper-wallet/vesper/pkg/explorer"
)

// transactionInfo is the verbose form of blockchain.transaction.get, the
// format the server inherits from the bitcoind getrawtransaction RPC.
type transactionInfo struct {
	TxID          string       `json:"txid"`
	Hex           string       `json:"hex"`
	Confirmations int64        `json:"confirmations"`
	BlockTime     int64        `json:"blocktime"`
	Vin           []inputInfo  `json:"vin"`
	Vout          []outputInfo `json:"vout"`
}

type inputInfo struct {
	TxID     string `json:"txid"`
	Vout     uint32 `json:"vout"`
	Coinbase string `json:"coinbase"`
}

type outputInfo struct {
	Value        float64 `json:"value"`
	N            uint32  `json:"n"`
	ScriptPubKey struct {
		Hex       string   `json:"hex"`
		Address   string   `json:"address"`
		Addresses []string `json:"addresses"`
	} `json:"scriptPubKey"`
}

func (o outputInfo) address() string {
	if len(o.ScriptPubKey.Address) > 0 {
		return o.ScriptPubKey.Address
	}
	if len(o.ScriptPubKey.Addresses) > 0 {
		return o.ScriptPubKey.Addresses[0]
	}
	return ""
}

func (o outputInfo) amount() (uint64, error) {
	amount, err := btcutil.NewAmount(o.Value)
	if err != nil {
		return 0, err
	}
	return uint64(amount), nil
}

func (t *transactionInfo) toExplorerTransaction() (*explorer.Transaction, error) {
	outs := make([]explorer.TxOutput, 0, len(t.Vout))
	for _, out := range t.Vout {
		value, err := out.amount()
		if err != nil {
			return nil, err
		}
		script, err := hex.DecodeString(out.ScriptPubKey.Hex)
		if err != nil {
			return nil, err
		}
		outs = append(outs, explorer.TxOutput{
			Index:   out.N,
			Address: out.address(),
			Value:   value,
			Script:  script,
		})
	}

	var blockTime time.Time
	if t.BlockTime > 0 {
		blockTime = time.Unix(t.BlockTime, 0)
	}

	return &explorer.Transaction{
		TxID:          t.TxID,
		TxHex:         t.Hex,
		Outputs:       outs,
		Confirmations: t.Confirmations,
		BlockTime:     blockTime,
	}, nil
}
