package esplora

import (
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/vesper-wallet/vesper/pkg/explorer"
)

type txStatus struct {
	Confirmed   bool  `json:"confirmed"`
	BlockHeight int64 `json:"block_height"`
	BlockTime   int64 `json:"block_time"`
}

type txOutput struct {
	Scriptpubkey        string `json:"scriptpubkey"`
	ScriptpubkeyAddress string `json:"scriptpubkey_address"`
	Value               uint64 `json:"value"`
}

type txInput struct {
	TxID       string    `json:"txid"`
	Vout       uint32    `json:"vout"`
	Prevout    *txOutput `json:"prevout"`
	IsCoinbase bool      `json:"is_coinbase"`
}

type tx struct {
	TxID   string     `json:"txid"`
	Vin    []txInput  `json:"vin"`
	Vout   []txOutput `json:"vout"`
	Status txStatus   `json:"status"`
}

func parseTx(body string) (*tx, error) {
	t := &tx{}
	if err := json.Unmarshal([]byte(body), t); err != nil {
		return nil, err
	}
	return t, nil
}

func parseTxs(body string) ([]tx, error) {
	var txs []tx
	if err := json.Unmarshal([]byte(body), &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// toExplorerTransaction converts the rest representation. Esplora inlines the
// previous output of every input, so no extra lookups are needed, while
// confirmations are derived from the chain tip.
func (t *tx) toExplorerTransaction(
	txHex string, tipHeight int64,
) (*explorer.Transaction, error) {
	ins := make([]explorer.TxInput, 0, len(t.Vin))
	for _, in := range t.Vin {
		if in.IsCoinbase || in.Prevout == nil {
			continue
		}
		ins = append(ins, explorer.TxInput{
			TxID:    in.TxID,
			VOut:    in.Vout,
			Address: in.Prevout.ScriptpubkeyAddress,
			Value:   in.Prevout.Value,
		})
	}

	outs := make([]explorer.TxOutput, 0, len(t.Vout))
	for i, out := range t.Vout {
		script, err := hex.DecodeString(out.Scriptpubkey)
		if err != nil {
			return nil, err
		}
		outs = append(outs, explorer.TxOutput{
			Index:   uint32(i),
			Address: out.ScriptpubkeyAddress,
			Value:   out.Value,
			Script:  script,
		})
	}

	confirmations := int64(0)
	var blockTime time.Time
	if t.Status.Confirmed {
		confirmations = tipHeight - t.Status.BlockHeight + 1
		blockTime = time.Unix(t.Status.BlockTime, 0)
	}

	return &explorer.Transaction{
		TxID:          t.TxID,
		TxHex:         txHex,
		Inputs:        ins,
		Outputs:       outs,
		Confirmations: confirmations,
		BlockTime:     blockTime,
	}, nil
}
