package wallet

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/vesper-wallet/vesper/pkg/explorer"
)

const (
	// DefaultMinConfirmations is the number of confirmations an unspent
	// needs before it is eligible for selection.
	DefaultMinConfirmations = 2
)

// InsufficientFundsError is returned when the eligible unspents do not cover
// amount plus fee. It carries the missing amount so that callers can report
// it.
type InsufficientFundsError struct {
	Shortfall uint64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf(
		"insufficient funds: missing %d satoshis to cover amount plus fee",
		e.Shortfall,
	)
}

// CreateTxOpts is the struct given to CreateTx method
type CreateTxOpts struct {
	Unspents         []explorer.Utxo
	RecipientAddress string
	AmountSats       uint64
	SatsPerVByte     uint64
	ChangeAddress    string
	// MinConfirmations defaults to DefaultMinConfirmations when zero.
	MinConfirmations int64
	Network          *chaincfg.Params
}

func (o CreateTxOpts) validate() error {
	if o.Network == nil {
		return ErrNullNetwork
	}
	// recipient validation happens before anything else, no unspent is
	// touched for an unpayable destination
	if _, err := OutputScriptForAddress(o.RecipientAddress, o.Network); err != nil {
		return ErrInvalidRecipientAddress
	}
	if o.AmountSats < DustThreshold {
		return ErrDustAmount
	}
	if o.SatsPerVByte == 0 {
		return ErrZeroFeeRate
	}
	if len(o.ChangeAddress) <= 0 {
		return ErrNullChangeAddress
	}
	if _, err := OutputScriptForAddress(o.ChangeAddress, o.Network); err != nil {
		return ErrInvalidChangeAddress
	}
	return nil
}

// CreateTxResult is the result of a CreateTx call
type CreateTxResult struct {
	UnsignedTx       *wire.MsgTx
	SelectedUnspents []explorer.Utxo
	FeeAmount        uint64
	ChangeAmount     uint64
}

// CreateTx selects eligible unspents and assembles the unsigned transaction
// paying AmountSats to the recipient. Unspents are accumulated until they
// cover amount plus the estimated fee; any leftover above the dust threshold
// goes to the change address, a sub-dust leftover is folded into the fee and
// no change output is emitted.
func (w *Wallet) CreateTx(opts CreateTxOpts) (*CreateTxResult, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if err := w.validate(); err != nil {
		return nil, err
	}

	recipientScript, _ := OutputScriptForAddress(opts.RecipientAddress, opts.Network)
	changeScript, _ := OutputScriptForAddress(opts.ChangeAddress, opts.Network)

	outTypes, err := scriptTypes([][]byte{recipientScript, changeScript})
	if err != nil {
		return nil, err
	}

	minConfirmations := opts.MinConfirmations
	if minConfirmations == 0 {
		minConfirmations = DefaultMinConfirmations
	}

	eligible := make([]explorer.Utxo, 0, len(opts.Unspents))
	for _, u := range opts.Unspents {
		if u.Confirmations >= minConfirmations && u.Value > 0 {
			eligible = append(eligible, u)
		}
	}

	selected, fee, change, err := selectUnspents(
		eligible, opts.AmountSats, opts.SatsPerVByte, outTypes,
	)
	if err != nil {
		return nil, err
	}

	unsignedTx := wire.NewMsgTx(wire.TxVersion)
	for _, u := range selected {
		prevHash, err := chainhash.NewHashFromStr(u.TxID)
		if err != nil {
			return nil, err
		}
		outpoint := wire.NewOutPoint(prevHash, u.VOut)
		unsignedTx.AddTxIn(wire.NewTxIn(outpoint, nil, nil))
	}
	unsignedTx.AddTxOut(wire.NewTxOut(int64(opts.AmountSats), recipientScript))
	if change > 0 {
		unsignedTx.AddTxOut(wire.NewTxOut(int64(change), changeScript))
	}

	return &CreateTxResult{
		UnsignedTx:       unsignedTx,
		SelectedUnspents: selected,
		FeeAmount:        fee,
		ChangeAmount:     change,
	}, nil
}

// selectUnspents accumulates unspents until they cover target plus the fee
// estimated for the inputs selected so far. outTypes holds the classes of
// the recipient and change outputs, in that order.
func selectUnspents(
	unspents []explorer.Utxo,
	target, satsPerVByte uint64,
	outTypes []int,
) ([]explorer.Utxo, uint64, uint64, error) {
	selected := make([]explorer.Utxo, 0, len(unspents))
	inTypes := make([]int, 0, len(unspents))
	totalValue := uint64(0)

	for _, u := range unspents {
		inType, err := scriptTypeForScript(u.Script)
		if err != nil {
			return nil, 0, 0, err
		}
		selected = append(selected, u)
		inTypes = append(inTypes, inType)
		totalValue += u.Value

		feeWithChange := EstimateFeeAmount(inTypes, outTypes, satsPerVByte)
		if totalValue >= target+feeWithChange {
			change := totalValue - target - feeWithChange
			if change < DustThreshold {
				// sub-dust leftover goes to the miners
				return selected, totalValue - target, 0, nil
			}
			return selected, feeWithChange, change, nil
		}
	}

	// the whole eligible set does not cover amount plus the fee of a
	// change-bearing transaction; it may still cover a transaction without
	// a change output
	if len(selected) > 0 {
		feeNoChange := EstimateFeeAmount(inTypes, outTypes[:1], satsPerVByte)
		if totalValue >= target+feeNoChange {
			return selected, totalValue - target, 0, nil
		}
	}

	shortfall := target - totalValue
	if len(selected) > 0 {
		shortfall += EstimateFeeAmount(inTypes, outTypes, satsPerVByte)
	}
	return nil, 0, 0, &InsufficientFundsError{Shortfall: shortfall}
}

func scriptTypes(scripts [][]byte) ([]int, error) {
	types := make([]int, 0, len(scripts))
	for _, script := range scripts {
		t, err := scriptTypeForScript(script)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}

// SerializeTx returns the hex encoding of a transaction, witness included
// when present.
func SerializeTx(tx *wire.MsgTx) (string, error) {
	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf.Bytes()), nil
}
