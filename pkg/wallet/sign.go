package wallet

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/vesper-wallet/vesper/pkg/explorer"
)

// SignTransactionOpts is the struct given to SignTransaction method
type SignTransactionOpts struct {
	UnsignedTx *wire.MsgTx
	// Unspents are the previous outputs consumed by the transaction
	// inputs.
	Unspents []explorer.Utxo
	// DerivationPathMap maps the hex encoding of a locking script to the
	// derivation path of the key that controls it.
	DerivationPathMap map[string]string
	Network           *chaincfg.Params
}

func (o SignTransactionOpts) validate() error {
	if o.UnsignedTx == nil || len(o.UnsignedTx.TxIn) <= 0 {
		return fmt.Errorf("unsigned transaction must contain inputs")
	}
	if o.Network == nil {
		return ErrNullNetwork
	}
	if len(o.DerivationPathMap) <= 0 {
		return ErrEmptyDerivationPaths
	}
	if len(o.Unspents) < len(o.UnsignedTx.TxIn) {
		return ErrEmptyUnspents
	}

	for script, path := range o.DerivationPathMap {
		derivationPath, err := ParseDerivationPath(path)
		if err != nil {
			return fmt.Errorf(
				"invalid derivation path '%s' for script '%s': %v",
				path, script, err,
			)
		}
		if err := checkDerivationPath(derivationPath); err != nil {
			return fmt.Errorf(
				"invalid derivation path '%s' for script '%s': %v",
				path, script, err,
			)
		}
	}
	return nil
}

// SignTransactionResult is the result of a SignTransaction call
type SignTransactionResult struct {
	SignedTx *wire.MsgTx
	TxHex    string
	TxID     string
}

// SignTransaction signs every input of the transaction by re-deriving the
// private key for the input's previous output script through the
// DerivationPathMap. A derived key that does not match the locking script
// aborts the whole operation with ErrKeyMismatch, inputs are never skipped.
func (w *Wallet) SignTransaction(opts SignTransactionOpts) (*SignTransactionResult, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if err := w.validate(); err != nil {
		return nil, err
	}

	tx := opts.UnsignedTx.Copy()

	prevOuts := make(map[wire.OutPoint]*wire.TxOut, len(opts.Unspents))
	for _, u := range opts.Unspents {
		prevHash, err := chainhash.NewHashFromStr(u.TxID)
		if err != nil {
			return nil, err
		}
		prevOuts[wire.OutPoint{Hash: *prevHash, Index: u.VOut}] = wire.NewTxOut(
			int64(u.Value), u.Script,
		)
	}

	fetcher := txscript.NewMultiPrevOutFetcher(prevOuts)
	sigHashes := txscript.NewTxSigHashes(tx, fetcher)

	for i, in := range tx.TxIn {
		prevOut := prevOuts[in.PreviousOutPoint]
		if prevOut == nil {
			return nil, fmt.Errorf(
				"previous output not found for input %d", i,
			)
		}

		path, ok := opts.DerivationPathMap[hex.EncodeToString(prevOut.PkScript)]
		if !ok {
			return nil, fmt.Errorf(
				"derivation path not found in map for input %d", i,
			)
		}

		if err := w.signInput(tx, i, prevOut, path, sigHashes, opts.Network); err != nil {
			return nil, err
		}

		// run the input through the script engine, a signature this
		// wallet cannot verify never leaves it
		vm, err := txscript.NewEngine(
			prevOut.PkScript, tx, i, txscript.StandardVerifyFlags,
			nil, sigHashes, prevOut.Value, fetcher,
		)
		if err != nil {
			return nil, err
		}
		if err := vm.Execute(); err != nil {
			return nil, fmt.Errorf(
				"signature verification failed for input %d: %v", i, err,
			)
		}
	}

	txHex, err := SerializeTx(tx)
	if err != nil {
		return nil, err
	}

	return &SignTransactionResult{
		SignedTx: tx,
		TxHex:    txHex,
		TxID:     tx.TxHash().String(),
	}, nil
}

func (w *Wallet) signInput(
	tx *wire.MsgTx,
	inIndex int,
	prevOut *wire.TxOut,
	derivationPath string,
	sigHashes *txscript.TxSigHashes,
	net *chaincfg.Params,
) error {
	prvkey, pubkey, err := w.DeriveSigningKeyPair(DeriveSigningKeyPairOpts{
		DerivationPath: derivationPath,
	})
	if err != nil {
		return err
	}
	pubkeyHash := btcutil.Hash160(pubkey.SerializeCompressed())

	switch txscript.GetScriptClass(prevOut.PkScript) {
	case txscript.WitnessV0PubKeyHashTy:
		if !bytes.Equal(prevOut.PkScript[2:22], pubkeyHash) {
			return ErrKeyMismatch
		}
		witness, err := txscript.WitnessSignature(
			tx, sigHashes, inIndex, prevOut.Value, prevOut.PkScript,
			txscript.SigHashAll, prvkey, true,
		)
		if err != nil {
			return err
		}
		tx.TxIn[inIndex].Witness = witness

	case txscript.PubKeyHashTy:
		if !bytes.Equal(prevOut.PkScript[3:23], pubkeyHash) {
			return ErrKeyMismatch
		}
		sigScript, err := txscript.SignatureScript(
			tx, inIndex, prevOut.PkScript, txscript.SigHashAll, prvkey, true,
		)
		if err != nil {
			return err
		}
		tx.TxIn[inIndex].SignatureScript = sigScript

	case txscript.ScriptHashTy:
		// the only nested script this wallet produces is P2SH-P2WPKH
		witnessProg, err := btcutil.NewAddressWitnessPubKeyHash(pubkeyHash, net)
		if err != nil {
			return err
		}
		redeemScript, err := txscript.PayToAddrScript(witnessProg)
		if err != nil {
			return err
		}
		if !bytes.Equal(prevOut.PkScript[2:22], btcutil.Hash160(redeemScript)) {
			return ErrKeyMismatch
		}
		witness, err := txscript.WitnessSignature(
			tx, sigHashes, inIndex, prevOut.Value, redeemScript,
			txscript.SigHashAll, prvkey, true,
		)
		if err != nil {
			return err
		}
		tx.TxIn[inIndex].Witness = witness
		sigScript, err := txscript.NewScriptBuilder().
			AddData(redeemScript).Script()
		if err != nil {
			return err
		}
		tx.TxIn[inIndex].SignatureScript = sigScript

	default:
		return ErrUnsupportedScript
	}

	return nil
}
