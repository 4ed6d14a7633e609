package wallet

// Script type classes used by the transaction size model.
const (
	P2PKH = iota
	P2SH_P2WPKH
	P2WPKH
	P2WSH
	P2TR
)

var (
	// scriptSigSizeByScriptType holds the serialized scriptSig size per
	// input class, including the length prefix.
	scriptSigSizeByScriptType = map[int]int{
		P2PKH:       108, // len + opcode + sig(72) + opcode + pubkey(33)
		P2SH_P2WPKH: 24,  // len + push of the P2WPKH witness program
		P2WPKH:      1,   // no scriptsig, still len is serialized
		P2WSH:       1,   // no scriptsig
		P2TR:        1,   // no scriptsig
	}
	// witnessSizeByScriptType holds the witness stack size per input class.
	witnessSizeByScriptType = map[int]int{
		P2PKH:       0,
		P2SH_P2WPKH: 107, // items + sig(1+72) + pubkey(1+33)
		P2WPKH:      107,
		P2WSH:       107, // single-sig witness script, conservative
		P2TR:        66,  // items + schnorr sig(1+65)
	}
	// scriptPubKeySizeByScriptType holds the serialized output script size
	// per output class, including the length prefix.
	scriptPubKeySizeByScriptType = map[int]int{
		P2PKH:       26, // len + opcodes (3) + hash(pubkey) + opcodes (2)
		P2SH_P2WPKH: 24, // len + opcodes (2) + hash(script) + opcode
		P2WPKH:      23, // len + version + hash(pubkey)
		P2WSH:       35, // len + version + hash(script)
		P2TR:        35, // len + version + x-only pubkey
	}
)

// EstimateTxSize estimates the virtual size of a transaction given the size
// classes of its inputs and outputs (P2PKH, P2SH(P2WPKH), P2WPKH, P2WSH,
// P2TR). The estimate errs on the large side, a signature is always counted
// at its maximum encoding.
func EstimateTxSize(inScriptTypes, outScriptTypes []int) int {
	baseSize := calcTxSize(false, inScriptTypes, outScriptTypes)
	totalSize := calcTxSize(true, inScriptTypes, outScriptTypes)

	weight := baseSize*3 + totalSize
	vsize := (weight + 3) / 4

	return vsize
}

// EstimateFeeAmount converts the estimated virtual size of a transaction to
// a fee in satoshis for the given rate in sat/vByte.
func EstimateFeeAmount(
	inScriptTypes, outScriptTypes []int, satsPerVByte uint64,
) uint64 {
	return uint64(EstimateTxSize(inScriptTypes, outScriptTypes)) * satsPerVByte
}

func calcTxSize(withWitness bool, inScriptTypes, outScriptTypes []int) int {
	txSize := calcTxBaseSize(inScriptTypes, outScriptTypes)
	if withWitness && anyWitnessInput(inScriptTypes) {
		// segwit marker and flag
		txSize += 2
		txSize += calcTxWitnessSize(inScriptTypes)
	}
	return txSize
}

func calcTxBaseSize(inScriptTypes, outScriptTypes []int) int {
	// hash + index + sequence
	inBaseSize := 40
	insSize := 0
	for _, scriptType := range inScriptTypes {
		insSize += inBaseSize + scriptSigSizeByScriptType[scriptType]
	}

	// value
	outBaseSize := 8
	outsSize := 0
	for _, scriptType := range outScriptTypes {
		outsSize += outBaseSize + scriptPubKeySizeByScriptType[scriptType]
	}

	// version + locktime
	return 8 +
		varIntSerializeSize(uint64(len(inScriptTypes))) +
		varIntSerializeSize(uint64(len(outScriptTypes))) +
		insSize + outsSize
}

func calcTxWitnessSize(inScriptTypes []int) int {
	size := 0
	for _, scriptType := range inScriptTypes {
		witnessSize := witnessSizeByScriptType[scriptType]
		if witnessSize == 0 {
			// non-witness inputs still serialize an empty witness stack
			witnessSize = 1
		}
		size += witnessSize
	}
	return size
}

func anyWitnessInput(inScriptTypes []int) bool {
	for _, scriptType := range inScriptTypes {
		if witnessSizeByScriptType[scriptType] > 0 {
			return true
		}
	}
	return false
}
