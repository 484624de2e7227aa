// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package plasma

import (
	"encoding/binary"

	"github.com/decred/dcrd/chaincfg/chainhash"
)

// outputIndexBytes returns the big-endian encoding of an output index.
func outputIndexBytes(outputIndex uint16) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], outputIndex)
	return b[:]
}

// NormalOutputID returns the identifier of an output of a non-deposit
// transaction.  Non-deposit transactions always spend at least one unique
// input, so their bytes alone are unique.
func NormalOutputID(txBytes []byte, outputIndex uint16) chainhash.Hash {
	return Keccak256(txBytes, outputIndexBytes(outputIndex))
}

// DepositOutputID returns the identifier of the output of a deposit
// transaction.  Two deposits may encode to identical bytes, so the position
// is bound into the identifier as well.
func DepositOutputID(txBytes []byte, outputIndex uint16, utxoPos UtxoPos) chainhash.Hash {
	return Keccak256(txBytes, outputIndexBytes(outputIndex), utxoPos.Bytes())
}

// OutputID returns the identifier of the output at the passed position of
// the transaction encoded by txBytes.
func OutputID(txBytes []byte, utxoPos UtxoPos) chainhash.Hash {
	if utxoPos.IsDeposit() {
		return DepositOutputID(txBytes, utxoPos.OutputIndex(), utxoPos)
	}
	return NormalOutputID(txBytes, utxoPos.OutputIndex())
}
