// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package exitid derives the identifiers of standard and in-flight exits.
//
// Exit ids are 168-bit values derived from the keccak256 hash of the exiting
// transaction.  The most significant bit is clear for standard exits and set
// for in-flight exits, so ids of the two kinds never collide.
package exitid

import (
	"github.com/decred/dcrd/math/uint256"
	"github.com/plasma-network/exitgame/plasma"
)

const (
	// Bits is the size of an exit id in bits.
	Bits = 168

	// hashShift drops the low bits of a 256-bit hash so that it fits in
	// the bits of an exit id below the kind flag.
	hashShift = 256 - (Bits - 1)

	// inFlightFlagBit is the bit that is set for in-flight exit ids.
	inFlightFlagBit = Bits - 1
)

// truncatedHash returns the passed hash reduced to the bits of an exit id
// below the kind flag.
func truncatedHash(data ...[]byte) uint256.Uint256 {
	hash := plasma.Keccak256(data...)
	var n uint256.Uint256
	n.SetBytes((*[32]byte)(&hash))
	n.Rsh(hashShift)
	return n
}

// Standard returns the id of a standard exit of the output at the passed
// position of the passed serialized transaction.
//
// Deposit transactions also commit to the position since two deposits of
// the same amount by the same owner serialize identically.  The output index
// is mixed in so every output of a transaction has its own id.
func Standard(isDeposit bool, txBytes []byte, utxoPos plasma.UtxoPos) uint256.Uint256 {
	var id uint256.Uint256
	if isDeposit {
		id = truncatedHash(txBytes, utxoPos.Bytes())
	} else {
		id = truncatedHash(txBytes)
	}
	outputIndex := new(uint256.Uint256).SetUint64(uint64(utxoPos.OutputIndex()))
	id.Xor(outputIndex)
	return id
}

// InFlight returns the id of an in-flight exit of the passed serialized
// transaction.
func InFlight(txBytes []byte) uint256.Uint256 {
	id := truncatedHash(txBytes)
	flag := new(uint256.Uint256).SetUint64(1)
	flag.Lsh(inFlightFlagBit)
	id.Or(flag)
	return id
}

// IsInFlight returns whether the passed exit id is the id of an in-flight
// exit.
func IsInFlight(id *uint256.Uint256) bool {
	return new(uint256.Uint256).RshVal(id, inFlightFlagBit).Uint64()&1 == 1
}

// IsValid returns whether the passed value fits in an exit id.
func IsValid(id *uint256.Uint256) bool {
	return new(uint256.Uint256).RshVal(id, Bits).IsZero()
}
