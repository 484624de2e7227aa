// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package framework

import (
	"fmt"

	"github.com/decred/dcrd/math/uint256"
	"github.com/plasma-network/exitgame/exitid"
	"github.com/plasma-network/exitgame/plasma"
)

// An exit priority is laid out from the most to the least significant bit as
//
//	| exitable at (42 bits) | tx position (46 bits) | exit id (168 bits) |
//
// so that exits are ordered by maturity, then by the age of the exiting
// transaction and finally by exit id.
const (
	exitIDBits     = exitid.Bits
	txPosBits      = 46
	exitableAtBits = 256 - txPosBits - exitIDBits

	// MaxExitableAt is the largest exitable time, in seconds since the
	// epoch, that fits in a priority.
	MaxExitableAt = 1<<exitableAtBits - 1

	// MaxTxPos is the largest transaction position that fits in a
	// priority.
	MaxTxPos = 1<<txPosBits - 1
)

// ComputePriority returns the priority of an exit that becomes exitable at
// the passed time in seconds since the epoch.
func ComputePriority(exitableAt uint64, txPos plasma.TxPos, exitID *uint256.Uint256) (uint256.Uint256, error) {
	if exitableAt > MaxExitableAt {
		str := fmt.Sprintf("exitable time %d exceeds max %d", exitableAt,
			uint64(MaxExitableAt))
		return uint256.Uint256{}, ruleError(ErrExitableAtTooLarge, str)
	}
	if uint64(txPos) > MaxTxPos {
		str := fmt.Sprintf("tx position %d exceeds max %d", uint64(txPos),
			uint64(MaxTxPos))
		return uint256.Uint256{}, ruleError(ErrTxPosTooLarge, str)
	}
	if !exitid.IsValid(exitID) {
		str := fmt.Sprintf("exit id %x exceeds %d bits", exitID.Bytes(),
			exitIDBits)
		return uint256.Uint256{}, ruleError(ErrExitIDTooLarge, str)
	}

	var priority uint256.Uint256
	priority.SetUint64(exitableAt)
	priority.Lsh(txPosBits)
	priority.Or(new(uint256.Uint256).SetUint64(uint64(txPos)))
	priority.Lsh(exitIDBits)
	priority.Or(exitID)
	return priority, nil
}

// ParseExitableAt returns the exitable time encoded in the passed priority.
func ParseExitableAt(priority *uint256.Uint256) uint64 {
	return new(uint256.Uint256).RshVal(priority, txPosBits+exitIDBits).Uint64()
}

// ParseTxPos returns the transaction position encoded in the passed
// priority.
func ParseTxPos(priority *uint256.Uint256) plasma.TxPos {
	v := new(uint256.Uint256).RshVal(priority, exitIDBits).Uint64()
	return plasma.TxPos(v & MaxTxPos)
}

// ParseExitID returns the exit id encoded in the passed priority.
func ParseExitID(priority *uint256.Uint256) uint256.Uint256 {
	high := new(uint256.Uint256).RshVal(priority, exitIDBits)
	high.Lsh(exitIDBits)
	var id uint256.Uint256
	id.Set(priority)
	id.Sub(high)
	return id
}
