// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package plasma

import (
	"encoding/binary"
	"fmt"
	"math"
)

const (
	// BlockOffset is the multiplier applied to the block number of a packed
	// output position.
	BlockOffset = 1000000000

	// TxOffset is the multiplier applied to the transaction index of a
	// packed output position.
	TxOffset = 10000

	// MaxTxIndex is the largest transaction index that can be packed.
	MaxTxIndex = BlockOffset/TxOffset - 1

	// MaxOutputIndex is the largest output index that can be packed.
	MaxOutputIndex = TxOffset - 1

	// MaxBlockNum is the largest block number that can be packed.
	MaxBlockNum = math.MaxUint64/BlockOffset - 1

	// ChildBlockInterval is the spacing between the numbers of blocks
	// submitted by the child chain operator.  Deposit blocks take the
	// numbers in between.
	ChildBlockInterval = 1000
)

// IsDepositBlock returns whether the passed block number belongs to a
// deposit block.
func IsDepositBlock(blockNum uint64) bool {
	return blockNum%ChildBlockInterval != 0
}

// UtxoPos is the packed position of a transaction output:
//
//	blockNumber * BlockOffset + txIndex * TxOffset + outputIndex
type UtxoPos uint64

// NewUtxoPos packs the passed components into an output position.
func NewUtxoPos(blockNum uint64, txIndex uint32, outputIndex uint16) (UtxoPos, error) {
	if blockNum > MaxBlockNum {
		str := fmt.Sprintf("block number %d exceeds max %d", blockNum,
			uint64(MaxBlockNum))
		return 0, makeError(ErrBlockNumTooLarge, str)
	}
	if txIndex > MaxTxIndex {
		str := fmt.Sprintf("tx index %d exceeds max %d", txIndex, MaxTxIndex)
		return 0, makeError(ErrTxIndexTooLarge, str)
	}
	if outputIndex > MaxOutputIndex {
		str := fmt.Sprintf("output index %d exceeds max %d", outputIndex,
			MaxOutputIndex)
		return 0, makeError(ErrOutputIndexTooLarge, str)
	}
	return UtxoPos(blockNum*BlockOffset + uint64(txIndex)*TxOffset +
		uint64(outputIndex)), nil
}

// BlockNum returns the block number component of the position.
func (p UtxoPos) BlockNum() uint64 {
	return uint64(p) / BlockOffset
}

// TxIndex returns the transaction index component of the position.
func (p UtxoPos) TxIndex() uint32 {
	return uint32((uint64(p) % BlockOffset) / TxOffset)
}

// OutputIndex returns the output index component of the position.
func (p UtxoPos) OutputIndex() uint16 {
	return uint16(uint64(p) % TxOffset)
}

// TxPos returns the position of the transaction that created the output.
func (p UtxoPos) TxPos() TxPos {
	return TxPos(uint64(p) / TxOffset)
}

// IsDeposit returns whether the output was created by a deposit transaction.
func (p UtxoPos) IsDeposit() bool {
	return IsDepositBlock(p.BlockNum())
}

// Bytes returns the big-endian encoding of the position.
func (p UtxoPos) Bytes() []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(p))
	return b[:]
}

// String returns a human-readable form of the position.
func (p UtxoPos) String() string {
	return fmt.Sprintf("%d (blknum %d, txindex %d, oindex %d)", uint64(p),
		p.BlockNum(), p.TxIndex(), p.OutputIndex())
}

// TxPos is the packed position of a transaction:
//
//	blockNumber * (BlockOffset / TxOffset) + txIndex
type TxPos uint64

// BlockNum returns the block number component of the position.
func (p TxPos) BlockNum() uint64 {
	return uint64(p) / (BlockOffset / TxOffset)
}

// TxIndex returns the transaction index component of the position.
func (p TxPos) TxIndex() uint32 {
	return uint32(uint64(p) % (BlockOffset / TxOffset))
}

// UtxoPos returns the position of the output with the given index of the
// transaction at this position.
func (p TxPos) UtxoPos(outputIndex uint16) UtxoPos {
	return UtxoPos(uint64(p)*TxOffset + uint64(outputIndex))
}
