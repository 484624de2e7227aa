// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package txfinality decides whether child chain transactions are finalized.
//
// A transaction is standard finalized when it is proven to be included in a
// submitted block at a claimed position.  It is protocol finalized when it
// exists at all, which is all the in-flight exit game needs to reason about
// it.  Only the MoreVP protocol is supported.  MVP finalization requires
// confirmation signatures and every check for it fails with
// ErrMVPNotSupported.
package txfinality

import (
	"fmt"

	"github.com/plasma-network/exitgame/merkle"
	"github.com/plasma-network/exitgame/plasma"
)

// Protocol identifies the finalization rules of a transaction type.
type Protocol uint8

// These constants define the supported protocols.
const (
	ProtocolMVP Protocol = iota + 1
	ProtocolMoreVP
)

// protocolStrings is a map of protocols back to their constant names for
// pretty printing.
var protocolStrings = map[Protocol]string{
	ProtocolMVP:    "MVP",
	ProtocolMoreVP: "MoreVP",
}

// String returns the Protocol in human-readable form.
func (p Protocol) String() string {
	if s, ok := protocolStrings[p]; ok {
		return s
	}
	return fmt.Sprintf("Unknown Protocol (%d)", uint8(p))
}

// BlockSource provides the submitted child chain blocks.
type BlockSource interface {
	// FetchBlock returns the block with the passed number or nil when no
	// block with that number was submitted.
	FetchBlock(blockNum uint64) (*plasma.Block, error)
}

// Data houses everything needed to decide whether a transaction is
// finalized.
type Data struct {
	Protocol       Protocol
	TxBytes        []byte
	TxPos          plasma.TxPos
	InclusionProof []byte

	// ConfirmSig and ConfirmSigAddress are only meaningful under MVP.
	ConfirmSig        []byte
	ConfirmSigAddress plasma.Address
}

// Verifier checks transaction finalization against submitted blocks.
type Verifier struct {
	blocks BlockSource
}

// New returns a verifier that reads blocks from the passed source.
func New(blocks BlockSource) *Verifier {
	return &Verifier{blocks: blocks}
}

// checkProtocol returns an error for any protocol other than MoreVP.
func checkProtocol(p Protocol) error {
	switch p {
	case ProtocolMoreVP:
		return nil
	case ProtocolMVP:
		return makeError(ErrMVPNotSupported, "MVP not supported")
	}
	str := fmt.Sprintf("unknown protocol %v", p)
	return makeError(ErrUnknownProtocol, str)
}

// IsStandardFinalized returns whether the transaction is included in the
// block and at the index its position claims, as shown by the inclusion
// proof.  An empty proof is never finalized.
func (v *Verifier) IsStandardFinalized(data *Data) (bool, error) {
	if err := checkProtocol(data.Protocol); err != nil {
		return false, err
	}
	if len(data.InclusionProof) == 0 {
		return false, nil
	}

	const proofSize = plasma.TxMerkleHeight * merkle.HashSize
	if len(data.InclusionProof)%merkle.HashSize == 0 &&
		len(data.InclusionProof) != proofSize {

		str := fmt.Sprintf("inclusion proof is %d bytes, want %d",
			len(data.InclusionProof), proofSize)
		return false, makeError(ErrProofHeight, str)
	}

	blockNum := data.TxPos.BlockNum()
	block, err := v.blocks.FetchBlock(blockNum)
	if err != nil {
		return false, err
	}
	if block == nil {
		str := fmt.Sprintf("block %d has not been submitted", blockNum)
		return false, makeError(ErrBlockNotFound, str)
	}

	return merkle.CheckMembership(data.TxBytes, uint64(data.TxPos.TxIndex()),
		&block.Root, data.InclusionProof)
}

// IsProtocolFinalized returns whether the transaction exists.  Under MoreVP
// any non-empty transaction does.
func (v *Verifier) IsProtocolFinalized(data *Data) (bool, error) {
	if err := checkProtocol(data.Protocol); err != nil {
		return false, err
	}
	return len(data.TxBytes) > 0, nil
}
