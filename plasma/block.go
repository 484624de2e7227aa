// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package plasma

import (
	"time"

	"github.com/decred/dcrd/chaincfg/chainhash"
)

// TxMerkleHeight is the height of the Merkle tree committing to the
// transactions of a child chain block.
const TxMerkleHeight = 16

// Block is a child chain block as committed to the root chain.
type Block struct {
	// Root is the root of the Merkle tree of the block transactions.
	Root chainhash.Hash

	// Timestamp is when the block was submitted to the root chain.
	Timestamp time.Time
}
