// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package merkle

import (
	"fmt"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/plasma-network/exitgame/plasma"
)

const (
	// HashSize is the size of every hash in the tree and of every element
	// of an inclusion proof.
	HashSize = chainhash.HashSize

	// MaxHeight is the highest tree supported.  Leaf indices are 64-bit.
	MaxHeight = 63
)

// nullSubtrees houses the root of a subtree made up only of null leaves for
// every height up to and including MaxHeight.  nullSubtrees[0] is the null
// leaf hash.
var nullSubtrees = func() [MaxHeight + 1]chainhash.Hash {
	var hashes [MaxHeight + 1]chainhash.Hash
	hashes[0] = plasma.Keccak256(make([]byte, HashSize))
	for i := 1; i <= MaxHeight; i++ {
		hashes[i] = hashNodes(&hashes[i-1], &hashes[i-1])
	}
	return hashes
}()

// NullLeafHash returns the hash used for leaf slots that hold no data.
func NullLeafHash() chainhash.Hash {
	return nullSubtrees[0]
}

// LeafHash returns the hash of the passed leaf data.
func LeafHash(leaf []byte) chainhash.Hash {
	return plasma.Keccak256(leaf)
}

// hashNodes returns the hash of an internal node given its two children.
func hashNodes(left, right *chainhash.Hash) chainhash.Hash {
	return plasma.Keccak256(left[:], right[:])
}

// Tree is a fixed-height Merkle tree padded with null leaves.
type Tree struct {
	height uint8

	// levels houses the materialized nodes of each level.  levels[0] are
	// the hashed leaves and levels[height] holds only the root.
	levels [][]chainhash.Hash
}

// NewTree builds a tree of the given height over the passed leaves.  The
// leaves occupy indices [0, len(leaves)) and the rest of the tree is padded
// with null leaves.
func NewTree(leaves [][]byte, height uint8) (*Tree, error) {
	if height == 0 || height > MaxHeight {
		str := fmt.Sprintf("tree height %d is not in the range [1, %d]",
			height, MaxHeight)
		return nil, makeError(ErrInvalidHeight, str)
	}
	if uint64(len(leaves)) > uint64(1)<<height {
		str := fmt.Sprintf("%d leaves do not fit in a tree of height %d",
			len(leaves), height)
		return nil, makeError(ErrTooManyLeaves, str)
	}

	levels := make([][]chainhash.Hash, 0, int(height)+1)
	level := make([]chainhash.Hash, 0, len(leaves))
	for _, leaf := range leaves {
		level = append(level, LeafHash(leaf))
	}
	levels = append(levels, level)

	for h := uint8(0); h < height; h++ {
		prev := levels[h]
		next := make([]chainhash.Hash, 0, (len(prev)+1)/2)
		for i := 0; i < len(prev); i += 2 {
			right := &nullSubtrees[h]
			if i+1 < len(prev) {
				right = &prev[i+1]
			}
			next = append(next, hashNodes(&prev[i], right))
		}
		levels = append(levels, next)
	}

	return &Tree{height: height, levels: levels}, nil
}

// Height returns the height of the tree.
func (t *Tree) Height() uint8 {
	return t.height
}

// nodeAt returns the node at the passed index of the passed level, falling
// back to the null subtree hash for that level when it is not materialized.
func (t *Tree) nodeAt(level uint8, index uint64) *chainhash.Hash {
	nodes := t.levels[level]
	if index < uint64(len(nodes)) {
		return &nodes[index]
	}
	return &nullSubtrees[level]
}

// Root returns the root of the tree.
func (t *Tree) Root() chainhash.Hash {
	return *t.nodeAt(t.height, 0)
}

// Proof returns the inclusion proof for the leaf at the passed index.
func (t *Tree) Proof(index uint64) ([]byte, error) {
	if index >= uint64(1)<<t.height {
		str := fmt.Sprintf("leaf index %d is out of range for a tree of "+
			"height %d", index, t.height)
		return nil, makeError(ErrIndexOutOfRange, str)
	}

	proof := make([]byte, 0, int(t.height)*HashSize)
	for level := uint8(0); level < t.height; level++ {
		sibling := t.nodeAt(level, index^1)
		proof = append(proof, sibling[:]...)
		index >>= 1
	}
	return proof, nil
}

// ComputeRoot returns the root implied by the passed leaf, index and proof.
func ComputeRoot(leaf []byte, index uint64, proof []byte) (chainhash.Hash, error) {
	if len(proof)%HashSize != 0 {
		str := fmt.Sprintf("proof length %d is not a multiple of %d",
			len(proof), HashSize)
		return chainhash.Hash{}, makeError(ErrInvalidProofLength, str)
	}
	height := len(proof) / HashSize
	if height > MaxHeight {
		str := fmt.Sprintf("proof of height %d exceeds max height %d",
			height, MaxHeight)
		return chainhash.Hash{}, makeError(ErrProofTooLong, str)
	}
	if index >= uint64(1)<<height {
		str := fmt.Sprintf("leaf index %d is out of range for a proof of "+
			"height %d", index, height)
		return chainhash.Hash{}, makeError(ErrIndexOutOfRange, str)
	}

	computed := LeafHash(leaf)
	var sibling chainhash.Hash
	for i := 0; i < height; i++ {
		copy(sibling[:], proof[i*HashSize:(i+1)*HashSize])
		if index&1 == 0 {
			computed = hashNodes(&computed, &sibling)
		} else {
			computed = hashNodes(&sibling, &computed)
		}
		index >>= 1
	}
	return computed, nil
}

// CheckMembership returns whether the passed proof shows the leaf is at the
// passed index of the tree with the passed root.  An error is returned when
// the proof or index are malformed.
func CheckMembership(leaf []byte, index uint64, root *chainhash.Hash, proof []byte) (bool, error) {
	computed, err := ComputeRoot(leaf, index, proof)
	if err != nil {
		return false, err
	}
	return computed == *root, nil
}
