// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package merkle implements the fixed-height binary Merkle tree used to commit
to the transactions of a child chain block along with inclusion proof
generation and verification.

# Tree construction

  - Every leaf is hashed individually: keccak256(leafData)
  - Internal nodes are keccak256(left || right)
  - Leaf slots without data are filled with the null leaf hash,
    keccak256(32 zero bytes), so the tree always has 2^height leaves

Only the non-null portion of each level is materialized.  Subtrees made up
entirely of null leaves are represented by precomputed null subtree hashes.

# Inclusion proofs

An inclusion proof is the concatenation of the sibling hashes along the path
from the leaf to the root, ordered from the leaf level upward.  Verification
walks the path using the bits of the leaf index, least significant bit
first, to decide whether the running hash is the left or the right child at
each level.  Proofs whose length is not a multiple of the hash size are
rejected.
*/
package merkle
