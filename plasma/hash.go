// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package plasma

import (
	"encoding/hex"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"golang.org/x/crypto/sha3"
)

// Keccak256 returns the legacy keccak256 digest of the concatenation of the
// passed byte slices.
func Keccak256(data ...[]byte) chainhash.Hash {
	h := sha3.NewLegacyKeccak256()
	for _, b := range data {
		h.Write(b)
	}
	var out chainhash.Hash
	h.Sum(out[:0])
	return out
}

// HashHex returns the hash bytes hex encoded in their natural order.
//
// NOTE: This differs from chainhash.Hash.String which reverses the bytes.
func HashHex(h *chainhash.Hash) string {
	return "0x" + hex.EncodeToString(h[:])
}
