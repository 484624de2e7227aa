// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package exitid

import (
	"testing"

	"github.com/decred/dcrd/crypto/rand"
	"github.com/decred/dcrd/math/uint256"
	"github.com/plasma-network/exitgame/plasma"
)

// mustUtxoPos returns the position for the passed components and panics on
// error.  It is only used with hard-coded values.
func mustUtxoPos(blockNum uint64, txIndex uint32, outputIndex uint16) plasma.UtxoPos {
	pos, err := plasma.NewUtxoPos(blockNum, txIndex, outputIndex)
	if err != nil {
		panic(err)
	}
	return pos
}

// TestExitIDKinds ensures standard ids never have the in-flight flag set and
// in-flight ids always do, and that all ids fit in the id size.
func TestExitIDKinds(t *testing.T) {
	for i := 0; i < 256; i++ {
		txBytes := make([]byte, 1+rand.IntN(200))
		rand.Read(txBytes)
		pos := mustUtxoPos(1+rand.Uint64N(plasma.MaxBlockNum),
			rand.Uint32N(plasma.MaxTxIndex+1),
			uint16(rand.Uint32N(plasma.MaxOutputIndex+1)))

		deposit := Standard(true, txBytes, pos)
		nonDeposit := Standard(false, txBytes, pos)
		inFlight := InFlight(txBytes)

		for _, id := range []*uint256.Uint256{&deposit, &nonDeposit} {
			if IsInFlight(id) {
				t.Fatalf("standard id %x has the in-flight flag", id.Bytes())
			}
			if !IsValid(id) {
				t.Fatalf("standard id %x exceeds %d bits", id.Bytes(), Bits)
			}
		}
		if !IsInFlight(&inFlight) {
			t.Fatalf("in-flight id %x lacks the in-flight flag",
				inFlight.Bytes())
		}
		if !IsValid(&inFlight) {
			t.Fatalf("in-flight id %x exceeds %d bits", inFlight.Bytes(),
				Bits)
		}
		if deposit.Eq(&nonDeposit) || deposit.Eq(&inFlight) ||
			nonDeposit.Eq(&inFlight) {
			t.Fatalf("colliding ids for tx %x", txBytes)
		}
	}
}

// TestStandardExitIDInputs ensures standard ids depend on the inputs that
// identify the exiting output.
func TestStandardExitIDInputs(t *testing.T) {
	txBytes := []byte("payment transaction")
	pos0 := mustUtxoPos(1000, 3, 0)
	pos1 := mustUtxoPos(1000, 3, 1)

	// Outputs of the same transaction get different ids.
	id0 := Standard(false, txBytes, pos0)
	id1 := Standard(false, txBytes, pos1)
	if id0.Eq(&id1) {
		t.Fatal("outputs of one transaction share an id")
	}

	// Non-deposit ids do not depend on the block.
	moved := Standard(false, txBytes, mustUtxoPos(2000, 7, 0))
	if !moved.Eq(&id0) {
		t.Fatal("non-deposit id depends on the block")
	}

	// Identical deposits in different blocks get different ids.
	depA := Standard(true, txBytes, mustUtxoPos(1, 0, 0))
	depB := Standard(true, txBytes, mustUtxoPos(2, 0, 0))
	if depA.Eq(&depB) {
		t.Fatal("identical deposits share an id")
	}

	// Deterministic.
	again := Standard(true, txBytes, mustUtxoPos(1, 0, 0))
	if !again.Eq(&depA) {
		t.Fatal("deposit id is not deterministic")
	}
}

// TestInFlightExitID ensures in-flight ids match the truncated transaction
// hash with the flag bit set.
func TestInFlightExitID(t *testing.T) {
	txBytes := []byte("in-flight transaction")
	hash := plasma.Keccak256(txBytes)
	want := new(uint256.Uint256).SetBytes((*[32]byte)(&hash))
	want.Rsh(256 - 167)
	flag := new(uint256.Uint256).SetUint64(1)
	flag.Lsh(167)
	want.Or(flag)

	got := InFlight(txBytes)
	if !got.Eq(want) {
		t.Fatalf("got %x, want %x", got.Bytes(), want.Bytes())
	}

	other := InFlight([]byte("another transaction"))
	if other.Eq(&got) {
		t.Fatal("different transactions share an in-flight id")
	}
}
