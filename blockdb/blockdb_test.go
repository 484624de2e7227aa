// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockdb

import (
	"errors"
	"testing"
	"time"

	"github.com/plasma-network/exitgame/framework"
	"github.com/plasma-network/exitgame/plasma"
)

// testBlock returns a block with a root derived from the passed seed.
func testBlock(seed string, ts int64) *plasma.Block {
	return &plasma.Block{
		Root:      plasma.Keccak256([]byte(seed)),
		Timestamp: time.Unix(ts, 0),
	}
}

// TestPutFetchBlock ensures stored blocks can be fetched with and without the
// cache and that missing blocks are reported as nil.
func TestPutFetchBlock(t *testing.T) {
	db, err := OpenMem(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer db.Close()

	if _, ok, err := db.LastBlockNum(); err != nil || ok {
		t.Fatalf("unexpected last block of empty database (ok %v, err %v)",
			ok, err)
	}

	nums := []uint64{1000, 1, 2, 2000, 3000}
	for i, num := range nums {
		if err := db.PutBlock(num, testBlock(string(rune('a'+i)), int64(num))); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	// The cache only holds two blocks, so most fetches hit leveldb.
	for i, num := range nums {
		block, err := db.FetchBlock(num)
		if err != nil {
			t.Fatalf("block %d: unexpected error: %v", num, err)
		}
		want := testBlock(string(rune('a'+i)), int64(num))
		if block == nil || block.Root != want.Root ||
			!block.Timestamp.Equal(want.Timestamp) {

			t.Fatalf("block %d: got %v, want %v", num, block, want)
		}
	}
	block, err := db.FetchBlock(4000)
	if err != nil || block != nil {
		t.Fatalf("unexpected missing block %v (err %v)", block, err)
	}

	last, ok, err := db.LastBlockNum()
	if err != nil || !ok || last != 3000 {
		t.Fatalf("unexpected last block %d (ok %v, err %v)", last, ok, err)
	}

	var visited []uint64
	err = db.ForEachBlock(2, func(num uint64, block *plasma.Block) error {
		visited = append(visited, num)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []uint64{2, 1000, 2000, 3000}
	if len(visited) != len(want) {
		t.Fatalf("visited %v, want %v", visited, want)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Fatalf("visited %v, want %v", visited, want)
		}
	}

	stop := errors.New("stop")
	err = db.ForEachBlock(0, func(uint64, *plasma.Block) error {
		return stop
	})
	if !errors.Is(err, stop) {
		t.Fatalf("mismatched err -- got %v, want %v", err, stop)
	}
}

// TestReopen ensures blocks survive reopening the database and that the
// framework resumes its block numbering from them.
func TestReopen(t *testing.T) {
	dataDir := t.TempDir()
	db, err := Open(dataDir, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	created, err := db.Created()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	authority := plasma.Address{0xaa}
	newFramework := func(db *DB) *framework.Framework {
		fw, err := framework.New(&framework.Config{
			Authority:     authority,
			MinExitPeriod: time.Hour,
			Clock:         framework.NewManualClock(time.Unix(1700000000, 0)),
			BlockStore:    db,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return fw
	}
	fw := newFramework(db)
	root := plasma.Keccak256([]byte("root"))
	for i := 0; i < 2; i++ {
		if _, err := fw.SubmitBlock(authority, &root); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if err := db.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	db, err = Open(dataDir, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer db.Close()
	reopenedCreated, err := db.Created()
	if err != nil || !reopenedCreated.Equal(created) {
		t.Fatalf("creation date changed from %v to %v (err %v)", created,
			reopenedCreated, err)
	}
	block, err := db.FetchBlock(2000)
	if err != nil || block == nil || block.Root != root {
		t.Fatalf("unexpected block %v (err %v)", block, err)
	}

	fw = newFramework(db)
	if got := fw.NextChildBlock(); got != 3000 {
		t.Fatalf("unexpected next child block %d, want 3000", got)
	}
	if got := fw.NextDepositBlock(); got != 2001 {
		t.Fatalf("unexpected next deposit block %d, want 2001", got)
	}
}

// TestClosed ensures operations on a closed database report ErrNotOpen.
func TestClosed(t *testing.T) {
	db, err := OpenMem(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = db.PutBlock(1000, testBlock("closed", 1))
	if !errors.Is(err, ErrNotOpen) {
		t.Fatalf("mismatched err -- got %v, want %v", err, ErrNotOpen)
	}
	var ctxErr ContextError
	if !errors.As(err, &ctxErr) || ctxErr.RawErr == nil {
		t.Fatalf("missing raw leveldb error in %v", err)
	}
}

// TestDeserializeBlock ensures malformed serialized blocks are rejected.
func TestDeserializeBlock(t *testing.T) {
	block := testBlock("x", 1234)
	serialized := serializeBlock(block)
	got, err := deserializeBlock(serialized)
	if err != nil || got.Root != block.Root || got.Timestamp.Unix() != 1234 {
		t.Fatalf("unexpected block %v (err %v)", got, err)
	}
	_, err = deserializeBlock(serialized[:len(serialized)-1])
	if !errors.Is(err, ErrDeserialize) {
		t.Fatalf("mismatched err -- got %v, want %v", err, ErrDeserialize)
	}
}
