// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package framework

import (
	"fmt"
	"sync"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/plasma-network/exitgame/plasma"
)

// BlockStore houses submitted child chain blocks.
type BlockStore interface {
	// PutBlock stores the block with the passed number.
	PutBlock(blockNum uint64, block *plasma.Block) error

	// FetchBlock returns the block with the passed number or nil when
	// there is no such block.
	FetchBlock(blockNum uint64) (*plasma.Block, error)

	// LastBlockNum returns the highest stored block number.  The boolean
	// is false when no block was stored.
	LastBlockNum() (uint64, bool, error)
}

// memBlockStore is a BlockStore that only keeps blocks in memory.
type memBlockStore struct {
	mtx     sync.RWMutex
	blocks  map[uint64]plasma.Block
	last    uint64
	hasLast bool
}

// NewMemBlockStore returns an empty in-memory block store.
func NewMemBlockStore() BlockStore {
	return &memBlockStore{blocks: make(map[uint64]plasma.Block)}
}

// PutBlock stores the block with the passed number.  It is part of the
// BlockStore interface.
func (s *memBlockStore) PutBlock(blockNum uint64, block *plasma.Block) error {
	s.mtx.Lock()
	s.blocks[blockNum] = *block
	if !s.hasLast || blockNum > s.last {
		s.last, s.hasLast = blockNum, true
	}
	s.mtx.Unlock()
	return nil
}

// FetchBlock returns the block with the passed number or nil.  It is part of
// the BlockStore interface.
func (s *memBlockStore) FetchBlock(blockNum uint64) (*plasma.Block, error) {
	s.mtx.RLock()
	block, ok := s.blocks[blockNum]
	s.mtx.RUnlock()
	if !ok {
		return nil, nil
	}
	return &block, nil
}

// LastBlockNum returns the highest stored block number.  It is part of the
// BlockStore interface.
func (s *memBlockStore) LastBlockNum() (uint64, bool, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.last, s.hasLast, nil
}

// loadBlockNumbering resumes the block numbering after the last stored
// block.
func (f *Framework) loadBlockNumbering() error {
	last, ok, err := f.blocks.LastBlockNum()
	if err != nil {
		return err
	}
	if !ok {
		f.nextChildBlock = plasma.ChildBlockInterval
		f.nextDeposit = 1
		return nil
	}
	f.nextChildBlock = (last/plasma.ChildBlockInterval + 1) *
		plasma.ChildBlockInterval
	f.nextDeposit = last%plasma.ChildBlockInterval + 1
	log.Debugf("Resuming block numbering at child block %d, deposit %d",
		f.nextChildBlock, f.nextDeposit)
	return nil
}

// SubmitBlock records a child chain block with the passed transaction root
// and returns its number.  Only the authority may submit child chain blocks.
func (f *Framework) SubmitBlock(caller plasma.Address, root *chainhash.Hash) (uint64, error) {
	if caller != f.authority {
		str := fmt.Sprintf("%v is not the authority", caller)
		return 0, ruleError(ErrNotAuthority, str)
	}

	f.mtx.Lock()
	blockNum := f.nextChildBlock
	block := plasma.Block{Root: *root, Timestamp: f.clock.Now()}
	if err := f.blocks.PutBlock(blockNum, &block); err != nil {
		f.mtx.Unlock()
		return 0, err
	}
	f.nextChildBlock += plasma.ChildBlockInterval
	f.nextDeposit = 1
	f.mtx.Unlock()

	log.Debugf("Submitted child block %d with root %s", blockNum,
		plasma.HashHex(root))
	f.sendNotification(NTBlockSubmitted, &BlockSubmittedNtfnsData{
		BlockNum: blockNum,
		Block:    block,
	})
	return blockNum, nil
}

// SubmitDepositBlock records a deposit block with the passed transaction
// root and returns its number.  Only registered vaults that are not
// quarantined may submit deposit blocks.
func (f *Framework) SubmitDepositBlock(caller Vault, root *chainhash.Hash) (uint64, error) {
	f.mtx.Lock()
	if err := f.checkVault(caller); err != nil {
		f.mtx.Unlock()
		return 0, err
	}
	if f.nextDeposit >= plasma.ChildBlockInterval {
		f.mtx.Unlock()
		str := fmt.Sprintf("all %d deposit blocks before child block %d "+
			"are used", plasma.ChildBlockInterval-1, f.nextChildBlock)
		return 0, ruleError(ErrTooManyDeposits, str)
	}

	blockNum := f.nextChildBlock - plasma.ChildBlockInterval + f.nextDeposit
	block := plasma.Block{Root: *root, Timestamp: f.clock.Now()}
	if err := f.blocks.PutBlock(blockNum, &block); err != nil {
		f.mtx.Unlock()
		return 0, err
	}
	f.nextDeposit++
	f.mtx.Unlock()

	log.Debugf("Submitted deposit block %d with root %s", blockNum,
		plasma.HashHex(root))
	f.sendNotification(NTBlockSubmitted, &BlockSubmittedNtfnsData{
		BlockNum: blockNum,
		Block:    block,
		Deposit:  true,
	})
	return blockNum, nil
}

// FetchBlock returns the block with the passed number or nil when no such
// block was submitted.
//
// This function is safe for concurrent access.
func (f *Framework) FetchBlock(blockNum uint64) (*plasma.Block, error) {
	return f.blocks.FetchBlock(blockNum)
}

// NextChildBlock returns the number the next child chain block will get.
//
// This function is safe for concurrent access.
func (f *Framework) NextChildBlock() uint64 {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return f.nextChildBlock
}

// NextDepositBlock returns the number the next deposit block will get.
//
// This function is safe for concurrent access.
func (f *Framework) NextDepositBlock() uint64 {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return f.nextChildBlock - plasma.ChildBlockInterval + f.nextDeposit
}
