// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package framework

import (
	"fmt"

	"github.com/decred/dcrd/math/uint256"
	"github.com/plasma-network/exitgame/internal/prioqueue"
	"github.com/plasma-network/exitgame/plasma"
)

// exitQueueKey identifies the exit queue of a vault and token pair.
type exitQueueKey struct {
	vaultID VaultID
	token   plasma.Address
}

// queuedExit houses what the queue needs to know about a queued exit.
type queuedExit struct {
	game       ExitGame
	exitableAt uint64
	exitID     uint256.Uint256
}

// exitQueue is the priority queue of the exits of one vault and token pair
// along with the queued exits keyed by priority.
type exitQueue struct {
	heap  *prioqueue.Queue
	exits map[uint256.Uint256]queuedExit

	// draining is set while exits of the queue are being processed.
	draining bool
}

// AddExitQueue adds the exit queue of the passed vault and token pair.  Each
// pair can only be added once.
func (f *Framework) AddExitQueue(vaultID VaultID, token plasma.Address) error {
	if vaultID == 0 {
		return ruleError(ErrZeroVaultID, "exit queues must not be added "+
			"for vault id 0")
	}

	f.mtx.Lock()
	if _, ok := f.vaults[vaultID]; !ok {
		f.mtx.Unlock()
		str := fmt.Sprintf("no vault registered with id %d", vaultID)
		return ruleError(ErrVaultNotRegistered, str)
	}
	key := exitQueueKey{vaultID: vaultID, token: token}
	if _, ok := f.exitQueues[key]; ok {
		f.mtx.Unlock()
		str := fmt.Sprintf("exit queue for vault %d and token %v already "+
			"exists", vaultID, token)
		return ruleError(ErrExitQueueExists, str)
	}
	f.exitQueues[key] = &exitQueue{
		heap:  prioqueue.New(0),
		exits: make(map[uint256.Uint256]queuedExit),
	}
	f.mtx.Unlock()

	log.Infof("Added exit queue for vault %d and token %v", vaultID, token)
	f.sendNotification(NTExitQueueAdded, &ExitQueueNtfnsData{
		VaultID: vaultID,
		Token:   token,
	})
	return nil
}

// HasExitQueue returns whether the passed vault and token pair has an exit
// queue.
//
// This function is safe for concurrent access.
func (f *Framework) HasExitQueue(vaultID VaultID, token plasma.Address) bool {
	f.mtx.Lock()
	_, ok := f.exitQueues[exitQueueKey{vaultID: vaultID, token: token}]
	f.mtx.Unlock()
	return ok
}

// lookupExitQueue returns the exit queue of the passed vault and token pair.
//
// This function MUST be called with the framework lock held.
func (f *Framework) lookupExitQueue(vaultID VaultID, token plasma.Address) (*exitQueue, error) {
	q, ok := f.exitQueues[exitQueueKey{vaultID: vaultID, token: token}]
	if !ok {
		str := fmt.Sprintf("no exit queue for vault %d and token %v",
			vaultID, token)
		return nil, ruleError(ErrNoExitQueue, str)
	}
	return q, nil
}

// Enqueue adds an exit of the calling exit game to the exit queue of the
// passed vault and token pair and returns its priority.  Only registered
// exit games that are not quarantined may enqueue exits.  The calling exit
// game is the one asked to process the exit once it is dequeued.
func (f *Framework) Enqueue(caller ExitGame, vaultID VaultID, token plasma.Address, exitableAt uint64, txPos plasma.TxPos, exitID *uint256.Uint256) (uint256.Uint256, error) {
	priority, err := ComputePriority(exitableAt, txPos, exitID)
	if err != nil {
		return uint256.Uint256{}, err
	}

	f.mtx.Lock()
	if err := f.checkExitGame(caller); err != nil {
		f.mtx.Unlock()
		return uint256.Uint256{}, err
	}
	q, err := f.lookupExitQueue(vaultID, token)
	if err != nil {
		f.mtx.Unlock()
		return uint256.Uint256{}, err
	}
	if _, ok := q.exits[priority]; ok {
		f.mtx.Unlock()
		str := fmt.Sprintf("exit %x is already queued with priority %x",
			exitID.Bytes(), priority.Bytes())
		return uint256.Uint256{}, ruleError(ErrDuplicateExit, str)
	}
	q.heap.Insert(&priority)
	q.exits[priority] = queuedExit{
		game:       caller,
		exitableAt: exitableAt,
		exitID:     *exitID,
	}
	f.mtx.Unlock()

	log.Debugf("Queued exit %x for vault %d and token %v, exitable at %d",
		exitID.Bytes(), vaultID, token, exitableAt)
	f.sendNotification(NTExitQueued, &ExitQueuedNtfnsData{
		ExitID:   *exitID,
		Priority: priority,
	})
	return priority, nil
}

// ExitQueueSize returns the number of exits in the exit queue of the passed
// vault and token pair.
//
// This function is safe for concurrent access.
func (f *Framework) ExitQueueSize(vaultID VaultID, token plasma.Address) (int, error) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	q, err := f.lookupExitQueue(vaultID, token)
	if err != nil {
		return 0, err
	}
	return q.heap.Len(), nil
}

// TopPriority returns the smallest priority in the exit queue of the passed
// vault and token pair.
//
// This function is safe for concurrent access.
func (f *Framework) TopPriority(vaultID VaultID, token plasma.Address) (uint256.Uint256, error) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	q, err := f.lookupExitQueue(vaultID, token)
	if err != nil {
		return uint256.Uint256{}, err
	}
	top, err := q.heap.Min()
	if err != nil {
		str := fmt.Sprintf("exit queue for vault %d and token %v is empty",
			vaultID, token)
		return uint256.Uint256{}, ruleError(ErrEmptyExitQueue, str)
	}
	return top, nil
}

// popMatured removes and returns the top exit of the queue when it is
// exitable at the passed time.
//
// This function MUST be called with the framework lock held.
func (q *exitQueue) popMatured(now uint64) (uint256.Uint256, queuedExit, bool) {
	top, err := q.heap.Min()
	if err != nil {
		return uint256.Uint256{}, queuedExit{}, false
	}
	exit, ok := q.exits[top]
	if !ok {
		panic(AssertError(fmt.Sprintf("queued priority %x has no exit",
			top.Bytes())))
	}
	if exit.exitableAt > now {
		return uint256.Uint256{}, queuedExit{}, false
	}
	q.heap.DelMin()
	delete(q.exits, top)
	return top, exit, true
}

// restore puts an exit that failed processing back in the queue.
//
// This function MUST be called with the framework lock held.
func (q *exitQueue) restore(priority *uint256.Uint256, exit queuedExit) {
	q.heap.Insert(priority)
	q.exits[*priority] = exit
}

// ProcessExits processes up to maxToProcess matured exits of the exit queue
// of the passed vault and token pair in priority order and returns how many
// were processed.  Processing stops at the first exit that is not exitable
// yet.
//
// The queue must exist and must not be empty.  A non-zero expected top
// priority must match the top of the queue, which keeps stale callers from
// processing exits they did not intend to.
//
// Every dequeued exit is handed to the exit game that queued it.  When the
// exit game fails, the exit is put back in the queue and processing stops
// with the error.  Exits processed before the failure stay processed.
func (f *Framework) ProcessExits(vaultID VaultID, token plasma.Address, expectedTopPriority *uint256.Uint256, maxToProcess int, initiator plasma.Address) (int, error) {
	f.mtx.Lock()
	q, err := f.lookupExitQueue(vaultID, token)
	if err != nil {
		f.mtx.Unlock()
		return 0, err
	}
	if q.draining {
		f.mtx.Unlock()
		str := fmt.Sprintf("exits of vault %d and token %v are already "+
			"being processed", vaultID, token)
		return 0, ruleError(ErrExitQueueBusy, str)
	}
	top, err := q.heap.Min()
	if err != nil {
		f.mtx.Unlock()
		str := fmt.Sprintf("exit queue for vault %d and token %v is empty",
			vaultID, token)
		return 0, ruleError(ErrEmptyExitQueue, str)
	}
	if expectedTopPriority != nil && !expectedTopPriority.IsZero() &&
		!expectedTopPriority.Eq(&top) {

		f.mtx.Unlock()
		str := fmt.Sprintf("top priority %x does not match expected %x",
			top.Bytes(), expectedTopPriority.Bytes())
		return 0, ruleError(ErrTopPriorityMismatch, str)
	}
	q.draining = true
	f.mtx.Unlock()

	var processed int
	var processErr error
	for processed < maxToProcess {
		now := uint64(f.clock.Now().Unix())
		f.mtx.Lock()
		priority, exit, ok := q.popMatured(now)
		f.mtx.Unlock()
		if !ok {
			break
		}

		// The framework lock is not held while the exit game runs since
		// it calls back into the framework.
		err := exit.game.ProcessExit(&exit.exitID, vaultID, token, initiator)
		if err != nil {
			f.mtx.Lock()
			q.restore(&priority, exit)
			f.mtx.Unlock()
			log.Warnf("Failed to process exit %x: %v", exit.exitID.Bytes(),
				err)
			processErr = err
			break
		}
		processed++
	}

	f.mtx.Lock()
	q.draining = false
	f.mtx.Unlock()

	log.Infof("Processed %d %s for vault %d and token %v", processed,
		pickNoun(processed, "exit", "exits"), vaultID, token)
	f.sendNotification(NTProcessedExitsNum, &ProcessedExitsNtfnsData{
		Processed: processed,
		VaultID:   vaultID,
		Token:     token,
	})
	return processed, processErr
}

// pickNoun returns the singular or plural form of a noun depending on the
// count n.
func pickNoun(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
