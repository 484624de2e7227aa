// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package framework

import (
	"sync"
	"time"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/decred/dcrd/math/uint256"
	"github.com/plasma-network/exitgame/plasma"
)

// QuarantinePeriodFactor is the number of minimum exit periods a newly
// registered exit game or vault stays quarantined.
const QuarantinePeriodFactor = 3

// Config is a descriptor which specifies the framework instance
// configuration.
type Config struct {
	// Authority is the only address allowed to submit child chain blocks.
	//
	// This field is required.
	Authority plasma.Address

	// MinExitPeriod is the minimum time an exit stays challengeable.  It
	// also determines how long newly registered exit games and vaults stay
	// quarantined.
	//
	// This field is required.
	MinExitPeriod time.Duration

	// InitialImmuneExitGames is the number of exit games that are usable
	// right after registration.  Every later exit game is quarantined.
	InitialImmuneExitGames int

	// InitialImmuneVaults is the number of vaults that are usable right
	// after registration.  Every later vault is quarantined.
	InitialImmuneVaults int

	// Clock provides the current time.
	//
	// This field can be nil in which case the system clock is used.
	Clock Clock

	// BlockStore houses the submitted blocks.
	//
	// This field can be nil in which case the blocks are only kept in
	// memory.
	BlockStore BlockStore

	// Notifications defines a callback to which notifications will be sent
	// when various events take place.  See the documentation for
	// Notification and NotificationType for details on the types and
	// contents of notifications.
	//
	// This field can be nil if the caller is not interested in receiving
	// notifications.
	Notifications NotificationCallback
}

// Framework is the root ledger side of a Plasma chain.  It records submitted
// child chain blocks, registers the exit games and vaults, owns the exit
// queues and tracks which outputs were finalized by an exit.
//
// Exit games and vaults are identified by the values registered, so they
// must be comparable, typically pointers.  The framework never holds its
// lock while calling into an exit game, so exit games may call back into the
// framework from ProcessExit.
//
// It is safe for concurrent access.
type Framework struct {
	authority     plasma.Address
	minExitPeriod time.Duration
	clock         Clock
	blocks        BlockStore
	notifications NotificationCallback

	mtx            sync.Mutex
	nextChildBlock uint64
	nextDeposit    uint64
	exitGames      map[uint32]*registeredExitGame
	exitGameTypes  map[ExitGame]uint32
	vaults         map[VaultID]Vault
	vaultIDs       map[Vault]VaultID
	quarantine     quarantineList
	exitQueues     map[exitQueueKey]*exitQueue
	finalizations  map[chainhash.Hash]uint256.Uint256
}

// New returns a Framework instance using the provided configuration details.
func New(config *Config) (*Framework, error) {
	// Enforce required config fields.
	if config.Authority.IsZero() {
		return nil, AssertError("framework.New authority is the zero address")
	}
	if config.MinExitPeriod <= 0 {
		return nil, AssertError("framework.New minimum exit period is not " +
			"positive")
	}

	clock := config.Clock
	if clock == nil {
		clock = SystemClock()
	}
	blocks := config.BlockStore
	if blocks == nil {
		blocks = NewMemBlockStore()
	}

	f := &Framework{
		authority:     config.Authority,
		minExitPeriod: config.MinExitPeriod,
		clock:         clock,
		blocks:        blocks,
		notifications: config.Notifications,
		exitGames:     make(map[uint32]*registeredExitGame),
		exitGameTypes: make(map[ExitGame]uint32),
		vaults:        make(map[VaultID]Vault),
		vaultIDs:      make(map[Vault]VaultID),
		quarantine: quarantineList{
			period:             QuarantinePeriodFactor * config.MinExitPeriod,
			exitGameImmunities: config.InitialImmuneExitGames,
			vaultImmunities:    config.InitialImmuneVaults,
			expiry:             make(map[interface{}]time.Time),
		},
		exitQueues:    make(map[exitQueueKey]*exitQueue),
		finalizations: make(map[chainhash.Hash]uint256.Uint256),
	}
	if err := f.loadBlockNumbering(); err != nil {
		return nil, err
	}
	return f, nil
}

// MinExitPeriod returns the minimum time an exit stays challengeable.
func (f *Framework) MinExitPeriod() time.Duration {
	return f.minExitPeriod
}

// Now returns the current time of the framework clock.
func (f *Framework) Now() time.Time {
	return f.clock.Now()
}
