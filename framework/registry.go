// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package framework

import (
	"fmt"
	"time"

	"github.com/decred/dcrd/math/uint256"
	"github.com/plasma-network/exitgame/plasma"
	"github.com/plasma-network/exitgame/txfinality"
)

// VaultID identifies a registered vault.
type VaultID uint64

// These constants define the ids of the standard vaults.
const (
	EthVaultID   VaultID = 1
	Erc20VaultID VaultID = 2
)

// ExitGame is an exit game registered with the framework for a transaction
// type.
type ExitGame interface {
	// ProcessExit finalizes the exit with the passed id that was dequeued
	// from the exit queue of the passed vault and token.  The initiator is
	// the address that requested exit processing.
	//
	// The exit is put back in the queue when an error is returned.
	ProcessExit(exitID *uint256.Uint256, vaultID VaultID,
		token plasma.Address, initiator plasma.Address) error
}

// Payout is an amount paid to a receiver.
type Payout struct {
	Receiver plasma.Address
	Amount   uint256.Uint256
}

// Vault is a registered holder of deposited funds.
type Vault interface {
	// Withdraw pays funds of the passed token held by the vault to the
	// receivers of the payouts on behalf of the calling exit game.  Either
	// every payout is made or, on error, none is.
	Withdraw(caller ExitGame, token plasma.Address, payouts []Payout) error
}

// registeredExitGame houses an exit game along with the finalization
// protocol of its transaction type.
type registeredExitGame struct {
	game     ExitGame
	protocol txfinality.Protocol
}

// quarantineList tracks until when newly registered exit games and vaults
// must not be used.  The first registrations of each kind are immune.
type quarantineList struct {
	period             time.Duration
	exitGameImmunities int
	vaultImmunities    int
	expiry             map[interface{}]time.Time
}

// add quarantines the passed item unless an immunity of the passed kind is
// remaining.
func (q *quarantineList) add(item interface{}, immunities *int, now time.Time) {
	if *immunities > 0 {
		*immunities--
		return
	}
	q.expiry[item] = now.Add(q.period)
}

// isQuarantined returns whether the passed item is quarantined at the passed
// time.
func (q *quarantineList) isQuarantined(item interface{}, now time.Time) bool {
	expiry, ok := q.expiry[item]
	return ok && now.Before(expiry)
}

// RegisterExitGame registers the exit game of the passed transaction type
// and the finalization protocol of that type.  The exit game is quarantined
// unless an initial immunity remains.
func (f *Framework) RegisterExitGame(txType uint32, game ExitGame, protocol txfinality.Protocol) error {
	if txType == 0 {
		return ruleError(ErrZeroTxType, "exit games must not be "+
			"registered for tx type 0")
	}
	if protocol != txfinality.ProtocolMVP &&
		protocol != txfinality.ProtocolMoreVP {

		str := fmt.Sprintf("invalid protocol %v", protocol)
		return ruleError(ErrInvalidProtocol, str)
	}

	f.mtx.Lock()
	if _, ok := f.exitGames[txType]; ok {
		f.mtx.Unlock()
		str := fmt.Sprintf("tx type %d already has an exit game", txType)
		return ruleError(ErrExitGameRegistered, str)
	}
	if registered, ok := f.exitGameTypes[game]; ok {
		f.mtx.Unlock()
		str := fmt.Sprintf("exit game already registered for tx type %d",
			registered)
		return ruleError(ErrExitGameRegistered, str)
	}
	f.exitGames[txType] = &registeredExitGame{game: game, protocol: protocol}
	f.exitGameTypes[game] = txType
	f.quarantine.add(game, &f.quarantine.exitGameImmunities, f.clock.Now())
	f.mtx.Unlock()

	log.Infof("Registered %v exit game for tx type %d", protocol, txType)
	f.sendNotification(NTExitGameRegistered, &ExitGameRegisteredNtfnsData{
		TxType:   txType,
		Protocol: protocol,
	})
	return nil
}

// RegisterVault registers a vault with the passed id.  The vault is
// quarantined unless an initial immunity remains.
func (f *Framework) RegisterVault(id VaultID, vault Vault) error {
	if id == 0 {
		return ruleError(ErrZeroVaultID, "vaults must not be registered "+
			"with id 0")
	}

	f.mtx.Lock()
	if _, ok := f.vaults[id]; ok {
		f.mtx.Unlock()
		str := fmt.Sprintf("vault id %d is already registered", id)
		return ruleError(ErrVaultRegistered, str)
	}
	if registered, ok := f.vaultIDs[vault]; ok {
		f.mtx.Unlock()
		str := fmt.Sprintf("vault already registered with id %d", registered)
		return ruleError(ErrVaultRegistered, str)
	}
	f.vaults[id] = vault
	f.vaultIDs[vault] = id
	f.quarantine.add(vault, &f.quarantine.vaultImmunities, f.clock.Now())
	f.mtx.Unlock()

	log.Infof("Registered vault %d", id)
	f.sendNotification(NTVaultRegistered, id)
	return nil
}

// checkExitGame returns an error unless the passed exit game is registered
// and not quarantined.
//
// This function MUST be called with the framework lock held.
func (f *Framework) checkExitGame(game ExitGame) error {
	txType, ok := f.exitGameTypes[game]
	if !ok {
		return ruleError(ErrExitGameNotRegistered, "caller is not a "+
			"registered exit game")
	}
	if f.quarantine.isQuarantined(game, f.clock.Now()) {
		str := fmt.Sprintf("exit game for tx type %d is quarantined", txType)
		return ruleError(ErrExitGameQuarantined, str)
	}
	return nil
}

// checkVault returns an error unless the passed vault is registered and not
// quarantined.
//
// This function MUST be called with the framework lock held.
func (f *Framework) checkVault(vault Vault) error {
	id, ok := f.vaultIDs[vault]
	if !ok {
		return ruleError(ErrVaultNotRegistered, "caller is not a "+
			"registered vault")
	}
	if f.quarantine.isQuarantined(vault, f.clock.Now()) {
		str := fmt.Sprintf("vault %d is quarantined", id)
		return ruleError(ErrVaultQuarantined, str)
	}
	return nil
}

// CheckExitGame returns nil when the passed exit game is registered and not
// quarantined.
//
// This function is safe for concurrent access.
func (f *Framework) CheckExitGame(game ExitGame) error {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return f.checkExitGame(game)
}

// ExitGame returns the exit game registered for the passed transaction type
// along with the finalization protocol of the type.
//
// This function is safe for concurrent access.
func (f *Framework) ExitGame(txType uint32) (ExitGame, txfinality.Protocol, error) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	registered, ok := f.exitGames[txType]
	if !ok {
		str := fmt.Sprintf("no exit game registered for tx type %d", txType)
		return nil, 0, ruleError(ErrExitGameNotRegistered, str)
	}
	return registered.game, registered.protocol, nil
}

// Protocol returns the finalization protocol of the passed transaction type.
//
// This function is safe for concurrent access.
func (f *Framework) Protocol(txType uint32) (txfinality.Protocol, error) {
	_, protocol, err := f.ExitGame(txType)
	return protocol, err
}

// Vault returns the vault registered with the passed id.
//
// This function is safe for concurrent access.
func (f *Framework) Vault(id VaultID) (Vault, error) {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	vault, ok := f.vaults[id]
	if !ok {
		str := fmt.Sprintf("no vault registered with id %d", id)
		return nil, ruleError(ErrVaultNotRegistered, str)
	}
	return vault, nil
}

// CheckVault returns nil when the passed vault is registered and not
// quarantined.
//
// This function is safe for concurrent access.
func (f *Framework) CheckVault(vault Vault) error {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return f.checkVault(vault)
}
