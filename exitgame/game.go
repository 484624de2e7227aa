// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package exitgame

import (
	"fmt"
	"sync"
	"time"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/decred/dcrd/container/lru"
	"github.com/decred/dcrd/math/uint256"
	"github.com/plasma-network/exitgame/bond"
	"github.com/plasma-network/exitgame/exitid"
	"github.com/plasma-network/exitgame/framework"
	"github.com/plasma-network/exitgame/plasma"
	"github.com/plasma-network/exitgame/spendcond"
	"github.com/plasma-network/exitgame/txfinality"
	"github.com/plasma-network/exitgame/txwire"
	"github.com/plasma-network/exitgame/vault"
)

// DefaultTxCacheSize is the number of decoded transactions cached when no
// cache size is configured.
const DefaultTxCacheSize = 256

// BondKind identifies one of the bonds of the exit game.
type BondKind uint8

// These constants define the bonds of the exit game.
const (
	// StartStandardExitBond is paid to start a standard exit.
	StartStandardExitBond BondKind = iota

	// StartInFlightExitBond is paid to start an in-flight exit.
	StartInFlightExitBond

	// PiggybackBond is paid to piggyback an input or output of an
	// in-flight exit.
	PiggybackBond

	numBondKinds
)

// bondKindStrings is a map of bond kinds back to their constant names for
// pretty printing.
var bondKindStrings = map[BondKind]string{
	StartStandardExitBond: "StartStandardExitBond",
	StartInFlightExitBond: "StartInFlightExitBond",
	PiggybackBond:         "PiggybackBond",
}

// String returns the BondKind in human-readable form.
func (k BondKind) String() string {
	if s, ok := bondKindStrings[k]; ok {
		return s
	}
	return fmt.Sprintf("Unknown BondKind (%d)", uint8(k))
}

// BondConfig is the initial size and bounty of a bond.
type BondConfig struct {
	Bond   uint64
	Bounty uint64
}

// Config is a descriptor which specifies the exit game instance
// configuration.
type Config struct {
	// Framework is the plasma framework the exit game is registered with.
	// Exits are queued in and processed by its exit queues.
	//
	// This field is required.
	Framework *framework.Framework

	// Registry houses the spending conditions and output guard handlers.
	// It should be frozen before it is passed.
	//
	// This field is required.
	Registry *spendcond.Registry

	// Ledger tracks root chain balances.  Bonds are paid from and to it in
	// the native token.
	//
	// This field is required.
	Ledger *vault.Ledger

	// Address is the ledger account holding the bonds.
	//
	// This field is required.
	Address plasma.Address

	// Maintainer is the only address allowed to update bond sizes.
	//
	// This field is required.
	Maintainer plasma.Address

	// TxType is the transaction type the exit game handles.
	//
	// This field is required.
	TxType uint32

	// Bonds are the initial sizes of the bonds indexed by BondKind.
	Bonds [numBondKinds]BondConfig

	// TxCacheSize is the number of decoded transactions to cache.  Zero
	// selects DefaultTxCacheSize.
	TxCacheSize uint32

	// Notifications defines a callback to which notifications will be sent
	// when various events take place.  See the documentation for
	// Notification and NotificationType for details on the types and
	// contents of notifications.
	//
	// This field can be nil if the caller is not interested in receiving
	// notifications.
	Notifications NotificationCallback
}

// Game is the exit game of one transaction type.  It implements standard
// exits of finalized outputs and in-flight exits of transactions that may
// not be included yet, along with the challenges against both.
//
// The game must be registered with the framework for its transaction type
// before exits are started.  It is safe for concurrent access.
type Game struct {
	fw            *framework.Framework
	registry      *spendcond.Registry
	ledger        *vault.Ledger
	verifier      *txfinality.Verifier
	addr          plasma.Address
	maintainer    plasma.Address
	txType        uint32
	txCache       *lru.Map[chainhash.Hash, *txwire.Transaction]
	notifications NotificationCallback

	mtx           sync.Mutex
	bonds         [numBondKinds]*bond.Size
	standardExits map[uint256.Uint256]*StandardExit
	inFlightExits map[uint256.Uint256]*InFlightExit
	pending       []Notification
}

// Ensure Game implements the framework.ExitGame interface.
var _ framework.ExitGame = (*Game)(nil)

// New returns an exit game using the passed configuration.
func New(config *Config) (*Game, error) {
	// Enforce required config fields.
	if config.Framework == nil {
		return nil, framework.AssertError("exitgame.New framework is nil")
	}
	if config.Registry == nil {
		return nil, framework.AssertError("exitgame.New registry is nil")
	}
	if config.Ledger == nil {
		return nil, framework.AssertError("exitgame.New ledger is nil")
	}
	if config.Address.IsZero() {
		return nil, framework.AssertError("exitgame.New address is the " +
			"zero address")
	}
	if config.Maintainer.IsZero() {
		return nil, framework.AssertError("exitgame.New maintainer is the " +
			"zero address")
	}
	if config.TxType == 0 {
		return nil, framework.AssertError("exitgame.New tx type is zero")
	}

	cacheSize := config.TxCacheSize
	if cacheSize == 0 {
		cacheSize = DefaultTxCacheSize
	}
	g := &Game{
		fw:            config.Framework,
		registry:      config.Registry,
		ledger:        config.Ledger,
		verifier:      txfinality.New(config.Framework),
		addr:          config.Address,
		maintainer:    config.Maintainer,
		txType:        config.TxType,
		txCache:       lru.NewMap[chainhash.Hash, *txwire.Transaction](cacheSize),
		notifications: config.Notifications,
		standardExits: make(map[uint256.Uint256]*StandardExit),
		inFlightExits: make(map[uint256.Uint256]*InFlightExit),
	}
	for kind := BondKind(0); kind < numBondKinds; kind++ {
		cfg := config.Bonds[kind]
		size, err := bond.New(cfg.Bond, cfg.Bounty)
		if err != nil {
			str := fmt.Sprintf("exitgame.New invalid %v: %v", kind, err)
			return nil, framework.AssertError(str)
		}
		g.bonds[kind] = size
	}
	return g, nil
}

// Address returns the ledger account holding the bonds.
func (g *Game) Address() plasma.Address {
	return g.addr
}

// VaultIDForToken returns the id of the vault holding the passed token.
func VaultIDForToken(token plasma.Address) framework.VaultID {
	if token.IsZero() {
		return framework.EthVaultID
	}
	return framework.Erc20VaultID
}

// StandardExitID returns the id of a standard exit of the output at the
// passed position of the passed transaction.
func StandardExitID(isDeposit bool, txBytes []byte, utxoPos plasma.UtxoPos) uint256.Uint256 {
	return exitid.Standard(isDeposit, txBytes, utxoPos)
}

// InFlightExitID returns the id of an in-flight exit of the passed
// transaction.
func InFlightExitID(txBytes []byte) uint256.Uint256 {
	return exitid.InFlight(txBytes)
}

// decodeTx returns the decoded form of the passed serialized transaction.
// The returned transaction is shared and MUST NOT be modified.
func (g *Game) decodeTx(txBytes []byte) (*txwire.Transaction, error) {
	hash := plasma.Keccak256(txBytes)
	if tx, ok := g.txCache.Get(hash); ok {
		return tx, nil
	}
	tx, err := txwire.Decode(txBytes)
	if err != nil {
		return nil, err
	}
	g.txCache.Put(hash, tx)
	return tx, nil
}

// checkTxType ensures the passed transaction is of the type handled by the
// exit game.
func (g *Game) checkTxType(tx *txwire.Transaction) error {
	if tx.TxType != g.txType {
		str := fmt.Sprintf("tx type %d is not handled by the exit game for "+
			"tx type %d", tx.TxType, g.txType)
		return ruleError(ErrUnexpectedTxType, str)
	}
	return nil
}

// checkStandardFinalized ensures the passed transaction is included at the
// passed position as shown by the inclusion proof.
func (g *Game) checkStandardFinalized(txBytes []byte, txType uint32, txPos plasma.TxPos, proof []byte) error {
	protocol, err := g.fw.Protocol(txType)
	if err != nil {
		return err
	}
	finalized, err := g.verifier.IsStandardFinalized(&txfinality.Data{
		Protocol:       protocol,
		TxBytes:        txBytes,
		TxPos:          txPos,
		InclusionProof: proof,
	})
	if err != nil {
		return err
	}
	if !finalized {
		str := fmt.Sprintf("tx %s is not included at position %d",
			plasma.Keccak256(txBytes), txPos)
		return ruleError(ErrTxNotFinalized, str)
	}
	return nil
}

// verifySpend ensures the input of spendingTx at inputIndex spends the output
// of inputTx at utxoPos and that the spending transaction exists under the
// finalization protocol of its type.
func (g *Game) verifySpend(inputTx []byte, utxoPos plasma.UtxoPos, spendingTx []byte, inputIndex uint16, witness []byte) error {
	in, err := g.decodeTx(inputTx)
	if err != nil {
		return err
	}
	out, err := in.Output(utxoPos.OutputIndex())
	if err != nil {
		return err
	}
	spendingType, err := txwire.TxTypeOf(spendingTx)
	if err != nil {
		return err
	}
	protocol, err := g.fw.Protocol(spendingType)
	if err != nil {
		return err
	}
	finalized, err := g.verifier.IsProtocolFinalized(&txfinality.Data{
		Protocol: protocol,
		TxBytes:  spendingTx,
	})
	if err != nil {
		return err
	}
	if !finalized {
		return ruleError(ErrTxNotFinalized, "spending tx does not exist")
	}

	cond, err := g.registry.SpendingCondition(out.OutputType, spendingType)
	if err != nil {
		return err
	}
	err = cond.Verify(inputTx, utxoPos, spendingTx, inputIndex, witness)
	if err != nil {
		str := fmt.Sprintf("tx does not spend output %v: %v", utxoPos, err)
		return ruleError(ErrInvalidSpend, str)
	}
	return nil
}

// exitTarget returns the address the passed output is paid out to along
// with the guard data it was derived from.
func (g *Game) exitTarget(out *txwire.Output, preimage []byte) (plasma.Address, *spendcond.OutputGuardData, spendcond.OutputGuardHandler, error) {
	handler, err := g.registry.OutputGuardHandler(out.OutputType)
	if err != nil {
		return plasma.Address{}, nil, nil, err
	}
	data := &spendcond.OutputGuardData{
		OutputType: out.OutputType,
		Guard:      out.OutputGuard,
		Preimage:   preimage,
	}
	if err := handler.IsValid(data); err != nil {
		return plasma.Address{}, nil, nil, err
	}
	return handler.ExitTarget(data), data, handler, nil
}

// exitableAt returns when an exit started at the passed time of an output
// at the passed position may be processed.  Outputs of deposits wait the
// minimum exit period.  Other outputs wait the minimum exit period and at
// least two minimum exit periods after their block was submitted.
func (g *Game) exitableAt(now time.Time, utxoPos plasma.UtxoPos) (uint64, error) {
	mep := g.fw.MinExitPeriod()
	exitableAt := now.Add(mep)
	if !utxoPos.IsDeposit() {
		blockNum := utxoPos.BlockNum()
		block, err := g.fw.FetchBlock(blockNum)
		if err != nil {
			return 0, err
		}
		if block == nil {
			str := fmt.Sprintf("block %d of finalized output %v is missing",
				blockNum, utxoPos)
			return 0, framework.AssertError(str)
		}
		if t := block.Timestamp.Add(2 * mep); t.After(exitableAt) {
			exitableAt = t
		}
	}
	return uint64(exitableAt.Unix()), nil
}

// chargeBond takes the current bond of the passed kind from the payer after
// ensuring the paid value matches it.  It returns the bond and bounty sizes
// charged.
//
// This function MUST be called with the exit game lock held.
func (g *Game) chargeBond(kind BondKind, payer plasma.Address, paid uint64, now time.Time) (uint64, uint64, error) {
	size := g.bonds[kind]
	want := size.Bond(now)
	if paid != want {
		str := fmt.Sprintf("paid %d for %v, want %d", paid, kind, want)
		return 0, 0, ruleError(ErrBondMismatch, str)
	}
	err := g.ledger.TransferUint64(payer, g.addr, plasma.ZeroAddress, want)
	if err != nil {
		return 0, 0, err
	}
	return want, size.Bounty(now), nil
}

// payBond pays a bond held by the exit game to the receiver.
func (g *Game) payBond(receiver plasma.Address, amount uint64) error {
	return g.ledger.TransferUint64(g.addr, receiver, plasma.ZeroAddress,
		amount)
}

// appendBondPayouts appends the payouts of a bond whose bounty goes to the
// initiator of exit processing and whose rest goes to the receiver.
func appendBondPayouts(payouts []framework.Payout, receiver, initiator plasma.Address, bondSize, bountySize uint64) ([]framework.Payout, error) {
	if bountySize > bondSize {
		str := fmt.Sprintf("bounty %d exceeds bond %d", bountySize, bondSize)
		return nil, framework.AssertError(str)
	}
	bounty := framework.Payout{Receiver: initiator}
	bounty.Amount.SetUint64(bountySize)
	rest := framework.Payout{Receiver: receiver}
	rest.Amount.SetUint64(bondSize - bountySize)
	return append(payouts, bounty, rest), nil
}

// checkBondFunds returns an error unless the exit game holds enough of the
// native token to make the passed bond payouts.  Only the exit game moves
// its own funds, so the payouts cannot fail for lack of funds afterwards
// while the lock is held.
//
// This function MUST be called with the exit game lock held.
func (g *Game) checkBondFunds(payouts []framework.Payout) error {
	var total uint256.Uint256
	for i := range payouts {
		total.Add(&payouts[i].Amount)
	}
	balance := g.ledger.Balance(g.addr, plasma.ZeroAddress)
	if balance.Lt(&total) {
		str := fmt.Sprintf("exit game holds %v in bonds, cannot pay %v",
			&balance, &total)
		return framework.AssertError(str)
	}
	return nil
}

// payBonds makes the passed bond payouts.  Either all are paid or none is.
//
// This function MUST be called with the exit game lock held.
func (g *Game) payBonds(payouts []framework.Payout) error {
	return g.ledger.TransferMany(g.addr, plasma.ZeroAddress, payouts)
}

// withdraw pays out exited funds of the passed token through the vault
// holding it.  Either all payouts are made or none is.
func (g *Game) withdraw(vaultID framework.VaultID, token plasma.Address, payouts []framework.Payout) error {
	if len(payouts) == 0 {
		return nil
	}
	v, err := g.fw.Vault(vaultID)
	if err != nil {
		return err
	}
	return v.Withdraw(g, token, payouts)
}

// finalizeAndWithdraw flags the passed outputs as finalized by the exit and
// then makes the withdrawals.  The flags are removed again when the
// withdrawals fail so a later attempt at processing the exit sees the
// outputs as they were.
//
// This function MUST be called with the exit game lock held.
func (g *Game) finalizeAndWithdraw(exitID *uint256.Uint256, outputIDs []chainhash.Hash, vaultID framework.VaultID, token plasma.Address, payouts []framework.Payout) error {
	if len(outputIDs) > 0 {
		if err := g.fw.FlagOutputsFinalized(g, outputIDs, exitID); err != nil {
			return err
		}
	}
	err := g.withdraw(vaultID, token, payouts)
	if err != nil && len(outputIDs) > 0 {
		uerr := g.fw.UnflagOutputsFinalized(g, outputIDs, exitID)
		if uerr != nil {
			log.Errorf("Failed to unflag outputs of exit %x: %v",
				exitID.Bytes(), uerr)
		}
	}
	return err
}

// bondSize returns the current bond and bounty sizes of the passed kind.
//
// This function is safe for concurrent access.
func (g *Game) bondSize(kind BondKind) (uint64, uint64) {
	now := g.fw.Now()
	g.mtx.Lock()
	defer g.mtx.Unlock()
	size := g.bonds[kind]
	return size.Bond(now), size.Bounty(now)
}

// StartStandardExitBondSize returns the current bond and bounty sizes for
// starting a standard exit.
func (g *Game) StartStandardExitBondSize() (uint64, uint64) {
	return g.bondSize(StartStandardExitBond)
}

// StartInFlightExitBondSize returns the current bond and bounty sizes for
// starting an in-flight exit.
func (g *Game) StartInFlightExitBondSize() (uint64, uint64) {
	return g.bondSize(StartInFlightExitBond)
}

// PiggybackBondSize returns the current bond and bounty sizes for
// piggybacking an input or output of an in-flight exit.
func (g *Game) PiggybackBondSize() (uint64, uint64) {
	return g.bondSize(PiggybackBond)
}

// UpdateStartStandardExitBondSize requests an update of the bond for
// starting a standard exit.
func (g *Game) UpdateStartStandardExitBondSize(caller plasma.Address, newBond, newBounty uint64) error {
	return g.updateBondSize(caller, StartStandardExitBond, newBond, newBounty)
}

// UpdateStartInFlightExitBondSize requests an update of the bond for
// starting an in-flight exit.
func (g *Game) UpdateStartInFlightExitBondSize(caller plasma.Address, newBond, newBounty uint64) error {
	return g.updateBondSize(caller, StartInFlightExitBond, newBond, newBounty)
}

// UpdatePiggybackBondSize requests an update of the piggyback bond.
func (g *Game) UpdatePiggybackBondSize(caller plasma.Address, newBond, newBounty uint64) error {
	return g.updateBondSize(caller, PiggybackBond, newBond, newBounty)
}

// updateBondSize requests an update of the bond of the passed kind.  Only
// the maintainer may update bonds.  The update takes effect after the bond
// waiting period.
func (g *Game) updateBondSize(caller plasma.Address, kind BondKind, newBond, newBounty uint64) error {
	if caller != g.maintainer {
		str := fmt.Sprintf("%v is not the maintainer", caller)
		return ruleError(ErrNotMaintainer, str)
	}

	now := g.fw.Now()
	g.mtx.Lock()
	size := g.bonds[kind]
	if err := size.Update(newBond, newBounty, now); err != nil {
		g.mtx.Unlock()
		return err
	}
	effective := size.EffectiveUpdateTime()
	g.queueNotification(NTBondUpdated, &BondUpdatedNtfnsData{
		Bond:        kind,
		NewBond:     newBond,
		NewBounty:   newBounty,
		EffectiveAt: effective.Unix(),
	})
	g.unlockAndNotify()

	log.Infof("Updated %v to %d with bounty %d, effective %v", kind, newBond,
		newBounty, effective)
	return nil
}

// ProcessExit finalizes the exit with the passed id after it was dequeued
// from the exit queue of the passed vault and token.  It is part of the
// framework.ExitGame interface and is only meant to be called by the
// framework.
func (g *Game) ProcessExit(exitID *uint256.Uint256, vaultID framework.VaultID, token, initiator plasma.Address) error {
	g.mtx.Lock()
	var err error
	if exitid.IsInFlight(exitID) {
		err = g.processInFlightExit(exitID, vaultID, token, initiator)
	} else {
		err = g.processStandardExit(exitID, vaultID, initiator)
	}
	g.unlockAndNotify()
	return err
}

// ProcessExits processes up to maxToProcess matured exits of the passed
// token in priority order on behalf of the initiator, who receives the
// bounties.  A non-zero expected top priority must match the top of the
// queue.
func (g *Game) ProcessExits(token plasma.Address, expectedTopPriority *uint256.Uint256, maxToProcess int, initiator plasma.Address) (int, error) {
	return g.fw.ProcessExits(VaultIDForToken(token), token,
		expectedTopPriority, maxToProcess, initiator)
}
