// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package exitgame

import (
	"fmt"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/decred/dcrd/math/uint256"
	"github.com/plasma-network/exitgame/exitid"
	"github.com/plasma-network/exitgame/framework"
	"github.com/plasma-network/exitgame/plasma"
)

// StandardExit is the state of a standard exit.  An exit is exitable from
// the time it is started until it is challenged or processed.
type StandardExit struct {
	Exitable   bool
	UtxoPos    plasma.UtxoPos
	OutputID   chainhash.Hash
	ExitTarget plasma.Address
	Token      plasma.Address
	Amount     uint256.Uint256
	BondSize   uint64
	BountySize uint64
}

// StartStandardExitArgs houses the arguments of StartStandardExit.
type StartStandardExitArgs struct {
	// UtxoPos is the position of the exiting output.
	UtxoPos plasma.UtxoPos

	// OutputTx is the serialized transaction that created the output.
	OutputTx []byte

	// OutputGuardPreimage is passed to the output guard handler of the
	// output type.  Payment outputs do not use it.
	OutputGuardPreimage []byte

	// OutputTxInclusionProof proves OutputTx is included in its block.
	OutputTxInclusionProof []byte

	// Bond is the bond paid by the caller.  It must equal the current
	// bond for starting standard exits.
	Bond uint64
}

// StartStandardExit starts a standard exit of a finalized output owned by
// the caller and returns the id of the exit.  The bond is taken from the
// caller and the exit is queued in the exit queue of the output token.
//
// This function is safe for concurrent access.
func (g *Game) StartStandardExit(caller plasma.Address, args *StartStandardExitArgs) (uint256.Uint256, error) {
	tx, err := g.decodeTx(args.OutputTx)
	if err != nil {
		return uint256.Uint256{}, err
	}
	if err := g.checkTxType(tx); err != nil {
		return uint256.Uint256{}, err
	}
	isDeposit := args.UtxoPos.IsDeposit()
	if isDeposit && !tx.IsDeposit() {
		str := fmt.Sprintf("output %v is in a deposit block but its tx is "+
			"not a deposit", args.UtxoPos)
		return uint256.Uint256{}, ruleError(ErrNotDepositTx, str)
	}
	out, err := tx.Output(args.UtxoPos.OutputIndex())
	if err != nil {
		return uint256.Uint256{}, err
	}
	if out.Amount.IsZero() {
		str := fmt.Sprintf("output %v has no value", args.UtxoPos)
		return uint256.Uint256{}, ruleError(ErrZeroAmount, str)
	}
	target, guard, handler, err := g.exitTarget(out, args.OutputGuardPreimage)
	if err != nil {
		return uint256.Uint256{}, err
	}
	if !handler.IsOutputOwner(guard, caller) {
		str := fmt.Sprintf("%v does not own output %v", caller, args.UtxoPos)
		return uint256.Uint256{}, ruleError(ErrNotOutputOwner, str)
	}
	err = g.checkStandardFinalized(args.OutputTx, tx.TxType,
		args.UtxoPos.TxPos(), args.OutputTxInclusionProof)
	if err != nil {
		return uint256.Uint256{}, err
	}

	now := g.fw.Now()
	exitableAt, err := g.exitableAt(now, args.UtxoPos)
	if err != nil {
		return uint256.Uint256{}, err
	}
	exitID := exitid.Standard(isDeposit, args.OutputTx, args.UtxoPos)

	g.mtx.Lock()
	if _, ok := g.standardExits[exitID]; ok {
		g.mtx.Unlock()
		str := fmt.Sprintf("standard exit %x already exists", exitID.Bytes())
		return uint256.Uint256{}, ruleError(ErrExitExists, str)
	}
	bondSize, bountySize, err := g.chargeBond(StartStandardExitBond, caller,
		args.Bond, now)
	if err != nil {
		g.mtx.Unlock()
		return uint256.Uint256{}, err
	}
	_, err = g.fw.Enqueue(g, VaultIDForToken(out.Token), out.Token,
		exitableAt, args.UtxoPos.TxPos(), &exitID)
	if err != nil {
		if refundErr := g.payBond(caller, bondSize); refundErr != nil {
			log.Errorf("Failed to refund bond of %v: %v", caller, refundErr)
		}
		g.mtx.Unlock()
		return uint256.Uint256{}, err
	}
	g.standardExits[exitID] = &StandardExit{
		Exitable:   true,
		UtxoPos:    args.UtxoPos,
		OutputID:   plasma.OutputID(args.OutputTx, args.UtxoPos),
		ExitTarget: target,
		Token:      out.Token,
		Amount:     out.Amount,
		BondSize:   bondSize,
		BountySize: bountySize,
	}
	g.queueNotification(NTExitStarted, &ExitNtfnsData{
		ExitID:  exitID,
		UtxoPos: args.UtxoPos,
		Party:   caller,
	})
	g.unlockAndNotify()

	log.Infof("Started standard exit %x of output %v by %v", exitID.Bytes(),
		args.UtxoPos, caller)
	return exitID, nil
}

// ChallengeStandardExitArgs houses the arguments of ChallengeStandardExit.
type ChallengeStandardExitArgs struct {
	// ExitID is the id of the challenged exit.
	ExitID uint256.Uint256

	// ExitingTx is the serialized transaction that created the exiting
	// output.
	ExitingTx []byte

	// ChallengeTx is the serialized transaction that spends the exiting
	// output.
	ChallengeTx []byte

	// InputIndex is the input of ChallengeTx that spends the output.
	InputIndex uint16

	// Witness authorizes the spend.  It is a signature for payment
	// outputs.
	Witness []byte
}

// ChallengeStandardExit challenges a standard exit by proving the exiting
// output was spent.  The exit stops being exitable and its bond is paid to
// the challenger.
//
// This function is safe for concurrent access.
func (g *Game) ChallengeStandardExit(challenger plasma.Address, args *ChallengeStandardExitArgs) error {
	exitID := args.ExitID

	g.mtx.Lock()
	exit, ok := g.standardExits[exitID]
	if !ok {
		g.mtx.Unlock()
		str := fmt.Sprintf("standard exit %x does not exist", exitID.Bytes())
		return ruleError(ErrExitNotFound, str)
	}
	if !exit.Exitable {
		g.mtx.Unlock()
		str := fmt.Sprintf("standard exit %x is not exitable", exitID.Bytes())
		return ruleError(ErrExitNotExitable, str)
	}
	if plasma.OutputID(args.ExitingTx, exit.UtxoPos) != exit.OutputID {
		g.mtx.Unlock()
		str := fmt.Sprintf("exiting tx does not create the output of exit "+
			"%x", exitID.Bytes())
		return ruleError(ErrOutputIDMismatch, str)
	}
	err := g.verifySpend(args.ExitingTx, exit.UtxoPos, args.ChallengeTx,
		args.InputIndex, args.Witness)
	if err != nil {
		g.mtx.Unlock()
		return err
	}
	if err := g.payBond(challenger, exit.BondSize); err != nil {
		g.mtx.Unlock()
		return err
	}
	exit.Exitable = false
	g.queueNotification(NTExitChallenged, &ExitNtfnsData{
		ExitID:  exitID,
		UtxoPos: exit.UtxoPos,
		Party:   challenger,
	})
	g.unlockAndNotify()

	log.Infof("Challenged standard exit %x by %v", exitID.Bytes(), challenger)
	return nil
}

// StandardExit returns a copy of the standard exit with the passed id.  The
// boolean is false when there is no such exit.
//
// This function is safe for concurrent access.
func (g *Game) StandardExit(exitID *uint256.Uint256) (StandardExit, bool) {
	g.mtx.Lock()
	defer g.mtx.Unlock()
	exit, ok := g.standardExits[*exitID]
	if !ok {
		return StandardExit{}, false
	}
	return *exit, true
}

// processStandardExit pays out a dequeued standard exit.  Exits that are no
// longer exitable and exits of outputs that were already finalized by
// another exit are omitted and keep their bond in the exit game.
//
// This function MUST be called with the exit game lock held.
func (g *Game) processStandardExit(exitID *uint256.Uint256, vaultID framework.VaultID, initiator plasma.Address) error {
	exit, ok := g.standardExits[*exitID]
	if !ok || !exit.Exitable || g.fw.IsOutputFinalized(&exit.OutputID) {
		if ok {
			exit.Exitable = false
		}
		log.Debugf("Omitted standard exit %x", exitID.Bytes())
		g.queueNotification(NTExitOmitted, *exitID)
		return nil
	}

	// Bonds are checked up front so nothing fails once the output is
	// finalized and paid.
	bonds, err := appendBondPayouts(nil, exit.ExitTarget, initiator,
		exit.BondSize, exit.BountySize)
	if err != nil {
		return err
	}
	if err := g.checkBondFunds(bonds); err != nil {
		return err
	}
	withdrawal := []framework.Payout{{
		Receiver: exit.ExitTarget,
		Amount:   exit.Amount,
	}}
	err = g.finalizeAndWithdraw(exitID, []chainhash.Hash{exit.OutputID},
		vaultID, exit.Token, withdrawal)
	if err != nil {
		return err
	}
	exit.Exitable = false
	if err := g.payBonds(bonds); err != nil {
		return err
	}

	log.Infof("Finalized standard exit %x paying %v of token %v to %v",
		exitID.Bytes(), &exit.Amount, exit.Token, exit.ExitTarget)
	g.queueNotification(NTExitFinalized, &ExitFinalizedNtfnsData{
		ExitID: *exitID,
		Target: exit.ExitTarget,
		Token:  exit.Token,
		Amount: exit.Amount,
	})
	return nil
}
