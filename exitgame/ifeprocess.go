// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package exitgame

import (
	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/decred/dcrd/math/uint256"
	"github.com/plasma-network/exitgame/framework"
	"github.com/plasma-network/exitgame/plasma"
	"github.com/plasma-network/exitgame/txwire"
)

// piggybackedOf returns the indexes of the piggybacked entries of the passed
// token starting at the passed bit offset.
func (e *InFlightExit) piggybackedOf(datas []WithdrawData, offset int, token plasma.Address) []uint16 {
	var indexes []uint16
	for i := range datas {
		if datas[i].Token == token && e.piggybacks.Get(offset+i) {
			indexes = append(indexes, uint16(i))
		}
	}
	return indexes
}

// isAnyInputFinalizedByOtherExit returns whether an input of the exit was
// finalized by an exit other than the passed one.
func (g *Game) isAnyInputFinalizedByOtherExit(exit *InFlightExit, exitID *uint256.Uint256) bool {
	for i := range exit.Inputs {
		by, ok := g.fw.OutputFinalization(&exit.Inputs[i].OutputID)
		if ok && !by.Eq(exitID) {
			return true
		}
	}
	return false
}

// processInFlightExit pays out the piggybacked inputs or outputs of the
// passed token of a dequeued in-flight exit.
//
// Canonical exits pay the piggybacked outputs and finalize all inputs.
// Exits that are not canonical, or that have an input finalized by another
// exit, pay the piggybacked inputs instead.  Entries that were already
// finalized are not paid again.  Piggyback bonds of the token are returned
// either way and the exit bond is returned once no piggybacks remain.
//
// This function MUST be called with the exit game lock held.
func (g *Game) processInFlightExit(exitID *uint256.Uint256, vaultID framework.VaultID, token, initiator plasma.Address) error {
	exit, ok := g.inFlightExits[*exitID]
	if !ok || exit.Finalized {
		log.Debugf("Omitted in-flight exit %x", exitID.Bytes())
		g.queueNotification(NTInFlightExitOmitted, *exitID)
		return nil
	}

	inputs := exit.piggybackedOf(exit.Inputs, 0, token)
	outputs := exit.piggybackedOf(exit.Outputs, txwire.MaxInputs, token)
	payInputs := !exit.IsCanonical ||
		g.isAnyInputFinalizedByOtherExit(exit, exitID)

	// Pick the entries to withdraw and the outputs to finalize.
	var toFlag []chainhash.Hash
	var withdrawals []uint16
	withdrawFrom, ntfn := exit.Outputs, NTInFlightExitOutputWithdrawn
	if payInputs {
		withdrawFrom, ntfn = exit.Inputs, NTInFlightExitInputWithdrawn
		for _, i := range inputs {
			if g.fw.IsOutputFinalized(&exit.Inputs[i].OutputID) {
				continue
			}
			withdrawals = append(withdrawals, i)
			toFlag = append(toFlag, exit.Inputs[i].OutputID)
		}
	} else {
		for i := range exit.Inputs {
			if g.fw.IsOutputFinalized(&exit.Inputs[i].OutputID) {
				continue
			}
			toFlag = append(toFlag, exit.Inputs[i].OutputID)
		}
		for _, i := range outputs {
			if g.fw.IsOutputFinalized(&exit.Outputs[i].OutputID) {
				continue
			}
			withdrawals = append(withdrawals, i)
			toFlag = append(toFlag, exit.Outputs[i].OutputID)
		}
	}

	// Every piggyback bond of the token is returned and so is the exit bond
	// when no other piggybacks remain.  They are checked up front so nothing
	// fails once the outputs are finalized and paid.
	var bonds []framework.Payout
	var err error
	for _, i := range inputs {
		data := &exit.Inputs[i]
		bonds, err = appendBondPayouts(bonds, data.ExitTarget, initiator,
			data.PiggybackBondSize, data.BountySize)
		if err != nil {
			return err
		}
	}
	for _, i := range outputs {
		data := &exit.Outputs[i]
		bonds, err = appendBondPayouts(bonds, data.ExitTarget, initiator,
			data.PiggybackBondSize, data.BountySize)
		if err != nil {
			return err
		}
	}
	finalize := exit.piggybackCount() == len(inputs)+len(outputs)
	if finalize {
		bonds, err = appendBondPayouts(bonds, exit.BondOwner, initiator,
			exit.BondSize, exit.BountySize)
		if err != nil {
			return err
		}
	}
	if err := g.checkBondFunds(bonds); err != nil {
		return err
	}

	payouts := make([]framework.Payout, 0, len(withdrawals))
	for _, i := range withdrawals {
		data := &withdrawFrom[i]
		payouts = append(payouts, framework.Payout{
			Receiver: data.ExitTarget,
			Amount:   data.Amount,
		})
	}
	err = g.finalizeAndWithdraw(exitID, toFlag, vaultID, token, payouts)
	if err != nil {
		return err
	}
	if err := g.payBonds(bonds); err != nil {
		return err
	}

	for _, i := range withdrawals {
		data := &withdrawFrom[i]
		g.queueNotification(ntfn, &PiggybackNtfnsData{
			ExitID: *exitID,
			Index:  i,
			Party:  data.ExitTarget,
			Token:  data.Token,
			Amount: data.Amount,
		})
	}
	for _, i := range inputs {
		exit.piggybacks.Unset(int(i))
	}
	for _, i := range outputs {
		exit.piggybacks.Unset(txwire.MaxInputs + int(i))
	}
	delete(exit.queued, token)

	kind := "outputs"
	if payInputs {
		kind = "inputs"
	}
	log.Infof("Processed in-flight exit %x for token %v paying %d %s",
		exitID.Bytes(), token, len(withdrawals), kind)

	if finalize {
		exit.Finalized = true
	}
	return nil
}

