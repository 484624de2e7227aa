// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/plasma-network/exitgame/exitgame"
	"github.com/plasma-network/exitgame/plasma"
)

const (
	// Deposit values used by the scenarios in wei.
	depositValue      = 100000000000000000
	smallDepositValue = 50000000000000000
)

// depositExitScenario deposits and exits the deposit.  After the minimum exit
// period the owner receives the deposit and the bond minus the processing
// bounty.
func (s *simulator) depositExitScenario() error {
	alice := s.newAccount("alice")
	depositTx, depositPos, proof, err := s.deposit(alice, depositValue)
	if err != nil {
		return err
	}

	bond, bounty := s.game.StartStandardExitBondSize()
	exitID, err := s.game.StartStandardExit(alice.addr, &exitgame.StartStandardExitArgs{
		UtxoPos:                depositPos,
		OutputTx:               depositTx,
		OutputTxInclusionProof: proof,
		Bond:                   bond,
	})
	if err != nil {
		return err
	}
	simuLog.Infof("alice started standard exit %x of %v", exitID.Bytes(),
		depositPos)

	aliceBefore := s.balance(alice)
	processorBefore := s.balance(s.processor)
	s.waitExitPeriod()
	n, err := s.processExits()
	if err != nil {
		return err
	}
	if n != 1 {
		return fmt.Errorf("processed %d exits, want 1", n)
	}
	if err := s.expectGain(alice, &aliceBefore, depositValue+bond-bounty); err != nil {
		return err
	}
	return s.expectGain(s.processor, &processorBefore, bounty)
}

// challengedExitScenario has the owner of a deposit pay it to a second
// account and then exit the spent deposit anyway.  The receiver challenges
// the exit, wins the bond and the exit is omitted when processed.
func (s *simulator) challengedExitScenario() error {
	alice := s.newAccount("alice")
	bob := s.newAccount("bob")
	depositTx, depositPos, proof, err := s.deposit(alice, depositValue)
	if err != nil {
		return err
	}
	transferTx, err := paymentTx([]plasma.UtxoPos{depositPos},
		payTo(bob, depositValue))
	if err != nil {
		return err
	}
	if _, _, err := s.submitBlock(transferTx); err != nil {
		return err
	}

	bond, _ := s.game.StartStandardExitBondSize()
	exitID, err := s.game.StartStandardExit(alice.addr, &exitgame.StartStandardExitArgs{
		UtxoPos:                depositPos,
		OutputTx:               depositTx,
		OutputTxInclusionProof: proof,
		Bond:                   bond,
	})
	if err != nil {
		return err
	}
	simuLog.Infof("alice started standard exit %x of spent %v",
		exitID.Bytes(), depositPos)

	bobBefore := s.balance(bob)
	err = s.game.ChallengeStandardExit(bob.addr, &exitgame.ChallengeStandardExitArgs{
		ExitID:      exitID,
		ExitingTx:   depositTx,
		ChallengeTx: transferTx,
		Witness:     s.sign(alice, transferTx),
	})
	if err != nil {
		return err
	}
	simuLog.Infof("bob challenged standard exit %x", exitID.Bytes())
	if err := s.expectGain(bob, &bobBefore, bond); err != nil {
		return err
	}

	aliceBefore := s.balance(alice)
	s.waitExitPeriod()
	if _, err := s.processExits(); err != nil {
		return err
	}
	return s.expectGain(alice, &aliceBefore, 0)
}

// doubleSpentInFlightScenario has two owners co-sign a transaction that a
// third party exits in flight.  One owner double spends an input in a block,
// so a challenger proves the transaction is not canonical and blocks the
// double spent input.  Only the other input is paid out.
func (s *simulator) doubleSpentInFlightScenario() error {
	alice := s.newAccount("alice")
	bob := s.newAccount("bob")
	carol := s.newAccount("carol")
	dave := s.newAccount("dave")
	challenger := s.newAccount("challenger")

	depositA, posA, proofA, err := s.deposit(alice, depositValue)
	if err != nil {
		return err
	}
	depositB, posB, proofB, err := s.deposit(bob, smallDepositValue)
	if err != nil {
		return err
	}
	inFlightTx, err := paymentTx([]plasma.UtxoPos{posA, posB},
		payTo(carol, depositValue), payTo(alice, smallDepositValue))
	if err != nil {
		return err
	}

	ifeBond, ifeBounty := s.game.StartInFlightExitBondSize()
	exitID, err := s.game.StartInFlightExit(dave.addr, &exitgame.StartInFlightExitArgs{
		InFlightTx:              inFlightTx,
		InputTxs:                [][]byte{depositA, depositB},
		InputUtxosPos:           []plasma.UtxoPos{posA, posB},
		InputTxsInclusionProofs: [][]byte{proofA, proofB},
		InFlightTxWitnesses: [][]byte{
			s.sign(alice, inFlightTx),
			s.sign(bob, inFlightTx),
		},
		Bond: ifeBond,
	})
	if err != nil {
		return err
	}
	simuLog.Infof("dave started in-flight exit %x", exitID.Bytes())

	// Alice double spends her input and the competitor gets included.
	competingTx, err := paymentTx([]plasma.UtxoPos{posA},
		payTo(challenger, depositValue))
	if err != nil {
		return err
	}
	competingSig := s.sign(alice, competingTx)
	blockNum, proofs, err := s.submitBlock(competingTx)
	if err != nil {
		return err
	}
	competingPos, err := plasma.NewUtxoPos(blockNum, 0, 0)
	if err != nil {
		return err
	}
	challengerBefore := s.balance(challenger)
	err = s.game.ChallengeInFlightExitNotCanonical(challenger.addr, &exitgame.ChallengeNotCanonicalArgs{
		InputTx:                   depositA,
		InputUtxoPos:              posA,
		InFlightTx:                inFlightTx,
		CompetingTx:               competingTx,
		CompetingTxPos:            competingPos.TxPos(),
		CompetingTxInclusionProof: proofs[0],
		CompetingTxWitness:        competingSig,
	})
	if err != nil {
		return err
	}
	simuLog.Infof("challenger proved in-flight exit %x is not canonical",
		exitID.Bytes())

	// Both owners piggyback their inputs.
	pbBond, pbBounty := s.game.PiggybackBondSize()
	bobBefore := s.balance(bob)
	aliceBefore := s.balance(alice)
	for i, owner := range []*account{alice, bob} {
		err := s.game.PiggybackInFlightExitOnInput(owner.addr, &exitgame.PiggybackArgs{
			InFlightTx: inFlightTx,
			Index:      uint16(i),
			Bond:       pbBond,
		})
		if err != nil {
			return err
		}
		simuLog.Infof("%s piggybacked input %d", owner.name, i)
	}

	// Alice's input is blocked since the competitor spent it.
	err = s.game.ChallengeInFlightExitInputSpent(challenger.addr, &exitgame.ChallengeInputSpentArgs{
		InFlightTx:           inFlightTx,
		InFlightTxInputIndex: 0,
		ChallengingTx:        competingTx,
		ChallengingTxWitness: competingSig,
		InputTx:              depositA,
		InputUtxoPos:         posA,
	})
	if err != nil {
		return err
	}
	simuLog.Infof("challenger blocked input 0 of in-flight exit %x",
		exitID.Bytes())

	s.waitExitPeriod()
	if _, err := s.processExits(); err != nil {
		return err
	}
	exit, ok := s.game.InFlightExit(&exitID)
	if !ok || !exit.Finalized || exit.IsCanonical {
		return fmt.Errorf("in-flight exit %x is not finalized as "+
			"non-canonical", exitID.Bytes())
	}

	if err := s.expectGain(bob, &bobBefore, smallDepositValue-pbBounty); err != nil {
		return err
	}
	if err := s.expectLoss(alice, &aliceBefore, pbBond); err != nil {
		return err
	}
	return s.expectGain(challenger, &challengerBefore,
		pbBond+ifeBond-ifeBounty)
}
