// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package exitgame

import (
	"bytes"
	"fmt"
	"math"

	"github.com/plasma-network/exitgame/plasma"
	"github.com/plasma-network/exitgame/txwire"
)

// ChallengeNotCanonicalArgs houses the arguments of
// ChallengeInFlightExitNotCanonical.
type ChallengeNotCanonicalArgs struct {
	// InputTx is the serialized transaction that created the input shared
	// by the in-flight and the competing transaction.
	InputTx []byte

	// InputUtxoPos is the position of the shared input.
	InputUtxoPos plasma.UtxoPos

	// InFlightTx is the serialized transaction of the in-flight exit.
	InFlightTx []byte

	// InFlightTxInputIndex is the input of InFlightTx spending the shared
	// input.
	InFlightTxInputIndex uint16

	// CompetingTx is the serialized competing transaction.
	CompetingTx []byte

	// CompetingTxInputIndex is the input of CompetingTx spending the
	// shared input.
	CompetingTxInputIndex uint16

	// CompetingTxPos is the position of the competing transaction.  It is
	// zero when the competitor is not included in a block.
	CompetingTxPos plasma.TxPos

	// CompetingTxInclusionProof proves the competitor is included at
	// CompetingTxPos.  It is ignored for a zero position.
	CompetingTxInclusionProof []byte

	// CompetingTxWitness authorizes the spend of the shared input by the
	// competitor.
	CompetingTxWitness []byte
}

// spentInput returns the position spent by the input of tx at the passed
// index.
func spentInput(txBytes []byte, tx *txwire.Transaction, index uint16) (plasma.UtxoPos, error) {
	if int(index) >= len(tx.Inputs) {
		str := fmt.Sprintf("input index %d is out of range for tx %s with "+
			"%d inputs", index, plasma.Keccak256(txBytes), len(tx.Inputs))
		return 0, ruleError(ErrIndexOutOfRange, str)
	}
	return tx.Inputs[index], nil
}

// checkSpends ensures the input of tx at the passed index spends the passed
// position.
func (g *Game) checkSpends(txBytes []byte, index uint16, utxoPos plasma.UtxoPos) error {
	tx, err := g.decodeTx(txBytes)
	if err != nil {
		return err
	}
	spent, err := spentInput(txBytes, tx, index)
	if err != nil {
		return err
	}
	if spent != utxoPos {
		str := fmt.Sprintf("input %d of tx %s spends %v, not %v", index,
			plasma.Keccak256(txBytes), spent, utxoPos)
		return ruleError(ErrInputMismatch, str)
	}
	return nil
}

// ChallengeInFlightExitNotCanonical challenges the canonicity of an
// in-flight exit by proving a competing transaction spends one of its
// inputs.  Each challenge must present a competitor older than the oldest
// one known so far.  The challenger becomes the owner of the exit bond.
//
// This function is safe for concurrent access.
func (g *Game) ChallengeInFlightExitNotCanonical(challenger plasma.Address, args *ChallengeNotCanonicalArgs) error {
	if bytes.Equal(args.InFlightTx, args.CompetingTx) {
		return ruleError(ErrSameTx, "competing tx is the in-flight tx")
	}
	err := g.checkSpends(args.InFlightTx, args.InFlightTxInputIndex,
		args.InputUtxoPos)
	if err != nil {
		return err
	}
	err = g.checkSpends(args.CompetingTx, args.CompetingTxInputIndex,
		args.InputUtxoPos)
	if err != nil {
		return err
	}

	now := g.fw.Now()
	mep := g.fw.MinExitPeriod()

	g.mtx.Lock()
	exitID, exit, err := g.lookupInFlightExit(args.InFlightTx)
	if err != nil {
		g.mtx.Unlock()
		return err
	}
	if !exit.isFirstPhase(now, mep) {
		g.mtx.Unlock()
		str := fmt.Sprintf("canonicity challenge period of in-flight exit "+
			"%x is over", exitID.Bytes())
		return ruleError(ErrFirstPhaseOver, str)
	}
	input := &exit.Inputs[args.InFlightTxInputIndex]
	if plasma.OutputID(args.InputTx, args.InputUtxoPos) != input.OutputID {
		g.mtx.Unlock()
		str := fmt.Sprintf("input tx does not create input %d of in-flight "+
			"exit %x", args.InFlightTxInputIndex, exitID.Bytes())
		return ruleError(ErrOutputIDMismatch, str)
	}
	err = g.verifySpend(args.InputTx, args.InputUtxoPos, args.CompetingTx,
		args.CompetingTxInputIndex, args.CompetingTxWitness)
	if err != nil {
		g.mtx.Unlock()
		return err
	}

	// Competitors that are not included in a block are younger than any
	// included transaction.
	position := uint64(math.MaxUint64)
	if args.CompetingTxPos != 0 {
		competingType, err := txwire.TxTypeOf(args.CompetingTx)
		if err == nil {
			err = g.checkStandardFinalized(args.CompetingTx, competingType,
				args.CompetingTxPos, args.CompetingTxInclusionProof)
		}
		if err != nil {
			g.mtx.Unlock()
			return err
		}
		position = uint64(args.CompetingTxPos)
	}
	if exit.OldestCompetitorPosition != 0 &&
		position >= exit.OldestCompetitorPosition {

		g.mtx.Unlock()
		str := fmt.Sprintf("competitor at %d is not older than the oldest "+
			"known competitor at %d", position, exit.OldestCompetitorPosition)
		return ruleError(ErrCompetitorNotOlder, str)
	}

	exit.OldestCompetitorPosition = position
	exit.IsCanonical = false
	exit.BondOwner = challenger
	g.queueNotification(NTInFlightExitChallenged, &CanonicityNtfnsData{
		ExitID:   exitID,
		Party:    challenger,
		Position: position,
	})
	g.unlockAndNotify()

	log.Infof("Challenged canonicity of in-flight exit %x by %v",
		exitID.Bytes(), challenger)
	return nil
}

// RespondToNonCanonicalArgs houses the arguments of
// RespondToNonCanonicalChallenge.
type RespondToNonCanonicalArgs struct {
	// InFlightTx is the serialized transaction of the in-flight exit.
	InFlightTx []byte

	// InFlightTxPos is the position the in-flight transaction is included
	// at.
	InFlightTxPos plasma.TxPos

	// InFlightTxInclusionProof proves the in-flight transaction is
	// included at InFlightTxPos.
	InFlightTxInclusionProof []byte
}

// RespondToNonCanonicalChallenge restores the canonicity of a challenged
// in-flight exit by proving the in-flight transaction is included before
// the oldest known competitor.  The responder becomes the owner of the exit
// bond.
//
// This function is safe for concurrent access.
func (g *Game) RespondToNonCanonicalChallenge(responder plasma.Address, args *RespondToNonCanonicalArgs) error {
	tx, err := g.decodeTx(args.InFlightTx)
	if err != nil {
		return err
	}

	g.mtx.Lock()
	exitID, exit, err := g.lookupInFlightExit(args.InFlightTx)
	if err != nil {
		g.mtx.Unlock()
		return err
	}
	position := uint64(args.InFlightTxPos)
	if position >= exit.OldestCompetitorPosition {
		g.mtx.Unlock()
		str := fmt.Sprintf("in-flight tx at %d is not older than the oldest "+
			"known competitor at %d", position, exit.OldestCompetitorPosition)
		return ruleError(ErrResponseNotOlder, str)
	}
	err = g.checkStandardFinalized(args.InFlightTx, tx.TxType,
		args.InFlightTxPos, args.InFlightTxInclusionProof)
	if err != nil {
		g.mtx.Unlock()
		return err
	}

	exit.OldestCompetitorPosition = position
	exit.IsCanonical = true
	exit.BondOwner = responder
	g.queueNotification(NTInFlightExitChallengeResponded, &CanonicityNtfnsData{
		ExitID:   exitID,
		Party:    responder,
		Position: position,
	})
	g.unlockAndNotify()

	log.Infof("Restored canonicity of in-flight exit %x by %v",
		exitID.Bytes(), responder)
	return nil
}

// ChallengeInputSpentArgs houses the arguments of
// ChallengeInFlightExitInputSpent.
type ChallengeInputSpentArgs struct {
	// InFlightTx is the serialized transaction of the in-flight exit.
	InFlightTx []byte

	// InFlightTxInputIndex is the piggybacked input.
	InFlightTxInputIndex uint16

	// ChallengingTx is the serialized transaction that spent the input.
	ChallengingTx []byte

	// ChallengingTxInputIndex is the input of ChallengingTx spending the
	// piggybacked input.
	ChallengingTxInputIndex uint16

	// ChallengingTxWitness authorizes the spend.
	ChallengingTxWitness []byte

	// InputTx is the serialized transaction that created the input.
	InputTx []byte

	// InputUtxoPos is the position of the input.
	InputUtxoPos plasma.UtxoPos
}

// ChallengeInFlightExitInputSpent blocks a piggybacked input of an
// in-flight exit by proving it was spent by a transaction other than the
// in-flight one.  The piggyback bond is paid to the challenger.
//
// This function is safe for concurrent access.
func (g *Game) ChallengeInFlightExitInputSpent(challenger plasma.Address, args *ChallengeInputSpentArgs) error {
	if bytes.Equal(args.InFlightTx, args.ChallengingTx) {
		return ruleError(ErrSameTx, "challenging tx is the in-flight tx")
	}

	g.mtx.Lock()
	exitID, exit, err := g.lookupInFlightExit(args.InFlightTx)
	if err != nil {
		g.mtx.Unlock()
		return err
	}
	index := args.InFlightTxInputIndex
	if !exit.IsInputPiggybacked(index) {
		g.mtx.Unlock()
		str := fmt.Sprintf("input %d of in-flight exit %x is not "+
			"piggybacked", index, exitID.Bytes())
		return ruleError(ErrNotPiggybacked, str)
	}
	input := &exit.Inputs[index]
	if plasma.OutputID(args.InputTx, args.InputUtxoPos) != input.OutputID {
		g.mtx.Unlock()
		str := fmt.Sprintf("input tx does not create input %d of in-flight "+
			"exit %x", index, exitID.Bytes())
		return ruleError(ErrOutputIDMismatch, str)
	}
	err = g.verifySpend(args.InputTx, args.InputUtxoPos, args.ChallengingTx,
		args.ChallengingTxInputIndex, args.ChallengingTxWitness)
	if err != nil {
		g.mtx.Unlock()
		return err
	}
	if err := g.payBond(challenger, input.PiggybackBondSize); err != nil {
		g.mtx.Unlock()
		return err
	}

	exit.piggybacks.Unset(int(index))
	g.queueNotification(NTInFlightExitInputBlocked, &PiggybackNtfnsData{
		ExitID: exitID,
		Index:  index,
		Party:  challenger,
		Token:  input.Token,
		Amount: input.Amount,
	})
	g.unlockAndNotify()

	log.Infof("Blocked input %d of in-flight exit %x by %v", index,
		exitID.Bytes(), challenger)
	return nil
}

// ChallengeOutputSpentArgs houses the arguments of
// ChallengeInFlightExitOutputSpent.
type ChallengeOutputSpentArgs struct {
	// InFlightTx is the serialized transaction of the in-flight exit.
	InFlightTx []byte

	// InFlightTxInclusionProof proves the in-flight transaction is
	// included at the position of OutputUtxoPos.
	InFlightTxInclusionProof []byte

	// OutputUtxoPos is the position of the piggybacked output.
	OutputUtxoPos plasma.UtxoPos

	// ChallengingTx is the serialized transaction that spent the output.
	ChallengingTx []byte

	// ChallengingTxInputIndex is the input of ChallengingTx spending the
	// piggybacked output.
	ChallengingTxInputIndex uint16

	// ChallengingTxWitness authorizes the spend.
	ChallengingTxWitness []byte
}

// ChallengeInFlightExitOutputSpent blocks a piggybacked output of an
// in-flight exit by proving the in-flight transaction was included and the
// output was spent afterwards.  The piggyback bond is paid to the
// challenger.
//
// This function is safe for concurrent access.
func (g *Game) ChallengeInFlightExitOutputSpent(challenger plasma.Address, args *ChallengeOutputSpentArgs) error {
	tx, err := g.decodeTx(args.InFlightTx)
	if err != nil {
		return err
	}

	g.mtx.Lock()
	exitID, exit, err := g.lookupInFlightExit(args.InFlightTx)
	if err != nil {
		g.mtx.Unlock()
		return err
	}
	index := args.OutputUtxoPos.OutputIndex()
	if !exit.IsOutputPiggybacked(index) {
		g.mtx.Unlock()
		str := fmt.Sprintf("output %d of in-flight exit %x is not "+
			"piggybacked", index, exitID.Bytes())
		return ruleError(ErrNotPiggybacked, str)
	}
	output := &exit.Outputs[index]
	if plasma.OutputID(args.InFlightTx, args.OutputUtxoPos) != output.OutputID {
		g.mtx.Unlock()
		str := fmt.Sprintf("position %v does not hold output %d of "+
			"in-flight exit %x", args.OutputUtxoPos, index, exitID.Bytes())
		return ruleError(ErrOutputIDMismatch, str)
	}
	err = g.checkStandardFinalized(args.InFlightTx, tx.TxType,
		args.OutputUtxoPos.TxPos(), args.InFlightTxInclusionProof)
	if err != nil {
		g.mtx.Unlock()
		return err
	}
	err = g.verifySpend(args.InFlightTx, args.OutputUtxoPos,
		args.ChallengingTx, args.ChallengingTxInputIndex,
		args.ChallengingTxWitness)
	if err != nil {
		g.mtx.Unlock()
		return err
	}
	if err := g.payBond(challenger, output.PiggybackBondSize); err != nil {
		g.mtx.Unlock()
		return err
	}

	exit.piggybacks.Unset(txwire.MaxInputs + int(index))
	g.queueNotification(NTInFlightExitOutputBlocked, &PiggybackNtfnsData{
		ExitID: exitID,
		Index:  index,
		Party:  challenger,
		Token:  output.Token,
		Amount: output.Amount,
	})
	g.unlockAndNotify()

	log.Infof("Blocked output %d of in-flight exit %x by %v", index,
		exitID.Bytes(), challenger)
	return nil
}
