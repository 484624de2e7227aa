// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package exitgame

import (
	"fmt"
	"time"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/decred/dcrd/math/uint256"
	"github.com/jrick/bitset"
	"github.com/plasma-network/exitgame/exitid"
	"github.com/plasma-network/exitgame/plasma"
	"github.com/plasma-network/exitgame/txwire"
)

// piggybackBits is the number of piggyback flags of an in-flight exit.
// Inputs use the first txwire.MaxInputs flags and outputs the rest.
const piggybackBits = txwire.MaxInputs + txwire.MaxOutputs

// WithdrawData describes an input or output of an in-flight exit along with
// the piggyback bond paid for it.
type WithdrawData struct {
	OutputID          chainhash.Hash
	ExitTarget        plasma.Address
	Token             plasma.Address
	Amount            uint256.Uint256
	PiggybackBondSize uint64
	BountySize        uint64
}

// InFlightExit is the state of an in-flight exit.
//
// Position is the youngest input position of the in-flight transaction and
// determines its place in the exit queues.  OldestCompetitorPosition is the
// position of the oldest known competitor, or of the in-flight transaction
// itself after a successful response.  It is zero when canonicity was never
// challenged and math.MaxUint64 when the oldest competitor is not included
// in a block.
type InFlightExit struct {
	IsCanonical              bool
	Finalized                bool
	ExitStartTimestamp       time.Time
	Position                 plasma.UtxoPos
	OldestCompetitorPosition uint64
	BondOwner                plasma.Address
	BondSize                 uint64
	BountySize               uint64
	TxHash                   chainhash.Hash
	Inputs                   []WithdrawData
	Outputs                  []WithdrawData

	piggybacks bitset.Bytes
	queued     map[plasma.Address]struct{}
}

// IsInputPiggybacked returns whether the input at the passed index is
// piggybacked.
func (e *InFlightExit) IsInputPiggybacked(index uint16) bool {
	return int(index) < len(e.Inputs) && e.piggybacks.Get(int(index))
}

// IsOutputPiggybacked returns whether the output at the passed index is
// piggybacked.
func (e *InFlightExit) IsOutputPiggybacked(index uint16) bool {
	return int(index) < len(e.Outputs) &&
		e.piggybacks.Get(txwire.MaxInputs+int(index))
}

// hasPiggybacks returns whether any input or output is piggybacked.
func (e *InFlightExit) hasPiggybacks() bool {
	for i := 0; i < piggybackBits; i++ {
		if e.piggybacks.Get(i) {
			return true
		}
	}
	return false
}

// piggybackCount returns the number of piggybacked inputs and outputs.
func (e *InFlightExit) piggybackCount() int {
	var n int
	for i := 0; i < piggybackBits; i++ {
		if e.piggybacks.Get(i) {
			n++
		}
	}
	return n
}

// isFirstPhase returns whether the passed time is in the first phase of the
// exit, during which piggybacks and canonicity challenges are accepted.  The
// first phase lasts half of the minimum exit period.
func (e *InFlightExit) isFirstPhase(now time.Time, minExitPeriod time.Duration) bool {
	return now.Before(e.ExitStartTimestamp.Add(minExitPeriod / 2))
}

// clone returns a deep copy of the exit.
func (e *InFlightExit) clone() InFlightExit {
	c := *e
	c.Inputs = append([]WithdrawData(nil), e.Inputs...)
	c.Outputs = append([]WithdrawData(nil), e.Outputs...)
	c.piggybacks = append(bitset.Bytes(nil), e.piggybacks...)
	c.queued = nil
	return c
}

// StartInFlightExitArgs houses the arguments of StartInFlightExit.
type StartInFlightExitArgs struct {
	// InFlightTx is the serialized exiting transaction.
	InFlightTx []byte

	// InputTxs are the serialized transactions that created the inputs of
	// the in-flight transaction, in input order.
	InputTxs [][]byte

	// InputUtxosPos are the positions of the inputs.
	InputUtxosPos []plasma.UtxoPos

	// InputTxsInclusionProofs prove each input transaction is included at
	// its position.
	InputTxsInclusionProofs [][]byte

	// InFlightTxWitnesses authorize the spend of each input.
	InFlightTxWitnesses [][]byte

	// Bond is the bond paid by the caller.  It must equal the current
	// bond for starting in-flight exits.
	Bond uint64
}

// addToTokenSum adds the passed amount to the sum of its token.
func addToTokenSum(sums map[plasma.Address]uint256.Uint256, token plasma.Address, amount *uint256.Uint256) error {
	sum := sums[token]
	var total uint256.Uint256
	total.Add2(&sum, amount)
	if total.Lt(&sum) {
		str := fmt.Sprintf("sum of token %v overflows", token)
		return ruleError(ErrOverspend, str)
	}
	sums[token] = total
	return nil
}

// inFlightInputs validates the inputs of an in-flight transaction against
// the passed arguments and returns their withdraw data along with the
// youngest input position.
func (g *Game) inFlightInputs(tx *txwire.Transaction, args *StartInFlightExitArgs) ([]WithdrawData, plasma.UtxoPos, error) {
	numInputs := len(tx.Inputs)
	if numInputs == 0 {
		return nil, 0, ruleError(ErrNoInputs, "in-flight tx has no inputs")
	}
	if len(args.InputTxs) != numInputs ||
		len(args.InputUtxosPos) != numInputs ||
		len(args.InputTxsInclusionProofs) != numInputs ||
		len(args.InFlightTxWitnesses) != numInputs {

		str := fmt.Sprintf("in-flight tx has %d inputs but %d input txs, "+
			"%d positions, %d proofs and %d witnesses were provided",
			numInputs, len(args.InputTxs), len(args.InputUtxosPos),
			len(args.InputTxsInclusionProofs), len(args.InFlightTxWitnesses))
		return nil, 0, ruleError(ErrInputCount, str)
	}
	seen := make(map[plasma.UtxoPos]struct{}, numInputs)
	for i, pos := range args.InputUtxosPos {
		if _, ok := seen[pos]; ok {
			str := fmt.Sprintf("input %v is spent twice", pos)
			return nil, 0, ruleError(ErrDuplicateInputs, str)
		}
		seen[pos] = struct{}{}
		if pos != tx.Inputs[i] {
			str := fmt.Sprintf("input %d position %v does not match %v "+
				"spent by the in-flight tx", i, pos, tx.Inputs[i])
			return nil, 0, ruleError(ErrInputMismatch, str)
		}
	}

	var youngest plasma.UtxoPos
	inputs := make([]WithdrawData, numInputs)
	for i, pos := range args.InputUtxosPos {
		inputTxBytes := args.InputTxs[i]
		inputTx, err := g.decodeTx(inputTxBytes)
		if err != nil {
			return nil, 0, err
		}
		if pos.IsDeposit() && !inputTx.IsDeposit() {
			str := fmt.Sprintf("input %v is in a deposit block but its tx "+
				"is not a deposit", pos)
			return nil, 0, ruleError(ErrNotDepositTx, str)
		}
		err = g.checkStandardFinalized(inputTxBytes, inputTx.TxType,
			pos.TxPos(), args.InputTxsInclusionProofs[i])
		if err != nil {
			return nil, 0, err
		}
		err = g.verifySpend(inputTxBytes, pos, args.InFlightTx, uint16(i),
			args.InFlightTxWitnesses[i])
		if err != nil {
			return nil, 0, err
		}
		out, err := inputTx.Output(pos.OutputIndex())
		if err != nil {
			return nil, 0, err
		}
		target, _, _, err := g.exitTarget(out, nil)
		if err != nil {
			return nil, 0, err
		}
		inputs[i] = WithdrawData{
			OutputID:   plasma.OutputID(inputTxBytes, pos),
			ExitTarget: target,
			Token:      out.Token,
			Amount:     out.Amount,
		}
		if pos > youngest {
			youngest = pos
		}
	}
	return inputs, youngest, nil
}

// StartInFlightExit starts an in-flight exit of a transaction that spends
// finalized outputs.  The transaction itself does not need to be included
// in a block.  Nothing is paid out until inputs or outputs are piggybacked.
//
// This function is safe for concurrent access.
func (g *Game) StartInFlightExit(caller plasma.Address, args *StartInFlightExitArgs) (uint256.Uint256, error) {
	tx, err := g.decodeTx(args.InFlightTx)
	if err != nil {
		return uint256.Uint256{}, err
	}
	if err := g.checkTxType(tx); err != nil {
		return uint256.Uint256{}, err
	}
	inputs, position, err := g.inFlightInputs(tx, args)
	if err != nil {
		return uint256.Uint256{}, err
	}

	// Outputs may not create more of a token than the inputs hold.
	inputSums := make(map[plasma.Address]uint256.Uint256)
	for i := range inputs {
		err := addToTokenSum(inputSums, inputs[i].Token, &inputs[i].Amount)
		if err != nil {
			return uint256.Uint256{}, err
		}
	}
	outputSums := make(map[plasma.Address]uint256.Uint256)
	outputs := make([]WithdrawData, len(tx.Outputs))
	for i := range tx.Outputs {
		out := &tx.Outputs[i]
		target, _, _, err := g.exitTarget(out, nil)
		if err != nil {
			return uint256.Uint256{}, err
		}
		outputs[i] = WithdrawData{
			OutputID:   plasma.NormalOutputID(args.InFlightTx, uint16(i)),
			ExitTarget: target,
			Token:      out.Token,
			Amount:     out.Amount,
		}
		if err := addToTokenSum(outputSums, out.Token, &out.Amount); err != nil {
			return uint256.Uint256{}, err
		}
	}
	for token, outSum := range outputSums {
		inSum := inputSums[token]
		if inSum.Lt(&outSum) {
			str := fmt.Sprintf("outputs spend %v of token %v but the inputs "+
				"only hold %v", &outSum, token, &inSum)
			return uint256.Uint256{}, ruleError(ErrOverspend, str)
		}
	}

	now := g.fw.Now()
	exitID := exitid.InFlight(args.InFlightTx)
	txHash := plasma.Keccak256(args.InFlightTx)

	g.mtx.Lock()
	if _, ok := g.inFlightExits[exitID]; ok {
		g.mtx.Unlock()
		str := fmt.Sprintf("in-flight exit %x already exists", exitID.Bytes())
		return uint256.Uint256{}, ruleError(ErrExitExists, str)
	}
	bondSize, bountySize, err := g.chargeBond(StartInFlightExitBond, caller,
		args.Bond, now)
	if err != nil {
		g.mtx.Unlock()
		return uint256.Uint256{}, err
	}
	g.inFlightExits[exitID] = &InFlightExit{
		IsCanonical:        true,
		ExitStartTimestamp: now,
		Position:           position,
		BondOwner:          caller,
		BondSize:           bondSize,
		BountySize:         bountySize,
		TxHash:             txHash,
		Inputs:             inputs,
		Outputs:            outputs,
		piggybacks:         bitset.NewBytes(piggybackBits),
		queued:             make(map[plasma.Address]struct{}),
	}
	g.queueNotification(NTInFlightExitStarted, &InFlightExitStartedNtfnsData{
		ExitID:    exitID,
		Initiator: caller,
		TxHash:    txHash,
	})
	g.unlockAndNotify()

	log.Infof("Started in-flight exit %x of tx %s by %v", exitID.Bytes(),
		txHash, caller)
	return exitID, nil
}

// PiggybackArgs houses the arguments of PiggybackInFlightExitOnInput and
// PiggybackInFlightExitOnOutput.
type PiggybackArgs struct {
	// InFlightTx is the serialized transaction of the in-flight exit.
	InFlightTx []byte

	// Index is the index of the piggybacked input or output.
	Index uint16

	// Bond is the bond paid by the caller.  It must equal the current
	// piggyback bond.
	Bond uint64
}

// lookupInFlightExit returns the in-flight exit of the passed transaction.
//
// This function MUST be called with the exit game lock held.
func (g *Game) lookupInFlightExit(txBytes []byte) (uint256.Uint256, *InFlightExit, error) {
	exitID := exitid.InFlight(txBytes)
	exit, ok := g.inFlightExits[exitID]
	if !ok {
		str := fmt.Sprintf("in-flight exit %x does not exist", exitID.Bytes())
		return exitID, nil, ruleError(ErrExitNotFound, str)
	}
	return exitID, exit, nil
}

// piggyback piggybacks the input or output at the passed bit of an
// in-flight exit.
func (g *Game) piggyback(caller plasma.Address, args *PiggybackArgs, onOutput bool) error {
	now := g.fw.Now()
	mep := g.fw.MinExitPeriod()

	g.mtx.Lock()
	exitID, exit, err := g.lookupInFlightExit(args.InFlightTx)
	if err != nil {
		g.mtx.Unlock()
		return err
	}
	if exit.Finalized {
		g.mtx.Unlock()
		str := fmt.Sprintf("in-flight exit %x is finalized", exitID.Bytes())
		return ruleError(ErrExitFinalized, str)
	}
	if !exit.isFirstPhase(now, mep) {
		g.mtx.Unlock()
		str := fmt.Sprintf("piggyback period of in-flight exit %x is over",
			exitID.Bytes())
		return ruleError(ErrFirstPhaseOver, str)
	}

	kind, datas, bit := "input", exit.Inputs, int(args.Index)
	ntfn := NTInFlightExitInputPiggybacked
	if onOutput {
		kind, datas, bit = "output", exit.Outputs, txwire.MaxInputs+bit
		ntfn = NTInFlightExitOutputPiggybacked
	}
	if int(args.Index) >= len(datas) {
		g.mtx.Unlock()
		str := fmt.Sprintf("%s index %d is out of range for %d %ss", kind,
			args.Index, len(datas), kind)
		return ruleError(ErrIndexOutOfRange, str)
	}
	if exit.piggybacks.Get(bit) {
		g.mtx.Unlock()
		str := fmt.Sprintf("%s %d of in-flight exit %x is already "+
			"piggybacked", kind, args.Index, exitID.Bytes())
		return ruleError(ErrAlreadyPiggybacked, str)
	}
	data := &datas[args.Index]
	if caller != data.ExitTarget {
		g.mtx.Unlock()
		str := fmt.Sprintf("%v does not own %s %d of in-flight exit %x",
			caller, kind, args.Index, exitID.Bytes())
		return ruleError(ErrNotOutputOwner, str)
	}
	bondSize, bountySize, err := g.chargeBond(PiggybackBond, caller,
		args.Bond, now)
	if err != nil {
		g.mtx.Unlock()
		return err
	}

	// The exit is queued once per token.
	if _, ok := exit.queued[data.Token]; !ok {
		exitableAt, err := g.exitableAt(now, exit.Position)
		if err == nil {
			_, err = g.fw.Enqueue(g, VaultIDForToken(data.Token), data.Token,
				exitableAt, exit.Position.TxPos(), &exitID)
		}
		if err != nil {
			if refundErr := g.payBond(caller, bondSize); refundErr != nil {
				log.Errorf("Failed to refund bond of %v: %v", caller,
					refundErr)
			}
			g.mtx.Unlock()
			return err
		}
		exit.queued[data.Token] = struct{}{}
	}

	exit.piggybacks.Set(bit)
	data.PiggybackBondSize = bondSize
	data.BountySize = bountySize
	g.queueNotification(ntfn, &PiggybackNtfnsData{
		ExitID: exitID,
		Index:  args.Index,
		Party:  caller,
		Token:  data.Token,
		Amount: data.Amount,
	})
	g.unlockAndNotify()

	log.Infof("Piggybacked %s %d of in-flight exit %x by %v", kind,
		args.Index, exitID.Bytes(), caller)
	return nil
}

// PiggybackInFlightExitOnInput opts the owner of an input of an in-flight
// exit in to being paid the input when the in-flight transaction turns out
// to be non-canonical.
//
// This function is safe for concurrent access.
func (g *Game) PiggybackInFlightExitOnInput(caller plasma.Address, args *PiggybackArgs) error {
	return g.piggyback(caller, args, false)
}

// PiggybackInFlightExitOnOutput opts the owner of an output of an in-flight
// exit in to being paid the output when the in-flight transaction turns out
// to be canonical.
//
// This function is safe for concurrent access.
func (g *Game) PiggybackInFlightExitOnOutput(caller plasma.Address, args *PiggybackArgs) error {
	return g.piggyback(caller, args, true)
}

// DeleteNonPiggybackedInFlightExit deletes an in-flight exit that nobody
// piggybacked during its first phase.  The exit bond is returned to its
// owner.  Exits that were piggybacked and later had every piggyback blocked
// are still queued and cannot be deleted; processing returns their bond.
//
// This function is safe for concurrent access.
func (g *Game) DeleteNonPiggybackedInFlightExit(exitID *uint256.Uint256) error {
	now := g.fw.Now()
	mep := g.fw.MinExitPeriod()

	g.mtx.Lock()
	exit, ok := g.inFlightExits[*exitID]
	if !ok {
		g.mtx.Unlock()
		str := fmt.Sprintf("in-flight exit %x does not exist", exitID.Bytes())
		return ruleError(ErrExitNotFound, str)
	}
	if exit.Finalized {
		g.mtx.Unlock()
		str := fmt.Sprintf("in-flight exit %x is finalized", exitID.Bytes())
		return ruleError(ErrExitFinalized, str)
	}
	if exit.isFirstPhase(now, mep) {
		g.mtx.Unlock()
		str := fmt.Sprintf("first phase of in-flight exit %x is not over",
			exitID.Bytes())
		return ruleError(ErrFirstPhaseNotOver, str)
	}
	if exit.hasPiggybacks() {
		g.mtx.Unlock()
		str := fmt.Sprintf("in-flight exit %x is piggybacked", exitID.Bytes())
		return ruleError(ErrPiggybacked, str)
	}

	// A piggyback that was blocked leaves the exit queued.  Those entries
	// are only linked to the exit by its id, so the exit must stay until they
	// are processed to keep them from paying out a restarted exit.
	if len(exit.queued) > 0 {
		g.mtx.Unlock()
		str := fmt.Sprintf("in-flight exit %x is queued for %d tokens",
			exitID.Bytes(), len(exit.queued))
		return ruleError(ErrExitQueued, str)
	}
	if err := g.payBond(exit.BondOwner, exit.BondSize); err != nil {
		g.mtx.Unlock()
		return err
	}
	delete(g.inFlightExits, *exitID)
	g.queueNotification(NTInFlightExitDeleted, *exitID)
	g.unlockAndNotify()

	log.Infof("Deleted in-flight exit %x", exitID.Bytes())
	return nil
}

// InFlightExit returns a copy of the in-flight exit with the passed id.  The
// boolean is false when there is no such exit.
//
// This function is safe for concurrent access.
func (g *Game) InFlightExit(exitID *uint256.Uint256) (InFlightExit, bool) {
	g.mtx.Lock()
	defer g.mtx.Unlock()
	exit, ok := g.inFlightExits[*exitID]
	if !ok {
		return InFlightExit{}, false
	}
	return exit.clone(), true
}

