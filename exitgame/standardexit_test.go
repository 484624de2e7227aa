// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package exitgame

import (
	"errors"
	"testing"
	"time"

	"github.com/decred/dcrd/math/uint256"
	"github.com/plasma-network/exitgame/framework"
	"github.com/plasma-network/exitgame/plasma"
	"github.com/plasma-network/exitgame/spendcond"
	"github.com/plasma-network/exitgame/txwire"
	"github.com/plasma-network/exitgame/vault"
)

// TestStartStandardExit ensures standard exits are only started for
// finalized outputs by their owners with the right bond.
func TestStartStandardExit(t *testing.T) {
	h := newTestHarness(t)
	_, owner := testKey(1)
	_, other := testKey(2)
	h.fund(owner)
	h.fund(other)

	depositTx, depositPos, depositProof := h.deposit(owner, 100)
	spendTx := paymentTx([]plasma.UtxoPos{depositPos},
		paymentOutput(other, 60), paymentOutput(owner, 40))
	blockNum, proofs := h.submitBlock(spendTx)
	changePos := mustUtxoPos(blockNum, 0, 1)

	otherType := mustBytes(&txwire.Transaction{
		TxType:  2,
		Outputs: []txwire.Output{paymentOutput(owner, 1)},
	})

	tests := []struct {
		name   string
		caller plasma.Address
		args   StartStandardExitArgs
		err    error
	}{{
		name:   "wrong bond",
		caller: owner,
		args: StartStandardExitArgs{
			UtxoPos:                depositPos,
			OutputTx:               depositTx,
			OutputTxInclusionProof: depositProof,
			Bond:                   testStandardBond - 1,
		},
		err: ErrBondMismatch,
	}, {
		name:   "not the owner",
		caller: other,
		args: StartStandardExitArgs{
			UtxoPos:                depositPos,
			OutputTx:               depositTx,
			OutputTxInclusionProof: depositProof,
			Bond:                   testStandardBond,
		},
		err: ErrNotOutputOwner,
	}, {
		name:   "preimage for payment output",
		caller: owner,
		args: StartStandardExitArgs{
			UtxoPos:                depositPos,
			OutputTx:               depositTx,
			OutputGuardPreimage:    []byte{0x01},
			OutputTxInclusionProof: depositProof,
			Bond:                   testStandardBond,
		},
		err: spendcond.ErrNonEmptyPreimage,
	}, {
		name:   "missing inclusion proof",
		caller: owner,
		args: StartStandardExitArgs{
			UtxoPos:  changePos,
			OutputTx: spendTx,
			Bond:     testStandardBond,
		},
		err: ErrTxNotFinalized,
	}, {
		name:   "proof of another position",
		caller: owner,
		args: StartStandardExitArgs{
			UtxoPos:                mustUtxoPos(blockNum, 1, 1),
			OutputTx:               spendTx,
			OutputTxInclusionProof: proofs[0],
			Bond:                   testStandardBond,
		},
		err: ErrTxNotFinalized,
	}, {
		name:   "non-deposit tx in deposit block",
		caller: owner,
		args: StartStandardExitArgs{
			UtxoPos:                mustUtxoPos(depositPos.BlockNum(), 0, 1),
			OutputTx:               spendTx,
			OutputTxInclusionProof: depositProof,
			Bond:                   testStandardBond,
		},
		err: ErrNotDepositTx,
	}, {
		name:   "output out of range",
		caller: owner,
		args: StartStandardExitArgs{
			UtxoPos:                mustUtxoPos(blockNum, 0, 2),
			OutputTx:               spendTx,
			OutputTxInclusionProof: proofs[0],
			Bond:                   testStandardBond,
		},
		err: txwire.ErrOutputIndex,
	}, {
		name:   "unexpected tx type",
		caller: owner,
		args: StartStandardExitArgs{
			UtxoPos:  mustUtxoPos(blockNum, 0, 0),
			OutputTx: otherType,
			Bond:     testStandardBond,
		},
		err: ErrUnexpectedTxType,
	}}

	for _, test := range tests {
		before := h.balance(test.caller)
		_, err := h.game.StartStandardExit(test.caller, &test.args)
		if !errors.Is(err, test.err) {
			t.Errorf("%q: mismatched err -- got %v, want %v", test.name,
				err, test.err)
			continue
		}
		if after := h.balance(test.caller); after != before {
			t.Errorf("%q: balance changed from %d to %d", test.name,
				before, after)
		}
	}
	if len(h.notificationsOfType(NTExitStarted)) != 0 {
		t.Fatal("rejected exits sent notifications")
	}

	// Start exits of the change output and of the deposit.
	args := StartStandardExitArgs{
		UtxoPos:                changePos,
		OutputTx:               spendTx,
		OutputTxInclusionProof: proofs[0],
		Bond:                   testStandardBond,
	}
	exitID, err := h.game.StartStandardExit(owner, &args)
	if err != nil {
		t.Fatalf("unexpected error starting exit: %v", err)
	}
	wantID := StandardExitID(false, spendTx, changePos)
	if !exitID.Eq(&wantID) {
		t.Fatalf("mismatched exit id -- got %x, want %x", exitID.Bytes(),
			wantID.Bytes())
	}
	if _, err := h.game.StartStandardExit(owner, &args); !errors.Is(err, ErrExitExists) {
		t.Fatalf("mismatched err for duplicate exit -- got %v, want %v",
			err, ErrExitExists)
	}
	depositArgs := StartStandardExitArgs{
		UtxoPos:                depositPos,
		OutputTx:               depositTx,
		OutputTxInclusionProof: depositProof,
		Bond:                   testStandardBond,
	}
	depositExitID, err := h.game.StartStandardExit(owner, &depositArgs)
	if err != nil {
		t.Fatalf("unexpected error starting deposit exit: %v", err)
	}

	if got := h.balance(owner); got != testFunds-2*testStandardBond {
		t.Fatalf("mismatched owner balance -- got %d, want %d", got,
			testFunds-2*testStandardBond)
	}
	if got := h.balance(testGameAddr); got != 2*testStandardBond {
		t.Fatalf("mismatched bond escrow -- got %d, want %d", got,
			2*testStandardBond)
	}

	exit, ok := h.game.StandardExit(&exitID)
	if !ok {
		t.Fatal("started exit not found")
	}
	want := StandardExit{
		Exitable:   true,
		UtxoPos:    changePos,
		OutputID:   plasma.NormalOutputID(spendTx, 1),
		ExitTarget: owner,
		Amount:     amount(40),
		BondSize:   testStandardBond,
		BountySize: testStandardBond / 10,
	}
	if exit != want {
		t.Fatalf("mismatched exit -- got %+v, want %+v", exit, want)
	}
	depositExit, _ := h.game.StandardExit(&depositExitID)
	wantOutputID := plasma.DepositOutputID(depositTx, 0, depositPos)
	if depositExit.OutputID != wantOutputID {
		t.Fatalf("mismatched deposit output id -- got %v, want %v",
			depositExit.OutputID, wantOutputID)
	}

	ntfns := h.notificationsOfType(NTExitStarted)
	if len(ntfns) != 2 {
		t.Fatalf("got %d exit started notifications, want 2", len(ntfns))
	}
	data := ntfns[0].Data.(*ExitNtfnsData)
	if !data.ExitID.Eq(&exitID) || data.UtxoPos != changePos ||
		data.Party != owner {

		t.Fatalf("mismatched notification data %+v", data)
	}
	size, err := h.fw.ExitQueueSize(framework.EthVaultID, plasma.ZeroAddress)
	if err != nil || size != 2 {
		t.Fatalf("got %d queued exits (err %v), want 2", size, err)
	}
}

// TestStandardExitMaturity ensures deposit exits mature one minimum exit
// period after they are started while other exits also wait two minimum exit
// periods after their block.
func TestStandardExitMaturity(t *testing.T) {
	h := newTestHarness(t)
	_, owner := testKey(1)
	h.fund(owner)

	depositTx, depositPos, depositProof := h.deposit(owner, 100)
	_, spentPos, _ := h.deposit(owner, 100)
	spendTx := paymentTx([]plasma.UtxoPos{spentPos},
		paymentOutput(owner, 100))
	blockNum, proofs := h.submitBlock(spendTx)

	// The deposit exit is started a day after the block, so it matures
	// before the exit of the block output.
	h.clock.Advance(24 * time.Hour)
	_, err := h.game.StartStandardExit(owner, &StartStandardExitArgs{
		UtxoPos:                depositPos,
		OutputTx:               depositTx,
		OutputTxInclusionProof: depositProof,
		Bond:                   testStandardBond,
	})
	if err != nil {
		t.Fatalf("unexpected error starting deposit exit: %v", err)
	}
	spendPos := mustUtxoPos(blockNum, 0, 0)
	_, err = h.game.StartStandardExit(owner, &StartStandardExitArgs{
		UtxoPos:                spendPos,
		OutputTx:               spendTx,
		OutputTxInclusionProof: proofs[0],
		Bond:                   testStandardBond,
	})
	if err != nil {
		t.Fatalf("unexpected error starting exit: %v", err)
	}

	top, err := h.fw.TopPriority(framework.EthVaultID, plasma.ZeroAddress)
	if err != nil {
		t.Fatalf("unexpected error fetching top priority: %v", err)
	}
	wantExitableAt := uint64(testStart.Add(24*time.Hour + testMinExitPeriod).Unix())
	if got := framework.ParseExitableAt(&top); got != wantExitableAt {
		t.Fatalf("mismatched deposit exitable time -- got %d, want %d", got,
			wantExitableAt)
	}

	h.clock.Advance(testMinExitPeriod - time.Second)
	if n := h.processExits(10); n != 0 {
		t.Fatalf("processed %d immature exits", n)
	}
	h.clock.Advance(time.Second)
	if n := h.processExits(10); n != 1 {
		t.Fatalf("processed %d exits, want the deposit exit", n)
	}

	// The block output matures two minimum exit periods after the block.
	h.clock.Set(testStart.Add(2*testMinExitPeriod - time.Second))
	if n := h.processExits(10); n != 0 {
		t.Fatalf("processed %d immature exits", n)
	}
	h.clock.Set(testStart.Add(2 * testMinExitPeriod))
	if n := h.processExits(10); n != 1 {
		t.Fatalf("processed %d exits, want the block output exit", n)
	}

	// The owner is paid both exits while the bounties go to the processor.
	bounty := uint64(testStandardBond / 10)
	want := testFunds + 2*100 - 2*bounty
	if got := h.balance(owner); got != want {
		t.Fatalf("mismatched owner balance -- got %d, want %d", got, want)
	}
	if got := h.balance(testProcessor); got != 2*bounty {
		t.Fatalf("mismatched processor balance -- got %d, want %d", got,
			2*bounty)
	}
	if got := h.balance(testGameAddr); got != 0 {
		t.Fatalf("exit game still holds %d", got)
	}
	if got := len(h.notificationsOfType(NTExitFinalized)); got != 2 {
		t.Fatalf("got %d exit finalized notifications, want 2", got)
	}
}

// TestChallengeStandardExit ensures a standard exit of a spent output can be
// challenged with the spending transaction and is omitted afterwards.
func TestChallengeStandardExit(t *testing.T) {
	h := newTestHarness(t)
	ownerKey, owner := testKey(1)
	otherKey, other := testKey(2)
	_, challenger := testKey(3)
	h.fund(owner)

	depositTx, depositPos, depositProof := h.deposit(owner, 100)
	spendTx := paymentTx([]plasma.UtxoPos{depositPos},
		paymentOutput(other, 100))
	h.submitBlock(spendTx)

	exitID, err := h.game.StartStandardExit(owner, &StartStandardExitArgs{
		UtxoPos:                depositPos,
		OutputTx:               depositTx,
		OutputTxInclusionProof: depositProof,
		Bond:                   testStandardBond,
	})
	if err != nil {
		t.Fatalf("unexpected error starting exit: %v", err)
	}

	unknownID := new(uint256.Uint256).SetUint64(1)
	tests := []struct {
		name string
		args ChallengeStandardExitArgs
		err  error
	}{{
		name: "unknown exit",
		args: ChallengeStandardExitArgs{
			ExitID:      *unknownID,
			ExitingTx:   depositTx,
			ChallengeTx: spendTx,
			Witness:     sign(ownerKey, spendTx),
		},
		err: ErrExitNotFound,
	}, {
		name: "other exiting tx",
		args: ChallengeStandardExitArgs{
			ExitID:      exitID,
			ExitingTx:   spendTx,
			ChallengeTx: spendTx,
			Witness:     sign(ownerKey, spendTx),
		},
		err: ErrOutputIDMismatch,
	}, {
		name: "signed by another key",
		args: ChallengeStandardExitArgs{
			ExitID:      exitID,
			ExitingTx:   depositTx,
			ChallengeTx: spendTx,
			Witness:     sign(otherKey, spendTx),
		},
		err: ErrInvalidSpend,
	}, {
		name: "wrong input index",
		args: ChallengeStandardExitArgs{
			ExitID:      exitID,
			ExitingTx:   depositTx,
			ChallengeTx: spendTx,
			InputIndex:  1,
			Witness:     sign(ownerKey, spendTx),
		},
		err: ErrInvalidSpend,
	}}
	for _, test := range tests {
		err := h.game.ChallengeStandardExit(challenger, &test.args)
		if !errors.Is(err, test.err) {
			t.Errorf("%q: mismatched err -- got %v, want %v", test.name,
				err, test.err)
		}
	}

	args := ChallengeStandardExitArgs{
		ExitID:      exitID,
		ExitingTx:   depositTx,
		ChallengeTx: spendTx,
		Witness:     sign(ownerKey, spendTx),
	}
	if err := h.game.ChallengeStandardExit(challenger, &args); err != nil {
		t.Fatalf("unexpected error challenging exit: %v", err)
	}
	if got := h.balance(challenger); got != testStandardBond {
		t.Fatalf("mismatched challenger balance -- got %d, want %d", got,
			testStandardBond)
	}
	exit, _ := h.game.StandardExit(&exitID)
	if exit.Exitable {
		t.Fatal("challenged exit is still exitable")
	}
	err = h.game.ChallengeStandardExit(challenger, &args)
	if !errors.Is(err, ErrExitNotExitable) {
		t.Fatalf("mismatched err challenging twice -- got %v, want %v", err,
			ErrExitNotExitable)
	}

	// The challenged exit is omitted and nothing is paid.
	h.clock.Advance(testMinExitPeriod)
	if n := h.processExits(1); n != 1 {
		t.Fatalf("processed %d exits, want 1", n)
	}
	if got := h.balance(owner); got != testFunds-testStandardBond {
		t.Fatalf("mismatched owner balance -- got %d, want %d", got,
			testFunds-testStandardBond)
	}
	if got := h.balance(testProcessor); got != 0 {
		t.Fatalf("processor was paid %d for an omitted exit", got)
	}
	omitted := h.notificationsOfType(NTExitOmitted)
	if len(omitted) != 1 {
		t.Fatalf("got %d exit omitted notifications, want 1", len(omitted))
	}
	if id := omitted[0].Data.(uint256.Uint256); !id.Eq(&exitID) {
		t.Fatalf("omitted exit %x, want %x", id.Bytes(), exitID.Bytes())
	}
	if h.fw.IsOutputFinalized(&exit.OutputID) {
		t.Fatal("output of omitted exit was finalized")
	}
}

// TestStandardExitOfFinalizedOutput ensures an exit of an output that was
// already paid out by another exit is omitted.
func TestStandardExitOfFinalizedOutput(t *testing.T) {
	h := newTestHarness(t)
	_, owner := testKey(1)
	h.fund(owner)

	depositTx, depositPos, depositProof := h.deposit(owner, 100)
	args := StartStandardExitArgs{
		UtxoPos:                depositPos,
		OutputTx:               depositTx,
		OutputTxInclusionProof: depositProof,
		Bond:                   testStandardBond,
	}
	exitID, err := h.game.StartStandardExit(owner, &args)
	if err != nil {
		t.Fatalf("unexpected error starting exit: %v", err)
	}

	// Finalize the output as if another exit had paid it out.
	otherID := InFlightExitID([]byte{0x01})
	outputID := plasma.OutputID(depositTx, depositPos)
	if err := h.fw.FlagOutputFinalized(h.game, &outputID, &otherID); err != nil {
		t.Fatalf("unexpected error flagging output: %v", err)
	}

	h.clock.Advance(testMinExitPeriod)
	h.processExits(1)
	if got := h.balance(owner); got != testFunds-testStandardBond {
		t.Fatalf("mismatched owner balance -- got %d, want %d", got,
			testFunds-testStandardBond)
	}
	exit, _ := h.game.StandardExit(&exitID)
	if exit.Exitable {
		t.Fatal("omitted exit is still exitable")
	}
	if by, _ := h.fw.OutputFinalization(&outputID); !by.Eq(&otherID) {
		t.Fatalf("output finalized by %x, want %x", by.Bytes(),
			otherID.Bytes())
	}
}

// TestStandardExitWithdrawalFailure ensures a standard exit whose payout
// fails is left unfinalized and unpaid and is paid by a later attempt.
func TestStandardExitWithdrawalFailure(t *testing.T) {
	h := newTestHarness(t)
	_, owner := testKey(1)
	_, holder := testKey(9)
	h.fund(owner)

	depositTx, depositPos, depositProof := h.deposit(owner, 100)
	exitID, err := h.game.StartStandardExit(owner, &StartStandardExitArgs{
		UtxoPos:                depositPos,
		OutputTx:               depositTx,
		OutputTxInclusionProof: depositProof,
		Bond:                   testStandardBond,
	})
	if err != nil {
		t.Fatalf("unexpected error starting exit: %v", err)
	}

	// Move most funds out of the vault so the payout fails.
	err = h.ledger.TransferUint64(testVaultAddr, holder, plasma.ZeroAddress, 60)
	if err != nil {
		t.Fatalf("unexpected error draining vault: %v", err)
	}
	h.clock.Advance(testMinExitPeriod)
	n, err := h.game.ProcessExits(plasma.ZeroAddress, nil, 1, testProcessor)
	if !errors.Is(err, vault.ErrInsufficientFunds) {
		t.Fatalf("mismatched err -- got %v, want %v", err,
			vault.ErrInsufficientFunds)
	}
	if n != 0 {
		t.Fatalf("processed %d exits, want 0", n)
	}
	exit, _ := h.game.StandardExit(&exitID)
	if !exit.Exitable {
		t.Fatal("exit is no longer exitable after a failed payout")
	}
	if h.fw.IsOutputFinalized(&exit.OutputID) {
		t.Fatal("output finalized after a failed payout")
	}
	if got := h.balance(owner); got != testFunds-testStandardBond {
		t.Fatalf("mismatched owner balance -- got %d, want %d", got,
			testFunds-testStandardBond)
	}
	if got := h.balance(testGameAddr); got != testStandardBond {
		t.Fatalf("exit game holds %d, want %d", got, testStandardBond)
	}

	// The exit is paid once the vault holds the funds again.
	err = h.ledger.TransferUint64(holder, testVaultAddr, plasma.ZeroAddress, 60)
	if err != nil {
		t.Fatalf("unexpected error refilling vault: %v", err)
	}
	if n := h.processExits(1); n != 1 {
		t.Fatalf("processed %d exits, want 1", n)
	}
	bounty := uint64(testStandardBond / 10)
	if got, want := h.balance(owner), testFunds+100-bounty; got != want {
		t.Fatalf("mismatched owner balance -- got %d, want %d", got, want)
	}
	if by, ok := h.fw.OutputFinalization(&exit.OutputID); !ok || !by.Eq(&exitID) {
		t.Fatal("output not finalized by the exit")
	}
	if got := len(h.notificationsOfType(NTExitFinalized)); got != 1 {
		t.Fatalf("got %d exit finalized notifications, want 1", got)
	}
	if got := len(h.notificationsOfType(NTExitOmitted)); got != 0 {
		t.Fatalf("got %d omitted notifications, want 0", got)
	}
}
