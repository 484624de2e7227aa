// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package exitgame

import (
	"testing"
	"time"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/math/uint256"
	"github.com/plasma-network/exitgame/ecrecover"
	"github.com/plasma-network/exitgame/framework"
	"github.com/plasma-network/exitgame/merkle"
	"github.com/plasma-network/exitgame/plasma"
	"github.com/plasma-network/exitgame/spendcond"
	"github.com/plasma-network/exitgame/txfinality"
	"github.com/plasma-network/exitgame/txwire"
	"github.com/plasma-network/exitgame/vault"
)

const (
	// testMinExitPeriod is the minimum exit period used throughout the
	// tests.
	testMinExitPeriod = 7 * 24 * time.Hour

	// testStandardBond, testIFEBond and testPiggybackBond are the initial
	// bonds of the test exit games.  Each bounty is a tenth of its bond.
	testStandardBond  = 1000
	testIFEBond       = 2000
	testPiggybackBond = 500

	// testFunds is how much of the native token every test account holds
	// for paying bonds.
	testFunds = 1000000
)

var (
	// testStart is the initial time of the test clocks.
	testStart = time.Unix(1700000000, 0)

	// testDomain is the signature domain used throughout the tests.
	testDomain = chainhash.Hash{0xd0}

	// Fixed accounts of the test harness.
	testAuthority  = plasma.Address{0xaa}
	testMaintainer = plasma.Address{0xab}
	testGameAddr   = plasma.Address{0xac}
	testVaultAddr  = plasma.Address{0xad}
	testProcessor  = plasma.Address{0xae}
)

// testKey returns a deterministic private key derived from the passed seed
// along with its address.
func testKey(seed byte) (*secp256k1.PrivateKey, plasma.Address) {
	var b [32]byte
	b[31] = seed
	priv := secp256k1.PrivKeyFromBytes(b[:])
	return priv, ecrecover.PubKeyToAddress(priv.PubKey())
}

// amount returns the passed value as a uint256.
func amount(v uint64) uint256.Uint256 {
	return *new(uint256.Uint256).SetUint64(v)
}

// mustBytes serializes the passed transaction and panics on error.
func mustBytes(tx *txwire.Transaction) []byte {
	b, err := tx.Bytes()
	if err != nil {
		panic(err)
	}
	return b
}

// mustUtxoPos returns the passed position and panics on error.
func mustUtxoPos(blockNum uint64, txIndex uint32, outputIndex uint16) plasma.UtxoPos {
	pos, err := plasma.NewUtxoPos(blockNum, txIndex, outputIndex)
	if err != nil {
		panic(err)
	}
	return pos
}

// paymentOutput returns a native token payment output.
func paymentOutput(owner plasma.Address, value uint64) txwire.Output {
	return txwire.Output{
		OutputType:  txwire.PaymentOutputType,
		OutputGuard: owner,
		Amount:      amount(value),
	}
}

// paymentTx returns the serialized payment transaction spending the passed
// inputs.
func paymentTx(inputs []plasma.UtxoPos, outputs ...txwire.Output) []byte {
	return mustBytes(&txwire.Transaction{
		TxType:  txwire.PaymentTxType,
		Inputs:  inputs,
		Outputs: outputs,
	})
}

// sign returns the signature of the passed key over the passed transaction.
func sign(key *secp256k1.PrivateKey, txBytes []byte) []byte {
	sigHash := txwire.SigHash(&testDomain, txBytes)
	return ecrecover.Sign(key, &sigHash)
}

// testHarness houses an exit game together with the framework, ledger and
// vault it works with and the notifications sent so far.
type testHarness struct {
	t             *testing.T
	clock         *framework.ManualClock
	fw            *framework.Framework
	ledger        *vault.Ledger
	vault         *vault.Vault
	game          *Game
	notifications []*Notification
}

// newTestHarness returns an exit game for payment transactions registered
// with a new framework along with an eth vault.
func newTestHarness(t *testing.T) *testHarness {
	t.Helper()

	h := &testHarness{
		t:      t,
		clock:  framework.NewManualClock(testStart),
		ledger: vault.NewLedger(),
	}
	fw, err := framework.New(&framework.Config{
		Authority:              testAuthority,
		MinExitPeriod:          testMinExitPeriod,
		InitialImmuneExitGames: 1,
		InitialImmuneVaults:    1,
		Clock:                  h.clock,
	})
	if err != nil {
		t.Fatalf("unexpected error creating framework: %v", err)
	}
	h.fw = fw

	h.vault, err = vault.New(&vault.Config{
		Kind:      vault.KindEth,
		Address:   testVaultAddr,
		Framework: fw,
		Ledger:    h.ledger,
	})
	if err != nil {
		t.Fatalf("unexpected error creating vault: %v", err)
	}

	registry := spendcond.NewRegistry()
	cond := spendcond.NewPaymentCondition(&testDomain, txwire.PaymentTxType,
		txwire.PaymentTxType)
	err = registry.RegisterSpendingCondition(txwire.PaymentOutputType,
		txwire.PaymentTxType, cond)
	if err != nil {
		t.Fatalf("unexpected error registering spending condition: %v", err)
	}
	err = registry.RegisterOutputGuardHandler(txwire.PaymentOutputType,
		spendcond.PaymentOutputGuardHandler{})
	if err != nil {
		t.Fatalf("unexpected error registering guard handler: %v", err)
	}
	registry.Freeze()

	h.game, err = New(&Config{
		Framework:  fw,
		Registry:   registry,
		Ledger:     h.ledger,
		Address:    testGameAddr,
		Maintainer: testMaintainer,
		TxType:     txwire.PaymentTxType,
		Bonds: [numBondKinds]BondConfig{
			StartStandardExitBond: {testStandardBond, testStandardBond / 10},
			StartInFlightExitBond: {testIFEBond, testIFEBond / 10},
			PiggybackBond:         {testPiggybackBond, testPiggybackBond / 10},
		},
		Notifications: func(n *Notification) {
			h.notifications = append(h.notifications, n)
		},
	})
	if err != nil {
		t.Fatalf("unexpected error creating exit game: %v", err)
	}

	err = fw.RegisterExitGame(txwire.PaymentTxType, h.game,
		txfinality.ProtocolMoreVP)
	if err != nil {
		t.Fatalf("unexpected error registering exit game: %v", err)
	}
	if err := fw.RegisterVault(framework.EthVaultID, h.vault); err != nil {
		t.Fatalf("unexpected error registering vault: %v", err)
	}
	err = fw.AddExitQueue(framework.EthVaultID, plasma.ZeroAddress)
	if err != nil {
		t.Fatalf("unexpected error adding exit queue: %v", err)
	}
	return h
}

// fund credits the passed account with testFunds of the native token.
func (h *testHarness) fund(account plasma.Address) {
	h.t.Helper()
	v := amount(testFunds)
	if err := h.ledger.Credit(account, plasma.ZeroAddress, &v); err != nil {
		h.t.Fatalf("unexpected error funding %v: %v", account, err)
	}
}

// balance returns the native token balance of the passed account as a
// uint64.
func (h *testHarness) balance(account plasma.Address) uint64 {
	b := h.ledger.Balance(account, plasma.ZeroAddress)
	return b.Uint64()
}

// deposit credits the owner with the passed value, deposits it and returns
// the deposit transaction, its position and its inclusion proof.
func (h *testHarness) deposit(owner plasma.Address, value uint64) ([]byte, plasma.UtxoPos, []byte) {
	h.t.Helper()
	v := amount(value)
	if err := h.ledger.Credit(owner, plasma.ZeroAddress, &v); err != nil {
		h.t.Fatalf("unexpected error crediting %v: %v", owner, err)
	}
	depositTx := mustBytes(txwire.NewDepositTx(owner, plasma.ZeroAddress, &v))
	blockNum, err := h.vault.Deposit(owner, depositTx)
	if err != nil {
		h.t.Fatalf("unexpected error depositing: %v", err)
	}
	proof, err := vault.DepositProof(depositTx)
	if err != nil {
		h.t.Fatalf("unexpected error creating deposit proof: %v", err)
	}
	return depositTx, mustUtxoPos(blockNum, 0, 0), proof
}

// submitBlock submits a child block with the passed transactions and returns
// its number along with an inclusion proof per transaction.
func (h *testHarness) submitBlock(txs ...[]byte) (uint64, [][]byte) {
	h.t.Helper()
	tree, err := merkle.NewTree(txs, plasma.TxMerkleHeight)
	if err != nil {
		h.t.Fatalf("unexpected error creating tree: %v", err)
	}
	root := tree.Root()
	blockNum, err := h.fw.SubmitBlock(testAuthority, &root)
	if err != nil {
		h.t.Fatalf("unexpected error submitting block: %v", err)
	}
	proofs := make([][]byte, len(txs))
	for i := range txs {
		proofs[i], err = tree.Proof(uint64(i))
		if err != nil {
			h.t.Fatalf("unexpected error creating proof: %v", err)
		}
	}
	return blockNum, proofs
}

// processExits processes up to max exits of the native token on behalf of
// testProcessor.
func (h *testHarness) processExits(maxToProcess int) int {
	h.t.Helper()
	n, err := h.game.ProcessExits(plasma.ZeroAddress, nil, maxToProcess,
		testProcessor)
	if err != nil {
		h.t.Fatalf("unexpected error processing exits: %v", err)
	}
	return n
}

// notificationsOfType returns the notifications of the passed type sent so
// far.
func (h *testHarness) notificationsOfType(typ NotificationType) []*Notification {
	var ntfns []*Notification
	for _, n := range h.notifications {
		if n.Type == typ {
			ntfns = append(ntfns, n)
		}
	}
	return ntfns
}
