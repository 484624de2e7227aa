// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package spendcond

import (
	"errors"
	"testing"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/math/uint256"
	"github.com/plasma-network/exitgame/ecrecover"
	"github.com/plasma-network/exitgame/plasma"
	"github.com/plasma-network/exitgame/txwire"
)

// testDomain is the signature domain used throughout the tests.
var testDomain = chainhash.Hash{0xd0}

// testKey returns a deterministic private key derived from the passed seed
// along with its address.
func testKey(seed byte) (*secp256k1.PrivateKey, plasma.Address) {
	var b [32]byte
	b[31] = seed
	priv := secp256k1.PrivKeyFromBytes(b[:])
	return priv, ecrecover.PubKeyToAddress(priv.PubKey())
}

// mustBytes serializes the passed transaction and panics on error.
func mustBytes(tx *txwire.Transaction) []byte {
	b, err := tx.Bytes()
	if err != nil {
		panic(err)
	}
	return b
}

// spendFixture houses a deposit, a transaction spending it and the
// signature of the deposit owner over the spending transaction.
type spendFixture struct {
	depositTx  []byte
	depositPos plasma.UtxoPos
	spendTx    []byte
	signature  []byte
}

// newSpendFixture returns a fixture where the owner of the seed key deposits
// and then pays the other address.
func newSpendFixture(ownerSeed byte, to plasma.Address) *spendFixture {
	ownerKey, owner := testKey(ownerSeed)
	deposit := txwire.NewDepositTx(owner, plasma.ZeroAddress,
		new(uint256.Uint256).SetUint64(100))
	depositPos, err := plasma.NewUtxoPos(1, 0, 0)
	if err != nil {
		panic(err)
	}
	spend := &txwire.Transaction{
		TxType: txwire.PaymentTxType,
		Inputs: []plasma.UtxoPos{depositPos},
		Outputs: []txwire.Output{{
			OutputType:  txwire.PaymentOutputType,
			OutputGuard: to,
			Amount:      *new(uint256.Uint256).SetUint64(100),
		}},
	}
	spendTx := mustBytes(spend)
	sigHash := txwire.SigHash(&testDomain, spendTx)
	return &spendFixture{
		depositTx:  mustBytes(deposit),
		depositPos: depositPos,
		spendTx:    spendTx,
		signature:  ecrecover.Sign(ownerKey, &sigHash),
	}
}

// TestPaymentConditionVerify ensures the payment condition accepts only
// spends of the right output signed by its owner.
func TestPaymentConditionVerify(t *testing.T) {
	_, receiver := testKey(2)
	fix := newSpendFixture(1, receiver)
	cond := NewPaymentCondition(&testDomain, txwire.PaymentTxType,
		txwire.PaymentTxType)

	if err := cond.Verify(fix.depositTx, fix.depositPos, fix.spendTx, 0,
		fix.signature); err != nil {
		t.Fatalf("valid spend rejected: %v", err)
	}

	// Signed by somebody other than the owner.
	otherKey, _ := testKey(3)
	sigHash := txwire.SigHash(&testDomain, fix.spendTx)
	otherSig := ecrecover.Sign(otherKey, &sigHash)

	// Signed under another domain.
	otherDomain := chainhash.Hash{0xd1}
	otherDomainHash := txwire.SigHash(&otherDomain, fix.spendTx)
	ownerKey, _ := testKey(1)
	otherDomainSig := ecrecover.Sign(ownerKey, &otherDomainHash)

	otherPos, err := plasma.NewUtxoPos(2, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name       string
		cond       *PaymentCondition
		utxoPos    plasma.UtxoPos
		inputIndex uint16
		witness    []byte
		wantErr    error
	}{{
		name:    "wrong signer",
		cond:    cond,
		utxoPos: fix.depositPos,
		witness: otherSig,
		wantErr: ErrBadSignature,
	}, {
		name:    "wrong domain",
		cond:    cond,
		utxoPos: fix.depositPos,
		witness: otherDomainSig,
		wantErr: ErrBadSignature,
	}, {
		name:    "malformed witness",
		cond:    cond,
		utxoPos: fix.depositPos,
		witness: []byte{0x01},
		wantErr: ErrBadSignature,
	}, {
		name:    "wrong position",
		cond:    cond,
		utxoPos: otherPos,
		witness: fix.signature,
		wantErr: ErrWrongInput,
	}, {
		name:       "input index out of range",
		cond:       cond,
		utxoPos:    fix.depositPos,
		inputIndex: 1,
		witness:    fix.signature,
		wantErr:    ErrInputIndex,
	}, {
		name: "unexpected spending tx type",
		cond: NewPaymentCondition(&testDomain, txwire.PaymentTxType,
			txwire.PaymentTxType+1),
		utxoPos: fix.depositPos,
		witness: fix.signature,
		wantErr: ErrUnexpectedTxType,
	}, {
		name: "unexpected input tx type",
		cond: NewPaymentCondition(&testDomain, txwire.PaymentTxType+1,
			txwire.PaymentTxType),
		utxoPos: fix.depositPos,
		witness: fix.signature,
		wantErr: ErrUnexpectedTxType,
	}}

	for _, test := range tests {
		err := test.cond.Verify(fix.depositTx, test.utxoPos, fix.spendTx,
			test.inputIndex, test.witness)
		if !errors.Is(err, test.wantErr) {
			t.Errorf("%q: mismatched err -- got %v, want %v", test.name, err,
				test.wantErr)
		}
	}

	// Malformed transactions are rejected by the codec.
	err = cond.Verify([]byte{0x01}, fix.depositPos, fix.spendTx, 0,
		fix.signature)
	if !errors.Is(err, txwire.ErrMalformedTx) {
		t.Fatalf("mismatched err -- got %v, want %v", err,
			txwire.ErrMalformedTx)
	}
}

// TestRegistry ensures registrations are unique, frozen registries reject
// registrations and lookups find registered entries.
func TestRegistry(t *testing.T) {
	r := NewRegistry()
	cond := NewPaymentCondition(&testDomain, 1, 1)

	if err := r.RegisterSpendingCondition(1, 1, cond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := r.RegisterSpendingCondition(1, 1, cond)
	if !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("mismatched err -- got %v, want %v", err,
			ErrAlreadyRegistered)
	}
	err = r.RegisterSpendingCondition(0, 1, cond)
	if !errors.Is(err, ErrZeroType) {
		t.Fatalf("mismatched err -- got %v, want %v", err, ErrZeroType)
	}
	if err := r.RegisterOutputGuardHandler(1, PaymentOutputGuardHandler{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = r.RegisterOutputGuardHandler(1, PaymentOutputGuardHandler{})
	if !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("mismatched err -- got %v, want %v", err,
			ErrAlreadyRegistered)
	}

	r.Freeze()
	err = r.RegisterSpendingCondition(1, 2, cond)
	if !errors.Is(err, ErrRegistryFrozen) {
		t.Fatalf("mismatched err -- got %v, want %v", err, ErrRegistryFrozen)
	}
	err = r.RegisterOutputGuardHandler(2, PaymentOutputGuardHandler{})
	if !errors.Is(err, ErrRegistryFrozen) {
		t.Fatalf("mismatched err -- got %v, want %v", err, ErrRegistryFrozen)
	}

	got, err := r.SpendingCondition(1, 1)
	if err != nil || got != Condition(cond) {
		t.Fatalf("unexpected lookup result %v (err %v)", got, err)
	}
	if _, err := r.SpendingCondition(1, 2); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("mismatched err -- got %v, want %v", err, ErrNotRegistered)
	}
	if _, err := r.OutputGuardHandler(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := r.OutputGuardHandler(2); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("mismatched err -- got %v, want %v", err, ErrNotRegistered)
	}
}

// TestPaymentOutputGuardHandler ensures the payment guard is the owner.
func TestPaymentOutputGuardHandler(t *testing.T) {
	_, owner := testKey(1)
	_, other := testKey(2)
	var h PaymentOutputGuardHandler
	data := &OutputGuardData{OutputType: 1, Guard: owner}

	if err := h.IsValid(data); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.ExitTarget(data) != owner {
		t.Fatalf("unexpected exit target %v", h.ExitTarget(data))
	}
	if !h.IsOutputOwner(data, owner) || h.IsOutputOwner(data, other) {
		t.Fatal("unexpected ownership result")
	}

	data.Preimage = []byte{0x01}
	if err := h.IsValid(data); !errors.Is(err, ErrNonEmptyPreimage) {
		t.Fatalf("mismatched err -- got %v, want %v", err,
			ErrNonEmptyPreimage)
	}
}

// TestErrorKindStringer tests the stringized output for the ErrorKind type.
func TestErrorKindStringer(t *testing.T) {
	tests := []struct {
		in   ErrorKind
		want string
	}{
		{ErrZeroType, "ErrZeroType"},
		{ErrAlreadyRegistered, "ErrAlreadyRegistered"},
		{ErrRegistryFrozen, "ErrRegistryFrozen"},
		{ErrNotRegistered, "ErrNotRegistered"},
		{ErrUnexpectedTxType, "ErrUnexpectedTxType"},
		{ErrInputIndex, "ErrInputIndex"},
		{ErrWrongInput, "ErrWrongInput"},
		{ErrBadSignature, "ErrBadSignature"},
		{ErrNonEmptyPreimage, "ErrNonEmptyPreimage"},
	}

	for i, test := range tests {
		result := test.in.Error()
		if result != test.want {
			t.Errorf("#%d: got: %s want: %s", i, result, test.want)
			continue
		}
	}
}
