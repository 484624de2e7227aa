// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package spendcond

import (
	"fmt"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/plasma-network/exitgame/ecrecover"
	"github.com/plasma-network/exitgame/plasma"
	"github.com/plasma-network/exitgame/txwire"
)

// PaymentCondition is the spending condition of payment outputs spent by
// payment transactions.  The witness is the signature of the output owner
// over the signature hash of the spending transaction.
type PaymentCondition struct {
	domain         chainhash.Hash
	inputTxType    uint32
	spendingTxType uint32
}

// Ensure PaymentCondition implements the Condition interface.
var _ Condition = (*PaymentCondition)(nil)

// NewPaymentCondition returns a condition for outputs of transactions of
// inputTxType spent by transactions of spendingTxType that are signed under
// the passed domain.
func NewPaymentCondition(domain *chainhash.Hash, inputTxType, spendingTxType uint32) *PaymentCondition {
	return &PaymentCondition{
		domain:         *domain,
		inputTxType:    inputTxType,
		spendingTxType: spendingTxType,
	}
}

// Verify returns nil when the spending transaction input at inputIndex
// refers to utxoPos and the witness is a signature of the owner of the
// output at utxoPos.  It is part of the Condition interface.
func (c *PaymentCondition) Verify(inputTx []byte, utxoPos plasma.UtxoPos, spendingTx []byte, inputIndex uint16, witness []byte) error {
	in, err := txwire.Decode(inputTx)
	if err != nil {
		return err
	}
	if in.TxType != c.inputTxType {
		str := fmt.Sprintf("input tx type %d is not %d", in.TxType,
			c.inputTxType)
		return makeError(ErrUnexpectedTxType, str)
	}
	spending, err := txwire.Decode(spendingTx)
	if err != nil {
		return err
	}
	if spending.TxType != c.spendingTxType {
		str := fmt.Sprintf("spending tx type %d is not %d", spending.TxType,
			c.spendingTxType)
		return makeError(ErrUnexpectedTxType, str)
	}

	if int(inputIndex) >= len(spending.Inputs) {
		str := fmt.Sprintf("input index %d is out of range for a spending "+
			"tx with %d inputs", inputIndex, len(spending.Inputs))
		return makeError(ErrInputIndex, str)
	}
	if spending.Inputs[inputIndex] != utxoPos {
		str := fmt.Sprintf("spending tx input %d refers to %v, not %v",
			inputIndex, spending.Inputs[inputIndex], utxoPos)
		return makeError(ErrWrongInput, str)
	}

	out, err := in.Output(utxoPos.OutputIndex())
	if err != nil {
		return err
	}
	sigHash := txwire.SigHash(&c.domain, spendingTx)
	signer, err := ecrecover.Recover(&sigHash, witness)
	if err != nil {
		str := fmt.Sprintf("invalid witness: %v", err)
		return makeError(ErrBadSignature, str)
	}
	if signer != out.Owner() {
		str := fmt.Sprintf("spending tx signed by %v, not by the output "+
			"owner %v", signer, out.Owner())
		return makeError(ErrBadSignature, str)
	}
	return nil
}

// PaymentOutputGuardHandler handles payment outputs, whose guard is the
// owner address itself.
type PaymentOutputGuardHandler struct{}

// Ensure PaymentOutputGuardHandler implements the OutputGuardHandler
// interface.
var _ OutputGuardHandler = PaymentOutputGuardHandler{}

// IsValid rejects any preimage since the guard is the owner address.  It is
// part of the OutputGuardHandler interface.
func (PaymentOutputGuardHandler) IsValid(data *OutputGuardData) error {
	if len(data.Preimage) != 0 {
		return makeError(ErrNonEmptyPreimage, "payment output guards do "+
			"not have a preimage")
	}
	return nil
}

// ExitTarget returns the guard.  It is part of the OutputGuardHandler
// interface.
func (PaymentOutputGuardHandler) ExitTarget(data *OutputGuardData) plasma.Address {
	return data.Guard
}

// IsOutputOwner returns whether the passed address is the guard.  It is part
// of the OutputGuardHandler interface.
func (PaymentOutputGuardHandler) IsOutputOwner(data *OutputGuardData, addr plasma.Address) bool {
	return data.Guard == addr
}
