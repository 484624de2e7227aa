// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txwire

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/decred/dcrd/math/uint256"
	"github.com/decred/dcrd/wire"
	"github.com/plasma-network/exitgame/plasma"
)

const (
	// MaxInputs is the maximum number of inputs a transaction may have.
	MaxInputs = 4

	// MaxOutputs is the maximum number of outputs a transaction may have.
	MaxOutputs = 4

	// PaymentTxType is the transaction type of payment transactions.
	PaymentTxType = 1

	// PaymentOutputType is the output type of payment outputs.
	PaymentOutputType = 1

	// amountSize is the size of a serialized output amount.
	amountSize = 32

	// wirePver is the protocol version passed to the wire primitives.  The
	// varint encoding does not depend on it.
	wirePver = 0
)

// Output is a single payment output.  The output guard is the address of the
// owner for payment outputs.
type Output struct {
	OutputType  uint32
	OutputGuard plasma.Address
	Token       plasma.Address
	Amount      uint256.Uint256
}

// Owner returns the owner of the output.
func (o *Output) Owner() plasma.Address {
	return o.OutputGuard
}

// Transaction is a child chain payment transaction.
type Transaction struct {
	TxType   uint32
	Inputs   []plasma.UtxoPos
	Outputs  []Output
	TxData   uint64
	MetaData chainhash.Hash
}

// NewDepositTx returns a deposit transaction that creates a single payment
// output for the passed owner.
func NewDepositTx(owner, token plasma.Address, amount *uint256.Uint256) *Transaction {
	return &Transaction{
		TxType: PaymentTxType,
		Outputs: []Output{{
			OutputType:  PaymentOutputType,
			OutputGuard: owner,
			Token:       token,
			Amount:      *amount,
		}},
	}
}

// IsDeposit returns whether the transaction has the shape of a deposit
// transaction, which is no inputs and exactly one output.
func (tx *Transaction) IsDeposit() bool {
	return len(tx.Inputs) == 0 && len(tx.Outputs) == 1
}

// Output returns the output at the passed index.
func (tx *Transaction) Output(index uint16) (*Output, error) {
	if int(index) >= len(tx.Outputs) {
		str := fmt.Sprintf("output index %d is out of range for a "+
			"transaction with %d outputs", index, len(tx.Outputs))
		return nil, makeError(ErrOutputIndex, str)
	}
	return &tx.Outputs[index], nil
}

// CheckSanity performs the context free checks every transaction must pass
// before it is serialized or after it is decoded.
func (tx *Transaction) CheckSanity() error {
	if tx.TxType == 0 {
		return makeError(ErrZeroTxType, "transaction type must not be zero")
	}
	if len(tx.Inputs) > MaxInputs {
		str := fmt.Sprintf("transaction has %d inputs, max %d",
			len(tx.Inputs), MaxInputs)
		return makeError(ErrTooManyInputs, str)
	}
	if len(tx.Outputs) == 0 {
		return makeError(ErrNoOutputs, "transaction has no outputs")
	}
	if len(tx.Outputs) > MaxOutputs {
		str := fmt.Sprintf("transaction has %d outputs, max %d",
			len(tx.Outputs), MaxOutputs)
		return makeError(ErrTooManyOutputs, str)
	}
	for i, in := range tx.Inputs {
		if in == 0 {
			str := fmt.Sprintf("input %d refers to the zero position", i)
			return makeError(ErrZeroInput, str)
		}
	}
	for i := range tx.Outputs {
		out := &tx.Outputs[i]
		if out.OutputType == 0 {
			str := fmt.Sprintf("output %d has a zero output type", i)
			return makeError(ErrZeroOutputType, str)
		}
		if out.Amount.IsZero() {
			str := fmt.Sprintf("output %d has a zero amount", i)
			return makeError(ErrZeroOutputAmount, str)
		}
	}
	if tx.TxData != 0 {
		str := fmt.Sprintf("transaction data must be zero, got %d",
			tx.TxData)
		return makeError(ErrNonZeroTxData, str)
	}
	return nil
}

// SerializeSize returns the number of bytes it would take to serialize the
// transaction.
func (tx *Transaction) SerializeSize() int {
	n := wire.VarIntSerializeSize(uint64(tx.TxType)) +
		wire.VarIntSerializeSize(uint64(len(tx.Inputs))) +
		wire.VarIntSerializeSize(uint64(len(tx.Outputs))) +
		wire.VarIntSerializeSize(tx.TxData) + chainhash.HashSize
	for _, in := range tx.Inputs {
		n += wire.VarIntSerializeSize(uint64(in))
	}
	for i := range tx.Outputs {
		n += wire.VarIntSerializeSize(uint64(tx.Outputs[i].OutputType)) +
			2*plasma.AddressSize + amountSize
	}
	return n
}

// Serialize encodes the transaction to w.
func (tx *Transaction) Serialize(w io.Writer) error {
	if err := tx.CheckSanity(); err != nil {
		return err
	}

	if err := wire.WriteVarInt(w, wirePver, uint64(tx.TxType)); err != nil {
		return err
	}
	if err := wire.WriteVarInt(w, wirePver, uint64(len(tx.Inputs))); err != nil {
		return err
	}
	for _, in := range tx.Inputs {
		if err := wire.WriteVarInt(w, wirePver, uint64(in)); err != nil {
			return err
		}
	}
	if err := wire.WriteVarInt(w, wirePver, uint64(len(tx.Outputs))); err != nil {
		return err
	}
	for i := range tx.Outputs {
		if err := writeOutput(w, &tx.Outputs[i]); err != nil {
			return err
		}
	}
	if err := wire.WriteVarInt(w, wirePver, tx.TxData); err != nil {
		return err
	}
	_, err := w.Write(tx.MetaData[:])
	return err
}

// Bytes returns the serialized transaction.
func (tx *Transaction) Bytes() ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, tx.SerializeSize()))
	if err := tx.Serialize(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeOutput encodes a single output to w.
func writeOutput(w io.Writer, out *Output) error {
	if err := wire.WriteVarInt(w, wirePver, uint64(out.OutputType)); err != nil {
		return err
	}
	if _, err := w.Write(out.OutputGuard[:]); err != nil {
		return err
	}
	if _, err := w.Write(out.Token[:]); err != nil {
		return err
	}
	amount := out.Amount.Bytes()
	_, err := w.Write(amount[:])
	return err
}

// readOutput decodes a single output from r.
func readOutput(r io.Reader, out *Output) error {
	outputType, err := readVarUint32(r, "output type")
	if err != nil {
		return err
	}
	out.OutputType = outputType
	if _, err := io.ReadFull(r, out.OutputGuard[:]); err != nil {
		return err
	}
	if _, err := io.ReadFull(r, out.Token[:]); err != nil {
		return err
	}
	var amount [amountSize]byte
	if _, err := io.ReadFull(r, amount[:]); err != nil {
		return err
	}
	out.Amount.SetBytes(&amount)
	return nil
}

// readVarUint32 reads a varint that must fit in 32 bits.
func readVarUint32(r io.Reader, fieldName string) (uint32, error) {
	v, err := wire.ReadVarInt(r, wirePver)
	if err != nil {
		return 0, err
	}
	if v > 0xffffffff {
		str := fmt.Sprintf("%s %d does not fit in 32 bits", fieldName, v)
		return 0, makeError(ErrMalformedTx, str)
	}
	return uint32(v), nil
}

// readCount reads a varint element count bounded by max.
func readCount(r io.Reader, max uint64, kind ErrorKind, fieldName string) (int, error) {
	count, err := wire.ReadVarInt(r, wirePver)
	if err != nil {
		return 0, err
	}
	if count > max {
		str := fmt.Sprintf("%s %d exceeds max %d", fieldName, count, max)
		return 0, makeError(kind, str)
	}
	return int(count), nil
}

// decode reads a transaction from r without the trailing data check.
func decode(r io.Reader) (*Transaction, error) {
	var tx Transaction
	txType, err := readVarUint32(r, "tx type")
	if err != nil {
		return nil, err
	}
	tx.TxType = txType

	numInputs, err := readCount(r, MaxInputs, ErrTooManyInputs, "input count")
	if err != nil {
		return nil, err
	}
	if numInputs > 0 {
		tx.Inputs = make([]plasma.UtxoPos, numInputs)
		for i := range tx.Inputs {
			in, err := wire.ReadVarInt(r, wirePver)
			if err != nil {
				return nil, err
			}
			tx.Inputs[i] = plasma.UtxoPos(in)
		}
	}

	numOutputs, err := readCount(r, MaxOutputs, ErrTooManyOutputs,
		"output count")
	if err != nil {
		return nil, err
	}
	tx.Outputs = make([]Output, numOutputs)
	for i := range tx.Outputs {
		if err := readOutput(r, &tx.Outputs[i]); err != nil {
			return nil, err
		}
	}

	if tx.TxData, err = wire.ReadVarInt(r, wirePver); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(r, tx.MetaData[:]); err != nil {
		return nil, err
	}
	return &tx, nil
}

// Decode parses a serialized transaction.  Any encoding other than the
// canonical one produced by Serialize is rejected.
func Decode(b []byte) (*Transaction, error) {
	r := bytes.NewReader(b)
	tx, err := decode(r)
	if err != nil {
		var kind ErrorKind
		if errors.As(err, &kind) {
			return nil, err
		}
		str := fmt.Sprintf("malformed transaction: %v", err)
		return nil, makeError(ErrMalformedTx, str)
	}
	if r.Len() != 0 {
		str := fmt.Sprintf("transaction has %d trailing bytes", r.Len())
		return nil, makeError(ErrTrailingBytes, str)
	}
	if err := tx.CheckSanity(); err != nil {
		return nil, err
	}
	return tx, nil
}

// TxTypeOf returns the transaction type of a serialized transaction without
// decoding the rest of it.
func TxTypeOf(b []byte) (uint32, error) {
	txType, err := readVarUint32(bytes.NewReader(b), "tx type")
	if err != nil {
		var kind ErrorKind
		if errors.As(err, &kind) {
			return 0, err
		}
		str := fmt.Sprintf("malformed transaction type: %v", err)
		return 0, makeError(ErrMalformedTx, str)
	}
	return txType, nil
}

// IsDepositTx returns whether the serialized transaction decodes to a
// deposit shaped transaction.
func IsDepositTx(b []byte) bool {
	tx, err := Decode(b)
	return err == nil && tx.IsDeposit()
}

// SigHash returns the hash that the owners of the inputs of the passed
// serialized transaction sign.  The domain separator binds signatures to a
// single deployment.
func SigHash(domain *chainhash.Hash, txBytes []byte) chainhash.Hash {
	txHash := plasma.Keccak256(txBytes)
	return plasma.Keccak256([]byte{0x19, 0x01}, domain[:], txHash[:])
}
