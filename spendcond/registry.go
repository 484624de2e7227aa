// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package spendcond decides whether a transaction spends an output.
//
// Spending conditions are looked up by the type of the spent output and the
// type of the spending transaction.  Output guard handlers interpret the
// guard of an output by output type.  Both live in a Registry that is filled
// once during setup and frozen before it is handed to the exit games.
package spendcond

import (
	"fmt"

	"github.com/plasma-network/exitgame/plasma"
)

// Condition verifies that a spending transaction spends an output.
type Condition interface {
	// Verify returns nil when the input of spendingTx at inputIndex spends
	// the output of inputTx at utxoPos as authorized by the witness.
	Verify(inputTx []byte, utxoPos plasma.UtxoPos, spendingTx []byte,
		inputIndex uint16, witness []byte) error
}

// OutputGuardData houses the guard of an output along with the data needed
// to interpret it.
type OutputGuardData struct {
	OutputType uint32
	Guard      plasma.Address
	Preimage   []byte
}

// OutputGuardHandler interprets the guards of one output type.
type OutputGuardHandler interface {
	// IsValid returns nil when the guard data is well formed.
	IsValid(data *OutputGuardData) error

	// ExitTarget returns the address that exited funds are paid to.
	ExitTarget(data *OutputGuardData) plasma.Address

	// IsOutputOwner returns whether the passed address owns the output.
	IsOutputOwner(data *OutputGuardData, addr plasma.Address) bool
}

// conditionKey identifies a spending condition.
type conditionKey struct {
	outputType     uint32
	spendingTxType uint32
}

// Registry maps output and transaction types to the spending conditions and
// output guard handlers that apply to them.
//
// Registration is not safe for concurrent access.  Once frozen the registry
// is read only and may be shared freely.
type Registry struct {
	conditions map[conditionKey]Condition
	guards     map[uint32]OutputGuardHandler
	frozen     bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		conditions: make(map[conditionKey]Condition),
		guards:     make(map[uint32]OutputGuardHandler),
	}
}

// RegisterSpendingCondition registers the condition that applies when an
// output of the passed type is spent by a transaction of the passed type.
func (r *Registry) RegisterSpendingCondition(outputType, spendingTxType uint32, c Condition) error {
	if r.frozen {
		return makeError(ErrRegistryFrozen, "registry is frozen")
	}
	if outputType == 0 || spendingTxType == 0 {
		str := fmt.Sprintf("output type %d and spending tx type %d must "+
			"not be zero", outputType, spendingTxType)
		return makeError(ErrZeroType, str)
	}
	key := conditionKey{outputType: outputType, spendingTxType: spendingTxType}
	if _, ok := r.conditions[key]; ok {
		str := fmt.Sprintf("spending condition for output type %d and "+
			"spending tx type %d already registered", outputType,
			spendingTxType)
		return makeError(ErrAlreadyRegistered, str)
	}
	r.conditions[key] = c
	return nil
}

// RegisterOutputGuardHandler registers the guard handler of the passed
// output type.
func (r *Registry) RegisterOutputGuardHandler(outputType uint32, h OutputGuardHandler) error {
	if r.frozen {
		return makeError(ErrRegistryFrozen, "registry is frozen")
	}
	if outputType == 0 {
		return makeError(ErrZeroType, "output type must not be zero")
	}
	if _, ok := r.guards[outputType]; ok {
		str := fmt.Sprintf("output guard handler for output type %d "+
			"already registered", outputType)
		return makeError(ErrAlreadyRegistered, str)
	}
	r.guards[outputType] = h
	return nil
}

// Freeze prevents any further registration.
func (r *Registry) Freeze() {
	r.frozen = true
}

// SpendingCondition returns the condition registered for the passed output
// and spending transaction types.
func (r *Registry) SpendingCondition(outputType, spendingTxType uint32) (Condition, error) {
	key := conditionKey{outputType: outputType, spendingTxType: spendingTxType}
	c, ok := r.conditions[key]
	if !ok {
		str := fmt.Sprintf("no spending condition registered for output "+
			"type %d and spending tx type %d", outputType, spendingTxType)
		return nil, makeError(ErrNotRegistered, str)
	}
	return c, nil
}

// OutputGuardHandler returns the guard handler registered for the passed
// output type.
func (r *Registry) OutputGuardHandler(outputType uint32) (OutputGuardHandler, error) {
	h, ok := r.guards[outputType]
	if !ok {
		str := fmt.Sprintf("no output guard handler registered for output "+
			"type %d", outputType)
		return nil, makeError(ErrNotRegistered, str)
	}
	return h, nil
}
