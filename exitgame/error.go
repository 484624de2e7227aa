// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package exitgame

// ErrorKind identifies a kind of error.  It has full support for errors.Is and
// errors.As, so the caller can directly check against an error kind when
// determining the reason for an error.
type ErrorKind string

// These constants are used to identify a specific RuleError.
const (
	// ErrUnexpectedTxType indicates an exit of a transaction whose type is
	// not the type handled by the exit game.
	ErrUnexpectedTxType = ErrorKind("ErrUnexpectedTxType")

	// ErrNotDepositTx indicates a standard exit of an output in a deposit
	// block whose transaction is not a deposit transaction.
	ErrNotDepositTx = ErrorKind("ErrNotDepositTx")

	// ErrZeroAmount indicates a standard exit of an output with a zero
	// amount.
	ErrZeroAmount = ErrorKind("ErrZeroAmount")

	// ErrNotOutputOwner indicates an operation that only the owner of an
	// output may perform was called by someone else.
	ErrNotOutputOwner = ErrorKind("ErrNotOutputOwner")

	// ErrNotMaintainer indicates a bond update by an address other than the
	// maintainer.
	ErrNotMaintainer = ErrorKind("ErrNotMaintainer")

	// ErrTxNotFinalized indicates a transaction that is not included at the
	// position it claims.
	ErrTxNotFinalized = ErrorKind("ErrTxNotFinalized")

	// ErrBondMismatch indicates a call that did not pay exactly the current
	// bond.
	ErrBondMismatch = ErrorKind("ErrBondMismatch")

	// ErrExitExists indicates an attempt to start an exit whose id is
	// already used.
	ErrExitExists = ErrorKind("ErrExitExists")

	// ErrExitNotFound indicates an operation on an exit that was never
	// started or was deleted.
	ErrExitNotFound = ErrorKind("ErrExitNotFound")

	// ErrExitNotExitable indicates a challenge of a standard exit that was
	// already challenged or processed.
	ErrExitNotExitable = ErrorKind("ErrExitNotExitable")

	// ErrExitFinalized indicates an operation on an in-flight exit that was
	// already processed.
	ErrExitFinalized = ErrorKind("ErrExitFinalized")

	// ErrOutputIDMismatch indicates a challenge referring to an output other
	// than the exiting one.
	ErrOutputIDMismatch = ErrorKind("ErrOutputIDMismatch")

	// ErrInvalidSpend indicates a transaction that does not validly spend
	// the output it is claimed to spend.
	ErrInvalidSpend = ErrorKind("ErrInvalidSpend")

	// ErrSameTx indicates a challenge using the in-flight transaction itself
	// as the competing or spending transaction.
	ErrSameTx = ErrorKind("ErrSameTx")

	// ErrNoInputs indicates an in-flight exit of a transaction without
	// inputs.
	ErrNoInputs = ErrorKind("ErrNoInputs")

	// ErrInputCount indicates an in-flight exit whose input data does not
	// match the number of inputs of the in-flight transaction.
	ErrInputCount = ErrorKind("ErrInputCount")

	// ErrDuplicateInputs indicates an in-flight transaction spending the
	// same output more than once.
	ErrDuplicateInputs = ErrorKind("ErrDuplicateInputs")

	// ErrInputMismatch indicates an input position that is not the one the
	// in-flight transaction spends.
	ErrInputMismatch = ErrorKind("ErrInputMismatch")

	// ErrOverspend indicates an in-flight transaction whose outputs exceed
	// its inputs in some token.
	ErrOverspend = ErrorKind("ErrOverspend")

	// ErrIndexOutOfRange indicates an input or output index beyond those of
	// the in-flight transaction.
	ErrIndexOutOfRange = ErrorKind("ErrIndexOutOfRange")

	// ErrFirstPhaseOver indicates a piggyback or canonicity challenge after
	// the first half of the minimum exit period of an in-flight exit.
	ErrFirstPhaseOver = ErrorKind("ErrFirstPhaseOver")

	// ErrFirstPhaseNotOver indicates an attempt to delete an in-flight exit
	// during the first phase.
	ErrFirstPhaseNotOver = ErrorKind("ErrFirstPhaseNotOver")

	// ErrAlreadyPiggybacked indicates a piggyback on an input or output
	// that is already piggybacked.
	ErrAlreadyPiggybacked = ErrorKind("ErrAlreadyPiggybacked")

	// ErrNotPiggybacked indicates a challenge of an input or output that is
	// not piggybacked.
	ErrNotPiggybacked = ErrorKind("ErrNotPiggybacked")

	// ErrPiggybacked indicates an attempt to delete an in-flight exit that
	// has piggybacks.
	ErrPiggybacked = ErrorKind("ErrPiggybacked")

	// ErrExitQueued indicates an attempt to delete an in-flight exit that
	// still has entries in an exit queue.
	ErrExitQueued = ErrorKind("ErrExitQueued")

	// ErrCompetitorNotOlder indicates a canonicity challenge with a
	// competitor that is not older than the oldest known competitor.
	ErrCompetitorNotOlder = ErrorKind("ErrCompetitorNotOlder")

	// ErrResponseNotOlder indicates a response to a canonicity challenge
	// with a position that is not older than the oldest competitor.
	ErrResponseNotOlder = ErrorKind("ErrResponseNotOlder")
)

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}

// RuleError identifies a rule violation.  It has full support for errors.Is
// and errors.As, so the caller can ascertain the specific reason for the
// error by checking the underlying error.
type RuleError struct {
	Err         error
	Description string
}

// Error satisfies the error interface and prints human-readable errors.
func (e RuleError) Error() string {
	return e.Description
}

// Unwrap returns the underlying wrapped error.
func (e RuleError) Unwrap() error {
	return e.Err
}

// ruleError creates a RuleError given a set of arguments.
func ruleError(kind ErrorKind, desc string) RuleError {
	return RuleError{Err: kind, Description: desc}
}
