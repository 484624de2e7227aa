// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package framework

// AssertError identifies an error that indicates an internal code consistency
// issue and should be treated as a critical and unrecoverable error.
type AssertError string

// Error returns the assertion error as a human-readable string and satisfies
// the error interface.
func (e AssertError) Error() string {
	return "assertion failed: " + string(e)
}

// ErrorKind identifies a kind of error.  It has full support for errors.Is and
// errors.As, so the caller can directly check against an error kind when
// determining the reason for an error.
type ErrorKind string

// These constants are used to identify a specific RuleError.
const (
	// ErrNotAuthority indicates a child block submission by an address other
	// than the authority.
	ErrNotAuthority = ErrorKind("ErrNotAuthority")

	// ErrTooManyDeposits indicates a deposit block submission after every
	// deposit block number of the current child block interval was used.
	ErrTooManyDeposits = ErrorKind("ErrTooManyDeposits")

	// ErrZeroTxType indicates an exit game registration for tx type zero.
	ErrZeroTxType = ErrorKind("ErrZeroTxType")

	// ErrInvalidProtocol indicates an exit game registration with an
	// unknown finalization protocol.
	ErrInvalidProtocol = ErrorKind("ErrInvalidProtocol")

	// ErrExitGameRegistered indicates an exit game registration for a tx
	// type or game that is already registered.
	ErrExitGameRegistered = ErrorKind("ErrExitGameRegistered")

	// ErrExitGameNotRegistered indicates a call from or a lookup of an exit
	// game that is not registered.
	ErrExitGameNotRegistered = ErrorKind("ErrExitGameNotRegistered")

	// ErrExitGameQuarantined indicates a call from an exit game that is
	// still quarantined.
	ErrExitGameQuarantined = ErrorKind("ErrExitGameQuarantined")

	// ErrZeroVaultID indicates a vault registration or exit queue for vault
	// id zero.
	ErrZeroVaultID = ErrorKind("ErrZeroVaultID")

	// ErrVaultRegistered indicates a vault registration for an id or vault
	// that is already registered.
	ErrVaultRegistered = ErrorKind("ErrVaultRegistered")

	// ErrVaultNotRegistered indicates a call from or a lookup of a vault
	// that is not registered.
	ErrVaultNotRegistered = ErrorKind("ErrVaultNotRegistered")

	// ErrVaultQuarantined indicates a call from a vault that is still
	// quarantined.
	ErrVaultQuarantined = ErrorKind("ErrVaultQuarantined")

	// ErrExitQueueExists indicates an attempt to add an exit queue for a
	// vault and token pair that already has one.
	ErrExitQueueExists = ErrorKind("ErrExitQueueExists")

	// ErrNoExitQueue indicates an operation on the exit queue of a vault and
	// token pair that does not have one.
	ErrNoExitQueue = ErrorKind("ErrNoExitQueue")

	// ErrEmptyExitQueue indicates an attempt to process exits of an empty
	// exit queue.
	ErrEmptyExitQueue = ErrorKind("ErrEmptyExitQueue")

	// ErrTopPriorityMismatch indicates the expected top priority passed to
	// exit processing is not the top of the queue.
	ErrTopPriorityMismatch = ErrorKind("ErrTopPriorityMismatch")

	// ErrExitQueueBusy indicates an attempt to process exits of a queue
	// that is already being processed.
	ErrExitQueueBusy = ErrorKind("ErrExitQueueBusy")

	// ErrDuplicateExit indicates an attempt to enqueue an exit with a
	// priority that is already queued.
	ErrDuplicateExit = ErrorKind("ErrDuplicateExit")

	// ErrExitableAtTooLarge indicates an exitable time that does not fit in
	// a priority.
	ErrExitableAtTooLarge = ErrorKind("ErrExitableAtTooLarge")

	// ErrTxPosTooLarge indicates a transaction position that does not fit
	// in a priority.
	ErrTxPosTooLarge = ErrorKind("ErrTxPosTooLarge")

	// ErrExitIDTooLarge indicates an exit id that does not fit in a
	// priority.
	ErrExitIDTooLarge = ErrorKind("ErrExitIDTooLarge")

	// ErrZeroOutputID indicates an attempt to flag the zero output id.
	ErrZeroOutputID = ErrorKind("ErrZeroOutputID")

	// ErrOutputFinalized indicates an attempt to flag an output that is
	// already finalized.
	ErrOutputFinalized = ErrorKind("ErrOutputFinalized")
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
