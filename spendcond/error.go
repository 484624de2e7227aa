// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package spendcond

// ErrorKind identifies a kind of error.  It has full support for errors.Is
// and errors.As, so the caller can directly check against an error kind
// when determining the reason for an error.
type ErrorKind string

// These constants are used to identify a specific Error.
const (
	// ErrZeroType indicates a registration for a zero output or
	// transaction type.
	ErrZeroType = ErrorKind("ErrZeroType")

	// ErrAlreadyRegistered indicates a registration for a key that already
	// has an entry.
	ErrAlreadyRegistered = ErrorKind("ErrAlreadyRegistered")

	// ErrRegistryFrozen indicates a registration after the registry was
	// frozen.
	ErrRegistryFrozen = ErrorKind("ErrRegistryFrozen")

	// ErrNotRegistered indicates a lookup for a key without an entry.
	ErrNotRegistered = ErrorKind("ErrNotRegistered")

	// ErrUnexpectedTxType indicates a transaction of a type the condition
	// does not handle.
	ErrUnexpectedTxType = ErrorKind("ErrUnexpectedTxType")

	// ErrInputIndex indicates an input index the spending transaction does
	// not have.
	ErrInputIndex = ErrorKind("ErrInputIndex")

	// ErrWrongInput indicates the spending transaction input at the passed
	// index does not refer to the output being spent.
	ErrWrongInput = ErrorKind("ErrWrongInput")

	// ErrBadSignature indicates the witness is not a signature of the
	// output owner over the spending transaction.
	ErrBadSignature = ErrorKind("ErrBadSignature")

	// ErrNonEmptyPreimage indicates an output guard preimage was supplied
	// for an output type whose guard is the owner address itself.
	ErrNonEmptyPreimage = ErrorKind("ErrNonEmptyPreimage")
)

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}

// Error identifies a failed registration, lookup or verification.  It has
// full support for errors.Is and errors.As, so the caller can ascertain the
// specific reason for the error by checking the underlying error.
type Error struct {
	Err         error
	Description string
}

// Error satisfies the error interface and prints human-readable errors.
func (e Error) Error() string {
	return e.Description
}

// Unwrap returns the underlying wrapped error.
func (e Error) Unwrap() error {
	return e.Err
}

// makeError creates an Error given a set of arguments.
func makeError(kind ErrorKind, desc string) Error {
	return Error{Err: kind, Description: desc}
}
