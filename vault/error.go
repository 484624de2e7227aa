// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package vault

// ErrorKind identifies a kind of error.  It has full support for errors.Is and
// errors.As, so the caller can directly check against an error kind when
// determining the reason for an error.
type ErrorKind string

// These constants are used to identify a specific Error.
const (
	// ErrZeroAmount indicates a transfer or deposit of nothing.
	ErrZeroAmount = ErrorKind("ErrZeroAmount")

	// ErrInsufficientFunds indicates a transfer of more than the balance of
	// the sender.
	ErrInsufficientFunds = ErrorKind("ErrInsufficientFunds")

	// ErrBalanceOverflow indicates a credit or transfer that would overflow
	// the balance of the receiver.
	ErrBalanceOverflow = ErrorKind("ErrBalanceOverflow")

	// ErrNotDepositTx indicates a deposit with a transaction that does not
	// have the shape of a deposit transaction.
	ErrNotDepositTx = ErrorKind("ErrNotDepositTx")

	// ErrWrongOutputType indicates a deposit creating an output that is not
	// a payment output.
	ErrWrongOutputType = ErrorKind("ErrWrongOutputType")

	// ErrNotDepositor indicates a deposit creating an output owned by
	// someone other than the depositor.
	ErrNotDepositor = ErrorKind("ErrNotDepositor")

	// ErrWrongToken indicates a deposit or withdrawal of a token the vault
	// does not hold.
	ErrWrongToken = ErrorKind("ErrWrongToken")
)

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}

// Error identifies an error related to deposits, withdrawals or balances.  It
// has full support for errors.Is and errors.As, so the caller can ascertain
// the specific reason for the error by checking the underlying error.
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
