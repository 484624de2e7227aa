// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txwire

// ErrorKind identifies a kind of error.  It has full support for errors.Is
// and errors.As, so the caller can directly check against an error kind
// when determining the reason for an error.
type ErrorKind string

// These constants are used to identify a specific Error.
const (
	// ErrMalformedTx indicates the serialized transaction could not be
	// decoded, for example because it is truncated or uses a non-canonical
	// variable length integer.
	ErrMalformedTx = ErrorKind("ErrMalformedTx")

	// ErrTrailingBytes indicates the serialized transaction has unread
	// bytes after a complete transaction.
	ErrTrailingBytes = ErrorKind("ErrTrailingBytes")

	// ErrTooManyInputs indicates a transaction has more inputs than
	// allowed.
	ErrTooManyInputs = ErrorKind("ErrTooManyInputs")

	// ErrTooManyOutputs indicates a transaction has more outputs than
	// allowed.
	ErrTooManyOutputs = ErrorKind("ErrTooManyOutputs")

	// ErrNoOutputs indicates a transaction without any outputs.
	ErrNoOutputs = ErrorKind("ErrNoOutputs")

	// ErrZeroInput indicates a transaction input that refers to the zero
	// output position.
	ErrZeroInput = ErrorKind("ErrZeroInput")

	// ErrZeroTxType indicates a transaction with a zero transaction type.
	ErrZeroTxType = ErrorKind("ErrZeroTxType")

	// ErrZeroOutputType indicates an output with a zero output type.
	ErrZeroOutputType = ErrorKind("ErrZeroOutputType")

	// ErrZeroOutputAmount indicates an output with a zero amount.
	ErrZeroOutputAmount = ErrorKind("ErrZeroOutputAmount")

	// ErrNonZeroTxData indicates a payment transaction with tx data set.
	ErrNonZeroTxData = ErrorKind("ErrNonZeroTxData")

	// ErrOutputIndex indicates a request for an output that the transaction
	// does not have.
	ErrOutputIndex = ErrorKind("ErrOutputIndex")
)

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}

// Error identifies a transaction that could not be encoded or decoded.  It
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
