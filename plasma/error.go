// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package plasma

// ErrorKind identifies a kind of error.  It has full support for errors.Is
// and errors.As, so the caller can directly check against an error kind
// when determining the reason for an error.
type ErrorKind string

// These constants are used to identify a specific Error.
const (
	// ErrInvalidAddress indicates an address could not be parsed because it
	// is not exactly 20 bytes of hex encoded data.
	ErrInvalidAddress = ErrorKind("ErrInvalidAddress")

	// ErrTxIndexTooLarge indicates a transaction index does not fit in the
	// space reserved for it in a packed position.
	ErrTxIndexTooLarge = ErrorKind("ErrTxIndexTooLarge")

	// ErrOutputIndexTooLarge indicates an output index does not fit in the
	// space reserved for it in a packed position.
	ErrOutputIndexTooLarge = ErrorKind("ErrOutputIndexTooLarge")

	// ErrBlockNumTooLarge indicates a block number would overflow a packed
	// position.
	ErrBlockNumTooLarge = ErrorKind("ErrBlockNumTooLarge")
)

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}

// Error identifies an error related to the core protocol types.  It has full
// support for errors.Is and errors.As, so the caller can ascertain the
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
