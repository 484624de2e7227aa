// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package bond

// ErrorKind identifies a kind of error.  It has full support for errors.Is
// and errors.As, so the caller can directly check against an error kind
// when determining the reason for an error.
type ErrorKind string

// These constants are used to identify a specific Error.
const (
	// ErrZeroBond indicates an attempt to create a bond of zero.
	ErrZeroBond = ErrorKind("ErrZeroBond")

	// ErrBountyExceedsBond indicates a bounty that is larger than the bond
	// it is paid from.
	ErrBountyExceedsBond = ErrorKind("ErrBountyExceedsBond")

	// ErrBondTooLow indicates a bond update below the lower bound derived
	// from the current bond.
	ErrBondTooLow = ErrorKind("ErrBondTooLow")

	// ErrBondTooHigh indicates a bond update above the upper bound derived
	// from the current bond.
	ErrBondTooHigh = ErrorKind("ErrBondTooHigh")
)

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}

// Error identifies a rejected bond size or update.  It has full support for
// errors.Is and errors.As, so the caller can ascertain the specific reason
// for the error by checking the underlying error.
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
