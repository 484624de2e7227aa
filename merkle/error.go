// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package merkle

// ErrorKind identifies a kind of error.  It has full support for errors.Is
// and errors.As, so the caller can directly check against an error kind
// when determining the reason for an error.
type ErrorKind string

// These constants are used to identify a specific Error.
const (
	// ErrInvalidProofLength indicates a proof length that is not a multiple
	// of the hash size.
	ErrInvalidProofLength = ErrorKind("ErrInvalidProofLength")

	// ErrProofTooLong indicates a proof describes a tree higher than the max
	// supported height.
	ErrProofTooLong = ErrorKind("ErrProofTooLong")

	// ErrIndexOutOfRange indicates a leaf index that does not fit in a tree
	// of the height implied by the proof or requested at construction.
	ErrIndexOutOfRange = ErrorKind("ErrIndexOutOfRange")

	// ErrTooManyLeaves indicates more leaves were provided than a tree of the
	// requested height can hold.
	ErrTooManyLeaves = ErrorKind("ErrTooManyLeaves")

	// ErrInvalidHeight indicates a requested tree height that is zero or
	// larger than the max supported height.
	ErrInvalidHeight = ErrorKind("ErrInvalidHeight")
)

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}

// Error identifies a malformed tree or proof.  It has full support for
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
