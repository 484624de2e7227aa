// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package txfinality

// ErrorKind identifies a kind of error.  It has full support for errors.Is
// and errors.As, so the caller can directly check against an error kind
// when determining the reason for an error.
type ErrorKind string

// These constants are used to identify a specific Error.
const (
	// ErrMVPNotSupported indicates a finalization check was requested for
	// the MVP protocol.
	ErrMVPNotSupported = ErrorKind("ErrMVPNotSupported")

	// ErrUnknownProtocol indicates a protocol tag that is neither MVP nor
	// MoreVP.
	ErrUnknownProtocol = ErrorKind("ErrUnknownProtocol")

	// ErrBlockNotFound indicates the block referenced by a transaction
	// position has not been submitted.
	ErrBlockNotFound = ErrorKind("ErrBlockNotFound")

	// ErrProofHeight indicates an inclusion proof for a tree of a height
	// other than the height of block transaction trees.
	ErrProofHeight = ErrorKind("ErrProofHeight")
)

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}

// Error identifies a finalization check that could not be performed.  It has
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
