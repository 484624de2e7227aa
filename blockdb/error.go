// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package blockdb

// ErrorKind identifies a kind of error.  It has full support for errors.Is and
// errors.As, so the caller can directly check against an error kind when
// determining the reason for an error.
type ErrorKind string

// These constants are used to identify a specific ContextError.
const (
	// ErrBackend indicates a generic error with the underlying database.
	ErrBackend = ErrorKind("ErrBackend")

	// ErrCorruption indicates the database is corrupted.
	ErrCorruption = ErrorKind("ErrCorruption")

	// ErrNotOpen indicates an operation on a database that is closed.
	ErrNotOpen = ErrorKind("ErrNotOpen")

	// ErrTooNew indicates the database was created by a newer version of the
	// software.
	ErrTooNew = ErrorKind("ErrTooNew")

	// ErrDeserialize indicates a stored block could not be deserialized.
	ErrDeserialize = ErrorKind("ErrDeserialize")
)

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}

// ContextError wraps an error with additional context.  It has full support
// for errors.Is and errors.As, so the caller can ascertain the specific
// reason for the error by checking the underlying error.
//
// RawErr houses the error reported by leveldb, if any.
type ContextError struct {
	Err         error
	Description string
	RawErr      error
}

// Error satisfies the error interface and prints human-readable errors.
func (e ContextError) Error() string {
	return e.Description
}

// Unwrap returns the underlying wrapped error.
func (e ContextError) Unwrap() error {
	return e.Err
}

// contextError creates a ContextError given a set of arguments.
func contextError(kind ErrorKind, desc string) ContextError {
	return ContextError{Err: kind, Description: desc}
}
