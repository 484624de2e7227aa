// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package plasma provides the core types shared by the exit game packages.

The types defined here are small value types that identify things on the
child chain and the root ledger:

  - Address: a 20-byte account or token identifier.  The zero address denotes
    the native token of the root ledger.
  - UtxoPos: the packed (block number, transaction index, output index)
    position of a transaction output.
  - TxPos: the packed (block number, transaction index) position of a
    transaction.

It also houses the keccak256 hashing primitive used throughout the protocol
and the output identifier derivation that binds an output to the bytes of
the transaction that created it.

# Position encoding

A UtxoPos is encoded as

	blockNumber * 1e9 + txIndex * 1e4 + outputIndex

which is invertible as long as the transaction index is below 1e5 and the
output index is below 1e4.  Child chain blocks are numbered in multiples of
ChildBlockInterval.  Any block number that is not a multiple of the interval
is a deposit block which contains exactly one deposit transaction.

# Errors

Errors returned by this package are of type plasma.Error and have full
support for errors.Is and errors.As against the ErrorKind constants.
*/
package plasma
