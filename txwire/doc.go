// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package txwire implements the canonical serialization of child chain payment
transactions.

Exit identifiers and output identifiers are derived from the serialized bytes
of a transaction, so the encoding must be canonical: every logical
transaction has exactly one valid encoding and Decode rejects anything else,
including non-canonical variable length integers and trailing data.

# Serialization format

	Field          Encoding
	-----          --------
	tx type        varint
	input count    varint (0..4)
	inputs         varint utxo position each
	output count   varint (1..4)
	outputs        varint output type, 20-byte guard, 20-byte token,
	               32-byte big-endian amount
	tx data        varint (must be zero)
	metadata       32 bytes

Variable length integers use the same canonical encoding as the Decred wire
protocol.
*/
package txwire
