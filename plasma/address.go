// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package plasma

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// AddressSize is the number of bytes in an address.
const AddressSize = 20

// Address identifies an account or a token on the root ledger.
type Address [AddressSize]byte

// ZeroAddress is the address with all bytes set to zero.  When used as a
// token it denotes the native token of the root ledger.
var ZeroAddress Address

// String returns the address as a 0x prefixed hex string.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// IsZero returns whether or not the address is the zero address.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// AddressFromBytes returns the address contained in the passed byte slice.
// The slice must be exactly AddressSize bytes.
func AddressFromBytes(b []byte) (Address, error) {
	var addr Address
	if len(b) != AddressSize {
		str := fmt.Sprintf("address must be %d bytes, got %d", AddressSize,
			len(b))
		return addr, makeError(ErrInvalidAddress, str)
	}
	copy(addr[:], b)
	return addr, nil
}

// NewAddressFromStr decodes a hex encoded address with an optional 0x
// prefix.
func NewAddressFromStr(s string) (Address, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		str := fmt.Sprintf("malformed address %q: %v", s, err)
		return Address{}, makeError(ErrInvalidAddress, str)
	}
	return AddressFromBytes(b)
}
