// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package ecrecover recovers the address that produced a recoverable
// secp256k1 signature.
//
// Signatures are 65 bytes laid out as R || S || V where V is the recovery
// code, either 0/1 or 27/28.  Addresses are the last 20 bytes of the
// keccak256 hash of the uncompressed public key without its format prefix.
package ecrecover

import (
	"fmt"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/plasma-network/exitgame/plasma"
)

// SignatureSize is the size of a recoverable signature.
const SignatureSize = 65

// compactMagicOffset is the value added to the recovery code of a compact
// signature produced for an uncompressed public key.
const compactMagicOffset = 27

// ErrorKind identifies a kind of error.  It has full support for errors.Is
// and errors.As, so the caller can directly check against an error kind
// when determining the reason for an error.
type ErrorKind string

// These constants are used to identify a specific Error.
const (
	// ErrSigLength indicates a signature that is not exactly 65 bytes.
	ErrSigLength = ErrorKind("ErrSigLength")

	// ErrSigRecoveryCode indicates a signature with an unknown recovery
	// code.
	ErrSigRecoveryCode = ErrorKind("ErrSigRecoveryCode")

	// ErrSigInvalid indicates a signature from which no public key can be
	// recovered.
	ErrSigInvalid = ErrorKind("ErrSigInvalid")
)

// Error satisfies the error interface and prints human-readable errors.
func (e ErrorKind) Error() string {
	return string(e)
}

// Error identifies a signature that could not be recovered.  It has full
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

// PubKeyToAddress returns the address of the passed public key.
func PubKeyToAddress(pubKey *secp256k1.PublicKey) plasma.Address {
	serialized := pubKey.SerializeUncompressed()
	hash := plasma.Keccak256(serialized[1:])
	var addr plasma.Address
	copy(addr[:], hash[chainhash.HashSize-plasma.AddressSize:])
	return addr
}

// Sign signs the passed hash with the private key and returns the signature
// in R || S || V form with V in {27, 28}.
func Sign(priv *secp256k1.PrivateKey, hash *chainhash.Hash) []byte {
	compact := ecdsa.SignCompact(priv, hash[:], false)
	sig := make([]byte, SignatureSize)
	copy(sig, compact[1:])
	sig[64] = compact[0]
	return sig
}

// Recover returns the address of the key that produced the passed signature
// over the passed hash.
func Recover(hash *chainhash.Hash, sig []byte) (plasma.Address, error) {
	if len(sig) != SignatureSize {
		str := fmt.Sprintf("signature must be %d bytes, got %d",
			SignatureSize, len(sig))
		return plasma.Address{}, makeError(ErrSigLength, str)
	}

	v := sig[64]
	if v >= compactMagicOffset {
		v -= compactMagicOffset
	}
	if v > 1 {
		str := fmt.Sprintf("invalid recovery code %d", sig[64])
		return plasma.Address{}, makeError(ErrSigRecoveryCode, str)
	}

	var compact [SignatureSize]byte
	compact[0] = compactMagicOffset + v
	copy(compact[1:], sig[:64])
	pubKey, _, err := ecdsa.RecoverCompact(compact[:], hash[:])
	if err != nil {
		str := fmt.Sprintf("unable to recover public key: %v", err)
		return plasma.Address{}, makeError(ErrSigInvalid, str)
	}
	return PubKeyToAddress(pubKey), nil
}
