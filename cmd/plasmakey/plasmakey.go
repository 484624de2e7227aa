// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// plasmakey generates child chain keys, derives their addresses and signs
// child chain transactions.  Private keys are always read from the terminal
// without echo, or from standard input when it is not a terminal.
package main

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/decred/dcrd/crypto/rand"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	flags "github.com/jessevdk/go-flags"
	"github.com/plasma-network/exitgame/ecrecover"
	"github.com/plasma-network/exitgame/txwire"
	"golang.org/x/term"
)

type config struct {
	New    bool   `short:"n" long:"new" description:"generate a new private key and print it along with its address"`
	Sign   string `short:"s" long:"sign" description:"hex encoded transaction to sign with the prompted private key"`
	Domain string `short:"D" long:"domain" description:"hex encoded 32 byte signature domain separator (required with --sign)"`
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}

// zero clears the passed secret.
func zero(b []byte) {
	for i := range b {
		b[i] = 0x00
	}
}

// newKey returns a private key generated from the passed entropy source.
func newKey(entropy io.Reader) (*secp256k1.PrivateKey, error) {
	var seed [32]byte
	defer zero(seed[:])
	for {
		if _, err := io.ReadFull(entropy, seed[:]); err != nil {
			return nil, err
		}
		// Reject seeds that are zero or not below the group order.
		var d secp256k1.ModNScalar
		overflow := d.SetByteSlice(seed[:])
		if !overflow && !d.IsZero() {
			key := secp256k1.NewPrivateKey(&d)
			d.Zero()
			return key, nil
		}
	}
}

// parseKey decodes a hex encoded private key.
func parseKey(s string) (*secp256k1.PrivateKey, error) {
	b, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("malformed private key: %w", err)
	}
	defer zero(b)
	if len(b) != secp256k1.PrivKeyBytesLen {
		return nil, fmt.Errorf("private key must be %d bytes, got %d",
			secp256k1.PrivKeyBytesLen, len(b))
	}
	var d secp256k1.ModNScalar
	if overflow := d.SetByteSlice(b); overflow || d.IsZero() {
		return nil, errors.New("private key is out of range")
	}
	return secp256k1.NewPrivateKey(&d), nil
}

// parseDomain decodes a hex encoded signature domain separator.
func parseDomain(s string) (*chainhash.Hash, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("malformed domain: %w", err)
	}
	return chainhash.NewHash(b)
}

// signTx returns the hex encoded signature of the passed key over the hex
// encoded transaction in the passed domain.
func signTx(key *secp256k1.PrivateKey, domain *chainhash.Hash, txHex string) (string, error) {
	txBytes, err := hex.DecodeString(txHex)
	if err != nil {
		return "", fmt.Errorf("malformed transaction: %w", err)
	}
	if _, err := txwire.Decode(txBytes); err != nil {
		return "", err
	}
	sigHash := txwire.SigHash(domain, txBytes)
	return hex.EncodeToString(ecrecover.Sign(key, &sigHash)), nil
}

// promptKey reads a hex encoded private key from the terminal without echo
// or from the first line of standard input.
func promptKey() (*secp256k1.PrivateKey, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		return parseKey(line)
	}

	fmt.Fprint(os.Stderr, "Private key: ")
	secret, err := term.ReadPassword(fd)
	fmt.Fprint(os.Stderr, "\n")
	if err != nil {
		return nil, fmt.Errorf("unable to read private key: %w", err)
	}
	defer zero(secret)
	return parseKey(string(secret))
}

func main() {
	var cfg config
	parser := flags.NewParser(&cfg, flags.Default)
	if _, err := parser.Parse(); err != nil {
		var e *flags.Error
		if errors.As(err, &e) && e.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if cfg.New {
		key, err := newKey(rand.Reader())
		if err != nil {
			fatalf("unable to generate key: %v\n", err)
		}
		fmt.Printf("private key: %x\n", key.Serialize())
		fmt.Printf("address:     %v\n", ecrecover.PubKeyToAddress(key.PubKey()))
		return
	}

	var domain *chainhash.Hash
	if cfg.Sign != "" {
		var err error
		if domain, err = parseDomain(cfg.Domain); err != nil {
			fatalf("%v\n", err)
		}
	}

	key, err := promptKey()
	if err != nil {
		fatalf("%v\n", err)
	}
	if cfg.Sign == "" {
		fmt.Println(ecrecover.PubKeyToAddress(key.PubKey()))
		return
	}
	sig, err := signTx(key, domain, cfg.Sign)
	if err != nil {
		fatalf("unable to sign: %v\n", err)
	}
	fmt.Println(sig)
}
