// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package vault

import (
	"fmt"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/plasma-network/exitgame/framework"
	"github.com/plasma-network/exitgame/merkle"
	"github.com/plasma-network/exitgame/plasma"
	"github.com/plasma-network/exitgame/txwire"
)

// Kind identifies which tokens a vault holds.
type Kind uint8

// These constants define the supported vault kinds.
const (
	// KindEth vaults hold the native token.
	KindEth Kind = iota

	// KindErc20 vaults hold every token except the native one.
	KindErc20
)

// kindStrings is a map of vault kinds back to their constant names for
// pretty printing.
var kindStrings = map[Kind]string{
	KindEth:   "eth",
	KindErc20: "erc20",
}

// String returns the Kind as a human-readable name.
func (k Kind) String() string {
	if s, ok := kindStrings[k]; ok {
		return s
	}
	return fmt.Sprintf("Unknown Kind (%d)", uint8(k))
}

// holds returns whether vaults of the kind hold the passed token.
func (k Kind) holds(token plasma.Address) bool {
	if k == KindEth {
		return token.IsZero()
	}
	return !token.IsZero()
}

// Config is a descriptor which specifies the vault instance configuration.
type Config struct {
	// Kind determines which tokens the vault holds.
	Kind Kind

	// Address is the ledger account the vault keeps deposited funds in.
	Address plasma.Address

	// Framework is the plasma framework the vault submits deposit blocks
	// to.  The vault must be registered with it before deposits are made.
	Framework *framework.Framework

	// Ledger tracks the root chain balances.
	Ledger *Ledger
}

// Vault holds deposited funds until they are withdrawn by exit games.
type Vault struct {
	kind   Kind
	addr   plasma.Address
	fw     *framework.Framework
	ledger *Ledger
}

// Ensure Vault implements the framework.Vault interface.
var _ framework.Vault = (*Vault)(nil)

// New returns a vault using the passed configuration.
func New(config *Config) (*Vault, error) {
	if config.Framework == nil {
		return nil, framework.AssertError("vault.New framework is nil")
	}
	if config.Ledger == nil {
		return nil, framework.AssertError("vault.New ledger is nil")
	}
	if config.Address.IsZero() {
		return nil, framework.AssertError("vault.New address is the zero " +
			"address")
	}
	if _, ok := kindStrings[config.Kind]; !ok {
		str := fmt.Sprintf("vault.New unknown kind %v", config.Kind)
		return nil, framework.AssertError(str)
	}
	return &Vault{
		kind:   config.Kind,
		addr:   config.Address,
		fw:     config.Framework,
		ledger: config.Ledger,
	}, nil
}

// Kind returns the kind of the vault.
func (v *Vault) Kind() Kind {
	return v.kind
}

// Address returns the ledger account of the vault.
func (v *Vault) Address() plasma.Address {
	return v.addr
}

// DepositRoot returns the transaction root of the block committing to the
// passed deposit transaction, which is its only transaction.
func DepositRoot(depositTx []byte) (chainhash.Hash, error) {
	tree, err := merkle.NewTree([][]byte{depositTx}, plasma.TxMerkleHeight)
	if err != nil {
		return chainhash.Hash{}, err
	}
	return tree.Root(), nil
}

// DepositProof returns the inclusion proof of the passed deposit transaction
// in its deposit block.
func DepositProof(depositTx []byte) ([]byte, error) {
	tree, err := merkle.NewTree([][]byte{depositTx}, plasma.TxMerkleHeight)
	if err != nil {
		return nil, err
	}
	return tree.Proof(0)
}

// checkDepositTx ensures the passed transaction is a deposit of the passed
// depositor in a token held by the vault.
func (v *Vault) checkDepositTx(depositor plasma.Address, tx *txwire.Transaction) error {
	if !tx.IsDeposit() {
		str := fmt.Sprintf("deposit tx must have no inputs and one output, "+
			"got %d inputs and %d outputs", len(tx.Inputs), len(tx.Outputs))
		return makeError(ErrNotDepositTx, str)
	}
	if tx.TxType != txwire.PaymentTxType {
		str := fmt.Sprintf("deposit tx type %d is not a payment", tx.TxType)
		return makeError(ErrNotDepositTx, str)
	}
	out := &tx.Outputs[0]
	if out.OutputType != txwire.PaymentOutputType {
		str := fmt.Sprintf("deposit output type %d is not a payment output",
			out.OutputType)
		return makeError(ErrWrongOutputType, str)
	}
	if out.Owner() != depositor {
		str := fmt.Sprintf("deposit output is owned by %v, not by the "+
			"depositor %v", out.Owner(), depositor)
		return makeError(ErrNotDepositor, str)
	}
	if !v.kind.holds(out.Token) {
		str := fmt.Sprintf("%v vault does not hold token %v", v.kind,
			out.Token)
		return makeError(ErrWrongToken, str)
	}
	return nil
}

// Deposit moves the funds created by the passed deposit transaction from the
// depositor to the vault and submits a deposit block committing to the
// transaction.  It returns the number of the deposit block.
func (v *Vault) Deposit(depositor plasma.Address, depositTx []byte) (uint64, error) {
	tx, err := txwire.Decode(depositTx)
	if err != nil {
		return 0, err
	}
	if err := v.checkDepositTx(depositor, tx); err != nil {
		return 0, err
	}
	root, err := DepositRoot(depositTx)
	if err != nil {
		return 0, err
	}

	out := &tx.Outputs[0]
	err = v.ledger.Transfer(depositor, v.addr, out.Token, &out.Amount)
	if err != nil {
		return 0, err
	}
	blockNum, err := v.fw.SubmitDepositBlock(v, &root)
	if err != nil {
		// Refund the depositor since no block commits to the deposit.
		if rerr := v.ledger.Transfer(v.addr, depositor, out.Token, &out.Amount); rerr != nil {
			panic(framework.AssertError(fmt.Sprintf("failed to refund "+
				"deposit: %v", rerr)))
		}
		return 0, err
	}

	log.Debugf("Deposited %v of token %v for %v in block %d", &out.Amount,
		out.Token, depositor, blockNum)
	return blockNum, nil
}

// Withdraw pays the passed payouts on behalf of the calling exit game, which
// must be registered with the framework and not quarantined.  Either every
// payout is made or none is.  It is part of the framework.Vault interface.
func (v *Vault) Withdraw(caller framework.ExitGame, token plasma.Address, payouts []framework.Payout) error {
	if err := v.fw.CheckExitGame(caller); err != nil {
		return err
	}
	if !v.kind.holds(token) {
		str := fmt.Sprintf("%v vault does not hold token %v", v.kind, token)
		return makeError(ErrWrongToken, str)
	}
	if err := v.ledger.TransferMany(v.addr, token, payouts); err != nil {
		return err
	}
	for i := range payouts {
		log.Debugf("Withdrew %v of token %v to %v", &payouts[i].Amount,
			token, payouts[i].Receiver)
	}
	return nil
}
