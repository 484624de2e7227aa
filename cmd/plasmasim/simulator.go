// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/decred/dcrd/crypto/rand"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/math/uint256"
	"github.com/plasma-network/exitgame/ecrecover"
	"github.com/plasma-network/exitgame/exitgame"
	"github.com/plasma-network/exitgame/framework"
	"github.com/plasma-network/exitgame/internal/progresslog"
	"github.com/plasma-network/exitgame/merkle"
	"github.com/plasma-network/exitgame/plasma"
	"github.com/plasma-network/exitgame/spendcond"
	"github.com/plasma-network/exitgame/txfinality"
	"github.com/plasma-network/exitgame/txwire"
	"github.com/plasma-network/exitgame/vault"
)

const (
	// accountFunds is the native token amount every simulated account
	// starts with for paying bonds.
	accountFunds = 1000000000000000000

	// maxProcessedExits bounds the exits processed per call.
	maxProcessedExits = 100
)

// account is a simulated child chain user.
type account struct {
	name string
	key  *secp256k1.PrivateKey
	addr plasma.Address
}

// simulator drives a payment exit game registered with a framework and an eth
// vault on a manual clock.
type simulator struct {
	cfg      *config
	domain   chainhash.Hash
	clock    *framework.ManualClock
	fw       *framework.Framework
	ledger   *vault.Ledger
	vault    *vault.Vault
	game     *exitgame.Game
	progress *progresslog.Logger

	operator  *account
	processor *account
	accounts  []*account
}

// newAddress returns a random address for contracts and other parties that
// never sign.
func newAddress() plasma.Address {
	var addr plasma.Address
	rand.Read(addr[:])
	return addr
}

// newSimulator returns a simulator whose framework keeps its blocks in the
// passed store.
func newSimulator(cfg *config, store framework.BlockStore) (*simulator, error) {
	s := &simulator{
		cfg:      cfg,
		domain:   chainhash.HashH([]byte("plasmasim")),
		clock:    framework.NewManualClock(time.Now().Truncate(time.Second)),
		ledger:   vault.NewLedger(),
		progress: progresslog.New("Processed", simuLog),
	}
	s.operator = s.newAccount("operator")
	s.processor = s.newAccount("processor")

	var err error
	s.fw, err = framework.New(&framework.Config{
		Authority:              s.operator.addr,
		MinExitPeriod:          cfg.MinExitPeriod,
		InitialImmuneExitGames: 1,
		InitialImmuneVaults:    1,
		Clock:                  s.clock,
		BlockStore:             store,
		Notifications:          s.handleFrameworkNotification,
	})
	if err != nil {
		return nil, err
	}

	s.vault, err = vault.New(&vault.Config{
		Kind:      vault.KindEth,
		Address:   newAddress(),
		Framework: s.fw,
		Ledger:    s.ledger,
	})
	if err != nil {
		return nil, err
	}

	registry := spendcond.NewRegistry()
	cond := spendcond.NewPaymentCondition(&s.domain, txwire.PaymentTxType,
		txwire.PaymentTxType)
	err = registry.RegisterSpendingCondition(txwire.PaymentOutputType,
		txwire.PaymentTxType, cond)
	if err != nil {
		return nil, err
	}
	err = registry.RegisterOutputGuardHandler(txwire.PaymentOutputType,
		spendcond.PaymentOutputGuardHandler{})
	if err != nil {
		return nil, err
	}
	registry.Freeze()

	s.game, err = exitgame.New(&exitgame.Config{
		Framework:  s.fw,
		Registry:   registry,
		Ledger:     s.ledger,
		Address:    newAddress(),
		Maintainer: newAddress(),
		TxType:     txwire.PaymentTxType,
		Bonds: [3]exitgame.BondConfig{
			exitgame.StartStandardExitBond: {
				Bond:   cfg.StandardExitBond,
				Bounty: cfg.StandardExitBounty,
			},
			exitgame.StartInFlightExitBond: {
				Bond:   cfg.InFlightExitBond,
				Bounty: cfg.InFlightExitBounty,
			},
			exitgame.PiggybackBond: {
				Bond:   cfg.PiggybackBond,
				Bounty: cfg.PiggybackBounty,
			},
		},
		Notifications: s.handleGameNotification,
	})
	if err != nil {
		return nil, err
	}

	err = s.fw.RegisterExitGame(txwire.PaymentTxType, s.game,
		txfinality.ProtocolMoreVP)
	if err != nil {
		return nil, err
	}
	if err := s.fw.RegisterVault(framework.EthVaultID, s.vault); err != nil {
		return nil, err
	}
	err = s.fw.AddExitQueue(framework.EthVaultID, plasma.ZeroAddress)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// handleFrameworkNotification logs framework events.
func (s *simulator) handleFrameworkNotification(n *framework.Notification) {
	simuLog.Debugf("Framework event %v", n.Type)
}

// handleGameNotification logs exit game events and tracks the exits leaving
// the system.
func (s *simulator) handleGameNotification(n *exitgame.Notification) {
	simuLog.Debugf("Exit game event %v", n.Type)
	simuLog.Tracef("%v", newLogClosure(func() string {
		return spew.Sdump(n.Data)
	}))

	switch n.Type {
	case exitgame.NTExitFinalized, exitgame.NTInFlightExitInputWithdrawn,
		exitgame.NTInFlightExitOutputWithdrawn:
		s.progress.LogExit(progresslog.OutcomeFinalized, false)

	case exitgame.NTExitOmitted, exitgame.NTInFlightExitOmitted:
		s.progress.LogExit(progresslog.OutcomeOmitted, false)

	case exitgame.NTExitChallenged, exitgame.NTInFlightExitInputBlocked,
		exitgame.NTInFlightExitOutputBlocked:
		s.progress.LogExit(progresslog.OutcomeChallenged, false)
	}
}

// newAccount returns a funded account with a random key.
func (s *simulator) newAccount(name string) *account {
	var seed [32]byte
	rand.Read(seed[:])
	key := secp256k1.PrivKeyFromBytes(seed[:])
	acct := &account{
		name: name,
		key:  key,
		addr: ecrecover.PubKeyToAddress(key.PubKey()),
	}
	funds := new(uint256.Uint256).SetUint64(accountFunds)
	if err := s.ledger.Credit(acct.addr, plasma.ZeroAddress, funds); err != nil {
		// Crediting a fresh account can't overflow.
		panic(err)
	}
	s.accounts = append(s.accounts, acct)
	return acct
}

// balance returns the native token balance of the passed account.
func (s *simulator) balance(acct *account) uint256.Uint256 {
	return s.ledger.Balance(acct.addr, plasma.ZeroAddress)
}

// sign returns the signature of the passed account over the passed
// transaction.
func (s *simulator) sign(acct *account, txBytes []byte) []byte {
	sigHash := txwire.SigHash(&s.domain, txBytes)
	return ecrecover.Sign(acct.key, &sigHash)
}

// deposit deposits the passed value of the native token on behalf of the
// owner and returns the deposit transaction, its position and its inclusion
// proof.
func (s *simulator) deposit(owner *account, value uint64) ([]byte, plasma.UtxoPos, []byte, error) {
	v := new(uint256.Uint256).SetUint64(value)
	depositTx, err := txwire.NewDepositTx(owner.addr, plasma.ZeroAddress, v).Bytes()
	if err != nil {
		return nil, 0, nil, err
	}
	blockNum, err := s.vault.Deposit(owner.addr, depositTx)
	if err != nil {
		return nil, 0, nil, err
	}
	proof, err := vault.DepositProof(depositTx)
	if err != nil {
		return nil, 0, nil, err
	}
	pos, err := plasma.NewUtxoPos(blockNum, 0, 0)
	if err != nil {
		return nil, 0, nil, err
	}
	simuLog.Infof("%s deposited %d wei in block %d", owner.name, value,
		blockNum)
	return depositTx, pos, proof, nil
}

// paymentTx returns a serialized native token payment spending the passed
// inputs.
func paymentTx(inputs []plasma.UtxoPos, outputs ...txwire.Output) ([]byte, error) {
	tx := &txwire.Transaction{
		TxType:  txwire.PaymentTxType,
		Inputs:  inputs,
		Outputs: outputs,
	}
	return tx.Bytes()
}

// payTo returns a native token payment output.
func payTo(acct *account, value uint64) txwire.Output {
	return txwire.Output{
		OutputType:  txwire.PaymentOutputType,
		OutputGuard: acct.addr,
		Amount:      *new(uint256.Uint256).SetUint64(value),
	}
}

// submitBlock submits a child block with the passed transactions on behalf
// of the operator and returns its number along with an inclusion proof per
// transaction.
func (s *simulator) submitBlock(txs ...[]byte) (uint64, [][]byte, error) {
	tree, err := merkle.NewTree(txs, plasma.TxMerkleHeight)
	if err != nil {
		return 0, nil, err
	}
	root := tree.Root()
	blockNum, err := s.fw.SubmitBlock(s.operator.addr, &root)
	if err != nil {
		return 0, nil, err
	}
	proofs := make([][]byte, len(txs))
	for i := range txs {
		proofs[i], err = tree.Proof(uint64(i))
		if err != nil {
			return 0, nil, err
		}
	}
	simuLog.Infof("Operator submitted block %d with %d %s", blockNum,
		len(txs), pickNoun(len(txs), "transaction", "transactions"))
	return blockNum, proofs, nil
}

// waitExitPeriod moves the clock past the minimum exit period.
func (s *simulator) waitExitPeriod() {
	s.clock.Advance(s.cfg.MinExitPeriod)
	simuLog.Infof("Advanced the clock by %v to %v", s.cfg.MinExitPeriod,
		s.clock.Now())
}

// processExits processes all matured native token exits on behalf of the
// processor.  An empty exit queue processes nothing.
func (s *simulator) processExits() (int, error) {
	n, err := s.game.ProcessExits(plasma.ZeroAddress, nil, maxProcessedExits,
		s.processor.addr)
	if errors.Is(err, framework.ErrEmptyExitQueue) {
		return 0, nil
	}
	return n, err
}

// expectGain returns an error when the balance of the passed account does
// not exceed before by exactly want.
func (s *simulator) expectGain(acct *account, before *uint256.Uint256, want uint64) error {
	got := s.balance(acct)
	gain := new(uint256.Uint256).Sub2(&got, before)
	if got.Lt(before) || gain.Uint64() != want || !gain.IsUint64() {
		return fmt.Errorf("%s balance changed from %v to %v, want a gain "+
			"of %d", acct.name, before, &got, want)
	}
	return nil
}

// expectLoss returns an error when the balance of the passed account is not
// exactly want below before.
func (s *simulator) expectLoss(acct *account, before *uint256.Uint256, want uint64) error {
	got := s.balance(acct)
	loss := new(uint256.Uint256).Sub2(before, &got)
	if before.Lt(&got) || loss.Uint64() != want || !loss.IsUint64() {
		return fmt.Errorf("%s balance changed from %v to %v, want a loss "+
			"of %d", acct.name, before, &got, want)
	}
	return nil
}

// report logs the balances of all simulated accounts.
func (s *simulator) report() {
	s.progress.Flush()
	for _, acct := range s.accounts {
		b := s.balance(acct)
		simuLog.Infof("%-10s %v: %v wei", acct.name, acct.addr, &b)
	}
	vaultBalance := s.ledger.Balance(s.vault.Address(), plasma.ZeroAddress)
	simuLog.Infof("Vault holds %v wei", &vaultBalance)
}
