// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package vault

import (
	"fmt"
	"sync"

	"github.com/decred/dcrd/math/uint256"
	"github.com/plasma-network/exitgame/framework"
	"github.com/plasma-network/exitgame/plasma"
)

// balanceKey identifies the balance of an account in a token.
type balanceKey struct {
	account plasma.Address
	token   plasma.Address
}

// Ledger tracks root chain balances of accounts per token.
//
// All methods are safe for concurrent access.
type Ledger struct {
	mtx      sync.Mutex
	balances map[balanceKey]uint256.Uint256
}

// NewLedger returns a ledger where every balance is zero.
func NewLedger() *Ledger {
	return &Ledger{balances: make(map[balanceKey]uint256.Uint256)}
}

// credit adds the passed amount to the balance of the passed account.
//
// This function MUST be called with the ledger lock held.
func (l *Ledger) credit(key balanceKey, amount *uint256.Uint256) error {
	balance := l.balances[key]
	var sum uint256.Uint256
	sum.Add2(&balance, amount)
	if sum.Lt(&balance) {
		str := fmt.Sprintf("crediting %v with %v of token %v overflows its "+
			"balance", key.account, amount, key.token)
		return makeError(ErrBalanceOverflow, str)
	}
	l.balances[key] = sum
	return nil
}

// Credit adds newly minted funds to the balance of the passed account.
func (l *Ledger) Credit(account, token plasma.Address, amount *uint256.Uint256) error {
	if amount.IsZero() {
		return makeError(ErrZeroAmount, "credited amount must not be zero")
	}
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return l.credit(balanceKey{account: account, token: token}, amount)
}

// Transfer moves the passed amount of the passed token between two accounts.
// Transferring zero is a no-op.
func (l *Ledger) Transfer(from, to, token plasma.Address, amount *uint256.Uint256) error {
	if amount.IsZero() {
		return nil
	}

	l.mtx.Lock()
	defer l.mtx.Unlock()

	fromKey := balanceKey{account: from, token: token}
	balance := l.balances[fromKey]
	if balance.Lt(amount) {
		str := fmt.Sprintf("%v holds %v of token %v, cannot transfer %v",
			from, &balance, token, amount)
		return makeError(ErrInsufficientFunds, str)
	}
	if from == to {
		return nil
	}
	if err := l.credit(balanceKey{account: to, token: token}, amount); err != nil {
		return err
	}
	balance.Sub(amount)
	if balance.IsZero() {
		delete(l.balances, fromKey)
	} else {
		l.balances[fromKey] = balance
	}
	return nil
}

// TransferMany moves the amounts of the passed payouts of the passed token
// from one account to their receivers.  Either every payout is made or, on
// error, no balance changes.
func (l *Ledger) TransferMany(from, token plasma.Address, payouts []framework.Payout) error {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	// Work on copies of the touched balances and only commit them once every
	// payout is known to succeed.
	fromKey := balanceKey{account: from, token: token}
	updated := make(map[balanceKey]uint256.Uint256, len(payouts)+1)
	balance := l.balances[fromKey]
	var total uint256.Uint256
	for i := range payouts {
		amount := &payouts[i].Amount
		var sum uint256.Uint256
		sum.Add2(&total, amount)
		if sum.Lt(&total) {
			str := fmt.Sprintf("total of %d payouts of token %v overflows",
				len(payouts), token)
			return makeError(ErrBalanceOverflow, str)
		}
		total = sum
	}
	if balance.Lt(&total) {
		str := fmt.Sprintf("%v holds %v of token %v, cannot transfer %v",
			from, &balance, token, &total)
		return makeError(ErrInsufficientFunds, str)
	}
	balance.Sub(&total)
	updated[fromKey] = balance
	for i := range payouts {
		key := balanceKey{account: payouts[i].Receiver, token: token}
		current, ok := updated[key]
		if !ok {
			current = l.balances[key]
		}
		var sum uint256.Uint256
		sum.Add2(&current, &payouts[i].Amount)
		if sum.Lt(&current) {
			str := fmt.Sprintf("crediting %v with %v of token %v overflows "+
				"its balance", key.account, &payouts[i].Amount, token)
			return makeError(ErrBalanceOverflow, str)
		}
		updated[key] = sum
	}

	for key, newBalance := range updated {
		if newBalance.IsZero() {
			delete(l.balances, key)
			continue
		}
		l.balances[key] = newBalance
	}
	return nil
}

// TransferUint64 is a convenience wrapper around Transfer for amounts that
// fit in a uint64.
func (l *Ledger) TransferUint64(from, to, token plasma.Address, amount uint64) error {
	return l.Transfer(from, to, token, new(uint256.Uint256).SetUint64(amount))
}

// Balance returns the balance of the passed account in the passed token.
func (l *Ledger) Balance(account, token plasma.Address) uint256.Uint256 {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return l.balances[balanceKey{account: account, token: token}]
}
