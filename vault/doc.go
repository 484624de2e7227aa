// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package vault implements the root chain side of deposits and withdrawals.

A Ledger keeps the root chain balances of every account per token.  A Vault
holds deposited funds in its own ledger account.  Depositing moves funds from
the depositor to the vault and submits a deposit block committing to the
deposit transaction.  Registered exit games withdraw funds from the vault once
exits are processed.

The eth vault only accepts the native token, which is identified by the zero
address.  The erc20 vault only accepts other tokens.
*/
package vault
