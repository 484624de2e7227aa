// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package exitgame implements the exit game of payment transactions.

An exit game lets the owners of child chain funds withdraw them on the root
ledger while giving everyone else a window to prove the withdrawal is
invalid.  Every exit requires a bond which is forfeited to whoever proves it
invalid.  Part of each bond, the bounty, is paid to whoever processes the
exit.

# Standard Exits

A standard exit withdraws a single output that is included in a submitted
block.  It is challenged by presenting a transaction that spends the output
along with the signature of its owner.  Exits of outputs in deposit blocks
become exitable one minimum exit period after they are started.  Other exits
wait at least two minimum exit periods after their block was submitted.

# In-Flight Exits

An in-flight exit withdraws the inputs or outputs of a transaction whose
inclusion in a block cannot be proven, typically because the operator is
withholding blocks.  The exit itself pays nothing.  The owners of inputs and
outputs opt in by piggybacking them during the first half of the minimum
exit period, which is also when the canonicity of the transaction can be
challenged with a competing transaction spending one of its inputs.

When the exit is processed, a canonical transaction pays its piggybacked
outputs and a non-canonical one pays its piggybacked inputs.  Piggybacked
inputs and outputs that were spent elsewhere can be blocked individually.

# Errors

Rule violations are returned as RuleError values that wrap an ErrorKind.
Errors of the collaborating packages are returned unchanged.  A rejected
operation leaves the exit game unchanged.
*/
package exitgame
