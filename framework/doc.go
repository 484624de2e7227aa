// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

/*
Package framework implements the root ledger side of a Plasma chain that the
exit games build on.

The framework is made up of four parts:

  - The block controller records the transaction roots of child chain blocks
    submitted by the authority and of deposit blocks submitted by vaults.
    Child chain blocks are numbered in multiples of plasma.ChildBlockInterval
    and the numbers in between are used for deposit blocks.
  - The exit game and vault registries map transaction types to exit games
    and vault ids to vaults.  Newly registered exit games and vaults are
    quarantined for three minimum exit periods, except for the initial
    immune ones, so that a malicious registration can be noticed before it
    can be used.
  - The exit queues order the exits of every vault and token pair by
    priority.  Processing pops matured exits in priority order and hands each
    of them to the exit game that queued it.
  - The output finalization flags record which outputs were paid out by
    which exit, so that no output can be exited twice.

# Exit priorities

A priority packs the time an exit becomes exitable, the position of the
exiting transaction and the exit id into a 256-bit value.  Comparing
priorities therefore orders exits by maturity, then by transaction age and
finally by exit id, which is a strict total order.

# Errors

Rule violations are returned as RuleError values that wrap an ErrorKind and
have full support for errors.Is and errors.As.  Every rejected operation
leaves the framework unchanged.
*/
package framework
