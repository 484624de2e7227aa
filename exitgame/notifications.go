// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package exitgame

import (
	"fmt"

	"github.com/decred/dcrd/chaincfg/chainhash"
	"github.com/decred/dcrd/math/uint256"
	"github.com/plasma-network/exitgame/plasma"
)

// NotificationType represents the type of a notification message.
type NotificationType int

// NotificationCallback is used for a caller to provide a callback for
// notifications about exit game events.
type NotificationCallback func(*Notification)

// Constants for the type of a notification message.
const (
	// NTExitStarted indicates a standard exit was started.
	NTExitStarted NotificationType = iota

	// NTExitChallenged indicates a standard exit was successfully
	// challenged.
	NTExitChallenged

	// NTExitOmitted indicates a dequeued standard exit was skipped because
	// it was challenged or its output was already finalized.
	NTExitOmitted

	// NTExitFinalized indicates a standard exit was paid out.
	NTExitFinalized

	// NTInFlightExitStarted indicates an in-flight exit was started.
	NTInFlightExitStarted

	// NTInFlightExitInputPiggybacked indicates an input of an in-flight
	// exit was piggybacked.
	NTInFlightExitInputPiggybacked

	// NTInFlightExitOutputPiggybacked indicates an output of an in-flight
	// exit was piggybacked.
	NTInFlightExitOutputPiggybacked

	// NTInFlightExitChallenged indicates a competitor of an in-flight
	// transaction was recorded.
	NTInFlightExitChallenged

	// NTInFlightExitChallengeResponded indicates a canonicity challenge
	// was answered by showing the in-flight transaction is older.
	NTInFlightExitChallengeResponded

	// NTInFlightExitInputBlocked indicates a piggybacked input was shown
	// to be spent.
	NTInFlightExitInputBlocked

	// NTInFlightExitOutputBlocked indicates a piggybacked output was shown
	// to be spent.
	NTInFlightExitOutputBlocked

	// NTInFlightExitDeleted indicates an in-flight exit without piggybacks
	// was deleted.
	NTInFlightExitDeleted

	// NTInFlightExitOmitted indicates a dequeued in-flight exit was
	// skipped because it no longer exists or was already finalized.
	NTInFlightExitOmitted

	// NTInFlightExitInputWithdrawn indicates a piggybacked input was paid
	// out.
	NTInFlightExitInputWithdrawn

	// NTInFlightExitOutputWithdrawn indicates a piggybacked output was
	// paid out.
	NTInFlightExitOutputWithdrawn

	// NTBondUpdated indicates a bond size update was requested.
	NTBondUpdated
)

// notificationTypeStrings is a map of notification types back to their
// constant names for pretty printing.
var notificationTypeStrings = map[NotificationType]string{
	NTExitStarted:                    "NTExitStarted",
	NTExitChallenged:                 "NTExitChallenged",
	NTExitOmitted:                    "NTExitOmitted",
	NTExitFinalized:                  "NTExitFinalized",
	NTInFlightExitStarted:            "NTInFlightExitStarted",
	NTInFlightExitInputPiggybacked:   "NTInFlightExitInputPiggybacked",
	NTInFlightExitOutputPiggybacked:  "NTInFlightExitOutputPiggybacked",
	NTInFlightExitChallenged:         "NTInFlightExitChallenged",
	NTInFlightExitChallengeResponded: "NTInFlightExitChallengeResponded",
	NTInFlightExitInputBlocked:       "NTInFlightExitInputBlocked",
	NTInFlightExitOutputBlocked:      "NTInFlightExitOutputBlocked",
	NTInFlightExitDeleted:            "NTInFlightExitDeleted",
	NTInFlightExitOmitted:            "NTInFlightExitOmitted",
	NTInFlightExitInputWithdrawn:     "NTInFlightExitInputWithdrawn",
	NTInFlightExitOutputWithdrawn:    "NTInFlightExitOutputWithdrawn",
	NTBondUpdated:                    "NTBondUpdated",
}

// String returns the NotificationType in human-readable form.
func (n NotificationType) String() string {
	if s, ok := notificationTypeStrings[n]; ok {
		return s
	}
	return fmt.Sprintf("Unknown Notification Type (%d)", int(n))
}

// ExitNtfnsData is the structure for data about a standard exit.  Party is
// the owner for started exits and the challenger for challenged exits.
type ExitNtfnsData struct {
	ExitID  uint256.Uint256
	UtxoPos plasma.UtxoPos
	Party   plasma.Address
}

// ExitFinalizedNtfnsData is the structure for data about a paid out standard
// exit.
type ExitFinalizedNtfnsData struct {
	ExitID uint256.Uint256
	Target plasma.Address
	Token  plasma.Address
	Amount uint256.Uint256
}

// InFlightExitStartedNtfnsData is the structure for data about a started
// in-flight exit.
type InFlightExitStartedNtfnsData struct {
	ExitID    uint256.Uint256
	Initiator plasma.Address
	TxHash    chainhash.Hash
}

// PiggybackNtfnsData is the structure for data about an input or output of
// an in-flight exit.  Party is the owner for piggybacks and withdrawals and
// the challenger for blocked piggybacks.
type PiggybackNtfnsData struct {
	ExitID uint256.Uint256
	Index  uint16
	Party  plasma.Address
	Token  plasma.Address
	Amount uint256.Uint256
}

// CanonicityNtfnsData is the structure for data about a canonicity challenge
// or response.  Position is the position of the oldest competitor for
// challenges and of the in-flight transaction for responses.
type CanonicityNtfnsData struct {
	ExitID   uint256.Uint256
	Party    plasma.Address
	Position uint64
}

// BondUpdatedNtfnsData is the structure for data about a requested bond
// update.
type BondUpdatedNtfnsData struct {
	Bond        BondKind
	NewBond     uint64
	NewBounty   uint64
	EffectiveAt int64
}

// Notification defines notification that is sent to the caller via the
// callback function provided during the call to New and consists of a
// notification type as well as associated data that depends on the type as
// follows:
//   - NTExitStarted:                    *ExitNtfnsData
//   - NTExitChallenged:                 *ExitNtfnsData
//   - NTExitOmitted:                    uint256.Uint256 (the exit id)
//   - NTExitFinalized:                  *ExitFinalizedNtfnsData
//   - NTInFlightExitStarted:            *InFlightExitStartedNtfnsData
//   - NTInFlightExitInputPiggybacked:   *PiggybackNtfnsData
//   - NTInFlightExitOutputPiggybacked:  *PiggybackNtfnsData
//   - NTInFlightExitChallenged:         *CanonicityNtfnsData
//   - NTInFlightExitChallengeResponded: *CanonicityNtfnsData
//   - NTInFlightExitInputBlocked:       *PiggybackNtfnsData
//   - NTInFlightExitOutputBlocked:      *PiggybackNtfnsData
//   - NTInFlightExitDeleted:            uint256.Uint256 (the exit id)
//   - NTInFlightExitOmitted:            uint256.Uint256 (the exit id)
//   - NTInFlightExitInputWithdrawn:     *PiggybackNtfnsData
//   - NTInFlightExitOutputWithdrawn:    *PiggybackNtfnsData
//   - NTBondUpdated:                    *BondUpdatedNtfnsData
type Notification struct {
	Type NotificationType
	Data interface{}
}

// queueNotification records a notification to be sent once the exit game
// lock is released.
//
// This function MUST be called with the exit game lock held.
func (g *Game) queueNotification(typ NotificationType, data interface{}) {
	if g.notifications == nil {
		return
	}
	g.pending = append(g.pending, Notification{Type: typ, Data: data})
}

// unlockAndNotify releases the exit game lock and then sends the queued
// notifications, if the caller requested notifications by providing a
// callback function in the call to New.
func (g *Game) unlockAndNotify() {
	pending := g.pending
	g.pending = nil
	g.mtx.Unlock()

	for i := range pending {
		g.notifications(&pending[i])
	}
}
