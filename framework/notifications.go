// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package framework

import (
	"fmt"

	"github.com/decred/dcrd/math/uint256"
	"github.com/plasma-network/exitgame/plasma"
	"github.com/plasma-network/exitgame/txfinality"
)

// NotificationType represents the type of a notification message.
type NotificationType int

// NotificationCallback is used for a caller to provide a callback for
// notifications about various framework events.
type NotificationCallback func(*Notification)

// Constants for the type of a notification message.
const (
	// NTBlockSubmitted indicates a child chain or deposit block was
	// submitted.
	NTBlockSubmitted NotificationType = iota

	// NTExitGameRegistered indicates an exit game was registered.
	NTExitGameRegistered

	// NTVaultRegistered indicates a vault was registered.
	NTVaultRegistered

	// NTExitQueueAdded indicates an exit queue was added.
	NTExitQueueAdded

	// NTExitQueued indicates an exit was added to an exit queue.
	NTExitQueued

	// NTProcessedExitsNum indicates a round of exit processing finished.
	NTProcessedExitsNum
)

// notificationTypeStrings is a map of notification types back to their
// constant names for pretty printing.
var notificationTypeStrings = map[NotificationType]string{
	NTBlockSubmitted:     "NTBlockSubmitted",
	NTExitGameRegistered: "NTExitGameRegistered",
	NTVaultRegistered:    "NTVaultRegistered",
	NTExitQueueAdded:     "NTExitQueueAdded",
	NTExitQueued:         "NTExitQueued",
	NTProcessedExitsNum:  "NTProcessedExitsNum",
}

// String returns the NotificationType in human-readable form.
func (n NotificationType) String() string {
	if s, ok := notificationTypeStrings[n]; ok {
		return s
	}
	return fmt.Sprintf("Unknown Notification Type (%d)", int(n))
}

// BlockSubmittedNtfnsData is the structure for data indicating information
// about a submitted block.
type BlockSubmittedNtfnsData struct {
	BlockNum uint64
	Block    plasma.Block
	Deposit  bool
}

// ExitGameRegisteredNtfnsData is the structure for data indicating
// information about a registered exit game.
type ExitGameRegisteredNtfnsData struct {
	TxType   uint32
	Protocol txfinality.Protocol
}

// ExitQueueNtfnsData is the structure for data identifying an exit queue.
type ExitQueueNtfnsData struct {
	VaultID VaultID
	Token   plasma.Address
}

// ExitQueuedNtfnsData is the structure for data indicating information about
// a queued exit.
type ExitQueuedNtfnsData struct {
	ExitID   uint256.Uint256
	Priority uint256.Uint256
}

// ProcessedExitsNtfnsData is the structure for data indicating the number of
// exits a round of exit processing handled.
type ProcessedExitsNtfnsData struct {
	Processed int
	VaultID   VaultID
	Token     plasma.Address
}

// Notification defines notification that is sent to the caller via the
// callback function provided during the call to New and consists of a
// notification type as well as associated data that depends on the type as
// follows:
//   - NTBlockSubmitted:     *BlockSubmittedNtfnsData
//   - NTExitGameRegistered: *ExitGameRegisteredNtfnsData
//   - NTVaultRegistered:    VaultID
//   - NTExitQueueAdded:     *ExitQueueNtfnsData
//   - NTExitQueued:         *ExitQueuedNtfnsData
//   - NTProcessedExitsNum:  *ProcessedExitsNtfnsData
type Notification struct {
	Type NotificationType
	Data interface{}
}

// sendNotification sends a notification with the passed type and data if the
// caller requested notifications by providing a callback function in the call
// to New.  It must not be called with the framework lock held.
func (f *Framework) sendNotification(typ NotificationType, data interface{}) {
	// Ignore it if the caller didn't request notifications.
	if f.notifications == nil {
		return
	}

	// Generate and send the notification.
	n := Notification{Type: typ, Data: data}
	f.notifications(&n)
}
