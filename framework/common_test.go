// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package framework

import (
	"testing"
	"time"

	"github.com/decred/dcrd/math/uint256"
	"github.com/plasma-network/exitgame/plasma"
	"github.com/plasma-network/exitgame/txfinality"
)

// testMinExitPeriod is the minimum exit period used throughout the tests.
const testMinExitPeriod = 7 * 24 * time.Hour

// testAuthority is the block submission authority used throughout the tests.
var testAuthority = plasma.Address{0xaa}

// testStart is the initial time of the test clocks.
var testStart = time.Unix(1700000000, 0)

// processedExit records a call to ProcessExit.
type processedExit struct {
	exitID    uint256.Uint256
	vaultID   VaultID
	token     plasma.Address
	initiator plasma.Address
}

// mockExitGame is an ExitGame that records processed exits and optionally
// runs a hook.
type mockExitGame struct {
	processed []processedExit
	hook      func(exitID *uint256.Uint256) error
}

// ProcessExit records the exit and runs the hook.  It is part of the
// ExitGame interface.
func (g *mockExitGame) ProcessExit(exitID *uint256.Uint256, vaultID VaultID, token, initiator plasma.Address) error {
	if g.hook != nil {
		if err := g.hook(exitID); err != nil {
			return err
		}
	}
	g.processed = append(g.processed, processedExit{
		exitID:    *exitID,
		vaultID:   vaultID,
		token:     token,
		initiator: initiator,
	})
	return nil
}

// mockVault is a Vault that does nothing.  The name keeps instances from
// being zero sized so distinct vaults never share an address.
type mockVault struct {
	name string
}

// Withdraw does nothing.  It is part of the Vault interface.
func (v *mockVault) Withdraw(ExitGame, plasma.Address, []Payout) error {
	return nil
}

// testHarness houses a framework along with its clock, a registered exit
// game and vault and the notifications sent so far.
type testHarness struct {
	t             *testing.T
	clock         *ManualClock
	fw            *Framework
	game          *mockExitGame
	vault         *mockVault
	notifications []*Notification
}

// newTestHarness returns a framework with one immune exit game for tx type 1
// and one immune vault registered as the eth vault.
func newTestHarness(t *testing.T, store BlockStore) *testHarness {
	t.Helper()

	h := &testHarness{
		t:     t,
		clock: NewManualClock(testStart),
		game:  &mockExitGame{},
		vault: &mockVault{name: "eth"},
	}
	fw, err := New(&Config{
		Authority:              testAuthority,
		MinExitPeriod:          testMinExitPeriod,
		InitialImmuneExitGames: 1,
		InitialImmuneVaults:    1,
		Clock:                  h.clock,
		BlockStore:             store,
		Notifications: func(n *Notification) {
			h.notifications = append(h.notifications, n)
		},
	})
	if err != nil {
		t.Fatalf("unexpected error creating framework: %v", err)
	}
	h.fw = fw
	if err := fw.RegisterExitGame(1, h.game, txfinality.ProtocolMoreVP); err != nil {
		t.Fatalf("unexpected error registering exit game: %v", err)
	}
	if err := fw.RegisterVault(EthVaultID, h.vault); err != nil {
		t.Fatalf("unexpected error registering vault: %v", err)
	}
	return h
}

// notificationsOfType returns the notifications of the passed type sent so
// far.
func (h *testHarness) notificationsOfType(typ NotificationType) []*Notification {
	var ntfns []*Notification
	for _, n := range h.notifications {
		if n.Type == typ {
			ntfns = append(ntfns, n)
		}
	}
	return ntfns
}

// exitID returns a small exit id for use in tests.
func exitID(v uint64) *uint256.Uint256 {
	return new(uint256.Uint256).SetUint64(v)
}
