// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package exitgame

import (
	"errors"
	"testing"

	"github.com/plasma-network/exitgame/bond"
	"github.com/plasma-network/exitgame/framework"
	"github.com/plasma-network/exitgame/plasma"
	"github.com/plasma-network/exitgame/spendcond"
	"github.com/plasma-network/exitgame/vault"
)

// TestNewConfig ensures New rejects incomplete configurations.
func TestNewConfig(t *testing.T) {
	h := newTestHarness(t)
	valid := Config{
		Framework:  h.fw,
		Registry:   spendcond.NewRegistry(),
		Ledger:     vault.NewLedger(),
		Address:    testGameAddr,
		Maintainer: testMaintainer,
		TxType:     1,
		Bonds: [numBondKinds]BondConfig{
			{Bond: 1}, {Bond: 1}, {Bond: 1},
		},
	}

	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"no framework", func(c *Config) { c.Framework = nil }},
		{"no registry", func(c *Config) { c.Registry = nil }},
		{"no ledger", func(c *Config) { c.Ledger = nil }},
		{"zero address", func(c *Config) { c.Address = plasma.ZeroAddress }},
		{"zero maintainer", func(c *Config) { c.Maintainer = plasma.ZeroAddress }},
		{"zero tx type", func(c *Config) { c.TxType = 0 }},
		{"zero bond", func(c *Config) { c.Bonds[PiggybackBond].Bond = 0 }},
		{"bounty exceeds bond", func(c *Config) {
			c.Bonds[StartInFlightExitBond].Bounty = 2
		}},
	}
	for _, test := range tests {
		config := valid
		test.modify(&config)
		_, err := New(&config)
		var assertErr framework.AssertError
		if !errors.As(err, &assertErr) {
			t.Errorf("%q: mismatched err -- got %v, want an assertion",
				test.name, err)
		}
	}
	if _, err := New(&valid); err != nil {
		t.Fatalf("unexpected error for valid config: %v", err)
	}
}

// TestVaultIDForToken ensures the native token maps to the eth vault and
// every other token to the erc20 vault.
func TestVaultIDForToken(t *testing.T) {
	if got := VaultIDForToken(plasma.ZeroAddress); got != framework.EthVaultID {
		t.Fatalf("native token maps to vault %d", got)
	}
	if got := VaultIDForToken(plasma.Address{0x01}); got != framework.Erc20VaultID {
		t.Fatalf("erc20 token maps to vault %d", got)
	}
}

// TestUpdateBondSize ensures only the maintainer updates bonds and that
// updates take effect after the waiting period.
func TestUpdateBondSize(t *testing.T) {
	h := newTestHarness(t)

	err := h.game.UpdateStartStandardExitBondSize(testGameAddr, 1500, 100)
	if !errors.Is(err, ErrNotMaintainer) {
		t.Fatalf("mismatched err for non-maintainer -- got %v, want %v",
			err, ErrNotMaintainer)
	}
	err = h.game.UpdatePiggybackBondSize(testMaintainer,
		testPiggybackBond*2+1, 0)
	if !errors.Is(err, bond.ErrBondTooHigh) {
		t.Fatalf("mismatched err for high bond -- got %v, want %v", err,
			bond.ErrBondTooHigh)
	}
	err = h.game.UpdateStartInFlightExitBondSize(testMaintainer,
		testIFEBond/2-1, 0)
	if !errors.Is(err, bond.ErrBondTooLow) {
		t.Fatalf("mismatched err for low bond -- got %v, want %v", err,
			bond.ErrBondTooLow)
	}

	err = h.game.UpdateStartStandardExitBondSize(testMaintainer, 1500, 150)
	if err != nil {
		t.Fatalf("unexpected error updating bond: %v", err)
	}
	if b, bounty := h.game.StartStandardExitBondSize(); b != testStandardBond ||
		bounty != testStandardBond/10 {

		t.Fatalf("bond changed before the waiting period: %d/%d", b, bounty)
	}

	// Exits started before the update takes effect pay the old bond.
	_, owner := testKey(1)
	h.fund(owner)
	depositTx, depositPos, depositProof := h.deposit(owner, 10)
	args := StartStandardExitArgs{
		UtxoPos:                depositPos,
		OutputTx:               depositTx,
		OutputTxInclusionProof: depositProof,
		Bond:                   1500,
	}
	if _, err := h.game.StartStandardExit(owner, &args); !errors.Is(err, ErrBondMismatch) {
		t.Fatalf("mismatched err paying the new bond early -- got %v, want %v",
			err, ErrBondMismatch)
	}

	h.clock.Advance(bond.WaitingPeriod)
	if b, bounty := h.game.StartStandardExitBondSize(); b != 1500 ||
		bounty != 150 {

		t.Fatalf("bond not updated after the waiting period: %d/%d", b,
			bounty)
	}
	exitID, err := h.game.StartStandardExit(owner, &args)
	if err != nil {
		t.Fatalf("unexpected error starting exit with new bond: %v", err)
	}
	exit, _ := h.game.StandardExit(&exitID)
	if exit.BondSize != 1500 || exit.BountySize != 150 {
		t.Fatalf("exit recorded bond %d/%d", exit.BondSize, exit.BountySize)
	}

	// Other bonds are unaffected.
	if b, _ := h.game.PiggybackBondSize(); b != testPiggybackBond {
		t.Fatalf("piggyback bond changed to %d", b)
	}
	if b, _ := h.game.StartInFlightExitBondSize(); b != testIFEBond {
		t.Fatalf("in-flight exit bond changed to %d", b)
	}

	ntfns := h.notificationsOfType(NTBondUpdated)
	if len(ntfns) != 1 {
		t.Fatalf("got %d bond updated notifications, want 1", len(ntfns))
	}
	data := ntfns[0].Data.(*BondUpdatedNtfnsData)
	wantAt := testStart.Add(bond.WaitingPeriod).Unix()
	if data.Bond != StartStandardExitBond || data.NewBond != 1500 ||
		data.NewBounty != 150 || data.EffectiveAt != wantAt {

		t.Fatalf("mismatched notification data %+v", data)
	}
}

// TestDecodeTxCache ensures decoded transactions are cached by hash.
func TestDecodeTxCache(t *testing.T) {
	h := newTestHarness(t)
	_, owner := testKey(1)
	txBytes := paymentTx([]plasma.UtxoPos{mustUtxoPos(1, 0, 0)},
		paymentOutput(owner, 5))

	tx1, err := h.game.decodeTx(txBytes)
	if err != nil {
		t.Fatalf("unexpected error decoding: %v", err)
	}
	tx2, err := h.game.decodeTx(txBytes)
	if err != nil {
		t.Fatalf("unexpected error decoding: %v", err)
	}
	if tx1 != tx2 {
		t.Fatal("second decode did not hit the cache")
	}
	if _, err := h.game.decodeTx(txBytes[:len(txBytes)-1]); err == nil {
		t.Fatal("truncated tx decoded")
	}
}
