// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package framework

import (
	"errors"
	"testing"
	"time"

	"github.com/plasma-network/exitgame/txfinality"
)

// TestRegisterExitGame ensures exit game registration rules are enforced and
// that later exit games are quarantined.
func TestRegisterExitGame(t *testing.T) {
	h := newTestHarness(t, nil)
	fw := h.fw

	tests := []struct {
		name     string
		txType   uint32
		game     ExitGame
		protocol txfinality.Protocol
		wantErr  error
	}{
		{"zero tx type", 0, &mockExitGame{}, txfinality.ProtocolMoreVP, ErrZeroTxType},
		{"invalid protocol", 2, &mockExitGame{}, 0, ErrInvalidProtocol},
		{"tx type taken", 1, &mockExitGame{}, txfinality.ProtocolMoreVP, ErrExitGameRegistered},
		{"game taken", 2, h.game, txfinality.ProtocolMoreVP, ErrExitGameRegistered},
	}
	for _, test := range tests {
		err := fw.RegisterExitGame(test.txType, test.game, test.protocol)
		if !errors.Is(err, test.wantErr) {
			t.Errorf("%q: mismatched err -- got %v, want %v", test.name, err,
				test.wantErr)
		}
	}

	// The initial exit game is immune.
	if err := fw.CheckExitGame(h.game); err != nil {
		t.Fatalf("unexpected error for immune exit game: %v", err)
	}
	if err := fw.CheckExitGame(&mockExitGame{}); !errors.Is(err, ErrExitGameNotRegistered) {
		t.Fatalf("mismatched err -- got %v, want %v", err,
			ErrExitGameNotRegistered)
	}

	// Later exit games are quarantined for three minimum exit periods.
	later := &mockExitGame{}
	if err := fw.RegisterExitGame(2, later, txfinality.ProtocolMVP); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := fw.CheckExitGame(later); !errors.Is(err, ErrExitGameQuarantined) {
		t.Fatalf("mismatched err -- got %v, want %v", err,
			ErrExitGameQuarantined)
	}
	h.clock.Advance(QuarantinePeriodFactor*testMinExitPeriod - time.Second)
	if err := fw.CheckExitGame(later); !errors.Is(err, ErrExitGameQuarantined) {
		t.Fatalf("mismatched err -- got %v, want %v", err,
			ErrExitGameQuarantined)
	}
	h.clock.Advance(time.Second)
	if err := fw.CheckExitGame(later); err != nil {
		t.Fatalf("unexpected error after quarantine: %v", err)
	}

	game, protocol, err := fw.ExitGame(2)
	if err != nil || game != ExitGame(later) || protocol != txfinality.ProtocolMVP {
		t.Fatalf("unexpected lookup %v %v (err %v)", game, protocol, err)
	}
	if _, err := fw.Protocol(3); !errors.Is(err, ErrExitGameNotRegistered) {
		t.Fatalf("mismatched err -- got %v, want %v", err,
			ErrExitGameNotRegistered)
	}
	if got := len(h.notificationsOfType(NTExitGameRegistered)); got != 2 {
		t.Fatalf("got %d registration notifications, want 2", got)
	}
}

// TestRegisterVault ensures vault registration rules are enforced.
func TestRegisterVault(t *testing.T) {
	h := newTestHarness(t, nil)
	fw := h.fw

	if err := fw.RegisterVault(0, &mockVault{name: "zero"}); !errors.Is(err, ErrZeroVaultID) {
		t.Fatalf("mismatched err -- got %v, want %v", err, ErrZeroVaultID)
	}
	if err := fw.RegisterVault(EthVaultID, &mockVault{name: "duplicate"}); !errors.Is(err, ErrVaultRegistered) {
		t.Fatalf("mismatched err -- got %v, want %v", err, ErrVaultRegistered)
	}
	if err := fw.RegisterVault(Erc20VaultID, h.vault); !errors.Is(err, ErrVaultRegistered) {
		t.Fatalf("mismatched err -- got %v, want %v", err, ErrVaultRegistered)
	}

	vault, err := fw.Vault(EthVaultID)
	if err != nil || vault != Vault(h.vault) {
		t.Fatalf("unexpected vault %v (err %v)", vault, err)
	}
	if _, err := fw.Vault(Erc20VaultID); !errors.Is(err, ErrVaultNotRegistered) {
		t.Fatalf("mismatched err -- got %v, want %v", err,
			ErrVaultNotRegistered)
	}
	if err := fw.CheckVault(h.vault); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
