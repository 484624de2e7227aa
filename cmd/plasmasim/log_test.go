// Copyright (c) 2024 The Plasma Exit Game developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"testing"

	"github.com/decred/slog"
)

// TestParseAndSetDebugLevels ensures debug levels are parsed and applied per
// subsystem.
func TestParseAndSetDebugLevels(t *testing.T) {
	defer setLogLevels(defaultLogLevel)

	tests := []struct {
		name    string
		level   string
		want    map[string]slog.Level
		invalid bool
	}{{
		name:  "all subsystems",
		level: "debug",
		want: map[string]slog.Level{
			"BLDB": slog.LevelDebug,
			"SIMU": slog.LevelDebug,
		},
	}, {
		name:  "per subsystem",
		level: "EXGM=trace,FRMW=warn",
		want: map[string]slog.Level{
			"EXGM": slog.LevelTrace,
			"FRMW": slog.LevelWarn,
			"SIMU": slog.LevelDebug,
		},
	}, {
		name:    "missing pair separator",
		level:   "EXGM=trace,warn",
		invalid: true,
	}, {
		name:    "unknown level",
		level:   "loud",
		invalid: true,
	}}

	for _, test := range tests {
		err := parseAndSetDebugLevels(test.level)
		if test.invalid {
			if err == nil {
				t.Errorf("%s: did not receive expected error", test.name)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error: %v", test.name, err)
			continue
		}
		for subsystem, want := range test.want {
			if got := subsystemLoggers[subsystem].Level(); got != want {
				t.Errorf("%s: mismatched %s level -- got %v, want %v",
					test.name, subsystem, got, want)
			}
		}
	}
}

// TestSupportedSubsystems ensures every subsystem is listed in order.
func TestSupportedSubsystems(t *testing.T) {
	got := supportedSubsystems()
	want := []string{"BLDB", "EXGM", "FRMW", "SIMU", "VALT"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
